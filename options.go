package fsmx

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduler defers a side effect until the current call stack has unwound.
// Implementations must run tasks in the order they were scheduled.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(task func())

// Schedule calls f(task).
func (f SchedulerFunc) Schedule(task func()) {
	f(task)
}

// UnhandledHook is called when a dispatch is dropped because the current state
// has no rule table entry or no rule for the event.
type UnhandledHook func(stateKind, eventKind string)

// DispatchHook is called after the listeners of every dispatch that matched a
// rule. moved is false when the rule kept the current state, and true for any
// transition, including one to a state of the same kind.
type DispatchHook func(fromKind, toKind, eventKind string, moved bool)

type options struct {
	id        string
	name      string
	logger    *zap.Logger
	scheduler Scheduler
	unhandled UnhandledHook
	dispatch  DispatchHook
}

// Option configures a Machine.
type Option func(*options)

// WithID sets the machine ID used in logs and metrics. Defaults to a random UUID.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithName sets a human readable name attached to every log entry.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScheduler sets where side effects are deferred to. By default they run on
// the dispatching goroutine once the outermost Transition has returned, so a
// machine confined to one goroutine stays confined. Pass a schedule.Loop to run
// them elsewhere; the machine must then be synchronized externally if effects
// dispatch.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// WithUnhandledHook registers a hook for dispatches that match no rule.
func WithUnhandledHook(h UnhandledHook) Option {
	return func(o *options) {
		o.unhandled = h
	}
}

// WithDispatchHook registers a hook for dispatches that matched a rule.
func WithDispatchHook(h DispatchHook) Option {
	return func(o *options) {
		o.dispatch = h
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	return o
}
