package fsmx

import (
	"go.uber.org/zap"
)

// Machine holds one current state and dispatches events against a rule table
// fixed at construction.
//
// A Machine is not safe for concurrent use. Confine it to one goroutine (see the
// realtime package) or synchronize calls externally.
type Machine[S, E Tagged] struct {
	id        string
	current   S
	rules     map[string]*stateRules[S, E]
	observers registry[S, E]
	scheduler Scheduler
	unhandled UnhandledHook
	dispatch  DispatchHook
	logger    *zap.Logger

	// Without a Scheduler, effects wait in deferred until the outermost
	// Transition returns and then run on the dispatching goroutine.
	deferred []SideEffect
	depth    int
	draining bool
}

// New builds a machine. configure runs once, synchronously, and must call
// InitialState and register at least one State. The initial state's OnEnter
// callback runs before New returns.
//
// New returns a *ConfigurationError when configure is nil or incomplete, and a
// *ScopeError when an entry point is called outside its scope while configure
// runs.
func New[S, E Tagged](configure func(ConfigScope[S, E]), opts ...Option) (*Machine[S, E], error) {
	if configure == nil {
		return nil, &ConfigurationError{Reason: "configure callback is nil"}
	}

	b := newMachineBuilder[S, E]()
	if err := build(b, configure); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	logger := o.logger.With(zap.String("machine", o.id))
	if o.name != "" {
		logger = logger.With(zap.String("name", o.name))
	}

	m := &Machine[S, E]{
		id:        o.id,
		current:   b.initial,
		rules:     b.rules,
		scheduler: o.scheduler,
		unhandled: o.unhandled,
		dispatch:  o.dispatch,
		logger:    logger,
	}

	m.logger.Debug("machine built",
		zap.String("initial", b.initial.Kind()),
		zap.Int("states", len(b.rules)))

	if r, ok := m.rules[m.current.Kind()]; ok && r.onEnter != nil {
		r.onEnter(m.current)
	}

	return m, nil
}

// build runs configure and converts a *ScopeError panic into an error. Other
// panics are not ours and keep unwinding.
func build[S, E Tagged](b *machineBuilder[S, E], configure func(ConfigScope[S, E])) (err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*ScopeError)
			if !ok {
				panic(r)
			}
			err = se
		}
	}()

	b.run(configure)
	return b.validate()
}

// ID returns the machine ID.
func (m *Machine[S, E]) ID() string {
	return m.id
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	return m.current
}

// Handles reports whether the current state has a rule for eventKind.
func (m *Machine[S, E]) Handles(eventKind string) bool {
	r, ok := m.rules[m.current.Kind()]
	if !ok {
		return false
	}
	_, ok = r.on[eventKind]
	return ok
}

// Transition dispatches event. Events without a matching rule are ignored.
// Panics raised by callbacks propagate to the caller; a panicking rule leaves
// the machine untouched.
//
// Without WithScheduler, side effects run on the calling goroutine just before
// the outermost Transition returns, in the order they were requested. Effects
// requested while they run, including by nested dispatches, join the same
// drain.
func (m *Machine[S, E]) Transition(event E) {
	m.enter(event)
	if m.depth == 0 {
		m.runDeferred()
	}
}

// enter runs one dispatch with the nesting depth raised, restoring it even when
// a callback panics.
func (m *Machine[S, E]) enter(event E) {
	m.depth++
	defer func() { m.depth-- }()
	m.transition(event)
}

// runDeferred drains the effects queued while no Scheduler is set. A panicking
// effect leaves the rest queued for the next outermost dispatch.
func (m *Machine[S, E]) runDeferred() {
	if m.draining {
		return
	}
	m.draining = true
	defer func() { m.draining = false }()

	for len(m.deferred) > 0 {
		effect := m.deferred[0]
		m.deferred[0] = nil
		m.deferred = m.deferred[1:]
		effect()
	}
}

func (m *Machine[S, E]) transition(event E) {
	stateKind := m.current.Kind()
	eventKind := event.Kind()

	r, ok := m.rules[stateKind]
	if !ok {
		m.logger.Debug("no rules for state", zap.String("state", stateKind), zap.String("event", eventKind))
		m.dropped(stateKind, eventKind)
		return
	}
	rule, ok := r.on[eventKind]
	if !ok {
		m.logger.Debug("event not handled", zap.String("state", stateKind), zap.String("event", eventKind))
		m.dropped(stateKind, eventKind)
		return
	}

	t := rule(RuleContext[S, E]{State: m.current, Event: event})

	previous := m.current
	if t.moves {
		if from, ok := m.rules[previous.Kind()]; ok && from.onExit != nil {
			from.onExit(previous)
		}
		m.current = t.next
		if to, ok := m.rules[m.current.Kind()]; ok && to.onEnter != nil {
			to.onEnter(m.current)
		}
		m.logger.Debug("transition",
			zap.String("from", previous.Kind()),
			zap.String("to", m.current.Kind()),
			zap.String("event", eventKind))
	} else {
		m.logger.Debug("stay", zap.String("state", previous.Kind()), zap.String("event", eventKind))
	}

	m.observers.notify(previous, m.current, event)
	if m.dispatch != nil {
		m.dispatch(previous.Kind(), m.current.Kind(), eventKind, t.moves)
	}

	if t.effect == nil {
		return
	}
	m.logger.Debug("side effect scheduled", zap.String("event", eventKind))
	if m.scheduler != nil {
		m.scheduler.Schedule(t.effect)
		return
	}
	m.deferred = append(m.deferred, t.effect)
}

func (m *Machine[S, E]) dropped(stateKind, eventKind string) {
	if m.unhandled != nil {
		m.unhandled(stateKind, eventKind)
	}
}
