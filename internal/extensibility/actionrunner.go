// Package extensibility provides ready-made components that plug into compiled
// machines: action runners and event sources.
package extensibility

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comalice/fsmx/internal/core"
	"github.com/comalice/fsmx/internal/primitives"
)

// ErrUnknownAction is returned when a Registry is asked to run a name it does
// not hold.
var ErrUnknownAction = core.ErrUnknownAction

// Action is a named piece of behaviour referenced from a MachineConfig.
type Action func(ctx context.Context, state primitives.State, event primitives.Event) error

// Registry is an ActionRunner backed by a table of named actions. It is safe
// for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds or replaces the action called name.
func (r *Registry) Register(name string, action Action) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = action
	return r
}

// RegisterFunc registers a function that cannot fail.
func (r *Registry) RegisterFunc(name string, fn func(state primitives.State, event primitives.Event)) *Registry {
	return r.Register(name, func(_ context.Context, state primitives.State, event primitives.Event) error {
		fn(state, event)
		return nil
	})
}

// Has implements core.ActionResolver.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[name]
	return ok
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named action.
func (r *Registry) Run(ctx context.Context, name string, state primitives.State, event primitives.Event) error {
	r.mu.RLock()
	action, ok := r.actions[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return action(ctx, state, event)
}

// LoggingActionRunner wraps an ActionRunner and adds logging around execution.
type LoggingActionRunner struct {
	inner  core.ActionRunner
	logger *zap.Logger
}

// NewLoggingActionRunner creates a new LoggingActionRunner wrapping the given inner runner.
func NewLoggingActionRunner(inner core.ActionRunner, logger *zap.Logger) *LoggingActionRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingActionRunner{inner: inner, logger: logger}
}

// Has forwards to the inner runner when it can resolve names, and reports true
// otherwise.
func (r *LoggingActionRunner) Has(name string) bool {
	if resolver, ok := r.inner.(core.ActionResolver); ok {
		return resolver.Has(name)
	}
	return true
}

// Run logs before and after delegating to the inner runner.
func (r *LoggingActionRunner) Run(ctx context.Context, name string, state primitives.State, event primitives.Event) error {
	fields := []zap.Field{
		zap.String("action", name),
		zap.String("state", state.Type),
		zap.String("event", event.Type),
	}
	r.logger.Debug("executing action", fields...)

	start := time.Now()
	err := r.inner.Run(ctx, name, state, event)

	fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		r.logger.Warn("action failed", append(fields, zap.Error(err))...)
		return err
	}
	r.logger.Debug("action completed", fields...)
	return nil
}
