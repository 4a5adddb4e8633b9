package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/internal/primitives"
)

type compiler struct {
	cfg         *primitives.MachineConfig
	actions     ActionRunner
	ctx         context.Context
	logger      *zap.Logger
	onError     ErrorHandler
	machineOpts []fsmx.Option
}

// inflight holds the events of the transitions a single machine is performing,
// innermost last. A rule that moves pushes its event; the entry callback of the
// target pops it.
type inflight struct {
	events []primitives.Event
}

func (f *inflight) push(e primitives.Event) {
	f.events = append(f.events, e)
}

func (f *inflight) top() primitives.Event {
	if len(f.events) == 0 {
		return primitives.Event{}
	}
	return f.events[len(f.events)-1]
}

// pop returns the zero event for the initial entry.
func (f *inflight) pop() primitives.Event {
	e := f.top()
	if len(f.events) > 0 {
		f.events = f.events[:len(f.events)-1]
	}
	return e
}

// Compile validates cfg and builds a machine from it. The machine ID defaults
// to cfg.ID; states are primitives.State values whose Type is the state ID.
//
// Entry and exit actions run synchronously inside the dispatch, in the order
// listed. Effects run as one side effect per transition, through the
// machine's scheduler. actions may be nil for definitions that name no actions.
func Compile(cfg *primitives.MachineConfig, actions ActionRunner, opts ...Option) (*Machine, error) {
	c, err := newCompiler(cfg, actions, opts)
	if err != nil {
		return nil, err
	}

	machineOpts := append([]fsmx.Option{fsmx.WithID(cfg.ID)}, c.machineOpts...)
	m, err := fsmx.New(c.configure, machineOpts...)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", cfg.ID, err)
	}
	return m, nil
}

// Prepare validates cfg like Compile but returns the configure callback instead
// of a machine, for hosts that construct the machine themselves:
//
//	configure, err := core.Prepare(cfg, actions)
//	rt, err := realtime.New(realtime.Config{}, configure, fsmx.WithID(cfg.ID))
//
// WithMachineOptions has no effect here. The callback may configure any number
// of machines; each keeps its own dispatch state.
func Prepare(cfg *primitives.MachineConfig, actions ActionRunner, opts ...Option) (func(fsmx.ConfigScope[primitives.State, primitives.Event]), error) {
	c, err := newCompiler(cfg, actions, opts)
	if err != nil {
		return nil, err
	}
	return c.configure, nil
}

func newCompiler(cfg *primitives.MachineConfig, actions ActionRunner, opts []Option) (*compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &compiler{
		cfg:     cfg,
		actions: actions,
		ctx:     context.Background(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.onError == nil {
		c.onError = c.logError
	}

	if err := c.checkActions(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", cfg.ID, err)
	}
	return c, nil
}

// checkActions rejects action names the runner cannot resolve.
func (c *compiler) checkActions() error {
	resolver, _ := c.actions.(ActionResolver)
	for _, id := range c.cfg.StateIDs() {
		for _, name := range c.cfg.States[id].ActionNames() {
			switch {
			case c.actions == nil:
				return fmt.Errorf("%w: %q in state %q (no action runner)", ErrUnknownAction, name, id)
			case resolver != nil && !resolver.Has(name):
				return fmt.Errorf("%w: %q in state %q", ErrUnknownAction, name, id)
			}
		}
	}
	return nil
}

func (c *compiler) configure(b fsmx.ConfigScope[primitives.State, primitives.Event]) {
	f := &inflight{}
	b.InitialState(primitives.NewState(c.cfg.Initial))
	for _, id := range c.cfg.StateIDs() {
		sc := c.cfg.States[id]
		b.State(id, func(s fsmx.StateScope[primitives.State, primitives.Event]) {
			c.defineState(s, sc, f)
		})
	}
}

// defineState always registers the entry callback: it balances the push done
// by the rule that moved into this state.
func (c *compiler) defineState(s fsmx.StateScope[primitives.State, primitives.Event], sc *primitives.StateConfig, f *inflight) {
	s.OnEnter(func(state primitives.State) {
		event := f.pop()
		c.run(sc.Entry, state, event)
	})
	if len(sc.Exit) > 0 {
		s.OnExit(func(state primitives.State) {
			c.run(sc.Exit, state, f.top())
		})
	}
	for event, tc := range sc.On {
		s.On(event, c.rule(tc, f))
	}
}

func (c *compiler) rule(tc primitives.TransitionConfig, f *inflight) fsmx.Rule[primitives.State, primitives.Event] {
	return func(r fsmx.RuleContext[primitives.State, primitives.Event]) fsmx.Transition[primitives.State] {
		var effect fsmx.SideEffect
		if len(tc.Effects) > 0 {
			from, event := r.State, r.Event
			effect = func() { c.run(tc.Effects, from, event) }
		}

		if tc.Stays() {
			return r.DontTransition(effect)
		}
		f.push(r.Event)
		return r.TransitionTo(primitives.NewState(tc.Target), effect)
	}
}

func (c *compiler) run(names []string, state primitives.State, event primitives.Event) {
	for _, name := range names {
		if err := c.actions.Run(c.ctx, name, state, event); err != nil {
			c.onError(name, err)
		}
	}
}

func (c *compiler) logError(action string, err error) {
	c.logger.Error("action failed",
		zap.String("machine", c.cfg.ID),
		zap.String("action", action),
		zap.Error(err))
}
