package fsmx

// ConfigScope is handed to the configure callback passed to New. Its methods
// are only valid while that callback is running and no state definition is
// open; calling them anywhere else panics with *ScopeError.
type ConfigScope[S, E Tagged] struct {
	b *machineBuilder[S, E]
}

// StateScope is handed to the define callback passed to ConfigScope.State. Its
// methods are only valid while that callback is running.
type StateScope[S, E Tagged] struct {
	b    *machineBuilder[S, E]
	kind string
}

// machineBuilder collects the rule table and initial state for one New call.
type machineBuilder[S, E Tagged] struct {
	scopes     scopeStack
	initial    S
	hasInitial bool
	rules      map[string]*stateRules[S, E]
}

func newMachineBuilder[S, E Tagged]() *machineBuilder[S, E] {
	return &machineBuilder[S, E]{
		rules: make(map[string]*stateRules[S, E]),
	}
}

func (b *machineBuilder[S, E]) run(configure func(ConfigScope[S, E])) {
	b.scopes.within(scopeConfig, func() {
		configure(ConfigScope[S, E]{b: b})
	})
}

func (b *machineBuilder[S, E]) validate() error {
	if !b.hasInitial {
		return &ConfigurationError{Reason: "initial state was never set"}
	}
	if len(b.rules) == 0 {
		return &ConfigurationError{Reason: "no states were defined"}
	}
	return nil
}

// InitialState records the state the machine starts in. Calling it again
// replaces the earlier value.
func (c ConfigScope[S, E]) InitialState(state S) {
	c.b.scopes.require(scopeConfig, "InitialState")
	c.b.initial = state
	c.b.hasInitial = true
}

// State registers the rules for states whose Kind is kind. A later call with
// the same kind replaces the earlier registration. A nil define registers a
// state with no callbacks and no rules.
func (c ConfigScope[S, E]) State(kind string, define func(StateScope[S, E])) {
	c.b.scopes.require(scopeConfig, "State")

	c.b.rules[kind] = &stateRules[S, E]{on: make(map[string]Rule[S, E])}
	if define == nil {
		return
	}
	c.b.scopes.within(scopeState, func() {
		define(StateScope[S, E]{b: c.b, kind: kind})
	})
}

// OnEnter sets the callback run with the new state each time the machine enters
// this state, including the initial entry.
func (s StateScope[S, E]) OnEnter(fn func(state S)) {
	s.b.scopes.require(scopeState, "OnEnter")
	s.b.rules[s.kind].onEnter = fn
}

// OnExit sets the callback run with the outgoing state each time the machine
// leaves this state.
func (s StateScope[S, E]) OnExit(fn func(state S)) {
	s.b.scopes.require(scopeState, "OnExit")
	s.b.rules[s.kind].onExit = fn
}

// On sets the rule evaluated when an event of eventKind arrives in this state.
func (s StateScope[S, E]) On(eventKind string, rule Rule[S, E]) {
	s.b.scopes.require(scopeState, "On")
	if rule == nil {
		delete(s.b.rules[s.kind].on, eventKind)
		return
	}
	s.b.rules[s.kind].on[eventKind] = rule
}
