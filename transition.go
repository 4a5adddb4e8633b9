package fsmx

// Tagged is implemented by every State and Event variant.
// Kind returns the discriminant used to look up rules.
type Tagged interface {
	Kind() string
}

// SideEffect is deferred work requested by a rule. It runs once, after the
// dispatch that produced it has returned.
type SideEffect func()

// Transition is the descriptor a Rule returns. Build it with
// RuleContext.TransitionTo or RuleContext.DontTransition; the zero value stays
// in the current state with no side effect.
type Transition[S Tagged] struct {
	next   S
	moves  bool
	effect SideEffect
}

// Rule decides what happens when an event arrives in a state.
type Rule[S, E Tagged] func(c RuleContext[S, E]) Transition[S]

// RuleContext is handed to a Rule for one dispatch.
type RuleContext[S, E Tagged] struct {
	State S
	Event E
}

// TransitionTo moves the machine to next. Effects run in argument order once the
// dispatch has completed. A nil next (for interface-typed S) keeps the current
// state, like DontTransition.
func (RuleContext[S, E]) TransitionTo(next S, effects ...SideEffect) Transition[S] {
	if any(next) == nil {
		return Transition[S]{effect: fold(effects)}
	}
	return Transition[S]{next: next, moves: true, effect: fold(effects)}
}

// DontTransition keeps the current state. Effects are still scheduled.
func (RuleContext[S, E]) DontTransition(effects ...SideEffect) Transition[S] {
	return Transition[S]{effect: fold(effects)}
}

func fold(effects []SideEffect) SideEffect {
	var live []SideEffect
	for _, e := range effects {
		if e != nil {
			live = append(live, e)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func() {
		for _, e := range live {
			e()
		}
	}
}

// stateRules is one row of the rule table.
type stateRules[S, E Tagged] struct {
	onEnter func(S)
	onExit  func(S)
	on      map[string]Rule[S, E]
}
