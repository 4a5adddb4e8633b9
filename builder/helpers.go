// Package builder provides shorthands for the rule shapes most machines use.
package builder

import (
	"github.com/comalice/fsmx"
)

// Goto returns a rule that always moves to next.
func Goto[S, E fsmx.Tagged](next S, effects ...fsmx.SideEffect) fsmx.Rule[S, E] {
	return func(r fsmx.RuleContext[S, E]) fsmx.Transition[S] {
		return r.TransitionTo(next, effects...)
	}
}

// Stay returns a rule that keeps the current state and schedules effects.
func Stay[S, E fsmx.Tagged](effects ...fsmx.SideEffect) fsmx.Rule[S, E] {
	return func(r fsmx.RuleContext[S, E]) fsmx.Transition[S] {
		return r.DontTransition(effects...)
	}
}

// Compute returns a rule that moves to whatever fn derives from the current
// state and event. When fn reports false the machine stays put.
func Compute[S, E fsmx.Tagged](fn func(state S, event E) (next S, ok bool)) fsmx.Rule[S, E] {
	return func(r fsmx.RuleContext[S, E]) fsmx.Transition[S] {
		next, ok := fn(r.State, r.Event)
		if !ok {
			return r.DontTransition()
		}
		return r.TransitionTo(next)
	}
}

// OnEach registers rule for every kind in kinds.
func OnEach[S, E fsmx.Tagged](s fsmx.StateScope[S, E], rule fsmx.Rule[S, E], kinds ...string) {
	for _, kind := range kinds {
		s.On(kind, rule)
	}
}
