// Package fsmx is a small finite-state-machine engine for tagged-union states
// and events.
//
// A machine is described once, inside the callback passed to New:
//
//	m, err := fsmx.New(func(c fsmx.ConfigScope[State, Event]) {
//		c.InitialState(Locked{})
//		c.State("locked", func(s fsmx.StateScope[State, Event]) {
//			s.On("coin", func(r fsmx.RuleContext[State, Event]) fsmx.Transition[State] {
//				return r.TransitionTo(Unlocked{}, openDoor)
//			})
//		})
//		c.State("unlocked", nil)
//	}, fsmx.WithScheduler(queue))
//
// State and Event are host-defined interfaces whose variants implement Tagged;
// rules are looked up by the Kind of the current state and of the incoming
// event. Pairs without a rule are ignored.
//
// The configuration entry points are guarded by a scope stack: InitialState and
// State are only valid directly inside the configure callback, OnEnter, OnExit
// and On only inside a State definition. Misuse, including calling a captured
// entry point after New returned, panics with *ScopeError; New itself turns such
// a panic into its returned error.
//
// Side effects requested by a rule run after the dispatch that produced them, in
// issue order. By default they run on the dispatching goroutine just before the
// outermost Transition returns. WithScheduler hands them elsewhere: the
// schedule package provides a drainable queue and a worker loop, and the
// realtime package runs a machine on a single goroutine at a fixed tick rate.
package fsmx
