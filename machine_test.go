package fsmx_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/schedule"
)

// Turnstile states and events.
type (
	tState interface {
		fsmx.Tagged
		isTurnstileState()
	}
	locked   struct{ Credit int }
	unlocked struct{}

	tEvent interface {
		fsmx.Tagged
		isTurnstileEvent()
	}
	insertCoin struct{ Value int }
	push       struct{}
)

func (locked) Kind() string { return "locked" }
func (unlocked) Kind() string { return "unlocked" }
func (insertCoin) Kind() string { return "insertCoin" }
func (push) Kind() string { return "push" }
func (locked) isTurnstileState() {}
func (unlocked) isTurnstileState() {}
func (insertCoin) isTurnstileEvent() {}
func (push) isTurnstileEvent() {}

const fare = 50

func newTurnstile(t *testing.T, q *schedule.Queue, doorOpened *int) *fsmx.Machine[tState, tEvent] {
	t.Helper()
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{Credit: 0})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				credit := r.State.(locked).Credit + r.Event.(insertCoin).Value
				if credit >= fare {
					return r.TransitionTo(unlocked{}, func() { *doorOpened++ })
				}
				return r.TransitionTo(locked{Credit: credit})
			})
		})
		c.State("unlocked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(locked{})
			})
		})
	}, fsmx.WithScheduler(q))
	require.NoError(t, err)
	return m
}

func TestTurnstileExactFareUnlocks(t *testing.T) {
	q := schedule.NewQueue()
	opened := 0
	m := newTurnstile(t, q, &opened)

	m.Transition(insertCoin{Value: 50})

	assert.Equal(t, unlocked{}, m.Current())
	assert.Equal(t, 1, q.Len(), "door opening must be scheduled")
	assert.Equal(t, 0, opened, "side effect must not run during dispatch")

	q.RunPending()
	assert.Equal(t, 1, opened)
}

func TestTurnstilePartialCoinAccumulates(t *testing.T) {
	q := schedule.NewQueue()
	opened := 0
	m := newTurnstile(t, q, &opened)

	m.Transition(insertCoin{Value: 10})

	assert.Equal(t, locked{Credit: 10}, m.Current())
	assert.Equal(t, 0, q.Len())

	m.Transition(insertCoin{Value: 40})
	assert.Equal(t, unlocked{}, m.Current())
}

func TestUnhandledEventIsNoop(t *testing.T) {
	q := schedule.NewQueue()
	opened := 0
	var unhandled [][2]string
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{Credit: 5})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.OnEnter(func(tState) { opened += 100 })
			s.OnExit(func(tState) { opened += 1000 })
		})
	}, fsmx.WithScheduler(q), fsmx.WithUnhandledHook(func(state, event string) {
		unhandled = append(unhandled, [2]string{state, event})
	}))
	require.NoError(t, err)
	require.Equal(t, 100, opened)

	calls := 0
	m.Subscribe(func(_, _ tState, _ tEvent) { calls++ })
	require.Equal(t, 1, calls)

	m.Transition(push{})
	m.Transition(insertCoin{Value: 1})

	assert.Equal(t, locked{Credit: 5}, m.Current())
	assert.Equal(t, 1, calls, "listeners must not hear about ignored events")
	assert.Equal(t, 100, opened, "no enter/exit for ignored events")
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, [][2]string{{"locked", "push"}, {"locked", "insertCoin"}}, unhandled)
	assert.False(t, m.Handles("push"))
}

func TestUnconfiguredStateIgnoresEvents(t *testing.T) {
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(unlocked{})
			})
		})
	}, fsmx.WithScheduler(schedule.NewQueue()))
	require.NoError(t, err)

	m.Transition(push{})
	require.Equal(t, unlocked{}, m.Current())

	// "unlocked" has no rule table entry at all.
	m.Transition(push{})
	m.Transition(insertCoin{Value: 1})
	assert.Equal(t, unlocked{}, m.Current())
	assert.False(t, m.Handles("push"))
}

func TestExitEnterOrdering(t *testing.T) {
	var (
		m    *fsmx.Machine[tState, tEvent]
		log  []string
		err  error
		seen []tState
	)
	m, err = fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.OnExit(func(st tState) {
				log = append(log, "exit:"+st.Kind())
				seen = append(seen, m.Current())
			})
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				log = append(log, "rule")
				return r.TransitionTo(unlocked{})
			})
		})
		c.State("unlocked", func(s fsmx.StateScope[tState, tEvent]) {
			s.OnEnter(func(st tState) {
				log = append(log, "enter:"+st.Kind())
				seen = append(seen, m.Current())
			})
		})
	}, fsmx.WithScheduler(schedule.NewQueue()))
	require.NoError(t, err)

	m.Subscribe(func(prev, cur tState, ev tEvent) {
		if ev == nil {
			return
		}
		log = append(log, "notify:"+prev.Kind()+"->"+cur.Kind())
	})

	m.Transition(insertCoin{Value: 1})

	assert.Equal(t, []string{"rule", "exit:locked", "enter:unlocked", "notify:locked->unlocked"}, log)
	assert.Equal(t, []tState{locked{}, unlocked{}}, seen, "exit sees the old state, enter sees the new one")
}

func TestDontTransitionSkipsCallbacksButNotifies(t *testing.T) {
	q := schedule.NewQueue()
	enters, exits, effects := 0, 0, 0
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(unlocked{})
		c.State("unlocked", func(s fsmx.StateScope[tState, tEvent]) {
			s.OnEnter(func(tState) { enters++ })
			s.OnExit(func(tState) { exits++ })
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.DontTransition(func() { effects++ })
			})
		})
	}, fsmx.WithScheduler(q))
	require.NoError(t, err)

	var prev, cur tState
	var ev tEvent
	m.Subscribe(func(p, c tState, e tEvent) { prev, cur, ev = p, c, e })

	m.Transition(insertCoin{Value: 10})

	assert.Equal(t, 1, enters, "only the initial entry")
	assert.Equal(t, 0, exits)
	assert.Equal(t, unlocked{}, prev)
	assert.Equal(t, unlocked{}, cur)
	assert.Equal(t, insertCoin{Value: 10}, ev)
	assert.Equal(t, 0, effects)
	q.RunPending()
	assert.Equal(t, 1, effects)
}

func TestZeroTransitionStays(t *testing.T) {
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{Credit: 3})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("push", func(fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return fsmx.Transition[tState]{}
			})
		})
	}, fsmx.WithScheduler(schedule.NewQueue()))
	require.NoError(t, err)

	m.Transition(push{})
	assert.Equal(t, locked{Credit: 3}, m.Current())
}

func TestSideEffectsAreDeferredAndFIFO(t *testing.T) {
	q := schedule.NewQueue()
	var order []string
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				n := r.Event.(insertCoin).Value
				return r.DontTransition(
					func() { order = append(order, "effect-a", string(rune('0'+n))) },
					nil,
					func() { order = append(order, "effect-b") },
				)
			})
		})
	}, fsmx.WithScheduler(q))
	require.NoError(t, err)

	m.Subscribe(func(_, _ tState, ev tEvent) {
		if ev != nil {
			order = append(order, "notify")
		}
	})

	m.Transition(insertCoin{Value: 1})
	m.Transition(insertCoin{Value: 2})
	assert.Equal(t, []string{"notify", "notify"}, order)

	q.RunPending()
	assert.Equal(t, []string{"notify", "notify", "effect-a", "1", "effect-b", "effect-a", "2", "effect-b"}, order)
}

func TestSideEffectMayDispatch(t *testing.T) {
	q := schedule.NewQueue()
	var m *fsmx.Machine[tState, tEvent]
	var err error
	m, err = fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(unlocked{}, func() { m.Transition(push{}) })
			})
		})
		c.State("unlocked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(locked{Credit: 1})
			})
		})
	}, fsmx.WithScheduler(q))
	require.NoError(t, err)

	m.Transition(insertCoin{Value: 50})
	require.Equal(t, unlocked{}, m.Current())
	q.RunPending()
	assert.Equal(t, locked{Credit: 1}, m.Current())
}

func TestRulePanicLeavesStateUntouched(t *testing.T) {
	exits := 0
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{Credit: 7})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.OnExit(func(tState) { exits++ })
			s.On("push", func(fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				panic(errors.New("rule failed"))
			})
		})
	}, fsmx.WithScheduler(schedule.NewQueue()))
	require.NoError(t, err)

	notified := 0
	m.Subscribe(func(_, _ tState, _ tEvent) { notified++ })

	assert.PanicsWithError(t, "rule failed", func() { m.Transition(push{}) })
	assert.Equal(t, locked{Credit: 7}, m.Current())
	assert.Equal(t, 0, exits)
	assert.Equal(t, 1, notified)
}

// Three states in a ring, each advancing on "next".
type (
	ring interface{ fsmx.Tagged }
	s1   struct{}
	s2   struct{}
	s3   struct{}
	next struct{}
)

func (s1) Kind() string { return "state1" }
func (s2) Kind() string { return "state2" }
func (s3) Kind() string { return "state3" }
func (next) Kind() string { return "next" }

func TestEnterExitCountsAroundCycle(t *testing.T) {
	enters := map[string]int{}
	exits := map[string]int{}
	targets := map[string]ring{"state1": s2{}, "state2": s3{}, "state3": s1{}}

	m, err := fsmx.New(func(c fsmx.ConfigScope[ring, fsmx.Tagged]) {
		c.InitialState(s1{})
		for _, kind := range []string{"state1", "state2", "state3"} {
			c.State(kind, func(s fsmx.StateScope[ring, fsmx.Tagged]) {
				s.OnEnter(func(st ring) { enters[st.Kind()]++ })
				s.OnExit(func(st ring) { exits[st.Kind()]++ })
				s.On("next", func(r fsmx.RuleContext[ring, fsmx.Tagged]) fsmx.Transition[ring] {
					return r.TransitionTo(targets[r.State.Kind()])
				})
			})
		}
	}, fsmx.WithScheduler(schedule.NewQueue()))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		m.Transition(next{})
	}

	assert.Equal(t, s1{}, m.Current())
	assert.Equal(t, map[string]int{"state1": 1, "state2": 1, "state3": 1}, exits)
	assert.Equal(t, map[string]int{"state1": 2, "state2": 1, "state3": 1}, enters)
}

func TestReRegisteringStateReplacesRules(t *testing.T) {
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(unlocked{})
			})
		})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(unlocked{})
			})
		})
	}, fsmx.WithScheduler(schedule.NewQueue()))
	require.NoError(t, err)

	assert.False(t, m.Handles("push"))
	assert.True(t, m.Handles("insertCoin"))
}

func TestInitialStateLastWriteWins(t *testing.T) {
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{Credit: 1})
		c.State("locked", nil)
		c.InitialState(locked{Credit: 2})
	}, fsmx.WithScheduler(schedule.NewQueue()))
	require.NoError(t, err)
	assert.Equal(t, locked{Credit: 2}, m.Current())
}

func TestMachineIDOption(t *testing.T) {
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", nil)
	}, fsmx.WithID("turnstile-1"), fsmx.WithName("gate"), fsmx.WithScheduler(schedule.NewQueue()))
	require.NoError(t, err)
	assert.Equal(t, "turnstile-1", m.ID())

	other, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", nil)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, other.ID())
	assert.NotEqual(t, m.ID(), other.ID())
}

func TestDefaultSchedulerRunsEffectsOnCaller(t *testing.T) {
	var m *fsmx.Machine[tState, tEvent]
	var order []string
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(unlocked{}, func() {
					order = append(order, "effect:"+m.Current().Kind())
					m.Transition(push{})
					order = append(order, "after-push:"+m.Current().Kind())
				})
			})
		})
		c.State("unlocked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(locked{})
			})
		})
	})
	require.NoError(t, err)
	m.Subscribe(func(_, cur tState, e tEvent) {
		if e != nil {
			order = append(order, "listener:"+cur.Kind())
		}
	})

	for i := 0; i < 100; i++ {
		order = nil
		m.Transition(insertCoin{Value: fare})
		require.Equal(t, locked{}, m.Current())
		require.Equal(t, []string{
			"listener:unlocked",
			"effect:unlocked",
			"listener:locked",
			"after-push:locked",
		}, order)
	}
}

func TestDefaultSchedulerWaitsForOutermostDispatch(t *testing.T) {
	var m *fsmx.Machine[tState, tEvent]
	var order []string
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(unlocked{}, func() { order = append(order, "coin effect") })
			})
		})
		c.State("unlocked", func(s fsmx.StateScope[tState, tEvent]) {
			s.OnEnter(func(tState) {
				m.Transition(push{})
				order = append(order, "nested push returned")
			})
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(locked{}, func() { order = append(order, "push effect") })
			})
		})
	})
	require.NoError(t, err)

	m.Transition(insertCoin{Value: 1})
	assert.Equal(t, []string{"nested push returned", "push effect", "coin effect"}, order)
}

func TestDefaultSchedulerPanickingEffectKeepsRest(t *testing.T) {
	ran := 0
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.DontTransition(func() { panic("jam") })
			})
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.DontTransition(func() { ran++ })
			})
		})
	})
	require.NoError(t, err)

	assert.PanicsWithValue(t, "jam", func() { m.Transition(insertCoin{}) })
	m.Transition(push{})
	assert.Equal(t, 1, ran)
}

func TestTransitionToNilStays(t *testing.T) {
	var calls []string
	effects := 0
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{Credit: 5})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.OnEnter(func(tState) { calls = append(calls, "enter") })
			s.OnExit(func(tState) { calls = append(calls, "exit") })
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(nil, func() { effects++ })
			})
		})
	})
	require.NoError(t, err)
	calls = nil

	var seen []tState
	m.Subscribe(func(_, cur tState, _ tEvent) { seen = append(seen, cur) })

	m.Transition(push{})
	assert.Equal(t, locked{Credit: 5}, m.Current())
	assert.Empty(t, calls, "neither exit nor enter may fire")
	assert.Equal(t, 1, effects)
	assert.Equal(t, []tState{locked{Credit: 5}, locked{Credit: 5}}, seen)

	m.Transition(push{})
	assert.True(t, m.Handles("push"))
}

func TestDispatchHookReportsMoves(t *testing.T) {
	type call struct {
		from, to, event string
		moved           bool
	}
	var calls []call
	m, err := fsmx.New(func(c fsmx.ConfigScope[tState, tEvent]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[tState, tEvent]) {
			s.On("insertCoin", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.TransitionTo(locked{Credit: r.State.(locked).Credit + 10})
			})
			s.On("push", func(r fsmx.RuleContext[tState, tEvent]) fsmx.Transition[tState] {
				return r.DontTransition()
			})
		})
	}, fsmx.WithDispatchHook(func(from, to, event string, moved bool) {
		calls = append(calls, call{from, to, event, moved})
	}))
	require.NoError(t, err)

	m.Transition(insertCoin{Value: 10})
	m.Transition(push{})
	m.Transition(kick{})

	assert.Equal(t, []call{
		{"locked", "locked", "insertCoin", true},
		{"locked", "locked", "push", false},
	}, calls)
}

type kick struct{}

func (kick) Kind() string      { return "kick" }
func (kick) isTurnstileEvent() {}
