package fsmx_test

import (
	"fmt"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/schedule"
)

type (
	Light  interface{ fsmx.Tagged }
	Green  struct{}
	Yellow struct{}
	Red    struct{}
	Timer  struct{}
)

func (Green) Kind() string { return "green" }
func (Yellow) Kind() string { return "yellow" }
func (Red) Kind() string { return "red" }
func (Timer) Kind() string { return "timer" }

func Example() {
	q := schedule.NewQueue()
	cycle := map[string]Light{"green": Yellow{}, "yellow": Red{}, "red": Green{}}

	m, err := fsmx.New(func(c fsmx.ConfigScope[Light, fsmx.Tagged]) {
		c.InitialState(Green{})
		for kind := range cycle {
			c.State(kind, func(s fsmx.StateScope[Light, fsmx.Tagged]) {
				s.On("timer", func(r fsmx.RuleContext[Light, fsmx.Tagged]) fsmx.Transition[Light] {
					next := cycle[r.State.Kind()]
					return r.TransitionTo(next, func() { fmt.Println("effect: now", next.Kind()) })
				})
			})
		}
	}, fsmx.WithScheduler(q))
	if err != nil {
		panic(err)
	}

	m.Subscribe(func(prev, cur Light, _ fsmx.Tagged) {
		if prev == nil {
			fmt.Println("start:", cur.Kind())
			return
		}
		fmt.Printf("%s -> %s\n", prev.Kind(), cur.Kind())
	})

	m.Transition(Timer{})
	m.Transition(Timer{})
	q.RunPending()

	// Output:
	// start: green
	// green -> yellow
	// yellow -> red
	// effect: now yellow
	// effect: now red
}

func ExampleScopeError() {
	_, err := fsmx.New(func(c fsmx.ConfigScope[Light, fsmx.Tagged]) {
		c.State("green", func(fsmx.StateScope[Light, fsmx.Tagged]) {
			c.InitialState(Green{})
		})
	})
	fmt.Println(err)

	// Output:
	// fsmx: InitialState must be called inside "config" scope (current scope: state)
}
