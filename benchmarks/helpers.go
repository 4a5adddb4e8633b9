// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/internal/primitives"
	"github.com/comalice/fsmx/internal/production"
)

// GenFlatConfig creates a flat machine with n states cycling via "tick" events.
func GenFlatConfig(n int) *primitives.MachineConfig {
	if n < 1 {
		n = 1
	}
	mb := primitives.NewMachineBuilder(fmt.Sprintf("flat_%d", n), "s0")
	for i := 0; i < n; i++ {
		mb.State(fmt.Sprintf("s%d", i)).Transition("tick", fmt.Sprintf("s%d", (i+1)%n))
	}
	return mb.MustBuild()
}

// GenWideConfig creates a hub state with one outgoing event per spoke; every
// spoke returns to the hub on "back".
func GenWideConfig(spokes int) *primitives.MachineConfig {
	if spokes < 1 {
		spokes = 1
	}
	mb := primitives.NewMachineBuilder(fmt.Sprintf("wide_%d", spokes), "hub")
	hub := mb.State("hub")
	for i := 0; i < spokes; i++ {
		hub.Transition(fmt.Sprintf("go%d", i), fmt.Sprintf("spoke%d", i))
	}
	for i := 0; i < spokes; i++ {
		mb.State(fmt.Sprintf("spoke%d", i)).Transition("back", "hub")
	}
	return mb.MustBuild()
}

// GenFlatYAML renders GenFlatConfig(n) as YAML.
func GenFlatYAML(n int) []byte {
	data, err := production.Encode(GenFlatConfig(n), production.FormatYAML)
	if err != nil {
		panic(err)
	}
	return data
}

type (
	pingState interface{ fsmx.Tagged }
	ping      struct{}
	pong      struct{}

	pingEvent interface{ fsmx.Tagged }
	hit       struct{}
)

func (ping) Kind() string { return "ping" }
func (pong) Kind() string { return "pong" }
func (hit) Kind() string  { return "hit" }

// pingPong flips between two states on every hit. onEnter, when non-nil, runs
// on every entry.
func pingPong(onEnter func()) func(fsmx.ConfigScope[pingState, pingEvent]) {
	return func(c fsmx.ConfigScope[pingState, pingEvent]) {
		c.InitialState(ping{})
		c.State("ping", func(s fsmx.StateScope[pingState, pingEvent]) {
			if onEnter != nil {
				s.OnEnter(func(pingState) { onEnter() })
			}
			s.On("hit", func(r fsmx.RuleContext[pingState, pingEvent]) fsmx.Transition[pingState] {
				return r.TransitionTo(pong{})
			})
		})
		c.State("pong", func(s fsmx.StateScope[pingState, pingEvent]) {
			if onEnter != nil {
				s.OnEnter(func(pingState) { onEnter() })
			}
			s.On("hit", func(r fsmx.RuleContext[pingState, pingEvent]) fsmx.Transition[pingState] {
				return r.TransitionTo(ping{})
			})
		})
	}
}
