package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/realtime"
)

type (
	gate     interface{ fsmx.Tagged }
	locked   struct{ Credit int }
	unlocked struct{}

	input interface{ fsmx.Tagged }
	coin  struct{ Value int }
	push  struct{}
)

func (locked) Kind() string   { return "locked" }
func (unlocked) Kind() string { return "unlocked" }
func (coin) Kind() string     { return "coin" }
func (push) Kind() string     { return "push" }

func turnstile(fare int, log *zap.Logger) func(fsmx.ConfigScope[gate, input]) {
	return func(c fsmx.ConfigScope[gate, input]) {
		c.InitialState(locked{})
		c.State("locked", func(s fsmx.StateScope[gate, input]) {
			s.On("coin", func(r fsmx.RuleContext[gate, input]) fsmx.Transition[gate] {
				credit := r.State.(locked).Credit + r.Event.(coin).Value
				if credit < fare {
					return r.TransitionTo(locked{Credit: credit})
				}
				return r.TransitionTo(unlocked{}, func() {
					log.Info("gate opened", zap.Int("paid", credit), zap.Int("change", credit-fare))
				})
			})
		})
		c.State("unlocked", func(s fsmx.StateScope[gate, input]) {
			s.OnExit(func(gate) { log.Debug("passenger through") })
			s.On("push", func(r fsmx.RuleContext[gate, input]) fsmx.Transition[gate] {
				return r.TransitionTo(locked{})
			})
			s.On("coin", func(r fsmx.RuleContext[gate, input]) fsmx.Transition[gate] {
				value := r.Event.(coin).Value
				return r.DontTransition(func() {
					log.Info("coin returned", zap.Int("value", value))
				})
			})
		})
	}
}

// runTurnstile inserts the configured coins, pushing through whenever the gate
// has opened.
func runTurnstile(ctx context.Context, d demo) error {
	rt, err := realtime.New(realtime.Config{TickRate: d.cfg.TickRate, Logger: d.log.Named("realtime")},
		turnstile(d.cfg.Fare, d.log.Named("turnstile")),
		d.machineOptions("turnstile")...)
	if err != nil {
		return err
	}

	coins := d.cfg.Coins
	return drive(ctx, rt, d, func() (input, bool) {
		if _, open := rt.Current().(unlocked); open {
			return push{}, true
		}
		if len(coins) == 0 {
			return nil, false
		}
		c := coin{Value: coins[0]}
		coins = coins[1:]
		return c, true
	})
}
