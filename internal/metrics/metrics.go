// Package metrics exports Prometheus metrics for running machines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comalice/fsmx"
)

const namespace = "fsmx"

// Outcome label values of fsmx_dispatches_total.
const (
	OutcomeTransition = "transition"
	OutcomeStay       = "stay"
)

// Collector holds the metric vectors shared by every observed machine.
type Collector struct {
	dispatches   *prometheus.CounterVec
	unhandled    *prometheus.CounterVec
	currentState *prometheus.GaugeVec
}

// NewCollector creates the metrics and registers them on reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Total number of events that matched a rule, by outcome",
			},
			[]string{"machine", "from", "to", "outcome"},
		),
		unhandled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unhandled_total",
				Help:      "Total number of events dropped because no rule matched",
			},
			[]string{"machine", "state", "event"},
		),
		currentState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "current_state",
				Help:      "Current state of the machine (1 for the current state, 0 otherwise)",
			},
			[]string{"machine", "state"},
		),
	}
}

// Observable is implemented by *fsmx.Machine and *realtime.Runtime.
type Observable[S, E fsmx.Tagged] interface {
	ID() string
	Subscribe(l fsmx.Listener[S, E]) (unsubscribe func())
}

// Observe keeps the current_state gauge of src up to date until the returned
// function is called. Dispatch counts come from DispatchHook.
func Observe[S, E fsmx.Tagged](c *Collector, src Observable[S, E]) (stop func()) {
	machine := src.ID()
	return src.Subscribe(func(previous, current S, _ E) {
		from, to := kindOf(previous), kindOf(current)
		if from != "" && from != to {
			c.currentState.WithLabelValues(machine, from).Set(0)
		}
		c.currentState.WithLabelValues(machine, to).Set(1)
	})
}

// DispatchHook returns a hook for fsmx.WithDispatchHook that counts the
// dispatches of machine. A transition between two states of the same kind
// counts as OutcomeTransition.
func (c *Collector) DispatchHook(machine string) fsmx.DispatchHook {
	return func(fromKind, toKind, _ string, moved bool) {
		outcome := OutcomeStay
		if moved {
			outcome = OutcomeTransition
		}
		c.dispatches.WithLabelValues(machine, fromKind, toKind, outcome).Inc()
	}
}

// UnhandledHook returns a hook for fsmx.WithUnhandledHook that counts dropped
// events of machine.
func (c *Collector) UnhandledHook(machine string) fsmx.UnhandledHook {
	return func(stateKind, eventKind string) {
		c.unhandled.WithLabelValues(machine, stateKind, eventKind).Inc()
	}
}

// Forget removes every series of machine.
func (c *Collector) Forget(machine string) {
	labels := prometheus.Labels{"machine": machine}
	c.dispatches.DeletePartialMatch(labels)
	c.unhandled.DeletePartialMatch(labels)
	c.currentState.DeletePartialMatch(labels)
}

func kindOf(v fsmx.Tagged) string {
	if v == nil {
		return ""
	}
	return v.Kind()
}
