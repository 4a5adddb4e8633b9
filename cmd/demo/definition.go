package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/comalice/fsmx/internal/core"
	"github.com/comalice/fsmx/internal/extensibility"
	"github.com/comalice/fsmx/internal/primitives"
	"github.com/comalice/fsmx/internal/production"
	"github.com/comalice/fsmx/realtime"
)

// runDefinition loads DEMO_DEFINITION, prints it as DOT and sends DEMO_STEPS
// events, each one the current state handles.
func runDefinition(ctx context.Context, d demo) error {
	def, err := production.LoadFile(d.cfg.Definition)
	if err != nil {
		return err
	}

	// Every named action just logs.
	actions := extensibility.NewRegistry()
	actionLog := d.log.Named("actions")
	for _, sc := range def.States {
		for _, name := range sc.ActionNames() {
			name := name
			actions.RegisterFunc(name, func(state primitives.State, event primitives.Event) {
				actionLog.Info(name, zap.String("state", state.Type), zap.String("event", event.Type))
			})
		}
	}

	configure, err := core.Prepare(def,
		extensibility.NewLoggingActionRunner(actions, d.log.Named("runner")),
		core.WithLogger(d.log.Named("compile")),
		core.WithContext(ctx))
	if err != nil {
		return err
	}
	rt, err := realtime.New(realtime.Config{TickRate: d.cfg.TickRate, Logger: d.log.Named("realtime")},
		configure, d.machineOptions(def.ID)...)
	if err != nil {
		return err
	}

	fmt.Println((&production.DefaultVisualizer{}).ExportDOT(def, rt.Current().Type))

	events := def.Events()
	steps := 0
	err = drive(ctx, rt, d, func() (primitives.Event, bool) {
		if steps >= d.cfg.Steps || len(events) == 0 {
			return primitives.Event{}, false
		}
		steps++
		return pickEvent(rt, events, steps), true
	})
	if err != nil {
		return err
	}

	fmt.Println((&production.DefaultVisualizer{}).ExportDOT(def, rt.Current().Type))
	return nil
}

// pickEvent returns the first of events, starting at offset, that the current
// state handles. When none is handled it returns events[offset] anyway so the
// unhandled path shows up in the logs and metrics.
func pickEvent(rt *realtime.Runtime[primitives.State, primitives.Event], events []string, offset int) primitives.Event {
	offset %= len(events)
	chosen := events[offset]
	rt.Do(func(m *core.Machine) {
		for i := range events {
			kind := events[(offset+i)%len(events)]
			if m.Handles(kind) {
				chosen = kind
				return
			}
		}
	})
	return primitives.NewEvent(chosen, nil)
}
