package testutil

import (
	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/realtime"
	"github.com/comalice/fsmx/schedule"
)

// Adapter drives a machine through either host so the same scenario can run
// against both.
type Adapter[S, E fsmx.Tagged] interface {
	// Send hands event to the host.
	Send(event E) error
	// Settle processes everything sent so far, side effects included.
	Settle()
	Current() S
	Subscribe(l fsmx.Listener[S, E]) (unsubscribe func())
}

// SyncAdapter dispatches on the caller's goroutine and defers effects to a
// queue drained by Settle.
type SyncAdapter[S, E fsmx.Tagged] struct {
	machine *fsmx.Machine[S, E]
	queue   *schedule.Queue
}

// NewSyncAdapter builds a machine on a fresh schedule.Queue.
func NewSyncAdapter[S, E fsmx.Tagged](configure func(fsmx.ConfigScope[S, E]), opts ...fsmx.Option) (*SyncAdapter[S, E], error) {
	q := schedule.NewQueue()
	m, err := fsmx.New(configure, append(opts[:len(opts):len(opts)], fsmx.WithScheduler(q))...)
	if err != nil {
		return nil, err
	}
	return &SyncAdapter[S, E]{machine: m, queue: q}, nil
}

func (a *SyncAdapter[S, E]) Send(event E) error {
	a.machine.Transition(event)
	return nil
}

// Settle drains the queue.
func (a *SyncAdapter[S, E]) Settle() {
	a.queue.RunPending()
}

func (a *SyncAdapter[S, E]) Current() S {
	return a.machine.Current()
}

func (a *SyncAdapter[S, E]) Subscribe(l fsmx.Listener[S, E]) func() {
	return a.machine.Subscribe(l)
}

// Machine exposes the wrapped machine.
func (a *SyncAdapter[S, E]) Machine() *fsmx.Machine[S, E] {
	return a.machine
}

// maxSettleTicks bounds Settle for machines whose effects keep sending events.
const maxSettleTicks = 100

// TickAdapter wraps a realtime.Runtime that is stepped manually instead of
// running its tick loop.
type TickAdapter[S, E fsmx.Tagged] struct {
	rt *realtime.Runtime[S, E]
}

// NewTickAdapter builds a runtime with cfg.
func NewTickAdapter[S, E fsmx.Tagged](cfg realtime.Config, configure func(fsmx.ConfigScope[S, E]), opts ...fsmx.Option) (*TickAdapter[S, E], error) {
	rt, err := realtime.New(cfg, configure, opts...)
	if err != nil {
		return nil, err
	}
	return &TickAdapter[S, E]{rt: rt}, nil
}

func (a *TickAdapter[S, E]) Send(event E) error {
	return a.rt.SendEvent(event)
}

// Settle steps until a tick finds no queued events.
func (a *TickAdapter[S, E]) Settle() {
	for i := 0; i < maxSettleTicks; i++ {
		if a.rt.Step() == 0 {
			return
		}
	}
}

func (a *TickAdapter[S, E]) Current() S {
	return a.rt.Current()
}

func (a *TickAdapter[S, E]) Subscribe(l fsmx.Listener[S, E]) func() {
	return a.rt.Subscribe(l)
}

// Runtime exposes the wrapped runtime.
func (a *TickAdapter[S, E]) Runtime() *realtime.Runtime[S, E] {
	return a.rt
}
