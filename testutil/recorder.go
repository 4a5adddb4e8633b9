// Package testutil holds helpers for testing machines: host adapters and a
// listener that records notifications.
package testutil

import (
	"sync"

	"github.com/comalice/fsmx"
)

// Notification is one listener call.
type Notification[S, E fsmx.Tagged] struct {
	Previous S
	Current  S
	Event    E
}

// Recorder is a listener that keeps every notification it receives. It is safe
// to read from another goroutine than the one notifying it.
type Recorder[S, E fsmx.Tagged] struct {
	mu  sync.Mutex
	all []Notification[S, E]
}

// Listen satisfies fsmx.Listener when passed as a method value.
func (r *Recorder[S, E]) Listen(previous, current S, event E) {
	r.mu.Lock()
	r.all = append(r.all, Notification[S, E]{Previous: previous, Current: current, Event: event})
	r.mu.Unlock()
}

// Notifications returns a copy of what was recorded.
func (r *Recorder[S, E]) Notifications() []Notification[S, E] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification[S, E](nil), r.all...)
}

// Kinds returns the Kind of each recorded current state.
func (r *Recorder[S, E]) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.all))
	for i, n := range r.all {
		kinds[i] = n.Current.Kind()
	}
	return kinds
}

func (r *Recorder[S, E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

func (r *Recorder[S, E]) Reset() {
	r.mu.Lock()
	r.all = nil
	r.mu.Unlock()
}
