package fsmx

// Listener observes dispatches. previous and event are zero values (nil for
// interface types) on the notification delivered by Subscribe.
type Listener[S, E Tagged] func(previous, current S, event E)

type subscription[S, E Tagged] struct {
	id       uint64
	listener Listener[S, E]
}

// registry holds a machine's listeners in subscription order.
type registry[S, E Tagged] struct {
	nextID uint64
	subs   []subscription[S, E]
}

func (r *registry[S, E]) add(l Listener[S, E]) uint64 {
	r.nextID++
	r.subs = append(r.subs, subscription[S, E]{id: r.nextID, listener: l})
	return r.nextID
}

func (r *registry[S, E]) remove(id uint64) {
	for i, s := range r.subs {
		if s.id == id {
			// Copy so a snapshot taken by an in-flight notify keeps its view.
			subs := make([]subscription[S, E], 0, len(r.subs)-1)
			subs = append(subs, r.subs[:i]...)
			r.subs = append(subs, r.subs[i+1:]...)
			return
		}
	}
}

// snapshot returns the listeners present right now. The backing array is never
// mutated in place, so callers may iterate it while listeners come and go.
func (r *registry[S, E]) snapshot() []subscription[S, E] {
	return r.subs[:len(r.subs):len(r.subs)]
}

func (r *registry[S, E]) len() int {
	return len(r.subs)
}

func (r *registry[S, E]) notify(previous, current S, event E) {
	for _, s := range r.snapshot() {
		s.listener(previous, current, event)
	}
}

// Subscribe registers l and calls it once, before returning, with the current
// state. The returned function removes this registration; calling it again
// does nothing. Subscribing the same listener twice yields two registrations.
func (m *Machine[S, E]) Subscribe(l Listener[S, E]) (unsubscribe func()) {
	id := m.observers.add(l)
	var zeroS S
	var zeroE E
	l(zeroS, m.current, zeroE)
	return func() {
		m.observers.remove(id)
	}
}
