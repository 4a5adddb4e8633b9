package realtime

// Step processes one complete tick synchronously and returns the number of
// events dispatched. Each event's side effects run before the next event is
// dispatched. A panic from user code propagates to the caller; events of the
// tick not yet dispatched are dropped.
func (rt *Runtime[S, E]) Step() int {
	// Phase 1: Collect events atomically
	events := rt.collectEvents()

	// Phase 2: Sort for deterministic order
	sortEvents(events)

	// Phase 3: Dispatch, one event at a time
	defer rt.completeTick()
	rt.processEvents(events)

	return len(events)
}

// collectEvents atomically retrieves and clears the event batch
func (rt *Runtime[S, E]) collectEvents() []eventWithMeta[E] {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	events := rt.eventBatch
	rt.eventBatch = make([]eventWithMeta[E], 0, cap(rt.eventBatch))

	return events
}

func (rt *Runtime[S, E]) processEvents(events []eventWithMeta[E]) {
	rt.procMu.Lock()
	defer rt.procMu.Unlock()

	for _, em := range events {
		rt.applyRemovals()
		rt.machine.Transition(em.event)
		rt.runEffects()
	}
}

func (rt *Runtime[S, E]) completeTick() {
	rt.batchMu.Lock()
	rt.tickNum++
	rt.batchMu.Unlock()
}
