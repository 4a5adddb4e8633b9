// Package schedule provides deferred-execution facilities for fsmx side
// effects.
//
// Queue is deterministic: tasks wait until the host calls RunPending, which
// makes it the right choice for tests and for hosts that already own an event
// loop. Loop runs tasks on its own goroutine as soon as they arrive. Both run
// tasks strictly in the order they were scheduled.
package schedule
