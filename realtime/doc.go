// Package realtime provides a tick-based deterministic host for fsmx machines.
//
// The runtime differs from calling Machine.Transition directly in event dispatch:
//   - Events are batched and processed at fixed tick boundaries
//   - Deterministic event ordering via sequence numbers
//   - One goroutine owns the machine, so senders need no locking
//   - Fixed time-step execution (e.g., 60 FPS)
//
// # Example Usage
//
//	rt, err := realtime.New(realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	}, configure)
//	rt.Start(ctx)
//	rt.SendEvent(Coin{Value: 50})
//
// # Side Effects
//
// The runtime is the machine's scheduler. Side effects requested by a rule run
// after that event's dispatch and listener notifications, and before the next
// event of the same tick is dispatched. An effect that sends an event through
// SendEvent queues it for the following tick.
//
// # Event Ordering Guarantees
//
// Events are ordered deterministically using:
//  1. Priority (higher priority processed first)
//  2. Sequence number (FIFO for same priority)
//  3. Stable sorting (preserves relative order)
//
// This ensures that given the same sequence of SendEvent() calls,
// the state machine will always execute the same way, regardless of
// timing or concurrency.
//
// # Testing
//
// Step processes one tick synchronously without starting the tick loop, which
// makes scenarios reproducible in tests.
package realtime
