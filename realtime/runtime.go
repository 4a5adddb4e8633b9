package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comalice/fsmx"
)

var (
	// ErrQueueFull is returned by SendEvent when MaxEventsPerTick events are
	// already waiting for the next tick.
	ErrQueueFull = errors.New("realtime: event queue full")
	// ErrAlreadyRunning is returned by Start on a runtime whose tick loop is running.
	ErrAlreadyRunning = errors.New("realtime: runtime already running")
	// ErrNotRunning is returned by Stop on a runtime that was never started.
	ErrNotRunning = errors.New("realtime: runtime not running")
)

// Config configures the real-time runtime
type Config struct {
	TickRate         time.Duration // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxEventsPerTick int           // Event queue capacity (default: 1000)
	Logger           *zap.Logger   // Default: no-op
}

// Runtime owns a machine and feeds it events in batches at fixed tick
// boundaries. Every dispatch, listener call and side effect runs while the
// runtime's processing lock is held, so the machine never sees two callers at
// once.
//
// Rules, callbacks, listeners and side effects must not call Step, Do or
// Subscribe on their own runtime. They may call SendEvent; the event is
// processed on the next tick.
type Runtime[S, E fsmx.Tagged] struct {
	machine  *fsmx.Machine[S, E]
	logger   *zap.Logger
	tickRate time.Duration

	// Event batching
	eventBatch  []eventWithMeta[E]
	batchMu     sync.Mutex
	sequenceNum uint64
	tickNum     uint64

	// procMu serializes everything that touches machine.
	procMu  sync.Mutex
	effects []func()

	removeMu sync.Mutex
	removals []func()

	stateMu sync.RWMutex
	current S

	ctrlMu     sync.Mutex
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// New builds a machine from configure and hosts it on a new runtime. The
// runtime is installed as the machine's scheduler, overriding any
// fsmx.WithScheduler in opts.
func New[S, E fsmx.Tagged](cfg Config, configure func(fsmx.ConfigScope[S, E]), opts ...fsmx.Option) (*Runtime[S, E], error) {
	if cfg.MaxEventsPerTick <= 0 {
		cfg.MaxEventsPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	rt := &Runtime[S, E]{
		logger:     cfg.Logger,
		tickRate:   cfg.TickRate,
		eventBatch: make([]eventWithMeta[E], 0, cfg.MaxEventsPerTick),
	}

	opts = append(opts[:len(opts):len(opts)], fsmx.WithScheduler(rt))
	machine, err := fsmx.New(configure, opts...)
	if err != nil {
		return nil, err
	}
	rt.machine = machine
	rt.logger = rt.logger.With(zap.String("machine", machine.ID()))

	rt.procMu.Lock()
	defer rt.procMu.Unlock()
	machine.Subscribe(func(_, current S, _ E) {
		rt.stateMu.Lock()
		rt.current = current
		rt.stateMu.Unlock()
	})

	return rt, nil
}

// Schedule implements fsmx.Scheduler. Tasks run at the end of the dispatch
// that scheduled them, before the next event of the tick is dispatched.
func (rt *Runtime[S, E]) Schedule(task func()) {
	if task == nil {
		return
	}
	rt.effects = append(rt.effects, task)
}

// Start begins tick-based execution. The loop stops when ctx is done or Stop is
// called.
func (rt *Runtime[S, E]) Start(ctx context.Context) error {
	rt.ctrlMu.Lock()
	defer rt.ctrlMu.Unlock()

	if rt.tickCancel != nil {
		return ErrAlreadyRunning
	}

	tickCtx, cancel := context.WithCancel(ctx)
	rt.tickCancel = cancel
	rt.stopped = make(chan struct{})

	go rt.tickLoop(tickCtx, rt.stopped)

	rt.logger.Debug("runtime started", zap.Duration("tick_rate", rt.tickRate))
	return nil
}

// Stop stops the tick loop and waits for the tick in progress to finish.
func (rt *Runtime[S, E]) Stop() error {
	rt.ctrlMu.Lock()
	defer rt.ctrlMu.Unlock()

	if rt.tickCancel == nil {
		return ErrNotRunning
	}
	rt.tickCancel()
	<-rt.stopped
	rt.tickCancel = nil

	rt.logger.Debug("runtime stopped", zap.Uint64("ticks", rt.TickNumber()))
	return nil
}

func (rt *Runtime[S, E]) tickLoop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(rt.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.safeStep()
		}
	}
}

// safeStep runs one tick and logs a panic instead of letting it kill the loop.
func (rt *Runtime[S, E]) safeStep() {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("tick panicked", zap.Any("panic", r), zap.Uint64("tick", rt.TickNumber()))
		}
	}()
	rt.Step()
}

// SendEvent queues an event for the next tick (thread-safe)
func (rt *Runtime[S, E]) SendEvent(event E) error {
	return rt.SendEventWithPriority(event, 0)
}

// SendEventWithPriority queues an event with priority. Within one tick higher
// priorities are dispatched first and equal priorities in send order.
func (rt *Runtime[S, E]) SendEventWithPriority(event E, priority int) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.eventBatch) >= cap(rt.eventBatch) {
		return ErrQueueFull
	}

	rt.eventBatch = append(rt.eventBatch, eventWithMeta[E]{
		event:       event,
		sequenceNum: rt.sequenceNum,
		priority:    priority,
	})
	rt.sequenceNum++

	return nil
}

// Current returns the machine's current state. Safe from any goroutine.
func (rt *Runtime[S, E]) Current() S {
	rt.stateMu.RLock()
	defer rt.stateMu.RUnlock()
	return rt.current
}

// ID returns the hosted machine's ID.
func (rt *Runtime[S, E]) ID() string {
	return rt.machine.ID()
}

// TickNumber returns the number of completed ticks.
func (rt *Runtime[S, E]) TickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}

// Subscribe registers l on the hosted machine. l receives its immediate
// notification before Subscribe returns and is afterwards called from the
// goroutine running the tick. The returned function may be called from
// anywhere, listeners included; the removal takes effect before the next
// dispatch.
func (rt *Runtime[S, E]) Subscribe(l fsmx.Listener[S, E]) (unsubscribe func()) {
	rt.procMu.Lock()
	defer rt.procMu.Unlock()

	rt.applyRemovals()
	unsub := rt.machine.Subscribe(l)

	var once sync.Once
	return func() {
		once.Do(func() {
			rt.removeMu.Lock()
			rt.removals = append(rt.removals, unsub)
			rt.removeMu.Unlock()
		})
	}
}

// Do runs fn with exclusive access to the machine, then runs any side effects
// fn caused. fn must not retain the machine.
func (rt *Runtime[S, E]) Do(fn func(m *fsmx.Machine[S, E])) {
	rt.procMu.Lock()
	defer rt.procMu.Unlock()

	rt.applyRemovals()
	fn(rt.machine)
	rt.runEffects()
}

// Attach forwards events from src until src's channel is closed or ctx is done.
// It blocks; run it on its own goroutine. Events that do not fit in the queue
// are dropped and logged.
func (rt *Runtime[S, E]) Attach(ctx context.Context, src EventSource[E]) error {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := rt.SendEvent(e); err != nil {
				rt.logger.Warn("dropping event", zap.String("event", e.Kind()), zap.Error(err))
			}
		}
	}
}

func (rt *Runtime[S, E]) applyRemovals() {
	rt.removeMu.Lock()
	removals := rt.removals
	rt.removals = nil
	rt.removeMu.Unlock()

	for _, unsub := range removals {
		unsub()
	}
}

// runEffects drains the effects scheduled so far, including effects scheduled
// by the effects it runs. A panicking effect leaves the rest queued for the
// next dispatch.
func (rt *Runtime[S, E]) runEffects() {
	for len(rt.effects) > 0 {
		task := rt.effects[0]
		rt.effects[0] = nil
		rt.effects = rt.effects[1:]
		task()
	}
}
