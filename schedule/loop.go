package schedule

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is logged when a task is scheduled on a closed Loop.
var ErrClosed = errors.New("schedule: loop closed")

// Loop runs scheduled tasks one at a time on a dedicated goroutine, in the
// order they were scheduled. Schedule never blocks.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	logger  *zap.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLogger sets the logger used for dropped tasks.
func WithLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop starts a loop goroutine. Call Close to stop it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.run()
	return l
}

// Schedule queues task. Tasks scheduled after Close are dropped and logged.
func (l *Loop) Schedule(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Warn("dropping task", zap.Error(ErrClosed))
		return
	}
	l.pending = append(l.pending, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting tasks, waits for queued tasks to finish and stops the
// goroutine. It must not be called from a task.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for range l.wake {
		for {
			l.mu.Lock()
			if len(l.pending) == 0 {
				closed := l.closed
				l.mu.Unlock()
				if closed {
					return
				}
				break
			}
			batch := l.pending
			l.pending = nil
			l.mu.Unlock()

			for _, task := range batch {
				task()
			}
		}
	}
}

var (
	defaultOnce sync.Once
	defaultLoop *Loop
)

// Default returns the process-wide loop, starting it on first use. It is never
// closed.
func Default() *Loop {
	defaultOnce.Do(func() {
		defaultLoop = NewLoop(WithLogger(zap.L().Named("schedule")))
	})
	return defaultLoop
}
