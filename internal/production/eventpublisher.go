// Package production provides production integrations: event publishing,
// transition logging, visualization and definition storage.
package production

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/internal/core"
)

// Observable is implemented by *fsmx.Machine and *realtime.Runtime.
type Observable[S, E fsmx.Tagged] interface {
	ID() string
	Subscribe(l fsmx.Listener[S, E]) (unsubscribe func())
}

// PublishedEvent bundles one notification with its machine metadata.
// Previous and Event are zero for the notification delivered on subscribe.
type PublishedEvent[S, E fsmx.Tagged] struct {
	Metadata core.MachineMetadata
	Previous S
	Current  S
	Event    E
}

// ChannelPublisher forwards a machine's notifications to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher[S, E fsmx.Tagged] struct {
	ch          chan<- PublishedEvent[S, E]
	machineID   string
	unsubscribe func()
	dropped     atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// NewChannelPublisher subscribes to src and publishes every notification on
// ch, starting with the current state. The publisher owns ch and closes it on
// Close.
func NewChannelPublisher[S, E fsmx.Tagged](src Observable[S, E], ch chan<- PublishedEvent[S, E]) *ChannelPublisher[S, E] {
	p := &ChannelPublisher[S, E]{ch: ch, machineID: src.ID()}
	p.unsubscribe = src.Subscribe(p.publish)
	return p
}

func (p *ChannelPublisher[S, E]) publish(previous, current S, event E) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	select {
	case p.ch <- PublishedEvent[S, E]{
		Metadata: core.NewMetadata(p.machineID, kindOf(previous), kindOf(current)),
		Previous: previous,
		Current:  current,
		Event:    event,
	}:
	default:
		p.dropped.Add(1) // Non-blocking drop
	}
}

// Dropped returns how many notifications were discarded because ch was full.
func (p *ChannelPublisher[S, E]) Dropped() uint64 {
	return p.dropped.Load()
}

// Close unsubscribes and closes the channel. It is safe to call twice.
func (p *ChannelPublisher[S, E]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.unsubscribe()
	close(p.ch)
	return nil
}

// LogTransitions logs every notification of src at Info level and returns the
// function that stops logging.
func LogTransitions[S, E fsmx.Tagged](src Observable[S, E], logger *zap.Logger) (stop func()) {
	logger = logger.With(zap.String("machine", src.ID()))
	return src.Subscribe(func(previous, current S, event E) {
		if kindOf(event) == "" {
			logger.Info("observing", zap.String("state", kindOf(current)))
			return
		}
		if kindOf(previous) == kindOf(current) {
			logger.Info("stayed",
				zap.String("state", kindOf(current)),
				zap.String("event", kindOf(event)))
			return
		}
		logger.Info("transitioned",
			zap.String("from", kindOf(previous)),
			zap.String("to", kindOf(current)),
			zap.String("event", kindOf(event)))
	})
}

// kindOf is Kind that tolerates nil interface values.
func kindOf(v fsmx.Tagged) string {
	if v == nil {
		return ""
	}
	return v.Kind()
}
