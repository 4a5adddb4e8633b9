package extensibility

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/fsmx/internal/primitives"
)

// ChannelEventSource is an event source backed by a Go channel. Attach it to a
// realtime runtime to feed external events into a compiled machine.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Send queues e, blocking while the channel is full.
func (s *ChannelEventSource) Send(e primitives.Event) {
	s.ch <- e
}

// Close closes the channel, which ends any Attach reading from it.
func (s *ChannelEventSource) Close() {
	close(s.ch)
}

// SeqKey is the Data key under which TimerEventSource stores the tick count of
// each event, starting at 1.
const SeqKey = "seq"

// TimerEventSource emits an event of one type every period, for heartbeats and
// timeouts. Ticks that find the buffer full are counted and skipped instead of
// blocking the timer.
type TimerEventSource struct {
	ch        chan primitives.Event
	eventType string
	data      map[string]any
	period    time.Duration
	dropped   atomic.Uint64
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewTimerEventSource starts a timer firing every d. Each event carries a copy
// of data plus SeqKey.
func NewTimerEventSource(eventType string, data map[string]any, d time.Duration) *TimerEventSource {
	t := &TimerEventSource{
		ch:        make(chan primitives.Event, 10),
		eventType: eventType,
		data:      data,
		period:    d,
		stop:      make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	defer close(t.ch)

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}
		seq++
		select {
		case t.ch <- primitives.NewEvent(t.eventType, t.payload(seq)):
		default:
			t.dropped.Add(1)
		}
	}
}

func (t *TimerEventSource) payload(seq uint64) map[string]any {
	data := make(map[string]any, len(t.data)+1)
	for k, v := range t.data {
		data[k] = v
	}
	data[SeqKey] = seq
	return data
}

// Events returns the event channel. It is closed after Stop.
func (t *TimerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Dropped returns how many ticks were skipped because nobody was reading.
func (t *TimerEventSource) Dropped() uint64 {
	return t.dropped.Load()
}

// Stop stops the timer and closes the channel. It is safe to call twice.
func (t *TimerEventSource) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
