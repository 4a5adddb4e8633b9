package realtime

import (
	"sort"
)

// eventWithMeta adds sequencing metadata for deterministic ordering
type eventWithMeta[E any] struct {
	event       E
	sequenceNum uint64
	priority    int
}

// EventSource is anything that produces events on a channel, such as a timer
// or a network reader. See Runtime.Attach.
type EventSource[E any] interface {
	Events() <-chan E
}

// sortEvents orders events deterministically
func sortEvents[E any](events []eventWithMeta[E]) {
	sort.SliceStable(events, func(i, j int) bool {
		// Primary: Higher priority first
		if events[i].priority != events[j].priority {
			return events[i].priority > events[j].priority
		}

		// Secondary: Earlier sequence number first (FIFO)
		return events[i].sequenceNum < events[j].sequenceNum
	})
}
