package core

import "sync"

// EventRingBuffer is a fixed-size ring buffer holding the most recent auth
// events seen in live mode. Tracker state is authoritative for detection;
// this buffer only serves re-evaluation and the CLI status view, so live
// monitoring never buffers unboundedly.
type EventRingBuffer struct {
	mu      sync.RWMutex
	entries []*AuthEvent
	maxSize int
	pos     int
	full    bool
}

// NewEventRingBuffer creates a ring buffer that holds up to maxSize events.
func NewEventRingBuffer(maxSize int) *EventRingBuffer {
	if maxSize <= 0 {
		maxSize = 200
	}
	return &EventRingBuffer{
		entries: make([]*AuthEvent, maxSize),
		maxSize: maxSize,
	}
}

// Add records an event, overwriting the oldest entry when full.
func (b *EventRingBuffer) Add(event *AuthEvent) {
	b.mu.Lock()
	b.entries[b.pos] = event
	b.pos = (b.pos + 1) % b.maxSize
	if b.pos == 0 {
		b.full = true
	}
	b.mu.Unlock()
}

// Recent returns the most recent n events in arrival order.
func (b *EventRingBuffer) Recent(n int) []*AuthEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := b.pos
	if b.full {
		total = b.maxSize
	}
	if n > total {
		n = total
	}
	if n <= 0 {
		return []*AuthEvent{}
	}

	result := make([]*AuthEvent, n)
	start := b.pos - n
	if start < 0 {
		start += b.maxSize
	}
	for i := 0; i < n; i++ {
		result[i] = b.entries[(start+i)%b.maxSize]
	}
	return result
}

// Len returns the number of events currently buffered.
func (b *EventRingBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.full {
		return b.maxSize
	}
	return b.pos
}
