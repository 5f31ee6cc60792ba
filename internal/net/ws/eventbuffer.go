package ws

import (
	"sync"

	"rollcube/client/internal/net/proto"
)

const (
	eventBufferOccupancyMetricKey = "net_event_buffer_occupancy"
	eventBufferOverflowMetricKey  = "net_event_buffer_overflow_total"
)

// EventBuffer stores decoded inbound events in a fixed-size ring. The read
// pump produces; the game loop drains once per tick. Safe for concurrent
// producers and a single consumer.
type EventBuffer struct {
	mu      sync.Mutex
	data    []proto.Event
	head    int
	tail    int
	count   int
	metrics telemetryMetrics
}

type telemetryMetrics interface {
	Add(string, uint64)
	Store(string, uint64)
}

// NewEventBuffer constructs a ring buffer with the provided capacity.
func NewEventBuffer(capacity int, metrics telemetryMetrics) *EventBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &EventBuffer{
		data:    make([]proto.Event, capacity),
		metrics: metrics,
	}
}

// Capacity reports the maximum number of events the buffer can hold.
func (b *EventBuffer) Capacity() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Push stages an event, returning false if the buffer is full.
func (b *EventBuffer) Push(event proto.Event) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == len(b.data) {
		if b.metrics != nil {
			b.metrics.Add(eventBufferOverflowMetricKey, 1)
		}
		return false
	}
	b.data[b.tail] = event
	b.tail = (b.tail + 1) % len(b.data)
	b.count++
	b.storeOccupancyLocked()
	return true
}

// Drain returns all staged events in FIFO order and clears the buffer.
func (b *EventBuffer) Drain() []proto.Event {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	events := make([]proto.Event, b.count)
	for i := 0; i < b.count; i++ {
		idx := (b.head + i) % len(b.data)
		events[i] = b.data[idx]
	}
	b.head = 0
	b.tail = 0
	b.count = 0
	b.storeOccupancyLocked()
	return events
}

// Len reports the number of staged events.
func (b *EventBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *EventBuffer) storeOccupancyLocked() {
	if b.metrics == nil {
		return
	}
	b.metrics.Store(eventBufferOccupancyMetricKey, uint64(b.count))
}
