package watcher

import "time"

// Operation represents the type of file system operation.
type Operation int

const (
	OpModify Operation = iota
	OpDelete
)

// String returns the string representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is a debounced change to one file.
type Event struct {
	Path      string
	Operation Operation
	Time      time.Time
}

// Config holds watcher configuration.
type Config struct {
	Enabled    bool
	DebounceMs int
}

// ChangeHandler is called once per debounced change.
type ChangeHandler func(path string, op Operation)

// EventBuffer is a circular buffer for recent events.
type EventBuffer struct {
	events []Event
	size   int
	head   int
	count  int
}

// NewEventBuffer creates a new event buffer with the given capacity.
func NewEventBuffer(capacity int) *EventBuffer {
	if capacity < 1 {
		capacity = 100
	}
	return &EventBuffer{
		events: make([]Event, capacity),
		size:   capacity,
	}
}

// Add adds an event to the buffer.
func (b *EventBuffer) Add(event Event) {
	b.events[b.head] = event
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Recent returns the n most recent events, oldest first.
func (b *EventBuffer) Recent(n int) []Event {
	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return nil
	}

	result := make([]Event, n)
	for i := 0; i < n; i++ {
		idx := (b.head - n + i + b.size) % b.size
		result[i] = b.events[idx]
	}
	return result
}

// Len returns the number of events in the buffer.
func (b *EventBuffer) Len() int {
	return b.count
}
