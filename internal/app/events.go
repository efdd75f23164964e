package app

import (
	"sync"
	"time"

	"codearh/internal/logging"
)

// EventType identifies what changed.
type EventType string

const (
	EventStatus   EventType = "status"   // status line text
	EventMessage  EventType = "message"  // chat message appended
	EventState    EventType = "state"    // conversation state changed
	EventProgress EventType = "progress" // file generation progress
	EventFiles    EventType = "files"    // project files changed
	EventBackend  EventType = "backend"  // backend call progress
)

// Event is published to every subscriber.
type Event struct {
	Type     EventType `json:"type"`
	Status   string    `json:"status,omitempty"`
	Message  *Message  `json:"message,omitempty"`
	State    State     `json:"state,omitempty"`
	Progress float64   `json:"progress,omitempty"`
	Time     time.Time `json:"time"`
}

// subscriberBuffer is the channel size given to each subscriber.
const subscriberBuffer = 64

// Broadcaster fans events out to subscribers. Slow subscribers lose events
// rather than block the request flow.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	enabled bool
}

// NewBroadcaster creates an enabled broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event), enabled: true}
}

// Subscribe registers a subscriber. The returned cancel func closes the
// channel and must be called once.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers e to every subscriber without blocking.
func (b *Broadcaster) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.enabled {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			logging.Debug("dropping event for slow subscriber", "subscriber", id, "type", string(e.Type))
		}
	}
}

// Enable enables event broadcasting
func (b *Broadcaster) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = true
}

// Disable disables event broadcasting
func (b *Broadcaster) Disable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = false
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
