package library

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a library change notification. It intentionally carries no
// payload beyond a timestamp: consumers re-fetch the filtered result
// set and diff it themselves, so a notification is only a nudge.
type Event struct {
	Time time.Time
}

// Subscription is one consumer's handle on the hub. Events arrive on
// the Events channel; the channel is closed on Unsubscribe or when the
// hub shuts down.
type Subscription struct {
	ID     string
	Events chan Event
}

// Hub fans library change notifications out to subscribers. Delivery
// is best-effort: a subscriber whose channel is full misses the event
// and catches up on the next one.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	closed      bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscription),
	}
}

// Subscribe registers a new subscriber. Returns nil if the hub is
// already closed.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	sub := &Subscription{
		ID:     uuid.New().String(),
		Events: make(chan Event, 16),
	}
	h.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[id]; ok {
		close(sub.Events)
		delete(h.subscribers, id)
	}
}

// Publish delivers an event to every subscriber.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for _, sub := range h.subscribers {
		select {
		case sub.Events <- ev:
		default:
			// Channel full, event dropped
		}
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true
	for _, sub := range h.subscribers {
		close(sub.Events)
	}
	h.subscribers = make(map[string]*Subscription)
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
