// Package events provides the in-process event bus that fans dashboard
// state changes out to subscribers, including the SSE stream.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a class of dashboard event
type EventType string

const (
	// Session lifecycle
	SessionStarted EventType = "session_started"
	SessionEnded   EventType = "session_ended"

	// Data changes
	TransactionsChanged  EventType = "transactions_changed"
	DashboardChanged     EventType = "dashboard_changed"
	AnalyticsUpdated     EventType = "analytics_updated"
	NotificationsChanged EventType = "notifications_changed"

	// Connectivity and health
	StreamStatusChanged EventType = "stream_status_changed"
	SystemStatusChanged EventType = "system_status_changed"

	// Failures surfaced to the user
	ErrorOccurred EventType = "error_occurred"
)

// Event is a single bus message
type Event struct {
	Type      EventType   `json:"type"`
	Module    string      `json:"module"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Handler processes events delivered by the bus
type Handler func(*Event)

// Bus is a synchronous publish/subscribe event bus. Handlers run on the
// emitting goroutine, so they must not block.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]*subscription
	log      zerolog.Logger
}

type subscription struct {
	handler Handler
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]*subscription),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type and returns a function
// that removes the subscription.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	sub := &subscription{handler: handler}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, s := range subs {
			if s == sub {
				b.handlers[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount reports how many handlers are subscribed to an event type.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Emit delivers an event to all handlers subscribed to its type.
func (b *Bus) Emit(eventType EventType, module string, data interface{}) {
	event := &Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	subs := make([]*subscription, len(b.handlers[eventType]))
	copy(subs, b.handlers[eventType])
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(eventType)).
		Str("module", module).
		Int("handlers", len(subs)).
		Msg("Emitting event")

	// Handlers run outside the lock so they may subscribe or unsubscribe.
	for _, sub := range subs {
		sub.handler(event)
	}
}
