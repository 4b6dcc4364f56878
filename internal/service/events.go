package service

import "servicedir/internal/domain"

// EventType identifies the kind of change event.
type EventType string

const (
	// EventConnected acknowledges a new subscriber. It is sent to that
	// subscriber only, before any broadcast traffic reaches it.
	EventConnected EventType = "connected"

	// EventServiceCreated announces a newly created service to all
	// subscribers. Creation is the only mutation wired to broadcast;
	// replace, patch and delete do not emit events.
	EventServiceCreated EventType = "serviceCreated"
)

// Event is the structured change notification pushed to subscribers. It
// marshals directly to the wire shape.
type Event struct {
	Event   EventType       `json:"event"`
	Service *domain.Service `json:"service,omitempty"`
}

// EventBus allows publishing and subscribing to change events in-process.
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber channel. Subscribe is not safe for concurrent
// use with Publish; wire all subscribers up during startup.
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscriber channels without blocking.
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
