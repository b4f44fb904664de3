// Package transport provides the client side of the relay connection: a
// websocket Conn and the Dispatcher that delivers inbound messages to the
// application through two paths, named-event subscriptions and a single
// assignable callback slot.
package transport

import "sync"

// Event names dispatched by a Conn.
const (
	EventMessage = "message"
	EventOpen    = "open"
	EventClose   = "close"
	EventError   = "error"
)

// Handler receives an event payload. For EventMessage it is the raw frame;
// other events may carry an empty payload.
type Handler func(payload []byte)

// Delivery is the message-delivery surface an interceptor can wrap: the
// event-subscription path and the callback-slot path.
type Delivery interface {
	// Subscribe registers h for the named event. Multiple handlers per
	// event are allowed and run in registration order.
	Subscribe(event string, h Handler)
	// OnMessage returns the handler currently assigned to the slot.
	OnMessage() Handler
	// SetOnMessage assigns the single message callback slot. A nil handler
	// clears the slot.
	SetOnMessage(h Handler)
}

// Dispatcher implements Delivery. Handlers run inline on the goroutine that
// calls Dispatch, so delivery order is the arrival order.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	slot        Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subscribers: make(map[string][]Handler)}
}

// Subscribe registers h for the named event.
func (d *Dispatcher) Subscribe(event string, h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[event] = append(d.subscribers[event], h)
}

// OnMessage returns the assigned slot handler.
func (d *Dispatcher) OnMessage() Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slot
}

// SetOnMessage assigns the slot handler.
func (d *Dispatcher) SetOnMessage(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slot = h
}

// Dispatch delivers payload to every subscriber of event, and, for
// EventMessage, to the slot handler.
func (d *Dispatcher) Dispatch(event string, payload []byte) {
	d.mu.RLock()
	handlers := make([]Handler, len(d.subscribers[event]))
	copy(handlers, d.subscribers[event])
	slot := d.slot
	d.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	if event == EventMessage && slot != nil {
		slot(payload)
	}
}
