package events

import (
	"context"
	"fmt"
	"sync"
)

// HandlerFunc handles a single domain event.
type HandlerFunc func(ctx context.Context, event DomainEvent) error

type namedHandler struct {
	name    string
	handler HandlerFunc
}

// Dispatcher fans domain events out to registered handlers. Registration is
// keyed by event type; "*" receives everything.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	// ContinueOnError makes Dispatch run every handler and collect errors
	// instead of stopping at the first failure. The subsystem's producers
	// set it: one consumer's bad handler must not starve the others.
	ContinueOnError bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]namedHandler)}
}

// Register adds a handler for the given event types. The name only serves
// logging and error messages.
func (d *Dispatcher) Register(name string, handler HandlerFunc, eventTypes ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	nh := namedHandler{name: name, handler: handler}
	for _, et := range eventTypes {
		d.handlers[et] = append(d.handlers[et], nh)
	}
}

// RegisterWildcard adds a handler for all events.
func (d *Dispatcher) RegisterWildcard(name string, handler HandlerFunc) {
	d.Register(name, handler, "*")
}

// Dispatch delivers an event to every matching handler.
func (d *Dispatcher) Dispatch(ctx context.Context, event DomainEvent) error {
	d.mu.RLock()
	handlers := make([]namedHandler, 0, 4)
	handlers = append(handlers, d.handlers[event.EventType()]...)
	handlers = append(handlers, d.handlers["*"]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var errs []error
	for _, nh := range handlers {
		if err := nh.handler(ctx, event); err != nil {
			wrapped := fmt.Errorf("handler %s failed for event %s: %w", nh.name, event.EventType(), err)
			if !d.ContinueOnError {
				return wrapped
			}
			errs = append(errs, wrapped)
		}
	}
	if len(errs) > 0 {
		return &DispatchError{Errors: errs}
	}
	return nil
}

// HasHandlers reports whether any handler would receive the given type.
func (d *Dispatcher) HasHandlers(eventType string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[eventType]) > 0 || len(d.handlers["*"]) > 0
}

// Clear removes all registered handlers.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = make(map[string][]namedHandler)
}

// DispatchError aggregates handler failures from one dispatch.
type DispatchError struct {
	Errors []error
}

func (e *DispatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple dispatch errors (%d)", len(e.Errors))
}

// Unwrap returns the first error for errors.Is/As support.
func (e *DispatchError) Unwrap() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}
