// Package wstest provides an in-memory ws.Endpoint for tests.
package wstest

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
)

// Endpoint records every event sent to it. A closed Endpoint rejects sends
// the way a disconnected client does.
type Endpoint struct {
	id     domain.EndpointID
	mu     sync.Mutex
	events []*ws.Event
	closed bool
}

func NewEndpoint(name string) *Endpoint {
	if name == "" {
		name = uuid.NewString()
	}
	return &Endpoint{id: domain.EndpointID(name)}
}

func (e *Endpoint) ID() domain.EndpointID {
	return e.id
}

func (e *Endpoint) Send(evt *ws.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ws.ErrEndpointClosed
	}
	e.events = append(e.events, evt)
	return nil
}

func (e *Endpoint) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// Events returns a copy of everything received so far.
func (e *Endpoint) Events() []*ws.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*ws.Event, len(e.events))
	copy(out, e.events)
	return out
}

// EventsOfType filters Events by envelope type.
func (e *Endpoint) EventsOfType(eventType string) []*ws.Event {
	var out []*ws.Event
	for _, evt := range e.Events() {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func (e *Endpoint) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}
