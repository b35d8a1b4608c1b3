package mocks

import (
	"context"
	"sync"

	"github.com/imunetrack/imunetrack-api/internal/events"
)

// EventEmitter records emitted events.
type EventEmitter struct {
	// Err is returned from every EmitEvent call when set.
	Err error

	mu     sync.Mutex
	events []*events.Event
}

var _ events.EventEmitter = (*EventEmitter)(nil)

// EmitEvent implements events.EventEmitter.
func (e *EventEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.Err
}

// Events returns a copy of the events emitted so far.
func (e *EventEmitter) Events() []*events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*events.Event(nil), e.events...)
}
