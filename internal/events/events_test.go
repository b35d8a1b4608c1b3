package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	applied := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	payload := DoseAppliedPayload{
		RecordID:    7,
		UserID:      3,
		UserEmail:   "alice@test.com",
		VaccineName: "BCG",
		DoseNumber:  1,
		DoseCount:   1,
		AppliedOn:   applied,
	}

	event, err := NewEvent(TypeDoseApplied, payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeDoseApplied, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded DoseAppliedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent("broken", make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestEventHandlerFunc(t *testing.T) {
	var got *Event
	expectedErr := errors.New("handler error")
	h := EventHandlerFunc(func(ctx context.Context, event *Event) error {
		got = event
		return expectedErr
	})

	event, err := NewEvent("test_type", map[string]string{"key": "value"})
	require.NoError(t, err)

	assert.Equal(t, expectedErr, h.HandleEvent(context.Background(), event))
	assert.Same(t, event, got)
}
