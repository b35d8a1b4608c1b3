package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/imunetrack/imunetrack-api/internal/events"
	"github.com/imunetrack/imunetrack-api/internal/platform/logger"
	"github.com/imunetrack/imunetrack-api/internal/redact"
	"github.com/imunetrack/imunetrack-api/internal/task"
)

// ErrUnsupportedEvent is returned for events other than dose.applied.
var ErrUnsupportedEvent = errors.New("unsupported event type")

// DoseConfirmationFactory turns dose.applied events into SendTasks.
type DoseConfirmationFactory struct {
	sender  Sender
	retries uint64
	backoff time.Duration
	logger  *slog.Logger
}

var _ task.TaskFactory = (*DoseConfirmationFactory)(nil)

// NewDoseConfirmationFactory creates a factory whose tasks deliver through
// sender with the given retry policy.
func NewDoseConfirmationFactory(
	sender Sender,
	retries uint64,
	backoff time.Duration,
	log *slog.Logger,
) *DoseConfirmationFactory {
	if log == nil {
		log = slog.Default()
	}
	return &DoseConfirmationFactory{
		sender:  sender,
		retries: retries,
		backoff: backoff,
		logger:  log.With("component", "dose_confirmation"),
	}
}

// CreateTask implements task.TaskFactory.
func (f *DoseConfirmationFactory) CreateTask(ctx context.Context, event *events.Event) (task.Task, error) {
	if event.Type != events.TypeDoseApplied {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEvent, event.Type)
	}

	var payload events.DoseAppliedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return nil, fmt.Errorf("decode dose.applied payload: %w", err)
	}

	msg, err := RenderDoseConfirmation(payload)
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, f.logger).Debug("dose confirmation rendered",
		slog.Int64("record_id", payload.RecordID),
		slog.String("to", redact.Email(payload.UserEmail)))

	return NewSendTask(msg, f.sender, f.retries, f.backoff), nil
}

// NewDoseConfirmationHandler returns the handler to subscribe for
// events.TypeDoseApplied. It renders the confirmation and queues its delivery.
func NewDoseConfirmationHandler(
	factory *DoseConfirmationFactory,
	queue task.TaskQueueWriter,
	log *slog.Logger,
) events.EventHandler {
	return task.NewTaskFactoryEventHandler(factory, queue, log)
}
