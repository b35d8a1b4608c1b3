package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imunetrack/imunetrack-api/internal/events"
	"github.com/imunetrack/imunetrack-api/internal/platform/logger"
)

// TaskFactory builds the background task that reacts to an event.
type TaskFactory interface {
	CreateTask(ctx context.Context, event *events.Event) (Task, error)
}

// TaskFactoryEventHandler implements events.EventHandler by turning each
// event into a task and queueing it, so handlers never block the emitter.
type TaskFactoryEventHandler struct {
	factory TaskFactory
	queue   TaskQueueWriter
	logger  *slog.Logger
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler creates an event handler that uses factory to
// create tasks and enqueues them on queue.
func NewTaskFactoryEventHandler(
	factory TaskFactory,
	queue TaskQueueWriter,
	log *slog.Logger,
) *TaskFactoryEventHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskFactoryEventHandler{
		factory: factory,
		queue:   queue,
		logger:  log.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent creates the task for event and enqueues it.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	log := logger.FromContextOrDefault(ctx, h.logger).With(
		"event_id", event.ID,
		"event_type", event.Type,
	)

	t, err := h.factory.CreateTask(ctx, event)
	if err != nil {
		log.Error("failed to create task", "error", err)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.queue.Enqueue(t); err != nil {
		log.Error("failed to enqueue task",
			"error", err,
			"task_id", t.ID())
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Debug("task created and enqueued",
		"task_id", t.ID(),
		"task_type", t.Type())
	return nil
}
