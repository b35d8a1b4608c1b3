package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/imunetrack/imunetrack-api/internal/task"
)

// TaskTypeSendEmail identifies email delivery tasks.
const TaskTypeSendEmail = "send_email"

// SendTask delivers one message, retrying transient failures with
// exponential backoff.
type SendTask struct {
	id      uuid.UUID
	msg     Message
	sender  Sender
	retries uint64
	backoff time.Duration
}

var _ task.Task = (*SendTask)(nil)

// NewSendTask creates a task that sends msg through sender, retrying up to
// retries times after the first attempt.
func NewSendTask(msg Message, sender Sender, retries uint64, backoff time.Duration) *SendTask {
	if backoff <= 0 {
		backoff = time.Second
	}
	return &SendTask{
		id:      uuid.New(),
		msg:     msg,
		sender:  sender,
		retries: retries,
		backoff: backoff,
	}
}

// ID implements task.Task.
func (t *SendTask) ID() uuid.UUID { return t.id }

// Type implements task.Task.
func (t *SendTask) Type() string { return TaskTypeSendEmail }

// Message returns the message the task delivers.
func (t *SendTask) Message() Message { return t.msg }

// Execute implements task.Task.
func (t *SendTask) Execute(ctx context.Context) error {
	b := retry.WithMaxRetries(t.retries, retry.NewExponential(t.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := t.sender.Send(ctx, t.msg)
		if err == nil || errors.Is(err, ErrInvalidMessage) {
			return err
		}
		return retry.RetryableError(err)
	})
}
