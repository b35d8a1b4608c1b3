package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/imunetrack/imunetrack-api/internal/config"
	"github.com/imunetrack/imunetrack-api/internal/events"
	"github.com/imunetrack/imunetrack-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePayload() events.DoseAppliedPayload {
	return events.DoseAppliedPayload{
		RecordID:     7,
		UserID:       3,
		UserName:     "Maria",
		UserEmail:    "maria@test.com",
		VaccineName:  "Hepatite B",
		DoseNumber:   2,
		DoseCount:    3,
		AppliedOn:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Lot:          "L123",
		Professional: "Dr. <script>",
	}
}

type senderFunc func(ctx context.Context, msg Message) error

func (f senderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

func TestMessage_Validate(t *testing.T) {
	valid := Message{To: "a@test.com", Subject: "s", TextBody: "b"}
	assert.NoError(t, valid.Validate())

	cases := map[string]Message{
		"no recipient":     {Subject: "s", TextBody: "b"},
		"no subject":       {To: "a@test.com", TextBody: "b"},
		"no body":          {To: "a@test.com", Subject: "s"},
		"header injection": {To: "a@test.com\r\nBcc: x@test.com", Subject: "s", TextBody: "b"},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, msg.Validate(), ErrInvalidMessage)
		})
	}
}

func TestRenderDoseConfirmation(t *testing.T) {
	msg, err := RenderDoseConfirmation(samplePayload())
	require.NoError(t, err)

	assert.Equal(t, "maria@test.com", msg.To)
	assert.Equal(t, "Confirmação de Registro - Hepatite B", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Olá, Maria!")
	assert.Contains(t, msg.HTMLBody, "15/03/2024")
	assert.Contains(t, msg.HTMLBody, "dose 2 de 3")
	assert.Contains(t, msg.HTMLBody, "Lote: L123")
	assert.NotContains(t, msg.HTMLBody, "<script>", "user input is escaped")
	assert.NotContains(t, msg.HTMLBody, "Local:", "empty site is omitted")
	assert.Contains(t, msg.TextBody, "Profissional: Dr. <script>")
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.EmailConfig{Mode: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(config.EmailConfig{Mode: "smtp", Host: "smtp.test", Port: 587, From: "no-reply@test.com"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.EmailConfig{Mode: "smtp", From: "no-reply@test.com"}, nil)
	assert.Error(t, err)

	_, err = NewSender(config.EmailConfig{Mode: "pigeon"}, nil)
	assert.Error(t, err)
}

func TestLogSender_Send(t *testing.T) {
	s := NewLogSender(discardLogger())

	msg, err := RenderDoseConfirmation(samplePayload())
	require.NoError(t, err)
	assert.NoError(t, s.Send(context.Background(), msg))

	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrInvalidMessage)
}

func TestSMTPSender_Send(t *testing.T) {
	sender, err := NewSMTPSender(config.EmailConfig{
		Host:     "smtp.test",
		Port:     2525,
		Username: "user",
		Password: "secret",
		From:     "no-reply@imunetrack.local",
	}, discardLogger())
	require.NoError(t, err)
	sender.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotRaw []byte
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotRaw = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	msg, err := RenderDoseConfirmation(samplePayload())
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), msg))

	assert.Equal(t, "smtp.test:2525", gotAddr)
	assert.Equal(t, "no-reply@imunetrack.local", gotFrom)
	assert.Equal(t, []string{"maria@test.com"}, gotTo)

	raw := string(gotRaw)
	assert.Contains(t, raw, "To: maria@test.com\r\n")
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, raw, "text/plain; charset=UTF-8")
	assert.Contains(t, raw, "text/html; charset=UTF-8")
}

func TestSMTPSender_SendFailure(t *testing.T) {
	sender, err := NewSMTPSender(config.EmailConfig{Host: "smtp.test", Port: 25, From: "no-reply@test.com"}, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, sender.auth, "no auth without username")

	relayErr := errors.New("421 service not available")
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return relayErr }

	err = sender.Send(context.Background(), Message{To: "a@test.com", Subject: "s", TextBody: "b"})
	assert.ErrorIs(t, err, relayErr)
}

func TestSMTPSender_ContextCancelled(t *testing.T) {
	sender, err := NewSMTPSender(config.EmailConfig{Host: "smtp.test", Port: 25, From: "no-reply@test.com"}, discardLogger())
	require.NoError(t, err)

	release := make(chan struct{})
	defer close(release)
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sender.Send(ctx, Message{To: "a@test.com", Subject: "s", TextBody: "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendTask_Execute(t *testing.T) {
	msg := Message{To: "a@test.com", Subject: "s", TextBody: "b"}

	t.Run("retries transient failures", func(t *testing.T) {
		var attempts atomic.Int32
		sender := senderFunc(func(ctx context.Context, m Message) error {
			if attempts.Add(1) < 3 {
				return errors.New("temporary failure")
			}
			return nil
		})

		st := NewSendTask(msg, sender, 3, time.Millisecond)
		assert.Equal(t, TaskTypeSendEmail, st.Type())
		require.NoError(t, st.Execute(context.Background()))
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var attempts atomic.Int32
		sendErr := errors.New("relay down")
		sender := senderFunc(func(ctx context.Context, m Message) error {
			attempts.Add(1)
			return sendErr
		})

		err := NewSendTask(msg, sender, 2, time.Millisecond).Execute(context.Background())
		assert.ErrorIs(t, err, sendErr)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("invalid message is not retried", func(t *testing.T) {
		var attempts atomic.Int32
		sender := senderFunc(func(ctx context.Context, m Message) error {
			attempts.Add(1)
			return m.Validate()
		})

		err := NewSendTask(Message{}, sender, 5, time.Millisecond).Execute(context.Background())
		assert.ErrorIs(t, err, ErrInvalidMessage)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestDoseConfirmationFactory_CreateTask(t *testing.T) {
	var delivered []Message
	sender := senderFunc(func(ctx context.Context, m Message) error {
		delivered = append(delivered, m)
		return nil
	})
	factory := NewDoseConfirmationFactory(sender, 0, time.Millisecond, discardLogger())

	event, err := events.NewEvent(events.TypeDoseApplied, samplePayload())
	require.NoError(t, err)

	created, err := factory.CreateTask(context.Background(), event)
	require.NoError(t, err)
	require.NoError(t, created.Execute(context.Background()))
	require.Len(t, delivered, 1)
	assert.Equal(t, "maria@test.com", delivered[0].To)

	other, err := events.NewEvent("user.created", map[string]int{"id": 1})
	require.NoError(t, err)
	_, err = factory.CreateTask(context.Background(), other)
	assert.ErrorIs(t, err, ErrUnsupportedEvent)

	noEmail := samplePayload()
	noEmail.UserEmail = ""
	event, err = events.NewEvent(events.TypeDoseApplied, noEmail)
	require.NoError(t, err)
	_, err = factory.CreateTask(context.Background(), event)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDoseConfirmation_EndToEnd(t *testing.T) {
	delivered := make(chan Message, 1)
	sender := senderFunc(func(ctx context.Context, m Message) error {
		delivered <- m
		return nil
	})

	queue := task.NewTaskQueue(10, discardLogger())
	pool := task.NewWorkerPool(queue, task.DefaultWorkerPoolConfig(), discardLogger())
	pool.Start()
	defer pool.Stop()

	emitter := events.NewInMemoryEventEmitter(discardLogger())
	factory := NewDoseConfirmationFactory(sender, 0, time.Millisecond, discardLogger())
	emitter.Subscribe(events.TypeDoseApplied, NewDoseConfirmationHandler(factory, queue, discardLogger()))

	event, err := events.NewEvent(events.TypeDoseApplied, samplePayload())
	require.NoError(t, err)
	require.NoError(t, emitter.EmitEvent(context.Background(), event))

	select {
	case m := <-delivered:
		assert.True(t, strings.HasPrefix(m.Subject, "Confirmação de Registro"))
	case <-time.After(time.Second):
		t.Fatal("confirmation was not delivered")
	}
}
