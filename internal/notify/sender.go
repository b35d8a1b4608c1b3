package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/imunetrack/imunetrack-api/internal/config"
	"github.com/imunetrack/imunetrack-api/internal/platform/logger"
	"github.com/imunetrack/imunetrack-api/internal/redact"
)

// ErrInvalidMessage is returned for messages that can never be delivered,
// so retrying them is pointless.
var ErrInvalidMessage = errors.New("invalid message")

// Message is a rendered email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Validate checks that m has a recipient, a subject and at least one body.
func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.To) == "":
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	case strings.ContainsAny(m.To, "\r\n") || strings.ContainsAny(m.Subject, "\r\n"):
		return fmt.Errorf("%w: header contains line break", ErrInvalidMessage)
	case strings.TrimSpace(m.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	case m.HTMLBody == "" && m.TextBody == "":
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is
// the default in development and on hosts without outbound SMTP.
type LogSender struct {
	logger *slog.Logger
}

var _ Sender = (*LogSender)(nil)

// NewLogSender creates a LogSender. If log is nil, slog.Default() is used.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{logger: log.With("component", "log_sender")}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Info("email delivery skipped, log mode",
		slog.String("to", redact.Email(msg.To)),
		slog.String("subject", msg.Subject))
	log.Debug("email body", slog.String("text", msg.TextBody))
	return nil
}

// NewSender builds the Sender selected by cfg.Mode.
func NewSender(cfg config.EmailConfig, log *slog.Logger) (Sender, error) {
	switch cfg.Mode {
	case "", "log":
		return NewLogSender(log), nil
	case "smtp":
		return NewSMTPSender(cfg, log)
	default:
		return nil, fmt.Errorf("unknown email mode %q", cfg.Mode)
	}
}
