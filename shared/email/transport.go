package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agent-stack/shared/config"
)

var (
	ErrSendFailed     = errors.New("failed to send email")
	ErrInvalidMessage = errors.New("invalid email message")
)

// Message is a single HTML email to one recipient
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"-"`
	Tag     string `json:"tag,omitempty"` // optional, used for provider analytics and outbox file names
}

// Validate checks the fields every transport needs
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.HTML) == "" {
		return fmt.Errorf("%w: HTML body is required", ErrInvalidMessage)
	}
	return nil
}

// Transport delivers rendered emails
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// NewTransport builds the transport selected by cfg.Provider
func NewTransport(cfg *config.EmailConfig) (Transport, error) {
	switch cfg.Provider {
	case config.MailSMTP, "":
		return NewSMTPSender(cfg), nil
	case config.MailPostmark:
		return NewPostmarkSender(cfg)
	case config.MailFile:
		return NewFileSender(cfg.OutboxDir), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
}

func timeoutOrDefault(seconds int) time.Duration {
	if seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
