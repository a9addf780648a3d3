package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agent-stack/shared/config"

	"github.com/mrz1836/postmark"
)

// postmarkAPI is the part of the Postmark client used for delivery
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender delivers mail through Postmark's transactional API
type PostmarkSender struct {
	client  postmarkAPI
	from    string
	timeout time.Duration
}

func NewPostmarkSender(cfg *config.EmailConfig) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("postmark server and account tokens are required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("postmark sender email is required")
	}

	return &PostmarkSender{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:    cfg.FromEmail,
		timeout: timeoutOrDefault(cfg.TimeoutSeconds),
	}, nil
}

func (p *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.from,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TrackOpens: true,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
