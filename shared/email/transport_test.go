package email

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"agent-stack/shared/config"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validMessage() Message {
	return Message{
		To:      "creator@example.com",
		Subject: "📹 Weekly Video Ideas",
		HTML:    "<p>ideas</p>",
		Tag:     "weekly-ideas",
	}
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Message)
		errMsg string
	}{
		{name: "valid", mutate: func(*Message) {}},
		{name: "missing recipient", mutate: func(m *Message) { m.To = " " }, errMsg: "recipient is required"},
		{name: "missing subject", mutate: func(m *Message) { m.Subject = "" }, errMsg: "subject is required"},
		{name: "missing body", mutate: func(m *Message) { m.HTML = "" }, errMsg: "HTML body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validMessage()
			tt.mutate(&msg)
			err := msg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidMessage)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewTransport(t *testing.T) {
	tr, err := NewTransport(&config.EmailConfig{Provider: config.MailSMTP})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, tr)

	tr, err = NewTransport(&config.EmailConfig{Provider: config.MailFile, OutboxDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileSender{}, tr)

	tr, err = NewTransport(&config.EmailConfig{
		Provider:             config.MailPostmark,
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		FromEmail:            "ideas@example.com",
	})
	require.NoError(t, err)
	assert.IsType(t, &PostmarkSender{}, tr)

	_, err = NewTransport(&config.EmailConfig{Provider: config.MailPostmark})
	assert.Error(t, err)

	_, err = NewTransport(&config.EmailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestSMTPBuildMessage(t *testing.T) {
	sender := NewSMTPSender(&config.EmailConfig{FromEmail: "me@gmail.com"})
	sender.now = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }

	raw := string(sender.buildMessage(validMessage()))

	assert.Contains(t, raw, "To: creator@example.com\r\n")
	assert.Contains(t, raw, "From: me@gmail.com\r\n")
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, "Date: Mon, 05 Jan 2026 09:00:00 +0000\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>ideas</p>"))
}

// fakeSMTPServer accepts a single plain-text SMTP session and records the DATA payload
func fakeSMTPServer(t *testing.T) (addr string, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		reply("220 localhost ESMTP")

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				reply("250 OK")
			case cmd == "DATA":
				reply("354 End data with <CR><LF>.<CR><LF>")
				var body strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					body.WriteString(l)
				}
				out <- body.String()
				reply("250 OK queued")
			case cmd == "QUIT":
				reply("221 Bye")
				return
			default:
				reply("502 not implemented")
			}
		}
	}()

	return ln.Addr().String(), out
}

func TestSMTPSenderSend(t *testing.T) {
	addr, data := fakeSMTPServer(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	sender := NewSMTPSender(&config.EmailConfig{
		SMTPServer:     host,
		SMTPPort:       port,
		FromEmail:      "me@example.com",
		TimeoutSeconds: 5,
	})

	require.NoError(t, sender.Send(context.Background(), validMessage()))

	select {
	case body := <-data:
		assert.Contains(t, body, "To: creator@example.com")
		assert.Contains(t, body, "<p>ideas</p>")
	case <-time.After(5 * time.Second):
		t.Fatal("SMTP server did not receive the message")
	}
}

func TestSMTPSenderRequiresAuthWhenConfigured(t *testing.T) {
	addr, _ := fakeSMTPServer(t)
	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	sender := NewSMTPSender(&config.EmailConfig{
		SMTPServer:     host,
		SMTPPort:       port,
		Username:       "me@example.com",
		Password:       "secret",
		FromEmail:      "me@example.com",
		TimeoutSeconds: 5,
	})

	err := sender.Send(context.Background(), validMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "does not support authentication")
}

func TestSMTPSenderConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	sender := NewSMTPSender(&config.EmailConfig{SMTPServer: "127.0.0.1", SMTPPort: addr.Port, FromEmail: "me@example.com", TimeoutSeconds: 2})
	err = sender.Send(context.Background(), validMessage())
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestFileSenderSend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	sender := NewFileSender(dir)
	sender.now = func() time.Time { return time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC) }

	require.NoError(t, sender.Send(context.Background(), validMessage()))

	html, err := os.ReadFile(filepath.Join(dir, "2026_01_05_093000_weekly-ideas.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>ideas</p>", string(html))

	raw, err := os.ReadFile(filepath.Join(dir, "2026_01_05_093000_weekly-ideas.json"))
	require.NoError(t, err)
	var meta outboxMetadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "creator@example.com", meta.To)
	assert.Equal(t, "weekly-ideas", meta.Tag)
	assert.Equal(t, "2026_01_05_093000_weekly-ideas.html", meta.HTMLFile)
}

func TestFileSenderRejectsInvalidMessage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	err := NewFileSender(dir).Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrInvalidMessage)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "weekly_video_ideas_-_january_5", sanitizeFilename("📹 Weekly Video Ideas - January 5"))
	assert.Equal(t, "email", sanitizeFilename("📹"))
	assert.Len(t, sanitizeFilename(strings.Repeat("a", 300)), 100)
}

type mockPostmark struct {
	mock.Mock
}

func (m *mockPostmark) SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(postmark.EmailResponse), args.Error(1)
}

func TestPostmarkSenderSend(t *testing.T) {
	api := &mockPostmark{}
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(e postmark.Email) bool {
		return e.From == "ideas@example.com" && e.To == "creator@example.com" && e.HTMLBody == "<p>ideas</p>" && e.Tag == "weekly-ideas"
	})).Return(postmark.EmailResponse{}, nil).Once()

	sender := &PostmarkSender{client: api, from: "ideas@example.com", timeout: time.Second}
	require.NoError(t, sender.Send(context.Background(), validMessage()))
	api.AssertExpectations(t)
}

func TestPostmarkSenderErrors(t *testing.T) {
	api := &mockPostmark{}
	api.On("SendEmail", mock.Anything, mock.Anything).Return(postmark.EmailResponse{ErrorCode: 300, Message: "Invalid email request"}, nil).Once()
	api.On("SendEmail", mock.Anything, mock.Anything).Return(postmark.EmailResponse{}, errors.New("connection reset")).Once()

	sender := &PostmarkSender{client: api, from: "ideas@example.com", timeout: time.Second}

	err := sender.Send(context.Background(), validMessage())
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "postmark error: 300")

	err = sender.Send(context.Background(), validMessage())
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "connection reset")
}
