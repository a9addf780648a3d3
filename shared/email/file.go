package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// FileSender writes emails into an outbox directory instead of delivering them.
// Each message produces an .html body and a .json metadata file.
type FileSender struct {
	dir string
	now func() time.Time
}

func NewFileSender(dir string) *FileSender {
	return &FileSender{dir: dir, now: time.Now}
}

type outboxMetadata struct {
	Timestamp string `json:"timestamp"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
	HTMLFile  string `json:"html_file"`
}

func (f *FileSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create outbox: %w", ErrSendFailed, err)
	}

	now := f.now()
	identifier := msg.Tag
	if identifier == "" {
		identifier = msg.Subject
	}
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(identifier))

	htmlFile := base + ".html"
	if err := os.WriteFile(filepath.Join(f.dir, htmlFile), []byte(msg.HTML), 0644); err != nil {
		return fmt.Errorf("%w: failed to write HTML file: %w", ErrSendFailed, err)
	}

	data, err := json.MarshalIndent(outboxMetadata{
		Timestamp: now.Format(time.RFC3339),
		To:        msg.To,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
		HTMLFile:  htmlFile,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode metadata: %w", ErrSendFailed, err)
	}

	if err := os.WriteFile(filepath.Join(f.dir, base+".json"), data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write metadata file: %w", ErrSendFailed, err)
	}

	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	s = strings.Trim(unsafeFilenameChars.ReplaceAllString(s, ""), "_")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
