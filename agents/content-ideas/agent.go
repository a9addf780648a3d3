package contentideas

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"agent-stack/internal/models"
	"agent-stack/shared/ai"
	"agent-stack/shared/config"
	"agent-stack/shared/email"
	"agent-stack/shared/scheduler"

	"github.com/google/uuid"
)

var (
	// ErrGeneration marks a failed or timed out generator call; no email is sent
	ErrGeneration = errors.New("idea generation failed")
	// ErrDelivery marks a failed mail send; the run ends in failure without retry
	ErrDelivery = errors.New("email delivery failed")
)

// ContentIdeasMetrics represents the metrics collected during a run
type ContentIdeasMetrics struct {
	Requested  int  `json:"requested"`
	Blocks     int  `json:"blocks"`
	Parsed     int  `json:"parsed"`
	Dropped    int  `json:"dropped"`
	Diagnostic bool `json:"diagnostic"`
	EmailSent  bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m ContentIdeasMetrics) GetSummary() string {
	switch {
	case m.Diagnostic && m.EmailSent:
		return "generator response unreadable, diagnostic email sent"
	case m.EmailSent:
		return fmt.Sprintf("requested %d ideas, parsed %d, dropped %d, email sent", m.Requested, m.Parsed, m.Dropped)
	default:
		return fmt.Sprintf("requested %d ideas, parsed %d, dropped %d, no email sent", m.Requested, m.Parsed, m.Dropped)
	}
}

// ContentIdeasAgent implements the scheduler.Agent interface
type ContentIdeasAgent struct {
	config    *config.Config
	generator ai.Generator
	mailer    email.Transport
	now       func() time.Time
}

func NewContentIdeasAgent(cfg *config.Config) *ContentIdeasAgent {
	return &ContentIdeasAgent{
		config: cfg,
		now:    time.Now,
	}
}

func (a *ContentIdeasAgent) Name() string {
	return "Content Ideas Agent"
}

func (a *ContentIdeasAgent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())

	if a.generator == nil {
		generator, err := ai.NewGenerator(&a.config.AI)
		if err != nil {
			return fmt.Errorf("failed to create generator: %w", err)
		}
		a.generator = generator
		log.Printf("Generator initialized (%s, model %s)", a.config.AI.Provider, a.config.AI.Model)
	}

	if a.mailer == nil {
		mailer, err := email.NewTransport(&a.config.Email)
		if err != nil {
			return fmt.Errorf("failed to create email transport: %w", err)
		}
		a.mailer = mailer
		log.Printf("Email transport initialized (%s)", a.config.Email.Provider)
	}

	return nil
}

func (a *ContentIdeasAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	runID := uuid.NewString()

	count := a.config.Ideas.Count
	if count <= 0 {
		count = DefaultIdeaCount
	}
	topics := resolveTopics(a.config.Ideas.Topics)
	metrics := ContentIdeasMetrics{Requested: count}

	log.Printf("[%s] Generating %d ideas from %d trending topics...", runID, count, len(topics))

	raw, err := a.generate(ctx, BuildPrompt(topics, count))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrGeneration, err)
		a.critical(events, err, startTime)
		return err
	}

	result, err := ParseIdeas(raw)
	if err != nil {
		var failure *ParseFailure
		if !errors.As(err, &failure) {
			a.critical(events, err, startTime)
			return err
		}
		return a.sendDiagnostic(ctx, events, runID, failure, metrics, startTime)
	}

	metrics.Blocks = result.Blocks
	metrics.Parsed = len(result.Ideas)
	metrics.Dropped = result.Dropped

	log.Printf("[%s] Parsed %d ideas from %d blocks (%d dropped)", runID, metrics.Parsed, result.Blocks, result.Dropped)
	if result.Dropped > 0 {
		log.Printf("[%s] Dropped blocks missing a title or description: %v", runID, result.DroppedBlocks)
	}
	if result.Dropped*2 > count {
		loss := fmt.Errorf("%d of %d requested ideas were dropped as malformed", result.Dropped, count)
		log.Printf("[%s] Warning: %v", runID, loss)
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(loss, time.Since(startTime))
		}
	}

	batch := &models.IdeaBatch{
		RunID:       runID,
		GeneratedAt: a.now(),
		Topics:      topics,
		Requested:   count,
		Dropped:     result.Dropped,
		Ideas:       result.Ideas,
	}

	body, err := RenderEmail(batch)
	if err != nil {
		a.critical(events, err, startTime)
		return err
	}

	log.Printf("[%s] Sending %d ideas to %s", runID, len(batch.Ideas), a.config.Email.ToEmail)
	if err := a.send(ctx, email.Message{
		To:      a.config.Email.ToEmail,
		Subject: Subject(batch),
		HTML:    body,
		Tag:     "weekly-ideas",
	}); err != nil {
		a.critical(events, err, startTime)
		return err
	}
	metrics.EmailSent = true

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(startTime))
	}
	log.Printf("[%s] Content ideas run complete: %s", runID, metrics.GetSummary())

	return nil
}

func (a *ContentIdeasAgent) generate(ctx context.Context, prompt string) (string, error) {
	timeout := time.Duration(a.config.AI.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return a.generator.Generate(ctx, prompt)
}

// sendDiagnostic mails the raw response of an unparseable run so it is not lost
func (a *ContentIdeasAgent) sendDiagnostic(ctx context.Context, events *scheduler.AgentEvents, runID string,
	failure *ParseFailure, metrics ContentIdeasMetrics, startTime time.Time) error {
	log.Printf("[%s] Failed to parse generator response: %v", runID, failure)
	log.Printf("[%s] Raw generator response:\n%s", runID, failure.Raw)

	if events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(failure, time.Since(startTime))
	}

	now := a.now()
	body, err := RenderDiagnostic(failure.Raw, failure, now)
	if err != nil {
		a.critical(events, err, startTime)
		return err
	}

	log.Printf("[%s] Sending diagnostic email to %s", runID, a.config.Email.ToEmail)
	if err := a.send(ctx, email.Message{
		To:      a.config.Email.ToEmail,
		Subject: DiagnosticSubject(now),
		HTML:    body,
		Tag:     "ideas-diagnostic",
	}); err != nil {
		a.critical(events, err, startTime)
		return err
	}

	metrics.Diagnostic = true
	metrics.EmailSent = true
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(startTime))
	}
	return nil
}

func (a *ContentIdeasAgent) send(ctx context.Context, msg email.Message) error {
	if err := a.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}

func (a *ContentIdeasAgent) critical(events *scheduler.AgentEvents, err error, startTime time.Time) {
	if events != nil && events.OnCriticalFailure != nil {
		events.OnCriticalFailure(err, time.Since(startTime))
	}
}
