package ai

import (
	"context"
	"errors"
	"fmt"

	"agent-stack/shared/config"
)

// ErrEmptyResponse is returned when the model answers without any text
var ErrEmptyResponse = errors.New("empty response from model")

// Generator produces a single text completion for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator builds the generator selected by cfg.Provider
func NewGenerator(cfg *config.AIConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicGenerator(cfg)
	case config.ProviderGemini:
		return NewGeminiGenerator(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
