package ai

import (
	"context"
	"fmt"

	"agent-stack/shared/config"

	"google.golang.org/genai"
)

type GeminiGenerator struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func NewGeminiGenerator(cfg *config.AIConfig) (*GeminiGenerator, error) {
	return newGeminiGenerator(cfg, "")
}

// newGeminiGenerator allows pointing the client at a different endpoint
func newGeminiGenerator(cfg *config.AIConfig, baseURL string) (*GeminiGenerator, error) {
	ctx := context.Background()

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	var genConfig *genai.GenerateContentConfig
	if g.maxTokens > 0 {
		genConfig = &genai.GenerateContentConfig{MaxOutputTokens: int32(g.maxTokens)}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini model %s: %w", g.model, ErrEmptyResponse)
	}

	return text, nil
}
