package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agent-stack/shared/config"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratorUnknownProvider(t *testing.T) {
	_, err := NewGenerator(&config.AIConfig{Provider: "other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported AI provider")
}

func TestNewGeneratorSelectsProvider(t *testing.T) {
	g, err := NewGenerator(&config.AIConfig{Provider: config.ProviderAnthropic, AnthropicAPIKey: "k", Model: "claude-sonnet-4-5"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicGenerator{}, g)

	g, err = NewGenerator(&config.AIConfig{Provider: config.ProviderGemini, GeminiAPIKey: "k", Model: "gemini-2.5-flash"})
	require.NoError(t, err)
	assert.IsType(t, &GeminiGenerator{}, g)
}

func TestAnthropicGenerate(t *testing.T) {
	var received struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), "unexpected path %s", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "text", "text": "1. Title: First"},
				{"type": "text", "text": "\nDescription: Something"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 20}
		}`)
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator(&config.AIConfig{
		AnthropicAPIKey: "test-key",
		Model:           "claude-sonnet-4-5",
		MaxTokens:       2000,
	}, option.WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "1. Title: First\nDescription: Something", text)
	assert.Equal(t, "claude-sonnet-4-5", received.Model)
	assert.Equal(t, 2000, received.MaxTokens)
	require.Len(t, received.Messages, 1)
	assert.Equal(t, "user", received.Messages[0].Role)
}

func TestAnthropicGenerateAuthError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator(&config.AIConfig{AnthropicAPIKey: "bad", Model: "claude-sonnet-4-5", MaxTokens: 100},
		option.WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic API error")
	assert.Equal(t, 1, calls)
}

func TestAnthropicGenerateEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_2","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator(&config.AIConfig{AnthropicAPIKey: "k", Model: "m", MaxTokens: 100},
		option.WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewAnthropicGeneratorRequiresKey(t *testing.T) {
	_, err := NewAnthropicGenerator(&config.AIConfig{Model: "m"})
	assert.Error(t, err)
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), "unexpected path %s", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"1. Title: From Gemini"}]}}]}`)
	}))
	defer srv.Close()

	g, err := newGeminiGenerator(&config.AIConfig{GeminiAPIKey: "k", Model: "gemini-2.5-flash", MaxTokens: 500}, srv.URL)
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "1. Title: From Gemini", text)
}

func TestGeminiGenerateEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	g, err := newGeminiGenerator(&config.AIConfig{GeminiAPIKey: "k", Model: "gemini-2.5-flash"}, srv.URL)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
