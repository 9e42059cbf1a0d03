// Package ai wraps the LLM providers behind a single JSON-completion client.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ilay1214/Quiz-AI/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable covers network failures and provider 5xx responses.
	ErrUnavailable = errors.New("ai provider unavailable")
	// ErrTimeout is returned when the provider does not answer within the deadline.
	ErrTimeout = errors.New("ai request timed out")
	// ErrRateLimited is returned on provider 429 responses.
	ErrRateLimited = errors.New("ai provider rate limited")
	// ErrEmptyResponse is returned when the provider answers with no content.
	ErrEmptyResponse = errors.New("ai provider returned an empty response")
)

// UsageInfo carries the token accounting reported by the provider.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client sends a prompt pair to the model and returns the raw completion.
// Implementations request JSON output from the provider, but the returned
// string is not guaranteed to be valid JSON; callers must parse defensively.
type Client interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, UsageInfo, error)
}

// NewClient builds the provider implementation selected by the configuration.
func NewClient(cfg *config.Config, logger *zap.Logger) (Client, error) {
	switch strings.ToLower(cfg.AIClientType) {
	case "openai":
		return newOpenAIClient(cfg, logger)
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type %q", cfg.AIClientType)
	}
}

// observeRequest records the shared per-request metrics.
func observeRequest(model, status string, start time.Time, usage UsageInfo) {
	requestsTotal.WithLabelValues(model, status).Inc()
	requestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if usage.TotalTokens > 0 {
		promptTokens.WithLabelValues(model).Observe(float64(usage.PromptTokens))
		completionTokens.WithLabelValues(model).Observe(float64(usage.CompletionTokens))
	}
}
