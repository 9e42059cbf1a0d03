package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ilay1214/Quiz-AI/internal/config"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// ollamaClient talks to a local Ollama server over its native API.
type ollamaClient struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (Client, error) {
	// The native API expects the bare server URL, without the /v1 suffix
	// used by the OpenAI-compatible endpoint.
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.AIBaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}

	logger.Info("Ollama client created",
		zap.String("baseURL", baseURL),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout))

	return &ollamaClient{
		client:      api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout}),
		model:       cfg.AIModel,
		maxTokens:   cfg.AIMaxTokens,
		temperature: cfg.AITemperature,
		timeout:     cfg.AITimeout,
		logger:      logger.Named("ai.ollama"),
	}, nil
}

func (c *ollamaClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, UsageInfo, error) {
	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		classified := classifyOllamaError(err)
		c.logger.Warn("chat request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		observeRequest(c.model, statusLabel(classified), start, UsageInfo{})
		return "", UsageInfo{}, classified
	}

	usage := UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}

	if resp.Message.Content == "" {
		observeRequest(c.model, "error_empty", start, usage)
		return "", usage, ErrEmptyResponse
	}

	observeRequest(c.model, "success", start, usage)
	c.logger.Debug("chat response received",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens))

	return resp.Message.Content, usage, nil
}

func classifyOllamaError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case statusErr.StatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
