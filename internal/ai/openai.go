package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Ilay1214/Quiz-AI/internal/config"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIClient talks to any OpenAI-compatible chat completion endpoint.
// The default configuration points it at Groq.
type openAIClient struct {
	client      *openaigo.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

func newOpenAIClient(cfg *config.Config, logger *zap.Logger) (Client, error) {
	if cfg.AIAPIKey == "" {
		return nil, errors.New("AI API key is required for the openai client")
	}
	clientConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	clientConfig.BaseURL = cfg.AIBaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}

	logger.Info("OpenAI-compatible client created",
		zap.String("baseURL", cfg.AIBaseURL),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout))

	return &openAIClient{
		client:      openaigo.NewClientWithConfig(clientConfig),
		model:       cfg.AIModel,
		maxTokens:   cfg.AIMaxTokens,
		temperature: float32(cfg.AITemperature),
		logger:      logger.Named("ai.openai"),
	}, nil
}

func (c *openAIClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, UsageInfo, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openaigo.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		classified := classifyOpenAIError(err)
		c.logger.Warn("chat completion failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		observeRequest(c.model, statusLabel(classified), start, UsageInfo{})
		return "", UsageInfo{}, classified
	}

	usage := UsageInfo{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		observeRequest(c.model, "error_empty", start, usage)
		return "", usage, ErrEmptyResponse
	}

	observeRequest(c.model, "success", start, usage)
	c.logger.Debug("chat completion received",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens))

	return resp.Choices[0].Message.Content, usage, nil
}

// classifyOpenAIError maps transport and API errors onto the package sentinels.
func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "error_timeout"
	case errors.Is(err, ErrRateLimited):
		return "error_rate_limited"
	default:
		return "error"
	}
}
