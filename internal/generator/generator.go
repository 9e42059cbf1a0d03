// Package generator turns extracted study material into a validated quiz
// through the AI client, retrying with a repair prompt when the model output
// breaks the schema.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ilay1214/Quiz-AI/internal/ai"
	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrMalformedOutput is returned when the model never produced parseable JSON.
	ErrMalformedOutput = errors.New("model output is not valid JSON")
	// ErrSchemaValidation is returned when the output stayed schema-invalid
	// (or short of the requested question count) across all attempts.
	ErrSchemaValidation = errors.New("model output failed schema validation")
)

// Options tunes a Generator.
type Options struct {
	// MaxAttempts is the total request budget per quiz, including repairs.
	MaxAttempts int
	// BaseRetryWait is multiplied by the attempt number between retries.
	BaseRetryWait time.Duration
	// MaxSourceTokens bounds the study material passed to the model.
	MaxSourceTokens int
}

// Generator produces quiz artifacts from source text. Safe for concurrent use.
type Generator struct {
	client ai.Client
	opts   Options
	logger *zap.Logger
}

func New(client ai.Client, opts Options, logger *zap.Logger) *Generator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Generator{client: client, opts: opts, logger: logger.Named("generator")}
}

// Generate runs the request against the model and returns a finished artifact.
// Provider errors from the AI client are retried within the attempt budget and
// propagated unwrapped so callers can match the ai package sentinels.
func (g *Generator) Generate(ctx context.Context, req models.GenerationRequest) (models.QuizArtifact, error) {
	systemPrompt := buildSystemPrompt(req.QuestionCount, req.SourceText)
	userPrompt, err := buildUserPrompt(req.SourceText, g.opts.MaxSourceTokens)
	if err != nil {
		return models.QuizArtifact{}, err
	}

	var (
		lastErr        error
		lastViolations []string
		sawValidJSON   bool
	)

	prompt := userPrompt
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, g.opts.BaseRetryWait*time.Duration(attempt-1)); err != nil {
				return models.QuizArtifact{}, err
			}
		}

		raw, usage, err := g.client.GenerateJSON(ctx, systemPrompt, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return models.QuizArtifact{}, err
			}
			g.logger.Warn("generation request failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			lastErr = err
			continue
		}

		questions, violations, parseErr := parseResponse(raw)
		if parseErr != nil {
			g.logger.Warn("model returned malformed JSON",
				zap.Int("attempt", attempt),
				zap.Int("responseBytes", len(raw)))
			lastErr = fmt.Errorf("%w: %v", ErrMalformedOutput, parseErr)
			prompt = userPrompt + "\n\n" + buildRepairPrompt(req.QuestionCount, []string{"the response was not valid JSON"})
			continue
		}
		sawValidJSON = true

		questions = dedupeQuestions(questions)
		if len(questions) < req.QuestionCount {
			violations = append(violations, fmt.Sprintf(
				"only %d distinct valid questions, need exactly %d", len(questions), req.QuestionCount))
		}
		if len(violations) > 0 {
			g.logger.Warn("model output failed validation",
				zap.Int("attempt", attempt),
				zap.Int("validQuestions", len(questions)),
				zap.Strings("violations", violations))
			lastViolations = violations
			lastErr = ErrSchemaValidation
			prompt = userPrompt + "\n\n" + buildRepairPrompt(req.QuestionCount, violations)
			continue
		}

		g.logger.Info("quiz generated",
			zap.Int("attempt", attempt),
			zap.Int("questions", req.QuestionCount),
			zap.Int("totalTokens", usage.TotalTokens))

		return buildArtifact(req, questions[:req.QuestionCount]), nil
	}

	return models.QuizArtifact{}, finalError(lastErr, lastViolations, sawValidJSON, g.opts.MaxAttempts)
}

// dedupeQuestions drops questions whose normalized text repeats, keeping the
// first occurrence.
func dedupeQuestions(questions []models.QuizQuestion) []models.QuizQuestion {
	seen := make(map[string]bool, len(questions))
	out := questions[:0]
	for _, q := range questions {
		key := normalizeQuestionText(q.Question)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

func buildArtifact(req models.GenerationRequest, questions []models.QuizQuestion) models.QuizArtifact {
	for i := range questions {
		questions[i].ID = uuid.NewString()
	}
	return models.QuizArtifact{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Questions:       questions,
		Mode:            req.Mode,
		DurationMinutes: req.DurationMinutes,
		GeneratedAt:     time.Now().UTC(),
	}
}

// finalError picks the error to surface after the attempt budget is spent.
func finalError(lastErr error, violations []string, sawValidJSON bool, attempts int) error {
	switch {
	case lastErr == nil:
		return fmt.Errorf("%w: no usable output after %d attempts", ErrSchemaValidation, attempts)
	case errors.Is(lastErr, ErrSchemaValidation):
		return fmt.Errorf("%w after %d attempts: %s", ErrSchemaValidation, attempts, strings.Join(violations, "; "))
	case errors.Is(lastErr, ErrMalformedOutput) && !sawValidJSON:
		return fmt.Errorf("%w after %d attempts", ErrMalformedOutput, attempts)
	default:
		return lastErr
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
