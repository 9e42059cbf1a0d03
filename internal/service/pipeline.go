// Package service orchestrates the document-to-quiz pipeline: extraction,
// generation, persistence and job bookkeeping.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ilay1214/Quiz-AI/internal/ai"
	"github.com/Ilay1214/Quiz-AI/internal/extractor"
	"github.com/Ilay1214/Quiz-AI/internal/generator"
	"github.com/Ilay1214/Quiz-AI/internal/jobs"
	"github.com/Ilay1214/Quiz-AI/internal/messaging"
	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/Ilay1214/Quiz-AI/internal/repository"
	"github.com/Ilay1214/Quiz-AI/pkg/taskqueue"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Submit when the worker queue is at capacity.
var ErrQueueFull = taskqueue.ErrQueueFull

// Extractor converts an uploaded document into normalized text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, declaredExt string) (extractor.Result, error)
}

// QuizGenerator produces a validated quiz artifact from source text.
type QuizGenerator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (models.QuizArtifact, error)
}

// SubmitParams carries one upload through Submit. The document bytes are
// owned by the pipeline after the call.
type SubmitParams struct {
	FileData      []byte
	FileExt       string
	QuestionCount int
	Mode          models.QuizMode
	// DurationMinutes is required in exam mode, forbidden otherwise.
	DurationMinutes *int
	// UserID is nil for guests; guest quizzes are never persisted.
	UserID *int64
	Title  string
}

// Pipeline accepts uploads, runs generation jobs on the worker pool and
// exposes job status and persisted quizzes.
type Pipeline struct {
	extractor  Extractor
	generator  QuizGenerator
	tracker    *jobs.Tracker
	repository repository.QuizRepository
	// notifier is optional; a nil notifier disables job events.
	notifier messaging.Notifier
	pool     *taskqueue.Pool

	jobTimeout time.Duration
	logger     *zap.Logger
}

func NewPipeline(
	ext Extractor,
	gen QuizGenerator,
	tracker *jobs.Tracker,
	repo repository.QuizRepository,
	notifier messaging.Notifier,
	pool *taskqueue.Pool,
	jobTimeout time.Duration,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		extractor:  ext,
		generator:  gen,
		tracker:    tracker,
		repository: repo,
		notifier:   notifier,
		pool:       pool,
		jobTimeout: jobTimeout,
		logger:     logger.Named("pipeline"),
	}
}

// Submit validates the upload parameters, registers a pending job and queues
// it for processing. Returns the job ID for status polling, or ErrQueueFull
// when the pool cannot take more work.
func (p *Pipeline) Submit(ctx context.Context, params SubmitParams) (string, error) {
	if _, err := extractor.ParseFormat(params.FileExt); err != nil {
		return "", err
	}
	// Validate count, mode and duration before creating the job; the source
	// text is only known after extraction, so a placeholder is checked here.
	if _, err := models.NewGenerationRequest("", params.QuestionCount, params.Mode,
		params.DurationMinutes, params.UserID, params.Title); err != nil {
		return "", err
	}

	job, err := p.tracker.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to register job: %w", err)
	}

	err = p.pool.Submit(func(runCtx context.Context) {
		p.run(runCtx, job.ID, params)
	})
	if err != nil {
		jobsRejected.Inc()
		if markErr := p.tracker.MarkFailed(ctx, job.ID, jobs.CodeInternal, "server is overloaded, try again later"); markErr != nil {
			p.logger.Warn("failed to mark rejected job", zap.String("jobID", job.ID), zap.Error(markErr))
		}
		return "", err
	}

	p.logger.Info("job queued",
		zap.String("jobID", job.ID),
		zap.Int("questionCount", params.QuestionCount),
		zap.String("mode", string(params.Mode)),
		zap.Bool("guest", params.UserID == nil))
	return job.ID, nil
}

// Status returns a snapshot of the job.
func (p *Pipeline) Status(ctx context.Context, jobID string) (jobs.Job, error) {
	return p.tracker.Get(ctx, jobID)
}

// GetQuiz returns a persisted quiz by ID.
func (p *Pipeline) GetQuiz(ctx context.Context, quizID int64) (*models.Quiz, error) {
	return p.repository.GetByID(ctx, quizID)
}

// ListQuizzes returns the persisted quizzes of a user, newest first.
func (p *Pipeline) ListQuizzes(ctx context.Context, userID int64) ([]models.QuizSummary, error) {
	return p.repository.ListByUser(ctx, userID)
}

// Shutdown drains the worker pool within the context deadline.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	return p.pool.Shutdown(ctx)
}

// run executes one job end to end. Every exit path leaves the job in a
// terminal state.
func (p *Pipeline) run(ctx context.Context, jobID string, params SubmitParams) {
	start := time.Now()
	log := p.logger.With(zap.String("jobID", jobID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", zap.Any("panic", r))
			p.finishFailed(jobID, params, jobs.CodeInternal, "internal error", start)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	if err := p.tracker.MarkProcessing(ctx, jobID); err != nil {
		log.Warn("failed to mark job processing", zap.Error(err))
		return
	}

	extracted, err := p.extractor.Extract(ctx, params.FileData, params.FileExt)
	if err != nil {
		code, msg := classifyFailure(err)
		log.Info("extraction failed", zap.String("code", string(code)), zap.Error(err))
		p.finishFailed(jobID, params, code, msg, start)
		return
	}

	req, err := models.NewGenerationRequest(extracted.Text, params.QuestionCount,
		params.Mode, params.DurationMinutes, params.UserID, params.Title)
	if err != nil {
		log.Error("request validation failed after submit", zap.Error(err))
		p.finishFailed(jobID, params, jobs.CodeInternal, "internal error", start)
		return
	}

	artifact, err := p.generator.Generate(ctx, req)
	if err != nil {
		code, msg := classifyFailure(err)
		log.Info("generation failed", zap.String("code", string(code)), zap.Error(err))
		p.finishFailed(jobID, params, code, msg, start)
		return
	}

	// Persistence failures do not fail a finished quiz; the artifact is
	// still served from the job record, with a warning attached.
	var persistedID *int64
	var warning string
	if params.UserID != nil {
		quizID, saveErr := p.repository.Save(ctx, *params.UserID, &artifact)
		if saveErr != nil {
			log.Warn("failed to persist quiz", zap.Error(saveErr))
			warning = "the quiz was generated but could not be saved to your account"
		} else {
			persistedID = &quizID
		}
	}

	if err := p.tracker.MarkCompleted(ctx, jobID, &artifact, persistedID, warning); err != nil {
		log.Error("failed to mark job completed", zap.Error(err))
		return
	}
	jobsFinished.WithLabelValues("completed").Inc()
	jobDuration.WithLabelValues("completed").Observe(time.Since(start).Seconds())

	log.Info("job completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("questions", len(artifact.Questions)),
		zap.Bool("persisted", persistedID != nil))

	p.notify(jobID, params, jobs.StatusCompleted, persistedID, "", len(artifact.Questions))
}

// finishFailed marks the job failed and emits metrics and the job event.
// Uses a fresh context, the job context may already be expired.
func (p *Pipeline) finishFailed(jobID string, params SubmitParams, code jobs.FailureCode, message string, start time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.tracker.MarkFailed(ctx, jobID, code, message); err != nil {
		p.logger.Error("failed to mark job failed",
			zap.String("jobID", jobID), zap.Error(err))
		return
	}
	jobsFinished.WithLabelValues("failed").Inc()
	jobDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())

	p.notify(jobID, params, jobs.StatusFailed, nil, code, 0)
}

// notify publishes the terminal job event. Notifier failures are logged and
// never affect the job outcome.
func (p *Pipeline) notify(jobID string, params SubmitParams, status jobs.Status, persistedID *int64, code jobs.FailureCode, questions int) {
	if p.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := p.notifier.NotifyJobEvent(ctx, messaging.JobEventPayload{
		JobID:           jobID,
		Status:          string(status),
		UserID:          params.UserID,
		Title:           params.Title,
		QuestionCount:   questions,
		PersistedQuizID: persistedID,
		FailureCode:     string(code),
		OccurredAt:      time.Now().UTC(),
	})
	if err != nil {
		p.logger.Warn("failed to publish job event",
			zap.String("jobID", jobID), zap.Error(err))
	}
}

// classifyFailure maps pipeline errors onto client-facing failure codes.
func classifyFailure(err error) (jobs.FailureCode, string) {
	switch {
	case errors.Is(err, extractor.ErrUnsupportedFormat):
		return jobs.CodeUnsupportedFormat, "the file format is not supported"
	case errors.Is(err, extractor.ErrInsufficientContent):
		return jobs.CodeInsufficientContent, "the document contains too little text to generate a quiz"
	case errors.Is(err, extractor.ErrExtraction):
		return jobs.CodeExtractionFailed, "the document could not be read"
	case errors.Is(err, generator.ErrSchemaValidation):
		return jobs.CodeSchemaValidation, "the model could not produce the requested questions"
	case errors.Is(err, generator.ErrMalformedOutput):
		return jobs.CodeMalformedOutput, "the model returned unusable output"
	case errors.Is(err, ai.ErrRateLimited):
		return jobs.CodeRateLimited, "the AI provider is rate limiting requests, try again later"
	case errors.Is(err, ai.ErrTimeout):
		return jobs.CodeProviderTimeout, "the AI provider did not answer in time"
	case errors.Is(err, ai.ErrUnavailable):
		return jobs.CodeProviderUnavailable, "the AI provider is unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return jobs.CodeTimeout, "the job exceeded the processing time limit"
	default:
		return jobs.CodeInternal, "internal error"
	}
}
