package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracker owns the job state machine on top of a Store. Status reads are
// side-effect free and can be repeated; transitions are validated against
// pending -> processing -> completed/failed.
type Tracker struct {
	store     Store
	retention time.Duration
	logger    *zap.Logger

	// mu serializes read-modify-write transitions. Each job has a single
	// writer (its worker), the lock protects against races with the janitor
	// and with stores that cannot update atomically.
	mu sync.Mutex
}

func NewTracker(store Store, retention time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:     store,
		retention: retention,
		logger:    logger.Named("jobs"),
	}
}

// Create registers a new pending job and returns its snapshot.
func (t *Tracker) Create(ctx context.Context) (Job, error) {
	now := time.Now().UTC()
	job := Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.store.Put(ctx, job); err != nil {
		return Job{}, err
	}
	t.logger.Debug("job created", zap.String("jobID", job.ID))
	return job, nil
}

// Get returns a snapshot of the job. Polling is idempotent, repeated reads of
// a terminal job return the same result until the janitor evicts it.
func (t *Tracker) Get(ctx context.Context, id string) (Job, error) {
	return t.store.Get(ctx, id)
}

// MarkProcessing moves a pending job to processing.
func (t *Tracker) MarkProcessing(ctx context.Context, id string) error {
	return t.transition(ctx, id, StatusProcessing, func(job *Job) error {
		if job.Status != StatusPending {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, StatusProcessing)
		}
		return nil
	})
}

// MarkCompleted finishes a processing job with its artifact. persistedQuizID
// is non-nil when the quiz was saved for a registered user; warning carries a
// non-fatal problem such as a failed save.
func (t *Tracker) MarkCompleted(ctx context.Context, id string, artifact *models.QuizArtifact, persistedQuizID *int64, warning string) error {
	return t.transition(ctx, id, StatusCompleted, func(job *Job) error {
		if job.Status != StatusProcessing {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, StatusCompleted)
		}
		job.Artifact = artifact
		job.PersistedQuizID = persistedQuizID
		job.Warning = warning
		return nil
	})
}

// MarkFailed finishes a job with a failure detail. Legal from both pending
// and processing, a job can fail before a worker ever picks it up.
func (t *Tracker) MarkFailed(ctx context.Context, id string, code FailureCode, message string) error {
	return t.transition(ctx, id, StatusFailed, func(job *Job) error {
		if job.Status.Terminal() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, StatusFailed)
		}
		job.Failure = &FailureDetail{Code: code, Message: message}
		return nil
	})
}

func (t *Tracker) transition(ctx context.Context, id string, target Status, apply func(*Job) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, err := t.store.Get(ctx, id)
	if err != nil {
		return err
	}
	from := job.Status
	if err := apply(&job); err != nil {
		return err
	}
	job.Status = target
	job.UpdatedAt = time.Now().UTC()
	if err := t.store.Put(ctx, job); err != nil {
		return err
	}
	t.logger.Info("job status changed",
		zap.String("jobID", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)))
	return nil
}

// StartJanitor sweeps expired terminal jobs every interval until ctx is
// cancelled. Returns immediately; the sweep loop runs on its own goroutine.
func (t *Tracker) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := t.store.Sweep(ctx, t.retention)
				if err != nil {
					t.logger.Warn("job sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					t.logger.Info("expired jobs evicted", zap.Int("count", removed))
				}
			}
		}
	}()
}
