// Package jobs tracks the lifecycle of asynchronous quiz generation jobs.
package jobs

import (
	"errors"
	"time"

	"github.com/Ilay1214/Quiz-AI/internal/models"
)

var (
	// ErrUnknownJob is returned for job IDs that never existed or were evicted.
	ErrUnknownJob = errors.New("unknown job")
	// ErrInvalidTransition is returned when a status change violates the
	// pending -> processing -> completed/failed state machine.
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// Status is the lifecycle state of a generation job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// FailureCode classifies why a job failed, stable across releases so clients
// can switch on it.
type FailureCode string

const (
	CodeUnsupportedFormat   FailureCode = "unsupported_format"
	CodeExtractionFailed    FailureCode = "extraction_failed"
	CodeInsufficientContent FailureCode = "insufficient_content"
	CodeProviderUnavailable FailureCode = "provider_unavailable"
	CodeProviderTimeout     FailureCode = "provider_timeout"
	CodeRateLimited         FailureCode = "rate_limited"
	CodeMalformedOutput     FailureCode = "malformed_output"
	CodeSchemaValidation    FailureCode = "schema_validation_failed"
	CodeTimeout             FailureCode = "job_timeout"
	CodeInternal            FailureCode = "internal_error"
)

// FailureDetail is the client-facing error attached to a failed job.
type FailureDetail struct {
	Code    FailureCode `json:"code"`
	Message string      `json:"message"`
}

// Job is a snapshot of one generation job. The Artifact is immutable once
// set, so snapshots can share it safely.
type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Artifact is set exactly when Status is completed.
	Artifact *models.QuizArtifact `json:"artifact,omitempty"`
	// Failure is set exactly when Status is failed.
	Failure *FailureDetail `json:"failure,omitempty"`
	// PersistedQuizID is set when the completed quiz was saved for a user.
	PersistedQuizID *int64 `json:"persisted_quiz_id,omitempty"`
	// Warning carries non-fatal problems, such as a failed save of an
	// otherwise completed quiz.
	Warning string `json:"warning,omitempty"`
}
