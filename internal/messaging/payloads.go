// Package messaging publishes job completion events so downstream consumers
// (mailers, analytics) can react without polling the status endpoint.
package messaging

import "time"

// JobEventPayload is the message published when a generation job reaches a
// terminal state.
type JobEventPayload struct {
	JobID           string    `json:"job_id"`
	Status          string    `json:"status"`
	UserID          *int64    `json:"user_id,omitempty"`
	Title           string    `json:"title,omitempty"`
	QuestionCount   int       `json:"question_count,omitempty"`
	PersistedQuizID *int64    `json:"persisted_quiz_id,omitempty"`
	FailureCode     string    `json:"failure_code,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
