package handler

import (
	"github.com/Ilay1214/Quiz-AI/internal/jobs"
	"github.com/Ilay1214/Quiz-AI/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

type generateResponse struct {
	JobID string `json:"job_id"`
}

// jobStatusResponse is the polling payload. The artifact travels under
// "session", the name quiz-taking clients consume it as.
type jobStatusResponse struct {
	JobID           string               `json:"job_id"`
	Status          string               `json:"status"`
	Session         *models.QuizArtifact `json:"session,omitempty"`
	Error           string               `json:"error,omitempty"`
	ErrorCode       string               `json:"error_code,omitempty"`
	PersistedQuizID *int64               `json:"persisted_quiz_id,omitempty"`
	Warning         string               `json:"warning,omitempty"`
}

func toJobStatusResponse(job jobs.Job) jobStatusResponse {
	resp := jobStatusResponse{
		JobID:           job.ID,
		Status:          string(job.Status),
		Session:         job.Artifact,
		PersistedQuizID: job.PersistedQuizID,
		Warning:         job.Warning,
	}
	if job.Failure != nil {
		resp.Error = job.Failure.Message
		resp.ErrorCode = string(job.Failure.Code)
	}
	return resp
}
