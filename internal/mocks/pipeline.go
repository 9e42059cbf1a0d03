package mocks

import (
	"context"

	"github.com/Ilay1214/Quiz-AI/internal/jobs"
	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/Ilay1214/Quiz-AI/internal/service"
	"github.com/stretchr/testify/mock"
)

// Pipeline is a mock implementation of handler.Pipeline.
type Pipeline struct {
	mock.Mock
}

func (m *Pipeline) Submit(ctx context.Context, params service.SubmitParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *Pipeline) Status(ctx context.Context, jobID string) (jobs.Job, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(jobs.Job), args.Error(1)
}

func (m *Pipeline) GetQuiz(ctx context.Context, quizID int64) (*models.Quiz, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *Pipeline) ListQuizzes(ctx context.Context, userID int64) ([]models.QuizSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuizSummary), args.Error(1)
}
