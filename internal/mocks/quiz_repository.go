package mocks

import (
	"context"

	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/Ilay1214/Quiz-AI/internal/repository"
	"github.com/stretchr/testify/mock"
)

// QuizRepository is a mock implementation of repository.QuizRepository.
type QuizRepository struct {
	mock.Mock
}

var _ repository.QuizRepository = (*QuizRepository)(nil)

func (m *QuizRepository) Save(ctx context.Context, userID int64, artifact *models.QuizArtifact) (int64, error) {
	args := m.Called(ctx, userID, artifact)
	return args.Get(0).(int64), args.Error(1)
}

func (m *QuizRepository) GetByID(ctx context.Context, quizID int64) (*models.Quiz, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *QuizRepository) ListByUser(ctx context.Context, userID int64) ([]models.QuizSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuizSummary), args.Error(1)
}
