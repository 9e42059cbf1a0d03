package mocks

import (
	"context"

	"github.com/Ilay1214/Quiz-AI/internal/extractor"
	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/stretchr/testify/mock"
)

// Extractor is a mock implementation of service.Extractor.
type Extractor struct {
	mock.Mock
}

func (m *Extractor) Extract(ctx context.Context, data []byte, declaredExt string) (extractor.Result, error) {
	args := m.Called(ctx, data, declaredExt)
	return args.Get(0).(extractor.Result), args.Error(1)
}

// QuizGenerator is a mock implementation of service.QuizGenerator.
type QuizGenerator struct {
	mock.Mock
}

func (m *QuizGenerator) Generate(ctx context.Context, req models.GenerationRequest) (models.QuizArtifact, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.QuizArtifact), args.Error(1)
}
