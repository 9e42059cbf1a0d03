// Package mocks holds hand-maintained testify mocks shared by the unit tests.
package mocks

import (
	"context"

	"github.com/Ilay1214/Quiz-AI/internal/ai"
	"github.com/stretchr/testify/mock"
)

// AIClient is a mock implementation of ai.Client.
type AIClient struct {
	mock.Mock
}

var _ ai.Client = (*AIClient)(nil)

func (m *AIClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, ai.UsageInfo, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Get(1).(ai.UsageInfo), args.Error(2)
}
