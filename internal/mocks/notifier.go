package mocks

import (
	"context"

	"github.com/Ilay1214/Quiz-AI/internal/messaging"
	"github.com/stretchr/testify/mock"
)

// Notifier is a mock implementation of messaging.Notifier.
type Notifier struct {
	mock.Mock
}

var _ messaging.Notifier = (*Notifier)(nil)

func (m *Notifier) NotifyJobEvent(ctx context.Context, payload messaging.JobEventPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *Notifier) Close() error {
	args := m.Called()
	return args.Error(0)
}
