// Package repository persists completed quizzes for registered users.
package repository

import (
	"context"
	"errors"

	"github.com/Ilay1214/Quiz-AI/internal/models"
)

// ErrQuizNotFound is returned when no quiz exists with the requested ID.
var ErrQuizNotFound = errors.New("quiz not found")

// QuizRepository stores and serves persisted quizzes.
type QuizRepository interface {
	// Save stores the artifact for the user and returns the new quiz ID.
	Save(ctx context.Context, userID int64, artifact *models.QuizArtifact) (int64, error)
	// GetByID returns ErrQuizNotFound when the quiz does not exist.
	GetByID(ctx context.Context, quizID int64) (*models.Quiz, error)
	// ListByUser returns the user's quizzes, newest first.
	ListByUser(ctx context.Context, userID int64) ([]models.QuizSummary, error)
}
