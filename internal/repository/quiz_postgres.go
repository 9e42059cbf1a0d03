package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Ilay1214/Quiz-AI/internal/models"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresQuizRepository implements QuizRepository on a pgx connection pool.
type PostgresQuizRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ QuizRepository = (*PostgresQuizRepository)(nil)

func NewPostgresQuizRepository(pool *pgxpool.Pool, logger *zap.Logger) *PostgresQuizRepository {
	return &PostgresQuizRepository{pool: pool, logger: logger.Named("repository")}
}

// EnsureSchema creates the quizzes table and its index when they are missing.
func (r *PostgresQuizRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS quizzes (
	quiz_id    BIGSERIAL PRIMARY KEY,
	user_id    BIGINT      NOT NULL,
	title      TEXT        NOT NULL,
	quiz_data  JSONB       NOT NULL,
	mode       TEXT        NOT NULL,
	duration   INTEGER,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_quizzes_user_id ON quizzes (user_id, created_at DESC);`

	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure quizzes schema: %w", err)
	}
	return nil
}

func (r *PostgresQuizRepository) Save(ctx context.Context, userID int64, artifact *models.QuizArtifact) (int64, error) {
	data, err := json.Marshal(artifact)
	if err != nil {
		return 0, fmt.Errorf("failed to encode quiz artifact: %w", err)
	}

	const query = `
INSERT INTO quizzes (user_id, title, quiz_data, mode, duration)
VALUES ($1, $2, $3, $4, $5)
RETURNING quiz_id`

	var quizID int64
	err = r.pool.QueryRow(ctx, query,
		userID, artifact.Title, data, string(artifact.Mode), artifact.DurationMinutes,
	).Scan(&quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to save quiz: %w", err)
	}

	r.logger.Info("quiz saved",
		zap.Int64("quizID", quizID),
		zap.Int64("userID", userID),
		zap.Int("questions", len(artifact.Questions)))
	return quizID, nil
}

func (r *PostgresQuizRepository) GetByID(ctx context.Context, quizID int64) (*models.Quiz, error) {
	const query = `
SELECT quiz_id, user_id, title, quiz_data, mode, duration, created_at
FROM quizzes
WHERE quiz_id = $1`

	var quiz models.Quiz
	err := pgxscan.Get(ctx, r.pool, &quiz, query, quizID)
	if pgxscan.NotFound(err) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz %d: %w", quizID, err)
	}
	return &quiz, nil
}

func (r *PostgresQuizRepository) ListByUser(ctx context.Context, userID int64) ([]models.QuizSummary, error) {
	const query = `
SELECT quiz_id, title, mode, duration, created_at
FROM quizzes
WHERE user_id = $1
ORDER BY created_at DESC`

	var summaries []models.QuizSummary
	if err := pgxscan.Select(ctx, r.pool, &summaries, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list quizzes for user %d: %w", userID, err)
	}
	return summaries, nil
}
