package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuizMode distinguishes untimed practice runs from timed exams.
type QuizMode string

const (
	ModePractice QuizMode = "practice"
	ModeExam     QuizMode = "exam"
)

// QuestionType enumerates the supported question shapes.
type QuestionType string

const (
	QuestionTypeSingle   QuestionType = "single"   // one correct option
	QuestionTypeMultiple QuestionType = "multiple" // two or more correct options
	QuestionTypeText     QuestionType = "text"     // free-form reference answer
)

// Request bounds, mirrored by the HTTP layer.
const (
	MinQuestionCount = 1
	MaxQuestionCount = 65
	MinExamDuration  = 1
	MaxExamDuration  = 180
)

// QuizQuestion is a single generated question inside an artifact.
type QuizQuestion struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	Type           QuestionType `json:"type"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswers []string     `json:"correctAnswers"`
	Explanation    string       `json:"explanation,omitempty"`
}

// QuizArtifact is the finished quiz produced by one generation run.
// It is immutable after creation.
type QuizArtifact struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Questions       []QuizQuestion `json:"questions"`
	Mode            QuizMode       `json:"mode"`
	DurationMinutes *int           `json:"duration,omitempty"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}

// GenerationRequest carries everything the generator needs for one run.
// Construct it with NewGenerationRequest so the mode/duration invariant holds.
type GenerationRequest struct {
	SourceText    string
	QuestionCount int
	Mode          QuizMode
	// DurationMinutes is set exactly when Mode is exam.
	DurationMinutes *int
	// UserID is nil for guests; guest quizzes are never persisted.
	UserID *int64
	Title  string
}

// NewGenerationRequest validates the parameters and returns an immutable request.
func NewGenerationRequest(sourceText string, count int, mode QuizMode, duration *int, userID *int64, title string) (GenerationRequest, error) {
	if count < MinQuestionCount || count > MaxQuestionCount {
		return GenerationRequest{}, fmt.Errorf("question count must be between %d and %d, got %d", MinQuestionCount, MaxQuestionCount, count)
	}
	switch mode {
	case ModePractice:
		if duration != nil {
			return GenerationRequest{}, fmt.Errorf("duration is only valid in exam mode")
		}
	case ModeExam:
		if duration == nil {
			return GenerationRequest{}, fmt.Errorf("exam mode requires a duration")
		}
		if *duration < MinExamDuration || *duration > MaxExamDuration {
			return GenerationRequest{}, fmt.Errorf("exam duration must be between %d and %d minutes, got %d", MinExamDuration, MaxExamDuration, *duration)
		}
	default:
		return GenerationRequest{}, fmt.Errorf("unknown quiz mode %q", mode)
	}
	return GenerationRequest{
		SourceText:      sourceText,
		QuestionCount:   count,
		Mode:            mode,
		DurationMinutes: duration,
		UserID:          userID,
		Title:           title,
	}, nil
}

// Quiz is a persisted quiz row owned by a registered user.
type Quiz struct {
	ID        int64           `json:"quiz_id" db:"quiz_id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	Title     string          `json:"title" db:"title"`
	Data      json.RawMessage `json:"quiz_data" db:"quiz_data"`
	Mode      string          `json:"mode" db:"mode"`
	Duration  *int            `json:"duration,omitempty" db:"duration"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// QuizSummary is the list-view projection of a persisted quiz.
type QuizSummary struct {
	ID        int64     `json:"quiz_id" db:"quiz_id"`
	Title     string    `json:"title" db:"title"`
	Mode      string    `json:"mode" db:"mode"`
	Duration  *int      `json:"duration,omitempty" db:"duration"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
