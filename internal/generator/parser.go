package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ilay1214/Quiz-AI/internal/models"
)

// rawResponse mirrors the JSON object the model is instructed to return.
type rawResponse struct {
	Questions []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Question       string   `json:"question"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correctAnswers"`
	Explanation    string   `json:"explanation"`
}

const (
	singleOptionCount    = 4
	singleCorrectCount   = 1
	multipleOptionCount  = 5
	multipleCorrectCount = 2
)

// parseResponse decodes the model output. A nil error with a non-empty
// violations slice means the JSON was well formed but the content broke the
// schema; those violations feed the repair prompt.
func parseResponse(raw string) ([]models.QuizQuestion, []string, error) {
	raw = stripCodeFence(raw)

	var resp rawResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	if len(resp.Questions) == 0 {
		return nil, []string{`the "questions" array is missing or empty`}, nil
	}

	var violations []string
	questions := make([]models.QuizQuestion, 0, len(resp.Questions))
	for i, q := range resp.Questions {
		qViolations := validateQuestion(i, q)
		if len(qViolations) > 0 {
			violations = append(violations, qViolations...)
			continue
		}
		questions = append(questions, models.QuizQuestion{
			Question:       strings.TrimSpace(q.Question),
			Type:           models.QuestionType(q.Type),
			Options:        q.Options,
			CorrectAnswers: q.CorrectAnswers,
			Explanation:    strings.TrimSpace(q.Explanation),
		})
	}
	return questions, violations, nil
}

func validateQuestion(idx int, q rawQuestion) []string {
	var violations []string
	add := func(format string, args ...interface{}) {
		violations = append(violations, fmt.Sprintf("question %d: %s", idx+1, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(q.Question) == "" {
		add("question text is empty")
	}

	switch models.QuestionType(q.Type) {
	case models.QuestionTypeSingle:
		violations = append(violations, validateChoice(idx, q, singleOptionCount, singleCorrectCount)...)
	case models.QuestionTypeMultiple:
		violations = append(violations, validateChoice(idx, q, multipleOptionCount, multipleCorrectCount)...)
	case models.QuestionTypeText:
		if len(q.Options) != 0 {
			add(`a "text" question must not have options`)
		}
		if len(q.CorrectAnswers) != 1 {
			add(`a "text" question needs exactly 1 reference answer, got %d`, len(q.CorrectAnswers))
		} else if strings.TrimSpace(q.CorrectAnswers[0]) == "" {
			add("the reference answer is empty")
		}
	default:
		add("unknown question type %q", q.Type)
	}

	return violations
}

func validateChoice(idx int, q rawQuestion, wantOptions, wantCorrect int) []string {
	var violations []string
	add := func(format string, args ...interface{}) {
		violations = append(violations, fmt.Sprintf("question %d: %s", idx+1, fmt.Sprintf(format, args...)))
	}

	if len(q.Options) != wantOptions {
		add("a %q question needs exactly %d options, got %d", q.Type, wantOptions, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			add("an option is empty")
			continue
		}
		key := strings.ToLower(strings.TrimSpace(opt))
		if seen[key] {
			add("duplicate option %q", opt)
		}
		seen[key] = true
	}

	if len(q.CorrectAnswers) != wantCorrect {
		add("a %q question needs exactly %d correct answers, got %d", q.Type, wantCorrect, len(q.CorrectAnswers))
	}
	for _, ans := range q.CorrectAnswers {
		if !seen[strings.ToLower(strings.TrimSpace(ans))] {
			add("correct answer %q is not among the options", ans)
		}
	}

	return violations
}

// stripCodeFence removes a Markdown code fence some models wrap around JSON
// despite the JSON response format instruction.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
