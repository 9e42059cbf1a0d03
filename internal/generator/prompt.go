package generator

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is used for budgeting source text. The exact tokenizer of the
// served model is unknown, cl100k_base is a close enough upper bound.
const tokenEncoding = "cl100k_base"

const systemPromptTemplate = `You are a quiz generator. You create exam-quality questions strictly from the study material the user provides. Respond with a single JSON object and nothing else.

The JSON object must have exactly one key, "questions", holding an array of question objects. Each question object has these fields:
- "question": the question text.
- "type": one of "single", "multiple" or "text".
- "options": array of answer options. Exactly 4 options for "single" questions, exactly 5 for "multiple". Omit for "text" questions.
- "correctAnswers": array of correct answers. Exactly 1 for "single", exactly 2 for "multiple", exactly 1 reference answer for "text". Every correct answer of a choice question must appear verbatim in "options".
- "explanation": one or two sentences explaining why the answer is correct.

Rules:
- Generate exactly %d questions.
- Mix the question types; prefer "single" and "multiple", use "text" sparingly.
- Every question must be answerable from the provided material alone.
- No duplicate or near-duplicate questions.
- Write all questions, options and explanations in %s.`

// buildSystemPrompt renders the instruction block for the requested question
// count and the language detected in the source text.
func buildSystemPrompt(questionCount int, sourceText string) string {
	return fmt.Sprintf(systemPromptTemplate, questionCount, detectLanguage(sourceText))
}

// detectLanguage names the dominant language of the text so the model answers
// in the same language as the study material.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "the same language as the study material"
	}
	return info.Lang.String()
}

// buildUserPrompt wraps the source text, truncated to the token budget.
func buildUserPrompt(sourceText string, maxSourceTokens int) (string, error) {
	truncated, err := truncateToTokens(sourceText, maxSourceTokens)
	if err != nil {
		return "", err
	}
	return "Study material:\n\n" + truncated, nil
}

// truncateToTokens cuts the text down to at most maxTokens tokens, then backs
// off to the last sentence boundary so the model never sees a clipped sentence.
func truncateToTokens(text string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		return text, nil
	}
	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return "", fmt.Errorf("failed to load tokenizer: %w", err)
	}
	tokens := encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, nil
	}
	clipped := encoder.Decode(tokens[:maxTokens])
	if idx := lastSentenceEnd(clipped); idx > 0 {
		clipped = clipped[:idx]
	}
	return strings.TrimSpace(clipped), nil
}

func lastSentenceEnd(text string) int {
	end := -1
	for _, sep := range []string{". ", ".\n", "! ", "!\n", "? ", "?\n"} {
		if idx := strings.LastIndex(text, sep); idx+1 > end {
			end = idx + 1
		}
	}
	return end
}

// buildRepairPrompt asks the model to regenerate after a rejected attempt,
// enumerating what was wrong with the previous output.
func buildRepairPrompt(questionCount int, violations []string) string {
	var b strings.Builder
	b.WriteString("Your previous response was rejected for these reasons:\n")
	for _, v := range violations {
		b.WriteString("- ")
		b.WriteString(v)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nRegenerate the full JSON object with exactly %d questions, fixing every issue above. Respond with the JSON object only.", questionCount)
	return b.String()
}

// normalizeQuestionText is the dedup key for question prompts.
func normalizeQuestionText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimRight(text, ".?! ")
	return strings.Join(strings.Fields(text), " ")
}
