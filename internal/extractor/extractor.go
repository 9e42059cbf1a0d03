// Package extractor converts uploaded documents (PDF, DOCX, TXT) into
// normalized plain text for quiz generation.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	// ErrUnsupportedFormat is returned for file types the extractor cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtraction is returned when the byte stream cannot be parsed as its declared format.
	ErrExtraction = errors.New("failed to extract text")
	// ErrInsufficientContent is returned when the extracted text is too short to be usable.
	ErrInsufficientContent = errors.New("document contains too little text")
)

// Format is a supported source document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
)

// ParseFormat maps a file extension (with or without a leading dot) to a Format.
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "pdf":
		return FormatPDF, nil
	case "docx":
		return FormatDOCX, nil
	case "txt":
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Result is the extracted, normalized text together with the detected format.
type Result struct {
	Text   string
	Format Format
}

// Service extracts text from uploaded documents. It holds no per-call state
// and is safe for concurrent use.
type Service struct {
	minLength int
	logger    *zap.Logger
}

// New creates an extractor. minLength is the minimum usable rune count of the
// normalized text; shorter documents fail with ErrInsufficientContent.
func New(minLength int, logger *zap.Logger) *Service {
	return &Service{minLength: minLength, logger: logger.Named("extractor")}
}

// Extract converts the raw upload into normalized text. The upload bytes are
// not retained after the call returns.
func (s *Service) Extract(ctx context.Context, data []byte, declaredExt string) (Result, error) {
	format, err := ParseFormat(declaredExt)
	if err != nil {
		return Result{}, err
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty file", ErrExtraction)
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(ctx, data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatTXT:
		text, err = extractTXT(data)
	}
	if err != nil {
		return Result{}, err
	}

	text = normalizeText(text)
	if runeLen := utf8.RuneCountInString(text); runeLen < s.minLength {
		return Result{}, fmt.Errorf("%w: %d characters after extraction, need at least %d", ErrInsufficientContent, runeLen, s.minLength)
	}

	s.logger.Debug("text extracted",
		zap.String("format", string(format)),
		zap.Int("inputBytes", len(data)),
		zap.Int("textRunes", utf8.RuneCountInString(text)))

	return Result{Text: text, Format: format}, nil
}

func extractTXT(data []byte) (string, error) {
	// Tolerate a UTF-8 BOM.
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8 text", ErrExtraction)
	}
	return string(data), nil
}

// normalizeText collapses runs of spaces and tabs, trims line edges, limits
// consecutive blank lines to one, and drops non-printable artifacts. Semantic
// content is left untouched.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	blankRun := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
		} else {
			blankRun = 0
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
