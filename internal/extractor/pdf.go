package extractor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
)

// Repeated page furniture shorter than this is treated as a header or footer.
const furnitureMaxRunes = 80

func extractPDF(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pageText, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrExtraction, i+1, err)
		}
		pages = append(pages, pageText)
	}

	return strings.Join(stripPageFurniture(pages), "\n"), nil
}

// stripPageFurniture drops short lines that repeat at the top or bottom of
// most pages, such as running headers and page footers. Best effort only;
// documents with fewer than three pages are returned as is.
func stripPageFurniture(pages []string) []string {
	if len(pages) < 3 {
		return pages
	}

	firstCount := make(map[string]int)
	lastCount := make(map[string]int)
	for _, page := range pages {
		first, last := edgeLines(page)
		if first != "" {
			firstCount[first]++
		}
		if last != "" {
			lastCount[last]++
		}
	}

	threshold := len(pages)/2 + 1
	isFurniture := func(counts map[string]int, line string) bool {
		return line != "" &&
			utf8.RuneCountInString(line) <= furnitureMaxRunes &&
			counts[line] >= threshold
	}

	out := make([]string, 0, len(pages))
	for _, page := range pages {
		lines := strings.Split(page, "\n")
		start, end := 0, len(lines)
		first, last := edgeLines(page)
		if isFurniture(firstCount, first) {
			for start < end && strings.TrimSpace(lines[start]) != first {
				start++
			}
			if start < end {
				start++
			}
		}
		if isFurniture(lastCount, last) {
			for end > start && strings.TrimSpace(lines[end-1]) != last {
				end--
			}
			if end > start {
				end--
			}
		}
		out = append(out, strings.Join(lines[start:end], "\n"))
	}
	return out
}

// edgeLines returns the first and last non-blank lines of a page, trimmed.
func edgeLines(page string) (first, last string) {
	lines := strings.Split(page, "\n")
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			first = t
			break
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if t := strings.TrimSpace(lines[i]); t != "" {
			last = t
			break
		}
	}
	return first, last
}
