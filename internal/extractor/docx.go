package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX pulls the visible text out of word/document.xml inside the
// OOXML container. Runs (w:t) keep their text, paragraphs (w:p) become
// newlines, tabs and breaks become whitespace.
func extractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a valid docx archive: %v", ErrExtraction, err)
	}

	var docXML io.ReadCloser
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			if docXML, err = f.Open(); err != nil {
				return "", fmt.Errorf("%w: cannot open document body: %v", ErrExtraction, err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("%w: archive has no word/document.xml", ErrExtraction)
	}
	defer docXML.Close()

	var b strings.Builder
	decoder := xml.NewDecoder(docXML)
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed document body: %v", ErrExtraction, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte(' ')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
