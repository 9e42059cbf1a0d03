package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(minLength int) *Service {
	return New(minLength, zap.NewNop())
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		ext      string
		expected Format
		wantErr  bool
	}{
		{"pdf", FormatPDF, false},
		{".PDF", FormatPDF, false},
		{"docx", FormatDOCX, false},
		{".txt", FormatTXT, false},
		{" txt ", FormatTXT, false},
		{"doc", "", true},
		{"exe", "", true},
		{"", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.ext, func(t *testing.T) {
			format, err := ParseFormat(tc.ext)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, format)
		})
	}
}

func TestExtract_PlainText(t *testing.T) {
	svc := newTestService(10)

	result, err := svc.Extract(context.Background(), []byte("The mitochondria is the powerhouse of the cell."), "txt")
	require.NoError(t, err)
	assert.Equal(t, FormatTXT, result.Format)
	assert.Equal(t, "The mitochondria is the powerhouse of the cell.", result.Text)
}

func TestExtract_NormalizesWhitespace(t *testing.T) {
	svc := newTestService(5)

	raw := "First   line\t with\ttabs\r\n\r\n\r\n\r\nSecond line  \r\nThird line"
	result, err := svc.Extract(context.Background(), []byte(raw), "txt")
	require.NoError(t, err)

	assert.Equal(t, "First line with tabs\n\nSecond line\nThird line", result.Text)
}

func TestExtract_StripsBOM(t *testing.T) {
	svc := newTestService(5)

	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Content after a byte order mark")...)
	result, err := svc.Extract(context.Background(), raw, "txt")
	require.NoError(t, err)
	assert.Equal(t, "Content after a byte order mark", result.Text)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	svc := newTestService(10)

	_, err := svc.Extract(context.Background(), []byte("anything"), "pptx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtract_EmptyFile(t *testing.T) {
	svc := newTestService(10)

	_, err := svc.Extract(context.Background(), nil, "txt")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_InsufficientContent(t *testing.T) {
	svc := newTestService(150)

	_, err := svc.Extract(context.Background(), []byte("too short to make a quiz from"), "txt")
	assert.ErrorIs(t, err, ErrInsufficientContent)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	svc := newTestService(5)

	_, err := svc.Extract(context.Background(), []byte{0xff, 0xfe, 0x41, 0x42}, "txt")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_CorruptPDF(t *testing.T) {
	svc := newTestService(10)

	_, err := svc.Extract(context.Background(), []byte("this is not a pdf at all"), "pdf")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_DOCX(t *testing.T) {
	svc := newTestService(10)

	docx := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Photosynthesis converts light</w:t></w:r><w:r><w:t xml:space="preserve"> into chemical energy.</w:t></w:r></w:p>
    <w:p><w:r><w:t>It happens in chloroplasts.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	result, err := svc.Extract(context.Background(), docx, "docx")
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, result.Format)
	assert.Equal(t, "Photosynthesis converts light into chemical energy.\nIt happens in chloroplasts.", result.Text)
}

func TestExtract_DOCXMissingBody(t *testing.T) {
	svc := newTestService(10)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<w:styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = svc.Extract(context.Background(), buf.Bytes(), "docx")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_DOCXNotAnArchive(t *testing.T) {
	svc := newTestService(10)

	_, err := svc.Extract(context.Background(), []byte("plain bytes masquerading as docx"), "docx")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestStripPageFurniture(t *testing.T) {
	pages := []string{
		"Chapter Notes\nCells divide by mitosis.\nPage 1",
		"Chapter Notes\nThe cycle has four phases.\nPage 2",
		"Chapter Notes\nInterphase is the longest.\nPage 3",
		"Chapter Notes\nCytokinesis splits the cytoplasm.\nPage 4",
	}

	stripped := stripPageFurniture(pages)
	joined := strings.Join(stripped, "\n")
	assert.NotContains(t, joined, "Chapter Notes")
	assert.Contains(t, joined, "Cells divide by mitosis.")
	assert.Contains(t, joined, "Cytokinesis splits the cytoplasm.")
}

func TestStripPageFurniture_ShortDocumentUntouched(t *testing.T) {
	pages := []string{"Header\nBody one", "Header\nBody two"}
	assert.Equal(t, pages, stripPageFurniture(pages))
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
