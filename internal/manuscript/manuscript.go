// Package manuscript loads manuscript and table-of-contents files for
// segmentation.
package manuscript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither text nor PDF.
	ErrUnsupportedFormat = errors.New("unsupported manuscript format")
	// ErrNoText is returned when a PDF has no extractable text.
	ErrNoText = errors.New("no extractable text found in pdf")
)

// Manuscript is a loaded file.
type Manuscript struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Text   string `json:"text"`
}

// Read loads path as plain text. Text and markdown files are returned as-is
// with line endings normalized; PDFs are flattened page by page.
func Read(path string) (*Manuscript, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md", ".markdown", ".text":
		return readText(path, strings.TrimPrefix(ext, "."))
	case ".pdf":
		return readPDF(path)
	}

	// Unknown extension: decide by content.
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", path, err)
	}
	switch {
	case mt.Is("application/pdf"):
		return readPDF(path)
	case strings.HasPrefix(mt.String(), "text/"):
		return readText(path, "txt")
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, path, mt.String())
	}
}

func readText(path, format string) (*Manuscript, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedFormat, path)
	}
	return &Manuscript{Path: path, Format: format, Text: NormalizeNewlines(string(raw))}, nil
}

func readPDF(path string) (*Manuscript, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return nil, ErrNoText
	}
	return &Manuscript{Path: path, Format: "pdf", Text: NormalizeNewlines(b.String())}, nil
}

// NormalizeNewlines converts CRLF and CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
