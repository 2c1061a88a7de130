// Package textextract turns uploaded documents into plain text.
package textextract

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"docqa/internal/pipeline"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrMalformedDocument = errors.New("malformed document")
)

// Format is a supported document kind.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// DetectFormat maps a file name to its format by extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".txt", ".text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Extract reads the whole document and returns its text. It fails with
// pipeline.ErrNoTextFound when the document has no non-whitespace text.
func Extract(filename string, r io.Reader) (string, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read document failed: %w", err)
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = ExtractPDF(b)
	case FormatMarkdown:
		text, err = ExtractMarkdown(b)
	default:
		text, err = ExtractPlain(b)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", pipeline.ErrNoTextFound
	}
	return text, nil
}
