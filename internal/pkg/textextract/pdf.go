package textextract

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF extracts plain text from a PDF page by page, one output line per
// text row. Pages without extractable text are skipped.
func ExtractPDF(b []byte) (text string, err error) {
	if len(b) == 0 {
		return "", nil
	}
	// the pdf reader panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf parse panic: %v", ErrMalformedDocument, r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf failed: %w", ErrMalformedDocument, err)
	}

	var out strings.Builder
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText := pageLines(page.Content().Text)
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		out.WriteString(pageText)
		out.WriteString("\n")
	}
	return out.String(), nil
}

// pageLines joins positioned glyphs in content-stream order. A baseline move
// of more than half the font size starts a new line; a horizontal gap wider
// than a fifth of the font size between glyphs becomes a space.
func pageLines(glyphs []pdf.Text) string {
	var b strings.Builder
	var prev *pdf.Text
	for i := range glyphs {
		g := &glyphs[i]
		if g.S == "" {
			continue
		}
		if prev != nil {
			size := math.Max(math.Max(prev.FontSize, g.FontSize), 2)
			switch {
			case math.Abs(g.Y-prev.Y) > size/2:
				b.WriteString("\n")
			case g.X-(prev.X+prev.W) > size/5 && !isSpace(prev.S) && !isSpace(g.S):
				b.WriteString(" ")
			}
		}
		b.WriteString(g.S)
		prev = g
	}
	return b.String()
}

func isSpace(s string) bool {
	return strings.TrimSpace(s) == ""
}
