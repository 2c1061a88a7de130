package pipeline

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMinChunkLen  = 30
	DefaultSummaryWidth = 500
)

// Chunk is a retrieval unit. Index is its position in the document's chunk
// sequence.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// SplitRetrieval splits text on newlines and keeps the trimmed pieces longer
// than minLen characters, in document order.
func SplitRetrieval(text string, minLen int) []Chunk {
	var chunks []Chunk
	for _, line := range strings.Split(text, "\n") {
		piece := strings.TrimSpace(line)
		if piece == "" || utf8.RuneCountInString(piece) <= minLen {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: piece})
	}
	return chunks
}

// SplitForSummary wraps text into pieces of at most maxWidth characters.
// Words are separated by single spaces; a word that does not fit the remaining
// space of a line and is longer than maxWidth is split across lines.
func SplitForSummary(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = DefaultSummaryWidth
	}

	var (
		pieces []string
		line   []rune
	)
	flush := func() {
		if len(line) > 0 {
			pieces = append(pieces, string(line))
			line = line[:0]
		}
	}

	for _, field := range strings.Fields(text) {
		word := []rune(field)
		for len(word) > 0 {
			sep := 0
			if len(line) > 0 {
				sep = 1
			}
			if len(line)+sep+len(word) <= maxWidth {
				if sep == 1 {
					line = append(line, ' ')
				}
				line = append(line, word...)
				break
			}
			if len(word) <= maxWidth {
				flush()
				continue
			}
			space := maxWidth - len(line) - sep
			if space <= 0 {
				flush()
				continue
			}
			if sep == 1 {
				line = append(line, ' ')
			}
			line = append(line, word[:space]...)
			word = word[space:]
			flush()
		}
	}
	flush()
	return pieces
}
