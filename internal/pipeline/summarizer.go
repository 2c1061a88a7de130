package pipeline

import (
	"context"
	"strings"
)

const (
	DefaultSummaryMinTokens = 30
	DefaultSummaryMaxTokens = 150
)

// Summary holds the per-chunk summaries and their aggregate.
type Summary struct {
	Parts []string `json:"parts"`
	Text  string   `json:"text"`
}

type Summarizer struct {
	model  SummaryModel
	minLen int
	maxLen int
}

func NewSummarizer(model SummaryModel, minLen, maxLen int) *Summarizer {
	if minLen <= 0 {
		minLen = DefaultSummaryMinTokens
	}
	if maxLen <= 0 {
		maxLen = DefaultSummaryMaxTokens
	}
	if minLen > maxLen {
		minLen = maxLen
	}
	return &Summarizer{model: model, minLen: minLen, maxLen: maxLen}
}

// SummarizeOne summarizes a single chunk with no context from other chunks.
func (s *Summarizer) SummarizeOne(ctx context.Context, chunk string) (string, error) {
	result, err := s.model.AbstractiveSummarize(ctx, chunk, s.minLen, s.maxLen)
	if err != nil {
		return "", err
	}
	return result.SummaryText, nil
}

// SummarizeAll summarizes chunks in order and stops at the first failure.
func (s *Summarizer) SummarizeAll(ctx context.Context, chunks []string) ([]string, error) {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		part, err := s.SummarizeOne(ctx, chunk)
		if err != nil {
			return nil, modelError("summarize", i, err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// Aggregate joins per-chunk summaries with a single space, in order.
func Aggregate(summaries []string) string {
	return strings.Join(summaries, " ")
}

// dropRepeats removes summaries identical to their predecessor.
func dropRepeats(summaries []string) []string {
	out := make([]string, 0, len(summaries))
	for i, s := range summaries {
		if i > 0 && s == summaries[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
