package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// letterEmbedder embeds text as its a-z letter histogram, with optional fixed
// vectors for specific inputs.
type letterEmbedder struct {
	mu         sync.Mutex
	fixed      map[string][]float32
	err        error
	embedCalls int
	batchCalls int
}

func (e *letterEmbedder) vector(text string) []float32 {
	if v, ok := e.fixed[text]; ok {
		return v
	}
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec
}

func (e *letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.embedCalls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *letterEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

type echoAnswerModel struct {
	answer   string
	err      error
	contexts []string
}

func (m *echoAnswerModel) ExtractiveAnswer(_ context.Context, _ string, context string) (AnswerResult, error) {
	m.contexts = append(m.contexts, context)
	if m.err != nil {
		return AnswerResult{}, m.err
	}
	return AnswerResult{AnswerText: m.answer}, nil
}

// prefixSummaryModel summarizes a chunk as its first word, failing on the
// chunk at failAt when set.
type prefixSummaryModel struct {
	calls  []string
	failAt int
	fixed  string
	minLen int
	maxLen int
}

var errSummaryDown = errors.New("summarizer unavailable")

func (m *prefixSummaryModel) AbstractiveSummarize(_ context.Context, text string, minLen, maxLen int) (SummaryResult, error) {
	m.calls = append(m.calls, text)
	m.minLen, m.maxLen = minLen, maxLen
	if m.failAt > 0 && len(m.calls) == m.failAt {
		return SummaryResult{}, errSummaryDown
	}
	if m.fixed != "" {
		return SummaryResult{SummaryText: m.fixed}, nil
	}
	return SummaryResult{SummaryText: strings.Fields(text)[0] + "."}, nil
}

type mapVectorCache struct {
	data   map[string][][]float32
	getErr error
	sets   int
}

func newMapVectorCache() *mapVectorCache {
	return &mapVectorCache{data: make(map[string][][]float32)}
}

func (c *mapVectorCache) GetVectors(_ context.Context, key string) ([][]float32, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapVectorCache) SetVectors(_ context.Context, key string, vectors [][]float32) error {
	c.sets++
	c.data[key] = vectors
	return nil
}
