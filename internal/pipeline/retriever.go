package pipeline

import (
	"context"
	"fmt"
	"math"
)

// Match is the chunk chosen for a query together with its similarity score.
type Match struct {
	Index int     `json:"index"`
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

type Retriever struct {
	embedder Embedder
}

func NewRetriever(embedder Embedder) *Retriever {
	return &Retriever{embedder: embedder}
}

// EmbedCorpus returns one vector per chunk, in chunk order.
func (r *Retriever) EmbedCorpus(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyCorpus
	}
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, modelError("embed corpus", -1, err)
	}
	if len(vectors) != len(chunks) {
		return nil, modelError("embed corpus", -1,
			fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}
	return vectors, nil
}

// FindBest embeds query and returns the chunk whose vector is most similar to
// it. Ties resolve to the earliest chunk.
func (r *Retriever) FindBest(ctx context.Context, query string, corpus [][]float32, chunks []Chunk) (Match, error) {
	if len(corpus) == 0 {
		return Match{}, ErrEmptyCorpus
	}
	if len(corpus) != len(chunks) {
		return Match{}, ErrCorpusMismatch
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return Match{}, modelError("embed query", -1, err)
	}

	best := Match{Index: -1}
	for i, vec := range corpus {
		if len(vec) != len(queryVec) {
			return Match{}, fmt.Errorf("chunk %d: %w", i, ErrDimensionMismatch)
		}
		score := CosineSimilarity(queryVec, vec)
		if best.Index < 0 || score > best.Score {
			best = Match{Index: i, Chunk: chunks[i], Score: score}
		}
	}
	return best, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, score))
}
