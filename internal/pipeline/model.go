package pipeline

import "context"

// Embedder maps text to fixed-dimension vectors. Implementations must be
// deterministic for a given model version.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerResult is the validated output of an extractive QA model.
type AnswerResult struct {
	AnswerText string `json:"answer_text"`
}

// SummaryResult is the validated output of an abstractive summarization model.
type SummaryResult struct {
	SummaryText string `json:"summary_text"`
}

type AnswerModel interface {
	ExtractiveAnswer(ctx context.Context, question, context string) (AnswerResult, error)
}

// SummaryModel produces a summary of text bounded by minLen and maxLen model
// tokens.
type SummaryModel interface {
	AbstractiveSummarize(ctx context.Context, text string, minLen, maxLen int) (SummaryResult, error)
}

// VectorCache stores corpus vectors by key. Misses return ok=false and a nil
// error.
type VectorCache interface {
	GetVectors(ctx context.Context, key string) ([][]float32, bool, error)
	SetVectors(ctx context.Context, key string, vectors [][]float32) error
}
