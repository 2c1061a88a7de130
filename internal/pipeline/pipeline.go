package pipeline

import (
	"context"
	"log/slog"
	"strings"
)

// Options configures chunking, generation bounds and answer policy.
type Options struct {
	MinChunkLen      int
	SummaryWidth     int
	SummaryMinTokens int
	SummaryMaxTokens int

	// MinAnswerScore flags answers whose context scored below it. Zero
	// disables the check.
	MinAnswerScore float64
	// DedupeSummaries drops a chunk summary equal to the previous one.
	DedupeSummaries bool

	// CacheNamespace identifies the embedding model in vector cache keys.
	CacheNamespace string
	Cache          VectorCache
	Logger         *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		MinChunkLen:      DefaultMinChunkLen,
		SummaryWidth:     DefaultSummaryWidth,
		SummaryMinTokens: DefaultSummaryMinTokens,
		SummaryMaxTokens: DefaultSummaryMaxTokens,
	}
}

// Pipeline indexes documents and serves questions and summaries over them.
type Pipeline struct {
	retriever  *Retriever
	answerer   *Answerer
	summarizer *Summarizer
	opts       Options
	logger     *slog.Logger
}

func New(embedder Embedder, answers AnswerModel, summaries SummaryModel, opts Options) *Pipeline {
	if opts.SummaryWidth <= 0 {
		opts.SummaryWidth = DefaultSummaryWidth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		retriever:  NewRetriever(embedder),
		answerer:   NewAnswerer(answers),
		summarizer: NewSummarizer(summaries, opts.SummaryMinTokens, opts.SummaryMaxTokens),
		opts:       opts,
		logger:     logger,
	}
}

// Prepare chunks raw text into an Unindexed index.
func (p *Pipeline) Prepare(rawText string) (*Index, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrNoTextFound
	}
	chunks := SplitRetrieval(rawText, p.opts.MinChunkLen)
	if len(chunks) == 0 {
		return nil, ErrEmptyCorpus
	}
	return &Index{
		Hash:          HashText(rawText),
		RawText:       rawText,
		Chunks:        chunks,
		SummaryChunks: SplitForSummary(rawText, p.opts.SummaryWidth),
		State:         Unindexed,
	}, nil
}

// Build computes the corpus vectors of idx, consulting the vector cache first,
// and moves it to Ready.
func (p *Pipeline) Build(ctx context.Context, idx *Index) error {
	if idx.State != Unindexed {
		return nil
	}

	vectors, ok := p.cachedVectors(ctx, idx)
	if !ok {
		var err error
		vectors, err = p.retriever.EmbedCorpus(ctx, idx.Chunks)
		if err != nil {
			return err
		}
		p.storeVectors(ctx, idx, vectors)
	}
	idx.Vectors = vectors
	idx.State = Indexed

	p.logger.Debug("document indexed",
		"hash", idx.Hash,
		"chunks", len(idx.Chunks),
		"summary_chunks", len(idx.SummaryChunks),
		"cached", ok,
	)
	idx.State = Ready
	return nil
}

// Index prepares and builds rawText in one step.
func (p *Pipeline) Index(ctx context.Context, rawText string) (*Index, error) {
	idx, err := p.Prepare(rawText)
	if err != nil {
		return nil, err
	}
	if err := p.Build(ctx, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Ask answers question from the best matching chunk of a Ready index.
func (p *Pipeline) Ask(ctx context.Context, idx *Index, question string) (Answer, error) {
	if idx == nil || idx.State != Ready {
		return Answer{}, ErrIndexNotReady
	}
	match, err := p.retriever.FindBest(ctx, question, idx.Vectors, idx.Chunks)
	if err != nil {
		return Answer{}, err
	}
	answer, err := p.answerer.Answer(ctx, question, match.Chunk)
	if err != nil {
		return Answer{}, err
	}
	answer.Score = match.Score
	if p.opts.MinAnswerScore > 0 && match.Score < p.opts.MinAnswerScore {
		answer.LowConfidence = true
	}
	return answer, nil
}

// Summarize summarizes every summary chunk of idx and aggregates the result.
// A successful summary is memoized on idx.
func (p *Pipeline) Summarize(ctx context.Context, idx *Index) (Summary, error) {
	if idx == nil {
		return Summary{}, ErrIndexNotReady
	}
	if s, ok := idx.cachedSummary(); ok {
		return s, nil
	}

	parts, err := p.summarizer.SummarizeAll(ctx, idx.SummaryChunks)
	if err != nil {
		return Summary{}, err
	}
	joined := parts
	if p.opts.DedupeSummaries {
		joined = dropRepeats(parts)
	}
	summary := Summary{Parts: parts, Text: Aggregate(joined)}
	idx.storeSummary(summary)
	return summary, nil
}

func (p *Pipeline) cacheKey(idx *Index) string {
	return p.opts.CacheNamespace + ":" + idx.Hash
}

func (p *Pipeline) cachedVectors(ctx context.Context, idx *Index) ([][]float32, bool) {
	if p.opts.Cache == nil {
		return nil, false
	}
	vectors, ok, err := p.opts.Cache.GetVectors(ctx, p.cacheKey(idx))
	if err != nil {
		p.logger.Warn("vector cache read failed", "hash", idx.Hash, "error", err)
		return nil, false
	}
	if !ok || len(vectors) != len(idx.Chunks) {
		return nil, false
	}
	return vectors, true
}

func (p *Pipeline) storeVectors(ctx context.Context, idx *Index, vectors [][]float32) {
	if p.opts.Cache == nil {
		return
	}
	if err := p.opts.Cache.SetVectors(ctx, p.cacheKey(idx), vectors); err != nil {
		p.logger.Warn("vector cache write failed", "hash", idx.Hash, "error", err)
	}
}
