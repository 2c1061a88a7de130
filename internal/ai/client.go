package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultEmbeddingBatchSize = 10 // DashScope and similar APIs often limit batch size
	defaultAnswerMaxTokens    = 128
	defaultTimeout            = 90 * time.Second
)

var (
	ErrEmptyInput    = errors.New("model input is empty")
	ErrEmptyChoices  = errors.New("empty llm choices")
	ErrEmptySummary  = errors.New("model returned an empty summary")
	ErrEmbeddingSize = errors.New("embedding count mismatch")
)

// Config holds settings for an OpenAI-compatible endpoint serving both
// embeddings and chat completions.
type Config struct {
	BaseURL            string
	APIKey             string
	EmbeddingModel     string
	ChatModel          string
	EmbeddingBatchSize int
	AnswerMaxTokens    int
	Timeout            time.Duration
	// MaxRetryElapsed bounds retries of rate-limited or failed calls.
	MaxRetryElapsed time.Duration
}

// Client implements the embedding, extractive QA and summarization contracts
// on top of one OpenAI-compatible API.
type Client struct {
	api        openai.Client
	cfg        Config
	newBackOff func() backoff.BackOff
}

func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = defaultEmbeddingBatchSize
	}
	if cfg.AnswerMaxTokens <= 0 {
		cfg.AnswerMaxTokens = defaultAnswerMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetryElapsed <= 0 {
		cfg.MaxRetryElapsed = 30 * time.Second
	}

	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	c := &Client{
		api: openai.NewClient(append(base, opts...)...),
		cfg: cfg,
	}
	c.newBackOff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		b.MaxInterval = 10 * time.Second
		b.MaxElapsedTime = c.cfg.MaxRetryElapsed
		return b
	}
	return c
}

// EmbeddingModel names the embedding model, used to namespace cached vectors.
func (c *Client) EmbeddingModel() string {
	return c.cfg.EmbeddingModel
}

// retry runs op until it succeeds, fails permanently, or the backoff gives up.
// Only rate limits and server errors are retried.
func (c *Client) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(c.newBackOff(), ctx))
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}
