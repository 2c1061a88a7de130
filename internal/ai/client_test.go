package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/pipeline"
)

// fakeProvider is a minimal OpenAI-compatible endpoint.
type fakeProvider struct {
	mu            sync.Mutex
	embedRequests [][]string
	chatRequests  []map[string]any
	chatReply     string
	noChoices     bool
	failFirst     int
	failStatus    int
	calls         int
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.calls <= p.failFirst {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(p.failStatus)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/v1/embeddings":
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.embedRequests = append(p.embedRequests, req.Input)
		data := make([]map[string]any, len(req.Input))
		for i, in := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(in)), 1},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	case "/v1/chat/completions":
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.chatRequests = append(p.chatRequests, req)
		choices := []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": p.chatReply},
		}}
		if p.noChoices {
			choices = []map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req["model"],
			"choices": choices,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, provider *fakeProvider, batchSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:            srv.URL + "/v1",
		APIKey:             "sk-test",
		EmbeddingModel:     "embed-small",
		ChatModel:          "chat-small",
		EmbeddingBatchSize: batchSize,
		Timeout:            5 * time.Second,
	})
	c.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
	}
	return c
}

func TestEmbedBatch_SplitsIntoBatchesAndKeepsOrder(t *testing.T) {
	provider := &fakeProvider{}
	c := newTestClient(t, provider, 2)

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})

	require.NoError(t, err)
	require.Len(t, vectors, 5)
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i + 1), 1}, v)
	}
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc", "dddd"}, {"eeeee"}}, provider.embedRequests)
}

func TestEmbed_RejectsEmptyText(t *testing.T) {
	provider := &fakeProvider{}
	c := newTestClient(t, provider, 0)

	_, err := c.Embed(context.Background(), "  ")

	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, provider.calls)
}

func TestEmbed_RetriesRateLimits(t *testing.T) {
	provider := &fakeProvider{failFirst: 2, failStatus: http.StatusTooManyRequests}
	c := newTestClient(t, provider, 0)

	vec, err := c.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vec)
	assert.Equal(t, 3, provider.calls)
}

func TestEmbed_DoesNotRetryClientErrors(t *testing.T) {
	provider := &fakeProvider{failFirst: 5, failStatus: http.StatusUnauthorized}
	c := newTestClient(t, provider, 0)

	_, err := c.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestExtractiveAnswer_ReturnsTrimmedSpan(t *testing.T) {
	provider := &fakeProvider{chatReply: "  twelve percent \n"}
	c := newTestClient(t, provider, 0)

	result, err := c.ExtractiveAnswer(context.Background(), "How much did revenue grow?", "Revenue grew by twelve percent.")

	require.NoError(t, err)
	assert.Equal(t, pipeline.AnswerResult{AnswerText: "twelve percent"}, result)
	require.Len(t, provider.chatRequests, 1)
	req := provider.chatRequests[0]
	assert.Equal(t, "chat-small", req["model"])
	assert.EqualValues(t, defaultAnswerMaxTokens, req["max_tokens"])
}

func TestExtractiveAnswer_EmptySpanIsValid(t *testing.T) {
	c := newTestClient(t, &fakeProvider{chatReply: ""}, 0)

	result, err := c.ExtractiveAnswer(context.Background(), "Who?", "Some context.")

	require.NoError(t, err)
	assert.Empty(t, result.AnswerText)
}

func TestExtractiveAnswer_NoChoicesIsAnError(t *testing.T) {
	c := newTestClient(t, &fakeProvider{noChoices: true}, 0)

	_, err := c.ExtractiveAnswer(context.Background(), "Who?", "Some context.")

	assert.ErrorIs(t, err, ErrEmptyChoices)
}

func TestAbstractiveSummarize_BoundsAndValidation(t *testing.T) {
	provider := &fakeProvider{chatReply: "A short summary."}
	c := newTestClient(t, provider, 0)

	result, err := c.AbstractiveSummarize(context.Background(), "Long text to summarize.", 30, 150)

	require.NoError(t, err)
	assert.Equal(t, "A short summary.", result.SummaryText)
	require.Len(t, provider.chatRequests, 1)
	assert.EqualValues(t, 150, provider.chatRequests[0]["max_tokens"])

	provider.chatReply = "   "
	_, err = c.AbstractiveSummarize(context.Background(), "Long text to summarize.", 30, 150)
	assert.ErrorIs(t, err, ErrEmptySummary)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(errors.New("plain")))
	assert.False(t, isRetryable(nil))
}
