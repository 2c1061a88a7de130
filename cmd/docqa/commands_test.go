package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/pipeline"
)

const notes = "The launch was moved to the first week of March.\n" +
	"Budget approval is still pending from the finance team.\n"

type countingEmbedder struct {
	batches int
}

func (e *countingEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "launch")),
		float32(strings.Count(lower, "budget")),
		1,
	}
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.batches++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

type firstWords struct{}

func (firstWords) ExtractiveAnswer(_ context.Context, _ string, passage string) (pipeline.AnswerResult, error) {
	return pipeline.AnswerResult{AnswerText: strings.Join(strings.Fields(passage)[:2], " ")}, nil
}

func (firstWords) AbstractiveSummarize(_ context.Context, text string, _, _ int) (pipeline.SummaryResult, error) {
	return pipeline.SummaryResult{SummaryText: strings.Fields(text)[0] + "."}, nil
}

func runCLI(t *testing.T, embedder *countingEmbedder, args ...string) (string, error) {
	t.Helper()
	factory := func(cfg *config.Config, vectors pipeline.VectorCache, log *slog.Logger) engine {
		opts := pipeline.DefaultOptions()
		opts.MinChunkLen = cfg.Pipeline.MinChunkLen
		opts.Cache = vectors
		opts.CacheNamespace = "test"
		opts.Logger = log
		return pipeline.New(embedder, firstWords{}, firstWords{}, opts)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd(factory)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSummarize_DoesNotEmbed(t *testing.T) {
	embedder := &countingEmbedder{}
	doc := writeDoc(t, "notes.txt", notes)

	out, err := runCLI(t, embedder, "summarize", doc)

	require.NoError(t, err)
	assert.Equal(t, "The.\n", out)
	assert.Zero(t, embedder.batches)
}

func TestAsk_PrintsAnswerAndContext(t *testing.T) {
	embedder := &countingEmbedder{}
	doc := writeDoc(t, "notes.txt", notes)

	out, err := runCLI(t, embedder, "ask", doc, "what", "about", "the", "budget?")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer: Budget approval\n")
	assert.Contains(t, out, "Context [1, score 1.000]: Budget approval is still pending from the finance team.")
}

func TestAsk_JSON(t *testing.T) {
	embedder := &countingEmbedder{}
	doc := writeDoc(t, "notes.txt", notes)

	out, err := runCLI(t, embedder, "--json", "ask", doc, "launch date")
	require.NoError(t, err)

	var answer pipeline.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &answer))
	assert.Equal(t, "The launch", answer.Text)
	assert.Equal(t, 0, answer.Context.Index)
}

func TestAsk_UsesVectorCache(t *testing.T) {
	embedder := &countingEmbedder{}
	doc := writeDoc(t, "notes.txt", notes)
	cacheDir := t.TempDir()

	_, err := runCLI(t, embedder, "--cache-dir", cacheDir, "ask", doc, "launch")
	require.NoError(t, err)
	_, err = runCLI(t, embedder, "--cache-dir", cacheDir, "ask", doc, "budget")
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.batches)
}

func TestErrors(t *testing.T) {
	embedder := &countingEmbedder{}

	_, err := runCLI(t, embedder, "summarize", writeDoc(t, "blank.txt", "  \n "))
	assert.ErrorIs(t, err, pipeline.ErrNoTextFound)

	_, err = runCLI(t, embedder, "ask", writeDoc(t, "short.txt", "too short\n"), "anything")
	assert.ErrorIs(t, err, pipeline.ErrEmptyCorpus)

	_, err = runCLI(t, embedder, "summarize", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = runCLI(t, embedder, "ask", writeDoc(t, "notes.txt", notes))
	assert.Error(t, err)
}
