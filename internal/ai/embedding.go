package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input: %w", ErrEmptyInput)
	}
	vectors, err := c.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding per text, in input order. Texts are sent
// in batches of the configured size.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("embedding input %d: %w", i, ErrEmptyInput)
		}
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += c.cfg.EmbeddingBatchSize {
		end := min(i+c.cfg.EmbeddingBatchSize, len(texts))
		batch, err := c.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, batch...)
	}
	return all, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := c.retry(ctx, func() error {
		resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d for %d inputs", ErrEmbeddingSize, len(resp.Data), len(texts))
		}

		vectors = make([][]float32, len(texts))
		for i, d := range resp.Data {
			pos := int(d.Index)
			if pos < 0 || pos >= len(texts) || vectors[pos] != nil {
				pos = i
			}
			if len(d.Embedding) == 0 {
				return fmt.Errorf("empty embedding at index %d", pos)
			}
			vectors[pos] = toFloat32(d.Embedding)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	return vectors, nil
}

// toFloat32 converts the API's float64 vectors to the float32 corpus format.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
