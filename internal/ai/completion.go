package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"docqa/internal/pipeline"
)

const (
	extractiveSystemPrompt = "You answer questions by extraction. Reply with the shortest span of the context " +
		"that answers the question, copied verbatim. Reply with nothing else. If the context does not " +
		"contain the answer, reply with an empty message."
	summarySystemPrompt = "You write concise abstractive summaries. Reply with the summary only."
)

// ExtractiveAnswer asks the chat model for the span of passage answering
// question. An empty span is a valid result.
func (c *Client) ExtractiveAnswer(ctx context.Context, question, passage string) (pipeline.AnswerResult, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(passage) == "" {
		return pipeline.AnswerResult{}, fmt.Errorf("answer input: %w", ErrEmptyInput)
	}
	user := "Context:\n" + passage + "\n\nQuestion: " + question + "\n\nAnswer:"
	content, err := c.complete(ctx, extractiveSystemPrompt, user, c.cfg.AnswerMaxTokens)
	if err != nil {
		return pipeline.AnswerResult{}, err
	}
	return pipeline.AnswerResult{AnswerText: strings.TrimSpace(content)}, nil
}

// AbstractiveSummarize summarizes text within minLen and maxLen tokens. The
// upper bound is enforced through max_tokens, the lower one through the prompt.
func (c *Client) AbstractiveSummarize(ctx context.Context, text string, minLen, maxLen int) (pipeline.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return pipeline.SummaryResult{}, fmt.Errorf("summary input: %w", ErrEmptyInput)
	}
	user := fmt.Sprintf("Summarize the following text in at least %d and at most %d tokens.\n\nText:\n%s",
		minLen, maxLen, text)
	content, err := c.complete(ctx, summarySystemPrompt, user, maxLen)
	if err != nil {
		return pipeline.SummaryResult{}, err
	}
	summary := strings.TrimSpace(content)
	if summary == "" {
		return pipeline.SummaryResult{}, ErrEmptySummary
	}
	return pipeline.SummaryResult{SummaryText: summary}, nil
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.ChatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	var content string
	err := c.retry(ctx, func() error {
		resp, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyChoices
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	return content, nil
}
