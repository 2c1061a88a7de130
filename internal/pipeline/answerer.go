package pipeline

import "context"

// Answer is an extracted answer and the chunk it was extracted from.
type Answer struct {
	Text          string  `json:"text"`
	Context       Chunk   `json:"context"`
	Score         float64 `json:"score"`
	LowConfidence bool    `json:"low_confidence"`
}

type Answerer struct {
	model AnswerModel
}

func NewAnswerer(model AnswerModel) *Answerer {
	return &Answerer{model: model}
}

// Answer asks the model to extract an answer to question from context alone.
// Empty answers are returned as-is.
func (a *Answerer) Answer(ctx context.Context, question string, context Chunk) (Answer, error) {
	result, err := a.model.ExtractiveAnswer(ctx, question, context.Text)
	if err != nil {
		return Answer{}, modelError("answer", -1, err)
	}
	return Answer{Text: result.AnswerText, Context: context}, nil
}
