package llms

import (
	"context"
	"errors"

	"github.com/sevigo/campusrag/schema"
)

var ErrEmptyResponse = errors.New("empty response from model")

// Model is a chat-capable language model.
type Model interface {
	GenerateContent(ctx context.Context, messages []schema.MessageContent, options ...CallOption) (*schema.ContentResponse, error)
	Call(ctx context.Context, prompt string, options ...CallOption) (string, error)
}

// GenerateFromSinglePrompt sends prompt as one human message and returns the
// first choice.
func GenerateFromSinglePrompt(ctx context.Context, llm Model, prompt string, options ...CallOption) (string, error) {
	resp, err := llm.GenerateContent(ctx, []schema.MessageContent{schema.NewHumanMessage(prompt)}, options...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
