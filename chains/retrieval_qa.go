package chains

import (
	"context"
	"fmt"

	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/prompts"
	"github.com/sevigo/campusrag/schema"
)

// RetrievalQA answers one question without conversation memory.
type RetrievalQA struct {
	Retriever schema.Retriever
	LLM       llms.Model
	Prompt    prompts.PromptTemplate
}

func NewRetrievalQA(retriever schema.Retriever, llm llms.Model) RetrievalQA {
	return RetrievalQA{
		Retriever: retriever,
		LLM:       llm,
		Prompt:    prompts.DefaultRAGPrompt,
	}
}

// Call sends the bare query when nothing was retrieved.
func (c RetrievalQA) Call(ctx context.Context, query string) (string, error) {
	docs, err := c.Retriever.GetRelevantDocuments(ctx, query)
	if err != nil {
		return "", fmt.Errorf("document retrieval failed: %w", err)
	}

	if len(docs) == 0 {
		return c.LLM.Call(ctx, query)
	}

	prompt := c.Prompt.Format(map[string]string{
		"context": joinContext(docs),
		"query":   query,
	})

	return c.LLM.Call(ctx, prompt)
}
