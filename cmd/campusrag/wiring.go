package main

import (
	"context"
	"fmt"

	"github.com/sevigo/campusrag/chains"
	"github.com/sevigo/campusrag/embeddings"
	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/llms/gemini"
	"github.com/sevigo/campusrag/llms/ollama"
	"github.com/sevigo/campusrag/parsers"
	"github.com/sevigo/campusrag/parsers/pdf"
	"github.com/sevigo/campusrag/prompts"
	"github.com/sevigo/campusrag/store"
	"github.com/sevigo/campusrag/vectorstores"
	"github.com/sevigo/campusrag/vectorstores/qdrant"
)

const systemPromptName = "rag_system"

// provider is a model serving both generation and embeddings.
type provider interface {
	llms.Model
	embeddings.Embedder
}

func (a *app) provider(ctx context.Context) (provider, error) {
	c := a.cfg.LLM
	switch c.Provider {
	case "gemini":
		opts := []gemini.Option{
			gemini.WithModel(c.Model),
			gemini.WithAPIKey(c.APIKey),
			gemini.WithLogger(a.logger),
		}
		if c.EmbeddingModel != "" {
			opts = append(opts, gemini.WithEmbeddingModel(c.EmbeddingModel))
		}
		return gemini.New(ctx, opts...)
	default:
		return ollama.New(
			ollama.WithModel(c.Model),
			ollama.WithEmbeddingModel(c.EmbeddingModel),
			ollama.WithServerURL(c.ServerURL),
			ollama.WithLogger(a.logger),
		)
	}
}

func (a *app) registry() (parsers.ParserRegistry, error) {
	return parsers.RegisterPDFPlugins(a.logger, pdf.WithParserOptions(a.cfg.Parser))
}

func (a *app) openStore() (*store.Store, error) {
	s, err := store.New(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.cfg.Database.Path, err)
	}
	return s, nil
}

func (a *app) vectorStore(p provider) (*qdrant.Store, error) {
	embedder, err := embeddings.NewEmbedder(p)
	if err != nil {
		return nil, err
	}
	q := a.cfg.Qdrant
	return qdrant.New(
		qdrant.WithCollectionName(q.Collection),
		qdrant.WithHostAndPort(q.Host, q.Port),
		qdrant.WithAPIKey(q.APIKey),
		qdrant.WithTLS(q.UseTLS),
		qdrant.WithEmbedder(embedder),
		qdrant.WithLogger(a.logger),
	)
}

// chatEngine wires retrieval, generation and the configured system prompt.
// The returned cleanup closes the vector store connection.
func (a *app) chatEngine(ctx context.Context) (*chains.ChatEngine, func(), error) {
	p, err := a.provider(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create llm: %w", err)
	}
	vs, err := a.vectorStore(p)
	if err != nil {
		return nil, nil, fmt.Errorf("connect qdrant: %w", err)
	}

	opts := []chains.ChatOption{
		chains.WithMaxHistory(a.cfg.Retrieval.MaxHistory),
		chains.WithLogger(a.logger),
	}
	if a.cfg.LLM.Temperature > 0 {
		opts = append(opts, chains.WithCallOptions(llms.WithTemperature(a.cfg.LLM.Temperature)))
	}
	if a.cfg.PromptsFile != "" {
		prompt, err := prompts.Lookup(a.cfg.PromptsFile, systemPromptName)
		if err != nil {
			vs.Close()
			return nil, nil, err
		}
		opts = append(opts, chains.WithSystemPrompt(prompt))
	}

	r := a.cfg.Retrieval
	retriever := vectorstores.ToRetriever(vs, r.TopK, vectorstores.WithScoreThreshold(r.ScoreThreshold))
	engine, err := chains.NewChatEngine(retriever, p, opts...)
	if err != nil {
		vs.Close()
		return nil, nil, err
	}
	return engine, func() { vs.Close() }, nil
}
