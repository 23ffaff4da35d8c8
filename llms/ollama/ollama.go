package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/sevigo/campusrag/embeddings"
	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/schema"
)

var (
	ErrEmptyResponse       = errors.New("ollama: empty response received")
	ErrIncompleteEmbedding = errors.New("ollama: not all input texts were embedded")
	ErrModelNotFound       = errors.New("ollama: model not found")
	ErrInvalidModel        = errors.New("ollama: invalid model specified")
)

// LLM talks to a local Ollama server for chat and embeddings.
type LLM struct {
	client  *api.Client
	options options
	logger  *slog.Logger

	readyOnce sync.Once
	readyErr  error
	dimension int
	dimMu     sync.Mutex
}

var (
	_ llms.Model          = (*LLM)(nil)
	_ embeddings.Embedder = (*LLM)(nil)
)

// New creates the adapter. No request is made until the first call.
func New(opts ...Option) (*LLM, error) {
	o := applyOptions(opts...)
	if o.model == "" {
		return nil, ErrInvalidModel
	}

	var client *api.Client
	if o.serverURL != nil {
		client = api.NewClient(o.serverURL, o.httpClient)
	} else {
		var err error
		if client, err = api.ClientFromEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	llm := &LLM{
		client:  client,
		options: o,
		logger:  o.logger.With("component", "ollama_llm", "model", o.model),
	}
	llm.logger.Info("Ollama LLM initialized", "embedding_model", o.embeddingModel)
	return llm, nil
}

func (o *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, o, prompt, options...)
}

// GenerateContent sends the conversation to /api/chat. With a streaming func
// set, every delta is forwarded as it arrives.
func (o *LLM) GenerateContent(
	ctx context.Context,
	messages []schema.MessageContent,
	options ...llms.CallOption,
) (*schema.ContentResponse, error) {
	opts := llms.ParseCallOptions(options...)
	model := o.options.model
	if opts.Model != "" {
		model = opts.Model
	}

	chatMsgs, err := toOllamaMessages(messages)
	if err != nil {
		return nil, err
	}

	stream := opts.StreamingFunc != nil
	req := &api.ChatRequest{
		Model:    model,
		Messages: chatMsgs,
		Stream:   &stream,
	}
	if opts.Temperature > 0 {
		req.Options = map[string]any{"temperature": opts.Temperature}
	}

	start := time.Now()
	var (
		full  strings.Builder
		final api.ChatResponse
	)
	err = o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		full.WriteString(resp.Message.Content)
		if opts.StreamingFunc != nil && resp.Message.Content != "" {
			if err := opts.StreamingFunc(ctx, []byte(resp.Message.Content)); err != nil {
				return fmt.Errorf("streaming function returned an error: %w", err)
			}
		}
		if resp.Done {
			final = resp
		}
		return nil
	})
	duration := time.Since(start)
	if err != nil {
		o.logger.ErrorContext(ctx, "Ollama chat failed", "error", err, "duration", duration)
		return nil, wrapStatus(err)
	}
	if full.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	o.logger.DebugContext(ctx, "Chat completed", "duration", duration, "eval_count", final.EvalCount)
	return &schema.ContentResponse{
		Choices: []*schema.ContentChoice{{
			Content:    full.String(),
			StopReason: final.DoneReason,
			GenerationInfo: map[string]any{
				"CompletionTokens": final.EvalCount,
				"PromptTokens":     final.PromptEvalCount,
				"TotalTokens":      final.EvalCount + final.PromptEvalCount,
				"Duration":         duration,
				"Model":            model,
			},
		}},
	}, nil
}

func toOllamaMessages(messages []schema.MessageContent) ([]api.Message, error) {
	out := make([]api.Message, 0, len(messages))
	for _, mc := range messages {
		var parts []string
		for _, p := range mc.Parts {
			tc, ok := p.(schema.TextContent)
			if !ok {
				return nil, fmt.Errorf("unsupported content part type: %T", p)
			}
			parts = append(parts, tc.Text)
		}
		out = append(out, api.Message{Role: roleOf(mc.Role), Content: strings.Join(parts, "\n")})
	}
	return out, nil
}

func roleOf(typ schema.ChatMessageType) string {
	switch typ {
	case schema.ChatMessageTypeSystem:
		return "system"
	case schema.ChatMessageTypeAI:
		return "assistant"
	default:
		return "user"
	}
}

// EmbedDocuments embeds texts with one /api/embed request.
func (o *LLM) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := o.ensureEmbeddingModel(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := o.client.Embed(ctx, &api.EmbedRequest{Model: o.options.embeddingModel, Input: texts})
	if err != nil {
		o.logger.ErrorContext(ctx, "Embedding request failed", "error", err, "texts", len(texts))
		return nil, fmt.Errorf("embedding generation failed: %w", wrapStatus(err))
	}
	if len(resp.Embeddings) != len(texts) {
		o.logger.ErrorContext(ctx, "Embedding count mismatch", "expected", len(texts), "got", len(resp.Embeddings))
		return nil, ErrIncompleteEmbedding
	}

	o.logger.DebugContext(ctx, "Embedded batch", "texts", len(texts), "duration", time.Since(start))
	return resp.Embeddings, nil
}

func (o *LLM) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs[0]) == 0 {
		return nil, ErrEmptyResponse
	}
	return vecs[0], nil
}

// GetDimension embeds a probe text once and caches the vector length.
func (o *LLM) GetDimension(ctx context.Context) (int, error) {
	o.dimMu.Lock()
	defer o.dimMu.Unlock()
	if o.dimension > 0 {
		return o.dimension, nil
	}

	vec, err := o.EmbedQuery(ctx, "dimension probe")
	if err != nil {
		return 0, fmt.Errorf("failed to get embedding dimension: %w", err)
	}
	o.dimension = len(vec)
	return o.dimension, nil
}

func (o *LLM) ensureEmbeddingModel(ctx context.Context) error {
	o.readyOnce.Do(func() {
		if !o.options.pullMissing {
			return
		}
		o.readyErr = o.EnsureModel(ctx, o.options.embeddingModel)
	})
	return o.readyErr
}

// EnsureModel pulls model when the server does not have it yet.
func (o *LLM) EnsureModel(ctx context.Context, model string) error {
	_, err := o.client.Show(ctx, &api.ShowRequest{Model: model})
	if err == nil {
		return nil
	}
	if !errors.Is(wrapStatus(err), ErrModelNotFound) {
		return fmt.Errorf("model existence check failed: %w", err)
	}

	o.logger.InfoContext(ctx, "Model not found locally, pulling", "pull_model", model)
	start := time.Now()
	err = o.client.Pull(ctx, &api.PullRequest{Model: model}, func(p api.ProgressResponse) error {
		if p.Total > 0 {
			o.logger.DebugContext(ctx, "Model pull progress",
				"status", p.Status,
				"percent", fmt.Sprintf("%.1f%%", float64(p.Completed)/float64(p.Total)*100))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("model pull failed: %w", err)
	}
	o.logger.InfoContext(ctx, "Model pull completed", "pull_model", model, "duration", time.Since(start))
	return nil
}

// ModelDetails describes the chat model.
func (o *LLM) ModelDetails(ctx context.Context) (*schema.ModelDetails, error) {
	resp, err := o.client.Show(ctx, &api.ShowRequest{Model: o.options.model})
	if err != nil {
		return nil, wrapStatus(err)
	}
	return &schema.ModelDetails{
		Family:        resp.Details.Family,
		ParameterSize: resp.Details.ParameterSize,
		Quantization:  resp.Details.QuantizationLevel,
	}, nil
}

func wrapStatus(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrModelNotFound, statusErr.ErrorMessage)
	}
	return err
}
