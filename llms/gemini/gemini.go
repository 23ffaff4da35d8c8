package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/iterator"
	"google.golang.org/genai"

	"github.com/sevigo/campusrag/embeddings"
	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/schema"
)

var (
	ErrNoAPIKey      = errors.New("gemini: API key is required")
	ErrInvalidModel  = errors.New("gemini: invalid model specified")
	ErrNoContent     = errors.New("gemini: no content generated")
	ErrNoMessages    = errors.New("gemini: no messages to send")
	ErrSystemMessage = errors.New("gemini: system message must be the first message in the conversation")
	ErrEmbeddings    = errors.New("gemini: failed to generate embeddings")
)

// LLM serves chat generation and embeddings from the Gemini API.
type LLM struct {
	client  *genai.Client
	options options
	logger  *slog.Logger

	mu        sync.Mutex
	dimension int
}

var (
	_ llms.Model          = (*LLM)(nil)
	_ embeddings.Embedder = (*LLM)(nil)
)

// New creates a Gemini client. Without WithAPIKey the key is read from
// GEMINI_API_KEY.
func New(ctx context.Context, opts ...Option) (*LLM, error) {
	o := applyOptions(opts...)

	if o.apiKey == "" {
		o.apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if o.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if o.model == "" || o.embeddingModel == "" {
		return nil, ErrInvalidModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: o.apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	llm := &LLM{
		client:  client,
		options: o,
		logger:  o.logger.With("component", "gemini_llm", "model", o.model),
	}
	llm.logger.Info("Gemini LLM initialized", "embedding_model", o.embeddingModel)
	return llm, nil
}

func (g *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g, prompt, options...)
}

// GenerateContent sends the conversation and returns a single choice. A
// leading system message becomes the system instruction.
func (g *LLM) GenerateContent(ctx context.Context, messages []schema.MessageContent, options ...llms.CallOption) (*schema.ContentResponse, error) {
	callOpts := llms.ParseCallOptions(options...)
	model := g.options.model
	if callOpts.Model != "" {
		model = callOpts.Model
	}

	contents, system, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, ErrNoMessages
	}

	cfg := &genai.GenerateContentConfig{SystemInstruction: system}
	if callOpts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(callOpts.Temperature))
	}

	start := time.Now()
	if callOpts.StreamingFunc == nil {
		resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			g.logger.ErrorContext(ctx, "Gemini request failed", "error", err, "duration", time.Since(start))
			return nil, err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return nil, ErrNoContent
		}
		return g.response(model, responseText(resp), string(resp.Candidates[0].FinishReason), resp, time.Since(start)), nil
	}

	var (
		full strings.Builder
		last *genai.GenerateContentResponse
	)
	for resp, err := range g.client.Models.GenerateContentStream(ctx, model, contents, cfg) {
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			g.logger.ErrorContext(ctx, "Gemini stream failed", "error", err)
			return nil, err
		}
		last = resp
		chunk := responseText(resp)
		full.WriteString(chunk)
		if err := callOpts.StreamingFunc(ctx, []byte(chunk)); err != nil {
			return nil, fmt.Errorf("streaming function returned an error: %w", err)
		}
	}
	return g.response(model, full.String(), "", last, time.Since(start)), nil
}

func (g *LLM) response(model, content, stop string, resp *genai.GenerateContentResponse, d time.Duration) *schema.ContentResponse {
	var tokens int32
	if resp != nil && resp.UsageMetadata != nil {
		tokens = resp.UsageMetadata.TotalTokenCount
	}
	g.logger.Debug("Gemini response", "tokens", tokens, "duration", d)
	return &schema.ContentResponse{
		Choices: []*schema.ContentChoice{{
			Content:    content,
			StopReason: stop,
			GenerationInfo: map[string]any{
				"TotalTokens": tokens,
				"Duration":    d,
				"Model":       model,
			},
		}},
	}
}

func (g *LLM) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return g.embed(ctx, texts)
}

func (g *LLM) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (g *LLM) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	res, err := g.client.Models.EmbedContent(ctx, g.options.embeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddings, err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddings, len(texts), len(res.Embeddings))
	}

	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at %d", ErrEmbeddings, i)
		}
		out[i] = e.Values
	}
	return out, nil
}

// GetDimension embeds a probe text once and caches its length.
func (g *LLM) GetDimension(ctx context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dimension > 0 {
		return g.dimension, nil
	}
	vec, err := g.EmbedQuery(ctx, "dimension")
	if err != nil {
		return 0, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	g.dimension = len(vec)
	return g.dimension, nil
}

func toGeminiContents(messages []schema.MessageContent) ([]*genai.Content, *genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	var system *genai.Content

	for i, msg := range messages {
		if msg.Role == schema.ChatMessageTypeSystem {
			if i != 0 {
				return nil, nil, ErrSystemMessage
			}
			system = genai.NewContentFromText(msg.GetTextContent(), genai.RoleUser)
			continue
		}

		role := genai.Role(genai.RoleUser)
		if msg.Role == schema.ChatMessageTypeAI {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			tc, ok := p.(schema.TextContent)
			if !ok {
				return nil, nil, fmt.Errorf("unsupported content part type: %T", p)
			}
			parts = append(parts, genai.NewPartFromText(tc.Text))
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents, system, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String()
}
