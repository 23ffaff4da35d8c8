package chains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/prompts"
	"github.com/sevigo/campusrag/schema"
)

const (
	// DefaultTopK is the number of documents retrieved per question.
	DefaultTopK       = 3
	defaultMaxHistory = 10
)

var (
	ErrEmptyQuery   = errors.New("chains: query cannot be empty")
	ErrNilRetriever = errors.New("chains: retriever cannot be nil")
	ErrNilModel     = errors.New("chains: model cannot be nil")
)

// Answer is a generated reply and the origins of the context it used.
type Answer struct {
	Text    string   `json:"response"`
	Sources []string `json:"sources"`
}

// String renders the answer with its sources appended.
func (a Answer) String() string {
	return fmt.Sprintf("%s\nŹródła: [%s]", a.Text, strings.Join(a.Sources, ", "))
}

// ChatEngine runs retrieval-augmented chat with bounded conversation memory.
// It is safe for concurrent use; all callers share one memory.
type ChatEngine struct {
	retriever    schema.Retriever
	llm          llms.Model
	validator    llms.Model
	systemPrompt prompts.PromptTemplate
	maxHistory   int
	callOptions  []llms.CallOption
	logger       *slog.Logger

	mu      sync.Mutex
	history []schema.MessageContent
}

type ChatOption func(*ChatEngine)

func WithSystemPrompt(p prompts.PromptTemplate) ChatOption {
	return func(e *ChatEngine) {
		e.systemPrompt = p
	}
}

// WithMaxHistory bounds memory to n question/answer turns. Zero keeps none.
func WithMaxHistory(n int) ChatOption {
	return func(e *ChatEngine) {
		if n >= 0 {
			e.maxHistory = n
		}
	}
}

// WithValidator asks llm whether the retrieved context is relevant before
// generating. Irrelevant context is replaced by NoContext.
func WithValidator(llm llms.Model) ChatOption {
	return func(e *ChatEngine) {
		e.validator = llm
	}
}

func WithCallOptions(opts ...llms.CallOption) ChatOption {
	return func(e *ChatEngine) {
		e.callOptions = append(e.callOptions, opts...)
	}
}

func WithLogger(logger *slog.Logger) ChatOption {
	return func(e *ChatEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewChatEngine(retriever schema.Retriever, llm llms.Model, opts ...ChatOption) (*ChatEngine, error) {
	if retriever == nil {
		return nil, ErrNilRetriever
	}
	if llm == nil {
		return nil, ErrNilModel
	}
	e := &ChatEngine{
		retriever:    retriever,
		llm:          llm,
		systemPrompt: prompts.UniversitySystemPrompt,
		maxHistory:   defaultMaxHistory,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "chat_engine")
	return e, nil
}

// Chat answers query. Messages are sent as system prompt, then memory, then
// the query. The exchange is remembered only when generation succeeds.
func (e *ChatEngine) Chat(ctx context.Context, query string) (Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, ErrEmptyQuery
	}

	docs, err := e.retriever.GetRelevantDocuments(ctx, query)
	if err != nil {
		return Answer{}, fmt.Errorf("document retrieval failed: %w", err)
	}

	contextStr := joinContext(docs)
	if e.validator != nil && len(docs) > 0 {
		relevant, err := e.validate(ctx, query, contextStr)
		if err != nil {
			return Answer{}, fmt.Errorf("context validation failed: %w", err)
		}
		if !relevant {
			e.logger.Info("Retrieved context judged irrelevant", "doc_count", len(docs))
			contextStr = NoContext
		}
	}

	history := e.History()
	messages := make([]schema.MessageContent, 0, len(history)+2)
	messages = append(messages, schema.NewSystemMessage(e.systemPrompt.Format(map[string]string{"context": contextStr})))
	messages = append(messages, history...)
	messages = append(messages, schema.NewHumanMessage(query))

	e.logger.Debug("Generating answer", "doc_count", len(docs), "history", len(history))
	resp, err := e.llm.GenerateContent(ctx, messages, e.callOptions...)
	if err != nil {
		return Answer{}, fmt.Errorf("generation failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return Answer{}, fmt.Errorf("generation failed: %w", llms.ErrEmptyResponse)
	}
	text := resp.Choices[0].Content

	e.remember(query, text)

	sources := make([]string, len(docs))
	for i, doc := range docs {
		sources[i] = SourceOf(doc)
	}
	return Answer{Text: text, Sources: sources}, nil
}

// History returns a copy of the remembered messages, oldest first.
func (e *ChatEngine) History() []schema.MessageContent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]schema.MessageContent(nil), e.history...)
}

// Reset forgets the conversation.
func (e *ChatEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}

func (e *ChatEngine) remember(query, answer string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, schema.NewHumanMessage(query), schema.NewAIMessage(answer))
	if limit := 2 * e.maxHistory; len(e.history) > limit {
		e.history = append([]schema.MessageContent(nil), e.history[len(e.history)-limit:]...)
	}
}

func (e *ChatEngine) validate(ctx context.Context, query, contextStr string) (bool, error) {
	prompt := prompts.DefaultValidationPrompt.Format(map[string]string{
		"context": contextStr,
		"query":   query,
	})
	response, err := e.validator.Call(ctx, prompt)
	if err != nil {
		return false, err
	}
	e.logger.Debug("Validation completed", "response", response)
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "yes"), nil
}
