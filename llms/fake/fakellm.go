package fake

import (
	"context"
	"errors"
	"sync"

	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/schema"
)

var ErrNoResponses = errors.New("fake: no responses configured")

// LLM replays canned responses in a cycle and records what it was sent.
type LLM struct {
	mu           sync.Mutex
	responses    []string
	index        int
	lastMessages []schema.MessageContent
	lastOptions  llms.CallOptions
	callCount    int
	err          error
}

var _ llms.Model = (*LLM)(nil)

func NewFakeLLM(responses []string) *LLM {
	return &LLM{responses: responses}
}

// GenerateContent returns the next response in the cycle. A configured
// streaming func receives the whole response as one chunk.
func (f *LLM) GenerateContent(ctx context.Context, messages []schema.MessageContent, options ...llms.CallOption) (*schema.ContentResponse, error) {
	f.mu.Lock()
	f.callCount++
	if f.err != nil {
		err := f.err
		f.mu.Unlock()
		return nil, err
	}
	if len(f.responses) == 0 {
		f.mu.Unlock()
		return nil, ErrNoResponses
	}
	f.lastMessages = append([]schema.MessageContent(nil), messages...)
	f.lastOptions = llms.ParseCallOptions(options...)
	response := f.responses[f.index]
	f.index = (f.index + 1) % len(f.responses)
	stream := f.lastOptions.StreamingFunc
	f.mu.Unlock()

	if stream != nil {
		if err := stream(ctx, []byte(response)); err != nil {
			return nil, err
		}
	}
	return &schema.ContentResponse{
		Choices: []*schema.ContentChoice{{Content: response}},
	}, nil
}

func (f *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

// Reset rewinds the cycle and forgets recorded calls and errors.
func (f *LLM) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.callCount = 0
	f.lastMessages = nil
	f.lastOptions = llms.CallOptions{}
	f.err = nil
}

func (f *LLM) AddResponse(response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response)
}

// SetError makes every following call fail with err. Pass nil to recover.
func (f *LLM) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// LastMessages returns the full conversation of the last successful call.
func (f *LLM) LastMessages() []schema.MessageContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]schema.MessageContent(nil), f.lastMessages...)
}

// LastPrompt returns the text of the final message of the last successful call.
func (f *LLM) LastPrompt() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lastMessages) == 0 {
		return "", false
	}
	return f.lastMessages[len(f.lastMessages)-1].GetTextContent(), true
}

// LastOptions returns the call options of the last successful call.
func (f *LLM) LastOptions() llms.CallOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOptions
}

func (f *LLM) GetCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}
