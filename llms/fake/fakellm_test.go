package fake_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/llms/fake"
	"github.com/sevigo/campusrag/schema"
)

func TestLLMCyclesResponses(t *testing.T) {
	ctx := context.Background()
	llm := fake.NewFakeLLM([]string{"pierwsza", "druga"})

	for _, want := range []string{"pierwsza", "druga", "pierwsza"} {
		got, err := llm.Call(ctx, "pytanie")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, llm.GetCallCount())

	llm.Reset()
	llm.AddResponse("trzecia")
	got, err := llm.Call(ctx, "pytanie")
	require.NoError(t, err)
	assert.Equal(t, "pierwsza", got)
	assert.Equal(t, 1, llm.GetCallCount())
}

func TestLLMWithoutResponses(t *testing.T) {
	_, err := fake.NewFakeLLM(nil).Call(context.Background(), "x")
	assert.ErrorIs(t, err, fake.ErrNoResponses)
}

func TestLLMRecordsConversation(t *testing.T) {
	ctx := context.Background()
	llm := fake.NewFakeLLM([]string{"Sesja zaczyna się 3 lutego."})

	_, ok := llm.LastPrompt()
	assert.False(t, ok)

	msgs := []schema.MessageContent{
		schema.NewSystemMessage("Kontekst"),
		schema.NewHumanMessage("Kiedy jest sesja?"),
	}
	_, err := llm.GenerateContent(ctx, msgs, llms.WithTemperature(0.2))
	require.NoError(t, err)

	assert.Equal(t, msgs, llm.LastMessages())
	prompt, ok := llm.LastPrompt()
	assert.True(t, ok)
	assert.Equal(t, "Kiedy jest sesja?", prompt)
	assert.InDelta(t, 0.2, llm.LastOptions().Temperature, 1e-9)

	llm.SetError(errors.New("model offline"))
	_, err = llm.Call(ctx, "x")
	require.EqualError(t, err, "model offline")
	assert.Equal(t, 2, llm.GetCallCount())
	assert.Equal(t, msgs, llm.LastMessages(), "failed calls are not recorded")
}

func TestLLMStreams(t *testing.T) {
	llm := fake.NewFakeLLM([]string{"strumień"})

	var got []byte
	_, err := llm.Call(context.Background(), "x", llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		got = append(got, chunk...)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "strumień", string(got))
}
