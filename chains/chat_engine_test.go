package chains_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/chains"
	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/llms/fake"
	"github.com/sevigo/campusrag/schema"
	fakeretriever "github.com/sevigo/campusrag/schema/fake"
	"github.com/sevigo/campusrag/vectorstores"
	fakestore "github.com/sevigo/campusrag/vectorstores/fake"
)

func calendarDocs() []schema.Document {
	return []schema.Document{
		schema.NewDocument("Sesja zimowa | 27.01.2025 - 09.02.2025", map[string]any{"source_file": "kalendarz.pdf", "page_number": 0}),
		schema.NewDocument("Strona wydziału", map[string]any{"source_file": "https://wcy.example.edu/"}),
	}
}

func TestChatEngine_MessageOrder(t *testing.T) {
	ctx := context.Background()
	llm := fake.NewFakeLLM([]string{"Pierwsza odpowiedź", "Druga odpowiedź"})
	retriever := fakeretriever.NewRetriever()
	retriever.DocsToReturn = calendarDocs()

	engine, err := chains.NewChatEngine(retriever, llm)
	require.NoError(t, err)

	answer, err := engine.Chat(ctx, "Kiedy jest sesja?")
	require.NoError(t, err)
	assert.Equal(t, "Pierwsza odpowiedź", answer.Text)
	assert.Equal(t, []string{"kalendarz.pdf:0", "https://wcy.example.edu/:None"}, answer.Sources)
	assert.Equal(t, "Pierwsza odpowiedź\nŹródła: [kalendarz.pdf:0, https://wcy.example.edu/:None]", answer.String())

	msgs := llm.LastMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].GetTextContent(), "Sesja zimowa | 27.01.2025 - 09.02.2025\n\n---\n\nStrona wydziału")
	assert.Equal(t, "Kiedy jest sesja?", msgs[1].GetTextContent())

	_, err = engine.Chat(ctx, "A poprawkowa?")
	require.NoError(t, err)

	msgs = llm.LastMessages()
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.ChatMessageTypeHuman, msgs[1].Role)
	assert.Equal(t, "Kiedy jest sesja?", msgs[1].GetTextContent())
	assert.Equal(t, schema.ChatMessageTypeAI, msgs[2].Role)
	assert.Equal(t, "Pierwsza odpowiedź", msgs[2].GetTextContent())
	assert.Equal(t, "A poprawkowa?", msgs[3].GetTextContent())
}

func TestChatEngine_NoDocuments(t *testing.T) {
	llm := fake.NewFakeLLM([]string{"Nie wiem."})
	engine, err := chains.NewChatEngine(fakeretriever.NewRetriever(), llm)
	require.NoError(t, err)

	answer, err := engine.Chat(context.Background(), "Ile kosztuje parking?")
	require.NoError(t, err)
	assert.Empty(t, answer.Sources)
	assert.Contains(t, llm.LastMessages()[0].GetTextContent(), chains.NoContext)
}

func TestChatEngine_MaxHistory(t *testing.T) {
	llm := fake.NewFakeLLM([]string{"ok"})
	engine, err := chains.NewChatEngine(fakeretriever.NewRetriever(), llm, chains.WithMaxHistory(1))
	require.NoError(t, err)

	ctx := context.Background()
	for _, q := range []string{"pierwsze", "drugie", "trzecie"} {
		_, err := engine.Chat(ctx, q)
		require.NoError(t, err)
	}

	history := engine.History()
	require.Len(t, history, 2)
	assert.Equal(t, "trzecie", history[0].GetTextContent())

	engine.Reset()
	assert.Empty(t, engine.History())
}

func TestChatEngine_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := chains.NewChatEngine(nil, fake.NewFakeLLM(nil))
	assert.ErrorIs(t, err, chains.ErrNilRetriever)
	_, err = chains.NewChatEngine(fakeretriever.NewRetriever(), nil)
	assert.ErrorIs(t, err, chains.ErrNilModel)

	llm := fake.NewFakeLLM([]string{"ok"})
	retriever := fakeretriever.NewRetriever()
	engine, err := chains.NewChatEngine(retriever, llm)
	require.NoError(t, err)

	_, err = engine.Chat(ctx, "   ")
	assert.ErrorIs(t, err, chains.ErrEmptyQuery)

	retriever.ErrToReturn = errors.New("qdrant down")
	_, err = engine.Chat(ctx, "pytanie")
	assert.ErrorContains(t, err, "document retrieval failed")
	assert.Equal(t, 0, llm.GetCallCount())

	retriever.ErrToReturn = nil
	llm.SetError(errors.New("model offline"))
	_, err = engine.Chat(ctx, "pytanie")
	assert.ErrorContains(t, err, "generation failed")
	assert.Empty(t, engine.History(), "failed turns are not remembered")
}

func TestChatEngine_Validator(t *testing.T) {
	llm := fake.NewFakeLLM([]string{"odpowiedź"})
	validator := fake.NewFakeLLM([]string{"No."})
	retriever := fakeretriever.NewRetriever()
	retriever.DocsToReturn = calendarDocs()

	engine, err := chains.NewChatEngine(retriever, llm, chains.WithValidator(validator))
	require.NoError(t, err)

	_, err = engine.Chat(context.Background(), "Jaka jest pogoda?")
	require.NoError(t, err)
	assert.Equal(t, 1, validator.GetCallCount())
	system := llm.LastMessages()[0].GetTextContent()
	assert.Contains(t, system, chains.NoContext)
	assert.NotContains(t, system, "Sesja zimowa")
}

func TestChatEngine_WithVectorStore(t *testing.T) {
	ctx := context.Background()
	store := fakestore.New()
	_, err := store.AddDocuments(ctx, []schema.Document{
		schema.NewDocument("Rekrutacja trwa do lipca", map[string]any{"source_file": "informator.pdf", "page_number": 3}),
		schema.NewDocument("Sesja zimowa zaczyna się w styczniu", map[string]any{"source_file": "kalendarz.pdf", "page_number": 0}),
	})
	require.NoError(t, err)

	llm := fake.NewFakeLLM([]string{"W styczniu."})
	engine, err := chains.NewChatEngine(vectorstores.ToRetriever(store, 1), llm)
	require.NoError(t, err)

	answer, err := engine.Chat(ctx, "kiedy sesja zimowa")
	require.NoError(t, err)
	assert.Equal(t, []string{"kalendarz.pdf:0"}, answer.Sources)
}

func TestChatEngine_CallOptions(t *testing.T) {
	llm := fake.NewFakeLLM([]string{"ok"})
	retriever := fakeretriever.NewRetriever(calendarDocs()...)

	engine, err := chains.NewChatEngine(retriever, llm, chains.WithCallOptions(llms.WithTemperature(0.1)))
	require.NoError(t, err)

	_, err = engine.Chat(context.Background(), "Kiedy jest sesja?")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, llm.LastOptions().Temperature, 1e-9)
	assert.Equal(t, []string{"Kiedy jest sesja?"}, retriever.Queries())
}
