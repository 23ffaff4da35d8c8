package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/llms"
	"github.com/sevigo/campusrag/llms/ollama"
	"github.com/sevigo/campusrag/schema"
)

type fakeServer struct {
	pulls    atomic.Int32
	lastChat map[string]any
	known    bool
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastChat))
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Dziekanat jest otwarty do 15."},"done":true,"done_reason":"stop","eval_count":7,"prompt_eval_count":20}` + "\n"))
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		vecs := make([][]float32, len(req.Input))
		for i := range vecs {
			vecs[i] = []float32{float32(i), 0.5, 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"model": "nomic", "embeddings": vecs})
	})
	mux.HandleFunc("/api/show", func(w http.ResponseWriter, _ *http.Request) {
		if !f.known {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"details":{"family":"llama","parameter_size":"8B","quantization_level":"Q4_0"}}`))
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, _ *http.Request) {
		f.pulls.Add(1)
		f.known = true
		_, _ = w.Write([]byte(`{"status":"success"}` + "\n"))
	})
	return mux
}

func newLLM(t *testing.T, f *fakeServer) *ollama.LLM {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	llm, err := ollama.New(
		ollama.WithModel("llama3"),
		ollama.WithEmbeddingModel("nomic-embed-text"),
		ollama.WithServerURL(srv.URL),
	)
	require.NoError(t, err)
	return llm
}

func TestNewRequiresModel(t *testing.T) {
	_, err := ollama.New()
	assert.ErrorIs(t, err, ollama.ErrInvalidModel)
}

func TestGenerateContent(t *testing.T) {
	f := &fakeServer{known: true}
	llm := newLLM(t, f)

	resp, err := llm.GenerateContent(context.Background(), []schema.MessageContent{
		schema.NewSystemMessage("Jesteś asystentem uczelni."),
		schema.NewHumanMessage("Kiedy otwarty jest dziekanat?"),
	}, llms.WithTemperature(0.2))
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Dziekanat jest otwarty do 15.", resp.Choices[0].Content)
	assert.Equal(t, "stop", resp.Choices[0].StopReason)

	msgs, ok := f.lastChat["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	assert.Equal(t, false, f.lastChat["stream"])

	text, err := llm.Call(context.Background(), "Cześć")
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestEmbeddings(t *testing.T) {
	t.Run("batch embed", func(t *testing.T) {
		llm := newLLM(t, &fakeServer{known: true})

		vecs, err := llm.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
		require.NoError(t, err)
		require.Len(t, vecs, 3)
		assert.Equal(t, float32(2), vecs[2][0])

		dim, err := llm.GetDimension(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, dim)
	})

	t.Run("missing model is pulled once", func(t *testing.T) {
		f := &fakeServer{}
		llm := newLLM(t, f)

		_, err := llm.EmbedQuery(context.Background(), "zapytanie")
		require.NoError(t, err)
		_, err = llm.EmbedQuery(context.Background(), "drugie")
		require.NoError(t, err)
		assert.Equal(t, int32(1), f.pulls.Load())
	})

	t.Run("empty input", func(t *testing.T) {
		llm := newLLM(t, &fakeServer{known: true})
		vecs, err := llm.EmbedDocuments(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vecs)
	})
}

func TestModelDetails(t *testing.T) {
	llm := newLLM(t, &fakeServer{known: true})
	details, err := llm.ModelDetails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "llama", details.Family)

	missing := newLLM(t, &fakeServer{})
	_, err = missing.ModelDetails(context.Background())
	assert.ErrorIs(t, err, ollama.ErrModelNotFound)
}
