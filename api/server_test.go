package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/api"
	"github.com/sevigo/campusrag/chains"
	"github.com/sevigo/campusrag/llms/fake"
	ptesting "github.com/sevigo/campusrag/parsers/testing"
	"github.com/sevigo/campusrag/schema"
	fakeretriever "github.com/sevigo/campusrag/schema/fake"
	"github.com/sevigo/campusrag/store"
)

type failingEngine struct{ resets int }

func (f *failingEngine) Chat(context.Context, string) (chains.Answer, error) {
	return chains.Answer{}, errors.New("model offline")
}

func (f *failingEngine) Reset() { f.resets++ }

type lessonsStub map[string][]store.LessonRow

func (l lessonsStub) LessonsByGroup(_ context.Context, group string) ([]store.LessonRow, error) {
	return l[group], nil
}

func newEngine(t *testing.T) *chains.ChatEngine {
	t.Helper()
	retriever := fakeretriever.NewRetriever()
	retriever.DocsToReturn = []schema.Document{
		schema.NewDocument("Sesja zimowa | 27.01.2025 - 09.02.2025", map[string]any{"source_file": "kalendarz.pdf", "page_number": 0}),
	}
	engine, err := chains.NewChatEngine(retriever, fake.NewFakeLLM([]string{"27 stycznia."}))
	require.NoError(t, err)
	return engine
}

func post(t *testing.T, h http.Handler, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	logger, logs := ptesting.NewTestLogger(t)
	srv := api.NewServer(newEngine(t), logger)

	rec := post(t, srv, `{"query":"Kiedy sesja?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Response string   `json:"response"`
		Sources  []string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "27 stycznia.", body.Response)
	assert.Equal(t, []string{"kalendarz.pdf:0"}, body.Sources)
	assert.Contains(t, logs.String(), "path=/chat")

	assert.Equal(t, http.StatusBadRequest, post(t, srv, `{"query":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, srv, `not json`).Code)
}

func TestChatEngineFailure(t *testing.T) {
	logger, _ := ptesting.NewTestLogger(t)
	engine := &failingEngine{}
	srv := api.NewServer(engine, logger)

	rec := post(t, srv, `{"query":"Kiedy sesja?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"model offline"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodDelete, "/chat/history", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, engine.resets)
}

func TestHealthAndAuth(t *testing.T) {
	logger, _ := ptesting.NewTestLogger(t)
	srv := api.NewServer(newEngine(t), logger, api.WithAPIKey("sekret"))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, post(t, srv, `{"query":"x"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, srv, `{"query":"x"}`, "Authorization", "Bearer zle").Code)
	assert.Equal(t, http.StatusOK, post(t, srv, `{"query":"x"}`, "Authorization", "Bearer sekret").Code)
}

func TestTimetable(t *testing.T) {
	logger, _ := ptesting.NewTestLogger(t)
	lessons := lessonsStub{"WCY24IX1S4": {{
		GroupCode: "WCY24IX1S4", CourseCode: "Ang", Date: "2024_10_05", BlockID: "block3",
		StartTime: "11:40", EndTime: "13:15", Room: "203", Building: "65",
	}}}
	srv := api.NewServer(newEngine(t), logger, api.WithLessons(lessons))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timetable/WCY24IX1S4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"start_time":"11:40"`)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timetable/NONE", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
