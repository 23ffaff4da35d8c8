// Package api exposes the chat engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/campusrag/chains"
	"github.com/sevigo/campusrag/store"
)

const maxBodyBytes = 64 << 10

// ChatEngine answers one chat turn.
type ChatEngine interface {
	Chat(ctx context.Context, query string) (chains.Answer, error)
	Reset()
}

// LessonSource lists stored lessons of a group.
type LessonSource interface {
	LessonsByGroup(ctx context.Context, groupCode string) ([]store.LessonRow, error)
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	engine  ChatEngine
	lessons LessonSource
	apiKey  string
	log     *slog.Logger
}

type Option func(*Server)

// WithLessons enables GET /timetable/{group}.
func WithLessons(src LessonSource) Option {
	return func(s *Server) {
		s.lessons = src
	}
}

// WithAPIKey requires a bearer token on every endpoint except /health.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

func NewServer(engine ChatEngine, log *slog.Logger, opts ...Option) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{engine: engine, log: log}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(AuthMiddleware(s.apiKey))
		}
		r.Post("/chat", s.handleChat)
		r.Delete("/chat/history", s.handleResetHistory)
		if s.lessons != nil {
			r.Get("/timetable/{group}", s.handleTimetable)
		}
	})

	s.router = r
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	answer, err := s.engine.Chat(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, chains.ErrEmptyQuery) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("Chat failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: answer.Text, Sources: sources})
}

func (s *Server) handleResetHistory(w http.ResponseWriter, _ *http.Request) {
	s.engine.Reset()
	w.WriteHeader(http.StatusNoContent)
}

type lessonResponse struct {
	Date     string `json:"date"`
	Block    string `json:"block_id"`
	Start    string `json:"start_time"`
	End      string `json:"end_time"`
	Course   string `json:"course_code"`
	Teacher  string `json:"teacher"`
	Room     string `json:"room"`
	Building string `json:"building"`
	Info     string `json:"info"`
}

func (s *Server) handleTimetable(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	rows, err := s.lessons.LessonsByGroup(r.Context(), group)
	if err != nil {
		jsonError(w, "failed to load lessons: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		jsonError(w, "no lessons for group "+group, http.StatusNotFound)
		return
	}

	out := make([]lessonResponse, len(rows))
	for i, l := range rows {
		out[i] = lessonResponse{
			Date: l.Date, Block: l.BlockID, Start: l.StartTime, End: l.EndTime,
			Course: l.CourseCode, Teacher: l.TeacherName, Room: l.Room, Building: l.Building, Info: l.Info,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": group, "lessons": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
