package timetable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultURLTemplate is the planning site page of one group.
const DefaultURLTemplate = "https://planzajec.wcy.wat.edu.pl/pl/rozklad?grupa_id={group}"

var ErrUnexpectedStatus = errors.New("timetable: unexpected response status")

// Scraper downloads and parses group timetables.
type Scraper struct {
	urlTemplate string
	userAgent   string
	client      *http.Client
	logger      *slog.Logger
}

type Option func(*Scraper)

// WithURLTemplate sets the page address; "{group}" is replaced by the group code.
func WithURLTemplate(tmpl string) Option {
	return func(s *Scraper) {
		if tmpl != "" {
			s.urlTemplate = tmpl
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			s.client = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewScraper(opts ...Option) *Scraper {
	s := &Scraper{
		urlTemplate: DefaultURLTemplate,
		userAgent:   "Mozilla/5.0",
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "timetable")
	return s
}

// URL returns the timetable address of group.
func (s *Scraper) URL(group string) string {
	return strings.ReplaceAll(s.urlTemplate, "{group}", url.QueryEscape(group))
}

// Fetch downloads and parses the timetable of group.
func (s *Scraper) Fetch(ctx context.Context, group string) ([]Lesson, error) {
	target := s.URL(group)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("timetable: building request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timetable: fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, target, resp.StatusCode)
	}

	lessons, err := ParseLessons(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		s.logger.Warn("No lessons found", "group", group, "url", target)
	}
	s.logger.Info("Fetched timetable", "group", group, "lessons", len(lessons))
	return lessons, nil
}
