// Package documentloaders turns document collections into chunk records and
// retrievable documents.
package documentloaders

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/textsplitter"
)

const (
	defaultWorkers  = 4
	defaultMaxPages = 50
)

// Loader defines the interface for loading documents from various sources.
type Loader interface {
	Load(ctx context.Context) ([]schema.Document, error)
}

type config struct {
	logger      *slog.Logger
	workers     int
	maxPages    int
	httpClient  *http.Client
	userAgent   string
	exclude     map[string]bool
	downloadDir string
	splitter    *textsplitter.Markdown
}

// Option configures a loader. Options that do not apply to a loader are ignored.
type Option func(*config)

func newConfig(opts []Option) config {
	c := config{
		logger:     slog.Default(),
		workers:    defaultWorkers,
		maxPages:   defaultMaxPages,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  "Mozilla/5.0",
		exclude:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.splitter == nil {
		c.splitter = textsplitter.NewMarkdown()
	}
	return c
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWorkers bounds the number of documents parsed at once.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMaxPages bounds the number of pages a crawl visits.
func WithMaxPages(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithExcludeURLs lists pages the crawler never visits.
func WithExcludeURLs(urls ...string) Option {
	return func(c *config) {
		for _, u := range urls {
			c.exclude[u] = true
		}
	}
}

// WithDownloadDir makes the crawler save linked PDF files into dir.
func WithDownloadDir(dir string) Option {
	return func(c *config) {
		c.downloadDir = dir
	}
}

// WithSplitter sets the splitter applied to crawled pages.
func WithSplitter(s *textsplitter.Markdown) Option {
	return func(c *config) {
		if s != nil {
			c.splitter = s
		}
	}
}
