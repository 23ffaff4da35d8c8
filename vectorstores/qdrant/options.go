package qdrant

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/campusrag/embeddings"
)

const (
	defaultContentKey    = "page_content"
	defaultHost          = "localhost"
	defaultPort          = 6334
	defaultBatchSize     = 100
	defaultRetryAttempts = 3
	defaultConcurrency   = 4
)

var ErrInvalidOptions = errors.New("qdrant: invalid options provided")

type options struct {
	collectionName string
	host           string
	port           int
	embedder       embeddings.Embedder
	apiKey         string
	contentKey     string
	logger         *slog.Logger
	useTLS         bool
	retryAttempts  int
	batchSize      int
	concurrency    int
}

// Option configures the Qdrant store.
type Option func(*options)

func WithCollectionName(name string) Option {
	return func(opts *options) {
		opts.collectionName = strings.TrimSpace(name)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithHostAndPort sets the gRPC endpoint. Qdrant serves gRPC on 6334 by default.
func WithHostAndPort(host string, port int) Option {
	return func(opts *options) {
		if host != "" {
			opts.host = host
		}
		if port > 0 {
			opts.port = port
		}
	}
}

func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(opts *options) {
		opts.embedder = embedder
	}
}

func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithContentKey sets the payload key holding the document text.
func WithContentKey(contentKey string) Option {
	return func(opts *options) {
		if contentKey != "" {
			opts.contentKey = strings.TrimSpace(contentKey)
		}
	}
}

func WithTLS(useTLS bool) Option {
	return func(opts *options) {
		opts.useTLS = useTLS
	}
}

// WithRetryAttempts sets how often a failed upsert batch is retried.
func WithRetryAttempts(attempts int) Option {
	return func(opts *options) {
		if attempts >= 0 {
			opts.retryAttempts = attempts
		}
	}
}

// WithBatchSize sets the number of points per upsert request.
func WithBatchSize(size int) Option {
	return func(opts *options) {
		if size > 0 {
			opts.batchSize = size
		}
	}
}

// WithConcurrency bounds the number of upsert requests in flight.
func WithConcurrency(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.concurrency = n
		}
	}
}

func parseOptions(opts ...Option) (options, error) {
	o := options{
		host:          defaultHost,
		port:          defaultPort,
		contentKey:    defaultContentKey,
		logger:        slog.Default(),
		retryAttempts: defaultRetryAttempts,
		batchSize:     defaultBatchSize,
		concurrency:   defaultConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.collectionName == "" {
		return o, fmt.Errorf("%w: collection name is required", ErrInvalidOptions)
	}
	return o, nil
}

// String describes the configuration without secrets.
func (opts options) String() string {
	parts := []string{
		"collection=" + opts.collectionName,
		fmt.Sprintf("endpoint=%s:%d", opts.host, opts.port),
		"content_key=" + opts.contentKey,
	}
	if opts.apiKey != "" {
		parts = append(parts, "has_api_key=true")
	}
	return "QdrantOptions{" + strings.Join(parts, ", ") + "}"
}
