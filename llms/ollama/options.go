package ollama

import (
	"log/slog"
	"net/http"
	"net/url"
)

type options struct {
	model          string
	embeddingModel string
	serverURL      *url.URL
	httpClient     *http.Client
	logger         *slog.Logger
	pullMissing    bool
}

// Option configures the Ollama adapter.
type Option func(*options)

func applyOptions(opts ...Option) options {
	o := options{
		logger:      slog.Default(),
		httpClient:  http.DefaultClient,
		pullMissing: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.embeddingModel == "" {
		o.embeddingModel = o.model
	}
	return o
}

// WithModel sets the chat model, e.g. "llama3.1".
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithEmbeddingModel sets the model used for embeddings. Defaults to the chat model.
func WithEmbeddingModel(model string) Option {
	return func(opts *options) {
		opts.embeddingModel = model
	}
}

// WithServerURL points the client at an Ollama server. Without it OLLAMA_HOST is used.
func WithServerURL(rawURL string) Option {
	return func(opts *options) {
		if parsedURL, err := url.Parse(rawURL); err == nil && rawURL != "" {
			opts.serverURL = parsedURL
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		if client != nil {
			opts.httpClient = client
		}
	}
}

// WithPullMissing controls whether absent models are pulled before embedding.
func WithPullMissing(pull bool) Option {
	return func(opts *options) {
		opts.pullMissing = pull
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}
