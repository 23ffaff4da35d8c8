package embeddings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Embedder turns text into vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	GetDimension(ctx context.Context) (int, error)
}

// EmbedderImpl batches document embedding over a provider client.
type EmbedderImpl struct {
	client Embedder
	opts   options
}

var (
	ErrEmptyText   = errors.New("text cannot be empty")
	ErrDoubleWrap  = errors.New("cannot wrap an already-wrapped EmbedderImpl")
	ErrCountMisfit = errors.New("embedding count does not match input")
)

// NewEmbedder wraps client. Documents are embedded in batches of BatchSize,
// at most MaxConcurrent batches in flight.
func NewEmbedder(client Embedder, opts ...Option) (*EmbedderImpl, error) {
	o := options{
		StripNewLines: true,
		BatchSize:     32,
		MaxConcurrent: 4,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 1
	}

	if _, ok := client.(*EmbedderImpl); ok {
		return nil, ErrDoubleWrap
	}
	return &EmbedderImpl{client: client, opts: o}, nil
}

func (e *EmbedderImpl) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return e.client.EmbedQuery(ctx, e.preprocess(text))
}

// EmbedDocuments returns one vector per text, in input order.
func (e *EmbedderImpl) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	processed := make([]string, len(texts))
	for i, text := range texts {
		processed[i] = e.preprocess(text)
	}

	batches := slices.Collect(slices.Chunk(processed, e.opts.BatchSize))
	results := make([][][]float32, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxConcurrent)
	for i, batch := range batches {
		g.Go(func() error {
			vecs, err := e.client.EmbedDocuments(gctx, batch)
			if err != nil {
				return fmt.Errorf("error embedding batch %d: %w", i, err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("%w: batch %d: %d texts, %d vectors", ErrCountMisfit, i, len(batch), len(vecs))
			}
			results[i] = vecs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (e *EmbedderImpl) GetDimension(ctx context.Context) (int, error) {
	return e.client.GetDimension(ctx)
}

func (e *EmbedderImpl) preprocess(text string) string {
	if e.opts.StripNewLines {
		return strings.ReplaceAll(text, "\n", " ")
	}
	return text
}
