package vectorstores

import (
	"context"
	"errors"
	"maps"

	"github.com/sevigo/campusrag/schema"
)

var ErrCollectionNotFound = errors.New("collection not found")

// VectorStore indexes documents and answers nearest-neighbour queries.
// Operations target the store's default collection unless WithNameSpace
// names another one.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []schema.Document, options ...Option) ([]string, error)
	SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...Option) ([]schema.Document, error)
	SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...Option) ([]DocumentWithScore, error)
	DeleteDocumentsByFilter(ctx context.Context, filters map[string]any, options ...Option) error
	ListCollections(ctx context.Context) ([]string, error)
}

// DocumentWithScore is a search hit. Higher scores are closer matches.
type DocumentWithScore struct {
	Document schema.Document
	Score    float32
}

type Option func(*Options)

type Options struct {
	NameSpace      string
	ScoreThreshold float32
	Filters        map[string]any
}

// WithNameSpace targets another collection for one call.
func WithNameSpace(namespace string) Option {
	return func(opts *Options) {
		opts.NameSpace = namespace
	}
}

// WithScoreThreshold drops hits scoring below threshold. Zero keeps all.
func WithScoreThreshold(threshold float32) Option {
	return func(opts *Options) {
		opts.ScoreThreshold = threshold
	}
}

// WithFilters restricts results to documents whose metadata equals every
// given value.
func WithFilters(filters map[string]any) Option {
	return func(opts *Options) {
		maps.Copy(opts.Filters, filters)
	}
}

func WithFilter(key string, value any) Option {
	return func(opts *Options) {
		opts.Filters[key] = value
	}
}

func ParseOptions(options ...Option) Options {
	opts := Options{Filters: make(map[string]any)}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	return opts
}
