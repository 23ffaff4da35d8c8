package fake

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/vectorstores"
)

const defaultCollection = "fake-collection"

type entry struct {
	id  string
	doc schema.Document
}

// Store is an in-memory vector store for tests. Search ranks documents by
// the share of query words they contain, ties in insertion order.
type Store struct {
	mu    sync.RWMutex
	docs  map[string][]entry
	idSeq int
}

// New creates an empty fake store.
func New() *Store {
	return &Store{
		docs: make(map[string][]entry),
	}
}

func collection(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return defaultCollection
}

// AddDocuments stores docs and returns generated ids.
func (s *Store) AddDocuments(_ context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := vectorstores.ParseOptions(options...)
	name := collection(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := fmt.Sprintf("fake-id-%d", s.idSeq)
		s.idSeq++
		s.docs[name] = append(s.docs[name], entry{id: id, doc: doc})
		ids[i] = id
	}
	return ids, nil
}

func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	scored, err := s.SimilaritySearchWithScores(ctx, query, numDocuments, options...)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, len(scored))
	for i, d := range scored {
		docs[i] = d.Document
	}
	return docs, nil
}

// SimilaritySearchWithScores honours filters and the score threshold.
func (s *Store) SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]vectorstores.DocumentWithScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := vectorstores.ParseOptions(options...)
	terms := tokenize(query)

	s.mu.RLock()
	entries := s.docs[collection(opts)]
	results := make([]vectorstores.DocumentWithScore, 0, len(entries))
	for _, e := range entries {
		if !matches(e.doc, opts.Filters) {
			continue
		}
		score := overlap(terms, tokenize(e.doc.PageContent))
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		results = append(results, vectorstores.DocumentWithScore{Document: e.doc, Score: score})
	}
	s.mu.RUnlock()

	slices.SortStableFunc(results, func(a, b vectorstores.DocumentWithScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if numDocuments >= 0 && len(results) > numDocuments {
		results = results[:numDocuments]
	}
	return results, nil
}

// DeleteDocumentsByFilter removes every document whose metadata matches all filters.
func (s *Store) DeleteDocumentsByFilter(_ context.Context, filters map[string]any, options ...vectorstores.Option) error {
	if len(filters) == 0 {
		return fmt.Errorf("fake: refusing to delete without a filter")
	}
	name := collection(vectorstores.ParseOptions(options...))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = slices.DeleteFunc(s.docs[name], func(e entry) bool {
		return matches(e.doc, filters)
	})
	return nil
}

func (s *Store) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Docs returns the documents of the default collection in insertion order.
func (s *Store) Docs() []schema.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]schema.Document, 0, len(s.docs[defaultCollection]))
	for _, e := range s.docs[defaultCollection] {
		docs = append(docs, e.doc)
	}
	return docs
}

func tokenize(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return strings.ContainsRune(" \t\n.,;:!?|()[]\"'-", r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func overlap(query, doc map[string]struct{}) float32 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for w := range query {
		if _, ok := doc[w]; ok {
			hits++
		}
	}
	return float32(hits) / float32(len(query))
}

func matches(doc schema.Document, filters map[string]any) bool {
	for k, want := range filters {
		got, ok := doc.Metadata[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
