package vectorstores

import (
	"context"

	"github.com/sevigo/campusrag/schema"
)

// storeRetriever adapts a VectorStore to schema.Retriever.
type storeRetriever struct {
	store   VectorStore
	numDocs int
	options []Option
}

func (r storeRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	return r.store.SimilaritySearch(ctx, query, r.numDocs, r.options...)
}

// ToRetriever returns the top numDocs matches of store for each query.
// options apply to every search.
func ToRetriever(store VectorStore, numDocs int, options ...Option) schema.Retriever {
	return storeRetriever{store: store, numDocs: numDocs, options: options}
}
