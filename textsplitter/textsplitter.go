package textsplitter

import (
	"context"

	"github.com/sevigo/campusrag/schema"
)

// TextSplitter splits documents into smaller documents. Every piece keeps
// the metadata of the document it came from.
type TextSplitter interface {
	SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error)
}
