package schema

import (
	"fmt"
	"time"
)

// ChunkRecord is the normalized unit handed to persistence. ChunkID and
// CreatedAt stay nil until the record has been stored.
type ChunkRecord struct {
	ChunkID    *int64     `json:"chunk_id"`
	Heading    string     `json:"heading"`
	Content    string     `json:"content"`
	SourceFile string     `json:"source_file"`
	PageNumber *int       `json:"page_number"`
	CreatedAt  *time.Time `json:"created_at"`
}

// Source renders the record origin as "file:page".
func (r ChunkRecord) Source() string {
	if r.PageNumber == nil {
		return r.SourceFile + ":None"
	}
	return fmt.Sprintf("%s:%d", r.SourceFile, *r.PageNumber)
}

// ToDocument converts a record into a retrievable document. The heading is
// prepended to the content so it takes part in the embedding.
func (r ChunkRecord) ToDocument() Document {
	meta := map[string]any{
		"heading":     r.Heading,
		"source_file": r.SourceFile,
	}
	if r.PageNumber != nil {
		meta["page_number"] = *r.PageNumber
	}
	if r.ChunkID != nil {
		meta["chunk_id"] = *r.ChunkID
	}

	content := r.Content
	if r.Heading != "" {
		content = r.Heading + "\n" + r.Content
	}
	return NewDocument(content, meta)
}
