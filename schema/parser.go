package schema

import (
	"context"
	"io/fs"
)

// ParserPlugin turns one source document into chunk records.
type ParserPlugin interface {
	Name() string
	Extensions() []string
	CanHandle(path string, info fs.FileInfo) bool
	Parse(ctx context.Context, path string) ([]ChunkRecord, error)
}
