package textsplitter

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/sevigo/campusrag/schema"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveCharacter splits text on the coarsest separator that yields pieces
// within the size budget, descending to finer separators only for pieces that
// are still too long. Sizes are counted in runes.
type RecursiveCharacter struct {
	opts options
}

var _ TextSplitter = (*RecursiveCharacter)(nil)

// NewRecursiveCharacter creates a RecursiveCharacter splitter. Defaults: 1000
// characters, 200 characters overlap.
func NewRecursiveCharacter(opts ...Option) *RecursiveCharacter {
	o := options{
		chunkSize:    1000,
		chunkOverlap: 200,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &RecursiveCharacter{opts: o}
}

// SplitText splits text into pieces of at most chunkSize runes.
func (s *RecursiveCharacter) SplitText(text string) ([]string, error) {
	if s.opts.chunkOverlap >= s.opts.chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", s.opts.chunkOverlap, s.opts.chunkSize)
	}

	pieces := s.split(text, defaultSeparators)
	if s.opts.chunkOverlap > 0 && len(pieces) > 1 {
		pieces = s.withOverlap(pieces)
	}
	return pieces, nil
}

// SplitDocuments splits each document and copies its metadata to every piece.
func (s *RecursiveCharacter) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	var out []schema.Document
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pieces, err := s.SplitText(doc.PageContent)
		if err != nil {
			return nil, err
		}
		for i, piece := range pieces {
			meta := make(map[string]any, len(doc.Metadata)+1)
			maps.Copy(meta, doc.Metadata)
			meta["chunk_index"] = i
			out = append(out, schema.NewDocument(piece, meta))
		}
	}
	return out, nil
}

func (s *RecursiveCharacter) split(text string, separators []string) []string {
	size := s.opts.chunkSize
	if runeLen(text) <= size {
		return []string{text}
	}
	if len(separators) == 0 {
		return hardSplit(text, size)
	}

	sep, rest := separators[0], separators[1:]
	if sep == "" {
		return hardSplit(text, size)
	}

	var merged []string
	current := ""
	for _, part := range strings.Split(text, sep) {
		if part == "" {
			continue
		}
		if current != "" && runeLen(current)+runeLen(sep)+runeLen(part) <= size {
			current += sep + part
			continue
		}
		if current != "" {
			merged = append(merged, current)
		}
		current = part
	}
	if current != "" {
		merged = append(merged, current)
	}

	var out []string
	for _, m := range merged {
		if runeLen(m) <= size {
			out = append(out, m)
			continue
		}
		out = append(out, s.split(m, rest)...)
	}
	return out
}

// withOverlap prefixes each piece with the tail of the previous one when the
// result still fits the budget.
func (s *RecursiveCharacter) withOverlap(pieces []string) []string {
	out := make([]string, 0, len(pieces))
	out = append(out, pieces[0])
	for i := 1; i < len(pieces); i++ {
		prev := []rune(pieces[i-1])
		tail := string(prev[max(0, len(prev)-s.opts.chunkOverlap):])
		candidate := tail + " " + pieces[i]
		if runeLen(candidate) <= s.opts.chunkSize {
			out = append(out, candidate)
		} else {
			out = append(out, pieces[i])
		}
	}
	return out
}

func hardSplit(text string, size int) []string {
	r := []rune(text)
	var out []string
	for start := 0; start < len(r); start += size {
		out = append(out, string(r[start:min(start+size, len(r))]))
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
