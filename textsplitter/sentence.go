package textsplitter

import (
	"context"
	"maps"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sevigo/campusrag/schema"
)

// Sentence packs whole sentences into chunks of at most chunkSize characters,
// repeating the last overlapSentences sentences at the start of the next chunk.
// A single sentence longer than the budget becomes its own chunk.
type Sentence struct {
	opts options
}

var _ TextSplitter = (*Sentence)(nil)

// NewSentence creates a sentence splitter. Defaults: 1500 characters, 1 sentence overlap.
func NewSentence(opts ...Option) *Sentence {
	o := options{
		chunkSize:        1500,
		overlapSentences: 1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Sentence{opts: o}
}

// SplitText chunks text on sentence boundaries. Lengths are counted in runes.
func (s *Sentence) SplitText(text string) []string {
	var (
		chunks  []string
		current []string
		curLen  int
	)

	for _, sentence := range SplitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		if curLen+n > s.opts.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.TrimSpace(strings.Join(current, " ")))

			next := make([]string, 0, s.opts.overlapSentences+1)
			if k := s.opts.overlapSentences; k > 0 {
				next = append(next, current[max(0, len(current)-k):]...)
			}
			current = append(next, sentence)

			curLen = 0
			for _, c := range current {
				curLen += utf8.RuneCountInString(c)
			}
			continue
		}
		current = append(current, sentence)
		curLen += n
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.TrimSpace(strings.Join(current, " ")))
	}
	return chunks
}

// SplitDocuments splits every document whose content exceeds the budget.
// Pieces inherit a copy of the source metadata plus a "chunk_index".
func (s *Sentence) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	out := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(doc.PageContent) <= s.opts.chunkSize {
			out = append(out, doc)
			continue
		}
		for i, piece := range s.SplitText(doc.PageContent) {
			if utf8.RuneCountInString(piece) < s.opts.minChunkSize {
				continue
			}
			meta := make(map[string]any, len(doc.Metadata)+1)
			maps.Copy(meta, doc.Metadata)
			meta["chunk_index"] = i
			out = append(out, schema.NewDocument(piece, meta))
		}
	}
	return out, nil
}

// SplitSentences cuts text at every whitespace run that directly follows
// '.', '!' or '?'. The whitespace is dropped; the punctuation stays with the
// preceding sentence.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
		prev  rune
	)

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) && isSentenceEnd(prev) {
			end := i
			for i < len(text) {
				r2, s2 := utf8.DecodeRuneInString(text[i:])
				if !unicode.IsSpace(r2) {
					break
				}
				i += s2
			}
			out = append(out, text[start:end])
			start = i
			prev = ' '
			continue
		}
		prev = r
		i += size
	}
	return append(out, text[start:])
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
