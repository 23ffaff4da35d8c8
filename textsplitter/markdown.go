package textsplitter

import (
	"bytes"
	"context"
	"maps"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/sevigo/campusrag/schema"
)

// UndefinedHeading names the section that precedes the first heading.
const UndefinedHeading = "UNDEFINED_HEADING"

const maxSectionLevel = 3

// Section is the body text under one markdown heading.
type Section struct {
	Heading string
	Body    string
}

var markdownParser = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
).Parser()

// MarkdownSections cuts a markdown document at level 1-3 headings. Deeper
// headings stay in the body. Sections with an empty body are dropped.
func MarkdownSections(md string) []Section {
	source := []byte(md)
	doc := markdownParser.Parse(text.NewReader(source))

	var (
		sections []Section
		heading  = UndefinedHeading
		body     []string
	)
	flush := func() {
		b := strings.TrimSpace(strings.Join(body, "\n\n"))
		if b != "" {
			sections = append(sections, Section{Heading: heading, Body: b})
		}
		body = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level <= maxSectionLevel {
			flush()
			heading = inlineText(h, source)
			if heading == "" {
				heading = UndefinedHeading
			}
			continue
		}
		if raw := blockSource(n, source); raw != "" {
			body = append(body, raw)
		}
	}
	flush()
	return sections
}

// inlineText concatenates the text leaves of a node.
func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// blockSource returns the source lines covered by a top-level block, so list
// markers and table pipes survive.
func blockSource(n ast.Node, source []byte) string {
	lo, hi := len(source), 0
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c.Type() == ast.TypeBlock {
			if lines := c.Lines(); lines.Len() > 0 {
				lo = min(lo, lines.At(0).Start)
				hi = max(hi, lines.At(lines.Len()-1).Stop)
				return ast.WalkSkipChildren, nil
			}
		}
		if t, ok := c.(*ast.Text); ok && t.Segment.Len() > 0 {
			lo = min(lo, t.Segment.Start)
			hi = max(hi, t.Segment.Stop)
		}
		return ast.WalkContinue, nil
	})
	if hi <= lo {
		return ""
	}

	if i := bytes.LastIndexByte(source[:lo], '\n'); i >= 0 {
		lo = i + 1
	} else {
		lo = 0
	}
	if i := bytes.IndexByte(source[hi:], '\n'); i >= 0 {
		hi += i
	} else {
		hi = len(source)
	}
	return strings.TrimSpace(string(source[lo:hi]))
}

// Markdown splits markdown documents into heading sections, packs each
// section by sentences and hard-splits sentences that are still too long.
type Markdown struct {
	sentences *Sentence
	fallback  *RecursiveCharacter
	opts      options
}

var _ TextSplitter = (*Markdown)(nil)

// NewMarkdown creates a section-aware splitter sharing the Sentence defaults.
func NewMarkdown(opts ...Option) *Markdown {
	s := NewSentence(opts...)
	return &Markdown{
		sentences: s,
		fallback:  NewRecursiveCharacter(WithChunkSize(s.opts.chunkSize), WithChunkOverlap(0)),
		opts:      s.opts,
	}
}

// Split returns the chunks of one markdown document with their headings.
func (m *Markdown) Split(md string) ([]Section, error) {
	var out []Section
	for _, sec := range MarkdownSections(md) {
		pieces := []string{sec.Body}
		if runeLen(sec.Body) > m.opts.chunkSize {
			pieces = m.sentences.SplitText(sec.Body)
		}
		for _, p := range pieces {
			parts := []string{p}
			if m.oversized(p) {
				var err error
				if parts, err = m.fallback.SplitText(p); err != nil {
					return nil, err
				}
			}
			for _, part := range parts {
				part = strings.TrimSpace(part)
				if part == "" || runeLen(part) < m.opts.minChunkSize {
					continue
				}
				out = append(out, Section{Heading: sec.Heading, Body: part})
			}
		}
	}
	return out, nil
}

// oversized reports whether a packed piece holds a sentence longer than the
// budget. Pieces over budget only by their joining spaces stay whole.
func (m *Markdown) oversized(piece string) bool {
	if runeLen(piece) <= m.opts.chunkSize {
		return false
	}
	for _, s := range SplitSentences(piece) {
		if runeLen(s) > m.opts.chunkSize {
			return true
		}
	}
	return false
}

// SplitDocuments splits markdown documents. Each piece carries the source
// metadata plus "heading" and "chunk_index".
func (m *Markdown) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	var out []schema.Document
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sections, err := m.Split(doc.PageContent)
		if err != nil {
			return nil, err
		}
		for i, sec := range sections {
			meta := make(map[string]any, len(doc.Metadata)+2)
			maps.Copy(meta, doc.Metadata)
			meta["heading"] = sec.Heading
			meta["chunk_index"] = i
			out = append(out, schema.NewDocument(sec.Body, meta))
		}
	}
	return out, nil
}
