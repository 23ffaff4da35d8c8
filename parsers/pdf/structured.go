package pdf

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sevigo/campusrag/textsplitter"
)

// Tag is the typographic role assigned to a span.
type Tag int

const (
	TagParagraph Tag = iota
	TagSmall
	TagHeading
)

func (t Tag) String() string {
	switch t {
	case TagHeading:
		return "h"
	case TagSmall:
		return "s"
	default:
		return "p"
	}
}

// TaggedSpan is a span with its classification.
type TaggedSpan struct {
	Span
	Tag Tag
}

// HeadingBlock is the body text that follows one heading. Spans never
// contains heading spans.
type HeadingBlock struct {
	Heading string
	MinPage int
	Spans   []Span
}

var numericOnlyRe = regexp.MustCompile(`^[0-9\s]+$`)

// ParseStructured classifies spans by typography, groups body text under the
// nearest preceding heading and chunks each block by sentences.
func ParseStructured(pages []Page, opts Options, rep Reporter) []Chunk {
	spans := ExtractSpans(pages, rep)
	if len(spans) == 0 {
		return []Chunk{}
	}
	for i := range spans {
		spans[i].PageNumber += opts.StructuredPageBase
	}

	blocks := BuildHeadingBlocks(ClassifySpans(spans))
	return BuildChunks(blocks, opts)
}

// ParagraphSize returns the most frequent font size rounded to two decimals.
// Ties go to the size seen first.
func ParagraphSize(spans []Span) float64 {
	counts := make(map[float64]int)
	var order []float64
	for _, s := range spans {
		size := round2(s.FontSize)
		if counts[size] == 0 {
			order = append(order, size)
		}
		counts[size]++
	}

	var best float64
	bestCount := 0
	for _, size := range order {
		if counts[size] > bestCount {
			best, bestCount = size, counts[size]
		}
	}
	return best
}

// Classify tags a span relative to the paragraph size. Size difference, bold
// and all caps each add to a heading score; one point makes a heading.
func Classify(s Span, pSize float64) Tag {
	score := s.FontSize - pSize
	if s.IsBold {
		score++
	}
	if s.IsUpper {
		score++
	}

	switch {
	case score >= 1:
		return TagHeading
	case s.FontSize < pSize:
		return TagSmall
	default:
		return TagParagraph
	}
}

// ClassifySpans tags every span against the document's paragraph size.
func ClassifySpans(spans []Span) []TaggedSpan {
	pSize := ParagraphSize(spans)
	tagged := make([]TaggedSpan, len(spans))
	for i, s := range spans {
		tagged[i] = TaggedSpan{Span: s, Tag: Classify(s, pSize)}
	}
	return tagged
}

// BuildHeadingBlocks walks spans top to bottom, page by page. A heading closes
// the open block when it holds body text and names the next block.
func BuildHeadingBlocks(spans []TaggedSpan) []HeadingBlock {
	sorted := make([]TaggedSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PageNumber != sorted[j].PageNumber {
			return sorted[i].PageNumber < sorted[j].PageNumber
		}
		return sorted[i].Y0 < sorted[j].Y0
	})

	var blocks []HeadingBlock
	current := HeadingBlock{Heading: UndefinedHeading}
	flush := func() {
		if len(current.Spans) > 0 {
			blocks = append(blocks, current)
		}
	}

	for _, ts := range sorted {
		if ts.Tag == TagHeading {
			flush()
			current = HeadingBlock{Heading: ts.Text}
			continue
		}
		if len(current.Spans) == 0 || ts.PageNumber < current.MinPage {
			current.MinPage = ts.PageNumber
		}
		current.Spans = append(current.Spans, ts.Span)
	}
	flush()
	return blocks
}

// BuildChunks joins each block's spans and splits blocks that exceed the
// character budget. Chunks made only of digits and whitespace are dropped.
func BuildChunks(blocks []HeadingBlock, opts Options) []Chunk {
	splitter := textsplitter.NewSentence(
		textsplitter.WithChunkSize(opts.ChunkSize),
		textsplitter.WithOverlapSentences(opts.OverlapSentences),
	)

	chunks := []Chunk{}
	for _, b := range blocks {
		texts := make([]string, len(b.Spans))
		for i, s := range b.Spans {
			texts[i] = s.Text
		}
		full := strings.Join(texts, " ")

		pieces := []string{full}
		if utf8.RuneCountInString(full) > opts.ChunkSize {
			pieces = splitter.SplitText(full)
		}

		for _, p := range pieces {
			if numericOnlyRe.MatchString(strings.TrimSpace(p)) {
				continue
			}
			chunks = append(chunks, Chunk{Heading: b.Heading, Content: p, PageNumber: b.MinPage})
		}
	}
	return chunks
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
