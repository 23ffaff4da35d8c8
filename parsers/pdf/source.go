package pdf

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageSource yields the rendered pages of one document.
type PageSource interface {
	Pages(ctx context.Context) ([]Page, error)
}

const (
	defaultPageHeight = 792.0
	// Gaps are fractions of the font size: above wordGapRatio a space is
	// inserted, above fragmentGapRatio a new fragment starts.
	wordGapRatio     = 0.2
	fragmentGapRatio = 1.0
	// largest baseline shift, in points, still on the same line
	baselineSlack = 0.5
)

// FileSource renders PDF pages with ledongthuc/pdf and coalesces its
// per-glyph output into fragments sharing font, size and baseline.
type FileSource struct {
	name string
	r    io.ReaderAt
	size int64
}

var _ PageSource = (*FileSource)(nil)

// NewFileSource reads the PDF at path when Pages is called.
func NewFileSource(path string) *FileSource {
	return &FileSource{name: path}
}

// NewReaderSource reads a PDF from r. name is only used in errors.
func NewReaderSource(name string, r io.ReaderAt, size int64) *FileSource {
	return &FileSource{name: name, r: r, size: size}
}

// Pages decodes every page. Any open failure or decoder panic is returned as
// a *DocumentReadError.
func (s *FileSource) Pages(ctx context.Context) (pages []Page, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &DocumentReadError{Path: s.name, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	r, size := s.r, s.size
	if r == nil {
		f, openErr := os.Open(s.name)
		if openErr != nil {
			return nil, &DocumentReadError{Path: s.name, Err: openErr}
		}
		defer f.Close()

		info, statErr := f.Stat()
		if statErr != nil {
			return nil, &DocumentReadError{Path: s.name, Err: statErr}
		}
		r, size = f, info.Size()
	}

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, &DocumentReadError{Path: s.name, Err: err}
	}

	n := reader.NumPage()
	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, Page{
			Number:    i - 1,
			Fragments: coalesceGlyphs(p.Content().Text, pageHeight(p)),
		})
	}
	return pages, nil
}

// pageHeight reads the MediaBox, following inheritance through parent nodes.
func pageHeight(p pdf.Page) float64 {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

type glyphRun struct {
	font    string
	size    float64
	baseY   float64
	x0, x1  float64
	text    strings.Builder
	started bool
}

func (g *glyphRun) accepts(t pdf.Text) bool {
	if !g.started {
		return true
	}
	if t.Font != g.font || math.Abs(t.FontSize-g.size) > 0.01 {
		return false
	}
	if math.Abs(t.Y-g.baseY) > baselineSlack {
		return false
	}
	gap := t.X - g.x1
	return gap > -g.size && gap <= g.size*fragmentGapRatio
}

func (g *glyphRun) add(t pdf.Text) {
	if !g.started {
		g.font, g.size, g.baseY, g.x0 = t.Font, t.FontSize, t.Y, t.X
		g.started = true
	} else if t.X-g.x1 > g.size*wordGapRatio && !strings.HasSuffix(g.text.String(), " ") && t.S != " " {
		g.text.WriteByte(' ')
	}
	g.text.WriteString(t.S)
	g.x1 = max(g.x1, t.X+t.W)
}

func (g *glyphRun) fragment(height float64) Fragment {
	top := height - g.baseY - g.size
	return Fragment{
		Text: g.text.String(),
		BBox: []float64{g.x0, top, g.x1, height - g.baseY},
		Font: &FontInfo{Name: g.font, Size: g.size},
	}
}

func coalesceGlyphs(glyphs []pdf.Text, height float64) []Fragment {
	var (
		frags []Fragment
		run   = &glyphRun{}
	)
	for _, t := range glyphs {
		if t.S == "" {
			continue
		}
		if !run.accepts(t) {
			frags = append(frags, run.fragment(height))
			run = &glyphRun{}
		}
		run.add(t)
	}
	if run.started {
		frags = append(frags, run.fragment(height))
	}
	return frags
}
