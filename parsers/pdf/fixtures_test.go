package pdf_test

import (
	"context"

	"github.com/sevigo/campusrag/parsers/pdf"
)

func frag(text string, x, y, size float64, font string) pdf.Fragment {
	return pdf.Fragment{
		Text: text,
		BBox: []float64{x, y, x + 10, y + size},
		Font: &pdf.FontInfo{Name: font, Size: size},
	}
}

func span(text string, x, y float64) pdf.Span {
	return pdf.Span{Text: text, X0: x, Y0: y, FontSize: 10}
}

type staticSource struct {
	pages []pdf.Page
	err   error
}

func (s staticSource) Pages(context.Context) ([]pdf.Page, error) {
	return s.pages, s.err
}
