package pdf

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyph(s string, x, y, w float64) pdf.Text {
	return pdf.Text{Font: "Arial", FontSize: 10, X: x, Y: y, W: w, S: s}
}

func TestCoalesceGlyphs(t *testing.T) {
	const height = 792.0

	t.Run("joins a line and flips y to a top-left origin", func(t *testing.T) {
		frags := coalesceGlyphs([]pdf.Text{
			glyph("Ala", 50, 700, 15),
			glyph(" ", 65, 700, 3),
			glyph("ma", 68, 700, 12),
			glyph("kota", 200, 700, 20),
		}, height)

		require.Len(t, frags, 2)
		assert.Equal(t, "Ala ma", frags[0].Text)
		assert.Equal(t, []float64{50, 82, 80, 92}, frags[0].BBox)
		assert.Equal(t, &FontInfo{Name: "Arial", Size: 10}, frags[0].Font)

		assert.Equal(t, "kota", frags[1].Text, "a wide gap starts a new fragment")
		assert.Equal(t, []float64{200, 82, 220, 92}, frags[1].BBox)
	})

	t.Run("word gaps insert a space, kerning gaps do not", func(t *testing.T) {
		frags := coalesceGlyphs([]pdf.Text{
			glyph("Sem", 50, 680, 15),
			glyph("estr", 68, 680, 20),
			glyph("zimo", 50, 660, 20),
			glyph("wy", 71, 660, 10),
		}, height)

		require.Len(t, frags, 2)
		assert.Equal(t, "Sem estr", frags[0].Text)
		assert.Equal(t, []float64{50, 102, 88, 112}, frags[0].BBox)
		assert.Equal(t, "zimowy", frags[1].Text)
	})

	t.Run("font, size and baseline changes split", func(t *testing.T) {
		bold := glyph("Harmonogram", 80, 700, 40)
		bold.Font = "Arial-Bold"
		big := glyph("2024", 120, 700, 20)
		big.FontSize = 14

		frags := coalesceGlyphs([]pdf.Text{
			glyph("Rok", 50, 700, 30),
			bold,
			big,
			glyph("sub", 140, 698, 15),
			glyph("", 155, 698, 0),
		}, height)

		texts := make([]string, len(frags))
		for i, f := range frags {
			texts[i] = f.Text
		}
		assert.Equal(t, []string{"Rok", "Harmonogram", "2024", "sub"}, texts)
		assert.Equal(t, 14.0, frags[2].Font.Size)
	})

	t.Run("fragment gap boundary is one font size", func(t *testing.T) {
		joined := coalesceGlyphs([]pdf.Text{glyph("Dni", 50, 600, 15), glyph("wolne", 75, 600, 25)}, height)
		require.Len(t, joined, 1)
		assert.Equal(t, "Dni wolne", joined[0].Text)

		split := coalesceGlyphs([]pdf.Text{glyph("Dni", 50, 600, 15), glyph("wolne", 76, 600, 25)}, height)
		assert.Len(t, split, 2)
	})

	t.Run("no glyphs", func(t *testing.T) {
		assert.Empty(t, coalesceGlyphs(nil, height))
	})
}

func TestPageHeightDefault(t *testing.T) {
	assert.Equal(t, defaultPageHeight, pageHeight(pdf.Page{}))
}
