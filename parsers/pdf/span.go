package pdf

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fragment is one positioned piece of text as delivered by the rendering layer.
// BBox and Font are nil when the renderer did not provide them.
type Fragment struct {
	Text string
	BBox []float64
	Font *FontInfo
}

// FontInfo describes the font a fragment was drawn with.
type FontInfo struct {
	Name string
	Size float64
}

// Page is the fragment list of one rendered page. Number is the zero-based page index.
type Page struct {
	Number    int
	Fragments []Fragment
}

// Span is an immutable, position-annotated text fragment.
type Span struct {
	Text       string
	X0         float64
	Y0         float64
	FontSize   float64
	IsBold     bool
	IsUpper    bool
	PageNumber int
}

var bracketedRe = regexp.MustCompile(`[\(\[].*?[\)\]]`)

// ExtractSpans flattens pages into spans in encounter order. Fragments whose
// trimmed text is empty are dropped; missing metadata is defaulted and reported.
func ExtractSpans(pages []Page, rep Reporter) []Span {
	if rep == nil {
		rep = discardReporter{}
	}

	var spans []Span
	for _, page := range pages {
		for _, frag := range page.Fragments {
			text := strings.TrimSpace(frag.Text)
			if text == "" {
				continue
			}

			var missing []string
			bbox := [4]float64{}
			if len(frag.BBox) == 4 {
				copy(bbox[:], frag.BBox)
			} else {
				missing = append(missing, "bbox")
			}

			var fontName string
			var fontSize float64
			if frag.Font != nil {
				fontName = frag.Font.Name
				fontSize = frag.Font.Size
			} else {
				missing = append(missing, "font")
			}

			if len(missing) > 0 {
				rep.Warn(MalformedSpanWarning{Page: page.Number, Text: text, Missing: missing})
			}

			spans = append(spans, Span{
				Text:       text,
				X0:         bbox[0],
				Y0:         bbox[1],
				FontSize:   fontSize,
				IsBold:     IsBoldFont(fontName),
				IsUpper:    IsUpperText(frag.Text),
				PageNumber: page.Number,
			})
		}
	}
	return spans
}

// IsBoldFont reports whether a font name denotes a bold face.
func IsBoldFont(name string) bool {
	return strings.Contains(strings.ToLower(name), "bold")
}

// IsUpperText reports whether text is all caps once diacritics and bracketed
// parts are removed. At least one cased letter is required.
func IsUpperText(text string) bool {
	s := bracketedRe.ReplaceAllString(StripDiacritics(text), "")
	s = strings.TrimSpace(s)

	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// translit covers letters such as ł that NFD leaves whole, so Polish
// headings fold the way unidecode folds them.
var translit = strings.NewReplacer(
	"ł", "l", "Ł", "L",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ß", "ss",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
)

// StripDiacritics folds accented letters to their ASCII base letter. The
// chain is built per call since transformers keep state.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return translit.Replace(out)
}
