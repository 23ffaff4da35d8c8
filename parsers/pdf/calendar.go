package pdf

import (
	"regexp"
	"sort"
	"strings"
)

// Row is one visual line of a calendar table, rendered as "left | right".
type Row struct {
	PageNumber int
	Text       string
}

// Chunk is a bounded piece of text tagged with its heading and earliest page.
type Chunk struct {
	Heading    string
	Content    string
	PageNumber int
}

// CalendarDocument is the assembled form of a calendar PDF.
type CalendarDocument struct {
	Header string
	Rows   []Row
	Chunks []Chunk
}

// Text renders the header followed by every merged row, one per line.
func (d CalendarDocument) Text() string {
	var b strings.Builder
	b.WriteString(d.Header)
	for _, r := range d.Rows {
		b.WriteByte('\n')
		b.WriteString(r.Text)
	}
	return b.String()
}

var datePattern = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}(\s*r\.?)?$`)

// ParseCalendar runs the calendar pipeline: header detection on the first page,
// row grouping and column split per page, continuation merge and row batching.
func ParseCalendar(pages []Page, opts Options, rep Reporter) CalendarDocument {
	doc := CalendarDocument{Header: UndefinedHeader}
	if len(pages) == 0 {
		return doc
	}

	var rows []Row
	for i, page := range pages {
		spans := ExtractSpans([]Page{page}, rep)
		if i == 0 {
			doc.Header = DetectHeader(spans, opts)
		}
		for _, group := range GroupRows(spans, opts.RowThreshold) {
			rows = append(rows, Row{
				PageNumber: page.Number,
				Text:       FinalizeRow(group, opts.CalendarColumnSplit),
			})
		}
	}

	doc.Rows = MergeContinuations(rows)
	doc.Chunks = BatchRows(doc.Header, doc.Rows, opts.RowBatchSize)
	return doc
}

// DetectHeader joins the large or bold spans near the top of the first page.
// Spans keep their encounter order.
func DetectHeader(firstPage []Span, opts Options) string {
	var parts []string
	for _, s := range firstPage {
		if s.Y0 >= opts.HeaderBandY {
			continue
		}
		if s.FontSize >= opts.HeaderMinFontSize || s.IsBold {
			parts = append(parts, s.Text)
		}
	}
	if len(parts) == 0 {
		return UndefinedHeader
	}
	return strings.Join(parts, " ")
}

// GroupRows clusters the spans of one page into visual rows. A span starts a
// new row when it lies at least threshold below the lowest span of the row.
func GroupRows(spans []Span, threshold float64) [][]Span {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sortByPosition(sorted)

	var rows [][]Span
	current := []Span{sorted[0]}
	lastY := sorted[0].Y0
	for _, s := range sorted[1:] {
		if s.Y0-lastY >= threshold {
			rows = append(rows, current)
			current = []Span{s}
			lastY = s.Y0
			continue
		}
		current = append(current, s)
		lastY = max(lastY, s.Y0)
	}
	return append(rows, current)
}

// FinalizeRow splits a row at xSplit and renders it as "left | right".
func FinalizeRow(row []Span, xSplit float64) string {
	var left, right []Span
	for _, s := range row {
		if s.X0 < xSplit {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	sortByPosition(left)
	sortByPosition(right)

	var lb strings.Builder
	for _, s := range left {
		lb.WriteString(s.Text)
	}

	rightTexts := make([]string, len(right))
	for i, s := range right {
		rightTexts[i] = s.Text
	}

	var rightText string
	if len(rightTexts) == 2 && datePattern.MatchString(rightTexts[0]) && datePattern.MatchString(rightTexts[1]) {
		rightText = rightTexts[0] + " - " + rightTexts[1]
	} else {
		rightText = strings.Join(rightTexts, " ")
	}

	return collapseSpaces(lb.String() + " | " + rightText)
}

// MergeContinuations folds rows whose left column starts with an ASCII digit
// or lowercase letter into the preceding row. The merged row keeps its page.
func MergeContinuations(rows []Row) []Row {
	merged := make([]Row, 0, len(rows))
	for _, row := range rows {
		if len(merged) > 0 && isContinuation(row.Text) {
			merged[len(merged)-1].Text += " " + row.Text
			continue
		}
		merged = append(merged, row)
	}
	return merged
}

func isContinuation(text string) bool {
	left, _, _ := strings.Cut(text, "|")
	left = strings.TrimSpace(left)
	if left == "" {
		return false
	}
	c := left[0]
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')
}

// BatchRows groups rows into fixed-size chunks in document order. Each chunk
// carries the document header and the lowest page among its rows.
func BatchRows(header string, rows []Row, size int) []Chunk {
	if size <= 0 {
		size = DefaultRowBatchSize
	}

	chunks := make([]Chunk, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		batch := rows[start:min(start+size, len(rows))]
		texts := make([]string, len(batch))
		page := batch[0].PageNumber
		for i, r := range batch {
			texts[i] = r.Text
			page = min(page, r.PageNumber)
		}
		chunks = append(chunks, Chunk{
			Heading:    header,
			Content:    strings.Join(texts, "\n"),
			PageNumber: page,
		})
	}
	return chunks
}

func sortByPosition(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Y0 != spans[j].Y0 {
			return spans[i].Y0 < spans[j].Y0
		}
		return spans[i].X0 < spans[j].X0
	})
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
