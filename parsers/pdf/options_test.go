package pdf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/campusrag/parsers/pdf"
)

func TestNewOptions(t *testing.T) {
	o := pdf.NewOptions(
		pdf.WithRowThreshold(8),
		pdf.WithCalendarColumnSplit(160),
		pdf.WithHeaderBand(14, 120),
		pdf.WithRowBatchSize(3),
		pdf.WithChunkSize(800),
		pdf.WithOverlapSentences(2),
		pdf.WithStructuredPageBase(0),
	)
	assert.Equal(t, 8.0, o.RowThreshold)
	assert.Equal(t, 160.0, o.CalendarColumnSplit)
	assert.Equal(t, 14.0, o.HeaderMinFontSize)
	assert.Equal(t, 120.0, o.HeaderBandY)
	assert.Equal(t, 3, o.RowBatchSize)
	assert.Equal(t, 800, o.ChunkSize)
	assert.Equal(t, 2, o.OverlapSentences)
	assert.Equal(t, 0, o.StructuredPageBase)

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		o := pdf.NewOptions(pdf.WithRowThreshold(-1), pdf.WithRowBatchSize(0), pdf.WithChunkSize(0))
		def := pdf.DefaultOptions()
		assert.Equal(t, def.RowThreshold, o.RowThreshold)
		assert.Equal(t, def.RowBatchSize, o.RowBatchSize)
		assert.Equal(t, def.ChunkSize, o.ChunkSize)
	})

	assert.Equal(t, pdf.DefaultOptions(), pdf.NewOptions(pdf.WithOptions(pdf.DefaultOptions())))
}
