package pdf

// Layout heuristics. All distances are in PDF points with a top-left origin.
const (
	DefaultRowThreshold        = 12.0
	DefaultCalendarColumnSplit = 140.0
	DefaultGenericColumnSplit  = 100.0
	DefaultHeaderMinFontSize   = 12.0
	DefaultHeaderBandY         = 150.0
	DefaultRowBatchSize        = 5
	DefaultChunkSize           = 1500
	DefaultOverlapSentences    = 1
	DefaultStructuredPageBase  = 1
)

// Sentinels used when no heading can be detected.
const (
	UndefinedHeader  = "UNDEFINED_HEADER"
	UndefinedHeading = "UNDEFINED_HEADING"
)

// Options carries every tunable constant of the layout parser.
type Options struct {
	// RowThreshold is the vertical gap that starts a new visual row.
	RowThreshold float64 `yaml:"row_threshold"`
	// CalendarColumnSplit separates the left and right column of calendar rows.
	CalendarColumnSplit float64 `yaml:"calendar_column_split"`
	// GenericColumnSplit is used by callers that do not override the split.
	GenericColumnSplit float64 `yaml:"generic_column_split"`
	HeaderMinFontSize  float64 `yaml:"header_min_font_size"`
	HeaderBandY        float64 `yaml:"header_band_y"`
	RowBatchSize       int     `yaml:"row_batch_size"`
	// ChunkSize is the character budget of a structured chunk.
	ChunkSize        int `yaml:"chunk_size"`
	OverlapSentences int `yaml:"overlap_sentences"`
	// StructuredPageBase is added to zero-based page indexes on the structured path.
	StructuredPageBase int `yaml:"structured_page_base"`
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the heuristics tuned for the university documents.
func DefaultOptions() Options {
	return Options{
		RowThreshold:        DefaultRowThreshold,
		CalendarColumnSplit: DefaultCalendarColumnSplit,
		GenericColumnSplit:  DefaultGenericColumnSplit,
		HeaderMinFontSize:   DefaultHeaderMinFontSize,
		HeaderBandY:         DefaultHeaderBandY,
		RowBatchSize:        DefaultRowBatchSize,
		ChunkSize:           DefaultChunkSize,
		OverlapSentences:    DefaultOverlapSentences,
		StructuredPageBase:  DefaultStructuredPageBase,
	}
}

// NewOptions applies opts on top of DefaultOptions.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.normalize()
	return o
}

func (o *Options) normalize() {
	if o.RowThreshold <= 0 {
		o.RowThreshold = DefaultRowThreshold
	}
	if o.RowBatchSize <= 0 {
		o.RowBatchSize = DefaultRowBatchSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.OverlapSentences < 0 {
		o.OverlapSentences = 0
	}
}

// WithOptions replaces every value with src.
func WithOptions(src Options) Option {
	return func(o *Options) {
		*o = src
	}
}

// WithRowThreshold sets the vertical distance within which calendar spans share a row.
func WithRowThreshold(t float64) Option {
	return func(o *Options) {
		o.RowThreshold = t
	}
}

// WithCalendarColumnSplit sets the x coordinate dividing the left and right calendar columns.
func WithCalendarColumnSplit(x float64) Option {
	return func(o *Options) {
		o.CalendarColumnSplit = x
	}
}

// WithHeaderBand sets the minimum font size and maximum y of the calendar header sentinel.
func WithHeaderBand(minFontSize, maxY float64) Option {
	return func(o *Options) {
		o.HeaderMinFontSize = minFontSize
		o.HeaderBandY = maxY
	}
}

// WithRowBatchSize sets how many calendar rows go into one chunk.
func WithRowBatchSize(n int) Option {
	return func(o *Options) {
		o.RowBatchSize = n
	}
}

// WithChunkSize sets the structured chunk budget in characters.
func WithChunkSize(n int) Option {
	return func(o *Options) {
		o.ChunkSize = n
	}
}

// WithOverlapSentences sets the sentence overlap between structured chunks. Zero disables it.
func WithOverlapSentences(n int) Option {
	return func(o *Options) {
		o.OverlapSentences = n
	}
}

// WithStructuredPageBase sets the number given to the first page of structured documents.
func WithStructuredPageBase(base int) Option {
	return func(o *Options) {
		o.StructuredPageBase = base
	}
}
