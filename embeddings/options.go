package embeddings

type options struct {
	StripNewLines bool
	BatchSize     int
	MaxConcurrent int
}

type Option func(*options)

func WithBatchSize(size int) Option {
	return func(opts *options) {
		opts.BatchSize = size
	}
}

// WithMaxConcurrent bounds the number of batches embedded in parallel.
func WithMaxConcurrent(n int) Option {
	return func(opts *options) {
		opts.MaxConcurrent = n
	}
}

func WithStripNewLines(strip bool) Option {
	return func(opts *options) {
		opts.StripNewLines = strip
	}
}
