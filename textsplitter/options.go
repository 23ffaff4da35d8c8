package textsplitter

// options holds configuration settings for the text splitters.
type options struct {
	chunkSize        int
	chunkOverlap     int
	overlapSentences int
	minChunkSize     int
}

// Option is a function type for configuring the splitter.
type Option func(*options)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the character overlap used by RecursiveCharacter.
func WithChunkOverlap(overlap int) Option {
	return func(o *options) {
		if overlap >= 0 {
			o.chunkOverlap = overlap
		}
	}
}

// WithOverlapSentences sets how many trailing sentences a Sentence chunk
// carries into the next one. Zero disables overlap.
func WithOverlapSentences(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.overlapSentences = n
		}
	}
}

// WithMinChunkSize drops chunks shorter than size characters.
func WithMinChunkSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.minChunkSize = size
		}
	}
}
