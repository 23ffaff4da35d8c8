package llms

import "context"

type CallOption func(*CallOptions)

// CallOptions tune a single model call. Zero values keep the provider defaults.
type CallOptions struct {
	Model         string
	Temperature   float64
	StreamingFunc func(ctx context.Context, chunk []byte) error
}

// ParseCallOptions applies options over the zero value.
func ParseCallOptions(options ...CallOption) CallOptions {
	var o CallOptions
	for _, opt := range options {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithStreamingFunc forwards each generated chunk to fn as it arrives.
func WithStreamingFunc(fn func(ctx context.Context, chunk []byte) error) CallOption {
	return func(o *CallOptions) {
		o.StreamingFunc = fn
	}
}

// WithModel overrides the provider's configured model for one call.
func WithModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

func WithTemperature(t float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = t
	}
}
