// Package testing holds helpers shared by parser tests.
package testing

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/sevigo/campusrag/parsers/pdf"
)

// NewTestLogger returns a debug-level text logger writing into the returned buffer.
func NewTestLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler), &buf
}

// Warnings records malformed-span warnings in arrival order.
type Warnings struct {
	mu  sync.Mutex
	got []pdf.MalformedSpanWarning
}

var _ pdf.Reporter = (*Warnings)(nil)

func (w *Warnings) Warn(m pdf.MalformedSpanWarning) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.got = append(w.got, m)
}

// All returns a copy of the recorded warnings.
func (w *Warnings) All() []pdf.MalformedSpanWarning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]pdf.MalformedSpanWarning, len(w.got))
	copy(out, w.got)
	return out
}
