package pdf

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrDocumentRead marks a PDF that could not be opened or decoded at all.
var ErrDocumentRead = errors.New("pdf: document cannot be read")

// DocumentReadError is fatal for one document only. Batch drivers log it and
// move on to the next file.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrDocumentRead.Error(), e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", ErrDocumentRead.Error(), e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDocumentRead}
	}
	return []error{ErrDocumentRead, e.Err}
}

// MalformedSpanWarning is reported when a fragment is missing bounding-box or
// font metadata. The fragment is defaulted and processing continues.
type MalformedSpanWarning struct {
	Page    int
	Text    string
	Missing []string
}

func (w MalformedSpanWarning) String() string {
	return fmt.Sprintf("page %d: span %q missing %s", w.Page, w.Text, strings.Join(w.Missing, ", "))
}

// Reporter receives non-fatal parser warnings.
type Reporter interface {
	Warn(w MalformedSpanWarning)
}

// SlogReporter forwards warnings to a structured logger.
type SlogReporter struct {
	Logger *slog.Logger
}

func (r SlogReporter) Warn(w MalformedSpanWarning) {
	if r.Logger == nil {
		return
	}
	r.Logger.Warn("Malformed span defaulted",
		"page", w.Page,
		"text", w.Text,
		"missing", w.Missing)
}

type discardReporter struct{}

func (discardReporter) Warn(MalformedSpanWarning) {}
