package pdf

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sevigo/campusrag/schema"
)

// DefaultCalendarPattern matches the file names of academic-year calendars.
const DefaultCalendarPattern = `(?i)organizacja_zajec_w_roku_akademickim`

// SourceFunc opens the page source for a path. Tests replace it to feed
// fixture pages without a PDF on disk.
type SourceFunc func(path string) PageSource

// PluginOption configures the PDF plugins.
type PluginOption func(*plugin)

type plugin struct {
	logger    *slog.Logger
	opts      Options
	open      SourceFunc
	calendarR *regexp.Regexp
}

func newPlugin(logger *slog.Logger, opts []PluginOption) plugin {
	if logger == nil {
		logger = slog.Default()
	}
	p := plugin{
		logger:    logger,
		opts:      DefaultOptions(),
		open:      func(path string) PageSource { return NewFileSource(path) },
		calendarR: regexp.MustCompile(DefaultCalendarPattern),
	}
	for _, opt := range opts {
		opt(&p)
	}
	p.opts.normalize()
	return p
}

// WithParserOptions overrides the layout heuristics.
func WithParserOptions(o Options) PluginOption {
	return func(p *plugin) {
		p.opts = o
	}
}

// WithSource overrides how documents are opened.
func WithSource(fn SourceFunc) PluginOption {
	return func(p *plugin) {
		if fn != nil {
			p.open = fn
		}
	}
}

// WithCalendarPattern sets the file-name pattern the calendar plugin claims.
func WithCalendarPattern(pattern string) PluginOption {
	return func(p *plugin) {
		if re, err := regexp.Compile(pattern); err == nil {
			p.calendarR = re
		}
	}
}

func (p plugin) pages(ctx context.Context, path string) ([]Page, error) {
	pages, err := p.open(path).Pages(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to read PDF", "path", path, "error", err)
		return nil, err
	}
	return pages, nil
}

func isPDF(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

// CalendarPlugin parses tabular calendar PDFs into batches of rows.
type CalendarPlugin struct {
	plugin
}

var _ schema.ParserPlugin = (*CalendarPlugin)(nil)

// NewCalendarPlugin creates the calendar layout parser.
func NewCalendarPlugin(logger *slog.Logger, opts ...PluginOption) *CalendarPlugin {
	return &CalendarPlugin{plugin: newPlugin(logger, opts)}
}

func (p *CalendarPlugin) Name() string {
	return "calendar"
}

// Extensions is empty so the calendar plugin is only chosen by name or CanHandle.
func (p *CalendarPlugin) Extensions() []string {
	return nil
}

func (p *CalendarPlugin) CanHandle(path string, info fs.FileInfo) bool {
	return isPDF(path, info) && p.calendarR.MatchString(filepath.Base(path))
}

func (p *CalendarPlugin) Parse(ctx context.Context, path string) ([]schema.ChunkRecord, error) {
	doc, err := p.ParseDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	return EmitRecords(doc.Chunks, path), nil
}

// ParseDocument returns the header, merged rows and chunks of a calendar.
func (p *CalendarPlugin) ParseDocument(ctx context.Context, path string) (CalendarDocument, error) {
	pages, err := p.pages(ctx, path)
	if err != nil {
		return CalendarDocument{}, err
	}

	doc := ParseCalendar(pages, p.opts, SlogReporter{Logger: p.logger})
	if len(doc.Rows) == 0 {
		p.logger.InfoContext(ctx, "Calendar produced no rows", "path", path, "pages", len(pages))
	} else {
		p.logger.DebugContext(ctx, "Calendar parsed",
			"path", path, "header", doc.Header, "rows", len(doc.Rows), "chunks", len(doc.Chunks))
	}
	return doc, nil
}

// StructuredPlugin parses prose PDFs into heading-delimited chunks.
type StructuredPlugin struct {
	plugin
}

var _ schema.ParserPlugin = (*StructuredPlugin)(nil)

// NewStructuredPlugin creates the heading/paragraph parser.
func NewStructuredPlugin(logger *slog.Logger, opts ...PluginOption) *StructuredPlugin {
	return &StructuredPlugin{plugin: newPlugin(logger, opts)}
}

func (p *StructuredPlugin) Name() string {
	return "structured"
}

func (p *StructuredPlugin) Extensions() []string {
	return []string{".pdf"}
}

func (p *StructuredPlugin) CanHandle(path string, info fs.FileInfo) bool {
	return isPDF(path, info)
}

func (p *StructuredPlugin) Parse(ctx context.Context, path string) ([]schema.ChunkRecord, error) {
	pages, err := p.pages(ctx, path)
	if err != nil {
		return nil, err
	}

	chunks := ParseStructured(pages, p.opts, SlogReporter{Logger: p.logger})
	if len(chunks) == 0 {
		p.logger.InfoContext(ctx, "Structured PDF produced no chunks", "path", path, "pages", len(pages))
	} else {
		p.logger.DebugContext(ctx, "Structured PDF parsed", "path", path, "chunks", len(chunks))
	}
	return EmitRecords(chunks, path), nil
}
