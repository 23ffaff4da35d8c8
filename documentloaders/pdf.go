package documentloaders

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/campusrag/parsers"
	"github.com/sevigo/campusrag/schema"
)

// Job names one document and, optionally, the parser to use for it. An
// empty Parser lets the registry choose by file name.
type Job struct {
	Path   string `yaml:"path"`
	Parser string `yaml:"parser"`
}

// Skipped is a document that produced no records and why.
type Skipped struct {
	Path   string
	Reason string
}

// LoadReport summarises a batch run. Records are in job order.
type LoadReport struct {
	Parsed  []string
	Skipped []Skipped
	Records []schema.ChunkRecord
}

// PDFLoader parses a batch of PDF documents. Documents are independent: a
// failing document is logged, reported and skipped.
type PDFLoader struct {
	registry parsers.ParserRegistry
	jobs     []Job
	dir      string
	cfg      config
}

// NewPDF creates a loader for the given jobs.
func NewPDF(registry parsers.ParserRegistry, jobs []Job, opts ...Option) *PDFLoader {
	cfg := newConfig(opts)
	cfg.logger = cfg.logger.With("component", "pdf_loader")
	return &PDFLoader{registry: registry, jobs: jobs, cfg: cfg}
}

// NewPDFDir creates a loader for every PDF below dir.
func NewPDFDir(registry parsers.ParserRegistry, dir string, opts ...Option) *PDFLoader {
	l := NewPDF(registry, nil, opts...)
	l.dir = dir
	return l
}

type jobResult struct {
	records []schema.ChunkRecord
	err     error
}

// Run parses all documents. It fails only when the directory cannot be walked
// or ctx is cancelled.
func (l *PDFLoader) Run(ctx context.Context) (LoadReport, error) {
	jobs := l.jobs
	if l.dir != "" {
		found, err := l.discover()
		if err != nil {
			return LoadReport{}, err
		}
		jobs = append(append([]Job(nil), jobs...), found...)
	}
	l.cfg.logger.Info("Starting PDF load", "documents", len(jobs), "workers", l.cfg.workers)

	results := make([]jobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := l.parse(gctx, job)
			results[i] = jobResult{records: recs, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LoadReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return LoadReport{}, err
	}

	var report LoadReport
	for i, res := range results {
		path := jobs[i].Path
		if res.err != nil {
			l.cfg.logger.Warn("Skipping unreadable document", "path", path, "error", res.err)
			report.Skipped = append(report.Skipped, Skipped{Path: path, Reason: res.err.Error()})
			continue
		}
		if len(res.records) == 0 {
			l.cfg.logger.Info("Document produced no chunks", "path", path)
		}
		report.Parsed = append(report.Parsed, path)
		report.Records = append(report.Records, res.records...)
	}

	l.cfg.logger.Info("PDF load completed",
		"parsed", len(report.Parsed),
		"skipped", len(report.Skipped),
		"records", len(report.Records),
	)
	return report, nil
}

// Load returns the parsed records as documents.
func (l *PDFLoader) Load(ctx context.Context) ([]schema.Document, error) {
	report, err := l.Run(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, len(report.Records))
	for i, rec := range report.Records {
		docs[i] = rec.ToDocument()
	}
	return docs, nil
}

func (l *PDFLoader) parse(ctx context.Context, job Job) ([]schema.ChunkRecord, error) {
	plugin, err := l.pluginFor(job)
	if err != nil {
		return nil, err
	}
	l.cfg.logger.Debug("Parsing document", "path", job.Path, "parser", plugin.Name())
	return plugin.Parse(ctx, job.Path)
}

func (l *PDFLoader) pluginFor(job Job) (schema.ParserPlugin, error) {
	if job.Parser != "" {
		return l.registry.GetParser(job.Parser)
	}
	info, err := os.Stat(job.Path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", job.Path, err)
	}
	return l.registry.GetParserForFile(job.Path, info)
}

// discover walks dir in lexical order and returns a job per PDF file.
func (l *PDFLoader) discover() ([]Job, error) {
	var jobs []Job
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.dir {
				return err
			}
			l.cfg.logger.Warn("Skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != l.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			jobs = append(jobs, Job{Path: path})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", l.dir, err)
	}
	if len(jobs) == 0 {
		l.cfg.logger.Warn("No PDF files found", "dir", l.dir)
	}
	return jobs, nil
}

// ErrNoRecords is returned by callers that require at least one record.
var ErrNoRecords = errors.New("documentloaders: no records loaded")
