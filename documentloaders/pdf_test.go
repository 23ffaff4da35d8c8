package documentloaders_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/campusrag/documentloaders"
	"github.com/sevigo/campusrag/parsers"
	"github.com/sevigo/campusrag/parsers/pdf"
	ptesting "github.com/sevigo/campusrag/parsers/testing"
)

type fakeSource struct {
	pages []pdf.Page
	err   error
}

func (s fakeSource) Pages(context.Context) ([]pdf.Page, error) {
	return s.pages, s.err
}

func frag(text string, x, y, size float64, font string) pdf.Fragment {
	return pdf.Fragment{
		Text: text,
		BBox: []float64{x, y, x + 50, y + size},
		Font: &pdf.FontInfo{Name: font, Size: size},
	}
}

var errBroken = errors.New("broken xref table")

// fixtureSource serves pages by file name; "broken" names fail to open.
func fixtureSource(path string) pdf.PageSource {
	name := filepath.Base(path)
	switch {
	case strings.Contains(name, "broken"):
		return fakeSource{err: errBroken}
	case strings.Contains(name, "organizacja_zajec_w_roku_akademickim"):
		return fakeSource{pages: []pdf.Page{{
			Number: 0,
			Fragments: []pdf.Fragment{
				frag("KALENDARZ", 40, 30, 16, "Arial-BoldMT"),
				frag("Inauguracja", 30, 200, 10, "Arial"),
				frag("01.10.2024", 200, 200, 10, "Arial"),
			},
		}}}
	case strings.Contains(name, "empty"):
		return fakeSource{pages: []pdf.Page{{Number: 0}}}
	default:
		return fakeSource{pages: []pdf.Page{{
			Number: 0,
			Fragments: []pdf.Fragment{
				frag("REKRUTACJA", 40, 50, 14, "Arial-BoldMT"),
				frag("Rekrutacja trwa do lipca.", 40, 80, 10, "Arial"),
				frag("Wnioski składa się elektronicznie.", 40, 95, 10, "Arial"),
			},
		}}}
	}
}

func newRegistry(t *testing.T) parsers.ParserRegistry {
	t.Helper()
	logger, _ := ptesting.NewTestLogger(t)
	registry, err := parsers.RegisterPDFPlugins(logger, pdf.WithSource(fixtureSource))
	require.NoError(t, err)
	return registry
}

func TestPDFLoaderRun(t *testing.T) {
	logger, buf := ptesting.NewTestLogger(t)
	jobs := []documentloaders.Job{
		{Path: "docs/organizacja_zajec_w_roku_akademickim.pdf", Parser: "calendar"},
		{Path: "docs/broken.pdf", Parser: "structured"},
		{Path: "docs/informator.pdf", Parser: "structured"},
		{Path: "docs/empty.pdf", Parser: "structured"},
		{Path: "docs/plan.pdf", Parser: "missing"},
	}

	loader := documentloaders.NewPDF(newRegistry(t), jobs,
		documentloaders.WithLogger(logger),
		documentloaders.WithWorkers(2),
	)
	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"docs/organizacja_zajec_w_roku_akademickim.pdf",
		"docs/informator.pdf",
		"docs/empty.pdf",
	}, report.Parsed)

	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "docs/broken.pdf", report.Skipped[0].Path)
	assert.Contains(t, report.Skipped[0].Reason, errBroken.Error())
	assert.Contains(t, report.Skipped[1].Reason, parsers.ErrPluginNotFound.Error())

	require.Len(t, report.Records, 2)
	assert.Equal(t, "KALENDARZ", report.Records[0].Heading)
	assert.Equal(t, "REKRUTACJA", report.Records[1].Heading)
	assert.Equal(t, "Rekrutacja trwa do lipca. Wnioski składa się elektronicznie.", report.Records[1].Content)
	require.NotNil(t, report.Records[1].PageNumber)
	assert.Equal(t, 1, *report.Records[1].PageNumber)

	assert.Contains(t, buf.String(), "Skipping unreadable document")
}

func TestPDFLoaderDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_informator.pdf", "a_organizacja_zajec_w_roku_akademickim.PDF", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o600))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cache", "x.pdf"), nil, 0o600))

	logger, _ := ptesting.NewTestLogger(t)
	loader := documentloaders.NewPDFDir(newRegistry(t), dir, documentloaders.WithLogger(logger))

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, filepath.Join(dir, "a_organizacja_zajec_w_roku_akademickim.PDF"), docs[0].Metadata["source_file"])
	assert.Equal(t, "REKRUTACJA", docs[1].Metadata["heading"])

	_, err = documentloaders.NewPDFDir(newRegistry(t), filepath.Join(dir, "missing")).Run(context.Background())
	assert.Error(t, err)
}

func TestPDFLoaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := documentloaders.NewPDF(newRegistry(t), []documentloaders.Job{{Path: "x.pdf", Parser: "structured"}})
	_, err := loader.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
