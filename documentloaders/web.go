package documentloaders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"github.com/sevigo/campusrag/schema"
)

var (
	ErrInvalidStartURL = errors.New("documentloaders: invalid start URL")
	errNotHTML         = errors.New("not an HTML page")
)

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// Page is one crawled HTML page converted to markdown.
type Page struct {
	URL      string
	Title    string
	Markdown string
}

// CrawlReport lists what a crawl visited.
type CrawlReport struct {
	Pages      []Page
	Failed     []Skipped
	Downloaded []string
	Records    []schema.ChunkRecord
}

// WebLoader crawls a website breadth-first, staying on the start host, and
// splits every page into heading sections.
type WebLoader struct {
	start     *url.URL
	cfg       config
	converter *md.Converter
}

func NewWeb(startURL string, opts ...Option) (*WebLoader, error) {
	u, err := url.Parse(startURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStartURL, startURL)
	}
	u.Fragment = ""

	cfg := newConfig(opts)
	cfg.logger = cfg.logger.With("component", "web_loader", "host", u.Host)

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &WebLoader{start: u, cfg: cfg, converter: converter}, nil
}

// Crawl visits at most MaxPages pages. Pages that fail to load are reported
// and skipped.
func (w *WebLoader) Crawl(ctx context.Context) (CrawlReport, error) {
	var report CrawlReport
	queue := []*url.URL{w.start}
	seen := map[string]bool{w.start.String(): true}
	downloaded := make(map[string]bool)

	for len(queue) > 0 && len(report.Pages) < w.cfg.maxPages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		current := queue[0]
		queue = queue[1:]
		if w.cfg.exclude[current.String()] {
			continue
		}

		w.cfg.logger.Debug("Crawling page", "url", current.String())
		page, links, err := w.fetch(ctx, current)
		if err != nil {
			if !errors.Is(err, errNotHTML) {
				w.cfg.logger.Warn("Skipping page", "url", current.String(), "error", err)
				report.Failed = append(report.Failed, Skipped{Path: current.String(), Reason: err.Error()})
			}
			continue
		}
		report.Pages = append(report.Pages, page)

		records, err := w.records(page)
		if err != nil {
			return report, err
		}
		report.Records = append(report.Records, records...)

		for _, link := range links {
			key := link.String()
			switch {
			case seen[key] || w.cfg.exclude[key]:
			case isPDFLink(link):
				if w.cfg.downloadDir != "" && !downloaded[key] {
					downloaded[key] = true
					if file, err := w.download(ctx, link); err != nil {
						w.cfg.logger.Warn("PDF download failed", "url", key, "error", err)
					} else if file != "" {
						report.Downloaded = append(report.Downloaded, file)
					}
				}
			case link.Host == w.start.Host:
				seen[key] = true
				queue = append(queue, link)
			}
		}
	}

	w.cfg.logger.Info("Crawl completed",
		"pages", len(report.Pages),
		"failed", len(report.Failed),
		"records", len(report.Records),
		"downloaded", len(report.Downloaded),
	)
	return report, nil
}

// Load crawls the site and returns its sections as documents.
func (w *WebLoader) Load(ctx context.Context) ([]schema.Document, error) {
	report, err := w.Crawl(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, len(report.Records))
	for i, rec := range report.Records {
		docs[i] = rec.ToDocument()
	}
	return docs, nil
}

func (w *WebLoader) fetch(ctx context.Context, u *url.URL) (Page, []*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, nil, err
	}
	req.Header.Set("User-Agent", w.cfg.userAgent)

	resp, err := w.cfg.httpClient.Do(req)
	if err != nil {
		return Page{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); !strings.Contains(ct, "text/html") {
		return Page{}, nil, errNotHTML
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Page{}, nil, fmt.Errorf("parsing html: %w", err)
	}

	links := extractLinks(doc, resp.Request.URL)
	page := Page{
		URL:      u.String(),
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Markdown: w.toMarkdown(doc),
	}
	return page, links, nil
}

// toMarkdown converts the main content area, or the body stripped of
// navigation, to markdown.
func (w *WebLoader) toMarkdown(doc *goquery.Document) string {
	doc.Find("script, style, noscript, iframe, form").Remove()

	content := doc.Find("main, article, [role=main]").First()
	if content.Length() == 0 {
		content = doc.Find("body").First()
		content.Find("nav, header, footer, aside, .menu, .navbar, .sidebar, .breadcrumb").Remove()
	}

	markdown := w.converter.Convert(content)
	markdown = excessiveLinesRe.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}

func (w *WebLoader) records(page Page) ([]schema.ChunkRecord, error) {
	sections, err := w.cfg.splitter.Split(page.Markdown)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", page.URL, err)
	}
	records := make([]schema.ChunkRecord, 0, len(sections))
	for _, sec := range sections {
		records = append(records, schema.ChunkRecord{
			Heading:    sec.Heading,
			Content:    sec.Body,
			SourceFile: page.URL,
		})
	}
	return records, nil
}

func (w *WebLoader) download(ctx context.Context, u *url.URL) (string, error) {
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", nil
	}
	if !strings.EqualFold(path.Ext(name), ".pdf") {
		name += ".pdf"
	}
	target := filepath.Join(w.cfg.downloadDir, name)
	if _, err := os.Stat(target); err == nil {
		w.cfg.logger.Debug("Already downloaded", "file", target)
		return "", nil
	}
	if err := os.MkdirAll(w.cfg.downloadDir, 0o755); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", w.cfg.userAgent)
	resp, err := w.cfg.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(target)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	w.cfg.logger.Info("Downloaded PDF", "url", u.String(), "file", target)
	return target, nil
}

// extractLinks resolves every http(s) anchor against base, without fragments.
func extractLinks(doc *goquery.Document, base *url.URL) []*url.URL {
	var links []*url.URL
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		links = append(links, abs)
	})
	return links
}

func isPDFLink(u *url.URL) bool {
	return strings.EqualFold(path.Ext(u.Path), ".pdf")
}
