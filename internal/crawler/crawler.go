// Package crawler resolves search hits into content rows for the answer
// prompt. Per-source failures become short diagnostic strings instead of
// failing the request; one dead page should not cost the whole answer.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/extractor"
	"web-search-answer-api/internal/fetcher"
	"web-search-answer-api/internal/search"
	"web-search-answer-api/internal/store"
	"web-search-answer-api/internal/worker"
)

const (
	// maxContentLen caps row content in runes.
	maxContentLen = 20000

	// Decode budgets for the generic path. Parsing runs on the worker
	// pool; a page that cannot be decoded in time is reported, not waited
	// on.
	pdfDecodeBudget  = 1500 * time.Millisecond
	htmlDecodeBudget = 500 * time.Millisecond
)

// Row is one crawled source as serialized into the answer prompt.
type Row struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	ImageURL string `json:"image_url"`
	Date     string `json:"date"`
	PDFURL   string `json:"pdf_url"`
	Content  string `json:"content"`
}

// DocumentGetter is the read side of the document store.
type DocumentGetter interface {
	Get(ctx context.Context, url string) (*store.Document, error)
}

// Crawler fetches and extracts page content for search hits.
type Crawler struct {
	registry *extractor.Registry
	fetcher  *fetcher.Client
	workers  *worker.Pool
	docs     DocumentGetter
	useDB    bool
	html     *extractor.GenericHTMLExtractor
	pdf      *extractor.GenericPDFExtractor
}

// New builds the crawler. docs may be nil when database reads are off.
func New(cfg *config.AppConfig, registry *extractor.Registry, client *fetcher.Client, pool *worker.Pool, docs DocumentGetter) *Crawler {
	return &Crawler{
		registry: registry,
		fetcher:  client,
		workers:  pool,
		docs:     docs,
		useDB:    cfg.UseDBContent && docs != nil,
		html:     extractor.NewGenericHTMLExtractor(),
		pdf:      extractor.NewGenericPDFExtractor(),
	}
}

// Crawl resolves one search hit into its content row.
func (c *Crawler) Crawl(ctx context.Context, hit search.Hit) Row {
	url := fetchURL(hit.URL)

	var content string
	if c.useDB {
		if doc, err := c.docs.Get(ctx, url); err == nil && doc != nil && doc.Content != "" {
			content = doc.Content
		}
	}
	if content == "" {
		content = c.extract(ctx, url)
	}

	return Row{
		Title:    hit.Title,
		URL:      hit.URL,
		Snippet:  hit.Snippet,
		ImageURL: hit.ImageURL,
		Date:     hit.Date,
		PDFURL:   hit.PDFURL,
		Content:  truncate(content, maxContentLen),
	}
}

// fetchURL maps a hit URL to the URL actually fetched. The arxiv
// abstract page is a landing page; the PDF has the paper.
func fetchURL(url string) string {
	if strings.Contains(url, "arxiv.org/abs") {
		return strings.Replace(url, "/abs/", "/pdf/", 1)
	}
	return url
}

// extract runs the site extractor when one claims the URL, the generic
// fetch otherwise.
func (c *Crawler) extract(ctx context.Context, url string) string {
	if ex := c.registry.Get(url); ex != nil {
		text, err := ex.Extract(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("extractor failed")
			return diagnostic(err)
		}
		return text
	}
	return c.fetchGeneric(ctx, url)
}

// fetchGeneric downloads a URL no site extractor claims: PDFs and HTML
// go through the capped decoders on the worker pool, plain text is kept
// as is, and every other content type is dropped.
func (c *Crawler) fetchGeneric(ctx context.Context, url string) string {
	body, contentType, err := c.fetcher.FetchCapped(ctx, url)
	if err != nil {
		var status *fetcher.HTTPStatusError
		if errors.As(err, &status) {
			// Non-200 pages on unknown sites stay empty rows.
			return ""
		}
		log.Warn().Err(err).Str("url", url).Msg("generic fetch failed")
		return diagnostic(err)
	}
	if len(body) == 0 {
		return ""
	}

	switch {
	case strings.Contains(contentType, "application/pdf"):
		return c.decodePDF(ctx, body)
	case strings.Contains(contentType, "text/html"):
		return c.decodeHTML(ctx, body)
	case strings.Contains(contentType, "text/"):
		return truncate(fetcher.DecodeText(body), maxContentLen)
	}
	return ""
}

func (c *Crawler) decodePDF(ctx context.Context, body []byte) string {
	ctx, cancel := context.WithTimeout(ctx, pdfDecodeBudget)
	defer cancel()
	text, err := c.workers.Submit(ctx, func() string {
		text, err := c.pdf.Text(body)
		if err != nil {
			return ""
		}
		return text
	})
	if err != nil {
		return diagnostic(err)
	}
	return text
}

func (c *Crawler) decodeHTML(ctx context.Context, body []byte) string {
	ctx, cancel := context.WithTimeout(ctx, htmlDecodeBudget)
	defer cancel()
	text, err := c.workers.Submit(ctx, func() string {
		text, err := c.html.Text(fetcher.DecodeText(body))
		if err != nil {
			return ""
		}
		return text
	})
	if err != nil {
		return diagnostic(err)
	}
	return text
}

// diagnostic renders a failure as short row content, so the answer model
// sees why a source is missing instead of silence.
func diagnostic(err error) string {
	var status *fetcher.HTTPStatusError
	if errors.As(err, &status) {
		return fmt.Sprintf("Failed to fetch with status %d", status.Code)
	}
	if kind := fetcher.Kind(err); kind != "" {
		return "Request failed: " + kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, worker.ErrQueueFull) {
		return "Processing timed out"
	}
	return "Error: " + errorKind(err)
}

// errorKind names an error after its Go type, package path and pointer
// mark stripped.
func errorKind(err error) string {
	kind := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndex(kind, "."); i >= 0 {
		kind = kind[i+1:]
	}
	return kind
}

// diagnosticPrefixes are the shapes diagnostic produces, checked by
// IsDiagnostic.
var diagnosticPrefixes = []string{
	"Failed to fetch with status ",
	"Request failed: ",
	"Processing timed out",
	"Error: ",
}

// IsDiagnostic reports whether content is a crawl failure note rather
// than page text. The store must not cache these, or the failure would
// short-circuit every later crawl of the same URL.
func IsDiagnostic(content string) bool {
	for _, prefix := range diagnosticPrefixes {
		if strings.HasPrefix(content, prefix) {
			return true
		}
	}
	return false
}

// truncate caps s at max runes without splitting a character.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	seen := 0
	for i := range s {
		if seen == max {
			return s[:i]
		}
		seen++
	}
	return s
}

// MultipleCrawl fetches every hit concurrently, preserving input order.
func (c *Crawler) MultipleCrawl(ctx context.Context, hits []search.Hit) []Row {
	start := time.Now()
	rows := make([]Row, len(hits))
	var wg sync.WaitGroup
	for i, hit := range hits {
		wg.Add(1)
		go func(i int, hit search.Hit) {
			defer wg.Done()
			rows[i] = c.Crawl(ctx, hit)
		}(i, hit)
	}
	wg.Wait()

	extracted := 0
	for _, row := range rows {
		if row.Content != "" {
			extracted++
		}
	}
	log.Info().
		Int("extracted", extracted).
		Int("total", len(hits)).
		Dur("elapsed", time.Since(start)).
		Msg("crawl finished")
	return rows
}
