// Package extractor turns fetched pages into plain text for the answer
// prompt. Site-specific extractors cover sources whose markup needs
// special treatment; the generic HTML and PDF extractors handle the rest.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/fetcher"
)

// ContentExtractor is implemented by every site-specific extractor.
// Extract returns the page text, or "" with an error describing why the
// page yielded nothing. Implementations never panic.
type ContentExtractor interface {
	// CanHandle reports whether this extractor claims the URL.
	CanHandle(url string) bool
	// Extract fetches the URL and returns its readable text.
	Extract(ctx context.Context, url string) (string, error)
}

// BaseExtractor provides common functionality for all extractors
type BaseExtractor struct {
	Config  *config.AppConfig
	Fetcher *fetcher.Client
}

// NewBaseExtractor creates a common base for extractors
func NewBaseExtractor(cfg *config.AppConfig, client *fetcher.Client) BaseExtractor {
	return BaseExtractor{
		Config:  cfg,
		Fetcher: client,
	}
}

// fetchDocument fetches a page through the shared client and parses it.
func (b *BaseExtractor) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	htmlStr, err := b.Fetcher.GetHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
}

// Registry resolves URLs to extractors. Registration order is match order,
// so more specific sites must be registered before broader ones.
type Registry struct {
	extractors []ContentExtractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an extractor.
func (r *Registry) Register(e ContentExtractor) {
	r.extractors = append(r.extractors, e)
}

// Get returns the first extractor claiming url, or nil when the generic
// path should handle it.
func (r *Registry) Get(url string) ContentExtractor {
	for _, e := range r.extractors {
		if e.CanHandle(url) {
			return e
		}
	}
	return nil
}

// DefaultRegistry wires the full extractor roster: news sites, then blogs,
// then media sources.
func DefaultRegistry(cfg *config.AppConfig, client *fetcher.Client) *Registry {
	r := NewRegistry()
	r.Register(NewChosunExtractor(cfg, client))
	for _, site := range newsSites {
		r.Register(newNewsSiteExtractor(cfg, client, site))
	}
	r.Register(NewNaverBlogExtractor(cfg, client))
	r.Register(NewTistoryExtractor(cfg, client))
	r.Register(NewBrunchExtractor(cfg, client))
	r.Register(NewYouTubeExtractor(cfg, client))
	r.Register(NewWikipediaExtractor(cfg, client))
	return r
}
