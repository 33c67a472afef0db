// Package search turns planned queries into normalized results from one of
// the supported providers: serper, serpapi, brave, or duckduckgo.
package search

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/fetcher"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Type is a search vertical as it appears in a query plan.
type Type string

const (
	TypeSearch   Type = "Search"
	TypeNews     Type = "News"
	TypeVideos   Type = "Videos"
	TypeScholar  Type = "Scholar"
	TypeImages   Type = "Images"
	TypePlaces   Type = "Places"
	TypeShopping Type = "Shopping"
)

// Recency windows a plan may request.
const (
	PeriodAny       = "Any time"
	PeriodPastHour  = "Past hour"
	PeriodPastDay   = "Past 24 hours"
	PeriodPastWeek  = "Past week"
	PeriodPastMonth = "Past month"
	PeriodPastYear  = "Past year"
)

// tbsByPeriod is the Google time-bounded-search parameter shared by the
// serper and serpapi providers.
var tbsByPeriod = map[string]string{
	PeriodPastHour:  "qdr:h",
	PeriodPastDay:   "qdr:d",
	PeriodPastWeek:  "qdr:w",
	PeriodPastMonth: "qdr:m",
	PeriodPastYear:  "qdr:y",
}

// PlannedQuery is one rewritten query with its vertical, language, and
// recency window.
type PlannedQuery struct {
	Query    string `json:"query"`
	Type     Type   `json:"type"`
	Language string `json:"language"`
	Period   string `json:"period"`
}

// Hit is one normalized search result.
type Hit struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	ImageURL string `json:"image_url"`
	Date     string `json:"date"`
	Language string `json:"language"`
	Type     string `json:"type"`
	PDFURL   string `json:"pdf_url"`
}

// Provider executes one planned query against a concrete backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, plan PlannedQuery) ([]Hit, error)
}

// Options carry the per-request switches that change provider behavior.
type Options struct {
	// UseYouTubeTranscript keeps video results crawlable as transcripts
	// and drops regular youtube pages from the web verticals.
	UseYouTubeTranscript bool
}

// defaultExcludes filters low-value or crawl-hostile domains from every
// search. Matching is substring on the result URL.
var defaultExcludes = []string{
	"namu.wiki",
	"cio.com",
	"FileDown",
	"Download",
	"down",
	"lilys.ai",
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"tiktok.com",
}

// excludeLists builds the web and video exclusion lists for one request.
// The video list never contains youtube.com, otherwise transcript
// crawling would have nothing to work on.
func excludeLists(extra []string, useYouTubeTranscript bool) (web, video []string) {
	base := make([]string, 0, len(defaultExcludes)+len(extra))
	base = append(base, defaultExcludes...)
	base = append(base, extra...)
	video = base
	web = base
	if useYouTubeTranscript {
		web = append(append(make([]string, 0, len(base)+1), base...), "youtube.com")
	}
	return web, video
}

func excluded(url string, excludes []string) bool {
	for _, domain := range excludes {
		if strings.Contains(url, domain) {
			return true
		}
	}
	return false
}

// filterExcluded drops hits whose URL matches the exclusion list.
func filterExcluded(hits []Hit, excludes []string) []Hit {
	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if excluded(h.URL, excludes) {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// NewProvider builds the provider selected by SEARCH_ENGINE.
func NewProvider(cfg *config.AppConfig, client *fetcher.Client, opts Options) (Provider, error) {
	web, video := excludeLists(cfg.ExcludeDomains, opts.UseYouTubeTranscript)
	switch cfg.SearchEngine {
	case "serper":
		return newSerperProvider(cfg.SerperAPIKey, client, cfg.NumOutputPerQuery, web, video), nil
	case "serpapi":
		return newSerpAPIProvider(cfg.SerpAPIKey, client, cfg.NumOutputPerQuery, web, video), nil
	case "brave":
		return newBraveProvider(cfg.BraveAPIKey, client, cfg.NumOutputPerQuery, web, video, opts.UseYouTubeTranscript), nil
	case "duckduckgo":
		return newDuckDuckGoProvider(cfg.NumOutputPerQuery, web), nil
	}
	return nil, fmt.Errorf("unknown search engine: %s", cfg.SearchEngine)
}

// scalar renders a decoded JSON value the way a template would: strings
// bare, numbers without exponent noise, missing values empty.
func scalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
