package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"web-search-answer-api/internal/fetcher"
	"web-search-answer-api/internal/language"
)

const braveBaseURL = "https://api.search.brave.com/res/v1"

// braveFreshness maps recency windows onto brave's freshness codes. Brave
// has no hour window, so the day code is the closest equivalent.
var braveFreshness = map[string]string{
	PeriodPastHour:  "pd",
	PeriodPastDay:   "pd",
	PeriodPastWeek:  "pw",
	PeriodPastMonth: "pm",
	PeriodPastYear:  "py",
}

// braveEndpoint picks the vertical. Brave only exposes web, news, videos,
// and images, so the remaining plan types search the web vertical.
func braveEndpoint(t Type) string {
	switch t {
	case TypeNews:
		return "news"
	case TypeVideos:
		return "videos"
	case TypeImages:
		return "images"
	}
	return "web"
}

type braveProvider struct {
	apiKey       string
	client       *fetcher.Client
	num          int
	webExclude   []string
	videoExclude []string
	appendVideos bool
	baseURL      string
}

func newBraveProvider(apiKey string, client *fetcher.Client, num int, webExclude, videoExclude []string, appendVideos bool) *braveProvider {
	return &braveProvider{
		apiKey:       apiKey,
		client:       client,
		num:          num,
		webExclude:   webExclude,
		videoExclude: videoExclude,
		appendVideos: appendVideos,
		baseURL:      braveBaseURL,
	}
}

func (p *braveProvider) Name() string { return "brave" }

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
	PageAge     string `json:"page_age"`
	Language    string `json:"language"`
	Thumbnail   struct {
		Src string `json:"src"`
	} `json:"thumbnail"`
	Video struct {
		Duration  string `json:"duration"`
		Creator   string `json:"creator"`
		Publisher string `json:"publisher"`
	} `json:"video"`
	Properties struct {
		URL string `json:"url"`
	} `json:"properties"`
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
	Results []braveResult `json:"results"`
}

func (p *braveProvider) Search(ctx context.Context, plan PlannedQuery) ([]Hit, error) {
	endpoint := braveEndpoint(plan.Type)
	hits, err := p.searchEndpoint(ctx, endpoint, plan)
	if err != nil {
		return nil, err
	}
	// Transcript mode widens a web search with the matching videos so
	// youtube sources survive the youtube.com web exclusion.
	if p.appendVideos && endpoint == "web" {
		videoHits, err := p.searchEndpoint(ctx, "videos", plan)
		if err == nil {
			hits = append(hits, videoHits...)
		}
	}
	return hits, nil
}

func (p *braveProvider) searchEndpoint(ctx context.Context, endpoint string, plan PlannedQuery) ([]Hit, error) {
	lang := language.FromCode(plan.Language)

	params := url.Values{}
	params.Set("q", plan.Query)
	params.Set("count", strconv.Itoa(p.num))
	params.Set("search_lang", lang.Code)
	if freshness := braveFreshness[plan.Period]; freshness != "" {
		params.Set("freshness", freshness)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+endpoint+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating brave request: %w", err)
	}
	req.Header.Set("X-Subscription-Token", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching brave results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("brave request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var decoded braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding brave response: %w", err)
	}

	results := decoded.Results
	if endpoint == "web" {
		results = decoded.Web.Results
	}

	hits := make([]Hit, 0, len(results))
	for _, result := range results {
		hits = append(hits, braveHit(endpoint, plan, result))
	}
	excludes := p.webExclude
	if endpoint == "videos" {
		excludes = p.videoExclude
	}
	return filterExcluded(hits, excludes), nil
}

func braveHit(endpoint string, plan PlannedQuery, result braveResult) Hit {
	hit := Hit{
		URL:      result.URL,
		Title:    result.Title,
		Snippet:  result.Description,
		ImageURL: result.Thumbnail.Src,
		Date:     result.Age,
		Language: plan.Language,
		Type:     braveType(endpoint),
	}
	if hit.Date == "" {
		hit.Date = result.PageAge
	}
	if result.Language != "" {
		hit.Language = result.Language
	}
	if endpoint == "videos" {
		var details []string
		if result.Video.Duration != "" {
			details = append(details, result.Video.Duration)
		}
		if result.Video.Creator != "" {
			details = append(details, result.Video.Creator)
		}
		if len(details) > 0 {
			hit.Snippet = strings.TrimSpace(hit.Snippet + "\n\n" + strings.Join(details, " · "))
		}
	}
	if endpoint == "images" && result.Properties.URL != "" {
		hit.ImageURL = result.Properties.URL
	}
	return hit
}

func braveType(endpoint string) string {
	switch endpoint {
	case "news":
		return "news"
	case "videos":
		return "videos"
	case "images":
		return "images"
	}
	return "search"
}
