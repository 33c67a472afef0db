package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"web-search-answer-api/internal/fetcher"
	"web-search-answer-api/internal/language"
)

const serperBaseURL = "https://google.serper.dev"

// serperEndpoints maps plan verticals onto serper API paths.
var serperEndpoints = map[Type]string{
	TypeSearch:   "search",
	TypeNews:     "news",
	TypeVideos:   "videos",
	TypeScholar:  "scholar",
	TypeShopping: "shopping",
	TypePlaces:   "places",
	TypeImages:   "images",
}

type serperProvider struct {
	apiKey       string
	client       *fetcher.Client
	num          int
	webExclude   []string
	videoExclude []string
	baseURL      string
}

func newSerperProvider(apiKey string, client *fetcher.Client, num int, webExclude, videoExclude []string) *serperProvider {
	return &serperProvider{
		apiKey:       apiKey,
		client:       client,
		num:          num,
		webExclude:   webExclude,
		videoExclude: videoExclude,
		baseURL:      serperBaseURL,
	}
}

func (p *serperProvider) Name() string { return "serper" }

// serperItem is a superset of the fields the per-vertical responses carry.
type serperItem struct {
	Title           string      `json:"title"`
	Link            string      `json:"link"`
	Snippet         string      `json:"snippet"`
	Date            string      `json:"date"`
	ImageURL        string      `json:"imageUrl"`
	PublicationInfo string      `json:"publicationInfo"`
	Year            interface{} `json:"year"`
	CitedBy         interface{} `json:"citedBy"`
	PDFURL          string      `json:"pdfUrl"`
	Price           interface{} `json:"price"`
	Delivery        string      `json:"delivery"`
	Address         string      `json:"address"`
	Category        string      `json:"category"`
	Rating          interface{} `json:"rating"`
	Website         string      `json:"website"`
}

type serperResponse struct {
	Organic  []serperItem `json:"organic"`
	News     []serperItem `json:"news"`
	Videos   []serperItem `json:"videos"`
	Shopping []serperItem `json:"shopping"`
	Places   []serperItem `json:"places"`
	Images   []serperItem `json:"images"`
}

func (p *serperProvider) Search(ctx context.Context, plan PlannedQuery) ([]Hit, error) {
	endpoint, ok := serperEndpoints[plan.Type]
	if !ok {
		endpoint = "search"
	}
	lang := language.FromCode(plan.Language)

	payload := map[string]interface{}{
		"q":   plan.Query,
		"num": p.num,
		"hl":  lang.HL,
	}
	if tbs := tbsByPeriod[plan.Period]; tbs != "" {
		payload["tbs"] = tbs
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling serper payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("creating serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching serper results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("serper request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var decoded serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding serper response: %w", err)
	}

	items := decoded.Organic
	switch endpoint {
	case "news":
		items = decoded.News
	case "videos":
		items = decoded.Videos
	case "shopping":
		items = decoded.Shopping
	case "places":
		items = decoded.Places
	case "images":
		items = decoded.Images
	}

	hits := make([]Hit, 0, len(items))
	for _, item := range items {
		hits = append(hits, serperHit(endpoint, plan, item))
	}
	excludes := p.webExclude
	if plan.Type == TypeVideos {
		excludes = p.videoExclude
	}
	return filterExcluded(hits, excludes), nil
}

// serperHit normalizes one response item. The verticals without a natural
// snippet get a composed one so the outline and answer prompts always see
// text.
func serperHit(endpoint string, plan PlannedQuery, item serperItem) Hit {
	hit := Hit{
		URL:      item.Link,
		Title:    item.Title,
		Snippet:  item.Snippet,
		ImageURL: item.ImageURL,
		Date:     item.Date,
		Language: plan.Language,
		Type:     endpoint,
		PDFURL:   item.PDFURL,
	}
	switch endpoint {
	case "scholar":
		hit.Snippet = fmt.Sprintf("스니펫: %s, 출판정보: %s, 인용횟수: %s, 출판일: %s",
			item.Snippet, item.PublicationInfo, scalar(item.CitedBy), scalar(item.Year))
	case "shopping":
		hit.Snippet = fmt.Sprintf("가격: %s, 배송비: %s", scalar(item.Price), item.Delivery)
	case "places":
		hit.URL = item.Website
		hit.Snippet = fmt.Sprintf("주소: %s, 카테고리: %s, 평점: %s, 웹사이트: %s",
			item.Address, item.Category, scalar(item.Rating), item.Website)
	}
	return hit
}
