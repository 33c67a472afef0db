package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"web-search-answer-api/internal/fetcher"
	"web-search-answer-api/internal/language"
)

const serpAPIBaseURL = "https://serpapi.com/search"

// serpAPIEngines maps plan verticals onto serpapi engine names.
var serpAPIEngines = map[Type]string{
	TypeSearch:   "google",
	TypeNews:     "google_news",
	TypeVideos:   "google_videos",
	TypeScholar:  "google_scholar",
	TypeShopping: "google_shopping",
	TypePlaces:   "google_maps",
	TypeImages:   "google_images",
}

type serpAPIProvider struct {
	apiKey       string
	client       *fetcher.Client
	num          int
	webExclude   []string
	videoExclude []string
	baseURL      string
}

func newSerpAPIProvider(apiKey string, client *fetcher.Client, num int, webExclude, videoExclude []string) *serpAPIProvider {
	return &serpAPIProvider{
		apiKey:       apiKey,
		client:       client,
		num:          num,
		webExclude:   webExclude,
		videoExclude: videoExclude,
		baseURL:      serpAPIBaseURL,
	}
}

func (p *serpAPIProvider) Name() string { return "serpapi" }

type serpAPIItem struct {
	Title           string      `json:"title"`
	Link            string      `json:"link"`
	Snippet         string      `json:"snippet"`
	Date            string      `json:"date"`
	Thumbnail       string      `json:"thumbnail"`
	Original        string      `json:"original"`
	Address         string      `json:"address"`
	Website         string      `json:"website"`
	Category        string      `json:"type"`
	Rating          interface{} `json:"rating"`
	Price           interface{} `json:"price"`
	Delivery        string      `json:"delivery"`
	ProductLink     string      `json:"product_link"`
	PublicationInfo struct {
		Summary string `json:"summary"`
	} `json:"publication_info"`
	InlineLinks struct {
		CitedBy struct {
			Total interface{} `json:"total"`
		} `json:"cited_by"`
	} `json:"inline_links"`
	Resources []struct {
		Link       string `json:"link"`
		FileFormat string `json:"file_format"`
	} `json:"resources"`
}

type serpAPIResponse struct {
	OrganicResults  []serpAPIItem `json:"organic_results"`
	NewsResults     []serpAPIItem `json:"news_results"`
	VideoResults    []serpAPIItem `json:"video_results"`
	ShoppingResults []serpAPIItem `json:"shopping_results"`
	LocalResults    []serpAPIItem `json:"local_results"`
	ImagesResults   []serpAPIItem `json:"images_results"`
}

func (p *serpAPIProvider) Search(ctx context.Context, plan PlannedQuery) ([]Hit, error) {
	engine, ok := serpAPIEngines[plan.Type]
	if !ok {
		engine = "google"
	}
	lang := language.FromCode(plan.Language)

	params := url.Values{}
	params.Set("api_key", p.apiKey)
	params.Set("engine", engine)
	params.Set("q", plan.Query)
	params.Set("num", strconv.Itoa(p.num))
	params.Set("hl", lang.HL)
	if tbs := tbsByPeriod[plan.Period]; tbs != "" {
		params.Set("tbs", tbs)
	}
	if engine == "google_maps" {
		params.Set("type", "search")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating serpapi request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching serpapi results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("serpapi request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var decoded serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding serpapi response: %w", err)
	}

	items := decoded.OrganicResults
	switch engine {
	case "google_news":
		items = decoded.NewsResults
	case "google_videos":
		items = decoded.VideoResults
	case "google_shopping":
		items = decoded.ShoppingResults
	case "google_maps":
		items = decoded.LocalResults
	case "google_images":
		items = decoded.ImagesResults
	}

	hits := make([]Hit, 0, len(items))
	for _, item := range items {
		hits = append(hits, serpAPIHit(engine, plan, item))
	}
	excludes := p.webExclude
	if plan.Type == TypeVideos {
		excludes = p.videoExclude
	}
	return filterExcluded(hits, excludes), nil
}

func serpAPIHit(engine string, plan PlannedQuery, item serpAPIItem) Hit {
	hit := Hit{
		URL:      item.Link,
		Title:    item.Title,
		Snippet:  item.Snippet,
		ImageURL: item.Thumbnail,
		Date:     item.Date,
		Language: plan.Language,
		Type:     serpAPIType(engine),
	}
	switch engine {
	case "google_scholar":
		for _, res := range item.Resources {
			if res.FileFormat == "PDF" {
				hit.PDFURL = res.Link
				break
			}
		}
		hit.Snippet = fmt.Sprintf("스니펫: %s, 출판정보: %s, 인용횟수: %s",
			item.Snippet, item.PublicationInfo.Summary, scalar(item.InlineLinks.CitedBy.Total))
	case "google_shopping":
		if hit.URL == "" {
			hit.URL = item.ProductLink
		}
		hit.Snippet = fmt.Sprintf("가격: %s, 배송비: %s", scalar(item.Price), item.Delivery)
	case "google_maps":
		hit.URL = item.Website
		hit.Snippet = fmt.Sprintf("주소: %s, 카테고리: %s, 평점: %s, 웹사이트: %s",
			item.Address, item.Category, scalar(item.Rating), item.Website)
	case "google_images":
		if item.Original != "" {
			hit.ImageURL = item.Original
		}
	}
	return hit
}

// serpAPIType turns an engine name into the vertical tag stored on hits.
func serpAPIType(engine string) string {
	switch engine {
	case "google":
		return "search"
	case "google_news":
		return "news"
	case "google_videos":
		return "videos"
	case "google_scholar":
		return "scholar"
	case "google_shopping":
		return "shopping"
	case "google_maps":
		return "places"
	case "google_images":
		return "images"
	}
	return "search"
}
