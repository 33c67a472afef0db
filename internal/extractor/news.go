package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/encoding/korean"

	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/fetcher"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newsSite describes one outlet whose article body lives under a known
// selector. cutAt truncates the trailing boilerplate (like buttons,
// copyright lines) that shares the body container.
type newsSite struct {
	name     string
	host     string
	selector string
	cutAt    string
	// rewrite maps mobile URLs to the desktop page carrying the full body.
	rewrite func(url string) string
	// joinBlocks extracts every match as its own paragraph instead of the
	// first match's subtree.
	joinBlocks bool
	// euckr marks sites still serving cp949 without declaring it.
	euckr bool
}

var newsSites = []newsSite{
	{name: "donga", host: "donga.com", selector: "[class~=main_view]", cutAt: "좋아요"},
	{
		name:     "nate",
		host:     "news.nate.com",
		selector: "[class~=content_view]",
		rewrite: func(url string) string {
			return strings.Replace(url, "m.news.nate.com", "news.nate.com", 1)
		},
	},
	{name: "sedaily", host: "sedaily.com", selector: "[class~=article_con]", cutAt: "저작권자"},
	{name: "kmib", host: "kmib.co.kr", selector: "[class~=article_content]", cutAt: "GoodNews paper", euckr: true},
	{name: "aitimes", host: "aitimes.com", selector: "#article-view-content-div"},
	{
		name:     "dongascience",
		host:     "dongascience.com",
		selector: "[id~=contents]",
		cutAt:    "Copyright",
		rewrite: func(url string) string {
			return strings.Replace(url, "m.dongascience.com", "www.dongascience.com", 1)
		},
	},
	{name: "mt", host: "mt.co.kr", selector: "[class~=article_view]", cutAt: "저작권자"},
	{name: "sbs", host: "news.sbs.co.kr", selector: "[class~=w_article_cont]"},
	{name: "ohmynews", host: "ohmynews.com", selector: "[class~=atc_view2025]"},
	{name: "bbc", host: "bbc.com", selector: "[data-component=text-block]", joinBlocks: true},
}

// newsSiteExtractor extracts one newsSite entry.
type newsSiteExtractor struct {
	BaseExtractor
	site newsSite
}

func newNewsSiteExtractor(cfg *config.AppConfig, client *fetcher.Client, site newsSite) *newsSiteExtractor {
	return &newsSiteExtractor{
		BaseExtractor: NewBaseExtractor(cfg, client),
		site:          site,
	}
}

func (e *newsSiteExtractor) CanHandle(url string) bool {
	return strings.Contains(url, e.site.host)
}

func (e *newsSiteExtractor) Extract(ctx context.Context, url string) (string, error) {
	if e.site.rewrite != nil {
		url = e.site.rewrite(url)
	}

	var doc *goquery.Document
	var err error
	if e.site.euckr {
		body, ferr := e.Fetcher.GetBytes(ctx, url)
		if ferr != nil {
			return "", ferr
		}
		decoded, derr := korean.EUCKR.NewDecoder().Bytes(body)
		if derr != nil {
			decoded = body
		}
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(string(decoded)))
	} else {
		doc, err = e.fetchDocument(ctx, url)
	}
	if err != nil {
		return "", err
	}
	sel := doc.Find(e.site.selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("%s: no content under %q", e.site.name, e.site.selector)
	}

	var text string
	if e.site.joinBlocks {
		var parts []string
		sel.Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(selectionText(s)); t != "" {
				parts = append(parts, t)
			}
		})
		text = strings.Join(parts, "\n")
	} else {
		text = selectionText(sel.First())
	}
	if e.site.cutAt != "" {
		text = cutAfter(text, e.site.cutAt)
	}

	text = collapseBlankLines(text)
	if text == "" {
		return "", fmt.Errorf("%s: article body empty", e.site.name)
	}
	return text, nil
}

// selectionText renders a goquery selection through the line-per-run
// walker so sibling elements stay separated.
func selectionText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		visibleText(&b, n)
	}
	return b.String()
}

// ChosunExtractor reads chosun.com articles. The rendered page hides the
// body behind scripts, but the fusion metadata script carries the full
// article as JSON.
type ChosunExtractor struct {
	BaseExtractor
}

// NewChosunExtractor creates an extractor for chosun.com articles.
func NewChosunExtractor(cfg *config.AppConfig, client *fetcher.Client) *ChosunExtractor {
	return &ChosunExtractor{BaseExtractor: NewBaseExtractor(cfg, client)}
}

// CanHandle claims chosun.com URLs, subdomains included.
func (e *ChosunExtractor) CanHandle(url string) bool {
	return strings.Contains(url, "chosun.com")
}

// Extract pulls the article text out of the fusion metadata script.
func (e *ChosunExtractor) Extract(ctx context.Context, url string) (string, error) {
	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}
	script := doc.Find("script#fusion-metadata").Text()
	if script == "" {
		return "", errors.New("chosun: fusion metadata script missing")
	}
	return chosunBodyText(script)
}

type fusionContent struct {
	ContentElements []struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"content_elements"`
}

// chosunBodyText parses the Fusion.globalContent assignment inside the
// metadata script and joins its text elements.
func chosunBodyText(script string) (string, error) {
	const marker = "Fusion.globalContent="
	idx := strings.Index(script, marker)
	if idx < 0 {
		return "", errors.New("chosun: global content assignment missing")
	}
	payload := script[idx+len(marker):]
	if end := strings.Index(payload, ";Fusion."); end >= 0 {
		payload = payload[:end]
	}
	payload = strings.TrimSuffix(strings.TrimSpace(payload), ";")

	var content fusionContent
	if err := json.Unmarshal([]byte(payload), &content); err != nil {
		// Trailing script junk shows up on some layouts. Retry at the
		// outermost closing brace.
		last := strings.LastIndex(payload, "}")
		if last < 0 {
			return "", err
		}
		if err2 := json.Unmarshal([]byte(payload[:last+1]), &content); err2 != nil {
			return "", err
		}
	}

	var parts []string
	for _, el := range content.ContentElements {
		if el.Type != "text" {
			continue
		}
		if t := strings.TrimSpace(el.Content); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("chosun: no text elements in article")
	}
	return strings.Join(parts, "\n"), nil
}
