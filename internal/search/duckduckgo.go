package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"web-search-answer-api/internal/language"
	"web-search-answer-api/internal/useragent"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// duckDuckGoTimelimit maps recency windows onto the df parameter. There is
// no hour window, so the day code is the closest equivalent.
var duckDuckGoTimelimit = map[string]string{
	PeriodPastHour:  "d",
	PeriodPastDay:   "d",
	PeriodPastWeek:  "w",
	PeriodPastMonth: "m",
	PeriodPastYear:  "y",
}

// duckDuckGoProvider scrapes the html endpoint, which serves every vertical
// as plain text results and needs no API key.
type duckDuckGoProvider struct {
	num      int
	exclude  []string
	endpoint string
}

func newDuckDuckGoProvider(num int, exclude []string) *duckDuckGoProvider {
	return &duckDuckGoProvider{num: num, exclude: exclude, endpoint: duckDuckGoURL}
}

func (p *duckDuckGoProvider) Name() string { return "duckduckgo" }

func (p *duckDuckGoProvider) Search(ctx context.Context, plan PlannedQuery) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lang := language.FromCode(plan.Language)

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.UserAgent(useragent.Random()),
	)
	c.SetRequestTimeout(10 * time.Second)

	var hits []Hit
	var scrapeErr error

	c.OnHTML("div.result", func(h *colly.HTMLElement) {
		if strings.Contains(h.Attr("class"), "result--ad") {
			return
		}
		title := strings.TrimSpace(h.ChildText("a.result__a"))
		link := resolveDuckDuckGoURL(h.ChildAttr("a.result__a", "href"))
		snippet := strings.TrimSpace(h.ChildText(".result__snippet"))
		if title == "" || link == "" {
			return
		}
		hits = append(hits, Hit{
			URL:      link,
			Title:    title,
			Snippet:  snippet,
			Language: plan.Language,
			Type:     strings.ToLower(string(plan.Type)),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
	})

	form := map[string]string{
		"q":  plan.Query,
		"kl": lang.GL + "-" + lang.HL,
	}
	if timelimit := duckDuckGoTimelimit[plan.Period]; timelimit != "" {
		form["df"] = timelimit
	}

	if err := c.Post(p.endpoint, form); err != nil {
		return nil, fmt.Errorf("posting duckduckgo search: %w", err)
	}
	if scrapeErr != nil {
		return nil, fmt.Errorf("scraping duckduckgo results: %w", scrapeErr)
	}

	if len(hits) > p.num {
		hits = hits[:p.num]
	}
	return filterExcluded(hits, p.exclude), nil
}

// resolveDuckDuckGoURL unwraps the html endpoint's redirect links, which
// wrap the target in /l/?uddg=<escaped-url>.
func resolveDuckDuckGoURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
