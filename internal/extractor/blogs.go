package extractor

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/fetcher"
)

// NaverBlogExtractor reads blog.naver.com posts through the mobile page,
// which serves the post body without the desktop iframe indirection.
type NaverBlogExtractor struct {
	BaseExtractor
}

// NewNaverBlogExtractor creates an extractor for Naver blog posts.
func NewNaverBlogExtractor(cfg *config.AppConfig, client *fetcher.Client) *NaverBlogExtractor {
	return &NaverBlogExtractor{BaseExtractor: NewBaseExtractor(cfg, client)}
}

func (e *NaverBlogExtractor) CanHandle(url string) bool {
	return strings.Contains(url, "blog.naver.com")
}

// Extract slices the post text between the report button above the body
// and the reaction strip below it.
func (e *NaverBlogExtractor) Extract(ctx context.Context, url string) (string, error) {
	if !strings.Contains(url, "m.blog.naver.com") {
		url = strings.Replace(url, "blog.naver.com", "m.blog.naver.com", 1)
	}
	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}

	doc.Find("script, style").Remove()
	text := selectionText(doc.Find("body"))
	text = sliceBetween(text, "신고하기", "공감한 사람 보러가기")
	text = collapseBlankLines(text)
	if text == "" {
		return "", errors.New("naver blog: post body empty")
	}
	return text, nil
}

// TistoryExtractor reads Tistory posts. Themes vary, so the selector list
// runs from the stock body class down to common theme containers.
type TistoryExtractor struct {
	BaseExtractor
}

// NewTistoryExtractor creates an extractor for Tistory posts.
func NewTistoryExtractor(cfg *config.AppConfig, client *fetcher.Client) *TistoryExtractor {
	return &TistoryExtractor{BaseExtractor: NewBaseExtractor(cfg, client)}
}

func (e *TistoryExtractor) CanHandle(url string) bool {
	return strings.Contains(url, "tistory.com")
}

func (e *TistoryExtractor) Extract(ctx context.Context, url string) (string, error) {
	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}

	var body *goquery.Selection
	for _, selector := range []string{"div.tt_article_useless_p_margin", "article", "[class~=content]", "[class~=post]"} {
		if sel := doc.Find(selector); sel.Length() > 0 {
			body = sel.First()
			break
		}
	}
	if body == nil {
		return "", errors.New("tistory: no post container found")
	}

	text := collapseBlankLines(selectionText(body))
	if text == "" {
		return "", errors.New("tistory: post body empty")
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		text = title + "\n" + text
	}
	return text, nil
}

// BrunchExtractor reads brunch.co.kr essays.
type BrunchExtractor struct {
	BaseExtractor
}

// NewBrunchExtractor creates an extractor for Brunch essays.
func NewBrunchExtractor(cfg *config.AppConfig, client *fetcher.Client) *BrunchExtractor {
	return &BrunchExtractor{BaseExtractor: NewBaseExtractor(cfg, client)}
}

func (e *BrunchExtractor) CanHandle(url string) bool {
	return strings.Contains(url, "brunch.co.kr")
}

func (e *BrunchExtractor) Extract(ctx context.Context, url string) (string, error) {
	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}

	body := doc.Find(".wrap_body")
	if body.Length() == 0 {
		body = doc.Find(".article_body")
	}
	if body.Length() == 0 {
		return "", errors.New("brunch: no essay body found")
	}

	text := collapseBlankLines(selectionText(body.First()))
	if text == "" {
		return "", errors.New("brunch: essay body empty")
	}

	var header []string
	if title := strings.TrimSpace(doc.Find(".cover_title").First().Text()); title != "" {
		header = append(header, title)
	}
	if sub := strings.TrimSpace(doc.Find(".cover_sub_title").First().Text()); sub != "" {
		header = append(header, sub)
	}
	if date := strings.TrimSpace(doc.Find(".date").First().Text()); date != "" {
		header = append(header, date)
	}
	if len(header) > 0 {
		text = strings.Join(header, "\n") + "\n" + text
	}
	return text, nil
}
