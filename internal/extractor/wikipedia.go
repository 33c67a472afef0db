package extractor

import (
	"context"
	"errors"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/fetcher"
)

// wikiChrome is everything on a Wikipedia page that is not article text.
const wikiChrome = ".mw-editsection, .mw-empty-elt, .noprint, #mw-navigation, #mw-panel, #footer, #catlinks, .mw-jump-link, #mw-head"

var refMarkPattern = regexp.MustCompile(`\[\d+\]`)

// WikipediaExtractor reads Wikipedia articles in any language edition,
// converting wikitable markup to Markdown tables so tabular facts survive
// the text flattening.
type WikipediaExtractor struct {
	BaseExtractor
}

// NewWikipediaExtractor creates an extractor for Wikipedia articles.
func NewWikipediaExtractor(cfg *config.AppConfig, client *fetcher.Client) *WikipediaExtractor {
	return &WikipediaExtractor{BaseExtractor: NewBaseExtractor(cfg, client)}
}

func (e *WikipediaExtractor) CanHandle(url string) bool {
	return strings.Contains(url, "wikipedia.org")
}

func (e *WikipediaExtractor) Extract(ctx context.Context, url string) (string, error) {
	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(doc.Find("#firstHeading").First().Text())
	doc.Find(wikiChrome).Remove()

	content := doc.Find("#mw-content-text")
	if content.Length() == 0 {
		return "", errors.New("wikipedia: content container missing")
	}

	content.Find("table.wikitable").Each(func(_ int, table *goquery.Selection) {
		if md := markdownTable(table); md != "" {
			table.ReplaceWithHtml("<pre>" + html.EscapeString(md) + "</pre>")
		} else {
			table.Remove()
		}
	})

	text := selectionText(content)
	text = refMarkPattern.ReplaceAllString(text, "")
	text = collapseBlankLines(text)
	if text == "" {
		return "", errors.New("wikipedia: article text empty")
	}
	if title != "" {
		text = "# " + title + "\n" + text
	}
	return text, nil
}

// markdownTable renders an HTML table as a Markdown table. Tables without
// at least a header and one data row render as "".
func markdownTable(table *goquery.Selection) string {
	var rows [][]string
	width := 0
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(selectionText(cell)), " "))
		})
		if len(cells) == 0 {
			return
		}
		if len(cells) > width {
			width = len(cells)
		}
		rows = append(rows, cells)
	})
	if len(rows) < 2 || width == 0 {
		return ""
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			b.WriteString(" ")
			if i < len(cells) {
				b.WriteString(cells[i])
			}
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(rows[0])
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}
