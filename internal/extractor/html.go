package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// chrome tags never containing article text; the last three are custom
// elements some site frameworks emit
const strippedTags = "script, style, nav, header, footer, aside, noscript, navigation, menu, sidebar"

// GenericHTMLExtractor converts already-fetched HTML into readable text.
// It is pure CPU work, so the crawler runs it on the worker pool under a
// decode budget instead of inline on the request goroutine.
type GenericHTMLExtractor struct{}

// NewGenericHTMLExtractor creates the fallback HTML text extractor.
func NewGenericHTMLExtractor() *GenericHTMLExtractor {
	return &GenericHTMLExtractor{}
}

// Text strips chrome and hidden elements from htmlStr and returns the
// visible text, one line per text run with blank lines collapsed.
func (e *GenericHTMLExtractor) Text(htmlStr string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	doc.Find(strippedTags).Remove()
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") {
			s.Remove()
		}
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	for _, node := range root.Nodes {
		visibleText(&b, node)
	}
	return collapseBlankLines(b.String()), nil
}

// visibleText walks the node tree and emits each text run on its own
// line, which keeps adjacent elements from jamming together the way a
// bare text concatenation would.
func visibleText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			b.WriteString(t)
			b.WriteString("\n")
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(b, c)
	}
}
