package llm

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"web-search-answer-api/internal/language"
	"web-search-answer-api/internal/search"
)

const (
	planTimeout   = 10 * time.Second
	planMaxTokens = 5000

	// Questions up to this many runes ride along as a pass-through plan,
	// taking one of the rewrite slots.
	seedQueryMaxLen = 100

	maxExtractedURLs = 3
)

// urlPattern matches absolute http(s) URLs with a dotted domain or an
// IPv4 host, an optional port, and an optional path.
var urlPattern = regexp.MustCompile(`https?://(([\w\-]+\.)+[\w\-]+|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})(:\d+)?(/[^\s]*)?`)

// IsURL reports whether the input is a single URL. Inputs with embedded
// whitespace are questions that merely mention URLs.
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \n") {
		return false
	}
	loc := urlPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

// ExtractURLs returns up to three distinct URLs found in text, in order
// of first appearance.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
		if len(urls) == maxExtractedURLs {
			break
		}
	}
	return urls
}

// Planner rewrites a user question into planned search queries.
type Planner struct {
	Client   Client
	Model    string
	NQueries int
}

// PlanRequest carries one question through query planning.
type PlanRequest struct {
	Query   string
	History []openai.ChatCompletionMessage
	// SearchType is "auto" or a search.Type value, as mapped from the
	// request payload.
	SearchType string
	// LanguageCode is the raw client code carried into plans; Language is
	// its resolution used in prompt text.
	LanguageCode string
	Language     language.Language
	Date         string
}

// PlanResult is the planner output for one request.
type PlanResult struct {
	Plans   []search.PlannedQuery
	URLMode bool
	Usage   openai.Usage
}

// Plan builds the search queries for one question. A question that is
// itself a URL skips the model and the search engine entirely; otherwise
// the model rewrites the question, and URLs mentioned inside it are
// appended as direct lookups.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) PlanResult {
	if len(req.History) == 0 && IsURL(req.Query) {
		return PlanResult{
			Plans:   []search.PlannedQuery{urlPlan(strings.TrimSpace(req.Query))},
			URLMode: true,
		}
	}

	var plans []search.PlannedQuery
	numSamples := p.NQueries
	if utf8.RuneCountInString(req.Query) <= seedQueryMaxLen {
		if numSamples > 1 {
			numSamples--
		}
		plans = append(plans, search.PlannedQuery{
			Query:    req.Query,
			Type:     seedType(req.SearchType),
			Language: req.LanguageCode,
			Period:   search.PeriodAny,
		})
	}

	rewritten, usage := p.rewrite(ctx, req, numSamples)
	plans = append(plans, rewritten...)

	for _, u := range ExtractURLs(req.Query) {
		plans = append(plans, urlPlan(u))
	}
	return PlanResult{Plans: plans, Usage: usage}
}

// seedType picks the vertical for the pass-through plan. "auto" has no
// provider meaning and becomes a plain web search.
func seedType(requested string) search.Type {
	if requested == "auto" || requested == string(search.TypeSearch) {
		return search.TypeSearch
	}
	return search.Type(requested)
}

// urlPlan is a direct lookup for a URL taken from the question.
func urlPlan(url string) search.PlannedQuery {
	return search.PlannedQuery{Query: url, Type: search.TypeSearch, Language: "ko", Period: search.PeriodAny}
}

// rewrite asks the model for query rewrites. Any model failure degrades
// to no rewrites so the seed plan still searches.
func (p *Planner) rewrite(ctx context.Context, req PlanRequest, numSamples int) ([]search.PlannedQuery, openai.Usage) {
	ctx, cancel := context.WithTimeout(ctx, planTimeout)
	defer cancel()

	resp, err := p.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.Model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: planPrompt(req, numSamples)}},
		MaxTokens:   planMaxTokens,
		Temperature: 1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("model", p.Model).Msg("query rewrite failed")
		return nil, openai.Usage{}
	}
	if len(resp.Choices) == 0 {
		return nil, resp.Usage
	}
	return planRows(resp.Choices[0].Message.Content), resp.Usage
}

// planRows parses the rewrite response, keeping the document order of
// the numbered rows and skipping malformed ones.
func planRows(content string) []search.PlannedQuery {
	iter := jsoniter.ParseString(json, strings.TrimSpace(content))
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil
	}
	var rows []search.PlannedQuery
	ok := iter.ReadMapCB(func(it *jsoniter.Iterator, _ string) bool {
		if row, valid := planRow(it.Read()); valid {
			rows = append(rows, row)
		}
		return true
	})
	if !ok {
		return nil
	}
	return rows
}

// planRow converts one decoded row into a planned query. The prompt asks
// for 4-element arrays, but named objects from less obedient models are
// accepted too.
func planRow(v interface{}) (search.PlannedQuery, bool) {
	switch row := v.(type) {
	case []interface{}:
		if len(row) < 4 {
			return search.PlannedQuery{}, false
		}
		plan := search.PlannedQuery{
			Query:    stringValue(row[0]),
			Type:     search.Type(stringValue(row[1])),
			Language: stringValue(row[2]),
			Period:   stringValue(row[3]),
		}
		return plan, plan.Query != ""
	case map[string]interface{}:
		plan := search.PlannedQuery{
			Query:    stringValue(row["query"]),
			Type:     search.Type(stringValue(row["type"])),
			Language: stringValue(row["language"]),
			Period:   stringValue(row["period"]),
		}
		return plan, plan.Query != ""
	}
	return search.PlannedQuery{}, false
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
