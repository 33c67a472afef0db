package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"web-search-answer-api/internal/language"
	"web-search-answer-api/internal/search"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://arxiv.org/pdf/2409.01140", true},
		{"http://192.168.0.10:8000/portal/", true},
		{"  https://example.com  ", true},
		{"https://example.com/path?q=검색#frag", true},
		{"https://arxiv.org/pdf/2409.01140  https://docs.llamaindex.ai/en/stable/", false},
		{"수성의 온도는?", false},
		{"읽어줘 https://example.com", false},
		{"ftp://example.com/file", false},
		{"example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.in); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractURLs(t *testing.T) {
	text := "비교해줘 https://a.com/x https://b.com/y https://a.com/x https://c.com/z https://d.com/w"
	got := ExtractURLs(text)
	want := []string{"https://a.com/x", "https://b.com/y", "https://c.com/z"}
	if len(got) != len(want) {
		t.Fatalf("ExtractURLs returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("url %d = %q, want %q", i, got[i], want[i])
		}
	}

	if got := ExtractURLs("링크 없는 질문"); len(got) != 0 {
		t.Errorf("expected no urls, got %v", got)
	}
}

func TestPlannerURLShortCircuit(t *testing.T) {
	client := &scriptedClient{err: errors.New("must not be called")}
	p := &Planner{Client: client, Model: "gpt-4.1-nano", NQueries: 3}

	res := p.Plan(context.Background(), PlanRequest{
		Query:        "https://arxiv.org/pdf/2409.01140",
		SearchType:   "auto",
		LanguageCode: "en",
		Language:     language.FromCode("en"),
		Date:         "2025-01-02 03:04:05",
	})

	if !res.URLMode {
		t.Fatal("expected URL mode")
	}
	if len(client.requests) != 0 {
		t.Fatal("model was called for a URL question")
	}
	want := search.PlannedQuery{Query: "https://arxiv.org/pdf/2409.01140", Type: search.TypeSearch, Language: "ko", Period: search.PeriodAny}
	if len(res.Plans) != 1 || res.Plans[0] != want {
		t.Fatalf("plans = %+v, want [%+v]", res.Plans, want)
	}
	if res.Usage != (openai.Usage{}) {
		t.Errorf("usage = %+v, want zero", res.Usage)
	}
}

func TestPlannerLongURLStillOnePlan(t *testing.T) {
	longURL := "https://example.com/" + strings.Repeat("segment/", 12)
	client := &scriptedClient{err: errors.New("must not be called")}
	p := &Planner{Client: client, Model: "gpt-4.1-nano", NQueries: 3}

	res := p.Plan(context.Background(), PlanRequest{
		Query:        longURL,
		SearchType:   "auto",
		LanguageCode: "ko",
		Language:     language.FromCode("ko"),
	})

	if !res.URLMode || len(res.Plans) != 1 {
		t.Fatalf("URLMode = %v, plans = %d, want one URL plan", res.URLMode, len(res.Plans))
	}
	if res.Plans[0].Query != longURL {
		t.Errorf("plan query = %q", res.Plans[0].Query)
	}
}

func TestPlannerHistoryDisablesURLMode(t *testing.T) {
	client := &scriptedClient{response: completionResponse(
		`{"1": ["arxiv 2409.01140 summary", "Scholar", "en", "Any time"]}`, 10, 5)}
	p := &Planner{Client: client, Model: "gpt-4.1-nano", NQueries: 2}

	res := p.Plan(context.Background(), PlanRequest{
		Query:        "https://arxiv.org/pdf/2409.01140",
		History:      []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "이 논문 읽어줘"}},
		SearchType:   "auto",
		LanguageCode: "ko",
		Language:     language.FromCode("ko"),
	})

	if res.URLMode {
		t.Fatal("URL mode must not trigger with history")
	}
	// Pass-through plan, one rewrite, and the URL as a direct lookup.
	if len(res.Plans) != 3 {
		t.Fatalf("plans = %+v", res.Plans)
	}
	if res.Plans[0].Query != "https://arxiv.org/pdf/2409.01140" || res.Plans[0].Type != search.TypeSearch {
		t.Errorf("seed plan = %+v", res.Plans[0])
	}
	if res.Plans[2] != urlPlan("https://arxiv.org/pdf/2409.01140") {
		t.Errorf("url plan = %+v", res.Plans[2])
	}
	if len(client.requests) == 0 || !strings.Contains(client.requests[0].Messages[0].Content, "Conversation so far:") {
		t.Error("prompt should include the conversation history")
	}
}

func TestPlannerSeedAndParsedRows(t *testing.T) {
	content := `{
		"1": ["수성 온도 변화", "Search", "ko", "Any time"],
		"2": {"query": "mercury surface temperature", "type": "Scholar", "language": "en", "period": "Past year"},
		"3": ["dropped"],
		"4": 17
	}`
	client := &scriptedClient{response: completionResponse(content, 42, 7)}
	p := &Planner{Client: client, Model: "gpt-4.1-nano", NQueries: 3}

	res := p.Plan(context.Background(), PlanRequest{
		Query:        "수성의 온도는?",
		SearchType:   "auto",
		LanguageCode: "ko",
		Language:     language.FromCode("ko"),
		Date:         "2025-01-02 03:04:05",
	})

	want := []search.PlannedQuery{
		{Query: "수성의 온도는?", Type: search.TypeSearch, Language: "ko", Period: search.PeriodAny},
		{Query: "수성 온도 변화", Type: search.TypeSearch, Language: "ko", Period: search.PeriodAny},
		{Query: "mercury surface temperature", Type: search.TypeScholar, Language: "en", Period: search.PeriodPastYear},
	}
	if len(res.Plans) != len(want) {
		t.Fatalf("plans = %+v, want %+v", res.Plans, want)
	}
	for i := range want {
		if res.Plans[i] != want[i] {
			t.Errorf("plan %d = %+v, want %+v", i, res.Plans[i], want[i])
		}
	}
	if res.Usage.PromptTokens != 42 || res.Usage.CompletionTokens != 7 {
		t.Errorf("usage = %+v", res.Usage)
	}

	req := client.requests[0]
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Error("rewrite request must force a JSON object response")
	}
	// One rewrite slot went to the pass-through plan.
	if !strings.Contains(req.Messages[0].Content, "exactly 2 web search queries") {
		t.Errorf("prompt sample count wrong:\n%s", req.Messages[0].Content)
	}
}

func TestPlannerLongQuerySkipsSeed(t *testing.T) {
	query := strings.Repeat("가", 101)
	client := &scriptedClient{response: completionResponse(`{"1": ["긴 질문 재작성", "Search", "ko", "Any time"]}`, 8, 2)}
	p := &Planner{Client: client, Model: "gpt-4.1-nano", NQueries: 3}

	res := p.Plan(context.Background(), PlanRequest{
		Query:        query,
		SearchType:   "auto",
		LanguageCode: "ko",
		Language:     language.FromCode("ko"),
	})

	if len(res.Plans) != 1 || res.Plans[0].Query != "긴 질문 재작성" {
		t.Fatalf("plans = %+v", res.Plans)
	}
	if !strings.Contains(client.requests[0].Messages[0].Content, "exactly 3 web search queries") {
		t.Error("long questions keep all rewrite slots")
	}
}

func TestPlannerCountsRunesNotBytes(t *testing.T) {
	// 90 runes but 270 bytes; must still get the pass-through plan.
	query := strings.Repeat("가", 90)
	client := &scriptedClient{response: completionResponse(`{}`, 1, 1)}
	p := &Planner{Client: client, Model: "gpt-4.1-nano", NQueries: 3}

	res := p.Plan(context.Background(), PlanRequest{
		Query:        query,
		SearchType:   "auto",
		LanguageCode: "ko",
		Language:     language.FromCode("ko"),
	})

	if len(res.Plans) != 1 || res.Plans[0].Query != query {
		t.Fatalf("expected the pass-through plan, got %+v", res.Plans)
	}
}

func TestPlannerDegradesToSeedOnModelError(t *testing.T) {
	client := &scriptedClient{err: errors.New("upstream 500")}
	p := &Planner{Client: client, Model: "gpt-4.1-nano", NQueries: 3}

	res := p.Plan(context.Background(), PlanRequest{
		Query:        "오늘 증시 뉴스",
		SearchType:   "News",
		LanguageCode: "ko",
		Language:     language.FromCode("ko"),
	})

	if len(res.Plans) != 1 {
		t.Fatalf("plans = %+v", res.Plans)
	}
	if res.Plans[0].Type != search.TypeNews {
		t.Errorf("seed plan keeps the requested vertical, got %s", res.Plans[0].Type)
	}
	if res.Usage != (openai.Usage{}) {
		t.Errorf("usage = %+v, want zero", res.Usage)
	}
}

func TestPlannerAppendsQuestionURLs(t *testing.T) {
	query := "요약해줘 https://arxiv.org/a https://arxiv.org/a https://docs.llama.ai/b"
	client := &scriptedClient{response: completionResponse(`{"1": ["rag pipeline summary", "Search", "en", "Any time"]}`, 3, 2)}
	p := &Planner{Client: client, Model: "gpt-4.1-nano", NQueries: 2}

	res := p.Plan(context.Background(), PlanRequest{
		Query:        query,
		SearchType:   "auto",
		LanguageCode: "ko",
		Language:     language.FromCode("ko"),
	})

	// Seed, one rewrite, then the two distinct URLs in order.
	if len(res.Plans) != 4 {
		t.Fatalf("plans = %+v", res.Plans)
	}
	if res.Plans[2] != urlPlan("https://arxiv.org/a") {
		t.Errorf("plan 2 = %+v", res.Plans[2])
	}
	if res.Plans[3] != urlPlan("https://docs.llama.ai/b") {
		t.Errorf("plan 3 = %+v", res.Plans[3])
	}
}

func TestPlanRowsSkipsMalformedDocuments(t *testing.T) {
	if rows := planRows(`["not", "an", "object"]`); rows != nil {
		t.Errorf("array document parsed to %v", rows)
	}
	if rows := planRows("no json at all"); rows != nil {
		t.Errorf("plain text parsed to %v", rows)
	}
	if rows := planRows(`{"1": ["a", "Search", "ko", "Any time"]`); rows != nil {
		t.Errorf("truncated document parsed to %v", rows)
	}
}
