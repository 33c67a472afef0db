package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const duckDuckGoResultsPage = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result results_links web-result">
    <h2 class="result__title">
      <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fone.example.com%2Fpage&amp;rut=abc">수성 표면 온도</a>
    </h2>
    <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fone.example.com%2Fpage">낮에는 430도까지 오른다</a>
  </div>
  <div class="result result--ad">
    <h2 class="result__title">
      <a rel="nofollow" class="result__a" href="https://ads.example.com/landing">광고 결과</a>
    </h2>
    <a class="result__snippet" href="https://ads.example.com/landing">스폰서 링크</a>
  </div>
  <div class="result results_links web-result">
    <h2 class="result__title">
      <a rel="nofollow" class="result__a" href="https://namu.wiki/w/수성">차단된 결과</a>
    </h2>
    <a class="result__snippet" href="https://namu.wiki/w/수성">제외 목록 도메인</a>
  </div>
  <div class="result results_links web-result">
    <h2 class="result__title">
      <a rel="nofollow" class="result__a" href="https://two.example.com/direct">직접 링크 결과</a>
    </h2>
  </div>
</div>
</body></html>`

func TestDuckDuckGoSearchParsesResults(t *testing.T) {
	var gotQuery, gotRegion, gotTimelimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.FormValue("q")
		gotRegion = r.FormValue("kl")
		gotTimelimit = r.FormValue("df")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(duckDuckGoResultsPage))
	}))
	defer server.Close()

	web, _ := excludeLists(nil, false)
	p := newDuckDuckGoProvider(20, web)
	p.endpoint = server.URL

	hits, err := p.Search(context.Background(), PlannedQuery{
		Query:    "수성 온도",
		Type:     TypeSearch,
		Language: "ko",
		Period:   PeriodPastWeek,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotQuery != "수성 온도" {
		t.Errorf("q = %q", gotQuery)
	}
	if gotRegion != "kr-ko" {
		t.Errorf("kl = %q, want kr-ko", gotRegion)
	}
	if gotTimelimit != "w" {
		t.Errorf("df = %q, want w", gotTimelimit)
	}

	// Ad and excluded domain drop; the snippetless result survives.
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2: %+v", len(hits), hits)
	}
	first := hits[0]
	if first.URL != "https://one.example.com/page" {
		t.Errorf("redirect link not unwrapped: %q", first.URL)
	}
	if first.Title != "수성 표면 온도" || first.Snippet != "낮에는 430도까지 오른다" {
		t.Errorf("unexpected first hit: %+v", first)
	}
	if first.Language != "ko" || first.Type != "search" {
		t.Errorf("hit tagging wrong: language=%q type=%q", first.Language, first.Type)
	}
	if hits[1].URL != "https://two.example.com/direct" {
		t.Errorf("second hit url = %q", hits[1].URL)
	}
}

func TestDuckDuckGoSearchCapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(duckDuckGoResultsPage))
	}))
	defer server.Close()

	p := newDuckDuckGoProvider(1, nil)
	p.endpoint = server.URL

	hits, err := p.Search(context.Background(), PlannedQuery{Query: "수성", Type: TypeSearch, Language: "ko", Period: PeriodAny})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want the configured cap of 1", len(hits))
	}
}

func TestResolveDuckDuckGoURL(t *testing.T) {
	cases := []struct {
		href string
		want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa%3Fb%3D1&rut=x", "https://example.com/a?b=1"},
		{"https://plain.example.com/page", "https://plain.example.com/page"},
		{"//duckduckgo.com/html/", "https://duckduckgo.com/html/"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := resolveDuckDuckGoURL(tc.href); got != tc.want {
			t.Errorf("resolveDuckDuckGoURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}
