package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type stubProvider struct {
	hits   map[string][]Hit
	errs   map[string]error
	delays map[string]time.Duration
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(ctx context.Context, plan PlannedQuery) ([]Hit, error) {
	if d, ok := s.delays[plan.Query]; ok {
		time.Sleep(d)
	}
	if err, ok := s.errs[plan.Query]; ok {
		return nil, err
	}
	return s.hits[plan.Query], nil
}

// nHits builds hits with distinct URLs and no text, so they pass through
// deduplication untouched and counts stay exact.
func nHits(prefix string, n int) []Hit {
	hits := make([]Hit, n)
	for i := range hits {
		hits[i] = Hit{URL: fmt.Sprintf("https://%s.example.com/%d", prefix, i)}
	}
	return hits
}

func TestMultipleSearchPreservesPlanOrder(t *testing.T) {
	provider := &stubProvider{
		hits: map[string][]Hit{
			"first":  nHits("alpha", 2),
			"second": nHits("beta", 2),
			"third":  nHits("gamma", 2),
		},
		// The first query answers last; order must still follow the plans.
		delays: map[string]time.Duration{"first": 50 * time.Millisecond},
	}
	engine := NewEngine(provider, nil)

	got := engine.MultipleSearch(context.Background(), []PlannedQuery{
		{Query: "first"}, {Query: "second"}, {Query: "third"},
	})
	if len(got) != 6 {
		t.Fatalf("got %d hits, want 6", len(got))
	}
	wantPrefixes := []string{"alpha", "alpha", "beta", "beta", "gamma", "gamma"}
	for i, hit := range got {
		if !strings.Contains(hit.URL, wantPrefixes[i]) {
			t.Errorf("hit %d url = %q, want prefix %s", i, hit.URL, wantPrefixes[i])
		}
	}
}

func TestMultipleSearchSlicesPerQueryOnTopK(t *testing.T) {
	provider := &stubProvider{
		hits: map[string][]Hit{
			"a": nHits("aa", 8),
			"b": nHits("bb", 8),
			"c": nHits("cc", 8),
		},
	}
	topK := 10
	engine := NewEngine(provider, &topK)

	got := engine.MultipleSearch(context.Background(), []PlannedQuery{
		{Query: "a"}, {Query: "b"}, {Query: "c"},
	})
	// floor(10/3) = 3 per query
	if len(got) != 9 {
		t.Fatalf("got %d hits, want 9", len(got))
	}
}

func TestMultipleSearchToleratesFailingQuery(t *testing.T) {
	provider := &stubProvider{
		hits: map[string][]Hit{"good": nHits("good", 3)},
		errs: map[string]error{"bad": errors.New("backend down")},
	}
	engine := NewEngine(provider, nil)

	got := engine.MultipleSearch(context.Background(), []PlannedQuery{
		{Query: "bad"}, {Query: "good"},
	})
	if len(got) != 3 {
		t.Fatalf("got %d hits, want 3 from the surviving query", len(got))
	}
}

func TestDedupeDropsRepeatedURLs(t *testing.T) {
	hits := []Hit{
		{URL: "https://example.com/a", Title: "completely different first story about volcanoes"},
		{URL: "https://example.com/a", Title: "second fetch of the same page"},
		{URL: "https://example.com/b", Title: "unrelated second story about deep sea exploration"},
	}
	got := Dedupe(hits, DefaultSimhashThreshold)
	if len(got) != 2 {
		t.Fatalf("got %d hits, want 2", len(got))
	}
	if got[0].URL != "https://example.com/a" || got[1].URL != "https://example.com/b" {
		t.Errorf("unexpected order: %v", got)
	}
}

func TestDedupeDropsNearDuplicateStories(t *testing.T) {
	hits := []Hit{
		{URL: "https://site-one.com/x", Title: "Central bank holds interest rates steady", Snippet: "The central bank announced today that interest rates will remain unchanged for the third consecutive quarter as inflation cools"},
		{URL: "https://site-two.com/y", Title: "Central bank  holds interest rates steady", Snippet: "The central bank announced today that interest rates will remain unchanged for the third consecutive quarter as inflation cools"},
		{URL: "https://site-three.com/z", Title: "Football championship ends in penalty shootout drama", Snippet: "The goalkeeper saved three consecutive attempts securing a historic victory for the underdogs in extra time"},
	}
	got := Dedupe(hits, DefaultSimhashThreshold)
	if len(got) != 2 {
		t.Fatalf("got %d hits, want 2: %v", len(got), got)
	}
	if got[0].URL != "https://site-one.com/x" {
		t.Errorf("first kept hit = %q, want the first occurrence", got[0].URL)
	}
}

func TestDedupeKeepsEmptyContentHits(t *testing.T) {
	hits := []Hit{
		{URL: "https://example.com/1"},
		{URL: "https://example.com/2"},
		{URL: ""},
		{URL: ""},
	}
	got := Dedupe(hits, DefaultSimhashThreshold)
	// Blank URLs get positional keys, so both survive URL dedup, and empty
	// text skips fingerprinting.
	if len(got) != 4 {
		t.Fatalf("got %d hits, want 4", len(got))
	}
}
