package cache

import (
	"context"
	"testing"
	"time"

	"web-search-answer-api/internal/search"
)

func testHits() []search.Hit {
	return []search.Hit{
		{URL: "https://a.example.com", Title: "하나", Snippet: "첫번째"},
		{URL: "https://b.example.com", Title: "둘", Snippet: "두번째"},
	}
}

func TestMemoryCacheRoundtrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, 2*time.Minute)
	ctx := context.Background()

	if _, found := c.GetHits(ctx, "k"); found {
		t.Fatal("unexpected hit on empty cache")
	}
	c.SetHits(ctx, "k", testHits(), time.Minute)
	got, found := c.GetHits(ctx, "k")
	if !found || len(got) != 2 || got[0].Title != "하나" {
		t.Errorf("roundtrip failed: found=%v hits=%v", found, got)
	}
}

func TestShardedCacheRoundtrip(t *testing.T) {
	c := NewShardedMemoryCache(time.Minute, 2*time.Minute)
	ctx := context.Background()

	c.SetHits(ctx, "query-one", testHits(), time.Minute)
	c.SetHits(ctx, "query-two", testHits()[:1], time.Minute)

	if got, found := c.GetHits(ctx, "query-one"); !found || len(got) != 2 {
		t.Errorf("query-one: found=%v len=%d", found, len(got))
	}
	if got, found := c.GetHits(ctx, "query-two"); !found || len(got) != 1 {
		t.Errorf("query-two: found=%v len=%d", found, len(got))
	}
	if _, found := c.GetHits(ctx, "query-three"); found {
		t.Error("phantom hit for unset key")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	c.SetHits(ctx, "short", testHits(), 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if _, found := c.GetHits(ctx, "short"); found {
		t.Error("entry should have expired")
	}
}

func TestKeyDistinguishesBatches(t *testing.T) {
	plans := []search.PlannedQuery{
		{Query: "a", Type: search.TypeSearch, Language: "ko", Period: search.PeriodAny},
	}
	topK := 10

	base := Key("serper", plans, nil, false)
	if base == Key("brave", plans, nil, false) {
		t.Error("provider must participate in the key")
	}
	if base == Key("serper", plans, &topK, false) {
		t.Error("topK must participate in the key")
	}
	if base == Key("serper", plans, nil, true) {
		t.Error("transcript mode must participate in the key")
	}
	otherPlans := []search.PlannedQuery{
		{Query: "a", Type: search.TypeNews, Language: "ko", Period: search.PeriodAny},
	}
	if base == Key("serper", otherPlans, nil, false) {
		t.Error("plan type must participate in the key")
	}
	if base != Key("serper", plans, nil, false) {
		t.Error("identical batches must produce identical keys")
	}
}
