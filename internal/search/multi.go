package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"web-search-answer-api/internal/simhash"
)

// DefaultSimhashThreshold is the Hamming distance at or under which two
// results count as the same story.
const DefaultSimhashThreshold = 20

// Engine fans planned queries out to one provider and merges the results.
type Engine struct {
	provider Provider
	// topK caps the merged result count; nil keeps every provider hit.
	topK *int
}

// NewEngine wraps a provider. topK, when set, is divided evenly across the
// planned queries.
func NewEngine(provider Provider, topK *int) *Engine {
	return &Engine{provider: provider, topK: topK}
}

// ProviderName identifies the wrapped provider, used in cache keys.
func (e *Engine) ProviderName() string {
	return e.provider.Name()
}

// MultipleSearch runs every plan concurrently and returns the merged,
// deduplicated results in plan order. A failing query contributes nothing
// rather than failing the batch.
func (e *Engine) MultipleSearch(ctx context.Context, plans []PlannedQuery) []Hit {
	results := make([][]Hit, len(plans))
	var wg sync.WaitGroup
	for i, plan := range plans {
		wg.Add(1)
		go func(i int, plan PlannedQuery) {
			defer wg.Done()
			hits, err := e.provider.Search(ctx, plan)
			if err != nil {
				log.Warn().
					Err(err).
					Str("provider", e.provider.Name()).
					Str("query", plan.Query).
					Msg("search query failed")
				return
			}
			results[i] = hits
		}(i, plan)
	}
	wg.Wait()

	perQuery := -1
	if e.topK != nil && len(plans) > 0 {
		perQuery = *e.topK / len(plans)
	}

	var merged []Hit
	for _, hits := range results {
		if perQuery >= 0 && len(hits) > perQuery {
			hits = hits[:perQuery]
		}
		merged = append(merged, hits...)
	}
	return Dedupe(merged, DefaultSimhashThreshold)
}

// Dedupe drops exact URL duplicates and near-duplicate stories, keeping
// the first occurrence. Results without any title or snippet text are kept
// as-is since they carry nothing to fingerprint.
func Dedupe(hits []Hit, threshold uint8) []Hit {
	seenURLs := make(map[string]struct{}, len(hits))
	kept := make([]Hit, 0, len(hits))
	var fingerprints []uint64

	for i, hit := range hits {
		key := hit.URL
		if key == "" {
			key = fmt.Sprintf("no_url_%d", i)
		}
		if _, dup := seenURLs[key]; dup {
			continue
		}
		seenURLs[key] = struct{}{}

		text := strings.TrimSpace(hit.Title + " " + hit.Snippet)
		if text == "" {
			kept = append(kept, hit)
			continue
		}
		fingerprint := simhash.Hash(text)
		near := false
		for _, existing := range fingerprints {
			if simhash.Distance(fingerprint, existing) <= threshold {
				near = true
				break
			}
		}
		if near {
			continue
		}
		kept = append(kept, hit)
		fingerprints = append(fingerprints, fingerprint)
	}
	return kept
}
