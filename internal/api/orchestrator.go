package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"web-search-answer-api/internal/cache"
	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/crawler"
	"web-search-answer-api/internal/fetcher"
	"web-search-answer-api/internal/language"
	"web-search-answer-api/internal/llm"
	"web-search-answer-api/internal/search"
	"web-search-answer-api/internal/store"
)

// Processing titles streamed while the pipeline advances.
const (
	titleAnalyzing  = "Analyzing the question..."
	titleRelated    = "Searching for related questions..."
	titleSearchDone = "Web search completed"
)

// Failure titles. These are API surface: clients match on them.
const (
	titlePlanningFailed = "I couldn't understand the question."
	titleNoResults      = "No web search results found."
	titleTimeout        = "Web search timeout"
	titleInternal       = "Web search failed"
)

// DocumentStore is the write side of the document store. A nil store
// disables persistence.
type DocumentStore interface {
	PutBulk(ctx context.Context, docs []*store.Document) (int, error)
}

// EngineFactory builds the search engine for one request. Per request
// because the youtube-transcript switch and the result cap both change
// provider behavior.
type EngineFactory func(opts search.Options, topK *int) (*search.Engine, error)

// NewEngineFactory builds engines over the provider selected by
// SEARCH_ENGINE, calling out through the API-tuned fetcher.
func NewEngineFactory(cfg *config.AppConfig, client *fetcher.Client) EngineFactory {
	return func(opts search.Options, topK *int) (*search.Engine, error) {
		provider, err := search.NewProvider(cfg, client, opts)
		if err != nil {
			return nil, err
		}
		return search.NewEngine(provider, topK), nil
	}
}

// Orchestrator owns the full run of one question: plan, search, crawl,
// outline, answer, persist.
type Orchestrator struct {
	cfg     *config.AppConfig
	models  llm.Client
	engines EngineFactory
	crawler *crawler.Crawler
	cache   cache.Cache
	docs    DocumentStore
	now     func() time.Time
}

// NewOrchestrator wires the pipeline dependencies.
func NewOrchestrator(
	cfg *config.AppConfig,
	models llm.Client,
	engines EngineFactory,
	crawl *crawler.Crawler,
	searchCache cache.Cache,
	docs DocumentStore,
) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		models:  models,
		engines: engines,
		crawler: crawl,
		cache:   searchCache,
		docs:    docs,
		now:     time.Now,
	}
}

// Run executes one request, writing every event to stream. Every path
// ends the stream with exactly one complete or failure event, except
// when the client has already gone away and there is nobody to tell.
func (o *Orchestrator) Run(ctx context.Context, req *WebSearchRequest, stream *EventStream) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("query", req.Query).Msg("pipeline panicked")
			stream.Failure(titleInternal)
		}
	}()

	start := o.now()
	lang := language.FromCode(req.Language)
	book := llm.NewUsageBook(o.cfg.QueryRewriteModel, o.cfg.OutlineModel, o.cfg.AnswerModel)

	if req.WantsProcess() {
		if err := stream.Processing(titleAnalyzing); err != nil {
			return
		}
	}

	planner := &llm.Planner{Client: o.models, Model: o.cfg.QueryRewriteModel, NQueries: o.cfg.NQueries}
	plan := planner.Plan(ctx, llm.PlanRequest{
		Query:        req.Query,
		History:      req.History(),
		SearchType:   req.PlanSearchType(),
		LanguageCode: req.Language,
		Language:     lang,
		Date:         start.Format(llm.DateLayout),
	})
	book.Add(o.cfg.QueryRewriteModel, plan.Usage)
	if len(plan.Plans) == 0 {
		stream.Failure(titlePlanningFailed)
		return
	}
	if o.expired(ctx, stream) {
		return
	}
	if req.WantsProcess() {
		if err := stream.Processing(titleRelated); err != nil {
			return
		}
	}

	hits, err := o.searchHits(ctx, req, plan)
	if err != nil {
		log.Error().Err(err).Msg("search provider unavailable")
		stream.Failure(titleInternal)
		return
	}
	if len(hits) == 0 {
		stream.Failure(titleNoResults)
		return
	}
	if o.expired(ctx, stream) {
		return
	}
	if req.WantsProcess() {
		if err := stream.Processing(fmt.Sprintf("Searching %d search results...", len(hits))); err != nil {
			return
		}
	}

	rows, subTitles, outlineUsage := o.gather(ctx, req, plan, hits, lang)
	book.Add(o.cfg.OutlineModel, outlineUsage)
	if o.expired(ctx, stream) {
		return
	}
	if req.WantsProcess() {
		if err := stream.Processing(titleSearchDone); err != nil {
			return
		}
	}

	answer, answerUsage, err := o.answer(ctx, req, lang, subTitles, rows, stream, start)
	if err != nil {
		// The client stopped reading mid-answer; nothing left to tell it.
		log.Warn().Err(err).Str("query", req.Query).Msg("answer stream aborted")
		return
	}
	book.Add(o.cfg.AnswerModel, answerUsage)

	queries := planQueries(plan.Plans)
	stream.Complete(CompleteMessage{
		Content:  answer,
		Metadata: Metadata{Queries: queries, SubTitles: subTitles},
		Models:   book.Snapshot(),
	})

	o.persist(ctx, hits, rows)
	log.Info().
		Int("plans", len(plan.Plans)).
		Int("hits", len(hits)).
		Bool("url_mode", plan.URLMode).
		Bool("stream", req.Stream).
		Dur("elapsed", o.now().Sub(start)).
		Str("query", req.Query).
		Msg("websearch completed")
}

// expired checks the request deadline between stages. A canceled client
// cannot receive a failure event, so cancellation ends the run silently;
// the middleware deadline surfaces as the timeout failure.
func (o *Orchestrator) expired(ctx context.Context, stream *EventStream) bool {
	switch ctx.Err() {
	case nil:
		return false
	case context.DeadlineExceeded:
		stream.Failure(titleTimeout)
	}
	return true
}

// searchHits resolves the plans into search hits. A URL question skips
// the provider: the URL itself is the single hit, crawled directly.
// Provider batches go through the search cache so identical plans within
// the TTL skip the round trip.
func (o *Orchestrator) searchHits(ctx context.Context, req *WebSearchRequest, plan llm.PlanResult) ([]search.Hit, error) {
	if plan.URLMode {
		return []search.Hit{{URL: plan.Plans[0].Query, Language: "ko", Type: "search"}}, nil
	}

	engine, err := o.engines(search.Options{UseYouTubeTranscript: req.UseYouTubeTranscript}, req.TopK.Value)
	if err != nil {
		return nil, err
	}

	key := cache.Key(engine.ProviderName(), plan.Plans, req.TopK.Value, req.UseYouTubeTranscript)
	if hits, ok := o.cache.GetHits(ctx, key); ok {
		log.Debug().Int("hits", len(hits)).Msg("search cache hit")
		return hits, nil
	}
	hits := engine.MultipleSearch(ctx, plan.Plans)
	if len(hits) > 0 {
		o.cache.SetHits(ctx, key, hits, o.cfg.CacheTTL())
	}
	return hits, nil
}

// gather crawls the hits while the outline model reads the result
// snippets; neither needs the other. In URL mode there are no snippets,
// so the outline waits for the crawled page and reads that instead.
func (o *Orchestrator) gather(ctx context.Context, req *WebSearchRequest, plan llm.PlanResult, hits []search.Hit, lang language.Language) ([]crawler.Row, []string, openai.Usage) {
	outliner := &llm.OutlineGenerator{Client: o.models, Model: o.cfg.OutlineModel}

	if plan.URLMode {
		rows := o.crawler.MultipleCrawl(ctx, hits)
		subTitles, usage := outliner.Generate(ctx, req.Query, rows[0].Content, lang.Name)
		return rows, subTitles, usage
	}

	var snippets strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&snippets, "%s: %s\n", hit.Title, hit.Snippet)
	}
	mergedQuery := strings.Join(planQueries(plan.Plans), " ")

	var (
		rows      []crawler.Row
		subTitles []string
		usage     openai.Usage
		wg        sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		rows = o.crawler.MultipleCrawl(ctx, hits)
	}()
	go func() {
		defer wg.Done()
		subTitles, usage = outliner.Generate(ctx, mergedQuery, snippets.String(), lang.Name)
	}()
	wg.Wait()
	return rows, subTitles, usage
}

// answer runs the final model over the crawled documents. In stream mode
// every delta goes straight to the client; a delta write error means the
// client is gone and aborts the run.
func (o *Orchestrator) answer(ctx context.Context, req *WebSearchRequest, lang language.Language, subTitles []string, rows []crawler.Row, stream *EventStream, start time.Time) (string, openai.Usage, error) {
	docs, _ := json.Marshal(rows)
	prompt := llm.AnswerPrompt(llm.AnswerPromptInput{
		PersonaPrompt:  req.PersonaPrompt,
		CustomPrompt:   req.CustomPrompt,
		TargetLanguage: lang.Name,
		TargetNuance:   req.TargetNuance,
		ReferenceLabel: lang.SourceTag,
		Date:           start.Format(llm.DateLayout),
		SubTitles:      subTitles,
		Documents:      string(docs),
	})
	messages := append(req.History(), openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	gen := &llm.AnswerGenerator{Client: o.models, Model: o.cfg.AnswerModel}
	if req.Stream {
		return gen.Stream(ctx, messages, stream.Delta)
	}
	content, usage := gen.Generate(ctx, messages)
	return content, usage, nil
}

// persist saves crawled pages for later USE_DB_CONTENT short-circuits.
// Diagnostic rows carry error text, not page content, and are skipped.
// Hits supply the type and language the answer rows no longer carry.
func (o *Orchestrator) persist(ctx context.Context, hits []search.Hit, rows []crawler.Row) {
	if o.docs == nil || !o.cfg.SaveContentToDB {
		return
	}

	byURL := make(map[string]search.Hit, len(hits))
	for _, h := range hits {
		byURL[h.URL] = h
	}
	docs := make([]*store.Document, 0, len(rows))
	for _, row := range rows {
		if row.Content == "" || crawler.IsDiagnostic(row.Content) {
			continue
		}
		hit := byURL[row.URL]
		docs = append(docs, &store.Document{
			URL:      row.URL,
			Title:    row.Title,
			Snippet:  row.Snippet,
			ImageURL: row.ImageURL,
			Date:     row.Date,
			Language: hit.Language,
			Type:     hit.Type,
			PDFURL:   row.PDFURL,
			Content:  row.Content,
		})
	}
	if len(docs) == 0 {
		return
	}
	saved, err := o.docs.PutBulk(ctx, docs)
	if err != nil {
		log.Warn().Err(err).Msg("saving crawled documents failed")
		return
	}
	log.Debug().Int("saved", saved).Int("crawled", len(rows)).Msg("crawled documents saved")
}

func planQueries(plans []search.PlannedQuery) []string {
	queries := make([]string, len(plans))
	for i, p := range plans {
		queries[i] = p.Query
	}
	return queries
}
