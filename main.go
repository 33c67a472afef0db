package main

import (
	"compress/gzip"
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"web-search-answer-api/internal/api"
	"web-search-answer-api/internal/cache"
	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/crawler"
	"web-search-answer-api/internal/extractor"
	"web-search-answer-api/internal/fetcher"
	"web-search-answer-api/internal/llm"
	"web-search-answer-api/internal/logger"
	"web-search-answer-api/internal/store"
	"web-search-answer-api/internal/worker"
)

// requestTimeout bounds one websearch run end to end. The orchestrator
// turns the expired deadline into its timeout failure event, so the
// middleware only has to set the deadline.
const requestTimeout = 3 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logger.Setup(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}

	// One client tuned for page crawls, one for search API calls.
	pageClient := fetcher.New()
	apiClient := fetcher.NewAPI()

	pool := worker.NewPool(cfg.WorkerPoolSize, cfg.WorkerQueueSize)
	pool.Start()
	defer pool.Stop()

	var docStore *store.Store
	if cfg.UseDBContent || cfg.SaveContentToDB {
		docStore, err = store.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open document store")
		}
		defer docStore.Close()
	}
	// Leave the interfaces nil when the store is off; a typed nil would
	// still look wired.
	var docReader crawler.DocumentGetter
	var docWriter api.DocumentStore
	if docStore != nil {
		docReader = docStore
		docWriter = docStore
	}

	crawl := crawler.New(cfg, extractor.DefaultRegistry(cfg, pageClient), pageClient, pool, docReader)
	orch := api.NewOrchestrator(
		cfg,
		llm.NewClient(cfg),
		api.NewEngineFactory(cfg, apiClient),
		crawl,
		cache.New(cfg),
		docWriter,
	)
	handler := api.NewHandler(cfg, orch)

	mux := http.NewServeMux()
	mux.HandleFunc("/websearch", handler.HandleWebSearch)
	mux.HandleFunc("/health", handler.HandleHealth)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      gzipMiddleware(timeoutMiddleware(mux)),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("search_engine", cfg.SearchEngine).
			Str("cache_backend", cfg.CacheBackend).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("server exited gracefully")
}

// gzipMiddleware compresses responses when the client supports it.
func gzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Vary", "Accept-Encoding")

		gw := gzip.NewWriter(w)
		defer func() {
			if err := gw.Close(); err != nil {
				log.Warn().Err(err).Msg("closing gzip writer failed")
			}
		}()

		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, writer: gw}, r)
	})
}

// gzipResponseWriter compresses the body while keeping the stream
// flushable. Without Flush support the NDJSON events would sit in the
// gzip buffer until the request ends.
type gzipResponseWriter struct {
	http.ResponseWriter
	writer *gzip.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.writer.Write(b)
}

func (w *gzipResponseWriter) Flush() {
	if err := w.writer.Flush(); err != nil {
		return
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// timeoutMiddleware puts the request deadline on the context. Handlers
// stream their own timeout events, so nothing is written here.
func timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
