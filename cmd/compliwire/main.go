package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/compliwire/compliwire/internal/config"
	dbRedis "github.com/compliwire/compliwire/internal/db/redis"
	"github.com/compliwire/compliwire/internal/domain"
	"github.com/compliwire/compliwire/internal/extract"
	"github.com/compliwire/compliwire/internal/feed"
	logpkg "github.com/compliwire/compliwire/internal/logger"
	"github.com/compliwire/compliwire/internal/metrics"
	articlerepo "github.com/compliwire/compliwire/internal/repository/article"
	chiTransport "github.com/compliwire/compliwire/internal/transport/chi"
	openaiProvider "github.com/compliwire/compliwire/internal/transport/openai"
	answeruc "github.com/compliwire/compliwire/internal/usecase/answer"
	healthuc "github.com/compliwire/compliwire/internal/usecase/health"
	ingestuc "github.com/compliwire/compliwire/internal/usecase/ingest"
	retrievaluc "github.com/compliwire/compliwire/internal/usecase/retrieval"
	synthesisuc "github.com/compliwire/compliwire/internal/usecase/synthesis"
	"github.com/compliwire/compliwire/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting compliwire ingestion service",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("feeds", len(cfg.Feeds)),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	embedder := openaiProvider.NewEmbedder(&openaiProvider.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Index.Dimensions,
		Logger:     logger,
	})
	generator := openaiProvider.NewGenerator(&openaiProvider.GeneratorConfig{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Logger:  logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Index.Dimensions),
		zap.String("generation_model", cfg.Generation.Model),
	)

	repo := articlerepo.New(store, articlerepo.Config{
		KeyPrefix:       cfg.Storage.KeyPrefix,
		IndexName:       cfg.Index.Name,
		Dimensions:      cfg.Index.Dimensions,
		DistanceMetric:  cfg.Index.DistanceMetric,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure article index", zap.Error(err))
	}

	// Create use case services
	feeds := make([]ingestuc.Feed, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feeds = append(feeds, ingestuc.Feed{URL: f.URL, Name: f.Name})
	}
	synthSvc := synthesisuc.New(
		generator, cfg.Generation.SynthesisMaxTokens, cfg.Generation.SynthesisTemperature, logger,
	)
	pageTimeout := time.Duration(cfg.Ingest.PageFetchTimeoutSec) * time.Second
	ingestSvc := ingestuc.New(
		feeds,
		feed.NewFetcher(pageTimeout),
		extract.NewFetcher(pageTimeout),
		synthSvc,
		embedder,
		repo,
		cfg.Ingest.FetchSourcePages,
		logger,
	)
	retrievalSvc := retrievaluc.New(repo, logger)
	answerSvc := answeruc.New(embedder, retrievalSvc, generator, answeruc.Config{
		DefaultTopK:     cfg.Chat.DefaultTopK,
		SnippetMaxChars: cfg.Chat.SnippetMaxChars,
		MaxTokens:       cfg.Generation.AnswerMaxTokens,
	}, logger)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder), repo, ingestSvc)

	server := chiTransport.NewServer(answerSvc, ingestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	// Periodic ingestion; 0 disables the ticker, runs stay on-demand only.
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if cfg.Ingest.IntervalMin > 0 {
		go runScheduler(schedulerCtx, ingestSvc, time.Duration(cfg.Ingest.IntervalMin)*time.Minute, logger)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// runScheduler triggers ingestion on a fixed interval, including one run
// at startup. A run already in flight is skipped, not queued.
func runScheduler(ctx context.Context, svc *ingestuc.Service, interval time.Duration, logger *zap.Logger) {
	run := func() {
		if _, err := svc.Run(ctx); err != nil && !errors.Is(err, domain.ErrRunInProgress) {
			logger.Error("scheduled ingestion failed", zap.Error(err))
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// embeddingHealthChecker adapts the embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder *openaiProvider.Embedder
}

func newEmbeddingHealthChecker(embedder *openaiProvider.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if err := h.embedder.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
