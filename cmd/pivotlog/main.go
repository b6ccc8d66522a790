package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pivotlog/pivotlog/internal/config"
	dbRedis "github.com/pivotlog/pivotlog/internal/db/redis"
	"github.com/pivotlog/pivotlog/internal/domain"
	logpkg "github.com/pivotlog/pivotlog/internal/logger"
	"github.com/pivotlog/pivotlog/internal/metrics"
	decisionrepo "github.com/pivotlog/pivotlog/internal/repository/decision"
	"github.com/pivotlog/pivotlog/internal/repository/embcache"
	chiTransport "github.com/pivotlog/pivotlog/internal/transport/chi"
	openaiProv "github.com/pivotlog/pivotlog/internal/transport/openai"
	backfilluc "github.com/pivotlog/pivotlog/internal/usecase/backfill"
	decisionuc "github.com/pivotlog/pivotlog/internal/usecase/decision"
	healthuc "github.com/pivotlog/pivotlog/internal/usecase/health"
	searchuc "github.com/pivotlog/pivotlog/internal/usecase/search"
	"github.com/pivotlog/pivotlog/internal/version"
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

	logger.Info("Starting pivotlog API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
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

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	// Embedding provider chain — composition root
	embCfg := &openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		TimeoutSec: cfg.Embedding.TimeoutSec,
		Logger:     logger,
	}
	baseEmbedder := openaiProv.NewEmbedder(embCfg)
	cacheTTL := time.Duration(cfg.Embedding.CacheTTLSec) * time.Second
	var embedder domain.Embedder = embcache.New(
		baseEmbedder, store, cacheTTL, metrics.EmbeddingCacheTotal, logger,
	)
	embedderFor := openaiProv.EmbedderFactory(embCfg)

	ansCfg := &openaiProv.AnswerConfig{
		APIKey:     cfg.Answer.APIKey,
		BaseURL:    cfg.Answer.BaseURL,
		Model:      cfg.Answer.Model,
		TimeoutSec: cfg.Answer.TimeoutSec,
		Logger:     logger,
	}
	answerer := openaiProv.NewAnswerer(ansCfg)
	answererFor := openaiProv.AnswererFactory(ansCfg)

	logger.Info("Providers created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("answer_model", cfg.Answer.Model),
	)

	repo := decisionrepo.New(store)

	// Use case services
	searchSvc := searchuc.New(repo, embedder, embedderFor, answerer, answererFor, searchuc.Thresholds{
		SemanticMinSimilarity: cfg.Search.SemanticMinSimilarity,
		HybridMinScore:        cfg.Search.HybridMinScore,
		AskMinSimilarity:      cfg.Search.AskMinSimilarity,
	})
	backfillSvc := backfilluc.New(repo, embedder, embedderFor,
		time.Duration(cfg.Backfill.IntervalMs)*time.Millisecond)
	decisionSvc := decisionuc.New(repo, embedder, embedderFor)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(baseEmbedder))

	server := chiTransport.NewServer(searchSvc, backfillSvc, decisionSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.ClientMap(), cfg.Auth.DefaultOwner))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
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
						"code":    "internal_error",
						"message": "internal error",
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

			// Canonical log line — one line per request
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
