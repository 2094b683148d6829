package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/docuseek/docrag/internal/config"
	"github.com/docuseek/docrag/internal/db"
	dbMemory "github.com/docuseek/docrag/internal/db/memory"
	dbRedis "github.com/docuseek/docrag/internal/db/redis"
	"github.com/docuseek/docrag/internal/domain"
	logpkg "github.com/docuseek/docrag/internal/logger"
	"github.com/docuseek/docrag/internal/metrics"
	"github.com/docuseek/docrag/internal/repository/chunkstore"
	"github.com/docuseek/docrag/internal/repository/docsource"
	"github.com/docuseek/docrag/internal/repository/embcache"
	"github.com/docuseek/docrag/internal/textproc"
	chiTransport "github.com/docuseek/docrag/internal/transport/chi"
	openaiEmb "github.com/docuseek/docrag/internal/transport/openai"
	embeddinguc "github.com/docuseek/docrag/internal/usecase/embedding"
	ingestuc "github.com/docuseek/docrag/internal/usecase/ingest"
	retrieveuc "github.com/docuseek/docrag/internal/usecase/retrieve"
	"github.com/docuseek/docrag/internal/version"
)

// chunkStore is the full chunk store surface used by the services.
type chunkStore interface {
	Has(ctx context.Context, documentID int64) (bool, error)
	Put(ctx context.Context, documentID int64, entries []domain.Entry) error
	Get(ctx context.Context, documentID int64) ([]domain.Entry, error)
	Delete(ctx context.Context, documentID int64) error
}

// sourceStore persists raw document text.
type sourceStore interface {
	Save(ctx context.Context, documentID int64, text string) error
	Get(ctx context.Context, documentID int64) (string, error)
	Delete(ctx context.Context, documentID int64) error
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
	)

	ctx := context.Background()

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRAGMetrics()

	// Build the storage layer based on the configured driver
	var (
		chunks  chunkStore
		sources sourceStore
		cacheKV db.Store
		pinger  chiTransport.Pinger
	)
	switch cfg.Store.Driver {
	case "memory":
		mem := dbMemory.NewStore()
		chunks = chunkstore.NewMemory()
		sources = docsource.NewKV(mem)
		cacheKV = mem
		pinger = mem

	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Store.Addrs,
			Password: cfg.Store.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		chunks = chunkstore.NewRedis(store)
		sources = docsource.NewKV(store)
		cacheKV = store
		pinger = store

	case "postgres":
		sqlDB, err := sql.Open("postgres", cfg.Store.DSN)
		if err != nil {
			logger.Fatal("Failed to open postgres connection", zap.Error(err))
		}
		defer sqlDB.Close()

		if err := waitForPostgres(ctx, sqlDB, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Postgres not ready", zap.Error(err))
		}
		chunks = chunkstore.NewPostgres(sqlDB)
		sources = docsource.NewPostgres(sqlDB)
		// Embedding cache stays process-local under the postgres driver
		cacheKV = dbMemory.NewStore()
		pinger = sqlPinger{db: sqlDB}

	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	logger.Info("Storage ready", zap.String("driver", cfg.Store.Driver))

	// Embedder chain: OpenAI -> Cached, built lazily on first use
	embedder := embeddinguc.NewLazy(func(ctx context.Context) (domain.Embedder, error) {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			Logger:     logger,
		})
		if err := base.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("probe embedding provider: %w", err)
		}
		logger.Info("Embedding provider ready",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
		ttl := time.Duration(cfg.Embedding.CacheTTLh) * time.Hour
		return embcache.New(base, cacheKV, cfg.Embedding.Model, ttl, metrics.EmbeddingCacheTotal, logger), nil
	})

	// Use case services
	chunker := textproc.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	ingestSvc := ingestuc.New(chunks, embedder, chunker, logger,
		ingestuc.WithBatchSize(cfg.Embedding.BatchSize),
		ingestuc.WithMinTextLen(cfg.Retrieval.MinTextLen),
	)
	retrieveSvc := retrieveuc.New(chunks, sources, ingestSvc, embedder, logger,
		retrieveuc.WithTopK(cfg.Retrieval.TopK),
	)

	server := chiTransport.NewServer(sources, chunks, ingestSvc, retrieveSvc, pinger, embedder, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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

// sqlPinger adapts *sql.DB to the transport health contract.
type sqlPinger struct {
	db *sql.DB
}

func (p sqlPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// waitForPostgres polls the connection until it answers or the timeout expires.
func waitForPostgres(ctx context.Context, sqlDB *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		if lastErr = sqlDB.PingContext(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready after %s: %w", timeout, lastErr)
		case <-time.After(time.Second):
		}
	}
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
