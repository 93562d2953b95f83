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

	"github.com/unilink/scholarmatch/internal/config"
	"github.com/unilink/scholarmatch/internal/db"
	dbRedis "github.com/unilink/scholarmatch/internal/db/redis"
	"github.com/unilink/scholarmatch/internal/domain"
	logpkg "github.com/unilink/scholarmatch/internal/logger"
	"github.com/unilink/scholarmatch/internal/metrics"
	"github.com/unilink/scholarmatch/internal/profiletext"
	"github.com/unilink/scholarmatch/internal/repository/embcache"
	"github.com/unilink/scholarmatch/internal/repository/profilevec"
	"github.com/unilink/scholarmatch/internal/repository/qdrant"
	recommendrepo "github.com/unilink/scholarmatch/internal/repository/recommendation"
	"github.com/unilink/scholarmatch/internal/taxonomy"
	chiTransport "github.com/unilink/scholarmatch/internal/transport/chi"
	"github.com/unilink/scholarmatch/internal/transport/collab"
	openaiEmb "github.com/unilink/scholarmatch/internal/transport/openai"
	healthuc "github.com/unilink/scholarmatch/internal/usecase/health"
	indexuc "github.com/unilink/scholarmatch/internal/usecase/index"
	matchuc "github.com/unilink/scholarmatch/internal/usecase/match"
	recommenduc "github.com/unilink/scholarmatch/internal/usecase/recommend"
	"github.com/unilink/scholarmatch/internal/version"
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

	logger.Info("Starting scholarmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
		zap.String("vector_store", cfg.VectorStore.URL),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMatchingMetrics()

	heuristics := buildHeuristics(cfg.Heuristics)

	// Embedder chains — the query chain carries the enhancement decorator
	// outermost so the cache key includes the enhanced text.
	docEmbedder := buildEmbedder(cfg.Embedding, store, cfg.Cache.KeyPrefix, logger)
	queryEmbedder := domain.NewQueryEnhancer(buildEmbedder(cfg.Embedding, store, cfg.Cache.KeyPrefix, logger), heuristics)
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Vector store — optional; without it matching runs brute-force only.
	var vectors *qdrant.Client
	if cfg.VectorStore.URL != "" {
		vectors, err = qdrant.NewClient(qdrant.Config{
			URL:               cfg.VectorStore.URL,
			APIKey:            cfg.VectorStore.APIKey,
			Dimensions:        cfg.Embedding.Dimensions,
			Distance:          cfg.VectorStore.Distance,
			ReplicationFactor: cfg.VectorStore.ReplicationFactor,
			Timeout:           time.Duration(cfg.VectorStore.TimeoutSec) * time.Second,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create vector store client", zap.Error(err))
		}
		if !vectors.Reachable(ctx) {
			logger.Warn("Vector store unreachable at startup, matching degrades to brute force")
		}
	} else {
		logger.Warn("No vector store configured, matching runs brute-force only")
	}

	tax, err := taxonomy.LoadFile(cfg.Taxonomy.Path, logger)
	if err != nil {
		logger.Fatal("Failed to load taxonomy table", zap.Error(err))
	}
	logger.Info("Taxonomy loaded", zap.Int("entries", tax.Len()))

	builder := profiletext.New(tax, heuristics.InterestLabels, cfg.Matching.MaxTokens, logger)
	mirror := profilevec.New(store, cfg.Cache.KeyPrefix, logger)
	batches := recommendrepo.New(store, cfg.Cache.KeyPrefix, 0, logger)

	collaborators := collab.NewClient(collab.Config{
		TextURL:    cfg.Collaborators.TextURL,
		JustifyURL: cfg.Collaborators.JustifyURL,
		APIKey:     cfg.Collaborators.APIKey,
		Timeout:    time.Duration(cfg.Collaborators.TimeoutSec) * time.Second,
	}, logger)

	// Pass nil interfaces (not typed nil pointers!) when no vector store is
	// configured. Go gotcha: (*qdrant.Client)(nil) wrapped in an interface
	// != nil. Indexing still mirrors vectors so brute force keeps working.
	var vectorIndex indexuc.VectorIndex = noopVectorIndex{}
	var vectorSearcher matchuc.VectorSearcher
	if vectors != nil {
		vectorIndex = vectors
		vectorSearcher = vectors
	}

	prefix := cfg.VectorStore.CollectionPrefix
	indexSvc := indexuc.New(builder, docEmbedder, vectorIndex, mirror, prefix, logger)
	matchSvc := matchuc.NewService(queryEmbedder, vectorSearcher, mirror, heuristics, prefix, matchuc.Options{
		QueryWeight:    cfg.Matching.QueryWeight,
		ProfileWeight:  cfg.Matching.ProfileWeight,
		Threshold:      cfg.Matching.Threshold,
		VagueThreshold: cfg.Matching.VagueThreshold,
		BackoffLadder:  cfg.Matching.BackoffLadder,
		Limit:          cfg.Matching.DefaultLimit,
	}, logger)
	recommendSvc := recommenduc.NewService(matchSvc, batches, collaborators, collaborators, logger)

	var vectorChecker healthuc.VectorStoreChecker
	if vectors != nil {
		vectorChecker = vectors
	}
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(docEmbedder), vectorChecker)

	server := chiTransport.NewServer(matchSvc, recommendSvc, indexSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// buildHeuristics starts from the built-in word lists and swaps in any
// configured override wholesale.
func buildHeuristics(hc config.HeuristicsConfig) domain.Heuristics {
	h := domain.DefaultHeuristics()
	if hc.VaguePatterns != nil {
		h.VaguePatterns = hc.VaguePatterns
	}
	if hc.RecognizedFields != nil {
		h.RecognizedFields = hc.RecognizedFields
	}
	if hc.DomainKeywords != nil {
		h.DomainKeywords = hc.DomainKeywords
	}
	if hc.IntentFramings != nil {
		h.IntentFramings = hc.IntentFramings
	}
	if hc.QueryContextPrefix != "" {
		h.QueryContextPrefix = hc.QueryContextPrefix
	}
	if hc.InterestLabels != nil {
		h.InterestLabels = hc.InterestLabels
	}
	return h
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
func buildEmbedder(ec config.EmbeddingConfig, store db.Store, keyPrefix string, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		ttl := time.Duration(ec.CacheTTLDays) * 24 * time.Hour
		embedder = embcache.New(base, store, keyPrefix, ec.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}
	return embedder
}

// noopVectorIndex stands in for the vector store in brute-force-only
// deployments. Writes land only in the mirror.
type noopVectorIndex struct{}

func (noopVectorIndex) EnsureCollection(_ context.Context, _ string) error { return nil }

func (noopVectorIndex) Upsert(_ context.Context, _, _ string, _ []float32, _ map[string]string) error {
	return nil
}

func (noopVectorIndex) BatchUpsert(_ context.Context, _ string, _ []qdrant.Point) error { return nil }

func (noopVectorIndex) Delete(_ context.Context, _ string, _ ...string) error { return nil }

// embeddingHealthChecker unwraps the decorator chain to reach the provider's
// health probe.
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

			// Set X-Request-ID in response header
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
