package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/geetaway-search-api/internal/config"
	"github.com/geetaway-search-api/internal/corpus"
	"github.com/geetaway-search-api/internal/generator"
	"github.com/geetaway-search-api/internal/handlers"
	"github.com/geetaway-search-api/internal/logger"
	"github.com/geetaway-search-api/internal/metrics"
	"github.com/geetaway-search-api/internal/middleware"
	"github.com/geetaway-search-api/internal/policy"
	"github.com/geetaway-search-api/internal/repository"
	"github.com/geetaway-search-api/internal/repository/memory"
	"github.com/geetaway-search-api/internal/repository/postgres"
	"github.com/geetaway-search-api/internal/repository/vertex"
	"github.com/geetaway-search-api/internal/services"
	schemacfg "github.com/geetaway-search-api/pkg/schema/config"
	"github.com/geetaway-search-api/pkg/schema/db"
	pkgservices "github.com/geetaway-search-api/pkg/schema/services"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := config.GetConfig()

	zl, err := logger.New(logger.Config{
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Service: "api",
		Version: cfg.APIVersion,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		zl.Fatal("failed to load retrieval policy", zap.Error(err))
	}
	if err := pol.ApplyEnv(os.LookupEnv); err != nil {
		zl.Fatal("invalid retrieval policy override", zap.Error(err))
	}
	zl.Info("retrieval policy loaded",
		zap.String("version", pol.Version),
		zap.Int("max_results", pol.Retrieval.MaxResults),
		zap.Int("fetch_k", pol.Retrieval.FetchK),
		zap.Float64("min_confidence", pol.Retrieval.MinConfidence),
	)

	ctx := context.Background()
	var closers []io.Closer

	// Embeddings must match the ones the corpus was built with
	embCfg := schemacfg.GetConfig()
	embeddingsSvc, err := pkgservices.NewEmbeddingsService(ctx, embCfg)
	if err != nil {
		zl.Fatal("failed to initialize embeddings service", zap.Error(err))
	}
	closers = append(closers, embeddingsSvc)

	repo, repoClosers, err := newCorpusRepository(ctx, cfg, embCfg, zl)
	if err != nil {
		zl.Fatal("failed to create corpus repository", zap.Error(err))
	}
	closers = append(closers, repoClosers...)

	provider := corpus.NewProvider(repo, embeddingsSvc, zl)

	gen, err := newGenerator(ctx, cfg, embCfg)
	if err != nil {
		zl.Fatal("failed to create guidance generator", zap.Error(err))
	}
	if c, ok := gen.(io.Closer); ok {
		closers = append(closers, c)
	}
	if gen == nil {
		zl.Warn("guidance generation disabled")
	} else {
		zl.Info("guidance generator ready", zap.String("provider", cfg.GuidanceProvider), zap.String("model", gen.Model()))
	}

	searchSvc := services.NewSearchService(provider, pol)
	guidanceSvc := services.NewGuidanceService(pol, gen, cfg.GuidanceTimeout)
	stats := handlers.NewStats()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(zl))
	e.Use(echomiddleware.Recover())
	e.Use(middleware.ContextLogger(zl))
	e.Use(metrics.Middleware())
	e.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	handlers.NewHealthHandler(provider, stats, cfg.APITitle, cfg.APIVersion).RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"name":    cfg.APITitle,
			"version": cfg.APIVersion,
			"status":  "running",
		})
	})

	// Create API group with prefix
	api := e.Group(cfg.APIPrefix, middleware.APIKeyAuth(cfg.APIKeys))
	handlers.NewSearchHandler(searchSvc, guidanceSvc, stats).RegisterRoutes(api)
	if len(cfg.APIKeys) == 0 {
		zl.Warn("API key authentication disabled (API_KEYS is empty)")
	}

	// Warm up the corpus; requests arriving earlier wait on the same load
	go func() {
		if _, err := provider.Store(ctx); err != nil {
			zl.Error("corpus warm-up failed; will retry on first request", zap.Error(err))
		}
	}()

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		zl.Info("starting server",
			zap.String("title", cfg.APITitle),
			zap.String("version", cfg.APIVersion),
			zap.String("addr", addr),
			zap.String("corpus_backend", cfg.CorpusBackend),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server stopped", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("error shutting down server", zap.Error(err))
	}

	for _, c := range closers {
		if err := c.Close(); err != nil {
			zl.Error("error closing resource", zap.Error(err))
		}
	}

	zl.Info("server stopped")
}

func newCorpusRepository(ctx context.Context, cfg *config.Config, embCfg *schemacfg.Config, zl *zap.Logger) (repository.CorpusRepository, []io.Closer, error) {
	switch cfg.CorpusBackend {
	case config.BackendVertex:
		zl.Info("using Vertex AI Vector Search corpus backend")
		repo, err := vertex.NewCorpusRepository(ctx, vertex.Config{
			ProjectID:            cfg.VertexProjectID,
			Location:             cfg.VertexLocation,
			IndexEndpointID:      cfg.VertexIndexEndpointID,
			DeployedIndexID:      cfg.VertexDeployedIndexID,
			PublicEndpointDomain: cfg.VertexPublicEndpointDomain,
			DistanceMeasure:      cfg.VertexDistanceMeasure,
			Dimensions:           embCfg.EmbeddingDimensions,
			MetadataPath:         cfg.CorpusMetadataPath,
		})
		if err != nil {
			return nil, nil, err
		}
		return repo, []io.Closer{repo}, nil

	case config.BackendPGVector:
		zl.Info("using pgvector corpus backend")
		pgDB, err := db.OpenPostgres(ctx, embCfg)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewCorpusRepository(pgDB), []io.Closer{pgDB}, nil

	default:
		zl.Info("using in-memory corpus backend",
			zap.String("metadata", cfg.CorpusMetadataPath),
			zap.String("embeddings", cfg.CorpusEmbeddingsPath),
		)
		return memory.NewCorpusRepository(cfg.CorpusMetadataPath, cfg.CorpusEmbeddingsPath), nil, nil
	}
}

// newGenerator returns nil when guidance generation is disabled
func newGenerator(ctx context.Context, cfg *config.Config, embCfg *schemacfg.Config) (generator.Generator, error) {
	switch cfg.GuidanceProvider {
	case config.GuidanceVertex:
		return generator.NewVertexGenerator(ctx, embCfg.GCPProjectID, embCfg.GCPLocation, cfg.GuidanceModel)
	case config.GuidanceOpenAI:
		// An empty key is allowed; requests then get the credentials fallback
		return generator.NewOpenAIGenerator(cfg.GuidanceAPIKey, cfg.GuidanceBaseURL, cfg.GuidanceModel), nil
	default:
		return nil, nil
	}
}
