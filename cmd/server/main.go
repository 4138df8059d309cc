package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/meilisearch/meilisearch-go"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"note-ranker/internal/adapter/corpus"
	"note-ranker/internal/adapter/dense"
	"note-ranker/internal/adapter/lexical"
	"note-ranker/internal/adapter/localscore"
	"note-ranker/internal/adapter/rank_http"
	"note-ranker/internal/adapter/repository"
	"note-ranker/internal/adapter/scorehttp"
	"note-ranker/internal/domain"
	"note-ranker/internal/infra"
	"note-ranker/internal/infra/config"
	"note-ranker/internal/infra/logger"
	"note-ranker/internal/infra/otel"
	"note-ranker/internal/usecase"
	"note-ranker/internal/usecase/ranking"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize OTel (before the logger so the otelslog bridge sees the
	// provider)
	otelCfg := otel.ConfigFromEnv()
	otelCfg.Enabled = cfg.OTelEnabled
	shutdownOTel, err := otel.InitProvider(context.Background(), otelCfg)
	if err != nil {
		slog.Error("failed to init otel", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(ctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	// 3. Initialize Logger
	log := logger.NewWithOTel(cfg.OTelEnabled)
	slog.SetDefault(log)

	// 4. Load corpus inputs
	chunks, skipped, err := corpus.LoadChunks(cfg.CorpusPath)
	if err != nil {
		log.Error("failed to load corpus", "error", err, "path", cfg.CorpusPath)
		os.Exit(1)
	}
	if skipped > 0 {
		log.Warn("corpus lines skipped", "skipped", skipped, "path", cfg.CorpusPath)
	}
	log.Info("corpus loaded", "chunks", chunks.Len(), "path", cfg.CorpusPath)

	links, skipped, err := corpus.LoadNoteLinks(cfg.NoteLinksPath)
	if err != nil {
		log.Error("failed to load note links", "error", err, "path", cfg.NoteLinksPath)
		os.Exit(1)
	}
	if skipped > 0 {
		log.Warn("note-link lines skipped", "skipped", skipped, "path", cfg.NoteLinksPath)
	}

	points, skipped, err := corpus.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		log.Error("failed to load calibration", "error", err, "path", cfg.CalibrationPath)
		os.Exit(1)
	}
	if skipped > 0 {
		log.Warn("calibration lines skipped", "skipped", skipped, "path", cfg.CalibrationPath)
	}
	calibrator := ranking.NewCalibrator(points)
	if !calibrator.Calibrated() {
		log.Warn("calibration unavailable, raw scores pass through clamped")
	}

	funnelCfg := ranking.DefaultConfig()

	// 5. Initialize Adapters
	var lexicalSearcher domain.LexicalSearcher
	switch cfg.LexicalBackend {
	case "meili":
		client := meilisearch.New(cfg.MeiliHost, meilisearch.WithAPIKey(cfg.MeiliAPIKey))
		lexicalSearcher = lexical.NewMeiliSearcher(client, cfg.MeiliIndex)
		log.Info("lexical backend", "backend", "meili", "index", cfg.MeiliIndex)
	default:
		lexicalSearcher = lexical.NewBM25Searcher(chunks, funnelCfg.LexicalK1, funnelCfg.LexicalB)
		log.Info("lexical backend", "backend", "bm25")
	}

	var encoder domain.VectorEncoder
	switch cfg.EncoderBackend {
	case "ollama":
		encoder = scorehttp.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, 60*time.Second)
	default:
		encoder = dense.NewHashingEncoder(0)
	}
	log.Info("encoder backend", "backend", cfg.EncoderBackend, "version", encoder.Version())

	var dbPool *pgxpool.Pool
	var denseSearcher domain.DenseSearcher
	switch cfg.DenseBackend {
	case "pgvector":
		dsn := infra.BuildDSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		dbPool, err = infra.NewPostgresDB(context.Background(), dsn)
		if err != nil {
			log.Error("failed to connect to db", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		denseSearcher = repository.NewChunkVectorRepository(dbPool, encoder)
		log.Info("dense backend", "backend", "pgvector")
	default:
		denseSearcher, err = dense.BuildEmbeddedIndex(context.Background(), encoder, chunks)
		if err != nil {
			log.Error("failed to build embedded index", "error", err)
			os.Exit(1)
		}
		log.Info("dense backend", "backend", "embedded")
	}

	var pairwise domain.PairwiseScorer
	switch cfg.PairwiseBackend {
	case "cross-encoder":
		timeout := time.Duration(cfg.RerankTimeoutSec) * time.Second
		pairwise, err = scorehttp.NewCrossEncoderClient(cfg.RerankURL, cfg.RerankModel, timeout, cfg.RerankMaxRPS, log)
		if err != nil {
			log.Error("failed to create cross-encoder client", "error", err)
			os.Exit(1)
		}
	default:
		pairwise = localscore.NewTermOverlapScorer()
	}
	log.Info("pairwise backend", "model", pairwise.ModelName())

	// 6. Initialize Usecase
	pipeline := usecase.NewRankPipelineUsecase(
		lexicalSearcher,
		denseSearcher,
		localscore.NewTokenInteractionScorer(),
		pairwise,
		calibrator,
		chunks,
		links,
		funnelCfg,
		log,
	)

	// 7. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// 8. Register Handlers
	handler := rank_http.NewHandler(pipeline)
	e.POST("/v1/rank", handler.Rank)

	// 9. Health Checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		if dbPool != nil {
			if err := dbPool.Ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db down", "error": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	// 10. Start Server (h2c so clients can use HTTP/2 without TLS)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(e, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
