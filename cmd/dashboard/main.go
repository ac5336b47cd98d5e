package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/disease-map-service/internal/adapter/fetch"
	httpadapter "github.com/couchcryptid/disease-map-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disease-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/disease-map-service/internal/adapter/sheet"
	"github.com/couchcryptid/disease-map-service/internal/chart"
	"github.com/couchcryptid/disease-map-service/internal/config"
	"github.com/couchcryptid/disease-map-service/internal/dashboard"
	"github.com/couchcryptid/disease-map-service/internal/domain"
	"github.com/couchcryptid/disease-map-service/internal/observability"
	"github.com/couchcryptid/disease-map-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	renderer, err := chart.ProbeMatrixRenderer(cfg.MatrixRenderer, cfg.AssetsDir)
	if err != nil {
		logger.Error("invalid matrix renderer", "error", err)
		os.Exit(1)
	}
	logger.Info("matrix renderer selected", "renderer", renderer.Name())

	fetcher := fetch.New(cfg.DataSource, fetch.Options{
		Timeout:   cfg.FetchTimeout,
		Retries:   cfg.FetchRetries,
		CacheSize: cfg.FetchCacheSize,
		CacheTTL:  cfg.FetchCacheTTL,
	}, logger, metrics)

	// Summary publishing is feature-flagged via KAFKA_ENABLED.
	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("summary publishing enabled", "topic", cfg.KafkaSummaryTopic)
	} else {
		logger.Info("summary publishing disabled")
	}

	scale, err := domain.ScaleNamed(cfg.ColorPalette)
	if err != nil {
		logger.Error("invalid color palette", "error", err)
		os.Exit(1)
	}

	loader := pipeline.New(fetcher, sheet.Decoder{}, cfg.Catalog, cfg.BoundaryFile, publisher, logger, metrics)
	board := dashboard.New(loader, chart.Options{Scale: scale, Renderer: renderer}, cfg.DefaultYear, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, board, loader, httpadapter.Options{
		CORSOrigins: cfg.CORSOrigins,
		AssetsDir:   cfg.AssetsDir,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Attach the default selection so the dashboard opens on a populated view.
	go func() {
		if _, err := board.Select(ctx, domain.Selection{Year: cfg.DefaultYear}); err != nil && !errors.Is(err, domain.ErrSuperseded) {
			logger.Warn("initial selection failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
