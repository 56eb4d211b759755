package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/region-weather/internal/adapter/geojson"
	httpadapter "github.com/couchcryptid/region-weather/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/region-weather/internal/adapter/kafka"
	"github.com/couchcryptid/region-weather/internal/adapter/weatherapi"
	"github.com/couchcryptid/region-weather/internal/config"
	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/observability"
	"github.com/couchcryptid/region-weather/internal/ranking"
	"github.com/couchcryptid/region-weather/internal/resolver"
	"github.com/couchcryptid/region-weather/internal/selection"
	"github.com/couchcryptid/region-weather/internal/state"
	"github.com/couchcryptid/region-weather/internal/synchronizer"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	clock, err := domain.LoadClock(cfg.ReferenceTimezone)
	if err != nil {
		logger.Error("failed to load reference timezone", "timezone", cfg.ReferenceTimezone, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := weatherapi.NewClient(cfg.WeatherAPIURL, cfg.WeatherAPITimeout, cfg.WeatherAPIRetries, logger, metrics)
	details := weatherapi.NewCachedDetails(client, cfg.DetailCacheSize, cfg.DetailCacheTTL, nil, metrics)

	var source domain.RegionSource = client
	if cfg.RegionsPath != "" {
		source = geojson.RegionFile{Path: cfg.RegionsPath}
	}

	// Catalog and boundaries load in parallel; either failing aborts startup.
	var (
		regions  []domain.Region
		features domain.FeatureCollection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		regions, err = source.FetchRegions(gctx)
		return err
	})
	if cfg.GeoJSONPath != "" {
		g.Go(func() error {
			var err error
			features, err = geojson.LoadFeaturesFile(cfg.GeoJSONPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("failed to load static data", "error", err)
		os.Exit(1)
	}

	catalog, err := domain.NewCatalog(regions)
	if err != nil {
		logger.Error("invalid region catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("region catalog loaded", "regions", catalog.Len(), "features", len(features.Features))

	res := resolver.New(catalog)
	engine := ranking.NewEngine(catalog)
	store := state.New()

	var publisher synchronizer.SnapshotPublisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("snapshot notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSnapshotTopic)
	} else {
		logger.Info("snapshot notifications disabled")
	}

	snapshots := synchronizer.NewSnapshotSynchronizer(client, store, catalog, clock, publisher, logger, metrics)
	detailSync := synchronizer.NewDetailSeriesSynchronizer(details, store, catalog, clock, logger, metrics)
	ctrl := selection.New(ctx, store, snapshots, detailSync, res, clock, cfg.MinDate, logger)

	api := httpadapter.NewAPI(store, ctrl, catalog, res, engine, features, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, store, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	ctrl.Init(selection.DefaultRegion(catalog, cfg.DefaultRegion))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	ctrl.Wait()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
