package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/adapters/errors/noop"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/adapters/errors/sentry"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/api"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/api/health"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/api/ws"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/cache"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/config"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/metrics"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/ml"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/scoring"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/storage"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/workers"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	// Model registry. A missing artifact directory is not fatal at
	// startup: the server comes up not-ready and models can be
	// loaded later via the reload endpoint.
	registry := ml.NewRegistry(&ml.ONNXLoader{})
	loadErr := registry.Load(cfg.Models.Dir)
	metrics.RecordModelReload(loadErr)
	if loadErr != nil {
		log.Warnw("Initial model load failed, serving not-ready until reload",
			"dir", cfg.Models.Dir, "error", loadErr)
	}

	pipeline := scoring.NewPipeline(registry)
	store := storage.NewAssessmentStore()

	responseCache := initCache(cfg, log)
	defer responseCache.Close()

	hub := ws.NewHub()
	go hub.Run()

	// Background fleet scoring
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewFleetScorer(
		pipeline, store, hub,
		cfg.Data.SensorCSV,
		cfg.Workers.FleetScorerInterval,
		cfg.Workers.FleetScorerEnabled,
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	// HTTP server
	handlers := api.NewHandlers(cfg, pipeline, registry, store, responseCache, hub)
	healthHandler := health.New(registry, cfg.App.Name, cfg.App.Version)
	server := api.NewServer(cfg.Server.Port, handlers, healthHandler, hub)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Info("System initialized successfully")

	waitForShutdown(cfg, cancel, server, scheduler, serverErr, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initCache connects the response cache, falling back to no-op when
// disabled or unreachable
func initCache(cfg *config.Config, log *logger.Logger) cache.ResponseCache {
	if !cfg.Cache.Enabled {
		log.Info("Response cache disabled")
		return cache.NoopCache{}
	}

	redisCache, err := cache.NewRedisCache(cfg.Cache)
	if err != nil {
		log.Warnf("Failed to connect response cache, running without: %v", err)
		return cache.NoopCache{}
	}

	log.Infow("Response cache connected", "addr", cfg.Cache.Addr(), "ttl", cfg.Cache.TTL)
	return redisCache
}

// waitForShutdown blocks until a signal or server failure, then
// stops workers and drains the HTTP server
func waitForShutdown(
	cfg *config.Config,
	cancel context.CancelFunc,
	server *api.Server,
	scheduler *workers.Scheduler,
	serverErr <-chan error,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Errorf("HTTP server failed: %v", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP shutdown error: %v", err)
	}
	if err := scheduler.Stop(); err != nil {
		log.Errorf("Worker shutdown error: %v", err)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer flushCancel()
	_ = errorTracker.Flush(flushCtx)

	log.Info("Shutdown complete")
}
