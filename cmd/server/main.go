// Package main is the entry point of the advisor HTTP service.
//
// The service turns an investor profile and upstream market signals into a
// policy allocation, rebalancing instructions, ranked holdings and a
// rendered report. Runs are started over HTTP and tracked in memory;
// finished recommendations are stored as snapshots and optionally archived
// to S3.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/di"
	"github.com/aristath/advisor/internal/server"
	"github.com/aristath/advisor/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("signal_source", cfg.Signals.Source).
		Str("data_dir", cfg.DataDir).
		Msg("Starting advisor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Databases, providers, allocator, runner and housekeeping jobs
	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	srvCfg := server.Config{
		Log:         log,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		CORSOrigins: cfg.CORSOrigins,
		Databases:   []*database.DB{container.AdvisorDB, container.CacheDB},
		Runner:      container.Runner,
		Snapshots:   container.SnapshotRepo,
		Analysis:    container.FileProvider,
		Events:      container.EventBus,
		Metrics:     container.Metrics,
	}
	// Only a real provider may sit behind the interface
	if container.HTTPProvider != nil {
		srvCfg.Breaker = container.HTTPProvider
	}
	srv := server.New(srvCfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop accepting requests first; in-flight requests get 10 seconds
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Scheduler, background runs and databases
	container.Close()

	log.Info().Msg("Server stopped")
}
