package di

import (
	"context"
	"fmt"

	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/snapshots"
	"github.com/aristath/advisor/internal/signals"
	"github.com/aristath/advisor/internal/workflow"
	"github.com/rs/zerolog"
)

// InitializeServices creates repositories, providers and services on top of
// the databases already held by the container
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Repositories
	container.SnapshotRepo = snapshots.NewRepository(container.AdvisorDB.Conn(), log)
	container.CacheRepo = clientdata.NewRepository(container.CacheDB.Conn())

	// Infrastructure
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)
	container.Metrics = metrics.NewRegistry()

	// Signals
	container.FileProvider = signals.NewFileProvider(cfg.AnalysisDir, log)
	switch cfg.Signals.Source {
	case config.SignalSourceHTTP:
		httpProvider, err := signals.NewHTTPProvider(signals.HTTPConfig{
			BaseURL:     cfg.Signals.ServiceURL,
			APIKey:      cfg.Signals.APIKey,
			Timeout:     cfg.Signals.Timeout,
			RateLimit:   cfg.Signals.RateLimit,
			Burst:       cfg.Signals.Burst,
			CacheTTL:    cfg.Signals.CacheTTL,
			MaxFailures: cfg.Signals.MaxFailures,
		}, container.CacheRepo, log)
		if err != nil {
			return fmt.Errorf("failed to create signal service client: %w", err)
		}
		container.HTTPProvider = httpProvider
		container.Signals = httpProvider
		log.Info().Str("url", cfg.Signals.ServiceURL).Msg("Using analysis service for signals")
	default:
		container.Signals = container.FileProvider
		log.Info().Str("dir", cfg.AnalysisDir).Msg("Using analysis directory for signals")
	}

	// Services
	allocator, err := portfolio.NewAllocator(cfg.Allocator, log)
	if err != nil {
		return err
	}
	container.Allocator = allocator

	archiver, err := archive.New(ctx, cfg.Archive, log)
	if err != nil {
		return fmt.Errorf("failed to create report archiver: %w", err)
	}
	container.Archiver = archiver

	deps := workflow.Deps{
		Macro:      container.Signals,
		Assets:     container.Signals,
		Allocator:  allocator,
		Store:      container.SnapshotRepo,
		Events:     container.EventManager,
		Metrics:    container.Metrics,
		ReportsDir: cfg.ReportsDir,
	}
	// A disabled archiver must stay a nil interface
	if archiver.Enabled() {
		deps.Archiver = archiver
	}
	container.Runner = workflow.NewRunner(deps, log)

	return nil
}
