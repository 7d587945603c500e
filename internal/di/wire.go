package di

import (
	"context"
	"fmt"

	"github.com/aristath/advisor/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories and services
// 3. Register jobs
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeServices(ctx, container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	return container, jobs, nil
}

// Close stops the scheduler and background runs, then closes the databases
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Runner != nil {
		c.Runner.Close()
	}
	if c.CacheDB != nil {
		c.CacheDB.Close()
	}
	if c.AdvisorDB != nil {
		c.AdvisorDB.Close()
	}
}
