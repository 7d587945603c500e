/**
 * Package di wires the advisor's dependencies.
 *
 * The Container is the single source of truth for service instances and is
 * shared by the HTTP server and the CLI.
 */
package di

import (
	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/snapshots"
	"github.com/aristath/advisor/internal/scheduler"
	"github.com/aristath/advisor/internal/signals"
	"github.com/aristath/advisor/internal/workflow"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: advisor.db (snapshots, archive links) and cache.db (upstream responses)
 * - Signals: file or HTTP provider, selected by SIGNAL_SOURCE
 * - Services: allocator, archiver, workflow runner
 * - Infrastructure: event bus, metrics registry, cron scheduler
 */
type Container struct {
	// Databases
	AdvisorDB *database.DB // Recommendation snapshots and archive links
	CacheDB   *database.DB // Upstream signal responses with TTL

	// Repositories
	SnapshotRepo *snapshots.Repository
	CacheRepo    *clientdata.Repository

	// Signals
	Signals      signals.Provider
	FileProvider *signals.FileProvider // Always set; serves the analysis file endpoints
	HTTPProvider *signals.HTTPProvider // Set when SIGNAL_SOURCE=http

	// Services
	Allocator *portfolio.Allocator
	Archiver  *archive.Archiver
	Runner    *workflow.Runner

	// Infrastructure
	EventBus     *events.Bus
	EventManager *events.Manager
	Metrics      *metrics.Registry
	Scheduler    *scheduler.Scheduler
}
