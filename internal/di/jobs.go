package di

import (
	"fmt"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/scheduler"
	"github.com/rs/zerolog"
)

// JobInstances holds the registered housekeeping jobs
type JobInstances struct {
	CacheCleanup      *clientdata.CleanupJob
	WorkflowCleanup   *scheduler.WorkflowCleanupJob
	SnapshotRetention *scheduler.SnapshotRetentionJob
	WALCheckpoints    *scheduler.CheckWALCheckpointsJob
	IntegrityCheck    *scheduler.CheckDatabasesJob
}

// RegisterJobs creates the scheduler and registers every housekeeping job.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)
	instances := &JobInstances{}

	// Job 1: Expired signal cache entries
	instances.CacheCleanup = clientdata.NewCleanupJob(container.CacheRepo, log)
	if err := sched.AddJob(cfg.Schedules.CacheCleanup, instances.CacheCleanup); err != nil {
		return nil, fmt.Errorf("failed to register cache cleanup job: %w", err)
	}

	// Job 2: Finished workflow runs
	instances.WorkflowCleanup = scheduler.NewWorkflowCleanupJob(container.Runner, cfg.WorkflowRetention)
	instances.WorkflowCleanup.SetLogger(log.With().Str("job", "workflow_cleanup").Logger())
	if err := sched.AddJob(cfg.Schedules.WorkflowCleanup, instances.WorkflowCleanup); err != nil {
		return nil, fmt.Errorf("failed to register workflow cleanup job: %w", err)
	}

	// Job 3: Snapshot retention
	instances.SnapshotRetention = scheduler.NewSnapshotRetentionJob(container.SnapshotRepo, cfg.SnapshotRetention)
	instances.SnapshotRetention.SetLogger(log.With().Str("job", "snapshot_retention").Logger())
	if err := sched.AddJob(cfg.Schedules.SnapshotCleanup, instances.SnapshotRetention); err != nil {
		return nil, fmt.Errorf("failed to register snapshot retention job: %w", err)
	}

	// Job 4: WAL checkpoints, alongside cache cleanup
	instances.WALCheckpoints = scheduler.NewCheckWALCheckpointsJob(container.AdvisorDB, container.CacheDB)
	instances.WALCheckpoints.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())
	if err := sched.AddJob(cfg.Schedules.CacheCleanup, instances.WALCheckpoints); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	// Job 5: Database integrity
	instances.IntegrityCheck = scheduler.NewCheckDatabasesJob(container.AdvisorDB, container.CacheDB)
	instances.IntegrityCheck.SetLogger(log.With().Str("job", "check_databases").Logger())
	if err := sched.AddJob(cfg.Schedules.IntegrityCheck, instances.IntegrityCheck); err != nil {
		return nil, fmt.Errorf("failed to register integrity check job: %w", err)
	}

	container.Scheduler = sched
	log.Info().Int("jobs", len(sched.Jobs())).Msg("Scheduler jobs registered")

	return instances, nil
}
