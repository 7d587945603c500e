package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// snapshotRetentionTimeout bounds a single retention sweep
const snapshotRetentionTimeout = 2 * time.Minute

// SnapshotRetentionJob deletes recommendation snapshots older than the
// retention window. A zero retention keeps snapshots forever.
type SnapshotRetentionJob struct {
	JobBase
	log       zerolog.Logger
	pruner    SnapshotPruner
	retention time.Duration
	now       func() time.Time
}

// NewSnapshotRetentionJob creates a new SnapshotRetentionJob
func NewSnapshotRetentionJob(pruner SnapshotPruner, retention time.Duration) *SnapshotRetentionJob {
	return &SnapshotRetentionJob{
		log:       zerolog.Nop(),
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
	}
}

// SetLogger sets the logger for the job
func (j *SnapshotRetentionJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *SnapshotRetentionJob) Name() string {
	return "snapshot_retention"
}

// Run executes the snapshot retention job
func (j *SnapshotRetentionJob) Run() error {
	if j.retention <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotRetentionTimeout)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	deleted, err := j.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Deleted expired snapshots")
	}
	return nil
}
