package scheduler

import (
	"context"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/rs/zerolog"
)

// walFrameWarnThreshold is the WAL size (in frames) left after a checkpoint
// above which a warning is logged
const walFrameWarnThreshold = 1000

// CheckWALCheckpointsJob checkpoints each database's WAL and reports
// databases whose WAL keeps growing
type CheckWALCheckpointsJob struct {
	JobBase
	log       zerolog.Logger
	databases []*database.DB
	timeout   time.Duration
}

// NewCheckWALCheckpointsJob creates a new CheckWALCheckpointsJob. Nil
// databases are skipped.
func NewCheckWALCheckpointsJob(dbs ...*database.DB) *CheckWALCheckpointsJob {
	return &CheckWALCheckpointsJob{
		log:       zerolog.Nop(),
		databases: nonNilDatabases(dbs),
		timeout:   30 * time.Second,
	}
}

// SetLogger sets the logger for the job
func (j *CheckWALCheckpointsJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckWALCheckpointsJob) Name() string {
	return "check_wal_checkpoints"
}

// Run checkpoints every database. A failing database is logged and skipped
// so the others still get checkpointed.
func (j *CheckWALCheckpointsJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	checked := 0
	for _, db := range j.databases {
		status, err := db.Checkpoint(ctx)
		if err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to checkpoint WAL")
			continue
		}
		checked++

		remaining := status.Frames - status.Checkpointed
		if status.Busy || remaining > walFrameWarnThreshold {
			j.log.Warn().
				Str("database", db.Name()).
				Bool("busy", status.Busy).
				Int("wal_frames", status.Frames).
				Int("checkpointed", status.Checkpointed).
				Msg("WAL not fully checkpointed")
			continue
		}
		j.log.Debug().
			Str("database", db.Name()).
			Int("wal_frames", status.Frames).
			Msg("WAL checkpointed")
	}

	j.log.Info().Int("checked", checked).Msg("WAL checkpoint run completed")
	return nil
}

func nonNilDatabases(dbs []*database.DB) []*database.DB {
	out := make([]*database.DB, 0, len(dbs))
	for _, db := range dbs {
		if db != nil {
			out = append(out, db)
		}
	}
	return out
}
