package clientdata

import (
	"context"
	"time"

	"github.com/aristath/advisor/internal/scheduler/base"
	"github.com/rs/zerolog"
)

// CleanupJob removes expired entries from all signal cache tables
type CleanupJob struct {
	base.JobBase
	repo    *Repository
	timeout time.Duration
	log     zerolog.Logger
}

// NewCleanupJob creates a new cache cleanup job
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:    repo,
		timeout: time.Minute,
		log:     log.With().Str("job", "signal_cache_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *CleanupJob) Name() string {
	return "signal_cache_cleanup"
}

// Run deletes expired entries
func (j *CleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	results, err := j.repo.DeleteAllExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired signal cache entries")
		return err
	}

	var total int64
	for table, count := range results {
		total += count
		if count > 0 {
			j.log.Debug().Str("table", table).Int64("deleted", count).Msg("Expired cache entries removed")
		}
	}
	if total > 0 {
		j.log.Info().Int64("total_deleted", total).Msg("Signal cache cleanup completed")
	}
	return nil
}
