package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/rs/zerolog"
)

// CheckDatabasesJob runs a full integrity check on the advisor databases
type CheckDatabasesJob struct {
	JobBase
	log       zerolog.Logger
	databases []*database.DB
	timeout   time.Duration
}

// NewCheckDatabasesJob creates a new CheckDatabasesJob. Nil databases are skipped.
func NewCheckDatabasesJob(dbs ...*database.DB) *CheckDatabasesJob {
	return &CheckDatabasesJob{
		log:       zerolog.Nop(),
		databases: nonNilDatabases(dbs),
		timeout:   5 * time.Minute,
	}
}

// SetLogger sets the logger for the job
func (j *CheckDatabasesJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckDatabasesJob) Name() string {
	return "check_databases"
}

// Run stops at the first corrupted database
func (j *CheckDatabasesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	for _, db := range j.databases {
		if err := db.IntegrityCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Database integrity check failed")
			return fmt.Errorf("database %s is corrupted: %w", db.Name(), err)
		}
		j.log.Debug().Str("database", db.Name()).Msg("Database integrity OK")
	}

	j.log.Info().Int("databases", len(j.databases)).Msg("Database integrity check passed")
	return nil
}
