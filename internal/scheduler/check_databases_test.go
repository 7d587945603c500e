package scheduler

import (
	"path/filepath"
	"testing"

	"github.com/aristath/advisor/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDatabasesJob_Name(t *testing.T) {
	assert.Equal(t, "check_databases", NewCheckDatabasesJob().Name())
}

func TestCheckDatabasesJob_Run_NoDatabases(t *testing.T) {
	job := NewCheckDatabasesJob(nil, nil)
	job.SetLogger(zerolog.Nop())

	assert.Empty(t, job.databases)
	assert.NoError(t, job.Run())
}

func TestCheckDatabasesJob_Run(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: database.ProfileCache,
		Name:    database.NameCache,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	job := NewCheckDatabasesJob(db)
	assert.NoError(t, job.Run())

	// A closed connection cannot be checked
	require.NoError(t, db.Close())
	assert.Error(t, job.Run())
}
