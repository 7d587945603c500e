package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/advisor/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{DataDir: tmpDir}

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	defer container.Close()

	assert.NotNil(t, container.AdvisorDB)
	assert.NotNil(t, container.CacheDB)

	assert.FileExists(t, filepath.Join(tmpDir, "advisor.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "cache.db"))
}

func TestInitializeDatabases_InvalidPath(t *testing.T) {
	// A regular file where the data directory should be
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	cfg := &config.Config{DataDir: filepath.Join(blocker, "data")}

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, container)
}

func TestInitializeDatabases_SchemaMigration(t *testing.T) {
	cfg := &config.Config{DataDir: t.TempDir()}

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	testCases := []struct {
		db    string
		table string
	}{
		{"advisor", "snapshots"},
		{"advisor", "snapshot_archives"},
		{"cache", "macro_signals"},
		{"cache", "asset_signals"},
		{"cache", "sector_signals"},
	}

	for _, tc := range testCases {
		t.Run(tc.db+"/"+tc.table, func(t *testing.T) {
			db := container.AdvisorDB
			if tc.db == "cache" {
				db = container.CacheDB
			}
			var name string
			err := db.Conn().QueryRow(
				"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", tc.table,
			).Scan(&name)
			require.NoError(t, err)
			assert.Equal(t, tc.table, name)
		})
	}
}
