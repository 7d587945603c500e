package clientdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE macro_signals (source TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE asset_signals (asset_class TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE sector_signals (source TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
`

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// One connection so every statement sees the same in-memory database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepo(t *testing.T) (*Repository, *sql.DB) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	repo.now = func() time.Time { return testNow }
	return repo, db
}

func TestStore(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	data := map[string]interface{}{"bias": "bullish", "confidence": 0.8}
	require.NoError(t, repo.Store(ctx, MacroSignals, "analysis-service", data, 0))

	var (
		stored    string
		expiresAt int64
	)
	err := db.QueryRow("SELECT data, expires_at FROM macro_signals WHERE source = ?", "analysis-service").Scan(&stored, &expiresAt)
	require.NoError(t, err)

	assert.JSONEq(t, `{"bias":"bullish","confidence":0.8}`, stored)
	// Zero TTL falls back to the table default
	assert.Equal(t, testNow.Add(6*time.Hour).Unix(), expiresAt)
}

func TestStoreUpsert(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, AssetSignals, "Equity", map[string]string{"version": "1"}, time.Hour))
	require.NoError(t, repo.Store(ctx, AssetSignals, "Equity", map[string]string{"version": "2"}, time.Hour))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM asset_signals WHERE asset_class = ?", "Equity").Scan(&count))
	assert.Equal(t, 1, count)

	entry, err := repo.Lookup(ctx, AssetSignals, "Equity")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.JSONEq(t, `{"version":"2"}`, string(entry.Data))
	assert.True(t, entry.Fresh(testNow))
	assert.False(t, entry.Fresh(testNow.Add(time.Hour)))
}

func TestLookup_Expired(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Store(ctx, AssetSignals, "Bond", map[string]int{"n": 1}, -time.Hour))

	// Stale data remains available as a fallback
	entry, err := repo.Lookup(ctx, AssetSignals, "Bond")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, entry.Fresh(testNow))
	assert.JSONEq(t, `{"n":1}`, string(entry.Data))
}

func TestLookup_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	entry, err := repo.Lookup(context.Background(), SectorSignals, "missing")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Store(ctx, SectorSignals, "analysis-service", []string{"Technology"}, time.Hour))

	require.NoError(t, repo.Delete(ctx, SectorSignals, "analysis-service"))
	require.NoError(t, repo.Delete(ctx, SectorSignals, "never-stored"))

	entry, err := repo.Lookup(ctx, SectorSignals, "analysis-service")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDeleteAllExpired(t *testing.T) {
	repo, db := newTestRepo(t)

	insertExpiredAndFresh(t, db, MacroSignals)
	insertExpiredAndFresh(t, db, AssetSignals)

	results, err := repo.DeleteAllExpired(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{
		"macro_signals":  1,
		"asset_signals":  1,
		"sector_signals": 0,
	}, results)
}

func TestUnknownTable(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	testCases := []struct {
		name  string
		table Table
	}{
		{"injected name", Table{Name: "macro_signals; DROP TABLE asset_signals", KeyColumn: "source"}},
		{"wrong key column", Table{Name: "macro_signals", KeyColumn: "asset_class", TTL: 6 * time.Hour}},
		{"zero value", Table{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, repo.Store(ctx, tc.table, "k", "v", time.Hour))
			_, err := repo.Lookup(ctx, tc.table, "k")
			assert.Error(t, err)
			assert.Error(t, repo.Delete(ctx, tc.table, "k"))
			_, err = repo.DeleteExpired(ctx, tc.table)
			assert.Error(t, err)
		})
	}

	// The injected statement never ran
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM asset_signals").Scan(&count))
}

func TestStoreUnmarshalableData(t *testing.T) {
	repo, _ := newTestRepo(t)
	err := repo.Store(context.Background(), MacroSignals, "k", make(chan int), time.Hour)
	assert.Error(t, err)
}

// insertExpiredAndFresh inserts one expired and one fresh row relative to testNow
func insertExpiredAndFresh(t *testing.T, db *sql.DB, table Table) {
	t.Helper()

	rows := map[string]int64{
		"expired": testNow.Add(-time.Hour).Unix(),
		"fresh":   testNow.Add(time.Hour).Unix(),
	}
	for key, expires := range rows {
		_, err := db.Exec(
			"INSERT INTO "+table.Name+" ("+table.KeyColumn+", data, expires_at) VALUES (?, ?, ?)",
			key+"_"+table.Name, `{"status":"`+key+`"}`, expires,
		)
		require.NoError(t, err)
	}
}

func TestEntryFresh(t *testing.T) {
	entry := &Entry{Data: json.RawMessage(`{"a":1}`), ExpiresAt: testNow}
	// Expiry is exclusive
	assert.False(t, entry.Fresh(testNow))
	assert.True(t, entry.Fresh(testNow.Add(-time.Second)))
}
