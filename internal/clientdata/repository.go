// Package clientdata caches upstream signal responses in SQLite.
// Entries are JSON blobs with an expiry so providers can serve fresh data
// first and fall back to stale data when the upstream is unavailable.
package clientdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Table is a cache table in the cache database
type Table struct {
	Name      string
	KeyColumn string
	TTL       time.Duration // Used when Store is called without a TTL
}

// Cache tables. Macro regime reads move slowly; asset and sector signals
// follow the upstream analysis cadence.
var (
	MacroSignals  = Table{Name: "macro_signals", KeyColumn: "source", TTL: 6 * time.Hour}
	AssetSignals  = Table{Name: "asset_signals", KeyColumn: "asset_class", TTL: time.Hour}
	SectorSignals = Table{Name: "sector_signals", KeyColumn: "source", TTL: time.Hour}
)

// Tables lists every cache table, in cleanup order
var Tables = []Table{MacroSignals, AssetSignals, SectorSignals}

// Entry is a cached response
type Entry struct {
	Data      json.RawMessage
	ExpiresAt time.Time
}

// Fresh reports whether the entry has not expired at now
func (e *Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Repository provides cache operations for signal data
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new signal cache repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// check rejects tables outside Tables. Table and column names are formatted
// into the queries below, so only the known ones may pass.
func check(t Table) error {
	for _, known := range Tables {
		if t == known {
			return nil
		}
	}
	return fmt.Errorf("invalid cache table: %q", t.Name)
}

// Store saves data under key with expiry now + ttl. A zero ttl uses the
// table's default; a negative one stores an already expired entry.
func (r *Repository) Store(ctx context.Context, t Table, key string, data interface{}, ttl time.Duration) error {
	if err := check(t); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = t.TTL
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s, data, expires_at) VALUES (?, ?, ?)",
		t.Name, t.KeyColumn,
	)
	if _, err := r.db.ExecContext(ctx, query, key, string(jsonData), r.now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", t.Name, err)
	}
	return nil
}

// Lookup returns the entry for key whether or not it has expired, or nil
// when nothing is cached
func (r *Repository) Lookup(ctx context.Context, t Table, key string) (*Entry, error) {
	if err := check(t); err != nil {
		return nil, err
	}

	var (
		data      string
		expiresAt int64
	)
	query := fmt.Sprintf("SELECT data, expires_at FROM %s WHERE %s = ?", t.Name, t.KeyColumn)
	err := r.db.QueryRowContext(ctx, query, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.Name, err)
	}
	return &Entry{Data: json.RawMessage(data), ExpiresAt: time.Unix(expiresAt, 0)}, nil
}

// Delete removes a specific entry
func (r *Repository) Delete(ctx context.Context, t Table, key string) error {
	if err := check(t); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.Name, t.KeyColumn)
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.Name, err)
	}
	return nil
}

// DeleteExpired removes the expired rows of one table
func (r *Repository) DeleteExpired(ctx context.Context, t Table) (int64, error) {
	if err := check(t); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at <= ?", t.Name)
	result, err := r.db.ExecContext(ctx, query, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", t.Name, err)
	}
	return result.RowsAffected()
}

// DeleteAllExpired removes expired entries from every table and returns
// the number of deleted rows per table name. It stops at the first failing
// table.
func (r *Repository) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	results := make(map[string]int64, len(Tables))
	for _, t := range Tables {
		deleted, err := r.DeleteExpired(ctx, t)
		if err != nil {
			return results, err
		}
		results[t.Name] = deleted
	}
	return results, nil
}
