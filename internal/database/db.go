// Package database opens the advisor's SQLite databases and applies their
// bundled schemas.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schemas/*.sql
var schemas embed.FS

// Database names with a bundled schema
const (
	NameAdvisor = "advisor"
	NameCache   = "cache"
)

var schemaFiles = map[string]string{
	NameAdvisor: "schemas/advisor_schema.sql",
	NameCache:   "schemas/cache_schema.sql",
}

// DatabaseProfile selects durability and pool settings for a database
type DatabaseProfile string

const (
	// ProfileLedger is for append-only data: recommendation snapshots
	ProfileLedger DatabaseProfile = "ledger"
	// ProfileCache is for data that can be refetched: provider responses
	ProfileCache DatabaseProfile = "cache"
	// ProfileStandard is the default
	ProfileStandard DatabaseProfile = "standard"
)

type profileSettings struct {
	pragmas  []string
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
	idleTime time.Duration
}

var profiles = map[DatabaseProfile]profileSettings{
	ProfileLedger: {
		pragmas:  []string{"synchronous(FULL)", "auto_vacuum(NONE)"},
		maxOpen:  25,
		maxIdle:  5,
		lifetime: 24 * time.Hour,
		idleTime: 30 * time.Minute,
	},
	ProfileCache: {
		pragmas:  []string{"synchronous(OFF)", "auto_vacuum(FULL)", "temp_store(MEMORY)"},
		maxOpen:  10,
		maxIdle:  2,
		lifetime: 24 * time.Hour,
		idleTime: 30 * time.Minute,
	},
	ProfileStandard: {
		pragmas:  []string{"synchronous(NORMAL)", "auto_vacuum(INCREMENTAL)", "temp_store(MEMORY)"},
		maxOpen:  25,
		maxIdle:  5,
		lifetime: 24 * time.Hour,
		idleTime: 30 * time.Minute,
	},
}

// Applied to every profile after the profile's own PRAGMAs
var commonPragmas = []string{
	"foreign_keys(1)",
	"wal_autocheckpoint(1000)",
	"cache_size(-64000)",
}

// DB is an open SQLite database
type DB struct {
	conn    *sql.DB
	path    string
	profile DatabaseProfile
	name    string
}

// Config holds database configuration
type Config struct {
	Path    string
	Profile DatabaseProfile
	Name    string // Used in logs and to pick the bundled schema
}

// New opens the database at cfg.Path, creating its directory when needed,
// and verifies the connection.
func New(cfg Config) (*DB, error) {
	// file: URIs (shared in-memory databases) are used verbatim
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}
	settings, ok := profiles[cfg.Profile]
	if !ok {
		return nil, fmt.Errorf("unknown database profile %q", cfg.Profile)
	}

	conn, err := sql.Open("sqlite", dsn(cfg.Path, settings))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}
	conn.SetMaxOpenConns(settings.maxOpen)
	conn.SetMaxIdleConns(settings.maxIdle)
	conn.SetConnMaxLifetime(settings.lifetime)
	conn.SetConnMaxIdleTime(settings.idleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// dsn builds the modernc connection string. Every database runs in WAL mode.
func dsn(path string, settings profileSettings) string {
	var b strings.Builder
	b.WriteString(path)
	b.WriteString("?_pragma=journal_mode(WAL)")
	for _, p := range append(append([]string{}, settings.pragmas...), commonPragmas...) {
		b.WriteString("&_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name
func (db *DB) Name() string {
	return db.name
}

// Profile returns the database profile
func (db *DB) Profile() DatabaseProfile {
	return db.profile
}

// Path returns the absolute database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate applies the bundled schema for this database. Schemas use
// CREATE ... IF NOT EXISTS, so migrating twice is a no-op. Databases without
// a bundled schema are left untouched.
func (db *DB) Migrate() error {
	schemaFile, ok := schemaFiles[db.name]
	if !ok {
		return nil
	}

	content, err := schemas.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaFile, err)
	}

	return WithTransaction(db.conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute schema %s for %s: %w", schemaFile, db.name, err)
		}
		return nil
	})
}

// WithTransaction runs fn inside a transaction. The transaction is rolled
// back when fn returns an error or panics, and committed otherwise.
func WithTransaction(db *sql.DB, fn func(*sql.Tx) error) (err error) {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
			return
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rbErr)
			} else {
				err = fmt.Errorf("transaction failed: %w", err)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}

// ExecContext executes a statement
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}

// QueryContext executes a query returning rows
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query returning at most one row
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRowContext(ctx, query, args...)
}

// HealthCheck pings the database. It is cheap enough for every health request.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}
	return nil
}

// IntegrityCheck runs PRAGMA integrity_check, which reads every page
func (db *DB) IntegrityCheck(ctx context.Context) error {
	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", db.name, result)
	}
	return nil
}

// WALStatus is the outcome of a passive checkpoint
type WALStatus struct {
	Busy         bool
	Frames       int // Frames in the WAL file
	Checkpointed int // Frames moved back into the database
}

// Checkpoint runs a passive WAL checkpoint, which never blocks writers
func (db *DB) Checkpoint(ctx context.Context) (WALStatus, error) {
	var busy, frames, checkpointed int
	err := db.conn.QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		return WALStatus{}, fmt.Errorf("WAL checkpoint failed for %s: %w", db.name, err)
	}
	return WALStatus{Busy: busy != 0, Frames: frames, Checkpointed: checkpointed}, nil
}
