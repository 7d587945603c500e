package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultListLimit caps List when the filter sets no limit
const DefaultListLimit = 50

// Repository persists snapshots in the advisor database
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a snapshot repository over a migrated advisor database
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Save stores a recommendation and its reports under a new id
func (r *Repository) Save(ctx context.Context, in NewSnapshot) (*Snapshot, error) {
	if in.Recommendation == nil {
		return nil, fmt.Errorf("snapshot has no recommendation")
	}

	payload, err := msgpack.Marshal(in.Recommendation)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommendation: %w", err)
	}

	snap := &Snapshot{
		ID:             uuid.NewString(),
		WorkflowID:     in.WorkflowID,
		ProfileID:      in.Recommendation.Profile.ProfileID,
		RiskTolerance:  in.Recommendation.Profile.RiskTolerance,
		Recommendation: *in.Recommendation,
		ReportMarkdown: in.ReportMarkdown,
		ReportJSON:     in.ReportJSON,
		Archives:       []Archive{},
		CreatedAt:      r.now().UTC().Truncate(time.Second),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, workflow_id, profile_id, risk_tolerance, payload, report_md, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.WorkflowID, snap.ProfileID, string(snap.RiskTolerance), payload,
		snap.ReportMarkdown, string(snap.ReportJSON), snap.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	r.log.Debug().
		Str("snapshot_id", snap.ID).
		Str("workflow_id", snap.WorkflowID).
		Int("payload_bytes", len(payload)).
		Msg("Snapshot saved")

	return snap, nil
}

// Get loads a snapshot with its archive records
func (r *Repository) Get(ctx context.Context, id string) (*Snapshot, error) {
	var (
		snap       Snapshot
		risk       string
		payload    []byte
		reportJSON string
		createdAt  int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, profile_id, risk_tolerance, payload, report_md, report_json, created_at
		FROM snapshots WHERE id = ?
	`, id).Scan(&snap.ID, &snap.WorkflowID, &snap.ProfileID, &risk, &payload,
		&snap.ReportMarkdown, &reportJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}

	if err := msgpack.Unmarshal(payload, &snap.Recommendation); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	snap.RiskTolerance = domain.RiskTolerance(risk)
	snap.ReportJSON = []byte(reportJSON)
	snap.CreatedAt = time.Unix(createdAt, 0).UTC()

	archives, err := r.archives(ctx, id)
	if err != nil {
		return nil, err
	}
	snap.Archives = archives

	return &snap, nil
}

// List returns snapshot summaries, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT id, workflow_id, profile_id, risk_tolerance, created_at FROM snapshots`
	args := []interface{}{}
	if filter.ProfileID != "" {
		query += ` WHERE profile_id = ?`
		args = append(args, filter.ProfileID)
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			s         Summary
			risk      string
			createdAt int64
		)
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.ProfileID, &risk, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.RiskTolerance = domain.RiskTolerance(risk)
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes snapshots created before cutoff. Archive records
// go with them (ON DELETE CASCADE). Returns the number of snapshots deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return res.RowsAffected()
}

// RecordArchive stores (or replaces) the remote location of a rendered report
func (r *Repository) RecordArchive(ctx context.Context, snapshotID, format, uri string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshot_archives (snapshot_id, format, uri, archived_at)
		VALUES (?, ?, ?, ?)
	`, snapshotID, format, uri, r.now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to record archive for %s: %w", snapshotID, err)
	}
	return nil
}

func (r *Repository) archives(ctx context.Context, id string) ([]Archive, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT format, uri, archived_at FROM snapshot_archives
		WHERE snapshot_id = ? ORDER BY format
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load archives for %s: %w", id, err)
	}
	defer rows.Close()

	out := []Archive{}
	for rows.Next() {
		var (
			a  Archive
			at int64
		)
		if err := rows.Scan(&a.Format, &a.URI, &at); err != nil {
			return nil, fmt.Errorf("failed to scan archive: %w", err)
		}
		a.ArchivedAt = time.Unix(at, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
