package scheduler

import (
	"context"
	"time"
)

// WorkflowPruner drops finished workflow runs older than a retention window
type WorkflowPruner interface {
	Cleanup(maxAge time.Duration) int
}

// SnapshotPruner deletes stored recommendation snapshots created before a cutoff
type SnapshotPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
