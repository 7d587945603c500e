// Package snapshots stores every generated recommendation as an immutable,
// timestamped record together with its rendered reports.
package snapshots

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/aristath/advisor/internal/domain"
)

// ErrNotFound is returned when no snapshot has the requested id
var ErrNotFound = errors.New("snapshot not found")

// Report formats stored with each snapshot
const (
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// Snapshot is a stored recommendation with its renderings
type Snapshot struct {
	ID             string                         `json:"id"`
	WorkflowID     string                         `json:"workflow_id,omitempty"`
	ProfileID      string                         `json:"profile_id,omitempty"`
	RiskTolerance  domain.RiskTolerance           `json:"risk_tolerance"`
	Recommendation domain.PortfolioRecommendation `json:"recommendation"`
	ReportMarkdown string                         `json:"-"`
	ReportJSON     json.RawMessage                `json:"-"`
	Archives       []Archive                      `json:"archives"`
	CreatedAt      time.Time                      `json:"created_at"`
}

// Summary is the listing view of a snapshot
type Summary struct {
	ID            string               `json:"id"`
	WorkflowID    string               `json:"workflow_id,omitempty"`
	ProfileID     string               `json:"profile_id,omitempty"`
	RiskTolerance domain.RiskTolerance `json:"risk_tolerance"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Archive records a remote copy of one rendered report
type Archive struct {
	Format     string    `json:"format"`
	URI        string    `json:"uri"`
	ArchivedAt time.Time `json:"archived_at"`
}

// NewSnapshot is the input to Repository.Save
type NewSnapshot struct {
	WorkflowID     string
	Recommendation *domain.PortfolioRecommendation
	ReportMarkdown string
	ReportJSON     []byte
}

// ListFilter narrows Repository.List
type ListFilter struct {
	ProfileID string
	Limit     int
}
