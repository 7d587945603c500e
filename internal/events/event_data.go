package events

// EventData is implemented by every typed event payload
type EventData interface {
	EventType() EventType
}

// ProgressInfo describes how far a workflow has advanced
type ProgressInfo struct {
	Percent int    `json:"percent"`
	Step    string `json:"step"`
	Message string `json:"message,omitempty"`
}

// WorkflowStatusData is published on every workflow state change.
// Type selects which of the workflow event types it is sent as.
type WorkflowStatusData struct {
	Type       EventType     `json:"-"`
	WorkflowID string        `json:"workflow_id"`
	Status     string        `json:"status"`
	Progress   *ProgressInfo `json:"progress,omitempty"`
	Error      string        `json:"error,omitempty"`
	SnapshotID string        `json:"snapshot_id,omitempty"`
	DurationMS int64         `json:"duration_ms,omitempty"`
}

// EventType returns the configured workflow event type, defaulting to progress
func (d *WorkflowStatusData) EventType() EventType {
	if d.Type == "" {
		return WorkflowProgress
	}
	return d.Type
}

// SignalsGatheredData reports which signal groups were fetched
type SignalsGatheredData struct {
	WorkflowID  string   `json:"workflow_id,omitempty"`
	Available   []string `json:"available"`
	Unavailable []string `json:"unavailable,omitempty"`
}

// EventType returns the event type for SignalsGatheredData
func (d *SignalsGatheredData) EventType() EventType {
	return SignalsGathered
}

// RecommendationBuiltData summarizes a freshly built recommendation
type RecommendationBuiltData struct {
	WorkflowID    string             `json:"workflow_id,omitempty"`
	ProfileID     string             `json:"profile_id,omitempty"`
	RiskTolerance string             `json:"risk_tolerance"`
	Weights       map[string]float64 `json:"weights"`
	Warnings      int                `json:"warnings"`
}

// EventType returns the event type for RecommendationBuiltData
func (d *RecommendationBuiltData) EventType() EventType {
	return RecommendationBuilt
}

// SnapshotSavedData identifies a persisted recommendation snapshot
type SnapshotSavedData struct {
	WorkflowID string `json:"workflow_id,omitempty"`
	SnapshotID string `json:"snapshot_id"`
}

// EventType returns the event type for SnapshotSavedData
func (d *SnapshotSavedData) EventType() EventType {
	return SnapshotSaved
}

// ReportArchivedData points at an uploaded report
type ReportArchivedData struct {
	WorkflowID string `json:"workflow_id,omitempty"`
	SnapshotID string `json:"snapshot_id"`
	Format     string `json:"format"`
	URI        string `json:"uri"`
}

// EventType returns the event type for ReportArchivedData
func (d *ReportArchivedData) EventType() EventType {
	return ReportArchived
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
