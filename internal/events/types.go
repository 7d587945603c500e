// Package events carries workflow and recommendation events between the
// runner, the HTTP stream and the logs.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	WorkflowStarted   EventType = "WORKFLOW_STARTED"
	WorkflowProgress  EventType = "WORKFLOW_PROGRESS"
	WorkflowCompleted EventType = "WORKFLOW_COMPLETED"
	WorkflowFailed    EventType = "WORKFLOW_FAILED"

	SignalsGathered     EventType = "SIGNALS_GATHERED"
	RecommendationBuilt EventType = "RECOMMENDATION_BUILT"
	SnapshotSaved       EventType = "SNAPSHOT_SAVED"
	ReportArchived      EventType = "REPORT_ARCHIVED"

	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// WorkflowEventTypes lists the events a workflow progress stream subscribes to
var WorkflowEventTypes = []EventType{
	WorkflowStarted,
	WorkflowProgress,
	SignalsGathered,
	RecommendationBuilt,
	SnapshotSaved,
	ReportArchived,
	WorkflowCompleted,
	WorkflowFailed,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// GetTypedData converts the Data map back into its typed form.
// Returns nil for unknown types or undecodable payloads.
func (e *Event) GetTypedData() EventData {
	if e.Data == nil {
		return nil
	}

	var data EventData
	switch e.Type {
	case WorkflowStarted, WorkflowProgress, WorkflowCompleted, WorkflowFailed:
		data = &WorkflowStatusData{Type: e.Type}
	case SignalsGathered:
		data = &SignalsGatheredData{}
	case RecommendationBuilt:
		data = &RecommendationBuiltData{}
	case SnapshotSaved:
		data = &SnapshotSavedData{}
	case ReportArchived:
		data = &ReportArchivedData{}
	case ErrorOccurred:
		data = &ErrorEventData{}
	default:
		return nil
	}

	if err := convertMapToStruct(e.Data, data); err != nil {
		return nil
	}
	return data
}

// WorkflowID returns the workflow id carried in the event data, if any
func (e *Event) WorkflowID() string {
	if e.Data == nil {
		return ""
	}
	id, _ := e.Data["workflow_id"].(string)
	return id
}

func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}
