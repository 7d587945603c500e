package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowStatusData_EventType(t *testing.T) {
	assert.Equal(t, WorkflowProgress, (&WorkflowStatusData{}).EventType())
	assert.Equal(t, WorkflowFailed, (&WorkflowStatusData{Type: WorkflowFailed}).EventType())
}

func TestGetTypedData_RoundTripsThroughMap(t *testing.T) {
	original := &WorkflowStatusData{
		Type:       WorkflowProgress,
		WorkflowID: "wf-1",
		Status:     "running",
		Progress:   &ProgressInfo{Percent: 40, Step: "gather_signals"},
	}
	event := &Event{Type: WorkflowProgress, Data: convertEventDataToMap(original)}

	typed, ok := event.GetTypedData().(*WorkflowStatusData)
	require.True(t, ok)
	assert.Equal(t, original, typed)
	assert.Equal(t, "wf-1", event.WorkflowID())
}

func TestGetTypedData_PerType(t *testing.T) {
	testCases := []struct {
		name string
		data EventData
	}{
		{"signals", &SignalsGatheredData{Available: []string{"macro", "equity"}}},
		{"recommendation", &RecommendationBuiltData{RiskTolerance: "Moderate", Weights: map[string]float64{"Equity": 50}}},
		{"snapshot", &SnapshotSavedData{SnapshotID: "s-1"}},
		{"archive", &ReportArchivedData{SnapshotID: "s-1", Format: "md", URI: "s3://b/k"}},
		{"error", &ErrorEventData{Error: "boom"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event := &Event{Type: tc.data.EventType(), Data: convertEventDataToMap(tc.data)}
			assert.Equal(t, tc.data, event.GetTypedData())
		})
	}
}

func TestGetTypedData_Unknown(t *testing.T) {
	assert.Nil(t, (&Event{Type: "NOPE", Data: map[string]interface{}{"a": 1}}).GetTypedData())
	assert.Nil(t, (&Event{Type: ErrorOccurred}).GetTypedData())
	assert.Empty(t, (&Event{Type: ErrorOccurred}).WorkflowID())
}
