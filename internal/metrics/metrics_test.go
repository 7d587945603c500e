package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_WorkflowLifecycle(t *testing.T) {
	r := NewRegistry()

	r.WorkflowStarted()
	r.WorkflowStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ActiveWorkflows))

	r.WorkflowFinished("completed", 2*time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ActiveWorkflows))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.WorkflowsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.WorkflowsFinished.WithLabelValues("completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.WorkflowDuration))
}

func TestRegistry_SignalsAndRecommendations(t *testing.T) {
	r := NewRegistry()

	r.SignalGroup("macro", true)
	r.SignalGroup("Bond", false)
	r.SignalGroup("Bond", false)
	r.RecommendationBuilt("Moderate", "EmptySignalSet", "MacroUnavailable", "EmptySignalSet")
	r.ArchiveResult(true)
	r.ArchiveResult(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.SignalGroups.WithLabelValues("macro", "available")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.SignalGroups.WithLabelValues("Bond", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Recommendations.WithLabelValues("Moderate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Warnings.WithLabelValues("EmptySignalSet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Archives.WithLabelValues("error")))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.WorkflowStarted()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "advisor_workflows_started_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.WorkflowStarted()
		r.WorkflowFinished("failed", time.Second)
		r.ObserveStep("gather", time.Millisecond)
		r.SignalGroup("macro", false)
		r.RecommendationBuilt("Moderate", "x")
		r.ArchiveResult(true)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
