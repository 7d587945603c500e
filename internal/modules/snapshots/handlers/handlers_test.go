package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/snapshots"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	snaps   map[string]*snapshots.Snapshot
	filter  snapshots.ListFilter
	listErr error
}

func (f *fakeStore) Get(_ context.Context, id string) (*snapshots.Snapshot, error) {
	s, ok := f.snaps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", snapshots.ErrNotFound, id)
	}
	return s, nil
}

func (f *fakeStore) List(_ context.Context, filter snapshots.ListFilter) ([]snapshots.Summary, error) {
	f.filter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []snapshots.Summary{}
	for _, s := range f.snaps {
		out = append(out, snapshots.Summary{ID: s.ID, RiskTolerance: s.RiskTolerance, CreatedAt: s.CreatedAt})
	}
	return out, nil
}

func setupRouter(store SnapshotStore) http.Handler {
	r := chi.NewRouter()
	NewHandler(store, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func newStore() *fakeStore {
	return &fakeStore{snaps: map[string]*snapshots.Snapshot{
		"s-1": {
			ID:             "s-1",
			RiskTolerance:  domain.RiskAggressive,
			ReportMarkdown: "# Investment Report",
			ReportJSON:     []byte(`{"allocation":{"Equity":65}}`),
			Archives:       []snapshots.Archive{},
			CreatedAt:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
}

func TestHandleList(t *testing.T) {
	store := newStore()
	router := setupRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/snapshots/?profile_id=p-1&limit=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snapshots.ListFilter{ProfileID: "p-1", Limit: 5}, store.filter)

	var body struct {
		Snapshots []snapshots.Summary `json:"snapshots"`
		Count     int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "s-1", body.Snapshots[0].ID)
}

func TestHandleList_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		url    string
		err    error
		status int
	}{
		{"bad limit", "/snapshots/?limit=zero", nil, http.StatusBadRequest},
		{"negative limit", "/snapshots/?limit=-1", nil, http.StatusBadRequest},
		{"store failure", "/snapshots/", errors.New("db locked"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore()
			store.listErr = tc.err
			w := httptest.NewRecorder()
			setupRouter(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.url, nil))

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestHandleGet(t *testing.T) {
	testCases := []struct {
		name        string
		url         string
		status      int
		contentType string
		contains    string
	}{
		{"snapshot", "/snapshots/s-1", http.StatusOK, "application/json", `"risk_tolerance":"Aggressive"`},
		{"markdown", "/snapshots/s-1?format=md", http.StatusOK, "text/markdown; charset=utf-8", "# Investment Report"},
		{"json report", "/snapshots/s-1?format=json", http.StatusOK, "application/json", `"Equity":65`},
		{"bad format", "/snapshots/s-1?format=pdf", http.StatusBadRequest, "application/json", "unsupported format"},
		{"missing", "/snapshots/nope", http.StatusNotFound, "application/json", "snapshot not found"},
	}

	router := setupRouter(newStore())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.url, nil))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.contentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tc.contains)
		})
	}
}
