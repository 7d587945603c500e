// Package handlers provides HTTP handlers for stored recommendation snapshots.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aristath/advisor/internal/modules/snapshots"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SnapshotStore is the read side of the snapshot repository
type SnapshotStore interface {
	Get(ctx context.Context, id string) (*snapshots.Snapshot, error)
	List(ctx context.Context, filter snapshots.ListFilter) ([]snapshots.Summary, error)
}

// Handler handles snapshot HTTP requests
type Handler struct {
	store SnapshotStore
	log   zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(store SnapshotStore, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "snapshots").Logger(),
	}
}

// HandleList handles GET /api/snapshots?profile_id=&limit=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := snapshots.ListFilter{ProfileID: r.URL.Query().Get("profile_id")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	list, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list snapshots")
		h.writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": list,
		"count":     len(list),
	})
}

// HandleGet handles GET /api/snapshots/{id}?format=md|json.
// Without a format the stored snapshot (recommendation and archive links) is returned.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap, err := h.store.Get(r.Context(), id)
	if errors.Is(err, snapshots.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("snapshot_id", id).Msg("Failed to load snapshot")
		h.writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "":
		h.writeJSON(w, http.StatusOK, snap)
	case snapshots.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(snap.ReportMarkdown))
	case snapshots.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(snap.ReportJSON)
	default:
		h.writeError(w, http.StatusBadRequest, "unsupported format "+strconv.Quote(format))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
