package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/advisor/internal/signals"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AnalysisFiles lists and reads upstream analysis outputs
type AnalysisFiles interface {
	Files(ctx context.Context) ([]signals.FileInfo, error)
	ReadFile(name string) (json.RawMessage, error)
}

// AnalysisHandlers exposes the analysis directory read-only
type AnalysisHandlers struct {
	files AnalysisFiles
	log   zerolog.Logger
}

// NewAnalysisHandlers creates analysis handlers
func NewAnalysisHandlers(files AnalysisFiles, log zerolog.Logger) *AnalysisHandlers {
	return &AnalysisHandlers{
		files: files,
		log:   log.With().Str("handler", "analysis").Logger(),
	}
}

// RegisterRoutes registers analysis routes. File names may contain slashes.
func (h *AnalysisHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/analysis/files", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/*", h.HandleGet)
	})
}

// HandleList handles GET /api/analysis/files
func (h *AnalysisHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.Files(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list analysis files")
		writeError(w, http.StatusInternalServerError, "failed to list analysis files", h.log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
		"count": len(files),
	}, h.log)
}

// HandleGet handles GET /api/analysis/files/{name}
func (h *AnalysisHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	data, err := h.files.ReadFile(name)
	if errors.Is(err, signals.ErrFileNotFound) {
		writeError(w, http.StatusNotFound, "analysis file not found", h.log)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("file", name).Msg("Failed to read analysis file")
		writeError(w, http.StatusInternalServerError, "failed to read analysis file", h.log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
