package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
	"github.com/aristath/advisor/internal/modules/profile"
	"github.com/aristath/advisor/internal/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxRequestBody bounds posted profile documents
const maxRequestBody = 1 << 20

// WorkflowRunner starts and tracks advisory workflow runs
type WorkflowRunner interface {
	Start(req workflow.Request) (string, error)
	Run(ctx context.Context, req workflow.Request) (*workflow.Result, error)
	Status(id string) (workflow.State, error)
	Result(id string) (*workflow.Result, error)
	List() []workflow.State
}

// workflowRequest is the body of POST /api/workflows and /api/recommendations.
// When "profile" is absent the whole body is read as the profile document.
type workflowRequest struct {
	Profile      json.RawMessage    `json:"profile"`
	CurrentAlloc map[string]float64 `json:"current_alloc"`
}

// WorkflowHandlers serves workflow and recommendation requests
type WorkflowHandlers struct {
	runner WorkflowRunner
	log    zerolog.Logger
}

// NewWorkflowHandlers creates workflow handlers
func NewWorkflowHandlers(runner WorkflowRunner, log zerolog.Logger) *WorkflowHandlers {
	return &WorkflowHandlers{
		runner: runner,
		log:    log.With().Str("handler", "workflows").Logger(),
	}
}

// RegisterRoutes registers workflow routes
func (h *WorkflowHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/workflows", func(r chi.Router) {
		r.Post("/", h.HandleStart)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleStatus)
		r.Get("/{id}/result", h.HandleResult)
	})
	r.Post("/recommendations", h.HandleRecommend)
}

// HandleStart handles POST /api/workflows
func (h *WorkflowHandlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	req, err := decodeWorkflowRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	id, err := h.runner.Start(req)
	if err != nil {
		writeError(w, statusForRunError(err), err.Error(), h.log)
		return
	}

	h.log.Info().Str("workflow_id", id).Str("risk", string(req.Profile.RiskTolerance)).Msg("Workflow started")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"workflow_id": id,
		"status":      string(workflow.StatusPending),
		"status_url":  "/api/workflows/" + id,
		"result_url":  "/api/workflows/" + id + "/result",
		"stream_url":  "/api/workflows/" + id + "/stream",
	}, h.log)
}

// HandleList handles GET /api/workflows
func (h *WorkflowHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	list := h.runner.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workflows": list,
		"count":     len(list),
	}, h.log)
}

// HandleStatus handles GET /api/workflows/{id}
func (h *WorkflowHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.runner.Status(chi.URLParam(r, "id"))
	if errors.Is(err, workflow.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workflow not found", h.log)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), h.log)
		return
	}
	writeJSON(w, http.StatusOK, state, h.log)
}

// HandleResult handles GET /api/workflows/{id}/result. A run still in
// progress answers 202 with its state.
func (h *WorkflowHandlers) HandleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.runner.Result(id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result, h.log)
	case errors.Is(err, workflow.ErrNotFound):
		writeError(w, http.StatusNotFound, "workflow not found", h.log)
	case errors.Is(err, workflow.ErrNotFinished):
		state, _ := h.runner.Status(id)
		writeJSON(w, http.StatusAccepted, state, h.log)
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"workflow_id": id,
			"status":      string(workflow.StatusFailed),
			"error":       err.Error(),
		}, h.log)
	}
}

// HandleRecommend handles POST /api/recommendations: the full pipeline runs
// within the request.
func (h *WorkflowHandlers) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	req, err := decodeWorkflowRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	result, err := h.runner.Run(r.Context(), req)
	if err != nil {
		status := statusForRunError(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Recommendation failed")
		}
		writeError(w, status, err.Error(), h.log)
		return
	}
	writeJSON(w, http.StatusOK, result, h.log)
}

func decodeWorkflowRequest(r *http.Request) (workflow.Request, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return workflow.Request{}, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return workflow.Request{}, errors.New("request body is empty")
	}

	var wrapper workflowRequest
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return workflow.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidProfile, err)
	}

	doc := body
	if len(wrapper.Profile) > 0 {
		doc = wrapper.Profile
	}
	p, err := profile.Parse(bytes.NewReader(doc))
	if err != nil {
		return workflow.Request{}, err
	}

	current, err := allocation.CurrentWeights(wrapper.CurrentAlloc)
	if err != nil {
		return workflow.Request{}, err
	}

	return workflow.Request{Profile: p, CurrentWeights: current}, nil
}

func statusForRunError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidProfile),
		errors.Is(err, domain.ErrUnrecognizedRiskTolerance):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
