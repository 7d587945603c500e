package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	streamBuffer       = 64
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

// streamMessage is one frame sent to a progress stream client
type streamMessage struct {
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Module    string                 `json:"module,omitempty"`
	State     *workflow.State        `json:"state,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// WorkflowStreamHandler pushes the events of one workflow run over a websocket
type WorkflowStreamHandler struct {
	bus     *events.Bus
	runner  WorkflowRunner
	origins []string
	log     zerolog.Logger
}

// NewWorkflowStreamHandler creates a stream handler. origins are the
// accepted Origin host patterns; "*" or none accepts any origin.
func NewWorkflowStreamHandler(bus *events.Bus, runner WorkflowRunner, origins []string, log zerolog.Logger) *WorkflowStreamHandler {
	return &WorkflowStreamHandler{
		bus:     bus,
		runner:  runner,
		origins: origins,
		log:     log.With().Str("component", "workflow_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/workflows/{id}/stream. The first frame carries
// the current state; the stream closes after the run completes or fails.
func (h *WorkflowStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.runner != nil {
		if _, err := h.runner.Status(id); errors.Is(err, workflow.ErrNotFound) {
			writeError(w, http.StatusNotFound, "workflow not found", h.log)
			return
		}
	}

	// Subscribe before reading the state so a run finishing in between is not missed
	eventChan := make(chan *events.Event, streamBuffer)
	handler := func(event *events.Event) {
		if event.WorkflowID() != id {
			return
		}
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("workflow_id", id).
				Str("event_type", string(event.Type)).
				Msg("Stream channel full, dropping event")
		}
	}
	for _, eventType := range events.WorkflowEventTypes {
		unsubscribe := h.bus.Subscribe(eventType, handler)
		defer unsubscribe()
	}

	// Hijacked connections keep the server's deadlines otherwise
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Warn().Err(err).Str("workflow_id", id).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	h.log.Info().Str("workflow_id", id).Msg("Client connected to workflow stream")

	// The client never sends; CloseRead cancels ctx once it disconnects
	ctx := conn.CloseRead(r.Context())

	finished := false
	if h.runner != nil {
		if state, err := h.runner.Status(id); err == nil {
			finished = state.Status.Finished()
			if err := h.send(ctx, conn, streamMessage{Type: "connected", State: &state}); err != nil {
				return
			}
		}
	}
	if finished {
		conn.Close(websocket.StatusNormalClosure, "workflow finished")
		return
	}

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Str("workflow_id", id).Msg("Client disconnected from workflow stream")
			return

		case event := <-eventChan:
			msg := streamMessage{
				Type:      string(event.Type),
				Timestamp: event.Timestamp.Format(time.RFC3339),
				Module:    event.Module,
				Data:      event.Data,
			}
			if err := h.send(ctx, conn, msg); err != nil {
				h.log.Debug().Err(err).Str("workflow_id", id).Msg("Failed to write stream event")
				return
			}
			if event.Type == events.WorkflowCompleted || event.Type == events.WorkflowFailed {
				conn.Close(websocket.StatusNormalClosure, "workflow finished")
				return
			}

		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WorkflowStreamHandler) acceptOptions() *websocket.AcceptOptions {
	for _, o := range h.origins {
		if o == "*" {
			return &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
	}
	if len(h.origins) == 0 {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.origins}
}

func (h *WorkflowStreamHandler) send(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().Format(time.RFC3339)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
