package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// BreakerReporter reports the state of the upstream circuit breaker
type BreakerReporter interface {
	BreakerState() string
}

// DatabaseHealth is the health of one database
type DatabaseHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status        string           `json:"status"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	CPUPercent    float64          `json:"cpu_percent"`
	MemoryPercent float64          `json:"memory_percent"`
	Databases     []DatabaseHealth `json:"databases"`
	SignalBreaker string           `json:"signal_breaker,omitempty"`
}

// SystemHandlers serves health and host statistics
type SystemHandlers struct {
	databases []*database.DB
	breaker   BreakerReporter
	started   time.Time
	log       zerolog.Logger

	systemStats func() (float64, float64)
}

// NewSystemHandlers creates system handlers. Nil databases are ignored.
func NewSystemHandlers(dbs []*database.DB, breaker BreakerReporter, started time.Time, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		breaker: breaker,
		started: started,
		log:     log.With().Str("handler", "system").Logger(),
	}
	for _, db := range dbs {
		if db != nil {
			h.databases = append(h.databases, db)
		}
	}
	h.systemStats = h.getSystemStats
	return h
}

// HandleHealth handles GET /api/health. Any unhealthy database turns the
// response into a 503.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Databases:     make([]DatabaseHealth, 0, len(h.databases)),
	}

	for _, db := range h.databases {
		dh := DatabaseHealth{Name: db.Name(), Healthy: true}
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			dh.Healthy = false
			dh.Error = err.Error()
			resp.Status = "unhealthy"
		}
		resp.Databases = append(resp.Databases, dh)
	}

	if h.breaker != nil {
		resp.SignalBreaker = h.breaker.BreakerState()
		if resp.Status == "healthy" && resp.SignalBreaker == "open" {
			resp.Status = "degraded"
		}
	}

	resp.CPUPercent, resp.MemoryPercent = h.systemStats()

	status := http.StatusOK
	if resp.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, resp)
}

// getSystemStats returns CPU and RAM usage percentages, sampling CPU over 100ms
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data, h.log)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string, log zerolog.Logger) {
	writeJSON(w, status, map[string]string{"error": message}, log)
}
