package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/domain"
)

// Status is the lifecycle state of a workflow run
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Finished reports whether the run reached a terminal state
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// maxLogLines bounds the log kept per run
const maxLogLines = 200

// State is a point-in-time copy of a run's progress
type State struct {
	WorkflowID  string     `json:"workflow_id"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"current_step"`
	Logs        []string   `json:"logs"`
	Completed   bool       `json:"completed"`
	Error       string     `json:"error,omitempty"`
	SnapshotID  string     `json:"snapshot_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Result is the output of a completed run
type Result struct {
	WorkflowID     string                          `json:"workflow_id"`
	SnapshotID     string                          `json:"snapshot_id,omitempty"`
	Recommendation *domain.PortfolioRecommendation `json:"recommendation"`
	ReportMarkdown string                          `json:"report_markdown"`
	ReportFiles    []string                        `json:"report_files,omitempty"`
	Archives       []archive.Object                `json:"archives,omitempty"`
	Available      []string                        `json:"signals_available"`
	Unavailable    []string                        `json:"signals_unavailable,omitempty"`
}

// run is the mutable record of one workflow run
type run struct {
	mu sync.RWMutex

	id          string
	status      Status
	progress    int
	step        string
	logs        []string
	err         string
	snapshotID  string
	result      *Result
	startedAt   time.Time
	finishedAt  time.Time
	done        chan struct{}
}

func newRun(id string, now time.Time) *run {
	return &run{
		id:        id,
		status:    StatusPending,
		startedAt: now,
		done:      make(chan struct{}),
	}
}

func (r *run) setProgress(percent int, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusRunning
	r.progress = percent
	r.step = step
}

func (r *run) logf(now time.Time, format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s", now.Format("15:04:05"), fmt.Sprintf(format, args...))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, line)
	if len(r.logs) > maxLogLines {
		r.logs = r.logs[len(r.logs)-maxLogLines:]
	}
}

func (r *run) setSnapshot(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshotID = id
}

func (r *run) complete(result *Result, now time.Time) {
	r.mu.Lock()
	r.status = StatusCompleted
	r.progress = 100
	r.step = "Completed"
	r.result = result
	r.finishedAt = now
	r.mu.Unlock()
	close(r.done)
}

func (r *run) fail(err error, now time.Time) {
	r.mu.Lock()
	r.status = StatusFailed
	r.err = err.Error()
	r.finishedAt = now
	r.mu.Unlock()
	close(r.done)
}

func (r *run) state() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := State{
		WorkflowID:  r.id,
		Status:      r.status,
		Progress:    r.progress,
		CurrentStep: r.step,
		Logs:        append([]string{}, r.logs...),
		Completed:   r.status.Finished(),
		Error:       r.err,
		SnapshotID:  r.snapshotID,
		StartedAt:   r.startedAt,
	}
	if !r.finishedAt.IsZero() {
		at := r.finishedAt
		s.FinishedAt = &at
	}
	return s
}

func (r *run) finishedBefore(cutoff time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status.Finished() && r.finishedAt.Before(cutoff)
}
