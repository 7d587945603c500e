// Package workflow runs the end-to-end advisory pipeline: gather signals,
// build the recommendation, render and persist the reports. Runs are
// tracked in memory with progress and log lines for polling clients.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/metrics"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/report"
	"github.com/aristath/advisor/internal/modules/snapshots"
	"github.com/aristath/advisor/internal/signals"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	moduleName = "workflow"

	// DefaultRunTimeout bounds a background run
	DefaultRunTimeout = 5 * time.Minute
)

// ErrNotFound is returned for unknown workflow ids
var ErrNotFound = errors.New("workflow not found")

// ErrNotFinished is returned when the result of a running workflow is requested
var ErrNotFinished = errors.New("workflow not completed yet")

// SnapshotStore persists recommendations
type SnapshotStore interface {
	Save(ctx context.Context, in snapshots.NewSnapshot) (*snapshots.Snapshot, error)
	RecordArchive(ctx context.Context, snapshotID, format, uri string) error
}

// ReportArchiver uploads rendered reports
type ReportArchiver interface {
	Archive(ctx context.Context, snapshotID string, files ...archive.File) ([]archive.Object, error)
}

// Request is the input of one run
type Request struct {
	Profile domain.UserProfile

	// CurrentWeights is the current allocation in percent per class.
	// Nil falls back to the weights reported by upstream analysis.
	CurrentWeights map[domain.AssetClass]float64
}

// Deps are the collaborators of a Runner. Store, Archiver, Events and
// Metrics are optional.
type Deps struct {
	Macro      signals.MacroProvider
	Assets     signals.AssetProvider
	Allocator  *portfolio.Allocator
	Store      SnapshotStore
	Archiver   ReportArchiver
	Events     *events.Manager
	Metrics    *metrics.Registry
	ReportsDir string // Rendered reports are also written here when set
	RunTimeout time.Duration
}

// Runner executes workflow runs and keeps their state
type Runner struct {
	deps Deps

	mu   sync.RWMutex
	runs map[string]*run

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
	log zerolog.Logger
}

// NewRunner creates a runner. Close cancels in-flight background runs.
func NewRunner(deps Deps, log zerolog.Logger) *Runner {
	if deps.RunTimeout <= 0 {
		deps.RunTimeout = DefaultRunTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		deps:   deps,
		runs:   make(map[string]*run),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
		log:    log.With().Str("component", "workflow_runner").Logger(),
	}
}

// Start validates the request and launches a background run, returning its id
func (r *Runner) Start(req Request) (string, error) {
	req.Profile = req.Profile.Normalize()
	if err := req.Profile.Validate(); err != nil {
		return "", err
	}
	if _, err := domain.ParseRiskTolerance(string(req.Profile.RiskTolerance)); err != nil {
		return "", err
	}

	rn := r.register()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(r.ctx, r.deps.RunTimeout)
		defer cancel()
		_, _ = r.execute(ctx, rn, req)
	}()

	return rn.id, nil
}

// Run executes a run synchronously. The run is tracked like a background one.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	return r.execute(ctx, r.register(), req)
}

func (r *Runner) register() *run {
	rn := newRun(uuid.NewString(), r.now())
	r.mu.Lock()
	r.runs[rn.id] = rn
	r.mu.Unlock()
	return rn
}

func (r *Runner) get(id string) (*run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rn, ok := r.runs[id]
	return rn, ok
}

// Status returns the current state of a run
func (r *Runner) Status(id string) (State, error) {
	rn, ok := r.get(id)
	if !ok {
		return State{}, ErrNotFound
	}
	return rn.state(), nil
}

// Result returns the result of a completed run. A failed run returns its
// error; a running one returns ErrNotFinished.
func (r *Runner) Result(id string) (*Result, error) {
	rn, ok := r.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	rn.mu.RLock()
	defer rn.mu.RUnlock()
	switch rn.status {
	case StatusCompleted:
		return rn.result, nil
	case StatusFailed:
		return nil, errors.New(rn.err)
	}
	return nil, ErrNotFinished
}

// Wait blocks until the run finishes or ctx is done
func (r *Runner) Wait(ctx context.Context, id string) (State, error) {
	rn, ok := r.get(id)
	if !ok {
		return State{}, ErrNotFound
	}
	select {
	case <-rn.done:
		return rn.state(), nil
	case <-ctx.Done():
		return rn.state(), ctx.Err()
	}
}

// List returns the state of every tracked run, newest first
func (r *Runner) List() []State {
	r.mu.RLock()
	states := make([]State, 0, len(r.runs))
	for _, rn := range r.runs {
		states = append(states, rn.state())
	}
	r.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		if !states[i].StartedAt.Equal(states[j].StartedAt) {
			return states[i].StartedAt.After(states[j].StartedAt)
		}
		return states[i].WorkflowID < states[j].WorkflowID
	})
	return states
}

// Cleanup drops finished runs that ended more than maxAge ago and returns
// how many were removed
func (r *Runner) Cleanup(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rn := range r.runs {
		if rn.finishedBefore(cutoff) {
			delete(r.runs, id)
			removed++
		}
	}
	if removed > 0 {
		r.log.Info().Int("removed", removed).Msg("Cleaned up finished workflows")
	}
	return removed
}

// Close cancels background runs and waits for them to stop
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) execute(ctx context.Context, rn *run, req Request) (res *Result, err error) {
	started := r.now()
	log := r.log.With().Str("workflow_id", rn.id).Logger()

	r.deps.Metrics.WorkflowStarted()
	r.emit(&events.WorkflowStatusData{Type: events.WorkflowStarted, WorkflowID: rn.id, Status: string(StatusRunning)})
	log.Info().Str("profile_id", req.Profile.ProfileID).Msg("Workflow started")

	defer func() {
		elapsed := r.now().Sub(started)
		if err != nil {
			rn.fail(err, r.now())
			r.deps.Metrics.WorkflowFinished(string(StatusFailed), elapsed)
			r.emit(&events.WorkflowStatusData{
				Type:       events.WorkflowFailed,
				WorkflowID: rn.id,
				Status:     string(StatusFailed),
				Error:      err.Error(),
				DurationMS: elapsed.Milliseconds(),
			})
			log.Error().Err(err).Msg("Workflow failed")
			return
		}
		rn.complete(res, r.now())
		r.deps.Metrics.WorkflowFinished(string(StatusCompleted), elapsed)
		r.emit(&events.WorkflowStatusData{
			Type:       events.WorkflowCompleted,
			WorkflowID: rn.id,
			Status:     string(StatusCompleted),
			SnapshotID: res.SnapshotID,
			DurationMS: elapsed.Milliseconds(),
			Progress:   &events.ProgressInfo{Percent: 100, Step: "Completed"},
		})
		log.Info().Dur("duration", elapsed).Str("snapshot_id", res.SnapshotID).Msg("Workflow completed")
	}()

	res = &Result{WorkflowID: rn.id}
	profile := req.Profile.Normalize()

	r.progress(rn, 5, "Loading profile", "Profile %s: %s risk, %d-year horizon",
		displayID(profile.ProfileID), profile.RiskTolerance, profile.TimeHorizonYears)
	if len(profile.SectorExclude) > 0 {
		r.logf(rn, "Avoiding sectors: %v", profile.SectorExclude)
	}
	if len(profile.SectorInclude) > 0 {
		r.logf(rn, "Preferred sectors: %v", profile.SectorInclude)
	}

	// Gather signals
	r.progress(rn, 15, "Gathering signals", "Fetching macro and asset signals")
	stepStart := r.now()
	set, err := signals.Gather(ctx, r.deps.Macro, r.deps.Assets, log)
	if err != nil {
		return nil, fmt.Errorf("failed to gather signals: %w", err)
	}
	r.deps.Metrics.ObserveStep("gather", r.now().Sub(stepStart))

	res.Available, res.Unavailable = signals.Availability(set)
	for _, group := range res.Available {
		r.deps.Metrics.SignalGroup(group, true)
	}
	for _, group := range res.Unavailable {
		r.deps.Metrics.SignalGroup(group, false)
		r.logf(rn, "Signal unavailable: %s", group)
	}
	r.emit(&events.SignalsGatheredData{WorkflowID: rn.id, Available: res.Available, Unavailable: res.Unavailable})

	// Build recommendation
	r.progress(rn, 50, "Building recommendation", "Signals available: %v", res.Available)
	stepStart = r.now()
	rec, err := r.deps.Allocator.BuildRecommendation(profile, set, req.CurrentWeights)
	if err != nil {
		return nil, fmt.Errorf("failed to build recommendation: %w", err)
	}
	r.deps.Metrics.ObserveStep("build", r.now().Sub(stepStart))
	res.Recommendation = rec

	codes := make([]string, 0, len(rec.Warnings))
	for _, w := range rec.Warnings {
		codes = append(codes, string(w.Code))
		r.logf(rn, "Warning: %s", w.Message)
	}
	r.deps.Metrics.RecommendationBuilt(string(rec.Profile.RiskTolerance), codes...)
	r.emit(&events.RecommendationBuiltData{
		WorkflowID:    rn.id,
		ProfileID:     rec.Profile.ProfileID,
		RiskTolerance: string(rec.Profile.RiskTolerance),
		Weights: map[string]float64{
			string(domain.AssetClassEquity): rec.PolicyWeights.Equity,
			string(domain.AssetClassBond):   rec.PolicyWeights.Bond,
			string(domain.AssetClassCash):   rec.PolicyWeights.Cash,
		},
		Warnings: len(rec.Warnings),
	})
	r.logf(rn, "Policy weights: Equity %.1f%%, Bond %.1f%%, Cash %.1f%%",
		rec.PolicyWeights.Equity, rec.PolicyWeights.Bond, rec.PolicyWeights.Cash)

	// Render
	r.progress(rn, 70, "Rendering report", "Rendering markdown and JSON reports")
	rendered, err := report.Render(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	res.ReportMarkdown = rendered.Markdown

	// Persist
	if r.deps.Store != nil {
		r.progress(rn, 80, "Saving snapshot", "Persisting recommendation snapshot")
		snap, err := r.deps.Store.Save(ctx, snapshots.NewSnapshot{
			WorkflowID:     rn.id,
			Recommendation: rec,
			ReportMarkdown: rendered.Markdown,
			ReportJSON:     rendered.JSON,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
		res.SnapshotID = snap.ID
		rn.setSnapshot(snap.ID)
		r.emit(&events.SnapshotSavedData{WorkflowID: rn.id, SnapshotID: snap.ID})
		r.logf(rn, "Snapshot %s saved", snap.ID)
	}

	if r.deps.ReportsDir != "" {
		files, err := r.writeReports(res.SnapshotID, rn.id, rendered)
		if err != nil {
			// Non-fatal: the snapshot already holds both renderings
			log.Warn().Err(err).Msg("Failed to write report files")
			r.logf(rn, "Failed to write report files: %v", err)
		}
		res.ReportFiles = files
	}

	// Archive
	if r.deps.Archiver != nil && res.SnapshotID != "" {
		r.progress(rn, 90, "Archiving reports", "Uploading reports")
		res.Archives = r.archive(ctx, rn, res.SnapshotID, rendered, log)
	}

	return res, nil
}

func (r *Runner) archive(ctx context.Context, rn *run, snapshotID string, rendered *report.Rendered, log zerolog.Logger) []archive.Object {
	objects, err := r.deps.Archiver.Archive(ctx, snapshotID,
		archive.File{Format: snapshots.FormatMarkdown, ContentType: "text/markdown; charset=utf-8", Body: []byte(rendered.Markdown)},
		archive.File{Format: snapshots.FormatJSON, ContentType: "application/json", Body: rendered.JSON},
	)
	if err != nil {
		r.deps.Metrics.ArchiveResult(false)
		log.Warn().Err(err).Msg("Report archive failed")
		r.logf(rn, "Report archive failed: %v", err)
	}

	for _, obj := range objects {
		r.deps.Metrics.ArchiveResult(true)
		if r.deps.Store != nil {
			if err := r.deps.Store.RecordArchive(ctx, snapshotID, obj.Format, obj.URI); err != nil {
				log.Warn().Err(err).Str("uri", obj.URI).Msg("Failed to record archive")
			}
		}
		r.emit(&events.ReportArchivedData{WorkflowID: rn.id, SnapshotID: snapshotID, Format: obj.Format, URI: obj.URI})
		r.logf(rn, "Archived %s report to %s", obj.Format, obj.URI)
	}
	return objects
}

// writeReports writes report.md and report.json under <ReportsDir>/<id>/
func (r *Runner) writeReports(snapshotID, workflowID string, rendered *report.Rendered) ([]string, error) {
	id := snapshotID
	if id == "" {
		id = workflowID
	}
	dir := filepath.Join(r.deps.ReportsDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	mdPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(rendered.Markdown), 0644); err != nil {
		return nil, err
	}
	jsonPath := filepath.Join(dir, "report.json")
	if err := os.WriteFile(jsonPath, rendered.JSON, 0644); err != nil {
		return []string{mdPath}, err
	}
	return []string{mdPath, jsonPath}, nil
}

func (r *Runner) progress(rn *run, percent int, step, format string, args ...interface{}) {
	rn.setProgress(percent, step)
	r.logf(rn, format, args...)
	r.emit(&events.WorkflowStatusData{
		WorkflowID: rn.id,
		Status:     string(StatusRunning),
		Progress:   &events.ProgressInfo{Percent: percent, Step: step},
	})
}

func (r *Runner) logf(rn *run, format string, args ...interface{}) {
	rn.logf(r.now(), format, args...)
}

func (r *Runner) emit(data events.EventData) {
	if r.deps.Events != nil {
		r.deps.Events.EmitTyped(moduleName, data)
	}
}

func displayID(id string) string {
	if id == "" {
		return "(anonymous)"
	}
	return id
}
