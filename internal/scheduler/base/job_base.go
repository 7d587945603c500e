// Package base provides the run bookkeeping shared by scheduler jobs.
package base

import (
	"sync"
	"time"
)

// JobBase records when a job last ran and how it ended.
// Jobs embed it so the scheduler can report their status.
type JobBase struct {
	mu      sync.Mutex
	lastRun time.Time
	lastErr error
	runs    int
}

// RecordRun stores the outcome of a run
func (j *JobBase) RecordRun(at time.Time, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastRun = at
	j.lastErr = err
	j.runs++
}

// LastRun returns the start time and error of the most recent run.
// The time is zero if the job never ran.
func (j *JobBase) LastRun() (time.Time, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun, j.lastErr
}

// Runs returns how many times the job has run
func (j *JobBase) Runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}
