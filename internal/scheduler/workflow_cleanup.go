package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// WorkflowCleanupJob forgets finished workflow runs past their retention
type WorkflowCleanupJob struct {
	JobBase
	log       zerolog.Logger
	pruner    WorkflowPruner
	retention time.Duration
}

// NewWorkflowCleanupJob creates a new WorkflowCleanupJob
func NewWorkflowCleanupJob(pruner WorkflowPruner, retention time.Duration) *WorkflowCleanupJob {
	return &WorkflowCleanupJob{
		log:       zerolog.Nop(),
		pruner:    pruner,
		retention: retention,
	}
}

// SetLogger sets the logger for the job
func (j *WorkflowCleanupJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *WorkflowCleanupJob) Name() string {
	return "workflow_cleanup"
}

// Run executes the workflow cleanup job
func (j *WorkflowCleanupJob) Run() error {
	removed := j.pruner.Cleanup(j.retention)
	if removed > 0 {
		j.log.Info().
			Int("removed", removed).
			Dur("retention", j.retention).
			Msg("Removed finished workflows")
	}
	return nil
}
