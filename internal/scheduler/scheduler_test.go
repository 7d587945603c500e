package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	JobBase
	name string
	err  error
}

func (j *countingJob) Run() error   { return j.err }
func (j *countingJob) Name() string { return j.name }

type plainJob struct{ ran bool }

func (j *plainJob) Run() error   { j.ran = true; return nil }
func (j *plainJob) Name() string { return "plain" }

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &plainJob{})
	assert.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestScheduler_RunNowRecordsRuns(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &countingJob{name: "b_ok"}
	failing := &countingJob{name: "a_failing", err: errors.New("boom")}

	require.NoError(t, s.AddJob("0 0 * * * *", ok))
	require.NoError(t, s.AddJob("@every 1h", failing))

	require.NoError(t, s.RunNow(ok))
	assert.EqualError(t, s.RunNow(failing), "boom")

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a_failing", jobs[0].Name)
	assert.Equal(t, "boom", jobs[0].LastErr)
	assert.Equal(t, 1, jobs[0].Runs)
	assert.Equal(t, "b_ok", jobs[1].Name)
	assert.Equal(t, "0 0 * * * *", jobs[1].Schedule)
	assert.Empty(t, jobs[1].LastErr)
	assert.False(t, jobs[1].LastRun.IsZero())
}

func TestScheduler_PlainJobsRun(t *testing.T) {
	s := New(zerolog.Nop())
	job := &plainJob{}
	require.NoError(t, s.AddJob("@daily", job))
	require.NoError(t, s.RunNow(job))
	assert.True(t, job.ran)

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, 0, jobs[0].Runs)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &plainJob{}))
	s.Start()
	s.Stop()
}
