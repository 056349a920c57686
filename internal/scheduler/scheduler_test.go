package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfrating/pkg/logger"
)

type fakeJob struct {
	name      string
	schedule  string
	failFirst int32 // attempts that fail before one succeeds (-1 = always fail)
	calls     int32
	block     chan struct{}
	report    *RunReport
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if j.report != nil {
		rep := *j.report
		rep.Succeeded = int(n)
		Report(ctx, rep)
	}
	if j.failFirst < 0 || n <= j.failFirst {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop()).WithRetry(2, 5*time.Millisecond)
}

func waitRuns(t *testing.T, s *Scheduler, name string, n int) *JobHistory {
	t.Helper()
	var h *JobHistory
	require.Eventually(t, func() bool {
		var err error
		h, err = s.GetJobHistory(name)
		return err == nil && len(h.Results) >= n
	}, 3*time.Second, 5*time.Millisecond)
	return h
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "rating", schedule: "0 30 15 * * 1-5"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "rating", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"rating"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))

	assert.Equal(t, []string{"b"}, s.GetAllJobs())
	assert.Len(t, s.cron.Entries(), 1)

	_, err := s.NextRun("a")
	assert.Error(t, err)
}

func TestRunJob_Success(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "rating", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("rating"))
	h := waitRuns(t, s, "rating", 1)

	assert.True(t, h.Results[0].Success)
	assert.Empty(t, h.Results[0].Error)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))

	assert.Error(t, s.RunJob("missing"))
}

func TestRunJob_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", schedule: "@daily", failFirst: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))
	h := waitRuns(t, s, "flaky", 1)

	assert.True(t, h.Results[0].Success)
	assert.Equal(t, 3, h.Results[0].Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))
}

func TestRunJob_KeepsLastAttemptReport(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "rating", schedule: "@daily", failFirst: 1, report: &RunReport{RunID: "run-7", Processed: 10, Failed: 2, Persisted: true}}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("rating"))
	h := waitRuns(t, s, "rating", 1)

	res := h.Results[0]
	require.NotNil(t, res.Report)
	assert.Equal(t, "run-7", res.Report.RunID)
	assert.Equal(t, 2, res.Report.Succeeded, "second attempt")
	assert.Equal(t, 2, res.Report.Failed)

	stats := s.GetJobStats()["rating"]
	require.NotNil(t, stats.LastReport)
	assert.Equal(t, "run-7", stats.LastReport.RunID)
}

func TestRunJob_NoReport(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "plain", schedule: "@daily"}))

	require.NoError(t, s.RunJob("plain"))
	h := waitRuns(t, s, "plain", 1)

	assert.Nil(t, h.Results[0].Report)
	assert.Nil(t, s.GetJobStats()["plain"].LastReport)
}

func TestReport_OutsideScheduler(t *testing.T) {
	assert.NotPanics(t, func() {
		Report(context.Background(), RunReport{RunID: "x"})
	})
}

func TestRunJob_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "broken", schedule: "@daily", failFirst: -1}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("broken"))
	h := waitRuns(t, s, "broken", 1)

	assert.False(t, h.Results[0].Success)
	assert.Equal(t, "boom", h.Results[0].Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls), "1 attempt + 2 retries")

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_SkipsOverlappingRun(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "slow", schedule: "@daily", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("slow"))
	require.Eventually(t, func() bool {
		return s.GetJobStats()["slow"].Running
	}, time.Second, time.Millisecond)

	// second run is dropped while the first is active
	s.runJob(job)
	close(job.block)

	waitRuns(t, s, "slow", 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))

	h, err := s.GetJobHistory("slow")
	require.NoError(t, err)
	assert.Len(t, h.Results, 1)
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := New(logger.Nop()).WithRetry(5, time.Hour)
	job := &fakeJob{name: "slow", schedule: "@daily", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))
	s.Start()

	require.NoError(t, s.RunJob("slow"))
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.calls) == 1
	}, time.Second, time.Millisecond)

	s.Stop()

	h := waitRuns(t, s, "slow", 1)
	assert.False(t, h.Results[0].Success)
	assert.Equal(t, context.Canceled.Error(), h.Results[0].Error)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls), "no retry after stop")
}

func TestCronTriggersJob(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a cron tick")
	}

	s := newTestScheduler()
	job := &fakeJob{name: "tick", schedule: "* * * * * *"}
	require.NoError(t, s.AddJob(job))
	s.Start()
	defer s.Stop()

	next, err := s.NextRun("tick")
	require.NoError(t, err)
	assert.False(t, next.IsZero())

	waitRuns(t, s, "tick", 1)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}

func TestJobHistory_LastReport(t *testing.T) {
	h := &JobHistory{}
	_, ok := h.LastReport()
	assert.False(t, ok)

	h.AddResult(JobResult{Success: true, Report: &RunReport{RunID: "a"}})
	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: false, Report: &RunReport{RunID: "failed"}})

	rep, ok := h.LastReport()
	require.True(t, ok)
	assert.Equal(t, "a", rep.RunID)
}
