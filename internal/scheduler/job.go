package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes one pass. Call Report on ctx to attach counts to the result.
	Run(ctx context.Context) error

	// Schedule returns the cron expression (with seconds), e.g. "0 30 15 * * 1-5"
	Schedule() string
}

// RunReport is what a pass tells the scheduler about its batch
type RunReport struct {
	RunID     string `json:"run_id,omitempty"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"` // ranked instruments, synced codes
	Failed    int    `json:"failed"`    // excluded instruments, failed codes
	Persisted bool   `json:"persisted"`
}

type reportKey struct{}

// Report attaches r to the result of the running attempt.
// Outside a scheduler-run context it does nothing.
func Report(ctx context.Context, r RunReport) {
	if slot, ok := ctx.Value(reportKey{}).(*RunReport); ok {
		*slot = r
	}
}

// withReportSlot returns a context collecting the report of one attempt
func withReportSlot(ctx context.Context) (context.Context, *RunReport) {
	slot := &RunReport{}
	return context.WithValue(ctx, reportKey{}, slot), slot
}

// JobResult is one run of a job (all retries included)
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Report    *RunReport    `json:"report,omitempty"` // last attempt's report, if any
}

// maxHistory bounds the results kept per job
const maxHistory = 100

// JobHistory keeps the latest results of one job
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest beyond maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// GetLatestResults returns the latest n results, oldest first
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns all failed results
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}

	successCount := 0
	for _, result := range h.Results {
		if result.Success {
			successCount++
		}
	}
	return float64(successCount) / float64(len(h.Results))
}

// LastReport returns the newest report of a successful run
func (h *JobHistory) LastReport() (*RunReport, bool) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		r := h.Results[i]
		if r.Success && r.Report != nil {
			return r.Report, true
		}
	}
	return nil, false
}
