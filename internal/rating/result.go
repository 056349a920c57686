package rating

import (
	"sort"
	"time"

	"github.com/wonny/etfrating/internal/contracts"
)

// Exclusion reasons
const (
	ReasonNoData              = "no_data"
	ReasonInsufficientHistory = "insufficient_history"
	ReasonInvalidSeries       = "invalid_series"
	ReasonTimeout             = "timeout"
	ReasonCanceled            = "canceled"
	ReasonProviderError       = "provider_error"
)

// Exclusion explains why an instrument is missing from the ranking
type Exclusion struct {
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// RunResult is the output of one batch run
// ⭐ SSOT: 레이팅 엔진 → 리포트/저장 전달
type RunResult struct {
	RunID       string                      `json:"run_id"`
	Date        time.Time                   `json:"date"`
	StrategyID  string                      `json:"strategy_id"`
	ConfigHash  string                      `json:"config_hash"`
	Universe    int                         `json:"universe"`
	Processed   int                         `json:"processed"`
	Ranked      []contracts.RankedResult    `json:"ranked"`
	Suggestions []contracts.OrderSuggestion `json:"suggestions"`
	Excluded    map[string]Exclusion        `json:"excluded"`
	Duration    time.Duration               `json:"duration"`
}

// Top returns the first n ranked results
func (r *RunResult) Top(n int) []contracts.RankedResult {
	if n < 0 || n >= len(r.Ranked) {
		return r.Ranked
	}
	return r.Ranked[:n]
}

// ExcludedCodes returns excluded codes in sorted order
func (r *RunResult) ExcludedCodes() []string {
	codes := make([]string, 0, len(r.Excluded))
	for code := range r.Excluded {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ExclusionsByReason counts exclusions per reason
func (r *RunResult) ExclusionsByReason() map[string]int {
	counts := make(map[string]int)
	for _, ex := range r.Excluded {
		counts[ex.Reason]++
	}
	return counts
}

// SuccessRate returns processed/universe
func (r *RunResult) SuccessRate() float64 {
	if r.Universe == 0 {
		return 0
	}
	return float64(r.Processed) / float64(r.Universe)
}
