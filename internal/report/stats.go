package report

import (
	"sort"

	"github.com/wonny/etfrating/internal/contracts"
)

// Summary is the distribution of total scores of one run
type Summary struct {
	Count  int     `json:"count"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Summarize computes score statistics. An empty table yields the zero Summary.
func Summarize(ranked []contracts.RankedResult) Summary {
	n := len(ranked)
	if n == 0 {
		return Summary{}
	}

	scores := make([]float64, n)
	sum := 0.0
	for i, r := range ranked {
		scores[i] = r.TotalScore
		sum += r.TotalScore
	}
	sort.Float64s(scores)

	median := scores[n/2]
	if n%2 == 0 {
		median = (scores[n/2-1] + scores[n/2]) / 2
	}

	return Summary{
		Count:  n,
		Max:    scores[n-1],
		Min:    scores[0],
		Mean:   sum / float64(n),
		Median: median,
	}
}
