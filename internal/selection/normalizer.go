package selection

import (
	"math"
	"sort"

	"github.com/wonny/etfrating/internal/contracts"
)

// Bounds are the clipping limits applied by Winsorize
type Bounds struct {
	Lower float64
	Upper float64
}

// Winsorize clips values to rank-based bounds: with k = floor(pct*n) and
// sorted ascending, Lower = sorted[k] and Upper = sorted[n-1-k].
// Returns a new slice in input order.
func Winsorize(values []float64, pct float64) ([]float64, Bounds) {
	n := len(values)
	out := make([]float64, n)
	copy(out, values)
	if n == 0 {
		return out, Bounds{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	k := 0
	if pct > 0 {
		k = int(math.Floor(pct * float64(n)))
	}
	if k > (n-1)/2 {
		k = (n - 1) / 2
	}

	b := Bounds{Lower: sorted[k], Upper: sorted[n-1-k]}
	for i, v := range out {
		if v < b.Lower {
			out[i] = b.Lower
		} else if v > b.Upper {
			out[i] = b.Upper
		}
	}

	return out, b
}

// Standardize returns population z-scores.
// A zero standard deviation maps every value to 0.
func Standardize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(values)))

	if std == 0 {
		return out
	}

	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

// Normalize standardizes one factor column across the universe.
// Undefined entries are skipped by the statistics and kept undefined in place;
// fewer than 2 defined entries returns the column unchanged.
// ⭐ SSOT: 횡단면 표준화는 여기서만 (winsorize → z-score)
func Normalize(column []contracts.Value, pct float64) []contracts.Value {
	out := make([]contracts.Value, len(column))
	copy(out, column)

	defined := make([]float64, 0, len(column))
	positions := make([]int, 0, len(column))
	for i, v := range column {
		if f, ok := v.Get(); ok {
			defined = append(defined, f)
			positions = append(positions, i)
		}
	}

	if len(defined) < 2 {
		return out
	}

	clipped, _ := Winsorize(defined, pct)
	z := Standardize(clipped)

	for j, pos := range positions {
		out[pos] = contracts.Some(z[j])
	}
	return out
}
