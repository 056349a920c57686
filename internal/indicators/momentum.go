package indicators

import (
	"math"

	"github.com/wonny/etfrating/internal/contracts"
)

// Momentum returns close[last]/close[last-p+1] - 1 for each period p.
// A period longer than the series, or a non-positive base price, yields None.
// ⭐ SSOT: 모멘텀 계산은 여기서만
func Momentum(closes []float64, periods ...int) []contracts.Value {
	out := make([]contracts.Value, len(periods))
	n := len(closes)

	for i, p := range periods {
		if p < 1 || n < p {
			out[i] = contracts.None()
			continue
		}
		base := closes[n-p]
		if base <= 0 {
			out[i] = contracts.None()
			continue
		}
		out[i] = contracts.Some(closes[n-1]/base - 1)
	}

	return out
}

// TrendSlope fits ln(close) against 0..period-1 over the trailing period closes
// and returns the least-squares slope (log growth per session).
func TrendSlope(closes []float64, period int) contracts.Value {
	if period < 2 || len(closes) < period {
		return contracts.None()
	}

	window := closes[len(closes)-period:]
	n := float64(period)

	// x = 0..period-1
	meanX := (n - 1) / 2
	var meanY float64
	logs := make([]float64, period)
	for i, p := range window {
		if p <= 0 {
			return contracts.None()
		}
		logs[i] = math.Log(p)
		meanY += logs[i]
	}
	meanY /= n

	var sxy, sxx float64
	for i, y := range logs {
		dx := float64(i) - meanX
		sxy += dx * (y - meanY)
		sxx += dx * dx
	}
	if sxx == 0 {
		return contracts.None()
	}

	// Some() drops NaN/Inf from an ill-conditioned fit
	return contracts.Some(sxy / sxx)
}
