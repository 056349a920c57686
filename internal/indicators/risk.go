package indicators

import (
	"math"

	"github.com/wonny/etfrating/internal/contracts"
)

// Returns computes simple session-over-session returns (len = len(closes)-1).
// A non-positive previous close yields a 0 return instead of a division fault.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}

	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev <= 0 {
			out[i-1] = 0
			continue
		}
		out[i-1] = closes[i]/prev - 1
	}
	return out
}

// Volatility returns the annualized population standard deviation of the
// trailing period returns.
func Volatility(returns []float64, period, annualization int) contracts.Value {
	if period < 1 || len(returns) < period {
		return contracts.None()
	}

	_, std := meanStd(returns[len(returns)-period:])
	return contracts.Some(std * math.Sqrt(float64(annualization)))
}

// Sharpe returns mean/std of the trailing period returns, annualized.
// Zero dispersion yields None.
func Sharpe(returns []float64, period, annualization int) contracts.Value {
	if period < 1 || len(returns) < period {
		return contracts.None()
	}

	mean, std := meanStd(returns[len(returns)-period:])
	if std == 0 {
		return contracts.None()
	}
	return contracts.Some(mean / std * math.Sqrt(float64(annualization)))
}

// meanStd returns mean and population standard deviation
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
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
	return mean, math.Sqrt(ss / float64(len(values)))
}
