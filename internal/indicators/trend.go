package indicators

import (
	"math"

	"github.com/wonny/etfrating/internal/contracts"
)

// adxExtraBars is the slack on top of period that ADX needs to settle
const adxExtraBars = 10

// MAFilter returns 1 when the last close is above the trailing period mean, 0 otherwise
func MAFilter(closes []float64, period int) contracts.Value {
	if period < 1 || len(closes) < period {
		return contracts.None()
	}

	var sum float64
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	ma := sum / float64(period)

	if closes[len(closes)-1] > ma {
		return contracts.Some(1)
	}
	return contracts.Some(0)
}

// ATR returns Wilder's Average True Range at the last bar.
// The first true range is high-low; the seed is the mean of the first period ranges.
func ATR(high, low, close []float64, period int) contracts.Value {
	n := len(close)
	if period < 1 || n < period+1 || len(high) != n || len(low) != n {
		return contracts.None()
	}

	tr := trueRanges(high, low, close)

	var atr float64
	for i := 0; i < period; i++ {
		atr += tr[i]
	}
	atr /= float64(period)

	p := float64(period)
	for i := period; i < n; i++ {
		atr = (atr*(p-1) + tr[i]) / p
	}

	return contracts.Some(atr)
}

// ADX returns Wilder's Average Directional Index at the last bar.
// Defined from max(period+10, 2*period) bars: period+10 is the settling floor,
// 2*period seeds the DX average (28 bars at period 14, so 24..27 bars give None).
func ADX(high, low, close []float64, period int) contracts.Value {
	n := len(close)
	if period < 1 || len(high) != n || len(low) != n {
		return contracts.None()
	}
	if n < period+adxExtraBars || n < 2*period {
		return contracts.None()
	}

	tr := trueRanges(high, low, close)
	p := float64(period)

	// Wilder sums seeded over bars 1..period
	var sTR, sPlus, sMinus float64
	for i := 1; i <= period; i++ {
		plus, minus := directionalMove(high, low, i)
		sTR += tr[i]
		sPlus += plus
		sMinus += minus
	}

	dxs := make([]float64, 0, n-period)
	for i := period; i < n; i++ {
		if i > period {
			plus, minus := directionalMove(high, low, i)
			sTR = sTR - sTR/p + tr[i]
			sPlus = sPlus - sPlus/p + plus
			sMinus = sMinus - sMinus/p + minus
		}
		if sTR == 0 {
			return contracts.None()
		}

		plusDI := 100 * sPlus / sTR
		minusDI := 100 * sMinus / sTR
		diSum := plusDI + minusDI

		dx := 0.0
		if diSum != 0 {
			dx = 100 * math.Abs(plusDI-minusDI) / diSum
		}
		dxs = append(dxs, dx)
	}

	if len(dxs) < period {
		return contracts.None()
	}

	var adx float64
	for _, dx := range dxs[:period] {
		adx += dx
	}
	adx /= p
	for _, dx := range dxs[period:] {
		adx = (adx*(p-1) + dx) / p
	}

	return contracts.Some(adx)
}

// trueRanges returns TR per bar; TR[0] = high-low
func trueRanges(high, low, close []float64) []float64 {
	tr := make([]float64, len(close))
	for i := range close {
		hl := high[i] - low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// directionalMove returns (+DM, -DM) of bar i against bar i-1
func directionalMove(high, low []float64, i int) (float64, float64) {
	up := high[i] - high[i-1]
	down := low[i-1] - low[i]

	var plus, minus float64
	if up > down && up > 0 {
		plus = up
	}
	if down > up && down > 0 {
		minus = down
	}
	return plus, minus
}
