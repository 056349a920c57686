package contracts

// RawIndicatorSet holds the per-instrument technical indicators.
// Every field may be undefined (insufficient history, degenerate statistic, failed fit).
// ⭐ SSOT: 지표 계산 → 팩터 스코어 전달
type RawIndicatorSet struct {
	Mom1M      Value `json:"mom_1m"`
	Mom3M      Value `json:"mom_3m"`
	Mom6M      Value `json:"mom_6m"`
	TrendSlope Value `json:"trend_slope"`
	Volatility Value `json:"volatility"`
	Sharpe     Value `json:"sharpe"`
	ADX        Value `json:"adx"`
	MAFilter   Value `json:"ma_filter"` // 1 above the long moving average, 0 below
	ATR        Value `json:"atr"`
}

// FactorScore holds the per-instrument composite sub-scores
type FactorScore struct {
	Momentum     Value `json:"momentum_score"`
	TrendQuality Value `json:"trend_quality_score"`
}

// InstrumentResult is the immutable record produced by one worker of the parallel phase
type InstrumentResult struct {
	Instrument     Instrument      `json:"instrument"`
	Bars           int             `json:"bars"`
	CurrentPrice   float64         `json:"current_price"`
	PrevClose      float64         `json:"prev_close"`
	PriceChangePct float64         `json:"price_change_pct"`
	Raw            RawIndicatorSet `json:"raw"`
	Factors        FactorScore     `json:"factors"`
}

// PriceChange returns (current-prev)/prev, or 0 when the previous close is not positive.
// A zero previous close is kept as a 0% change rather than flagged.
func PriceChange(current, prev float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (current - prev) / prev
}
