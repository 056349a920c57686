package contracts

// NormalizedFactors holds the cross-sectional z-scores of one instrument.
// Volatility is already negated: a higher value means lower realized volatility.
type NormalizedFactors struct {
	Momentum     Value `json:"z_momentum"`
	Volatility   Value `json:"z_volatility"`
	Sharpe       Value `json:"z_sharpe"`
	TrendQuality Value `json:"z_trend_quality"`
}

// RankedResult represents an instrument with its composite score and rank
// ⭐ SSOT: 랭킹 결과 → 리포트/주문가 산출 전달
type RankedResult struct {
	Rank       int               `json:"rank"`        // 1-based ranking
	TotalScore float64           `json:"total_score"` // Composite score
	Normalized NormalizedFactors `json:"normalized"`
	Result     InstrumentResult  `json:"result"`
}

// Code returns the instrument code
func (r *RankedResult) Code() string {
	return r.Result.Instrument.Code
}

// Name returns the instrument display name
func (r *RankedResult) Name() string {
	return r.Result.Instrument.Name
}

// IsTopRanked checks if the instrument is in top N ranks
func (r *RankedResult) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}
