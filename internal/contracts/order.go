package contracts

// OrderSuggestion is a limit-order price hint for a top-ranked instrument.
// With a positive ATR the three ATR-offset prices are set; otherwise Fallback is true
// and only the symmetric band (BuyLow, BuyHigh) is set.
// ⭐ SSOT: 주문가 제안 → 리포트 전달
type OrderSuggestion struct {
	Rank              int     `json:"rank"`
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	CurrentPrice      float64 `json:"current_price"`
	ATR               Value   `json:"atr"`
	BuyLow            float64 `json:"buy_low"`
	BuyHigh           float64 `json:"buy_high"`
	BuyConservative   Value   `json:"buy_conservative"`
	Fallback          bool    `json:"fallback"`
	PositionWeightPct float64 `json:"position_weight_pct"`
}
