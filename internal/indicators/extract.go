package indicators

import (
	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/strategyconfig"
)

// Params are the lookbacks used by Extract
type Params struct {
	MinHistory        int
	MomentumPeriods   []int // 1M, 3M, 6M
	SlopePeriod       int
	VolatilityPeriod  int
	SharpePeriod      int
	AnnualizationDays int
	ADXPeriod         int
	MAPeriod          int
	ATRPeriod         int
}

// ParamsFromConfig maps the strategy config onto indicator lookbacks
func ParamsFromConfig(cfg *strategyconfig.Config) Params {
	return Params{
		MinHistory:        cfg.Data.MinHistory,
		MomentumPeriods:   cfg.Momentum.LookbacksDays,
		SlopePeriod:       cfg.Momentum.SlopePeriod,
		VolatilityPeriod:  cfg.Risk.VolatilityPeriod,
		SharpePeriod:      cfg.Risk.SharpePeriod,
		AnnualizationDays: cfg.Risk.AnnualizationDays,
		ADXPeriod:         cfg.TrendQuality.ADXPeriod,
		MAPeriod:          cfg.TrendQuality.MAPeriod,
		ATRPeriod:         cfg.Orders.ATRPeriod,
	}
}

// Extract computes the full raw indicator set of one series.
// A series shorter than MinHistory yields an all-undefined set.
func Extract(series *contracts.PriceSeries, p Params) contracts.RawIndicatorSet {
	var raw contracts.RawIndicatorSet
	if series.Len() == 0 || series.Len() < p.MinHistory {
		return raw
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	moms := Momentum(closes, p.MomentumPeriods...)
	if len(moms) == 3 {
		raw.Mom1M, raw.Mom3M, raw.Mom6M = moms[0], moms[1], moms[2]
	}
	raw.TrendSlope = TrendSlope(closes, p.SlopePeriod)

	returns := Returns(closes)
	raw.Volatility = Volatility(returns, p.VolatilityPeriod, p.AnnualizationDays)
	raw.Sharpe = Sharpe(returns, p.SharpePeriod, p.AnnualizationDays)

	raw.ADX = ADX(highs, lows, closes, p.ADXPeriod)
	raw.MAFilter = MAFilter(closes, p.MAPeriod)
	raw.ATR = ATR(highs, lows, closes, p.ATRPeriod)

	return raw
}
