package execution

import (
	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/strategyconfig"
	"github.com/wonny/etfrating/pkg/logger"
)

// AdvisorConfig defines the ATR offsets of the suggested limit prices
type AdvisorConfig struct {
	LowATRMult          float64 // buy_low = price - 0.8·ATR
	HighATRMult         float64 // buy_high = price - 0.3·ATR
	ConservativeATRMult float64 // buy_conservative = price - 0.5·ATR
	FallbackBandPct     float64 // ±1% band when ATR is missing
}

// DefaultAdvisorConfig returns the default offsets
func DefaultAdvisorConfig() AdvisorConfig {
	return AdvisorConfigFromStrategy(strategyconfig.Default())
}

// AdvisorConfigFromStrategy reads the offsets from the strategy config
func AdvisorConfigFromStrategy(cfg *strategyconfig.Config) AdvisorConfig {
	return AdvisorConfig{
		LowATRMult:          cfg.Orders.LowATRMult,
		HighATRMult:         cfg.Orders.HighATRMult,
		ConservativeATRMult: cfg.Orders.ConservativeATRMult,
		FallbackBandPct:     cfg.Orders.FallbackBandPct,
	}
}

// Advisor derives limit-order price hints for the top of the ranking.
// It never places orders.
// ⭐ SSOT: 지정가 제안 로직은 여기서만
type Advisor struct {
	config AdvisorConfig
	logger *logger.Logger
}

// NewAdvisor creates a new order price advisor
func NewAdvisor(config AdvisorConfig, logger *logger.Logger) *Advisor {
	return &Advisor{
		config: config,
		logger: logger,
	}
}

// Suggest returns hints for the first n ranked instruments.
// Each position weight is 100/n percent regardless of score.
func (a *Advisor) Suggest(ranked []contracts.RankedResult, n int) []contracts.OrderSuggestion {
	if n <= 0 {
		return nil
	}

	top := ranked
	if len(top) > n {
		top = top[:n]
	}

	weight := 100.0 / float64(n)
	suggestions := make([]contracts.OrderSuggestion, 0, len(top))
	fallbacks := 0

	for _, rr := range top {
		s := a.SuggestOne(rr.Result.CurrentPrice, rr.Result.Raw.ATR)
		s.Rank = rr.Rank
		s.Code = rr.Code()
		s.Name = rr.Name()
		s.PositionWeightPct = weight
		if s.Fallback {
			fallbacks++
		}
		suggestions = append(suggestions, s)
	}

	a.logger.WithFields(map[string]interface{}{
		"requested":   n,
		"suggestions": len(suggestions),
		"fallbacks":   fallbacks,
		"weight_pct":  weight,
	}).Info("Order suggestions created")

	return suggestions
}

// SuggestOne prices a single instrument.
// A positive ATR gives buy_low < buy_conservative < buy_high < price;
// otherwise the symmetric fallback band is used.
func (a *Advisor) SuggestOne(price float64, atr contracts.Value) contracts.OrderSuggestion {
	s := contracts.OrderSuggestion{
		CurrentPrice: price,
		ATR:          atr,
	}

	if v, ok := atr.Get(); ok && v > 0 {
		s.BuyLow = price - a.config.LowATRMult*v
		s.BuyHigh = price - a.config.HighATRMult*v
		s.BuyConservative = contracts.Some(price - a.config.ConservativeATRMult*v)
		return s
	}

	s.Fallback = true
	s.BuyLow = price * (1 - a.config.FallbackBandPct)
	s.BuyHigh = price * (1 + a.config.FallbackBandPct)
	s.BuyConservative = contracts.None()
	return s
}
