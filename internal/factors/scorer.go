package factors

import (
	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/strategyconfig"
)

// Weights are the fixed sub-weights used to combine raw indicators
type Weights struct {
	Mom1M    float64
	Mom3M    float64
	Mom6M    float64
	Combo    float64
	Slope    float64
	ADX      float64
	MAFilter float64
}

// DefaultWeights returns 0.4/0.3/0.3, 0.7/0.3 and 0.6/0.4
func DefaultWeights() Weights {
	return WeightsFromConfig(strategyconfig.Default())
}

// WeightsFromConfig reads the sub-weights from the strategy config
func WeightsFromConfig(cfg *strategyconfig.Config) Weights {
	m := cfg.Momentum
	w := Weights{
		Combo:    m.ComboWeight,
		Slope:    m.SlopeWeight,
		ADX:      cfg.TrendQuality.ADXWeight,
		MAFilter: cfg.TrendQuality.MAFilterWeight,
	}
	if len(m.Weights) == 3 {
		w.Mom1M, w.Mom3M, w.Mom6M = m.Weights[0], m.Weights[1], m.Weights[2]
	}
	return w
}

// Scorer combines a RawIndicatorSet into composite sub-scores
// ⭐ SSOT: 팩터 서브스코어 계산은 여기서만
type Scorer struct {
	weights Weights
}

// NewScorer creates a new factor scorer
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score derives the momentum and trend-quality sub-scores.
// Any undefined constituent makes the sub-score undefined.
func (s *Scorer) Score(raw contracts.RawIndicatorSet) contracts.FactorScore {
	return contracts.FactorScore{
		Momentum:     s.MomentumScore(raw),
		TrendQuality: s.TrendQualityScore(raw),
	}
}

// MomentumCombo returns 0.4·m1 + 0.3·m3 + 0.3·m6 (default weights)
func (s *Scorer) MomentumCombo(raw contracts.RawIndicatorSet) contracts.Value {
	m1, ok1 := raw.Mom1M.Get()
	m3, ok3 := raw.Mom3M.Get()
	m6, ok6 := raw.Mom6M.Get()
	if !ok1 || !ok3 || !ok6 {
		return contracts.None()
	}

	w := s.weights
	return contracts.Some(w.Mom1M*m1 + w.Mom3M*m3 + w.Mom6M*m6)
}

// MomentumScore returns 0.7·combo + 0.3·trend slope (default weights)
func (s *Scorer) MomentumScore(raw contracts.RawIndicatorSet) contracts.Value {
	combo, ok := s.MomentumCombo(raw).Get()
	if !ok {
		return contracts.None()
	}
	slope, ok := raw.TrendSlope.Get()
	if !ok {
		return contracts.None()
	}

	return contracts.Some(s.weights.Combo*combo + s.weights.Slope*slope)
}

// TrendQualityScore returns 0.6·ADX + 0.4·MA filter (default weights)
func (s *Scorer) TrendQualityScore(raw contracts.RawIndicatorSet) contracts.Value {
	adx, ok := raw.ADX.Get()
	if !ok {
		return contracts.None()
	}
	ma, ok := raw.MAFilter.Get()
	if !ok {
		return contracts.None()
	}

	return contracts.Some(s.weights.ADX*adx + s.weights.MAFilter*ma)
}
