package strategyconfig

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Data ===
	if cfg.Data.MinHistory < 2 {
		return ValidationError{"data.min_history", "must be >= 2"}
	}
	if cfg.Data.LookbackSessions < cfg.Data.MinHistory {
		return ValidationError{"data.lookback_sessions", "must be >= data.min_history"}
	}

	// === Momentum ===
	m := cfg.Momentum
	if len(m.LookbacksDays) != 3 {
		return ValidationError{"momentum.lookbacks_days", "must list exactly three lookbacks (1M, 3M, 6M)"}
	}
	if len(m.LookbacksDays) != len(m.Weights) {
		return ValidationError{"momentum", "lookbacks_days length must match weights length"}
	}
	for i, p := range m.LookbacksDays {
		if p < 1 {
			return ValidationError{fmt.Sprintf("momentum.lookbacks_days[%d]", i), "must be >= 1"}
		}
		if i > 0 && p <= m.LookbacksDays[i-1] {
			return ValidationError{"momentum.lookbacks_days", "must be strictly increasing"}
		}
	}
	if err := validateWeightsSum(m.Weights, 1.0, 1e-6); err != nil {
		return ValidationError{"momentum.weights", err.Error()}
	}
	if err := validateWeightsSum([]float64{m.ComboWeight, m.SlopeWeight}, 1.0, 1e-6); err != nil {
		return ValidationError{"momentum.combo_weight+slope_weight", err.Error()}
	}
	if m.SlopePeriod < 2 {
		return ValidationError{"momentum.slope_period", "must be >= 2"}
	}

	// === Risk ===
	if cfg.Risk.VolatilityPeriod < 2 {
		return ValidationError{"risk.volatility_period", "must be >= 2"}
	}
	if cfg.Risk.SharpePeriod < 2 {
		return ValidationError{"risk.sharpe_period", "must be >= 2"}
	}
	if cfg.Risk.AnnualizationDays < 1 {
		return ValidationError{"risk.annualization_days", "must be >= 1"}
	}

	// === TrendQuality ===
	tq := cfg.TrendQuality
	if tq.ADXPeriod < 1 {
		return ValidationError{"trend_quality.adx_period", "must be >= 1"}
	}
	if tq.MAPeriod < 1 {
		return ValidationError{"trend_quality.ma_period", "must be >= 1"}
	}
	if err := validateWeightsSum([]float64{tq.ADXWeight, tq.MAFilterWeight}, 1.0, 1e-6); err != nil {
		return ValidationError{"trend_quality.weights", err.Error()}
	}

	// === Normalization ===
	if cfg.Normalization.WinsorizePct < 0 || cfg.Normalization.WinsorizePct >= 0.5 {
		return ValidationError{"normalization.winsorize_pct", "must be in range [0, 0.5)"}
	}

	// === Ranking ===
	w := cfg.Ranking.Weights
	if err := validateWeightsSum([]float64{w.Momentum, w.Volatility, w.RiskAdjusted, w.TrendQuality}, 1.0, 1e-6); err != nil {
		return ValidationError{"ranking.weights", err.Error()}
	}
	if cfg.Ranking.TopN < 0 {
		return ValidationError{"ranking.top_n", "must be >= 0"}
	}

	// === Orders ===
	o := cfg.Orders
	if o.RecommendN < 0 {
		return ValidationError{"orders.recommend_n", "must be >= 0"}
	}
	if o.ATRPeriod < 1 {
		return ValidationError{"orders.atr_period", "must be >= 1"}
	}
	// buy_low < buy_conservative < buy_high < price
	if !(o.LowATRMult > o.ConservativeATRMult && o.ConservativeATRMult > o.HighATRMult && o.HighATRMult > 0) {
		return ValidationError{"orders", "must satisfy low_atr_mult > conservative_atr_mult > high_atr_mult > 0"}
	}
	if o.FallbackBandPct <= 0 || o.FallbackBandPct >= 1 {
		return ValidationError{"orders.fallback_band_pct", "must be in range (0, 1)"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 장기 이동평균이 조회 구간보다 길면 추세 품질이 항상 undefined
	if cfg.TrendQuality.MAPeriod > cfg.Data.LookbackSessions {
		warnings = append(warnings, Warning{
			Code:    "MA_FILTER_UNREACHABLE",
			Message: fmt.Sprintf("ma_period=%d > lookback_sessions=%d: trend quality is never defined", cfg.TrendQuality.MAPeriod, cfg.Data.LookbackSessions),
		})
	}

	if n := len(cfg.Momentum.LookbacksDays); n > 0 && cfg.Momentum.LookbacksDays[n-1] > cfg.Data.LookbackSessions {
		warnings = append(warnings, Warning{
			Code:    "MOMENTUM_UNREACHABLE",
			Message: "longest momentum lookback exceeds lookback_sessions: momentum score is never defined",
		})
	}

	if cfg.Data.MinHistory < cfg.Momentum.SlopePeriod {
		warnings = append(warnings, Warning{
			Code:    "SHORT_MIN_HISTORY",
			Message: "min_history < slope_period: some ranked instruments will carry no trend slope",
		})
	}

	if cfg.Orders.RecommendN > cfg.Ranking.TopN {
		warnings = append(warnings, Warning{
			Code:    "RECOMMEND_BEYOND_REPORT",
			Message: "recommend_n > top_n: recommended instruments may not appear in the report table",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return errors.New("must not be negative")
		}
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}
