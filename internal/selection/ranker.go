package selection

import (
	"sort"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/strategyconfig"
	"github.com/wonny/etfrating/pkg/logger"
)

// Ranker normalizes factor columns, builds the composite score and orders the universe
// ⭐ SSOT: 종합 점수 / 랭킹 로직은 여기서만
type Ranker struct {
	weights      strategyconfig.RankingWeights
	winsorizePct float64
	logger       *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(weights strategyconfig.RankingWeights, winsorizePct float64, logger *logger.Logger) *Ranker {
	return &Ranker{
		weights:      weights,
		winsorizePct: winsorizePct,
		logger:       logger,
	}
}

// NewRankerFromConfig creates a ranker from the strategy config
func NewRankerFromConfig(cfg *strategyconfig.Config, logger *logger.Logger) *Ranker {
	return NewRanker(cfg.Ranking.Weights, cfg.Normalization.WinsorizePct, logger)
}

// NormalizeFactors standardizes the four factor columns.
// Output index i belongs to results[i].
func (r *Ranker) NormalizeFactors(results []contracts.InstrumentResult) []contracts.NormalizedFactors {
	n := len(results)
	momentum := make([]contracts.Value, n)
	volatility := make([]contracts.Value, n)
	sharpe := make([]contracts.Value, n)
	trendQuality := make([]contracts.Value, n)

	for i, res := range results {
		momentum[i] = res.Factors.Momentum
		volatility[i] = res.Raw.Volatility.Neg() // 낮은 변동성 = 높은 점수
		sharpe[i] = res.Raw.Sharpe
		trendQuality[i] = res.Factors.TrendQuality
	}

	zMom := Normalize(momentum, r.winsorizePct)
	zVol := Normalize(volatility, r.winsorizePct)
	zSharpe := Normalize(sharpe, r.winsorizePct)
	zTQ := Normalize(trendQuality, r.winsorizePct)

	out := make([]contracts.NormalizedFactors, n)
	for i := range out {
		out[i] = contracts.NormalizedFactors{
			Momentum:     zMom[i],
			Volatility:   zVol[i],
			Sharpe:       zSharpe[i],
			TrendQuality: zTQ[i],
		}
	}
	return out
}

// TotalScore is the weighted sum of the normalized factors.
// Undefined factors count as 0 here and nowhere earlier.
func (r *Ranker) TotalScore(z contracts.NormalizedFactors) float64 {
	return r.weights.Momentum*z.Momentum.OrZero() +
		r.weights.Volatility*z.Volatility.OrZero() +
		r.weights.RiskAdjusted*z.Sharpe.OrZero() +
		r.weights.TrendQuality*z.TrendQuality.OrZero()
}

// Rank scores and sorts every result, descending by total score.
// Equal scores keep their input order; nothing is filtered out.
func (r *Ranker) Rank(results []contracts.InstrumentResult) []contracts.RankedResult {
	normalized := r.NormalizeFactors(results)

	ranked := make([]contracts.RankedResult, len(results))
	for i, res := range results {
		ranked[i] = contracts.RankedResult{
			TotalScore: r.TotalScore(normalized[i]),
			Normalized: normalized[i],
			Result:     res,
		}
	}

	// Sort by total score (descending), stable on ties
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if len(ranked) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"total_instruments": len(ranked),
			"top_score":         ranked[0].TotalScore,
			"top_code":          ranked[0].Code(),
		}).Info("Ranking completed")
	}

	return ranked
}
