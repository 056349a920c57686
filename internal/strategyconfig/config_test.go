package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 0.35, cfg.Ranking.Weights.Momentum)
	assert.Equal(t, 0.20, cfg.Ranking.Weights.Volatility)
	assert.Equal(t, 0.25, cfg.Ranking.Weights.RiskAdjusted)
	assert.Equal(t, 0.20, cfg.Ranking.Weights.TrendQuality)
	assert.Equal(t, []float64{0.4, 0.3, 0.3}, cfg.Momentum.Weights)
	assert.Equal(t, 0.6, cfg.TrendQuality.ADXWeight)
	assert.Equal(t, 0.4, cfg.TrendQuality.MAFilterWeight)
	assert.Equal(t, 250, cfg.Data.LookbackSessions)
	assert.Equal(t, 60, cfg.Data.MinHistory)
	assert.Equal(t, 50, cfg.Ranking.TopN)
	assert.Equal(t, 3, cfg.Orders.RecommendN)
	assert.Empty(t, Warn(cfg))
}

func TestParse_OverridesDefaults(t *testing.T) {
	yamlData := []byte(`
meta:
  strategy_id: aggressive
ranking:
  weights:
    momentum: 0.5
    volatility: 0.1
    risk_adjusted: 0.2
    trend_quality: 0.2
  top_n: 20
orders:
  recommend_n: 5
`)

	cfg, err := Parse(yamlData)
	require.NoError(t, err)

	assert.Equal(t, "aggressive", cfg.Meta.StrategyID)
	assert.Equal(t, 0.5, cfg.Ranking.Weights.Momentum)
	assert.Equal(t, 20, cfg.Ranking.TopN)
	assert.Equal(t, 5, cfg.Orders.RecommendN)
	// untouched sections keep defaults
	assert.Equal(t, []int{20, 60, 120}, cfg.Momentum.LookbacksDays)
	assert.Equal(t, 0.8, cfg.Orders.LowATRMult)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("ranking:\n  wieghts:\n    momentum: 1\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  min_history: 80\n"), 0o644))

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Data.MinHistory)
	assert.NotEmpty(t, raw)

	_, _, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"ranking weights sum", func(c *Config) { c.Ranking.Weights.Momentum = 0.5 }, "ranking.weights"},
		{"momentum weights sum", func(c *Config) { c.Momentum.Weights = []float64{0.5, 0.3, 0.3} }, "momentum.weights"},
		{"momentum lookbacks count", func(c *Config) { c.Momentum.LookbacksDays = []int{20, 60} }, "momentum.lookbacks_days"},
		{"momentum lookbacks order", func(c *Config) { c.Momentum.LookbacksDays = []int{60, 20, 120} }, "momentum.lookbacks_days"},
		{"trend quality weights", func(c *Config) { c.TrendQuality.ADXWeight = 0.9 }, "trend_quality.weights"},
		{"winsorize pct", func(c *Config) { c.Normalization.WinsorizePct = 0.5 }, "normalization.winsorize_pct"},
		{"min history", func(c *Config) { c.Data.MinHistory = 1 }, "data.min_history"},
		{"lookback shorter than min history", func(c *Config) { c.Data.LookbackSessions = 30 }, "data.lookback_sessions"},
		{"atr multiplier order", func(c *Config) { c.Orders.ConservativeATRMult = 0.2 }, "orders"},
		{"fallback band", func(c *Config) { c.Orders.FallbackBandPct = 0 }, "orders.fallback_band_pct"},
		{"strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Data.LookbackSessions = 150
	cfg.Orders.RecommendN = 60

	codes := map[string]bool{}
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}

	assert.True(t, codes["MA_FILTER_UNREACHABLE"])
	assert.True(t, codes["RECOMMEND_BEYOND_REPORT"])
	assert.False(t, codes["MOMENTUM_UNREACHABLE"])
}

func TestValidate_RecommendBeyondTopN(t *testing.T) {
	cfg := Default()
	cfg.Ranking.TopN = 10
	cfg.Orders.RecommendN = 20

	require.NoError(t, Validate(cfg))

	var codes []string
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, "RECOMMEND_BEYOND_REPORT")
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, _ := Hash(Default())
	assert.Equal(t, a, b, "hash not deterministic")

	changed := Default()
	changed.Orders.RecommendN = 4
	c, _ := Hash(changed)
	assert.NotEqual(t, a, c)
}
