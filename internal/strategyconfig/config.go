package strategyconfig

// Config는 ETF 레이팅 전략의 전체 설정
// Every field has a fixed default (see Default); a YAML file only overrides.
type Config struct {
	Meta          Meta          `yaml:"meta" json:"meta"`
	Data          Data          `yaml:"data" json:"data"`
	Momentum      Momentum      `yaml:"momentum" json:"momentum"`
	Risk          Risk          `yaml:"risk" json:"risk"`
	TrendQuality  TrendQuality  `yaml:"trend_quality" json:"trend_quality"`
	Normalization Normalization `yaml:"normalization" json:"normalization"`
	Ranking       Ranking       `yaml:"ranking" json:"ranking"`
	Orders        Orders        `yaml:"orders" json:"orders"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Data controls how much history is requested and required
type Data struct {
	LookbackSessions int `yaml:"lookback_sessions" json:"lookback_sessions"` // trading sessions kept per series
	MinHistory       int `yaml:"min_history" json:"min_history"`             // bars required to score an instrument
}

// Momentum 1M/3M/6M 수익률 + 추세 기울기
type Momentum struct {
	LookbacksDays []int     `yaml:"lookbacks_days" json:"lookbacks_days"` // 1M, 3M, 6M
	Weights       []float64 `yaml:"weights" json:"weights"`
	SlopePeriod   int       `yaml:"slope_period" json:"slope_period"`
	ComboWeight   float64   `yaml:"combo_weight" json:"combo_weight"`
	SlopeWeight   float64   `yaml:"slope_weight" json:"slope_weight"`
}

// Risk 변동성 / 샤프
type Risk struct {
	VolatilityPeriod  int `yaml:"volatility_period" json:"volatility_period"`
	SharpePeriod      int `yaml:"sharpe_period" json:"sharpe_period"`
	AnnualizationDays int `yaml:"annualization_days" json:"annualization_days"`
}

// TrendQuality ADX + 장기 이동평균 필터
type TrendQuality struct {
	ADXPeriod      int     `yaml:"adx_period" json:"adx_period"`
	MAPeriod       int     `yaml:"ma_period" json:"ma_period"`
	ADXWeight      float64 `yaml:"adx_weight" json:"adx_weight"`
	MAFilterWeight float64 `yaml:"ma_filter_weight" json:"ma_filter_weight"`
}

// Normalization 횡단면 표준화
type Normalization struct {
	WinsorizePct float64 `yaml:"winsorize_pct" json:"winsorize_pct"` // clipped on each side
}

// Ranking 종합 점수 가중치
type Ranking struct {
	Weights RankingWeights `yaml:"weights" json:"weights"`
	TopN    int            `yaml:"top_n" json:"top_n"` // rows shown in reports
}

type RankingWeights struct {
	Momentum     float64 `yaml:"momentum" json:"momentum"`
	Volatility   float64 `yaml:"volatility" json:"volatility"`
	RiskAdjusted float64 `yaml:"risk_adjusted" json:"risk_adjusted"`
	TrendQuality float64 `yaml:"trend_quality" json:"trend_quality"`
}

// Sum returns the total of all factor weights
func (w RankingWeights) Sum() float64 {
	return w.Momentum + w.Volatility + w.RiskAdjusted + w.TrendQuality
}

// Orders ATR 기반 지정가 제안
type Orders struct {
	RecommendN          int     `yaml:"recommend_n" json:"recommend_n"`
	ATRPeriod           int     `yaml:"atr_period" json:"atr_period"`
	LowATRMult          float64 `yaml:"low_atr_mult" json:"low_atr_mult"`
	HighATRMult         float64 `yaml:"high_atr_mult" json:"high_atr_mult"`
	ConservativeATRMult float64 `yaml:"conservative_atr_mult" json:"conservative_atr_mult"`
	FallbackBandPct     float64 `yaml:"fallback_band_pct" json:"fallback_band_pct"`
}

// Default returns the built-in strategy
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "etf_daily_rating",
			Version:    "1.1",
		},
		Data: Data{
			LookbackSessions: 250,
			MinHistory:       60,
		},
		Momentum: Momentum{
			LookbacksDays: []int{20, 60, 120},
			Weights:       []float64{0.4, 0.3, 0.3},
			SlopePeriod:   60,
			ComboWeight:   0.7,
			SlopeWeight:   0.3,
		},
		Risk: Risk{
			VolatilityPeriod:  60,
			SharpePeriod:      60,
			AnnualizationDays: 252,
		},
		TrendQuality: TrendQuality{
			ADXPeriod:      14,
			MAPeriod:       200,
			ADXWeight:      0.6,
			MAFilterWeight: 0.4,
		},
		Normalization: Normalization{
			WinsorizePct: 0.05,
		},
		Ranking: Ranking{
			Weights: RankingWeights{
				Momentum:     0.35,
				Volatility:   0.20,
				RiskAdjusted: 0.25,
				TrendQuality: 0.20,
			},
			TopN: 50,
		},
		Orders: Orders{
			RecommendN:          3,
			ATRPeriod:           14,
			LowATRMult:          0.8,
			HighATRMult:         0.3,
			ConservativeATRMult: 0.5,
			FallbackBandPct:     0.01,
		},
	}
}
