package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/pkg/logger"
)

func ranked(code string, rank int, price float64, atr contracts.Value) contracts.RankedResult {
	return contracts.RankedResult{
		Rank: rank,
		Result: contracts.InstrumentResult{
			Instrument:   contracts.Instrument{Code: code, Name: "ETF " + code},
			CurrentPrice: price,
			Raw:          contracts.RawIndicatorSet{ATR: atr},
		},
	}
}

func TestSuggestOne_ATRBands(t *testing.T) {
	a := NewAdvisor(DefaultAdvisorConfig(), logger.Nop())

	s := a.SuggestOne(10, contracts.Some(0.2))

	assert.False(t, s.Fallback)
	assert.InDelta(t, 10-0.16, s.BuyLow, 1e-12)
	assert.InDelta(t, 10-0.06, s.BuyHigh, 1e-12)
	conservative, ok := s.BuyConservative.Get()
	require.True(t, ok)
	assert.InDelta(t, 10-0.10, conservative, 1e-12)
}

func TestSuggestOne_BandOrdering(t *testing.T) {
	a := NewAdvisor(DefaultAdvisorConfig(), logger.Nop())

	for _, atr := range []float64{1e-6, 0.01, 0.5, 3, 40} {
		for _, price := range []float64{0.5, 1.234, 100} {
			s := a.SuggestOne(price, contracts.Some(atr))
			c := s.BuyConservative.OrZero()

			assert.Less(t, s.BuyLow, c, "atr=%v price=%v", atr, price)
			assert.Less(t, c, s.BuyHigh, "atr=%v price=%v", atr, price)
			assert.Less(t, s.BuyHigh, price, "atr=%v price=%v", atr, price)
		}
	}
}

func TestSuggestOne_Fallback(t *testing.T) {
	a := NewAdvisor(DefaultAdvisorConfig(), logger.Nop())

	for _, atr := range []contracts.Value{contracts.None(), contracts.Some(0)} {
		s := a.SuggestOne(2.0, atr)

		assert.True(t, s.Fallback)
		assert.InDelta(t, 1.98, s.BuyLow, 1e-12)
		assert.InDelta(t, 2.02, s.BuyHigh, 1e-12)
		assert.False(t, s.BuyConservative.Valid())
	}
}

func TestSuggest_TopNAndWeights(t *testing.T) {
	a := NewAdvisor(DefaultAdvisorConfig(), logger.Nop())
	list := []contracts.RankedResult{
		ranked("510300.SH", 1, 4.0, contracts.Some(0.05)),
		ranked("159915.SZ", 2, 2.5, contracts.None()),
		ranked("512880.SH", 3, 1.1, contracts.Some(0.02)),
		ranked("518880.SH", 4, 5.6, contracts.Some(0.04)),
	}

	out := a.Suggest(list, 3)
	require.Len(t, out, 3)

	for i, s := range out {
		assert.Equal(t, i+1, s.Rank)
		assert.InDelta(t, 100.0/3, s.PositionWeightPct, 1e-12)
	}
	assert.Equal(t, "159915.SZ", out[1].Code)
	assert.True(t, out[1].Fallback)
	assert.Equal(t, "ETF 510300.SH", out[0].Name)
}

func TestSuggest_FewerRankedThanN(t *testing.T) {
	a := NewAdvisor(DefaultAdvisorConfig(), logger.Nop())
	list := []contracts.RankedResult{ranked("510300.SH", 1, 4.0, contracts.Some(0.05))}

	out := a.Suggest(list, 4)
	require.Len(t, out, 1)
	assert.Equal(t, 25.0, out[0].PositionWeightPct)

	assert.Nil(t, a.Suggest(list, 0))
	assert.Empty(t, a.Suggest(nil, 3))
}
