package holdings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/pkg/logger"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "sub", DefaultFile), logger.Nop())
	s.now = func() time.Time { return time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC) }
	return s
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := newStore(t)

	h, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestFileStore_SaveLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	in := contracts.Holdings{
		"510300.SH": {Code: "510300.SH", Name: "沪深300ETF", Quantity: 1000, AvgPrice: 3.95},
	}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in["510300.SH"].Quantity, out["510300.SH"].Quantity)
	assert.Equal(t, "沪深300ETF", out["510300.SH"].Name)

	// human-readable UTF-8 JSON
	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "沪深300ETF")
}

func TestFileStore_KeyIsAuthoritative(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"159915.SZ": {"name": "创业板ETF", "quantity": 200}}`), 0o644))

	h, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "159915.SZ", h["159915.SZ"].Code)
}

func TestFileStore_Corrupt(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{not json`), 0o644))

	_, err := s.Load(context.Background())
	assert.Error(t, err)
}

func TestFileStore_SetRemove(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	h, err := s.Set(ctx, contracts.Position{Code: "510300.sh", Name: "沪深300ETF", Quantity: 100, AvgPrice: 4})
	require.NoError(t, err)
	require.Contains(t, h, "510300.SH")
	assert.Equal(t, time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC), h["510300.SH"].UpdatedAt)

	// update keeps the stored name
	h, err = s.Set(ctx, contracts.Position{Code: "510300.SH", Quantity: 300, AvgPrice: 4.1})
	require.NoError(t, err)
	assert.Equal(t, "沪深300ETF", h["510300.SH"].Name)
	assert.Equal(t, int64(300), h["510300.SH"].Quantity)

	_, err = s.Set(ctx, contracts.Position{Code: "510300.SH", Quantity: -1})
	assert.Error(t, err)
	_, err = s.Set(ctx, contracts.Position{})
	assert.Error(t, err)

	h, removed, err := s.Remove(ctx, "510300.SH")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, h)

	_, removed, err = s.Remove(ctx, "510300.SH")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFileStore_CanceledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Save(ctx, contracts.Holdings{}), context.Canceled)
}

func ranked(codes ...string) []contracts.RankedResult {
	out := make([]contracts.RankedResult, len(codes))
	for i, c := range codes {
		out[i] = contracts.RankedResult{
			Rank:       i + 1,
			TotalScore: float64(len(codes) - i),
			Result: contracts.InstrumentResult{
				Instrument:   contracts.Instrument{Code: c, Name: c},
				CurrentPrice: 2,
			},
		}
	}
	return out
}

func TestReviewHoldings(t *testing.T) {
	h := contracts.Holdings{
		"A.SH": {Code: "A.SH", Quantity: 100, AvgPrice: 1.6},
		"C.SH": {Code: "C.SH", Quantity: 100},
		"X.SZ": {Code: "X.SZ", Quantity: 100, AvgPrice: 1},
	}
	suggestions := []contracts.OrderSuggestion{{Code: "A.SH"}, {Code: "B.SZ"}}

	review := ReviewHoldings(h, ranked("A.SH", "B.SZ", "C.SH"), suggestions)

	require.Len(t, review.Items, 3)
	assert.Equal(t, "A.SH", review.Items[0].Position.Code)
	assert.Equal(t, ActionKeep, review.Items[0].Action)
	assert.InDelta(t, 25.0, review.Items[0].PnLPct.OrZero(), 1e-9)

	assert.Equal(t, "C.SH", review.Items[1].Position.Code)
	assert.Equal(t, ActionReduce, review.Items[1].Action)
	assert.Equal(t, 3, review.Items[1].Rank)
	assert.False(t, review.Items[1].PnLPct.Valid(), "no avg price, no pnl")

	assert.Equal(t, "X.SZ", review.Items[2].Position.Code)
	assert.Equal(t, ActionUnrated, review.Items[2].Action)

	require.Len(t, review.ToBuy, 1)
	assert.Equal(t, "B.SZ", review.ToBuy[0].Code)

	assert.Equal(t, 1, review.Count(ActionReduce))
}

func TestReviewHoldings_Empty(t *testing.T) {
	review := ReviewHoldings(contracts.Holdings{}, ranked("A.SH"), []contracts.OrderSuggestion{{Code: "A.SH"}})

	assert.Empty(t, review.Items)
	assert.Len(t, review.ToBuy, 1)
}
