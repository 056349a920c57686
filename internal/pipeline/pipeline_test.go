package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/rating"
	"github.com/wonny/etfrating/internal/report"
	"github.com/wonny/etfrating/internal/strategyconfig"
	"github.com/wonny/etfrating/pkg/logger"
)

type mapProvider map[string]*contracts.PriceSeries

func (m mapProvider) FetchSeries(_ context.Context, code string, _, _ time.Time) (*contracts.PriceSeries, error) {
	if s, ok := m[code]; ok {
		return s, nil
	}
	return nil, contracts.ErrNoData
}

type fakeStore struct {
	runs []*rating.RunResult
	err  error
}

func (s *fakeStore) SaveRun(_ context.Context, run *rating.RunResult) error {
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, run)
	return nil
}

func wave(code string, n int, drift float64) *contracts.PriceSeries {
	day0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := &contracts.PriceSeries{Code: code}
	for i := 0; i < n; i++ {
		c := 10 + float64(i)*drift + 0.5*math.Sin(float64(i)/4)
		s.Bars = append(s.Bars, contracts.Bar{
			Date: day0.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000,
		})
	}
	return s
}

func testUniverse() *contracts.Universe {
	return &contracts.Universe{
		Name: "test",
		Instruments: []contracts.Instrument{
			{Code: "510300.SH", Name: "沪深300ETF"},
			{Code: "159915.SZ", Name: "创业板ETF"},
			{Code: "512880.SH", Name: "证券ETF"},
		},
	}
}

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p := mapProvider{
		"510300.SH": wave("510300.SH", 150, 0.02),
		"159915.SZ": wave("159915.SZ", 150, -0.01),
	}
	engine := rating.NewEngine(p, strategyconfig.Default(), rating.DefaultConfig(), logger.Nop())
	return New(engine, testUniverse(), logger.Nop())
}

func TestRun_ExportAndPersist(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}
	p := newPipeline(t).WithExporter(report.NewExporter(dir)).WithStore(store)

	assert.Nil(t, p.Latest())

	out, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, out.Run.Universe)
	assert.Len(t, out.Run.Ranked, 2)
	assert.Equal(t, rating.ReasonNoData, out.Run.Excluded["512880.SH"].Reason)

	require.NotNil(t, out.Paths)
	_, err = os.Stat(out.Paths.Complete)
	assert.NoError(t, err)
	_, err = os.Stat(out.Paths.Top)
	assert.NoError(t, err)

	assert.True(t, out.Persisted)
	require.Len(t, store.runs, 1)
	assert.Equal(t, out.Run.RunID, store.runs[0].RunID)

	assert.Same(t, out, p.Latest())
}

func TestRun_CodeFilter(t *testing.T) {
	p := newPipeline(t)

	out, err := p.Run(context.Background(), []string{"510300.sh", "000001.SZ"})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Run.Universe)
	assert.Equal(t, []string{"000001.SZ"}, out.Unknown)
	assert.Nil(t, out.Paths)
	assert.False(t, out.Persisted)
}

func TestRun_NoInstruments(t *testing.T) {
	p := newPipeline(t)

	_, err := p.Run(context.Background(), []string{"000001.SZ"})
	assert.ErrorIs(t, err, ErrNoInstruments)
	assert.Nil(t, p.Latest())
}

func TestRun_PersistFailureKeepsOutcome(t *testing.T) {
	p := newPipeline(t).WithStore(&fakeStore{err: errors.New("db down")})

	out, err := p.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	require.NotNil(t, out)
	assert.False(t, out.Persisted)
	assert.Len(t, out.Run.Ranked, 2)
	assert.Same(t, out, p.Latest())
}

func TestRunDate(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	d := runDate(time.Date(2024, 3, 5, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)
}
