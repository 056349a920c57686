package pricedata_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/pricedata"
	"github.com/wonny/etfrating/pkg/database/databasetest"
)

func TestRepository_RoundTrip(t *testing.T) {
	db := databasetest.Start(t)
	repo := pricedata.NewRepository(db.Pool)
	ctx := context.Background()

	d := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	series := &contracts.PriceSeries{Code: "510300.SH", Bars: []contracts.Bar{
		{Date: d, Open: 3.9, High: 3.98, Low: 3.88, Close: 3.96, Volume: 1000},
		{Date: d.AddDate(0, 0, 1), Open: 3.95, High: 4.02, Low: 3.93, Close: 4.0, Volume: 1100},
	}}

	n, err := repo.SavePrices(ctx, series)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// upsert overwrites
	series.Bars[1].Close = 4.01
	_, err = repo.SavePrices(ctx, series)
	require.NoError(t, err)

	got, err := repo.FetchSeries(ctx, "510300.SH", d.AddDate(0, 0, -5), d.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.NoError(t, got.Validate())
	assert.InDelta(t, 4.01, got.Bars[1].Close, 1e-9)
	assert.Equal(t, int64(1100), got.Bars[1].Volume)

	latest, err := repo.LatestDate(ctx, "510300.SH")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03", latest.Format("2006-01-02"))
}

func TestRepository_NoData(t *testing.T) {
	db := databasetest.Start(t)
	repo := pricedata.NewRepository(db.Pool)
	ctx := context.Background()

	_, err := repo.FetchSeries(ctx, "159999.SZ", time.Now().AddDate(-1, 0, 0), time.Now())
	assert.ErrorIs(t, err, contracts.ErrNoData)

	_, err = repo.LatestDate(ctx, "159999.SZ")
	assert.ErrorIs(t, err, contracts.ErrNoData)
}
