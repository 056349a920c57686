package pricedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/pkg/logger"
	"github.com/wonny/etfrating/pkg/redis"
)

type stubProvider struct {
	mu     sync.Mutex
	series map[string]*contracts.PriceSeries
	errs   map[string]error
	calls  map[string]int
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		series: map[string]*contracts.PriceSeries{},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

func (p *stubProvider) FetchSeries(ctx context.Context, code string, from, to time.Time) (*contracts.PriceSeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[code]++
	if err := p.errs[code]; err != nil {
		return nil, err
	}
	if s, ok := p.series[code]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%s: %w", code, contracts.ErrNoData)
}

type memStore struct {
	mu    sync.Mutex
	saved map[string]int
	fail  map[string]bool
}

func (s *memStore) SavePrices(ctx context.Context, series *contracts.PriceSeries) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[series.Code] {
		return 0, errors.New("disk full")
	}
	s.saved[series.Code] = series.Len()
	return series.Len(), nil
}

func testSeries(code string, n int) *contracts.PriceSeries {
	s := &contracts.PriceSeries{Code: code}
	d := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		p := 1 + float64(i)*0.01
		s.Bars = append(s.Bars, contracts.Bar{Date: d.AddDate(0, 0, i), Open: p, High: p + 0.02, Low: p - 0.02, Close: p, Volume: 100})
	}
	return s
}

var (
	testFrom = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testTo   = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
)

func TestCachedProvider_MissThenStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := redis.NewCache(redis.NewFromClient(db), "etf")

	src := newStubProvider()
	src.series["510300.SH"] = testSeries("510300.SH", 3)

	key := "etf:cache:" + redis.SeriesKey("510300.SH", testFrom, testTo)
	payload, err := json.Marshal(src.series["510300.SH"])
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, payload, time.Hour).SetVal("OK")

	p := NewCachedProvider(src, cache, time.Hour, logger.Nop())
	got, err := p.FetchSeries(context.Background(), "510300.SH", testFrom, testTo)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Len())
	assert.Equal(t, 1, src.calls["510300.SH"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedProvider_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := redis.NewCache(redis.NewFromClient(db), "etf")

	want := testSeries("159915.SZ", 4)
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet("etf:cache:" + redis.SeriesKey("159915.SZ", testFrom, testTo)).SetVal(string(payload))

	src := newStubProvider()
	p := NewCachedProvider(src, cache, time.Hour, logger.Nop())

	got, err := p.FetchSeries(context.Background(), "159915.SZ", testFrom, testTo)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Zero(t, src.calls["159915.SZ"], "hit must not reach the source")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := redis.NewCache(redis.NewFromClient(db), "etf")

	key := "etf:cache:" + redis.SeriesKey("159999.SZ", testFrom, testTo)
	mock.ExpectGet(key).RedisNil()

	p := NewCachedProvider(newStubProvider(), cache, time.Hour, logger.Nop())
	_, err := p.FetchSeries(context.Background(), "159999.SZ", testFrom, testTo)

	assert.ErrorIs(t, err, contracts.ErrNoData)
	// no SET expected
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedProvider_RedisDownFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := redis.NewCache(redis.NewFromClient(db), "etf")

	key := "etf:cache:" + redis.SeriesKey("510300.SH", testFrom, testTo)
	// the following SET is unexpected and fails too
	mock.ExpectGet(key).SetErr(errors.New("dial tcp: connection refused"))

	src := newStubProvider()
	src.series["510300.SH"] = testSeries("510300.SH", 2)

	p := NewCachedProvider(src, cache, time.Hour, logger.Nop())
	got, err := p.FetchSeries(context.Background(), "510300.SH", testFrom, testTo)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestCollector_SyncAll(t *testing.T) {
	src := newStubProvider()
	src.series["510300.SH"] = testSeries("510300.SH", 5)
	src.series["159915.SZ"] = testSeries("159915.SZ", 7)
	src.series["512880.SH"] = testSeries("512880.SH", 3)
	src.errs["518880.SH"] = errors.New("HTTP 500")

	store := &memStore{saved: map[string]int{}, fail: map[string]bool{"512880.SH": true}}
	c := NewCollector(src, store, logger.Nop())

	instruments := []contracts.Instrument{
		{Code: "510300.SH"}, {Code: "159915.SZ"}, {Code: "512880.SH"}, {Code: "518880.SH"}, {Code: "159999.SZ"},
	}

	results, err := c.SyncAll(context.Background(), instruments, testFrom, testTo, 3)
	require.NoError(t, err)
	require.Len(t, results, 5)

	byCode := map[string]SyncResult{}
	for _, r := range results {
		byCode[r.Code] = r
	}

	assert.NoError(t, byCode["510300.SH"].Error)
	assert.Equal(t, 5, byCode["510300.SH"].PriceCount)
	assert.Equal(t, 7, store.saved["159915.SZ"])
	assert.Error(t, byCode["512880.SH"].Error)
	assert.Error(t, byCode["518880.SH"].Error)
	assert.ErrorIs(t, byCode["159999.SZ"].Error, contracts.ErrNoData)
}

func TestCollector_Canceled(t *testing.T) {
	src := newStubProvider()
	c := NewCollector(src, &memStore{saved: map[string]int{}}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := c.SyncAll(ctx, []contracts.Instrument{{Code: "510300.SH"}, {Code: "159915.SZ"}}, testFrom, testTo, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 2)
	assert.Zero(t, src.calls["510300.SH"])
}

func TestCollector_Empty(t *testing.T) {
	c := NewCollector(newStubProvider(), &memStore{}, logger.Nop())
	_, err := c.SyncAll(context.Background(), nil, testFrom, testTo, 2)
	assert.Error(t, err)
}
