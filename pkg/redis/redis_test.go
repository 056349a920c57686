package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfrating/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := New(context.Background(), &config.Config{})
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), YahooRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, YahooRateLimit.Limit, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), YahooRateLimit))
}

func TestYahooRateLimitPerSecond(t *testing.T) {
	assert.Equal(t, 5, YahooRateLimitPerSecond(5).Limit)
	assert.Equal(t, YahooRateLimit.Limit, YahooRateLimitPerSecond(0).Limit)
	assert.Equal(t, "yahoo", YahooRateLimitPerSecond(5).Key)
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(context.Background(), &config.Config{})
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(context.Background(), "key", "v", time.Minute))
	assert.NoError(t, cache.Delete(context.Background(), "key"))

	calls := 0
	err = cache.GetOrSet(context.Background(), "key", &result, time.Minute, func() (interface{}, error) {
		calls++
		return "computed", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "computed", result)
	assert.Equal(t, 1, calls)
}

func TestCache_GetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "etf")

	mock.ExpectGet("etf:cache:k").SetVal(`{"close":1.5}`)

	var out struct {
		Close float64 `json:"close"`
	}
	found, err := cache.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1.5, out.Close)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetMissAndError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "etf")

	mock.ExpectGet("etf:cache:missing").RedisNil()
	mock.ExpectGet("etf:cache:broken").SetErr(errors.New("connection reset"))

	var out string
	found, err := cache.Get(context.Background(), "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = cache.Get(context.Background(), "broken", &out)
	assert.Error(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetOrSet_PopulatesOnMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "etf")

	mock.ExpectGet("etf:cache:k").RedisNil()
	mock.ExpectSet("etf:cache:k", []byte(`[1,2,3]`), time.Hour).SetVal("OK")

	var out []int
	err := cache.GetOrSet(context.Background(), "k", &out, time.Hour, func() (interface{}, error) {
		return []int{1, 2, 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetOrSet_FnError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "etf")

	mock.ExpectGet("etf:cache:k").RedisNil()

	var out []int
	err := cache.GetOrSet(context.Background(), "k", &out, time.Hour, func() (interface{}, error) {
		return nil, errors.New("upstream down")
	})
	assert.EqualError(t, err, "upstream down")
}

func TestSeriesKey(t *testing.T) {
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "series:510300.SH:20240102:20250117", SeriesKey("510300.SH", from, to))
}
