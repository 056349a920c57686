package pricedata

import (
	"context"
	"time"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/pkg/logger"
	"github.com/wonny/etfrating/pkg/redis"
)

// CachedProvider serves series from Redis and falls through to the wrapped provider on a miss.
// Errors are never cached. A Redis failure degrades to a direct fetch.
type CachedProvider struct {
	next   contracts.PriceProvider
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps next with a Redis series cache
func NewCachedProvider(next contracts.PriceProvider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	return &CachedProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithField("module", "price_cache"),
	}
}

// FetchSeries implements contracts.PriceProvider
func (p *CachedProvider) FetchSeries(ctx context.Context, code string, from, to time.Time) (*contracts.PriceSeries, error) {
	key := redis.SeriesKey(code, from, to)

	var cached contracts.PriceSeries
	found, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithError(err).WithField("code", code).Warn("Series cache read failed")
	}
	if found && cached.Len() > 0 {
		p.logger.WithField("code", code).Debug("Series cache hit")
		return &cached, nil
	}

	series, err := p.next.FetchSeries(ctx, code, from, to)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, series, p.ttl); err != nil {
		p.logger.WithError(err).WithField("code", code).Warn("Series cache write failed")
	}

	return series, nil
}
