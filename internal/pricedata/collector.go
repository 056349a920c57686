package pricedata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/pkg/logger"
)

// PriceWriter persists fetched bars
type PriceWriter interface {
	SavePrices(ctx context.Context, series *contracts.PriceSeries) (int, error)
}

// Collector copies daily history from a remote provider into the price store
// ⭐ SSOT: 가격 수집 오케스트레이션은 여기서만
type Collector struct {
	source contracts.PriceProvider
	store  PriceWriter
	logger *logger.Logger
}

// NewCollector creates a new Collector instance
func NewCollector(source contracts.PriceProvider, store PriceWriter, log *logger.Logger) *Collector {
	return &Collector{
		source: source,
		store:  store,
		logger: log.WithField("module", "collector"),
	}
}

// SyncResult represents the result of one instrument sync
type SyncResult struct {
	Code       string
	PriceCount int
	Error      error
}

// SyncAll fetches and stores the window for every instrument with a bounded worker pool.
// Per-instrument failures are reported in the results, not returned.
func (c *Collector) SyncAll(ctx context.Context, instruments []contracts.Instrument, from, to time.Time, workers int) ([]SyncResult, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("no instruments to sync")
	}
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"instruments": len(instruments),
		"from":        from.Format("2006-01-02"),
		"to":          to.Format("2006-01-02"),
		"workers":     workers,
	}).Info("Starting price collection")

	results := make([]SyncResult, 0, len(instruments))
	resultCh := make(chan SyncResult, len(instruments))
	instCh := make(chan contracts.Instrument, len(instruments))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(ctx, workerID, instCh, resultCh, from, to)
		}(i)
	}

	for _, inst := range instruments {
		instCh <- inst
	}
	close(instCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	successCount := 0
	failCount := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Error != nil {
			failCount++
		} else {
			successCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  failCount,
		"total":   len(results),
	}).Info("Price collection completed")

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("price collection canceled: %w", err)
	}
	return results, nil
}

func (c *Collector) worker(ctx context.Context, workerID int, instCh <-chan contracts.Instrument, resultCh chan<- SyncResult, from, to time.Time) {
	for inst := range instCh {
		select {
		case <-ctx.Done():
			resultCh <- SyncResult{Code: inst.Code, Error: ctx.Err()}
			continue
		default:
		}

		series, err := c.source.FetchSeries(ctx, inst.Code, from, to)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"code":   inst.Code,
			}).Warn("Failed to fetch prices")
			resultCh <- SyncResult{Code: inst.Code, Error: err}
			continue
		}

		n, err := c.store.SavePrices(ctx, series)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"code":   inst.Code,
			}).Error("Failed to save prices")
			resultCh <- SyncResult{Code: inst.Code, PriceCount: series.Len(), Error: err}
			continue
		}

		c.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"code":   inst.Code,
			"count":  n,
		}).Debug("Stored prices")

		resultCh <- SyncResult{Code: inst.Code, PriceCount: n}
	}
}
