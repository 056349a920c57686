package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/pricedata"
	"github.com/wonny/etfrating/internal/scheduler"
	"github.com/wonny/etfrating/pkg/logger"
)

// PriceSyncer copies a price window into the store
type PriceSyncer interface {
	SyncAll(ctx context.Context, instruments []contracts.Instrument, from, to time.Time, workers int) ([]pricedata.SyncResult, error)
}

// PriceSyncJob refreshes stored daily bars before the rating run
type PriceSyncJob struct {
	syncer       PriceSyncer
	universe     *contracts.Universe
	lookbackDays int
	workers      int
	schedule     string
	now          func() time.Time
	logger       *logger.Logger
}

// NewPriceSyncJob creates a new price sync job
func NewPriceSyncJob(syncer PriceSyncer, u *contracts.Universe, lookbackDays, workers int, log *logger.Logger) *PriceSyncJob {
	if lookbackDays <= 0 {
		lookbackDays = 10
	}
	return &PriceSyncJob{
		syncer:       syncer,
		universe:     u,
		lookbackDays: lookbackDays,
		workers:      workers,
		schedule:     "0 5 15 * * 1-5", // 평일 15:05 (장 마감 직후)
		now:          time.Now,
		logger:       log.WithField("job", "price_sync"),
	}
}

// WithSchedule overrides the default schedule
func (j *PriceSyncJob) WithSchedule(schedule string) *PriceSyncJob {
	j.schedule = schedule
	return j
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Schedule returns the cron schedule
func (j *PriceSyncJob) Schedule() string {
	return j.schedule
}

// Run executes the price sync
func (j *PriceSyncJob) Run(ctx context.Context) error {
	to := j.now()
	from := to.AddDate(0, 0, -j.lookbackDays)

	results, err := j.syncer.SyncAll(ctx, j.universe.Instruments, from, to, j.workers)
	if err != nil {
		return fmt.Errorf("price sync failed: %w", err)
	}

	var bars, failed int
	for _, r := range results {
		if r.Error != nil {
			failed++
			continue
		}
		bars += r.PriceCount
	}

	j.logger.WithFields(map[string]interface{}{
		"instruments": len(results),
		"bars":        bars,
		"failed":      failed,
	}).Info("Price sync completed")

	scheduler.Report(ctx, scheduler.RunReport{
		Processed: len(results),
		Succeeded: len(results) - failed,
		Failed:    failed,
		Persisted: bars > 0,
	})

	// 전부 실패하면 재시도
	if len(results) > 0 && failed == len(results) {
		return fmt.Errorf("price sync failed for all %d instruments", failed)
	}
	return nil
}
