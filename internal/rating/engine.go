package rating

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/execution"
	"github.com/wonny/etfrating/internal/factors"
	"github.com/wonny/etfrating/internal/indicators"
	"github.com/wonny/etfrating/internal/selection"
	"github.com/wonny/etfrating/internal/strategyconfig"
	"github.com/wonny/etfrating/pkg/logger"
)

// ErrEmptyUniverse is returned when Run is called without instruments
var ErrEmptyUniverse = errors.New("empty universe")

// progressEvery controls how often batch progress is logged
const progressEvery = 20

// Config holds engine configuration
type Config struct {
	Concurrency       int           // Number of concurrent workers
	InstrumentTimeout time.Duration // fetch + compute budget per instrument
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		Concurrency:       4,
		InstrumentTimeout: 45 * time.Second,
	}
}

// Observer receives run telemetry (metrics)
type Observer interface {
	InstrumentDone(outcome string, elapsed time.Duration)
	RunDone(result *RunResult)
}

type nopObserver struct{}

func (nopObserver) InstrumentDone(string, time.Duration) {}
func (nopObserver) RunDone(*RunResult)                   {}

// Engine runs one batch rating pass over a universe.
// Phase 1 (parallel): fetch → indicators → factor sub-scores per instrument.
// Phase 2 (barrier, single goroutine): normalize → rank → order hints.
// ⭐ SSOT: 레이팅 배치 오케스트레이션은 여기서만
type Engine struct {
	provider contracts.PriceProvider
	strategy *strategyconfig.Config
	params   indicators.Params
	scorer   *factors.Scorer
	ranker   *selection.Ranker
	advisor  *execution.Advisor
	config   Config
	observer Observer
	now      func() time.Time
	logger   *logger.Logger
}

// NewEngine creates a new rating engine
func NewEngine(provider contracts.PriceProvider, strategy *strategyconfig.Config, config Config, log *logger.Logger) *Engine {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	return &Engine{
		provider: provider,
		strategy: strategy,
		params:   indicators.ParamsFromConfig(strategy),
		scorer:   factors.NewScorer(factors.WeightsFromConfig(strategy)),
		ranker:   selection.NewRankerFromConfig(strategy, log),
		advisor:  execution.NewAdvisor(execution.AdvisorConfigFromStrategy(strategy), log),
		config:   config,
		observer: nopObserver{},
		now:      time.Now,
		logger:   log.WithField("module", "rating"),
	}
}

// SetObserver attaches run telemetry
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// outcome is what a worker hands back for one instrument
type outcome struct {
	index   int
	result  *contracts.InstrumentResult
	err     error
	elapsed time.Duration
}

// Run rates every instrument and returns the ranked table with order hints.
// Instruments without a usable series are excluded, never fatal.
func (e *Engine) Run(ctx context.Context, instruments []contracts.Instrument) (*RunResult, error) {
	if len(instruments) == 0 {
		return nil, ErrEmptyUniverse
	}

	start := e.now()
	hash, err := strategyconfig.Hash(e.strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	run := &RunResult{
		RunID:      uuid.NewString(),
		Date:       start,
		StrategyID: e.strategy.Meta.StrategyID,
		ConfigHash: hash,
		Universe:   len(instruments),
		Excluded:   make(map[string]Exclusion),
	}

	to := start
	from := to.AddDate(0, 0, -CalendarDays(e.strategy.Data.LookbackSessions))

	e.logger.WithFields(map[string]interface{}{
		"run_id":      run.RunID,
		"instruments": len(instruments),
		"workers":     e.config.Concurrency,
		"from":        from.Format("2006-01-02"),
		"to":          to.Format("2006-01-02"),
	}).Info("Starting rating run")

	// === Phase 1: parallel per-instrument extraction ===
	jobCh := make(chan int, len(instruments))
	outCh := make(chan outcome, len(instruments))

	var wg sync.WaitGroup
	for i := 0; i < e.config.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, workerID, instruments, jobCh, outCh, from, to)
		}(i)
	}

	for i := range instruments {
		jobCh <- i
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(outCh)
	}()

	// slot i belongs to instruments[i]
	slots := make([]*contracts.InstrumentResult, len(instruments))
	done := 0
	for out := range outCh {
		done++
		inst := instruments[out.index]

		kind := "ok"
		if out.err != nil {
			kind = classify(out.err)
			run.Excluded[inst.Code] = Exclusion{Reason: kind, Detail: out.err.Error()}
		} else {
			slots[out.index] = out.result
		}
		e.observer.InstrumentDone(kind, out.elapsed)

		if done%progressEvery == 0 {
			e.logger.WithFields(map[string]interface{}{
				"done":     done,
				"total":    len(instruments),
				"excluded": len(run.Excluded),
			}).Info("Rating progress")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rating run canceled: %w", err)
	}

	// === Phase 2: barrier ===
	results := make([]contracts.InstrumentResult, 0, len(instruments))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	run.Processed = len(results)

	run.Ranked = e.ranker.Rank(results)
	run.Suggestions = e.advisor.Suggest(run.Ranked, e.strategy.Orders.RecommendN)
	run.Duration = e.now().Sub(start)

	e.observer.RunDone(run)

	e.logger.WithFields(map[string]interface{}{
		"run_id":   run.RunID,
		"ranked":   len(run.Ranked),
		"excluded": len(run.Excluded),
		"duration": run.Duration.String(),
	}).Info("Rating run completed")

	return run, nil
}

// worker processes instruments from jobCh
func (e *Engine) worker(ctx context.Context, workerID int, instruments []contracts.Instrument, jobCh <-chan int, outCh chan<- outcome, from, to time.Time) {
	for idx := range jobCh {
		select {
		case <-ctx.Done():
			outCh <- outcome{index: idx, err: ctx.Err()}
			continue
		default:
		}

		started := time.Now()
		result, err := e.Evaluate(ctx, instruments[idx], from, to)
		elapsed := time.Since(started)

		if err != nil {
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"code":   instruments[idx].Code,
			}).Warn("Instrument excluded")
		} else {
			e.logger.WithFields(map[string]interface{}{
				"worker": workerID,
				"code":   instruments[idx].Code,
				"bars":   result.Bars,
			}).Debug("Instrument rated")
		}

		outCh <- outcome{index: idx, result: result, err: err, elapsed: elapsed}
	}
}

// Evaluate fetches one series under the per-instrument timeout and computes
// its raw indicators and factor sub-scores.
func (e *Engine) Evaluate(ctx context.Context, inst contracts.Instrument, from, to time.Time) (*contracts.InstrumentResult, error) {
	if e.config.InstrumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.InstrumentTimeout)
		defer cancel()
	}

	series, err := e.provider.FetchSeries(ctx, inst.Code, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", inst.Code, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", inst.Code, err)
	}

	return e.Score(inst, series)
}

// Score computes the InstrumentResult of an already fetched series
func (e *Engine) Score(inst contracts.Instrument, series *contracts.PriceSeries) (*contracts.InstrumentResult, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", inst.Code, contracts.ErrNoData)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	series = series.Tail(e.strategy.Data.LookbackSessions)
	n := series.Len()
	if n < e.strategy.Data.MinHistory {
		return nil, fmt.Errorf("%s: %w: %d bars < %d", inst.Code, contracts.ErrInsufficientHistory, n, e.strategy.Data.MinHistory)
	}

	current := series.Bars[n-1].Close
	if current <= 0 {
		return nil, fmt.Errorf("%s: %w: non-positive last close %v", inst.Code, contracts.ErrInvalidSeries, current)
	}
	prev := current
	if n >= 2 {
		prev = series.Bars[n-2].Close
	}

	raw := indicators.Extract(series, e.params)

	return &contracts.InstrumentResult{
		Instrument:     inst,
		Bars:           n,
		CurrentPrice:   current,
		PrevClose:      prev,
		PriceChangePct: contracts.PriceChange(current, prev),
		Raw:            raw,
		Factors:        e.scorer.Score(raw),
	}, nil
}

// CalendarDays converts a trading-session lookback into a calendar window
// wide enough to hold it (5 sessions per week plus holiday slack).
func CalendarDays(sessions int) int {
	return sessions*7/5 + 30
}

// classify maps an exclusion error to a reason code
func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, contracts.ErrNoData):
		return ReasonNoData
	case errors.Is(err, contracts.ErrInsufficientHistory):
		return ReasonInsufficientHistory
	case errors.Is(err, contracts.ErrInvalidSeries):
		return ReasonInvalidSeries
	default:
		return ReasonProviderError
	}
}
