package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/rating"
	"github.com/wonny/etfrating/internal/report"
	"github.com/wonny/etfrating/internal/universe"
	"github.com/wonny/etfrating/pkg/logger"
)

// ErrNoInstruments is returned when a code filter leaves nothing to rate
var ErrNoInstruments = errors.New("no instruments to rate")

// Store persists a finished run
type Store interface {
	SaveRun(ctx context.Context, run *rating.RunResult) error
}

// Outcome is one pipeline execution: the run plus what happened to its outputs
type Outcome struct {
	Run       *rating.RunResult
	Paths     *report.ExportPaths
	Persisted bool
	Unknown   []string // requested codes missing from the universe
}

// Pipeline runs the rating engine over the universe and hands the result
// to the CSV exporter and the result store.
// ⭐ SSOT: rate 명령/스케줄러/API가 공유하는 실행 경로
type Pipeline struct {
	engine   *rating.Engine
	universe *contracts.Universe
	exporter *report.Exporter
	store    Store
	logger   *logger.Logger

	mu     sync.RWMutex
	latest *Outcome
}

// New creates a pipeline without CSV export or persistence
func New(engine *rating.Engine, u *contracts.Universe, log *logger.Logger) *Pipeline {
	return &Pipeline{
		engine:   engine,
		universe: u,
		logger:   log.WithField("module", "pipeline"),
	}
}

// WithExporter enables CSV export
func (p *Pipeline) WithExporter(e *report.Exporter) *Pipeline {
	p.exporter = e
	return p
}

// WithStore enables persistence
func (p *Pipeline) WithStore(s Store) *Pipeline {
	p.store = s
	return p
}

// Universe returns the configured universe
func (p *Pipeline) Universe() *contracts.Universe {
	return p.universe
}

// Run rates the universe, or only the given codes when codes is non-empty.
// Export and persistence failures are returned together with the outcome.
func (p *Pipeline) Run(ctx context.Context, codes []string) (*Outcome, error) {
	target := p.universe
	out := &Outcome{}

	if len(codes) > 0 {
		target, out.Unknown = universe.Filter(p.universe, codes)
		for _, code := range out.Unknown {
			p.logger.WithField("code", code).Warn("Code not in universe, ignored")
		}
	}
	if target == nil || len(target.Instruments) == 0 {
		return nil, ErrNoInstruments
	}

	run, err := p.engine.Run(ctx, target.Instruments)
	if err != nil {
		return nil, fmt.Errorf("rating run: %w", err)
	}
	out.Run = run

	p.mu.Lock()
	p.latest = out
	p.mu.Unlock()

	var errs []error

	if p.exporter != nil && len(run.Ranked) == 0 {
		p.logger.Warn("Nothing ranked, CSV export skipped")
	} else if p.exporter != nil {
		paths, err := p.exporter.Export(run.Ranked)
		if err != nil {
			errs = append(errs, fmt.Errorf("export csv: %w", err))
		} else {
			out.Paths = &paths
			p.logger.WithFields(map[string]interface{}{
				"complete": paths.Complete,
				"top":      paths.Top,
			}).Info("CSV exported")
		}
	}

	if p.store != nil {
		if err := p.store.SaveRun(ctx, run); err != nil {
			errs = append(errs, fmt.Errorf("persist run: %w", err))
		} else {
			out.Persisted = true
			p.logger.WithField("run_id", run.RunID).Info("Run persisted")
		}
	}

	return out, errors.Join(errs...)
}

// Latest returns the most recent outcome of this process, or nil
func (p *Pipeline) Latest() *Outcome {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}
