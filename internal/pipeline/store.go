package pipeline

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/etfrating/internal/execution"
	"github.com/wonny/etfrating/internal/rating"
	"github.com/wonny/etfrating/internal/selection"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore writes a run to the rating schema
type PostgresStore struct {
	rankings    *selection.Repository
	suggestions *execution.Repository
}

// NewPostgresStore creates a store on an open pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		rankings:    selection.NewRepository(pool),
		suggestions: execution.NewRepository(pool),
	}
}

// SaveRun stores the run header, the ranking of the run date and its order hints
func (s *PostgresStore) SaveRun(ctx context.Context, run *rating.RunResult) error {
	excluded := make(map[string]string, len(run.Excluded))
	for code, ex := range run.Excluded {
		excluded[code] = ex.Reason
	}

	date := runDate(run.Date)

	if err := s.rankings.SaveRun(ctx, selection.RunRecord{
		RunID:      run.RunID,
		RunDate:    date,
		ConfigHash: run.ConfigHash,
		Universe:   run.Universe,
		Ranked:     len(run.Ranked),
		Excluded:   excluded,
		Duration:   run.Duration,
	}); err != nil {
		return err
	}

	if err := s.rankings.SaveRankingResults(ctx, run.RunID, date, run.Ranked); err != nil {
		return err
	}

	return s.suggestions.SaveSuggestions(ctx, run.RunID, date, run.Suggestions)
}

// runDate keeps the local calendar day of the run
func runDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
