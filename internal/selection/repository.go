package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/etfrating/internal/contracts"
)

// Repository handles rating result persistence
// ⭐ SSOT: 레이팅 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RunRecord is the header row of one batch run
type RunRecord struct {
	RunID      string
	RunDate    time.Time
	ConfigHash string
	Universe   int
	Ranked     int
	Excluded   map[string]string
	Duration   time.Duration
	CreatedAt  time.Time
}

// SaveRun stores the run header
func (r *Repository) SaveRun(ctx context.Context, run RunRecord) error {
	query := `
		INSERT INTO rating.runs (
			run_id, run_date, config_hash, universe_size, ranked_count, excluded, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO NOTHING
	`

	// pgx encodes map[string]string as jsonb
	_, err := r.pool.Exec(ctx, query,
		run.RunID, run.RunDate, run.ConfigHash, run.Universe, run.Ranked,
		run.Excluded, run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// SaveRankingResults replaces the ranking of a date
func (r *Repository) SaveRankingResults(ctx context.Context, runID string, date time.Time, ranked []contracts.RankedResult) error {
	// Begin transaction
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Delete existing results for the date
	_, err = tx.Exec(ctx, "DELETE FROM rating.ranking_results WHERE rank_date = $1", date)
	if err != nil {
		return fmt.Errorf("failed to delete old results: %w", err)
	}

	rows := make([][]interface{}, 0, len(ranked))
	for _, rr := range ranked {
		res := rr.Result
		rows = append(rows, []interface{}{
			runID, date, rr.Code(), rr.Name(), rr.Rank, rr.TotalScore,
			res.CurrentPrice, res.PriceChangePct,
			nullable(res.Factors.Momentum), nullable(res.Raw.Volatility), nullable(res.Raw.Sharpe),
			nullable(res.Factors.TrendQuality), nullable(res.Raw.ATR),
			nullable(rr.Normalized.Momentum), nullable(rr.Normalized.Volatility),
			nullable(rr.Normalized.Sharpe), nullable(rr.Normalized.TrendQuality),
		})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"rating", "ranking_results"},
		[]string{
			"run_id", "rank_date", "code", "name", "rank", "total_score",
			"current_price", "price_change_pct",
			"momentum", "volatility", "sharpe", "trend_quality", "atr",
			"z_momentum", "z_volatility", "z_sharpe", "z_trend_quality",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ranking results: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RankingRow is a stored ranking line
type RankingRow struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Rank         int             `json:"rank"`
	TotalScore   float64         `json:"total_score"`
	CurrentPrice float64         `json:"current_price"`
	ChangePct    float64         `json:"price_change_pct"`
	Momentum     contracts.Value `json:"momentum"`
	Volatility   contracts.Value `json:"volatility"`
	Sharpe       contracts.Value `json:"sharpe"`
	TrendQuality contracts.Value `json:"trend_quality"`
	ATR          contracts.Value `json:"atr"`
}

// RowFromRanked builds the stored line of an in-memory ranked result
func RowFromRanked(rr contracts.RankedResult) RankingRow {
	res := rr.Result
	return RankingRow{
		Code:         rr.Code(),
		Name:         rr.Name(),
		Rank:         rr.Rank,
		TotalScore:   rr.TotalScore,
		CurrentPrice: res.CurrentPrice,
		ChangePct:    res.PriceChangePct,
		Momentum:     res.Factors.Momentum,
		Volatility:   res.Raw.Volatility,
		Sharpe:       res.Raw.Sharpe,
		TrendQuality: res.Factors.TrendQuality,
		ATR:          res.Raw.ATR,
	}
}

// LatestRankDate returns the most recent stored ranking date.
// contracts.ErrNoData is returned when nothing has been stored yet.
func (r *Repository) LatestRankDate(ctx context.Context) (time.Time, error) {
	var date *time.Time
	err := r.pool.QueryRow(ctx, "SELECT MAX(rank_date) FROM rating.ranking_results").Scan(&date)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest rank date: %w", err)
	}
	if date == nil {
		return time.Time{}, fmt.Errorf("no stored rankings: %w", contracts.ErrNoData)
	}
	return *date, nil
}

// GetRankingResults retrieves ranking results for a date
func (r *Repository) GetRankingResults(ctx context.Context, date time.Time, limit int) ([]RankingRow, error) {
	query := `
		SELECT
			code, name, rank, total_score, current_price, price_change_pct,
			momentum, volatility, sharpe, trend_quality, atr
		FROM rating.ranking_results
		WHERE rank_date = $1
		ORDER BY rank ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking results: %w", err)
	}
	defer rows.Close()

	results := make([]RankingRow, 0)

	for rows.Next() {
		var row RankingRow
		var mom, vol, sharpe, tq, atr *float64
		err := rows.Scan(
			&row.Code, &row.Name, &row.Rank, &row.TotalScore, &row.CurrentPrice, &row.ChangePct,
			&mom, &vol, &sharpe, &tq, &atr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row.Momentum = fromNullable(mom)
		row.Volatility = fromNullable(vol)
		row.Sharpe = fromNullable(sharpe)
		row.TrendQuality = fromNullable(tq)
		row.ATR = fromNullable(atr)

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// nullable maps an undefined value to SQL NULL
func nullable(v contracts.Value) *float64 {
	f, ok := v.Get()
	if !ok {
		return nil
	}
	return &f
}

func fromNullable(p *float64) contracts.Value {
	if p == nil {
		return contracts.None()
	}
	return contracts.Some(*p)
}
