package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/etfrating/internal/contracts"
)

// Repository handles order suggestion persistence
// ⭐ SSOT: 지정가 제안 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new execution repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSuggestions replaces the suggestions of a date
func (r *Repository) SaveSuggestions(ctx context.Context, runID string, date time.Time, suggestions []contracts.OrderSuggestion) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "DELETE FROM rating.order_suggestions WHERE suggest_date = $1", date)
	if err != nil {
		return fmt.Errorf("failed to delete old suggestions: %w", err)
	}

	query := `
		INSERT INTO rating.order_suggestions (
			run_id, suggest_date, rank, code, name, current_price, atr,
			buy_low, buy_high, buy_conservative, fallback, position_weight_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, s := range suggestions {
		_, err := tx.Exec(ctx, query,
			runID, date, s.Rank, s.Code, s.Name, s.CurrentPrice, nullable(s.ATR),
			s.BuyLow, s.BuyHigh, nullable(s.BuyConservative), s.Fallback, s.PositionWeightPct,
		)
		if err != nil {
			return fmt.Errorf("failed to insert suggestion %s: %w", s.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSuggestions retrieves the suggestions of a date
func (r *Repository) GetSuggestions(ctx context.Context, date time.Time) ([]contracts.OrderSuggestion, error) {
	query := `
		SELECT rank, code, name, current_price, atr,
			buy_low, buy_high, buy_conservative, fallback, position_weight_pct
		FROM rating.order_suggestions
		WHERE suggest_date = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]contracts.OrderSuggestion, 0)
	for rows.Next() {
		var s contracts.OrderSuggestion
		var atr, conservative *float64
		if err := rows.Scan(
			&s.Rank, &s.Code, &s.Name, &s.CurrentPrice, &atr,
			&s.BuyLow, &s.BuyHigh, &conservative, &s.Fallback, &s.PositionWeightPct,
		); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		if atr != nil {
			s.ATR = contracts.Some(*atr)
		}
		if conservative != nil {
			s.BuyConservative = contracts.Some(*conservative)
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return suggestions, nil
}

func nullable(v contracts.Value) *float64 {
	f, ok := v.Get()
	if !ok {
		return nil
	}
	return &f
}
