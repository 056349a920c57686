package pricedata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/etfrating/internal/contracts"
)

// Repository stores daily bars in rating.prices and serves them back as a PriceProvider
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new price repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FetchSeries implements contracts.PriceProvider over stored bars
func (r *Repository) FetchSeries(ctx context.Context, code string, from, to time.Time) (*contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, open, high, low, close, volume
		FROM rating.prices
		WHERE code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	series := &contracts.PriceSeries{Code: code}
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		series.Bars = append(series.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if series.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", code, contracts.ErrNoData)
	}
	return series, nil
}

// SavePrices upserts all bars of a series
func (r *Repository) SavePrices(ctx context.Context, series *contracts.PriceSeries) (int, error) {
	if series.Len() == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO rating.prices (code, trade_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, b := range series.Bars {
		batch.Queue(query, series.Code, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range series.Bars {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("failed to upsert prices for %s: %w", series.Code, err)
		}
	}

	return series.Len(), nil
}

// LatestDate returns the most recent stored trade date of a code.
// contracts.ErrNoData is returned when the code has no rows.
func (r *Repository) LatestDate(ctx context.Context, code string) (time.Time, error) {
	var date *time.Time
	err := r.pool.QueryRow(ctx, "SELECT MAX(trade_date) FROM rating.prices WHERE code = $1", code).Scan(&date)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest date: %w", err)
	}
	if date == nil {
		return time.Time{}, fmt.Errorf("%s: %w", code, contracts.ErrNoData)
	}
	return *date, nil
}
