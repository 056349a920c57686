package contracts

import (
	"context"
	"time"
)

// PriceProvider supplies daily price history
// ⭐ SSOT: 가격 데이터 공급자 인터페이스
// Implementations return ErrNoData (possibly wrapped) when the symbol has no data in the window.
type PriceProvider interface {
	FetchSeries(ctx context.Context, code string, from, to time.Time) (*PriceSeries, error)
}

// HoldingsStore loads and saves the current holdings
// ⭐ SSOT: 보유 종목 저장소 인터페이스 (코어 외부 협력자)
type HoldingsStore interface {
	Load(ctx context.Context) (Holdings, error)
	Save(ctx context.Context, holdings Holdings) error
}
