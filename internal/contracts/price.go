package contracts

import (
	"fmt"
	"time"
)

// Instrument is an entry of the rating universe
type Instrument struct {
	Code string `json:"code" yaml:"code"` // venue-qualified code, e.g. 159915.SZ
	Name string `json:"name" yaml:"name"`
}

// Bar is one daily OHLCV observation
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is the daily price history of one instrument, ordered by date.
// ⭐ SSOT: 가격 데이터 공급자 → 코어 전달
type PriceSeries struct {
	Code string `json:"code"`
	Bars []Bar  `json:"bars"`
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Validate checks that dates are strictly increasing
func (s *PriceSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("%w: %s bar %d (%s) not after %s", ErrInvalidSeries, s.Code, i,
				s.Bars[i].Date.Format("2006-01-02"), s.Bars[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Tail returns a series holding only the last n bars (shares the backing array)
func (s *PriceSeries) Tail(n int) *PriceSeries {
	if n <= 0 || n >= len(s.Bars) {
		return s
	}
	return &PriceSeries{Code: s.Code, Bars: s.Bars[len(s.Bars)-n:]}
}

// Closes returns the close column
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column
func (s *PriceSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column
func (s *PriceSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// LastDate returns the date of the most recent bar
func (s *PriceSeries) LastDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}
