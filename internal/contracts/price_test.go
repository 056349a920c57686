package contracts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func series(dates ...time.Time) *PriceSeries {
	s := &PriceSeries{Code: "159915.SZ"}
	for i, d := range dates {
		p := float64(i + 1)
		s.Bars = append(s.Bars, Bar{Date: d, Open: p, High: p + 0.5, Low: p - 0.5, Close: p})
	}
	return s
}

func TestPriceSeries_Validate(t *testing.T) {
	d := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, series(d, d.AddDate(0, 0, 1), d.AddDate(0, 0, 2)).Validate())

	err := series(d, d.AddDate(0, 0, 1), d.AddDate(0, 0, 1)).Validate()
	assert.True(t, errors.Is(err, ErrInvalidSeries))

	err = series(d, d.AddDate(0, 0, -1)).Validate()
	assert.True(t, errors.Is(err, ErrInvalidSeries))
}

func TestPriceSeries_Columns(t *testing.T) {
	d := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	s := series(d, d.AddDate(0, 0, 1), d.AddDate(0, 0, 2))

	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, s.Highs())
	assert.Equal(t, []float64{0.5, 1.5, 2.5}, s.Lows())
	assert.Equal(t, d.AddDate(0, 0, 2), s.LastDate())
}

func TestPriceSeries_Tail(t *testing.T) {
	d := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	s := series(d, d.AddDate(0, 0, 1), d.AddDate(0, 0, 2))

	assert.Equal(t, []float64{2, 3}, s.Tail(2).Closes())
	assert.Equal(t, 3, s.Tail(10).Len())
	assert.Equal(t, 3, s.Tail(0).Len())

	var empty *PriceSeries
	assert.Equal(t, 0, empty.Len())
}

func TestUniverse_Lookup(t *testing.T) {
	u := &Universe{Instruments: []Instrument{
		{Code: "159915.SZ", Name: "创业板ETF"},
		{Code: "510300.SH", Name: "沪深300ETF"},
	}}

	inst, ok := u.Lookup("510300.SH")
	assert.True(t, ok)
	assert.Equal(t, "沪深300ETF", inst.Name)
	assert.False(t, u.Contains("000001.SZ"))
	assert.Equal(t, 2, u.Count())
}
