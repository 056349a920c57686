package yahoo

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/etfrating/internal/contracts"
)

// chartResponse mirrors /v8/finance/chart. Missing observations arrive as null.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol       string `json:"symbol"`
		Currency     string `json:"currency"`
		GMTOffset    int64  `json:"gmtoffset"`
		ExchangeName string `json:"exchangeName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// parseChart converts a chart payload into a validated daily series.
// Rows with a missing OHLC value are dropped; a repeated date keeps its last row.
func parseChart(code string, resp *chartResponse) (*contracts.PriceSeries, error) {
	if e := resp.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w: %s", code, contracts.ErrNoData, e.Description)
		}
		return nil, fmt.Errorf("%s: chart error %s: %s", code, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", code, contracts.ErrNoData)
	}

	r := resp.Chart.Result[0]
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", code, contracts.ErrNoData)
	}
	q := r.Indicators.Quote[0]

	byDate := make(map[time.Time]contracts.Bar, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		open, ok1 := at(q.Open, i)
		high, ok2 := at(q.High, i)
		low, ok3 := at(q.Low, i)
		cls, ok4 := at(q.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}

		var volume int64
		if i < len(q.Volume) && q.Volume[i] != nil {
			volume = *q.Volume[i]
		}

		// exchange-local calendar day
		local := time.Unix(ts+r.Meta.GMTOffset, 0).UTC()
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

		byDate[date] = contracts.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cls,
			Volume: volume,
		}
	}

	if len(byDate) == 0 {
		return nil, fmt.Errorf("%s: %w", code, contracts.ErrNoData)
	}

	bars := make([]contracts.Bar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return &contracts.PriceSeries{Code: code, Bars: bars}, nil
}

func at(col []*float64, i int) (float64, bool) {
	if i >= len(col) || col[i] == nil {
		return 0, false
	}
	return *col[i], true
}
