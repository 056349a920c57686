package contracts

import "errors"

var (
	// ErrNoData is the provider's explicit "no data for this symbol/window" signal
	ErrNoData = errors.New("no price data")

	// ErrInvalidSeries means bar dates are not strictly increasing
	ErrInvalidSeries = errors.New("invalid price series")

	// ErrInsufficientHistory means the series is shorter than the minimum history
	ErrInsufficientHistory = errors.New("insufficient price history")
)
