package contracts

import "time"

// Position is one held instrument
type Position struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	AvgPrice  float64   `json:"avg_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Holdings maps instrument code to position
type Holdings map[string]Position

// Codes returns held codes
func (h Holdings) Codes() []string {
	codes := make([]string, 0, len(h))
	for code := range h {
		codes = append(codes, code)
	}
	return codes
}
