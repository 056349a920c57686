package holdings

import (
	"sort"

	"github.com/wonny/etfrating/internal/contracts"
)

// Action is the review verdict of one held instrument
type Action string

const (
	ActionKeep    Action = "keep"    // held and recommended
	ActionReduce  Action = "reduce"  // held, ranked, outside the recommendation list (逢高减仓)
	ActionUnrated Action = "unrated" // held, absent from this run's ranking
)

// ReviewItem is the verdict of one position
type ReviewItem struct {
	Position contracts.Position `json:"position"`
	Action   Action             `json:"action"`
	Rank     int                `json:"rank,omitempty"` // 0 when unrated
	Price    float64            `json:"current_price,omitempty"`
	PnLPct   contracts.Value    `json:"pnl_pct"` // undefined without avg price
}

// Review is the holdings check against one run
type Review struct {
	Items []ReviewItem                `json:"items"`
	ToBuy []contracts.OrderSuggestion `json:"to_buy"` // recommended but not held
}

// ReviewHoldings compares holdings with the ranked table and the order hints.
// Items are ordered by rank, unrated last, then by code.
func ReviewHoldings(h contracts.Holdings, ranked []contracts.RankedResult, suggestions []contracts.OrderSuggestion) Review {
	byCode := make(map[string]contracts.RankedResult, len(ranked))
	for _, r := range ranked {
		byCode[r.Code()] = r
	}
	recommended := make(map[string]bool, len(suggestions))
	for _, s := range suggestions {
		recommended[s.Code] = true
	}

	review := Review{Items: make([]ReviewItem, 0, len(h))}
	for code, p := range h {
		item := ReviewItem{Position: p, Action: ActionUnrated, PnLPct: contracts.None()}

		if r, ok := byCode[code]; ok {
			item.Rank = r.Rank
			item.Price = r.Result.CurrentPrice
			if p.AvgPrice > 0 {
				item.PnLPct = contracts.Some((item.Price/p.AvgPrice - 1) * 100)
			}
			if recommended[code] {
				item.Action = ActionKeep
			} else {
				item.Action = ActionReduce
			}
		}
		review.Items = append(review.Items, item)
	}

	sort.Slice(review.Items, func(i, j int) bool {
		a, b := review.Items[i], review.Items[j]
		if (a.Rank == 0) != (b.Rank == 0) {
			return a.Rank != 0
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.Position.Code < b.Position.Code
	})

	for _, s := range suggestions {
		if _, held := h[s.Code]; !held {
			review.ToBuy = append(review.ToBuy, s)
		}
	}

	return review
}

// Count returns how many items carry the action
func (r Review) Count(a Action) int {
	n := 0
	for _, it := range r.Items {
		if it.Action == a {
			n++
		}
	}
	return n
}
