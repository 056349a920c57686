package report

import (
	"strings"

	"github.com/wonny/etfrating/internal/contracts"
)

// Category groups instruments whose name contains any keyword
type Category struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// DefaultCategories are the display buckets for the Chinese ETF market.
// An instrument may fall into several buckets (e.g. gold).
var DefaultCategories = []Category{
	{Name: "宽基指数", Keywords: []string{"300", "50", "500", "1000", "创业板", "科创"}},
	{Name: "行业主题", Keywords: []string{"医药", "医疗", "半导体", "芯片", "新能源", "电池", "消费", "酒", "券商", "证券", "银行", "军工", "有色金属", "黄金"}},
	{Name: "跨境QDII", Keywords: []string{"纳指", "标普", "恒生", "港股", "中概", "德国", "日经"}},
	{Name: "商品债券", Keywords: []string{"国债", "黄金", "豆粕", "可转债"}},
}

// CategoryRanking is the best of one category
type CategoryRanking struct {
	Category string                   `json:"category"`
	Total    int                      `json:"total"` // members in this run
	Top      []contracts.RankedResult `json:"top"`   // overall Rank kept
}

// Matches reports whether the instrument name contains a keyword
func (c Category) Matches(name string) bool {
	for _, kw := range c.Keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// RankByCategory returns, per category, the topK members in ranking order.
// Categories without members are omitted.
func RankByCategory(ranked []contracts.RankedResult, categories []Category, topK int) []CategoryRanking {
	out := make([]CategoryRanking, 0, len(categories))

	for _, cat := range categories {
		cr := CategoryRanking{Category: cat.Name}
		// ranked is already in descending score order
		for _, r := range ranked {
			if !cat.Matches(r.Name()) {
				continue
			}
			cr.Total++
			if topK <= 0 || len(cr.Top) < topK {
				cr.Top = append(cr.Top, r)
			}
		}
		if cr.Total > 0 {
			out = append(out, cr)
		}
	}

	return out
}
