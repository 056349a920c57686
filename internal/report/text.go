package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/holdings"
	"github.com/wonny/etfrating/internal/rating"
	"github.com/wonny/etfrating/internal/strategyconfig"
)

const (
	doubleLine = "════════════════════════════════════════════════════════════════════════════════════════════════════════════════════════"
	singleLine = "────────────────────────────────────────────────────────────────────────────────────────────────────────────────────────"
)

// Options controls what the text report shows
type Options struct {
	TopN        int // rows of the ranking table
	CategoryTop int // rows per category
	MaxWeight   float64
}

// DefaultOptions mirrors the strategy defaults
func DefaultOptions() Options {
	return Options{TopN: 50, CategoryTop: 5, MaxWeight: 35}
}

// OptionsFromStrategy takes the table size from the strategy file
func OptionsFromStrategy(cfg *strategyconfig.Config) Options {
	opts := DefaultOptions()
	if cfg != nil && cfg.Ranking.TopN > 0 {
		opts.TopN = cfg.Ranking.TopN
	}
	return opts
}

// Printer renders a run as a console report
// ⭐ SSOT: 콘솔 리포트 포맷은 여기서만
type Printer struct {
	w    io.Writer
	opts Options
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, opts Options) *Printer {
	return &Printer{w: w, opts: opts}
}

// PrintRun writes the full report of one run
func (p *Printer) PrintRun(run *rating.RunResult) {
	p.PrintHeader(run)
	p.PrintRanking(run.Top(p.opts.TopN))
	p.PrintSummary(Summarize(run.Ranked))
	p.PrintCategories(RankByCategory(run.Ranked, DefaultCategories, p.opts.CategoryTop))
	p.PrintSuggestions(run.Suggestions)
	p.PrintAdvice()
	p.PrintExclusions(run)
}

// PrintHeader writes the run banner
func (p *Printer) PrintHeader(run *rating.RunResult) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, doubleLine)
	fmt.Fprintln(p.w, "  ETF 综合评级排名")
	fmt.Fprintln(p.w, singleLine)
	fmt.Fprintf(p.w, "  Run ID    : %s\n", run.RunID)
	fmt.Fprintf(p.w, "  Date      : %s\n", run.Date.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(p.w, "  Strategy  : %s (%s)\n", run.StrategyID, shortHash(run.ConfigHash))
	fmt.Fprintf(p.w, "  Rated     : %d/%d (%.1f%%)\n", len(run.Ranked), run.Universe, run.SuccessRate()*100)
	fmt.Fprintf(p.w, "  Duration  : %s\n", run.Duration.Round(1e6))
	fmt.Fprintln(p.w, doubleLine)
}

// PrintRanking writes the ranking table
func (p *Printer) PrintRanking(ranked []contracts.RankedResult) {
	fmt.Fprintf(p.w, "\n🏆 综合排名 (前%d):\n", len(ranked))
	fmt.Fprintln(p.w, singleLine)
	fmt.Fprintf(p.w, "%-4s %-12s %-20s %8s %8s %10s %8s %8s %8s %10s\n",
		"#", "Code", "Name", "Price", "Chg", "Score", "Mom", "Vol", "Sharpe", "Trend")
	fmt.Fprintln(p.w, singleLine)

	for _, r := range ranked {
		res := r.Result
		fmt.Fprintf(p.w, "%-4d %-12s %-20s %8.3f %7.2f%% %10.3f %8s %8s %8s %10s\n",
			r.Rank, r.Code(), r.Name(), res.CurrentPrice, res.PriceChangePct*100, r.TotalScore,
			valueCell(res.Factors.Momentum), valueCell(res.Raw.Volatility),
			valueCell(res.Raw.Sharpe), valueCell(res.Factors.TrendQuality))
	}
}

// PrintSummary writes the score distribution
func (p *Printer) PrintSummary(s Summary) {
	if s.Count == 0 {
		return
	}
	fmt.Fprintln(p.w, "\n📈 分布统计:")
	fmt.Fprintf(p.w, "   最高分: %.3f\n", s.Max)
	fmt.Fprintf(p.w, "   最低分: %.3f\n", s.Min)
	fmt.Fprintf(p.w, "   平均分: %.3f\n", s.Mean)
	fmt.Fprintf(p.w, "   中位数: %.3f\n", s.Median)
}

// PrintCategories writes the per-category leaders
func (p *Printer) PrintCategories(categories []CategoryRanking) {
	if len(categories) == 0 {
		return
	}
	fmt.Fprintf(p.w, "\n🏷️  按类别排名 (各类别前%d名):\n", p.opts.CategoryTop)
	fmt.Fprintln(p.w, singleLine)

	for _, c := range categories {
		fmt.Fprintf(p.w, "\n📊 %s (%d只):\n", c.Category, c.Total)
		for i, r := range c.Top {
			fmt.Fprintf(p.w, "   %d. %s - 得分: %.3f (排名: %d)\n", i+1, r.Name(), r.TotalScore, r.Rank)
		}
	}
}

// PrintSuggestions writes the recommended list and limit-order bands
func (p *Printer) PrintSuggestions(suggestions []contracts.OrderSuggestion) {
	if len(suggestions) == 0 {
		return
	}

	fmt.Fprintf(p.w, "\n💡 推荐持仓 (前%d名):\n", len(suggestions))
	for i, s := range suggestions {
		fmt.Fprintf(p.w, "%d. %s (%s)\n", i+1, s.Name, s.Code)
	}

	fmt.Fprintln(p.w, "\n💰 挂单价格建议 (基于ATR波动率):")
	fmt.Fprintln(p.w, singleLine)
	for _, s := range suggestions {
		fmt.Fprintf(p.w, "📈 %s:\n", s.Name)
		fmt.Fprintf(p.w, "   当前价: %.3f\n", s.CurrentPrice)
		if s.Fallback {
			fmt.Fprintf(p.w, "   建议参考价: %.3f - %.3f\n", s.BuyLow, s.BuyHigh)
			continue
		}
		fmt.Fprintf(p.w, "   建议买入区间: %.3f - %.3f\n", s.BuyLow, s.BuyHigh)
		if c, ok := s.BuyConservative.Get(); ok {
			fmt.Fprintf(p.w, "   保守买入价: %.3f\n", c)
		}
		fmt.Fprintf(p.w, "   建议仓位: %.1f%% (等权重)\n", s.PositionWeightPct)
	}
}

// PrintAdvice writes the rebalancing checklist
func (p *Printer) PrintAdvice() {
	fmt.Fprintln(p.w, "\n⚡ 调仓操作建议:")
	for i, line := range AdviceLines(p.opts.MaxWeight) {
		fmt.Fprintf(p.w, "%d. %s\n", i+1, line)
	}
	fmt.Fprintln(p.w, doubleLine)
}

// PrintExclusions writes exclusion counts per reason
func (p *Printer) PrintExclusions(run *rating.RunResult) {
	if len(run.Excluded) == 0 {
		return
	}
	counts := run.ExclusionsByReason()
	parts := make([]string, 0, len(counts))
	for _, reason := range []string{
		rating.ReasonNoData, rating.ReasonInsufficientHistory, rating.ReasonInvalidSeries,
		rating.ReasonTimeout, rating.ReasonCanceled, rating.ReasonProviderError,
	} {
		if n := counts[reason]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
		}
	}
	fmt.Fprintf(p.w, "⚠️  excluded %d: %s\n", len(run.Excluded), strings.Join(parts, " "))
}

// PrintReview writes the holdings check of a run
func (p *Printer) PrintReview(review holdings.Review) {
	if len(review.Items) == 0 {
		fmt.Fprintln(p.w, "\n📂 当前无持仓")
	} else {
		fmt.Fprintf(p.w, "\n📂 持仓检查 (%d只):\n", len(review.Items))
		fmt.Fprintln(p.w, singleLine)
		for _, it := range review.Items {
			rank := "-"
			if it.Rank > 0 {
				rank = fmt.Sprintf("%d", it.Rank)
			}
			pnl := "-"
			if v, ok := it.PnLPct.Get(); ok {
				pnl = fmt.Sprintf("%+.2f%%", v)
			}
			fmt.Fprintf(p.w, "%-10s %-16s 排名:%-5s 盈亏:%-9s %s\n",
				it.Position.Code, it.Position.Name, rank, pnl, reviewLabel(it.Action))
		}
	}

	if len(review.ToBuy) > 0 {
		names := make([]string, 0, len(review.ToBuy))
		for _, s := range review.ToBuy {
			names = append(names, fmt.Sprintf("%s(%s)", s.Name, s.Code))
		}
		fmt.Fprintf(p.w, "🛒 推荐但未持有: %s\n", strings.Join(names, ", "))
	}
}

func reviewLabel(a holdings.Action) string {
	switch a {
	case holdings.ActionKeep:
		return "✅ 继续持有"
	case holdings.ActionReduce:
		return "⚠️  不在推荐列表，考虑逢高减仓"
	default:
		return "❔ 本次未评级"
	}
}

// AdviceLines are the fixed rebalancing rules printed after the suggestions
func AdviceLines(maxWeightPct float64) []string {
	return []string{
		"优先配置排名靠前的ETF",
		"采用等权重分配资金",
		"使用建议价格区间进行限价挂单",
		"如已持仓但不在推荐列表，考虑逢高减仓",
		fmt.Sprintf("建议单只ETF仓位不超过总资金的%.0f%%", maxWeightPct),
	}
}

func valueCell(v contracts.Value) string {
	f, ok := v.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.3f", f)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
