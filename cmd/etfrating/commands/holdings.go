package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/holdings"
	"github.com/wonny/etfrating/internal/report"
	"github.com/wonny/etfrating/pkg/logger"
)

// holdingsCmd represents the holdings command
var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "보유 종목 관리 (etf_holdings.json)",
	Long: `보유 ETF를 JSON 파일로 관리하고 레이팅 결과와 비교합니다.

Example:
  go run ./cmd/etfrating holdings show
  go run ./cmd/etfrating holdings set 510300.SH --qty 1000 --avg 3.95 --name 沪深300ETF
  go run ./cmd/etfrating holdings remove 510300.SH
  go run ./cmd/etfrating holdings review`,
}

var holdingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "보유 종목 출력",
	RunE:  runHoldingsShow,
}

var holdingsSetCmd = &cobra.Command{
	Use:   "set <code>",
	Short: "보유 종목 추가/수정",
	Args:  cobra.ExactArgs(1),
	RunE:  runHoldingsSet,
}

var holdingsRemoveCmd = &cobra.Command{
	Use:   "remove <code>",
	Short: "보유 종목 삭제",
	Args:  cobra.ExactArgs(1),
	RunE:  runHoldingsRemove,
}

var holdingsReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "레이팅 실행 후 보유 종목 점검",
	RunE:  runHoldingsReview,
}

var (
	holdingQty  int64
	holdingAvg  float64
	holdingName string
)

func init() {
	rootCmd.AddCommand(holdingsCmd)
	holdingsCmd.AddCommand(holdingsShowCmd, holdingsSetCmd, holdingsRemoveCmd, holdingsReviewCmd)

	holdingsSetCmd.Flags().Int64Var(&holdingQty, "qty", 0, "보유 수량")
	holdingsSetCmd.Flags().Float64Var(&holdingAvg, "avg", 0, "평균 매입가")
	holdingsSetCmd.Flags().StringVar(&holdingName, "name", "", "표시 이름 (기본: 유니버스 이름)")
}

// holdingsStore opens the holdings file without loading strategy or universe
func holdingsStore() (*holdings.FileStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return holdings.NewFileStore(cfg.HoldingsFile, logger.New(cfg)), nil
}

func runHoldingsShow(cmd *cobra.Command, args []string) error {
	store, err := holdingsStore()
	if err != nil {
		return err
	}

	h, err := store.Load(context.Background())
	if err != nil {
		return err
	}

	printHoldings(store.Path(), h)
	return nil
}

func runHoldingsSet(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	name := holdingName
	if name == "" {
		if inst, ok := a.universe.Lookup(strings.ToUpper(args[0])); ok {
			name = inst.Name
		}
	}

	store := holdings.NewFileStore(a.cfg.HoldingsFile, a.log)
	h, err := store.Set(context.Background(), contracts.Position{
		Code:     args[0],
		Name:     name,
		Quantity: holdingQty,
		AvgPrice: holdingAvg,
	})
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s saved", args[0]))
	printHoldings(store.Path(), h)
	return nil
}

func runHoldingsRemove(cmd *cobra.Command, args []string) error {
	store, err := holdingsStore()
	if err != nil {
		return err
	}

	h, removed, err := store.Remove(context.Background(), args[0])
	if err != nil {
		return err
	}
	if !removed {
		PrintWarning(fmt.Sprintf("%s is not held", args[0]))
		return nil
	}

	PrintSuccess(fmt.Sprintf("%s removed", args[0]))
	printHoldings(store.Path(), h)
	return nil
}

func runHoldingsReview(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := holdings.NewFileStore(a.cfg.HoldingsFile, a.log)
	h, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if len(h) == 0 {
		PrintInfo("보유 종목 없음: " + store.Path())
		return nil
	}

	pl, err := a.pipeline(ctx, pipelineOptions{})
	if err != nil {
		return err
	}
	outcome, err := pl.Run(ctx, nil)
	if outcome == nil {
		return err
	}

	review := holdings.ReviewHoldings(h, outcome.Run.Ranked, outcome.Run.Suggestions)
	printer := report.NewPrinter(out, report.OptionsFromStrategy(a.strategy))
	printer.PrintSuggestions(outcome.Run.Suggestions)
	printer.PrintReview(review)

	fmt.Fprintln(out)
	PrintKeyValue("keep", strconv.Itoa(review.Count(holdings.ActionKeep)), 8)
	PrintKeyValue("reduce", strconv.Itoa(review.Count(holdings.ActionReduce)), 8)
	PrintKeyValue("unrated", strconv.Itoa(review.Count(holdings.ActionUnrated)), 8)
	return err
}

func printHoldings(path string, h contracts.Holdings) {
	PrintTitle("Holdings · " + path)
	if len(h) == 0 {
		PrintInfo("보유 종목 없음")
		return
	}

	codes := h.Codes()
	sort.Strings(codes)

	widths := []int{10, 18, 10, 10, 16}
	PrintTableHeader([]string{"Code", "Name", "Qty", "Avg", "Updated"}, widths)
	for _, code := range codes {
		p := h[code]
		PrintTableRow([]string{
			p.Code,
			p.Name,
			strconv.FormatInt(p.Quantity, 10),
			strconv.FormatFloat(p.AvgPrice, 'f', 3, 64),
			p.UpdatedAt.Format("2006-01-02 15:04"),
		}, widths)
	}
}
