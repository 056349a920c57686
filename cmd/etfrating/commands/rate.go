package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/etfrating/internal/holdings"
	"github.com/wonny/etfrating/internal/pipeline"
	"github.com/wonny/etfrating/internal/report"
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "ETF 레이팅 1회 실행",
	Long: `유니버스 전체(또는 --codes)를 한 번 평가합니다.

이 명령어는:
- 일봉 시세 조회 (Yahoo 또는 DB, Redis 캐시)
- 지표/팩터 계산 → 횡단면 표준화 → 종합 점수 순위
- 상위 종목 지정가 매수 구간 제안
- CSV 저장 (complete_ratings/, top100_ratings/)
- 보유 종목 점검 (etf_holdings.json)

Example:
  go run ./cmd/etfrating rate
  go run ./cmd/etfrating rate --codes 510300.SH,159915.SZ --no-csv
  go run ./cmd/etfrating rate --persist
  go run ./cmd/etfrating rate --json > run.json`,
	RunE: runRate,
}

var (
	rateCodes   []string
	rateNoCSV   bool
	ratePersist bool
	rateJSON    bool
	rateTop     int
)

func init() {
	rootCmd.AddCommand(rateCmd)

	rateCmd.Flags().StringSliceVar(&rateCodes, "codes", nil, "평가할 코드 (쉼표 구분, 기본: 전체 유니버스)")
	rateCmd.Flags().BoolVar(&rateNoCSV, "no-csv", false, "CSV 저장 생략")
	rateCmd.Flags().BoolVar(&ratePersist, "persist", false, "Postgres 저장 (RATING_PERSIST)")
	rateCmd.Flags().BoolVar(&rateJSON, "json", false, "표 대신 JSON 출력")
	rateCmd.Flags().IntVar(&rateTop, "top", 0, "순위표 행 수 (기본: strategy ranking.top_n)")
}

func runRate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pl, err := a.pipeline(ctx, pipelineOptions{
		exportCSV: !rateNoCSV,
		persist:   ratePersist || a.cfg.Rating.Persist,
	})
	if err != nil {
		return err
	}

	outcome, runErr := pl.Run(ctx, rateCodes)
	if outcome == nil {
		return runErr
	}

	if rateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome.Run); err != nil {
			return fmt.Errorf("encode run: %w", err)
		}
		return runErr
	}

	opts := report.OptionsFromStrategy(a.strategy)
	if rateTop > 0 {
		opts.TopN = rateTop
	}
	printer := report.NewPrinter(out, opts)
	printer.PrintRun(outcome.Run)

	// 보유 종목 점검
	store := holdings.NewFileStore(a.cfg.HoldingsFile, a.log)
	h, err := store.Load(ctx)
	if err != nil {
		a.log.WithError(err).Warn("Holdings not loaded")
	} else if len(h) > 0 {
		printer.PrintReview(holdings.ReviewHoldings(h, outcome.Run.Ranked, outcome.Run.Suggestions))
	}

	printOutputs(outcome)
	return runErr
}

// printOutputs lists where the run was written
func printOutputs(outcome *pipeline.Outcome) {
	fmt.Fprintln(out)
	for _, code := range outcome.Unknown {
		PrintWarning(fmt.Sprintf("%s: 유니버스에 없는 코드", code))
	}
	if outcome.Paths != nil {
		PrintSuccess("完整评级结果已保存到: " + outcome.Paths.Complete)
		PrintSuccess("前100名结果已保存到: " + outcome.Paths.Top)
	}
	if outcome.Persisted {
		PrintSuccess("Postgres 저장 완료 (run_id=" + outcome.Run.RunID + ")")
	}
}
