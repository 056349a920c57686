package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfrating/internal/pricedata"
	"github.com/wonny/etfrating/internal/rating"
	"github.com/wonny/etfrating/internal/universe"
)

// pricesCmd represents the prices command
var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "일봉 저장소 관리",
	Long: `Yahoo 일봉을 Postgres (rating.prices)에 저장합니다.
PROVIDER_SOURCE=db 로 실행하면 rate 명령이 저장된 일봉을 사용합니다.

Example:
  go run ./cmd/etfrating prices sync
  go run ./cmd/etfrating prices sync --days 10 --codes 510300.SH`,
}

// pricesSyncCmd represents the sync subcommand
var pricesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Yahoo → Postgres 일봉 동기화",
	RunE:  runPricesSync,
}

var (
	syncDays    int
	syncCodes   []string
	syncWorkers int
)

func init() {
	rootCmd.AddCommand(pricesCmd)
	pricesCmd.AddCommand(pricesSyncCmd)

	pricesSyncCmd.Flags().IntVar(&syncDays, "days", 0, "조회 기간(일) (기본: lookback 전체)")
	pricesSyncCmd.Flags().StringSliceVar(&syncCodes, "codes", nil, "동기화할 코드 (기본: 전체 유니버스)")
	pricesSyncCmd.Flags().IntVar(&syncWorkers, "workers", 0, "동시 작업 수 (기본: RATING_CONCURRENCY)")
}

func runPricesSync(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := a.database(ctx)
	if err != nil {
		return err
	}

	source, err := a.yahooClient(ctx)
	if err != nil {
		return err
	}

	target := a.universe
	if len(syncCodes) > 0 {
		var unknown []string
		target, unknown = universe.Filter(a.universe, syncCodes)
		for _, code := range unknown {
			PrintWarning(fmt.Sprintf("%s: 유니버스에 없는 코드", code))
		}
	}

	days := syncDays
	if days <= 0 {
		days = rating.CalendarDays(a.strategy.Data.LookbackSessions)
	}
	workers := syncWorkers
	if workers <= 0 {
		workers = a.cfg.Rating.Concurrency
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	PrintTitle("Price Sync")
	PrintKeyValue("Period", from.Format("2006-01-02")+" ~ "+to.Format("2006-01-02"), 12)
	PrintKeyValue("Instruments", fmt.Sprintf("%d", len(target.Instruments)), 12)
	PrintSeparator()

	col := pricedata.NewCollector(source, pricedata.NewRepository(db.Pool), a.log)
	started := time.Now()
	results, err := col.SyncAll(ctx, target.Instruments, from, to, workers)
	if err != nil {
		return err
	}

	var bars, failed int
	for _, r := range results {
		if r.Error != nil {
			failed++
			a.log.WithError(r.Error).WithField("code", r.Code).Debug("Sync failed")
			continue
		}
		bars += r.PriceCount
	}

	fmt.Fprintln(out)
	PrintSuccess(fmt.Sprintf("%d bars stored for %d instruments in %.1fs", bars, len(results)-failed, time.Since(started).Seconds()))
	if failed > 0 {
		PrintWarning(fmt.Sprintf("%d instruments failed (run with -v for details)", failed))
	}
	return nil
}
