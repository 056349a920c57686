package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfrating/internal/api"
	"github.com/wonny/etfrating/internal/api/handlers"
	"github.com/wonny/etfrating/internal/execution"
	"github.com/wonny/etfrating/internal/pricedata"
	"github.com/wonny/etfrating/internal/scheduler"
	"github.com/wonny/etfrating/internal/scheduler/jobs"
	"github.com/wonny/etfrating/internal/selection"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "스케줄러 + 조회 API + 메트릭 서버",
	Long: `RATING_SCHEDULE 에 맞춰 레이팅을 실행하고 결과를 HTTP로 제공합니다.
PROVIDER_SOURCE=db 이면 레이팅 전에 일봉 동기화 작업도 등록합니다.

Endpoints:
  GET  /health                 - Health check
  GET  /api/ratings/latest     - 최근 순위 (?limit=50)
  GET  /api/suggestions        - 최근 지정가 제안
  GET  /api/jobs               - 스케줄 작업 통계
  POST /api/jobs/{name}/run    - 작업 즉시 실행
  GET  /metrics                - Prometheus 메트릭

Example:
  go run ./cmd/etfrating serve
  go run ./cmd/etfrating serve --port 8089 --run-now`,
	RunE: runServe,
}

var (
	servePort   string
	serveRunNow bool
	serveNoCSV  bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT)")
	serveCmd.Flags().BoolVar(&serveRunNow, "run-now", false, "시작 직후 레이팅 1회 실행")
	serveCmd.Flags().BoolVar(&serveNoCSV, "no-csv", false, "CSV 저장 생략")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Rating pipeline
	pl, err := a.pipeline(ctx, pipelineOptions{
		exportCSV: !serveNoCSV,
		persist:   a.cfg.Rating.Persist,
	})
	if err != nil {
		return err
	}

	// 2. Scheduler
	sched := scheduler.New(a.log).WithJobTimeout(time.Hour)
	if err := sched.AddJob(jobs.NewRatingJob(pl, a.cfg.Rating.Schedule, a.log)); err != nil {
		return err
	}

	if a.cfg.Provider.Source == "db" {
		yc, err := a.yahooClient(ctx)
		if err != nil {
			return err
		}
		db, err := a.database(ctx)
		if err != nil {
			return err
		}
		col := pricedata.NewCollector(yc, pricedata.NewRepository(db.Pool), a.log)
		if err := sched.AddJob(jobs.NewPriceSyncJob(col, a.universe, 10, a.cfg.Rating.Concurrency, a.log)); err != nil {
			return err
		}
	}

	// 3. API (stored results are the fallback until the first run of this process)
	var rankings handlers.RankingReader
	var suggestions handlers.SuggestionReader
	if a.db != nil {
		rankings = selection.NewRepository(a.db.Pool)
		suggestions = execution.NewRepository(a.db.Pool)
	}

	routes := api.Routes{
		Ratings: handlers.NewRatingHandler(pl, rankings, suggestions, a.log),
		Jobs:    handlers.NewJobsHandler(sched, a.log),
	}
	if a.metrics != nil {
		routes.Metrics = a.metrics.Handler()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(routes, a.log))

	// 4. Start
	sched.Start()
	if serveRunNow {
		if err := sched.RunJob("rating"); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintTitle("ETF Rating Server")
	PrintKeyValue("Listen", "http://localhost"+server.Addr(), 10)
	for _, name := range sched.GetAllJobs() {
		next, _ := sched.NextRun(name)
		PrintKeyValue(name, next.Format("2006-01-02 15:04:05"), 10)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			sched.Stop()
			return err
		}
	}

	a.log.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("Server shutdown failed")
	}
	sched.Stop()

	a.log.Info("Server stopped")
	return nil
}
