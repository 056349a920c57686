package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile   string
	strategyFile string
	universeFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "etfrating",
	Short: "ETF daily rating engine",
	Long: `ETF Rating CLI

상해/심천 ETF 유니버스를 일봉 기준으로 평가합니다.
모멘텀 · 변동성 · 샤프 · 추세 품질 → 횡단면 표준화 → 종합 점수 순위 → 지정가 매수 구간.

Usage:
  go run ./cmd/etfrating [command]

Examples:
  go run ./cmd/etfrating rate
  go run ./cmd/etfrating rate --codes 510300.SH,159915.SZ --no-csv
  go run ./cmd/etfrating holdings review
  go run ./cmd/etfrating serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (overrides STRATEGY_FILE)")
	rootCmd.PersistentFlags().StringVar(&universeFile, "universe", "", "universe YAML (overrides UNIVERSE_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
