package commands

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/etfrating/internal/strategyconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 확인",
	Long: `환경 설정과 전략 파일을 출력/검증합니다.

Example:
  go run ./cmd/etfrating config show
  go run ./cmd/etfrating config validate strategy.yaml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "적용된 환경 설정과 전략 출력",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [strategy.yaml]",
	Short: "전략 파일 검증 (기본: STRATEGY_FILE)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	strategy, err := strategyconfig.LoadOrDefault(cfg.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return err
	}

	PrintTitle("Environment")
	kv := [][2]string{
		{"ENV", cfg.Env},
		{"PROVIDER_SOURCE", cfg.Provider.Source},
		{"YAHOO_BASE_URL", cfg.Provider.BaseURL},
		{"PROVIDER_RATE_LIMIT", strconv.Itoa(cfg.Provider.RateLimit) + "/s"},
		{"RATING_CONCURRENCY", strconv.Itoa(cfg.Rating.Concurrency)},
		{"RATING_INSTRUMENT_TIMEOUT", cfg.Rating.InstrumentTimeout.String()},
		{"RATING_SCHEDULE", cfg.Rating.Schedule},
		{"RATING_PERSIST", strconv.FormatBool(cfg.Rating.Persist)},
		{"DATABASE_URL", redactURL(cfg.Database.URL)},
		{"REDIS_ENABLED", strconv.FormatBool(cfg.Redis.Enabled)},
		{"METRICS_ENABLED", strconv.FormatBool(cfg.MetricsEnabled)},
		{"STRATEGY_FILE", orDefault(cfg.StrategyFile, "(built-in)")},
		{"UNIVERSE_FILE", orDefault(cfg.UniverseFile, "(built-in)")},
		{"HOLDINGS_FILE", cfg.HoldingsFile},
		{"OUTPUT_DIR", cfg.OutputDir},
	}
	for _, p := range kv {
		PrintKeyValue(p[0], p[1], 26)
	}

	data, err := strategyconfig.Marshal(strategy)
	if err != nil {
		return err
	}
	PrintTitle("Strategy · " + shortID(hash))
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := strategyFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.StrategyFile
	}
	if path == "" {
		PrintInfo("STRATEGY_FILE not set, validating built-in strategy")
	}

	strategy, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	for _, w := range strategyconfig.Warn(strategy) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	hash, _ := strategyconfig.Hash(strategy)
	PrintSuccess(fmt.Sprintf("%s valid (hash %s)", orDefault(path, "built-in strategy"), shortID(hash)))
	return nil
}

// redactURL hides the password of a connection URL
func redactURL(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid)"
	}
	return u.Redacted()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func shortID(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
