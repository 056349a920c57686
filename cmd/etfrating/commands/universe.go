package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/etfrating/internal/report"
	"github.com/wonny/etfrating/internal/universe"
	"github.com/wonny/etfrating/pkg/logger"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "평가 대상 ETF 목록",
}

var universeListCmd = &cobra.Command{
	Use:   "list",
	Short: "유니버스 출력 (카테고리 필터 가능)",
	Long: `유니버스를 출력합니다.

Example:
  go run ./cmd/etfrating universe list
  go run ./cmd/etfrating universe list --category 跨境QDII`,
	RunE: runUniverseList,
}

var universeCategory string

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeListCmd)

	universeListCmd.Flags().StringVar(&universeCategory, "category", "", "카테고리 이름 (宽基指数, 行业主题, 跨境QDII, 商品债券)")
}

func runUniverseList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	u, err := universe.Load(cfg.UniverseFile)
	if err != nil {
		return err
	}

	var category *report.Category
	if universeCategory != "" {
		for i := range report.DefaultCategories {
			if report.DefaultCategories[i].Name == universeCategory {
				category = &report.DefaultCategories[i]
			}
		}
		if category == nil {
			return fmt.Errorf("unknown category %q", universeCategory)
		}
	}

	PrintTitle(fmt.Sprintf("Universe · %s (%d)", u.Name, u.Count()))
	widths := []int{4, 11, 4, 24}
	PrintTableHeader([]string{"#", "Code", "Mkt", "Name"}, widths)

	n := 0
	for _, inst := range u.Instruments {
		if category != nil && !category.Matches(inst.Name) {
			continue
		}
		n++
		PrintTableRow([]string{strconv.Itoa(n), inst.Code, universe.Venue(inst.Code), inst.Name}, widths)
	}

	log.WithField("shown", n).Debug("Universe listed")
	return nil
}
