package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Postgres 스키마 적용 (rating.*)",
	Long: `내장 SQL 마이그레이션을 순서대로 적용합니다. 이미 적용된 파일은 건너뜁니다.

Example:
  DATABASE_URL=postgres://... go run ./cmd/etfrating migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := a.database(ctx)
	if err != nil {
		return err
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		PrintInfo("schema is up to date")
		return nil
	}
	for _, name := range applied {
		PrintSuccess(fmt.Sprintf("applied %s", name))
	}
	return nil
}
