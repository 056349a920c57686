package main

import (
	"os"

	"github.com/wonny/etfrating/cmd/etfrating/commands"
)

// main is the entry point for the etfrating CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/etfrating [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
