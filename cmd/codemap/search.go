package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codemap-dev/codemap/internal/engine"
	"github.com/codemap-dev/codemap/internal/toolserver"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find symbols by exact name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(nil)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	e, err := engine.New(dbPath, repoRoot)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer e.Close()

	nodes, err := e.GraphQuery(0).FindByName(args[0], nil, "")
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	syms := make([]toolserver.Symbol, len(nodes))
	for i, n := range nodes {
		syms[i] = toolserver.ToSymbol(n)
	}

	total := len(syms)
	result := CLIResult{Command: "search", Results: syms, TotalCount: &total}
	return outputResult(result, flagFormat)
}
