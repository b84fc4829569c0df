package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codemap-dev/codemap/internal/engine"
	"github.com/codemap-dev/codemap/internal/toolserver"
)

var flagContextLimit int

var contextCmd = &cobra.Command{
	Use:   "context <task>",
	Short: "Rank symbols relevant to a free-text coding task",
	Long:  "Scores every indexed symbol's name, signature and docstring against the task description by token overlap, then expands the top hits with their direct callers.",
	Args:  cobra.ExactArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().IntVar(&flagContextLimit, "limit", engine.DefaultContextLimit, "maximum number of symbols to return")
}

func runContext(cmd *cobra.Command, args []string) error {
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

	nodes, err := e.Context(args[0], flagContextLimit)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}

	syms := make([]toolserver.Symbol, len(nodes))
	for i, n := range nodes {
		syms[i] = toolserver.ToSymbol(n)
	}

	result := CLIResult{Command: "context", Results: syms}
	return outputResult(result, flagFormat)
}
