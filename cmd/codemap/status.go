package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codemap-dev/codemap/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Report the size of the index",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
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

	counts, err := e.Status()
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	result := CLIResult{
		Command: "status",
		Results: map[string]int{
			"files":      counts.Files,
			"nodes":      counts.Nodes,
			"edges":      counts.Edges,
			"unresolved": counts.Unresolved,
		},
	}
	return outputResult(result, flagFormat)
}
