package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codemap-dev/codemap/internal/engine"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex [files...]",
	Short: "Re-extract specific files without a fresh directory walk",
	Long:  "Re-extracts the given repo-relative file paths without re-walking the whole tree, then re-runs the resolver. With no paths it walks and re-indexes the whole tree.",
	RunE:  runReindex,
}

func runReindex(cmd *cobra.Command, args []string) error {
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

	var stats engine.Stats
	if len(args) == 0 {
		stats, err = e.IndexDirectory(context.Background(), repoRoot)
	} else {
		stats, err = e.IndexFiles(context.Background(), repoRoot, args)
	}
	if err != nil {
		return fmt.Errorf("reindexing: %w", err)
	}

	result := CLIResult{
		Command: "reindex",
		Results: map[string]int{
			"inserted":  stats.Inserted,
			"unchanged": stats.Unchanged,
			"replaced":  stats.Replaced,
			"errored":   stats.Errored,
			"resolved":  stats.Resolved,
			"pending":   stats.Pending,
		},
	}
	return outputResult(result, flagFormat)
}
