package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/codemap-dev/codemap/internal/engine"
)

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository for semantic analysis",
	Long:  "Walks a directory, parses source files with tree-sitter, writes symbols and edges to the database, and resolves cross-file references.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete the database and reindex from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	e, err := engine.New(dbPath, targetDir)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	defer e.Close()

	stats, err := e.IndexDirectory(context.Background(), targetDir)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Fprintf(os.Stderr,
		"Indexed %s in %s (inserted: %d, unchanged: %d, replaced: %d, errored: %d, resolved: %d, pending: %d)\n",
		targetDir, time.Since(start).Round(time.Millisecond),
		stats.Inserted, stats.Unchanged, stats.Replaced, stats.Errored, stats.Resolved, stats.Pending,
	)
	for _, fe := range stats.FileErrors {
		fmt.Fprintf(os.Stderr, "  %s\n", fe)
	}
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	return nil
}
