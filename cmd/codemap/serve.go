package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codemap-dev/codemap/internal/engine"
	"github.com/codemap-dev/codemap/internal/toolserver"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve the code intelligence tools over MCP",
	Long:  "Serves every navigation tool over an MCP transport: stdio when --port is unset (for an editor launching codemap as a subprocess), streamable HTTP on 127.0.0.1:<port> otherwise.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "serve over HTTP on this port instead of stdio")
}

func runServe(cmd *cobra.Command, args []string) error {
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

	svc := toolserver.NewService(e, repoRoot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagPort == 0 {
		return toolserver.RunStdio(ctx, svc)
	}
	addr := fmt.Sprintf("127.0.0.1:%d", flagPort)
	fmt.Fprintf(os.Stderr, "Serving codemap tools on %s\n", addr)
	return toolserver.RunHTTP(ctx, svc, addr)
}
