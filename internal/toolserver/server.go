package toolserver

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with every navigation tool registered
// against svc, mirroring onedusk-pd's NewCodeIntelMCPServer.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codemap",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "context",
		Description: "Rank symbols relevant to a free-text description of a coding task, for seeding an agent's context window.",
	}, svc.Context)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Find symbols by exact name.",
	}, svc.Search)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "callers",
		Description: "List the symbols that call the named symbol.",
	}, svc.Callers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "callees",
		Description: "List the symbols the named symbol calls.",
	}, svc.Callees)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "implementations",
		Description: "List the symbols that implement the named interface or trait.",
	}, svc.Implementations)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "impact",
		Description: "Compute the transitive closure of callers, referencers and subtypes of a symbol, bounded by depth.",
	}, svc.Impact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "diff-impact",
		Description: "Compute the impact closure of every symbol overlapping a changed line range in a file.",
	}, svc.DiffImpact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "path",
		Description: "Find the shortest call path between two symbols.",
	}, svc.Path)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "hierarchy",
		Description: "Return the ancestor and descendant type closure of a symbol via extends/implements edges.",
	}, svc.Hierarchy)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "unused",
		Description: "List non-public functions, methods and classes with no incoming references.",
	}, svc.Unused)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "definition",
		Description: "Return a symbol's declaration metadata and source text.",
	}, svc.Definition)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "file",
		Description: "List every symbol declared in a file.",
	}, svc.File)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "references",
		Description: "List every incoming edge of any kind onto a symbol.",
	}, svc.References)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "node",
		Description: "Return full metadata for one symbol.",
	}, svc.Node)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reindex",
		Description: "Re-extract the given files, or the whole repository if none are given, and re-run the resolver.",
	}, svc.Reindex)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Report the number of indexed files, symbols, edges and unresolved references.",
	}, svc.Status)

	return server
}

// RunStdio serves the MCP tools over stdio, for an editor or CLI agent
// launching codemap as a subprocess (§6 "a stdio transport").
func RunStdio(ctx context.Context, svc *Service) error {
	server := NewServer(svc)
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP tools over streamable HTTP at addr (§6 "an HTTP
// transport for networked deployments"), shutting down gracefully when ctx
// is cancelled.
func RunHTTP(ctx context.Context, svc *Service, addr string) error {
	server := NewServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
