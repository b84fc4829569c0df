// Package toolserver exposes the engine's operations as MCP tools, mirroring
// onedusk-pd's mcptools package: a Service struct holds the shared
// collaborators and one method per tool matches the
// (ctx, *mcp.CallToolRequest, Input) -> (*mcp.CallToolResult, Output, error)
// signature the MCP Go SDK expects.
package toolserver

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codemap-dev/codemap/internal/codemaperr"
	"github.com/codemap-dev/codemap/internal/engine"
	"github.com/codemap-dev/codemap/internal/graphquery"
	"github.com/codemap-dev/codemap/internal/store"
)

// Service holds the engine backing every tool handler. One Service serves
// one repository's index for the lifetime of the process.
type Service struct {
	engine *engine.Engine
	root   string
}

// NewService builds a Service around an already-open Engine.
func NewService(e *engine.Engine, root string) *Service {
	return &Service{engine: e, root: root}
}

// ToSymbol converts a store.Node to its JSON-friendly rendering, exported
// for the CLI to reuse so the tool surface and the CLI surface never drift.
func ToSymbol(n *store.Node) Symbol {
	return toSymbol(n)
}

func toSymbol(n *store.Node) Symbol {
	return Symbol{
		ID:         n.ID,
		Kind:       string(n.Kind),
		Name:       n.Name,
		FilePath:   n.FilePath,
		StartLine:  n.StartLine,
		EndLine:    n.EndLine,
		Language:   n.Language,
		Visibility: string(n.Visibility),
		Signature:  n.Signature,
		Docstring:  n.Docstring,
	}
}

func toSymbols(nodes []*store.Node) []Symbol {
	out := make([]Symbol, len(nodes))
	for i, n := range nodes {
		out[i] = toSymbol(n)
	}
	return out
}

func toDepthSymbols(nodes []graphquery.DepthNode) []DepthSymbol {
	out := make([]DepthSymbol, len(nodes))
	for i, dn := range nodes {
		out[i] = DepthSymbol{Symbol: toSymbol(dn.Node), Depth: dn.Depth}
	}
	return out
}

func toEdge(e *store.Edge) Edge {
	return Edge{
		Kind:     string(e.Kind),
		SourceID: e.SourceID,
		TargetID: e.TargetID,
		FilePath: e.FilePath,
		Line:     e.Line,
	}
}

// resolveOne looks a symbol up by exact name, requiring exactly one match
// since every navigation tool operates on a single node (§6 tool surface).
// A zero-match name is §7 QueryNotFound: found is false and err is nil, so
// the caller returns an empty result rather than an error. An ambiguous
// name (2+ matches) is a BadRequest: the caller can't pick one, so it's
// surfaced as a structured error instead of silently guessing.
func (s *Service) resolveOne(name string) (node *store.Node, found bool, err error) {
	nodes, err := s.engine.GraphQuery(0).FindByName(name, nil, "")
	if err != nil {
		return nil, false, err
	}
	switch len(nodes) {
	case 0:
		return nil, false, nil
	case 1:
		return nodes[0], true, nil
	default:
		return nil, false, codemaperr.New(codemaperr.BadRequest,
			fmt.Errorf("symbol %q is ambiguous (%d matches); disambiguate by file", name, len(nodes)))
	}
}

// Context ranks symbols relevant to a free-text task description.
func (s *Service) Context(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	nodes, err := s.engine.Context(input.Task, engine.DefaultContextLimit)
	if err != nil {
		return nil, ContextOutput{}, fmt.Errorf("context: %w", err)
	}
	return nil, ContextOutput{Symbols: toSymbols(nodes)}, nil
}

// Search finds symbols by exact name.
func (s *Service) Search(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	nodes, err := s.engine.GraphQuery(0).FindByName(input.Query, nil, "")
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("search: %w", err)
	}
	return nil, SearchOutput{Symbols: toSymbols(nodes)}, nil
}

// Callers returns the symbols that call the named symbol.
func (s *Service) Callers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SymbolInput,
) (*mcp.CallToolResult, SymbolListOutput, error) {
	n, found, err := s.resolveOne(input.Symbol)
	if err != nil {
		return nil, SymbolListOutput{}, err
	}
	if !found {
		return nil, SymbolListOutput{}, nil
	}
	callers, err := s.engine.GraphQuery(0).Callers(n.ID)
	if err != nil {
		return nil, SymbolListOutput{}, fmt.Errorf("callers: %w", err)
	}
	return nil, SymbolListOutput{Symbols: toSymbols(callers)}, nil
}

// Callees returns the symbols the named symbol calls.
func (s *Service) Callees(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SymbolInput,
) (*mcp.CallToolResult, SymbolListOutput, error) {
	n, found, err := s.resolveOne(input.Symbol)
	if err != nil {
		return nil, SymbolListOutput{}, err
	}
	if !found {
		return nil, SymbolListOutput{}, nil
	}
	callees, err := s.engine.GraphQuery(0).Callees(n.ID)
	if err != nil {
		return nil, SymbolListOutput{}, fmt.Errorf("callees: %w", err)
	}
	return nil, SymbolListOutput{Symbols: toSymbols(callees)}, nil
}

// Implementations returns the symbols implementing the named interface/trait.
func (s *Service) Implementations(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SymbolInput,
) (*mcp.CallToolResult, SymbolListOutput, error) {
	n, found, err := s.resolveOne(input.Symbol)
	if err != nil {
		return nil, SymbolListOutput{}, err
	}
	if !found {
		return nil, SymbolListOutput{}, nil
	}
	impls, err := s.engine.GraphQuery(0).Implementations(n.ID)
	if err != nil {
		return nil, SymbolListOutput{}, fmt.Errorf("implementations: %w", err)
	}
	return nil, SymbolListOutput{Symbols: toSymbols(impls)}, nil
}

// Impact computes the blast radius of changing the named symbol.
func (s *Service) Impact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SymbolInput,
) (*mcp.CallToolResult, ImpactOutput, error) {
	n, found, err := s.resolveOne(input.Symbol)
	if err != nil {
		return nil, ImpactOutput{}, err
	}
	if !found {
		return nil, ImpactOutput{}, nil
	}
	result, err := s.engine.GraphQuery(0).Impact(n.ID, 0)
	if err != nil {
		return nil, ImpactOutput{}, fmt.Errorf("impact: %w", err)
	}
	return nil, ImpactOutput{Symbols: toDepthSymbols(result.Nodes), Truncated: result.Truncated}, nil
}

// DiffImpact computes the blast radius of a changed line range.
func (s *Service) DiffImpact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DiffImpactInput,
) (*mcp.CallToolResult, ImpactOutput, error) {
	result, err := s.engine.GraphQuery(0).DiffImpact(input.FilePath, input.StartLine, input.EndLine, 0)
	if err != nil {
		return nil, ImpactOutput{}, fmt.Errorf("diff impact: %w", err)
	}
	return nil, ImpactOutput{Symbols: toDepthSymbols(result.Nodes), Truncated: result.Truncated}, nil
}

// Path finds the shortest call path between two symbols.
func (s *Service) Path(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PathInput,
) (*mcp.CallToolResult, PathOutput, error) {
	from, foundFrom, err := s.resolveOne(input.From)
	if err != nil {
		return nil, PathOutput{}, err
	}
	to, foundTo, err := s.resolveOne(input.To)
	if err != nil {
		return nil, PathOutput{}, err
	}
	if !foundFrom || !foundTo {
		return nil, PathOutput{}, nil
	}
	result, err := s.engine.GraphQuery(0).Path(from.ID, to.ID, 0)
	if err != nil {
		return nil, PathOutput{}, fmt.Errorf("path: %w", err)
	}
	return nil, PathOutput{Symbols: toSymbols(result.Nodes), Found: result.Found, Truncated: result.Truncated}, nil
}

// Hierarchy returns the ancestor and descendant closure of a type symbol.
func (s *Service) Hierarchy(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SymbolInput,
) (*mcp.CallToolResult, HierarchyOutput, error) {
	n, found, err := s.resolveOne(input.Symbol)
	if err != nil {
		return nil, HierarchyOutput{}, err
	}
	if !found {
		return nil, HierarchyOutput{}, nil
	}
	result, err := s.engine.GraphQuery(0).Hierarchy(n.ID)
	if err != nil {
		return nil, HierarchyOutput{}, fmt.Errorf("hierarchy: %w", err)
	}
	out := HierarchyOutput{Truncated: result.Truncated}
	for _, e := range result.Edges {
		sym := toSymbol(e.Node)
		if e.Direction == graphquery.DirectionAncestor {
			out.Ancestors = append(out.Ancestors, sym)
		} else {
			out.Descendants = append(out.Descendants, sym)
		}
	}
	return nil, out, nil
}

// Unused returns non-public symbols with no incoming references.
func (s *Service) Unused(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ UnusedInput,
) (*mcp.CallToolResult, UnusedOutput, error) {
	nodes, err := s.engine.GraphQuery(0).Unused()
	if err != nil {
		return nil, UnusedOutput{}, fmt.Errorf("unused: %w", err)
	}
	return nil, UnusedOutput{Symbols: toSymbols(nodes)}, nil
}

// Definition returns a symbol's declaration and optionally its source text.
func (s *Service) Definition(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DefinitionInput,
) (*mcp.CallToolResult, DefinitionOutput, error) {
	n, found, err := s.resolveOne(input.Symbol)
	if err != nil {
		return nil, DefinitionOutput{}, err
	}
	if !found {
		return nil, DefinitionOutput{}, nil
	}
	source, err := s.readSpan(n.FilePath, n.StartLine, n.EndLine, input.ContextLines)
	if err != nil {
		return nil, DefinitionOutput{}, fmt.Errorf("definition: %w", err)
	}
	return nil, DefinitionOutput{Symbol: toSymbol(n), Source: source}, nil
}

// File returns every symbol declared in a file.
func (s *Service) File(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FileInput,
) (*mcp.CallToolResult, FileOutput, error) {
	nodes, err := s.engine.Store().NodesByFile(input.Path)
	if err != nil {
		return nil, FileOutput{}, fmt.Errorf("file: %w", err)
	}
	var syms []Symbol
	for _, n := range nodes {
		if n.Kind == store.KindFile {
			continue
		}
		syms = append(syms, toSymbol(n))
	}
	return nil, FileOutput{Symbols: syms}, nil
}

// References returns every incoming edge of any kind onto a symbol.
func (s *Service) References(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SymbolInput,
) (*mcp.CallToolResult, ReferencesOutput, error) {
	n, found, err := s.resolveOne(input.Symbol)
	if err != nil {
		return nil, ReferencesOutput{}, err
	}
	if !found {
		return nil, ReferencesOutput{}, nil
	}
	edges, _, err := s.engine.Store().Neighbours(n.ID, store.DirectionIn, nil)
	if err != nil {
		return nil, ReferencesOutput{}, fmt.Errorf("references: %w", err)
	}
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = toEdge(e)
	}
	return nil, ReferencesOutput{Edges: out}, nil
}

// Node returns full metadata for one symbol.
func (s *Service) Node(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SymbolInput,
) (*mcp.CallToolResult, NodeOutput, error) {
	n, found, err := s.resolveOne(input.Symbol)
	if err != nil {
		return nil, NodeOutput{}, err
	}
	if !found {
		return nil, NodeOutput{}, nil
	}
	return nil, NodeOutput{Symbol: toSymbol(n)}, nil
}

// Reindex re-extracts the given files (or the whole tree if none are
// given) and re-runs the resolver.
func (s *Service) Reindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	var stats engine.Stats
	var err error
	if len(input.Files) == 0 {
		stats, err = s.engine.IndexDirectory(ctx, s.root)
	} else {
		stats, err = s.engine.IndexFiles(ctx, s.root, input.Files)
	}
	if err != nil {
		return nil, ReindexOutput{}, fmt.Errorf("reindex: %w", err)
	}
	return nil, ReindexOutput{
		Inserted:  stats.Inserted,
		Unchanged: stats.Unchanged,
		Replaced:  stats.Replaced,
		Errored:   stats.Errored,
		Resolved:  stats.Resolved,
		Pending:   stats.Pending,
	}, nil
}

// Status reports the size of the index.
func (s *Service) Status(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	counts, err := s.engine.Status()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("status: %w", err)
	}
	return nil, StatusOutput{
		Files:      counts.Files,
		Nodes:      counts.Nodes,
		Edges:      counts.Edges,
		Unresolved: counts.Unresolved,
	}, nil
}

// readSpan reads lines [startLine-contextLines, endLine+contextLines] of a
// file relative to the service root, clamped to the file's bounds.
func (s *Service) readSpan(relPath string, startLine, endLine, contextLines int) (string, error) {
	content, err := os.ReadFile(joinRoot(s.root, relPath))
	if err != nil {
		return "", err
	}
	lines := splitLines(content)

	from := startLine - contextLines
	if from < 1 {
		from = 1
	}
	to := endLine + contextLines
	if to > len(lines) {
		to = len(lines)
	}
	if from > to {
		return "", nil
	}
	var out []byte
	for i := from; i <= to; i++ {
		out = append(out, lines[i-1]...)
		out = append(out, '\n')
	}
	return string(out), nil
}
