package toolserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemap-dev/codemap/internal/codemaperr"
	"github.com/codemap-dev/codemap/internal/engine"
)

// newTestService builds a Service around a freshly indexed fixture
// repository, exercising the handlers against real engine/store state
// rather than mocks.
func newTestService(t *testing.T) *Service {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	e, err := engine.New(dbPath, root)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	writeSrc(t, root, "shapes.go", `package shapes

type Circle struct{}

func (c Circle) Area() float64 { return 0 }

type Square struct{}

func (s Square) Area() float64 { return 0 }
`)
	writeSrc(t, root, "ops.go", `package shapes

func Describe(s Circle) string {
	return report(s)
}

func report(s Circle) string {
	return "shape"
}

func unusedHelper() {}
`)
	// Go's inheritance query is empty (no syntax to capture: interface
	// satisfaction is structural), so implements/extends edges can only be
	// exercised here against a language that has one.
	writeSrc(t, root, "Shapes.java", `
interface Shape {
    double area();
}

class JCircle implements Shape {
    double area() { return 0; }
}

class JSquare implements Shape {
    double area() { return 0; }
}

class Base {
}

class Mid extends Base {
}

class Leaf extends Mid {
}

class Standalone {
}
`)

	_, err = e.IndexDirectory(context.Background(), root)
	require.NoError(t, err)

	return NewService(e, root)
}

func writeSrc(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestContext_RanksSymbolsByTokenOverlap(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Context(context.Background(), nil, ContextInput{Task: "describe a shape"})
	require.NoError(t, err)
	var names []string
	for _, s := range out.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Describe")
}

func TestSearch_FindsExactName(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Search(context.Background(), nil, SearchInput{Query: "Circle"})
	require.NoError(t, err)
	require.Len(t, out.Symbols, 1)
	assert.Equal(t, "Circle", out.Symbols[0].Name)
}

func TestSearch_UnknownNameReturnsEmptyResult(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Search(context.Background(), nil, SearchInput{Query: "NoSuchSymbol"})
	require.NoError(t, err)
	assert.Empty(t, out.Symbols)
}

func TestCallers_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Callers(context.Background(), nil, SymbolInput{Symbol: "report"})
	require.NoError(t, err)
	require.Len(t, out.Symbols, 1)
	assert.Equal(t, "Describe", out.Symbols[0].Name)
}

func TestCallers_NotFoundReturnsEmptyResultNotError(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Callers(context.Background(), nil, SymbolInput{Symbol: "NoSuchSymbol"})
	require.NoError(t, err)
	assert.Empty(t, out.Symbols)
}

func TestCallees_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Callees(context.Background(), nil, SymbolInput{Symbol: "Describe"})
	require.NoError(t, err)
	require.Len(t, out.Symbols, 1)
	assert.Equal(t, "report", out.Symbols[0].Name)
}

func TestImplementations_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Implementations(context.Background(), nil, SymbolInput{Symbol: "Shape"})
	require.NoError(t, err)
	var names []string
	for _, s := range out.Symbols {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"JCircle", "JSquare"}, names)
}

func TestImplementations_AmbiguousNameReturnsBadRequest(t *testing.T) {
	svc := newTestService(t)
	writeSrc(t, svc.root, "dup/a.go", "package dup\nfunc Area() {}\n")
	writeSrc(t, svc.root, "dup/b.go", "package dup\nfunc Area() {}\n")
	_, err := svc.engine.IndexDirectory(context.Background(), svc.root)
	require.NoError(t, err)

	_, _, err = svc.Implementations(context.Background(), nil, SymbolInput{Symbol: "Area"})
	require.Error(t, err)
	assert.True(t, codemaperr.Is(err, codemaperr.BadRequest))
}

func TestImpact_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Impact(context.Background(), nil, SymbolInput{Symbol: "report"})
	require.NoError(t, err)
	var names []string
	for _, s := range out.Symbols {
		names = append(names, s.Symbol.Name)
	}
	assert.Contains(t, names, "Describe")
}

func TestDiffImpact_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.DiffImpact(context.Background(), nil, DiffImpactInput{FilePath: "ops.go", StartLine: 6, EndLine: 8})
	require.NoError(t, err)
	var names []string
	for _, s := range out.Symbols {
		names = append(names, s.Symbol.Name)
	}
	assert.Contains(t, names, "report")
	assert.Contains(t, names, "Describe")
}

func TestPath_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Path(context.Background(), nil, PathInput{From: "Describe", To: "report"})
	require.NoError(t, err)
	require.True(t, out.Found)
	require.Len(t, out.Symbols, 2)
	assert.Equal(t, "Describe", out.Symbols[0].Name)
	assert.Equal(t, "report", out.Symbols[1].Name)
}

func TestPath_UnknownEndpointReturnsEmptyResult(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Path(context.Background(), nil, PathInput{From: "Describe", To: "NoSuchSymbol"})
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Empty(t, out.Symbols)
}

func TestHierarchy_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Hierarchy(context.Background(), nil, SymbolInput{Symbol: "Mid"})
	require.NoError(t, err)
	require.Len(t, out.Ancestors, 1)
	assert.Equal(t, "Base", out.Ancestors[0].Name)
	require.Len(t, out.Descendants, 1)
	assert.Equal(t, "Leaf", out.Descendants[0].Name)
}

func TestHierarchy_NodeWithNoEdgesReturnsEmptyResult(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Hierarchy(context.Background(), nil, SymbolInput{Symbol: "Standalone"})
	require.NoError(t, err)
	assert.Empty(t, out.Ancestors)
	assert.Empty(t, out.Descendants)
}

func TestHierarchy_NotFoundReturnsEmptyResult(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Hierarchy(context.Background(), nil, SymbolInput{Symbol: "NoSuchSymbol"})
	require.NoError(t, err)
	assert.Empty(t, out.Ancestors)
	assert.Empty(t, out.Descendants)
}

func TestUnused_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Unused(context.Background(), nil, UnusedInput{})
	require.NoError(t, err)
	var names []string
	for _, s := range out.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "unusedHelper")
}

func TestDefinition_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Definition(context.Background(), nil, DefinitionInput{Symbol: "report"})
	require.NoError(t, err)
	assert.Equal(t, "report", out.Symbol.Name)
	assert.Contains(t, out.Source, "func report")
}

func TestDefinition_NotFoundReturnsEmptyResult(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Definition(context.Background(), nil, DefinitionInput{Symbol: "NoSuchSymbol"})
	require.NoError(t, err)
	assert.Equal(t, Symbol{}, out.Symbol)
}

func TestFile_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.File(context.Background(), nil, FileInput{Path: "ops.go"})
	require.NoError(t, err)
	var names []string
	for _, s := range out.Symbols {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Describe", "report", "unusedHelper"}, names)
}

func TestReferences_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.References(context.Background(), nil, SymbolInput{Symbol: "report"})
	require.NoError(t, err)
	require.Len(t, out.Edges, 2)
	var kinds []string
	for _, e := range out.Edges {
		kinds = append(kinds, e.Kind)
	}
	assert.ElementsMatch(t, []string{"calls", "contains"}, kinds)
}

func TestNode_HappyPath(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Node(context.Background(), nil, SymbolInput{Symbol: "Circle"})
	require.NoError(t, err)
	assert.Equal(t, "Circle", out.Symbol.Name)
}

func TestNode_NotFoundReturnsEmptyResult(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Node(context.Background(), nil, SymbolInput{Symbol: "NoSuchSymbol"})
	require.NoError(t, err)
	assert.Equal(t, Symbol{}, out.Symbol)
}

func TestReindex_WithoutFilesReindexesWholeTree(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Reindex(context.Background(), nil, ReindexInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Unchanged)
	assert.Equal(t, 0, out.Inserted)
}

func TestReindex_WithFilesReindexesOnlyThose(t *testing.T) {
	svc := newTestService(t)
	writeSrc(t, svc.root, "extra.go", "package shapes\n\nfunc Extra() {}\n")
	_, out, err := svc.Reindex(context.Background(), nil, ReindexInput{Files: []string{"extra.go"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Inserted)
}

func TestStatus_ReportsCounts(t *testing.T) {
	svc := newTestService(t)
	_, out, err := svc.Status(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Files)
	assert.Greater(t, out.Nodes, 3)
}
