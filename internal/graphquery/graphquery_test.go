package graphquery

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemap-dev/codemap/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertNode(t *testing.T, s *store.Store, path, language string, n *store.Node) int64 {
	t.Helper()
	tx, err := s.BeginTx()
	require.NoError(t, err)
	_, _, err = store.UpsertFile(tx, path, language, path+"-hash", time.Now())
	require.NoError(t, err)
	n.FilePath = path
	n.Language = language
	id, err := store.InsertNode(tx, n)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return id
}

func insertEdge(t *testing.T, s *store.Store, kind store.EdgeKind, sourceID, targetID int64, path string) {
	t.Helper()
	tx, err := s.BeginTx()
	require.NoError(t, err)
	require.NoError(t, store.InsertEdge(tx, &store.Edge{Kind: kind, SourceID: sourceID, TargetID: targetID, FilePath: path, Line: 1}))
	require.NoError(t, tx.Commit())
}

// TestImplementations_ReturnsReverseImplementsEdges grounds §4.E
// implementations: the interface is nodeID, so Implementations walks
// `implements` edges backwards to find every implementing type.
func TestImplementations_ReturnsReverseImplementsEdges(t *testing.T) {
	s := newTestStore(t)
	iface := insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindInterface, Name: "Shape", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})
	circle := insertNode(t, s, "b.go", "go", &store.Node{Kind: store.KindStruct, Name: "Circle", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})
	square := insertNode(t, s, "c.go", "go", &store.Node{Kind: store.KindStruct, Name: "Square", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})
	other := insertNode(t, s, "d.go", "go", &store.Node{Kind: store.KindStruct, Name: "Other", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})

	insertEdge(t, s, store.EdgeImplements, circle, iface, "b.go")
	insertEdge(t, s, store.EdgeImplements, square, iface, "c.go")
	_ = other

	e := New(s, 0)
	impls, err := e.Implementations(iface)
	require.NoError(t, err)
	var names []string
	for _, n := range impls {
		names = append(names, n.Name)
	}
	assert.ElementsMatch(t, []string{"Circle", "Square"}, names)
}

// TestImplementations_NoMatchesReturnsEmpty covers the §4.E QueryNotFound
// disposition: a symbol with no implementors yields an empty slice, not
// an error.
func TestImplementations_NoMatchesReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	iface := insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindInterface, Name: "Shape", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})

	e := New(s, 0)
	impls, err := e.Implementations(iface)
	require.NoError(t, err)
	assert.Empty(t, impls)
}

// TestHierarchy_AncestorsAndDescendants grounds §4.E hierarchy: the
// closure runs both directions over extends/implements, labelling each
// side.
func TestHierarchy_AncestorsAndDescendants(t *testing.T) {
	s := newTestStore(t)
	base := insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindClass, Name: "Base", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})
	mid := insertNode(t, s, "b.go", "go", &store.Node{Kind: store.KindClass, Name: "Mid", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})
	leaf := insertNode(t, s, "c.go", "go", &store.Node{Kind: store.KindClass, Name: "Leaf", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})

	insertEdge(t, s, store.EdgeExtends, mid, base, "b.go")
	insertEdge(t, s, store.EdgeExtends, leaf, mid, "c.go")

	e := New(s, 0)
	res, err := e.Hierarchy(mid)
	require.NoError(t, err)
	assert.False(t, res.Truncated)

	var ancestors, descendants []string
	for _, edge := range res.Edges {
		switch edge.Direction {
		case DirectionAncestor:
			ancestors = append(ancestors, edge.Node.Name)
		case DirectionDescendant:
			descendants = append(descendants, edge.Node.Name)
		}
	}
	assert.Equal(t, []string{"Base"}, ancestors)
	assert.Equal(t, []string{"Leaf"}, descendants)
}

// TestHierarchy_LeafNodeHasNoEdges covers a queried node with neither
// ancestors nor descendants: an empty, non-truncated result.
func TestHierarchy_LeafNodeHasNoEdges(t *testing.T) {
	s := newTestStore(t)
	solo := insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindClass, Name: "Solo", StartLine: 1, EndLine: 1, Visibility: store.VisibilityPublic})

	e := New(s, 0)
	res, err := e.Hierarchy(solo)
	require.NoError(t, err)
	assert.Empty(t, res.Edges)
	assert.False(t, res.Truncated)
}

// TestDiffImpact_UnionsOverlappingSymbolsIntoOneClosure grounds §4.E
// diff_impact: every symbol whose span overlaps the changed line range
// becomes an origin, and their incoming-impact closures are unioned.
func TestDiffImpact_UnionsOverlappingSymbolsIntoOneClosure(t *testing.T) {
	s := newTestStore(t)
	foo := insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindFunction, Name: "foo", StartLine: 1, EndLine: 5, Visibility: store.VisibilityPublic})
	bar := insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindFunction, Name: "bar", StartLine: 7, EndLine: 10, Visibility: store.VisibilityPublic})
	unrelated := insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindFunction, Name: "unrelated", StartLine: 20, EndLine: 25, Visibility: store.VisibilityPublic})
	callsFoo := insertNode(t, s, "b.go", "go", &store.Node{Kind: store.KindFunction, Name: "callsFoo", StartLine: 1, EndLine: 3, Visibility: store.VisibilityPublic})
	callsBar := insertNode(t, s, "c.go", "go", &store.Node{Kind: store.KindFunction, Name: "callsBar", StartLine: 1, EndLine: 3, Visibility: store.VisibilityPublic})
	_ = unrelated

	insertEdge(t, s, store.EdgeCalls, callsFoo, foo, "b.go")
	insertEdge(t, s, store.EdgeCalls, callsBar, bar, "c.go")

	e := New(s, 0)
	res, err := e.DiffImpact("a.go", 1, 10, 0)
	require.NoError(t, err)
	assert.False(t, res.Truncated)

	names := make(map[string]bool)
	for _, dn := range res.Nodes {
		names[dn.Node.Name] = true
	}
	assert.True(t, names["foo"])
	assert.True(t, names["bar"])
	assert.True(t, names["callsFoo"])
	assert.True(t, names["callsBar"])
	assert.False(t, names["unrelated"])
}

// TestDiffImpact_NoOverlappingSymbolsReturnsEmptyResult covers a diff
// range that touches no symbol span (e.g. a comment-only change).
func TestDiffImpact_NoOverlappingSymbolsReturnsEmptyResult(t *testing.T) {
	s := newTestStore(t)
	insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindFunction, Name: "foo", StartLine: 1, EndLine: 5, Visibility: store.VisibilityPublic})

	e := New(s, 0)
	res, err := e.DiffImpact("a.go", 100, 105, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Nodes)
	assert.False(t, res.Truncated)
}

// TestDiffImpact_RespectsMaxDepth confirms the multi-origin BFS still
// bounds at maxDepth the same way Impact's single-origin BFS does.
func TestDiffImpact_RespectsMaxDepth(t *testing.T) {
	s := newTestStore(t)
	changed := insertNode(t, s, "a.go", "go", &store.Node{Kind: store.KindFunction, Name: "changed", StartLine: 1, EndLine: 2, Visibility: store.VisibilityPublic})
	near := insertNode(t, s, "b.go", "go", &store.Node{Kind: store.KindFunction, Name: "near", StartLine: 1, EndLine: 2, Visibility: store.VisibilityPublic})
	far := insertNode(t, s, "c.go", "go", &store.Node{Kind: store.KindFunction, Name: "far", StartLine: 1, EndLine: 2, Visibility: store.VisibilityPublic})

	insertEdge(t, s, store.EdgeCalls, near, changed, "b.go")
	insertEdge(t, s, store.EdgeCalls, far, near, "c.go")

	e := New(s, 0)
	res, err := e.DiffImpact("a.go", 1, 2, 1)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, dn := range res.Nodes {
		names[dn.Node.Name] = true
	}
	assert.True(t, names["changed"])
	assert.True(t, names["near"])
	assert.False(t, names["far"])
}
