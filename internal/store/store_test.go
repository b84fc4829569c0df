package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrate_TablesExist(t *testing.T) {
	s := newTestStore(t)
	for _, table := range []string{"files", "nodes", "edges", "unresolved_references", "schema_meta"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestUpsertFile_InsertedThenUnchanged(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Truncate(time.Second)

	tx, err := s.BeginTx()
	require.NoError(t, err)
	id, state, err := UpsertFile(tx, "a.go", "go", "hash1", now)
	require.NoError(t, err)
	assert.Equal(t, FileInserted, state)
	require.NoError(t, tx.Commit())

	tx2, err := s.BeginTx()
	require.NoError(t, err)
	id2, state2, err := UpsertFile(tx2, "a.go", "go", "hash1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, FileUnchanged, state2)
	assert.Equal(t, id, id2)
	require.NoError(t, tx2.Commit())

	f, err := s.FileByPath("a.go")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.WithinDuration(t, now, f.LastIndexed, time.Second)
}

func TestUpsertFile_ReplacedStaleCascades(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.BeginTx()
	require.NoError(t, err)
	fileID, _, err := UpsertFile(tx, "a.go", "go", "hash1", time.Now())
	require.NoError(t, err)

	fileNodeID, err := InsertNode(tx, &Node{Kind: KindFile, Name: "a.go", FilePath: "a.go", StartLine: 1, EndLine: 10, Language: "go", Visibility: VisibilityPublic})
	require.NoError(t, err)
	fnID, err := InsertNode(tx, &Node{Kind: KindFunction, Name: "Foo", FilePath: "a.go", StartLine: 2, EndLine: 4, Language: "go", Visibility: VisibilityPublic})
	require.NoError(t, err)
	require.NoError(t, InsertEdge(tx, &Edge{Kind: EdgeContains, SourceID: fileNodeID, TargetID: fnID, FilePath: "a.go", Line: 2}))
	require.NoError(t, tx.Commit())
	_ = fileID

	tx2, err := s.BeginTx()
	require.NoError(t, err)
	_, state, err := UpsertFile(tx2, "a.go", "go", "hash2", time.Now())
	require.NoError(t, err)
	assert.Equal(t, FileReplacedStale, state)
	require.NoError(t, tx2.Commit())

	nodes, err := s.NodesByFile("a.go")
	require.NoError(t, err)
	assert.Empty(t, nodes, "stale nodes must be cascade-deleted")

	var edgeCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM edges`).Scan(&edgeCount))
	assert.Zero(t, edgeCount, "edges referencing deleted nodes must be gone")
}

func TestInsertEdge_IdempotentOnDuplicate(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.BeginTx()
	require.NoError(t, err)
	a, err := InsertNode(tx, &Node{Kind: KindFunction, Name: "a", FilePath: "x.go", StartLine: 1, EndLine: 2, Language: "go", Visibility: VisibilityPublic})
	require.NoError(t, err)
	b, err := InsertNode(tx, &Node{Kind: KindFunction, Name: "b", FilePath: "x.go", StartLine: 3, EndLine: 4, Language: "go", Visibility: VisibilityPublic})
	require.NoError(t, err)

	require.NoError(t, InsertEdge(tx, &Edge{Kind: EdgeCalls, SourceID: a, TargetID: b, FilePath: "x.go", Line: 1}))
	require.NoError(t, InsertEdge(tx, &Edge{Kind: EdgeCalls, SourceID: a, TargetID: b, FilePath: "x.go", Line: 1}))
	require.NoError(t, tx.Commit())

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM edges WHERE source_id=? AND target_id=? AND kind=?`, a, b, string(EdgeCalls)).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDeleteFile_CascadesNodesEdgesUnresolved(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.BeginTx()
	require.NoError(t, err)
	_, _, err = UpsertFile(tx, "a.go", "go", "h", time.Now())
	require.NoError(t, err)
	fileNode, err := InsertNode(tx, &Node{Kind: KindFile, Name: "a.go", FilePath: "a.go", StartLine: 1, EndLine: 5, Language: "go", Visibility: VisibilityPublic})
	require.NoError(t, err)
	fn, err := InsertNode(tx, &Node{Kind: KindFunction, Name: "Foo", FilePath: "a.go", StartLine: 2, EndLine: 3, Language: "go", Visibility: VisibilityPublic})
	require.NoError(t, err)
	require.NoError(t, InsertEdge(tx, &Edge{Kind: EdgeContains, SourceID: fileNode, TargetID: fn, FilePath: "a.go", Line: 2}))
	_, err = InsertUnresolved(tx, &UnresolvedRef{SourceNodeID: fn, ReferenceName: "Bar", ReferenceKind: EdgeCalls, FilePath: "a.go", Line: 2})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, s.DeleteFile("a.go"))

	f, err := s.FileByPath("a.go")
	require.NoError(t, err)
	assert.Nil(t, f)

	nodes, err := s.NodesByFile("a.go")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	refs, _, err := s.UnresolvedPage(0, 10)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestQueryNodesByName_FiltersKindAndLanguage(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.BeginTx()
	require.NoError(t, err)
	_, err = InsertNode(tx, &Node{Kind: KindFunction, Name: "foo", FilePath: "a.go", StartLine: 1, EndLine: 2, Language: "go", Visibility: VisibilityPublic})
	require.NoError(t, err)
	_, err = InsertNode(tx, &Node{Kind: KindClass, Name: "foo", FilePath: "a.py", StartLine: 1, EndLine: 2, Language: "python", Visibility: VisibilityPublic})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	nodes, err := s.QueryNodesByName("foo", []NodeKind{KindFunction}, "")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "a.go", nodes[0].FilePath)

	nodes, err = s.QueryNodesByName("foo", nil, "python")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "a.py", nodes[0].FilePath)
}

func TestUnresolvedPage_Pagination(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.BeginTx()
	require.NoError(t, err)
	fn, err := InsertNode(tx, &Node{Kind: KindFunction, Name: "a", FilePath: "a.go", StartLine: 1, EndLine: 2, Language: "go", Visibility: VisibilityPublic})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := InsertUnresolved(tx, &UnresolvedRef{SourceNodeID: fn, ReferenceName: "x", ReferenceKind: EdgeCalls, FilePath: "a.go", Line: i})
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	page1, cursor1, err := s.UnresolvedPage(0, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotZero(t, cursor1)

	page2, cursor2, err := s.UnresolvedPage(cursor1, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotZero(t, cursor2)

	page3, cursor3, err := s.UnresolvedPage(cursor2, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Zero(t, cursor3)
}
