// Package resolve implements the §4.D resolver: a pure function of the
// store's contents that turns unresolved references into edges where a
// plausible match exists, and otherwise leaves them pending. It replaces
// the teacher's per-language Risor resolution scripts with one
// language-agnostic algorithm, since spec.md §4.D specifies a single
// universal matching rule rather than per-language logic.
package resolve

import (
	"sort"

	"github.com/codemap-dev/codemap/internal/store"
)

const pageSize = 500

// Stats summarizes one resolver pass.
type Stats struct {
	Resolved int
	Pending  int
}

// Run processes every unresolved reference currently in the store,
// promoting each to an edge where §4.D's matching algorithm finds a
// single plausible candidate. It is safe to call repeatedly: resolved
// references are deleted, and a second call against an unchanged store
// does nothing (§4.D "pure function ... running it twice ... yields the
// same store state").
func Run(s *store.Store) (Stats, error) {
	var stats Stats
	cursor := int64(0)
	for {
		refs, next, err := s.UnresolvedPage(cursor, pageSize)
		if err != nil {
			return stats, err
		}
		for _, r := range refs {
			resolved, err := resolveOne(s, r)
			if err != nil {
				return stats, err
			}
			if resolved {
				stats.Resolved++
			} else {
				stats.Pending++
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return stats, nil
}

func resolveOne(s *store.Store, r *store.UnresolvedRef) (bool, error) {
	src, err := s.NodeByID(r.SourceNodeID)
	if err != nil {
		return false, err
	}
	if src == nil {
		// The source node was cascade-deleted since this reference was
		// recorded; it can never resolve.
		return false, s.DeleteUnresolved(r.ID)
	}

	candidates, err := s.QueryNodesByName(r.ReferenceName, kindsFor(r.ReferenceKind), "")
	if err != nil {
		return false, err
	}
	if len(candidates) == 0 {
		return false, nil
	}

	pool := sameFile(candidates, src.FilePath)
	if len(pool) == 0 {
		pool = sameLanguage(candidates, src.Language)
	}
	if len(pool) == 0 {
		pool = candidates
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })

	var target *store.Node
	switch {
	case len(pool) == 1:
		target = pool[0]
	default:
		if pub := solePublicAmongNonPublic(pool); pub != nil {
			target = pub
		}
	}
	if target == nil {
		return false, nil
	}

	tx, err := s.BeginTx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if err := store.InsertEdge(tx, &store.Edge{
		Kind:     r.ReferenceKind,
		SourceID: r.SourceNodeID,
		TargetID: target.ID,
		FilePath: r.FilePath,
		Line:     r.Line,
	}); err != nil {
		return false, err
	}
	if err := store.DeleteUnresolvedTx(tx, r.ID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// kindsFor maps a reference kind to the symbol kinds eligible as a match
// (§4.D step 1). nil means any kind is eligible.
func kindsFor(k store.EdgeKind) []store.NodeKind {
	switch k {
	case store.EdgeCalls:
		return []store.NodeKind{store.KindFunction, store.KindMethod}
	case store.EdgeExtends:
		return []store.NodeKind{store.KindClass, store.KindTrait, store.KindInterface}
	case store.EdgeImplements:
		return []store.NodeKind{store.KindInterface, store.KindTrait}
	default:
		return nil
	}
}

func sameFile(nodes []*store.Node, path string) []*store.Node {
	var out []*store.Node
	for _, n := range nodes {
		if n.FilePath == path {
			out = append(out, n)
		}
	}
	return out
}

func sameLanguage(nodes []*store.Node, language string) []*store.Node {
	var out []*store.Node
	for _, n := range nodes {
		if n.Language == language {
			out = append(out, n)
		}
	}
	return out
}

// solePublicAmongNonPublic implements the ambiguity tie-break (§4.D step
// 3): a single public candidate wins over an otherwise ambiguous tier
// only if every other candidate in the tier is private or unknown.
func solePublicAmongNonPublic(pool []*store.Node) *store.Node {
	var public *store.Node
	publicCount := 0
	for _, n := range pool {
		switch n.Visibility {
		case store.VisibilityPublic:
			publicCount++
			public = n
		case store.VisibilityPrivate, store.VisibilityUnknown:
		default:
			return nil
		}
	}
	if publicCount == 1 {
		return public
	}
	return nil
}
