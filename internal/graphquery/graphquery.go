// Package graphquery implements the §4.E graph query engine: every
// traversal reads persisted edges through internal/store's indexed
// lookups, never materialising the full graph. Impact, DiffImpact, Path and
// Hierarchy honour a configurable node-visit cap reported back as a
// truncated flag; Callers, Callees, Implementations and Unused have no
// visit cap and no truncated flag.
package graphquery

import (
	"fmt"
	"sort"

	"github.com/codemap-dev/codemap/internal/store"
)

// DefaultMaxVisits is the visit cap applied when a non-positive value is
// given to New (§4.E "a configurable node-visit cap (default 10 000)").
const DefaultMaxVisits = 10000

// DefaultImpactDepth and DefaultPathDepth are the traversal defaults named
// in §4.E.
const (
	DefaultImpactDepth = 3
	DefaultPathDepth   = 6
)

var impactEdgeKinds = []store.EdgeKind{store.EdgeCalls, store.EdgeReferences, store.EdgeExtends, store.EdgeImplements}
var unusedCandidateKinds = []store.NodeKind{store.KindFunction, store.KindMethod, store.KindClass}
var unusedIncomingKinds = []store.EdgeKind{store.EdgeCalls, store.EdgeReferences, store.EdgeExtends, store.EdgeImplements}

// Engine runs §4.E traversals against one Store.
type Engine struct {
	store     *store.Store
	maxVisits int
}

// New builds an Engine. maxVisits <= 0 selects DefaultMaxVisits.
func New(s *store.Store, maxVisits int) *Engine {
	if maxVisits <= 0 {
		maxVisits = DefaultMaxVisits
	}
	return &Engine{store: s, maxVisits: maxVisits}
}

// DepthNode pairs a node with its minimum discovered depth in a BFS
// closure (§4.E "each node at its minimum discovered depth").
type DepthNode struct {
	Node  *store.Node
	Depth int
}

// ImpactResult is the output of Impact/DiffImpact.
type ImpactResult struct {
	Nodes     []DepthNode
	Truncated bool
}

// PathResult is the output of Path.
type PathResult struct {
	Nodes     []*store.Node
	Found     bool
	Truncated bool
}

// HierarchyDirection labels which way an edge in a HierarchyResult runs
// relative to the queried node.
type HierarchyDirection string

const (
	// DirectionAncestor means the queried node extends/implements this one.
	DirectionAncestor HierarchyDirection = "ancestor"
	// DirectionDescendant means this node extends/implements the queried one.
	DirectionDescendant HierarchyDirection = "descendant"
)

// HierarchyEdge is one node in a hierarchy closure, annotated with
// direction and depth relative to the queried node.
type HierarchyEdge struct {
	Node      *store.Node
	Direction HierarchyDirection
	Depth     int
}

// HierarchyResult is the output of Hierarchy.
type HierarchyResult struct {
	Edges     []HierarchyEdge
	Truncated bool
}

// FindByName looks up symbol nodes by exact name, in (file_path,
// start_line) order (§4.E find_by_name).
func (e *Engine) FindByName(name string, kinds []store.NodeKind, language string) ([]*store.Node, error) {
	return e.store.QueryNodesByName(name, kinds, language)
}

// Callers returns the deduplicated source nodes of every incoming `calls`
// edge into nodeID (§4.E callers).
func (e *Engine) Callers(nodeID int64) ([]*store.Node, error) {
	_, nodes, err := e.store.Neighbours(nodeID, store.DirectionIn, []store.EdgeKind{store.EdgeCalls})
	if err != nil {
		return nil, err
	}
	return dedupe(nodes), nil
}

// Callees returns the deduplicated target nodes of every outgoing `calls`
// edge from nodeID (§4.E callees).
func (e *Engine) Callees(nodeID int64) ([]*store.Node, error) {
	_, nodes, err := e.store.Neighbours(nodeID, store.DirectionOut, []store.EdgeKind{store.EdgeCalls})
	if err != nil {
		return nil, err
	}
	return dedupe(nodes), nil
}

// Implementations returns the nodes whose `implements` edge targets
// nodeID (§4.E implementations: "reverse implements edges").
func (e *Engine) Implementations(nodeID int64) ([]*store.Node, error) {
	_, nodes, err := e.store.Neighbours(nodeID, store.DirectionIn, []store.EdgeKind{store.EdgeImplements})
	if err != nil {
		return nil, err
	}
	return dedupe(nodes), nil
}

// Impact computes the breadth-first closure over incoming calls,
// references, extends and implements edges from origin, bounded at
// maxDepth (§4.E impact). maxDepth <= 0 selects DefaultImpactDepth.
func (e *Engine) Impact(origin int64, maxDepth int) (*ImpactResult, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultImpactDepth
	}
	return e.impactMulti([]int64{origin}, maxDepth)
}

// DiffImpact unions the symbol nodes whose span overlaps [startLine,
// endLine] in filePath into one multi-origin impact closure (§4.E
// diff_impact).
func (e *Engine) DiffImpact(filePath string, startLine, endLine, maxDepth int) (*ImpactResult, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultImpactDepth
	}
	fileNodes, err := e.store.NodesByFile(filePath)
	if err != nil {
		return nil, err
	}
	var origins []int64
	for _, n := range fileNodes {
		if n.Kind == store.KindFile {
			continue
		}
		if n.StartLine <= endLine && n.EndLine >= startLine {
			origins = append(origins, n.ID)
		}
	}
	if len(origins) == 0 {
		return &ImpactResult{}, nil
	}
	return e.impactMulti(origins, maxDepth)
}

func (e *Engine) impactMulti(origins []int64, maxDepth int) (*ImpactResult, error) {
	type frontier struct {
		id    int64
		depth int
	}

	nodesByID := make(map[int64]*store.Node)
	visited := make(map[int64]int)
	var queue []frontier

	for _, o := range origins {
		n, err := e.store.NodeByID(o)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, fmt.Errorf("graphquery: node %d not found", o)
		}
		nodesByID[o] = n
		if d, ok := visited[o]; !ok || d > 0 {
			visited[o] = 0
		}
		queue = append(queue, frontier{id: o, depth: 0})
	}

	truncated := false
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		_, neighbours, err := e.store.Neighbours(cur.id, store.DirectionIn, impactEdgeKinds)
		if err != nil {
			return nil, err
		}
		for _, nn := range neighbours {
			if _, seen := visited[nn.ID]; seen {
				continue
			}
			if len(visited) >= e.maxVisits {
				truncated = true
				continue
			}
			visited[nn.ID] = cur.depth + 1
			nodesByID[nn.ID] = nn
			queue = append(queue, frontier{id: nn.ID, depth: cur.depth + 1})
		}
	}

	out := make([]DepthNode, 0, len(visited))
	for id, d := range visited {
		out = append(out, DepthNode{Node: nodesByID[id], Depth: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Node.ID < out[j].Node.ID
	})
	return &ImpactResult{Nodes: out, Truncated: truncated}, nil
}

// Path finds the shortest directed `calls` path from from to to via BFS,
// bounded at maxDepth (§4.E path). maxDepth <= 0 selects DefaultPathDepth.
func (e *Engine) Path(from, to int64, maxDepth int) (*PathResult, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultPathDepth
	}
	if from == to {
		n, err := e.store.NodeByID(from)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, fmt.Errorf("graphquery: node %d not found", from)
		}
		return &PathResult{Nodes: []*store.Node{n}, Found: true}, nil
	}

	parent := map[int64]int64{from: 0}
	depth := map[int64]int{from: 0}
	queue := []int64{from}
	truncated := false
	found := false

	for len(queue) > 0 && !found {
		cur := queue[0]
		queue = queue[1:]
		if depth[cur] >= maxDepth {
			continue
		}
		_, neighbours, err := e.store.Neighbours(cur, store.DirectionOut, []store.EdgeKind{store.EdgeCalls})
		if err != nil {
			return nil, err
		}
		for _, nn := range neighbours {
			if _, seen := depth[nn.ID]; seen {
				continue
			}
			if len(depth) >= e.maxVisits {
				truncated = true
				continue
			}
			parent[nn.ID] = cur
			depth[nn.ID] = depth[cur] + 1
			if nn.ID == to {
				found = true
				break
			}
			queue = append(queue, nn.ID)
		}
	}

	if !found {
		return &PathResult{Truncated: truncated}, nil
	}

	var ids []int64
	for id := to; ; id = parent[id] {
		ids = append(ids, id)
		if id == from {
			break
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	nodes := make([]*store.Node, 0, len(ids))
	for _, id := range ids {
		n, err := e.store.NodeByID(id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return &PathResult{Nodes: nodes, Found: true, Truncated: truncated}, nil
}

// Hierarchy unions the extends/implements closures in both directions
// from nodeID (§4.E hierarchy): ancestors (nodeID extends/implements X)
// and descendants (Y extends/implements nodeID).
func (e *Engine) Hierarchy(nodeID int64) (*HierarchyResult, error) {
	kinds := []store.EdgeKind{store.EdgeExtends, store.EdgeImplements}
	truncated := false
	var edges []HierarchyEdge

	ancestors, trunc, err := e.closure(nodeID, store.DirectionOut, kinds)
	if err != nil {
		return nil, err
	}
	truncated = truncated || trunc
	for _, dn := range ancestors {
		edges = append(edges, HierarchyEdge{Node: dn.Node, Direction: DirectionAncestor, Depth: dn.Depth})
	}

	descendants, trunc, err := e.closure(nodeID, store.DirectionIn, kinds)
	if err != nil {
		return nil, err
	}
	truncated = truncated || trunc
	for _, dn := range descendants {
		edges = append(edges, HierarchyEdge{Node: dn.Node, Direction: DirectionDescendant, Depth: dn.Depth})
	}

	return &HierarchyResult{Edges: edges, Truncated: truncated}, nil
}

// closure runs an unbounded-depth BFS (still visit-capped) over the given
// edge kinds in one direction, excluding the origin from the result.
func (e *Engine) closure(origin int64, direction store.Direction, kinds []store.EdgeKind) ([]DepthNode, bool, error) {
	type frontier struct {
		id    int64
		depth int
	}
	nodesByID := make(map[int64]*store.Node)
	visited := map[int64]int{origin: 0}
	queue := []frontier{{id: origin, depth: 0}}
	truncated := false

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		_, neighbours, err := e.store.Neighbours(cur.id, direction, kinds)
		if err != nil {
			return nil, false, err
		}
		for _, nn := range neighbours {
			if _, seen := visited[nn.ID]; seen {
				continue
			}
			if len(visited) >= e.maxVisits {
				truncated = true
				continue
			}
			visited[nn.ID] = cur.depth + 1
			nodesByID[nn.ID] = nn
			queue = append(queue, frontier{id: nn.ID, depth: cur.depth + 1})
		}
	}

	out := make([]DepthNode, 0, len(visited))
	for id, d := range visited {
		if id == origin {
			continue
		}
		out = append(out, DepthNode{Node: nodesByID[id], Depth: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Node.ID < out[j].Node.ID
	})
	return out, truncated, nil
}

// Unused returns non-public function/method/class nodes with zero
// incoming calls/references/extends/implements edges (§4.E unused).
func (e *Engine) Unused() ([]*store.Node, error) {
	candidates, err := e.store.NonPublicNodesByKind(unusedCandidateKinds)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	incoming, err := e.store.EdgesByKindInto(unusedIncomingKinds, ids)
	if err != nil {
		return nil, err
	}
	referenced := make(map[int64]bool, len(incoming))
	for _, edge := range incoming {
		referenced[edge.TargetID] = true
	}

	var out []*store.Node
	for _, c := range candidates {
		if !referenced[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func dedupe(nodes []*store.Node) []*store.Node {
	seen := make(map[int64]bool, len(nodes))
	out := make([]*store.Node, 0, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}
