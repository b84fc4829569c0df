// Package extract implements the §4.B extraction algorithm: parsing one
// file's bytes into symbol nodes, containment edges, and unresolved
// references, using the query set of whichever language.Language the
// registry resolves for the file's extension.
package extract

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codemap-dev/codemap/internal/lang"
	"github.com/codemap-dev/codemap/internal/store"
)

// Node is one definition discovered in the file, prior to insertion (so it
// has no id yet). Nodes[0] of a Result is always the synthetic file node.
type Node struct {
	Kind       store.NodeKind
	Name       string
	StartLine  int
	EndLine    int
	Visibility store.Visibility
	Signature  string
	Docstring  string
}

// Containment records a contains edge by index into Result.Nodes rather
// than by id, since ids are only assigned once the caller inserts nodes.
type Containment struct {
	ContainerIndex int
	ChildIndex     int
}

// UnresolvedRef is a deferred reference by source node index (§3
// "Unresolved reference"). SourceIndex is always an index into
// Result.Nodes; index 0 (the file node) is used for imports and any
// call/reference the extractor could not attribute to a narrower scope.
type UnresolvedRef struct {
	SourceIndex   int
	ReferenceName string
	ReferenceKind store.EdgeKind
	Line          int
}

// Result is the extractor's output for one file (§4.B contract).
type Result struct {
	Path         string
	Language     string
	Hash         string
	Nodes        []Node
	Containment  []Containment
	Unresolved   []UnresolvedRef
	ParseErrored bool
}

// Extract runs the §4.B algorithm against path's content. If the registry
// has no language for path's extension, it returns an empty record rather
// than an error (§4.A "unknown extensions cause the file to be skipped").
func Extract(reg *lang.Registry, path string, content []byte) (*Result, error) {
	hash := store.Fingerprint(content)
	l, ok := reg.ForFile(path)
	if !ok {
		return &Result{Path: path, Hash: hash}, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(l.Grammar)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	res := &Result{
		Path:         path,
		Language:     l.Name,
		Hash:         hash,
		ParseErrored: root.HasError(),
	}

	// Index 0: synthetic file node (§4.B step 4).
	res.Nodes = append(res.Nodes, Node{
		Kind:       store.KindFile,
		Name:       baseName(path),
		StartLine:  1,
		EndLine:    int(root.EndPoint().Row) + 1,
		Visibility: store.VisibilityPublic,
	})

	seenSpans := make(map[[2]uint32]bool)
	e := &extraction{lang: l, content: content, res: res, seenSpans: seenSpans}

	e.runDefinitions(root)
	e.runContainment()
	e.runCalls(root)
	e.runImports(root)
	e.runInheritance(root)

	return res, nil
}

type extraction struct {
	lang      *lang.Language
	content   []byte
	res       *Result
	seenSpans map[[2]uint32]bool
}

// runDefinitions executes the Definitions query and appends one Node per
// match, deduplicating definitions whose syntax node is matched by more
// than one pattern (e.g. a method also matching a generic function
// pattern) by keeping whichever pattern matched first.
func (e *extraction) runDefinitions(root *sitter.Node) {
	if e.lang.Definitions == nil {
		return
	}
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(e.lang.Definitions, root)

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, e.content)

		var nameNode, wholeNode *sitter.Node
		var kindPrefix string
		for _, cap := range match.Captures {
			capName := e.lang.Definitions.CaptureNameForId(cap.Index)
			if prefix, isName := strings.CutSuffix(capName, ".name"); isName {
				nameNode = cap.Node
				kindPrefix = prefix
			} else {
				wholeNode = cap.Node
				if kindPrefix == "" {
					kindPrefix = capName
				}
			}
		}
		if nameNode == nil || wholeNode == nil {
			continue
		}
		kind, ok := e.lang.DefinitionKinds[kindPrefix]
		if !ok {
			continue
		}
		span := [2]uint32{wholeNode.StartByte(), wholeNode.EndByte()}
		if e.seenSpans[span] {
			continue
		}
		e.seenSpans[span] = true

		vis := e.lang.Visibility(lang.VisibilityInput{
			Name:           nameNode.Content(e.content),
			Modifiers:      e.modifiersOf(wholeNode),
			ExportedParent: e.exportedAncestor(wholeNode),
		})

		e.res.Nodes = append(e.res.Nodes, Node{
			Kind:       kind,
			Name:       nameNode.Content(e.content),
			StartLine:  int(wholeNode.StartPoint().Row) + 1,
			EndLine:    int(wholeNode.EndPoint().Row) + 1,
			Visibility: vis,
			Signature:  firstLine(wholeNode.Content(e.content)),
		})
	}
}

// runContainment derives contains edges structurally from the line spans
// of the already-extracted definitions: each definition's container is
// the smallest other definition whose span strictly encloses it, falling
// back to the synthetic file node (§4.B "When a child symbol is
// discovered without an explicit container, the synthetic file node is
// the container").
func (e *extraction) runContainment() {
	nodes := e.res.Nodes
	for i := 1; i < len(nodes); i++ {
		container := 0
		bestSpan := -1
		for j := 1; j < len(nodes); j++ {
			if i == j {
				continue
			}
			if encloses(nodes[j], nodes[i]) {
				span := nodes[j].EndLine - nodes[j].StartLine
				if bestSpan == -1 || span < bestSpan {
					bestSpan = span
					container = j
				}
			}
		}
		e.res.Containment = append(e.res.Containment, Containment{ContainerIndex: container, ChildIndex: i})
	}
}

func encloses(outer, inner Node) bool {
	if outer.StartLine == inner.StartLine && outer.EndLine == inner.EndLine {
		return false
	}
	return outer.StartLine <= inner.StartLine && outer.EndLine >= inner.EndLine
}

// runCalls executes the Calls query, attributing each call to the
// innermost named enclosing definition (§4.B "Anonymous constructs").
func (e *extraction) runCalls(root *sitter.Node) {
	if e.lang.Calls == nil {
		return
	}
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(e.lang.Calls, root)

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, e.content)
		for _, cap := range match.Captures {
			capName := e.lang.Calls.CaptureNameForId(cap.Index)
			if capName != "call.name" {
				continue
			}
			line := int(cap.Node.StartPoint().Row) + 1
			e.res.Unresolved = append(e.res.Unresolved, UnresolvedRef{
				SourceIndex:   e.enclosingIndex(line),
				ReferenceName: cap.Node.Content(e.content),
				ReferenceKind: store.EdgeCalls,
				Line:          line,
			})
		}
	}
}

// runImports executes the Imports query; the source is always the file
// node (§4.B "the source is the file node").
func (e *extraction) runImports(root *sitter.Node) {
	if e.lang.Imports == nil {
		return
	}
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(e.lang.Imports, root)

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, e.content)
		for _, cap := range match.Captures {
			capName := e.lang.Imports.CaptureNameForId(cap.Index)
			if !strings.HasPrefix(capName, "import.") {
				continue
			}
			line := int(cap.Node.StartPoint().Row) + 1
			e.res.Unresolved = append(e.res.Unresolved, UnresolvedRef{
				SourceIndex:   0,
				ReferenceName: pathTail(stripQuotes(cap.Node.Content(e.content))),
				ReferenceKind: store.EdgeImports,
				Line:          line,
			})
		}
	}
}

// runInheritance executes the Inheritance query (extends/implements).
func (e *extraction) runInheritance(root *sitter.Node) {
	if e.lang.Inheritance == nil {
		return
	}
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(e.lang.Inheritance, root)

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, e.content)
		for _, cap := range match.Captures {
			capName := e.lang.Inheritance.CaptureNameForId(cap.Index)
			prefix, isName := strings.CutSuffix(capName, ".name")
			if !isName {
				continue
			}
			kind, ok := e.lang.InheritanceKind[prefix]
			if !ok {
				continue
			}
			line := int(cap.Node.StartPoint().Row) + 1
			e.res.Unresolved = append(e.res.Unresolved, UnresolvedRef{
				SourceIndex:   e.enclosingIndex(line),
				ReferenceName: cap.Node.Content(e.content),
				ReferenceKind: kind,
				Line:          line,
			})
		}
	}
}

// enclosingIndex returns the index of the smallest definition (excluding
// the file node) whose span contains line, or 0 (the file node) if none
// does.
func (e *extraction) enclosingIndex(line int) int {
	nodes := e.res.Nodes
	best := 0
	bestSpan := -1
	for i := 1; i < len(nodes); i++ {
		n := nodes[i]
		if n.StartLine <= line && line <= n.EndLine {
			span := n.EndLine - n.StartLine
			if bestSpan == -1 || span < bestSpan {
				bestSpan = span
				best = i
			}
		}
	}
	return best
}

// modifiersOf scans a definition's own children (and one level into a
// wrapping "modifiers"/"visibility_modifier" node) for tokens the
// language treats as visibility modifiers (§4.B "scan the definition's
// leading modifiers").
func (e *extraction) modifiersOf(node *sitter.Node) []string {
	if len(e.lang.ModifierKeywords) == 0 {
		return nil
	}
	var mods []string
	var scan func(n *sitter.Node, depth int)
	scan = func(n *sitter.Node, depth int) {
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			t := child.Type()
			if e.lang.ModifierKeywords[t] {
				mods = append(mods, t)
			} else if depth == 0 && (t == "modifiers" || t == "visibility_modifier") {
				scan(child, depth+1)
			}
		}
	}
	scan(node, 0)
	return mods
}

// exportedAncestor reports whether node sits directly under an
// export_statement, within two ancestor levels (covers `export class X`
// and `export default class X`).
func (e *extraction) exportedAncestor(node *sitter.Node) bool {
	if !e.lang.ExportAware {
		return false
	}
	n := node.Parent()
	for i := 0; i < 2 && n != nil; i++ {
		if n.Type() == "export_statement" {
			return true
		}
		n = n.Parent()
	}
	return false
}

func baseName(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx == -1 {
		return path
	}
	return path[idx+1:]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func pathTail(s string) string {
	s = strings.TrimSuffix(s, "/")
	if idx := strings.LastIndexAny(s, "/\\."); idx != -1 && s[idx] != '.' {
		return s[idx+1:]
	}
	if idx := strings.LastIndexAny(s, "/\\"); idx != -1 {
		return s[idx+1:]
	}
	return s
}
