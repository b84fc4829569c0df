package engine

import (
	"sort"
	"strings"
	"unicode"

	"github.com/codemap-dev/codemap/internal/store"
)

// DefaultContextLimit caps how many symbols Context returns absent an
// explicit limit.
const DefaultContextLimit = 20

// Context ranks symbols relevant to a free-text task description (§6
// `context` tool): a token-overlap score against each symbol's name,
// signature and docstring, then an impact-style expansion that pulls in
// the direct callers of the top-ranked hits, since a task usually touches
// not just the named symbol but its immediate neighbourhood. This is
// deliberately simple -- no embeddings, no ML ranking -- since the core's
// Non-goals exclude semantic/type understanding beyond navigation.
func (e *Engine) Context(task string, limit int) ([]*store.Node, error) {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	taskTokens := tokenize(task)
	if len(taskTokens) == 0 {
		return nil, nil
	}

	nodes, err := e.store.AllNodes()
	if err != nil {
		return nil, err
	}

	type scored struct {
		node  *store.Node
		score int
	}
	var candidates []scored
	for _, n := range nodes {
		score := overlapScore(taskTokens, n)
		if score > 0 {
			candidates = append(candidates, scored{node: n, score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].node.ID < candidates[j].node.ID
	})

	seen := make(map[int64]bool)
	var out []*store.Node
	add := func(n *store.Node) bool {
		if seen[n.ID] || n.Kind == store.KindFile {
			return false
		}
		seen[n.ID] = true
		out = append(out, n)
		return len(out) >= limit
	}

	topN := 3
	gq := e.GraphQuery(0)
	for i, c := range candidates {
		if add(c.node) {
			return out, nil
		}
		if i >= topN {
			continue
		}
		callers, err := gq.Callers(c.node.ID)
		if err != nil {
			return nil, err
		}
		for _, caller := range callers {
			if add(caller) {
				return out, nil
			}
		}
	}
	return out, nil
}

// overlapScore counts how many of taskTokens appear in n's name, signature
// or docstring tokens, weighting a name match higher than a docstring
// match.
func overlapScore(taskTokens map[string]bool, n *store.Node) int {
	score := 0
	for tok := range tokenize(n.Name) {
		if taskTokens[tok] {
			score += 3
		}
	}
	for tok := range tokenize(n.Signature) {
		if taskTokens[tok] {
			score++
		}
	}
	for tok := range tokenize(n.Docstring) {
		if taskTokens[tok] {
			score++
		}
	}
	return score
}

// tokenize lower-cases s and splits it on non-alphanumeric runs, also
// splitting camelCase and snake_case identifiers so "HandleRequest" and
// "handle the request" overlap.
func tokenize(s string) map[string]bool {
	if s == "" {
		return nil
	}
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			cur.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	set := make(map[string]bool, len(words))
	for _, w := range words {
		if len(w) > 2 {
			set[w] = true
		}
	}
	return set
}
