package store

import "fmt"

// InsertEdge inserts an edge inside tx. Idempotent on (source_id, target_id,
// kind) per §3 invariant 2 / §4.C: a repeated extraction of unchanged code
// must not create duplicates.
func InsertEdge(tx *Tx, e *Edge) error {
	_, err := tx.tx.Exec(
		`INSERT INTO edges(kind, source_id, target_id, file_path, line)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source_id, target_id, kind) DO NOTHING`,
		string(e.Kind), e.SourceID, e.TargetID, e.FilePath, e.Line,
	)
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

// Neighbours returns the edges and neighbouring nodes adjacent to nodeID in
// the given direction, optionally filtered by edge kind (§4.C).
func (s *Store) Neighbours(nodeID int64, direction Direction, kinds []EdgeKind) ([]*Edge, []*Node, error) {
	var query string
	if direction == DirectionOut {
		query = `SELECT e.id, e.kind, e.source_id, e.target_id, e.file_path, e.line,
		                n.id, n.kind, n.name, n.file_path, n.start_line, n.end_line, n.language, n.visibility, n.signature, n.docstring
		         FROM edges e JOIN nodes n ON n.id = e.target_id
		         WHERE e.source_id = ?`
	} else {
		query = `SELECT e.id, e.kind, e.source_id, e.target_id, e.file_path, e.line,
		                n.id, n.kind, n.name, n.file_path, n.start_line, n.end_line, n.language, n.visibility, n.signature, n.docstring
		         FROM edges e JOIN nodes n ON n.id = e.source_id
		         WHERE e.target_id = ?`
	}
	args := []any{nodeID}
	if len(kinds) > 0 {
		query += " AND e.kind IN (" + placeholders(len(kinds)) + ")"
		for _, k := range kinds {
			args = append(args, string(k))
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("neighbours: %w", err)
	}
	defer rows.Close()

	var edges []*Edge
	var nodes []*Node
	for rows.Next() {
		var e Edge
		var ekind string
		var n Node
		var nkind, visibility string
		var signature, docstring *string
		if err := rows.Scan(
			&e.ID, &ekind, &e.SourceID, &e.TargetID, &e.FilePath, &e.Line,
			&n.ID, &nkind, &n.Name, &n.FilePath, &n.StartLine, &n.EndLine, &n.Language, &visibility, &signature, &docstring,
		); err != nil {
			return nil, nil, fmt.Errorf("neighbours: scan: %w", err)
		}
		e.Kind = EdgeKind(ekind)
		n.Kind = NodeKind(nkind)
		n.Visibility = Visibility(visibility)
		if signature != nil {
			n.Signature = *signature
		}
		if docstring != nil {
			n.Docstring = *docstring
		}
		edges = append(edges, &e)
		nodes = append(nodes, &n)
	}
	return edges, nodes, rows.Err()
}

// EdgesByKindInto returns every edge of the given kind whose target_id is in
// targetIDs, used by the unused() traversal to bulk-test incoming edges.
func (s *Store) EdgesByKindInto(kinds []EdgeKind, targetIDs []int64) ([]*Edge, error) {
	if len(targetIDs) == 0 || len(kinds) == 0 {
		return nil, nil
	}
	query := `SELECT id, kind, source_id, target_id, file_path, line FROM edges
	          WHERE kind IN (` + placeholders(len(kinds)) + `)
	          AND target_id IN (` + placeholders(len(targetIDs)) + `)`
	args := make([]any, 0, len(kinds)+len(targetIDs))
	for _, k := range kinds {
		args = append(args, string(k))
	}
	for _, id := range targetIDs {
		args = append(args, id)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("edges by kind into: %w", err)
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		var e Edge
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.SourceID, &e.TargetID, &e.FilePath, &e.Line); err != nil {
			return nil, fmt.Errorf("edges by kind into: scan: %w", err)
		}
		e.Kind = EdgeKind(kind)
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}
