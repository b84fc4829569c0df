package store

import "fmt"

// InsertUnresolved records a deferred edge inside tx (§3 "Unresolved
// reference").
func InsertUnresolved(tx *Tx, r *UnresolvedRef) (int64, error) {
	res, err := tx.tx.Exec(
		`INSERT INTO unresolved_references(source_node_id, reference_name, reference_kind, file_path, line)
		 VALUES (?, ?, ?, ?, ?)`,
		r.SourceNodeID, r.ReferenceName, string(r.ReferenceKind), r.FilePath, r.Line,
	)
	if err != nil {
		return 0, fmt.Errorf("insert unresolved: %w", err)
	}
	return res.LastInsertId()
}

// UnresolvedPage returns up to limit unresolved references with id > cursor,
// and the cursor to pass on the next call. A returned cursor of 0 means
// there are no more rows.
func (s *Store) UnresolvedPage(cursor int64, limit int) ([]*UnresolvedRef, int64, error) {
	rows, err := s.db.Query(
		`SELECT id, source_node_id, reference_name, reference_kind, file_path, line
		 FROM unresolved_references WHERE id > ? ORDER BY id LIMIT ?`,
		cursor, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("unresolved page: %w", err)
	}
	defer rows.Close()

	var refs []*UnresolvedRef
	var next int64
	for rows.Next() {
		var r UnresolvedRef
		var kind string
		if err := rows.Scan(&r.ID, &r.SourceNodeID, &r.ReferenceName, &kind, &r.FilePath, &r.Line); err != nil {
			return nil, 0, fmt.Errorf("unresolved page: scan: %w", err)
		}
		r.ReferenceKind = EdgeKind(kind)
		refs = append(refs, &r)
		next = r.ID
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(refs) < limit {
		next = 0
	}
	return refs, next, nil
}

// DeleteUnresolved removes an unresolved reference, called by the resolver
// to drop a reference whose source node no longer exists.
func (s *Store) DeleteUnresolved(id int64) error {
	_, err := s.db.Exec(`DELETE FROM unresolved_references WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete unresolved: %w", err)
	}
	return nil
}

// DeleteUnresolvedTx removes an unresolved reference inside tx, used by
// the resolver to delete a reference in the same transaction as the edge
// that replaces it (§4.D "emit an edge ... and delete R").
func DeleteUnresolvedTx(tx *Tx, id int64) error {
	_, err := tx.tx.Exec(`DELETE FROM unresolved_references WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete unresolved tx: %w", err)
	}
	return nil
}

// CountUnresolved reports the number of pending unresolved references, for
// the `status` command/tool.
func (s *Store) CountUnresolved() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM unresolved_references`).Scan(&n)
	return n, err
}

// Counts reports the files/nodes/edges/unresolved totals for `status`.
type Counts struct {
	Files      int
	Nodes      int
	Edges      int
	Unresolved int
}

func (s *Store) CountAll() (Counts, error) {
	var c Counts
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&c.Files); err != nil {
		return c, fmt.Errorf("count files: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&c.Nodes); err != nil {
		return c, fmt.Errorf("count nodes: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM edges`).Scan(&c.Edges); err != nil {
		return c, fmt.Errorf("count edges: %w", err)
	}
	n, err := s.CountUnresolved()
	if err != nil {
		return c, fmt.Errorf("count unresolved: %w", err)
	}
	c.Unresolved = n
	return c, nil
}
