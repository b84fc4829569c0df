package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// InsertNode inserts a symbol node inside tx and returns its assigned id.
// Ids are monotonically assigned by SQLite's ROWID and are stable only for
// this database's lifetime (§3 "id").
func InsertNode(tx *Tx, n *Node) (int64, error) {
	res, err := tx.tx.Exec(
		`INSERT INTO nodes(kind, name, file_path, start_line, end_line, language, visibility, signature, docstring)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(n.Kind), n.Name, n.FilePath, n.StartLine, n.EndLine, n.Language, string(n.Visibility), n.Signature, n.Docstring,
	)
	if err != nil {
		return 0, fmt.Errorf("insert node: %w", err)
	}
	return res.LastInsertId()
}

// QueryNodesByName looks up nodes by exact name, optionally filtered by
// kind and language, returned in (file_path, start_line) order per §4.E
// find_by_name.
func (s *Store) QueryNodesByName(name string, kinds []NodeKind, language string) ([]*Node, error) {
	query := `SELECT id, kind, name, file_path, start_line, end_line, language, visibility, signature, docstring
	          FROM nodes WHERE name = ?`
	args := []any{name}

	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += ` AND kind IN (` + strings.Join(placeholders, ",") + `)`
	}
	if language != "" {
		query += ` AND language = ?`
		args = append(args, language)
	}
	query += ` ORDER BY file_path, start_line`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes by name: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// NonPublicNodesByKind returns every node of one of the given kinds whose
// visibility is not public, for the `unused` traversal's candidate set.
func (s *Store) NonPublicNodesByKind(kinds []NodeKind) ([]*Node, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(kinds))
	placeholders := make([]string, len(kinds))
	for i, k := range kinds {
		placeholders[i] = "?"
		args = append(args, string(k))
	}
	query := `SELECT id, kind, name, file_path, start_line, end_line, language, visibility, signature, docstring
	          FROM nodes WHERE kind IN (` + strings.Join(placeholders, ",") + `) AND visibility != ?`
	args = append(args, string(VisibilityPublic))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("non-public nodes by kind: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// AllNodes returns every non-file symbol node, used by the `context` tool's
// token-overlap ranking.
func (s *Store) AllNodes() ([]*Node, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, name, file_path, start_line, end_line, language, visibility, signature, docstring
		 FROM nodes WHERE kind != ?`, string(KindFile),
	)
	if err != nil {
		return nil, fmt.Errorf("all nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// NodeByID looks up a single node by id.
func (s *Store) NodeByID(id int64) (*Node, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, name, file_path, start_line, end_line, language, visibility, signature, docstring
		 FROM nodes WHERE id = ?`, id,
	)
	return scanNode(row)
}

func scanNode(row *sql.Row) (*Node, error) {
	var n Node
	var kind, visibility string
	var signature, docstring sql.NullString
	err := row.Scan(&n.ID, &kind, &n.Name, &n.FilePath, &n.StartLine, &n.EndLine, &n.Language, &visibility, &signature, &docstring)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan node: %w", err)
	}
	n.Kind = NodeKind(kind)
	n.Visibility = Visibility(visibility)
	n.Signature = signature.String
	n.Docstring = docstring.String
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	var nodes []*Node
	for rows.Next() {
		var n Node
		var kind, visibility string
		var signature, docstring sql.NullString
		if err := rows.Scan(&n.ID, &kind, &n.Name, &n.FilePath, &n.StartLine, &n.EndLine, &n.Language, &visibility, &signature, &docstring); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.Kind = NodeKind(kind)
		n.Visibility = Visibility(visibility)
		n.Signature = signature.String
		n.Docstring = docstring.String
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}
