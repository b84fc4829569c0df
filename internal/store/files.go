package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertFile inserts or replaces a file record inside tx, returning the
// file's id and the §4.C tri-state. A file whose stored hash matches the
// given hash is reported Unchanged and left completely untouched --
// including its last_indexed timestamp (§3 invariant 6) -- so callers must
// skip re-extraction on Unchanged rather than reinsert symbols.
func UpsertFile(tx *Tx, path, language, hash string, indexedAt time.Time) (int64, FileState, error) {
	var existingID int64
	var existingHash string
	err := tx.tx.QueryRow(`SELECT id, hash FROM files WHERE path = ?`, path).Scan(&existingID, &existingHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, execErr := tx.tx.Exec(
			`INSERT INTO files(path, language, hash, last_indexed) VALUES (?, ?, ?, ?)`,
			path, language, hash, indexedAt,
		)
		if execErr != nil {
			return 0, 0, fmt.Errorf("upsert file: insert: %w", execErr)
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return 0, 0, fmt.Errorf("upsert file: last insert id: %w", idErr)
		}
		return id, FileInserted, nil
	case err != nil:
		return 0, 0, fmt.Errorf("upsert file: lookup: %w", err)
	}

	if existingHash == hash {
		return existingID, FileUnchanged, nil
	}

	// ReplacedStale: cascade-delete everything this file owns, then reinsert.
	if err := cascadeDeleteFile(tx, existingID); err != nil {
		return 0, 0, fmt.Errorf("upsert file: cascade delete: %w", err)
	}
	if _, err := tx.tx.Exec(`DELETE FROM files WHERE id = ?`, existingID); err != nil {
		return 0, 0, fmt.Errorf("upsert file: delete stale row: %w", err)
	}
	res, err := tx.tx.Exec(
		`INSERT INTO files(path, language, hash, last_indexed) VALUES (?, ?, ?, ?)`,
		path, language, hash, indexedAt,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("upsert file: reinsert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, 0, fmt.Errorf("upsert file: reinsert last id: %w", err)
	}
	return id, FileReplacedStale, nil
}

// cascadeDeleteFile deletes every node owned by fileID and every edge or
// unresolved reference that touches those nodes (§3 ownership/lifecycle).
func cascadeDeleteFile(tx *Tx, fileID int64) error {
	var path string
	if err := tx.tx.QueryRow(`SELECT path FROM files WHERE id = ?`, fileID).Scan(&path); err != nil {
		return fmt.Errorf("lookup path: %w", err)
	}

	rows, err := tx.tx.Query(`SELECT id FROM nodes WHERE file_path = ?`, path)
	if err != nil {
		return fmt.Errorf("query owned nodes: %w", err)
	}
	var nodeIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan node id: %w", err)
		}
		nodeIDs = append(nodeIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range nodeIDs {
		if _, err := tx.tx.Exec(`DELETE FROM edges WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
			return fmt.Errorf("delete edges for node %d: %w", id, err)
		}
		if _, err := tx.tx.Exec(`DELETE FROM unresolved_references WHERE source_node_id = ?`, id); err != nil {
			return fmt.Errorf("delete unresolved for node %d: %w", id, err)
		}
	}
	if _, err := tx.tx.Exec(`DELETE FROM nodes WHERE file_path = ?`, path); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	return nil
}

// DeleteFile performs the full §4.C delete_file cascade in its own
// transaction: file record, owned nodes, and every edge/unresolved
// reference touching them. Engine.DeleteFile is its only caller; neither
// `reindex` nor a directory walk calls it.
func (s *Store) DeleteFile(path string) error {
	tx, err := s.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	err = tx.tx.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete file: lookup: %w", err)
	}
	if err := cascadeDeleteFile(tx, id); err != nil {
		return fmt.Errorf("delete file: cascade: %w", err)
	}
	if _, err := tx.tx.Exec(`DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete file: row: %w", err)
	}
	return tx.Commit()
}

// FileByPath looks up a file record by its (unique) path.
func (s *Store) FileByPath(path string) (*File, error) {
	var f File
	var lastIndexed sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, path, language, hash, last_indexed FROM files WHERE path = ?`, path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &lastIndexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	if lastIndexed.Valid {
		f.LastIndexed = lastIndexed.Time
	}
	return &f, nil
}

// AllFiles returns every file record.
func (s *Store) AllFiles() ([]*File, error) {
	rows, err := s.db.Query(`SELECT id, path, language, hash, last_indexed FROM files`)
	if err != nil {
		return nil, fmt.Errorf("all files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		var f File
		var lastIndexed sql.NullTime
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &lastIndexed); err != nil {
			return nil, fmt.Errorf("all files: scan: %w", err)
		}
		if lastIndexed.Valid {
			f.LastIndexed = lastIndexed.Time
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

// NodesByFile returns every symbol node (including the synthetic file node)
// owned by the file at path.
func (s *Store) NodesByFile(path string) ([]*Node, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, name, file_path, start_line, end_line, language, visibility, signature, docstring
		 FROM nodes WHERE file_path = ? ORDER BY start_line`, path,
	)
	if err != nil {
		return nil, fmt.Errorf("nodes by file: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}
