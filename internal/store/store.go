package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codemap-dev/codemap/internal/codemaperr"
)

// schemaVersion is stored in schema_meta and checked on open (§6 "persisted
// state layout"). Bump this whenever schemaDDL changes shape.
const schemaVersion = 1

// Store is the SQLite-backed persistent store of files, symbol nodes, edges
// and unresolved references (§4.C). It is a single-writer, multi-reader
// store: callers serialize their own write transactions via BeginTx.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at dbPath with WAL
// mode, foreign keys and a busy timeout, mirroring the teacher's NewStore.
// A schema_version mismatch triggers a full rebuild of the tables. A
// corrupted or non-database file at dbPath surfaces as a *codemaperr.Error
// of kind StoreCorrupt (§7 "fatal; force a rebuild of index.db"), which the
// caller (engine.New) acts on by deleting dbPath and reopening once.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		if IsCorrupt(err) {
			return nil, codemaperr.New(codemaperr.StoreCorrupt, err)
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		if IsCorrupt(err) {
			return nil, codemaperr.New(codemaperr.StoreCorrupt, err)
		}
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB, for callers that need direct query
// access without widening the Store's own API.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the schema if absent and rebuilds it if schema_meta
// reports a different version than schemaVersion (§6).
func (s *Store) migrate() error {
	var current int
	err := s.db.QueryRow(`SELECT version FROM schema_meta LIMIT 1`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		// schema_meta doesn't exist yet: fresh database.
		if _, execErr := s.db.Exec(schemaDDL); execErr != nil {
			return fmt.Errorf("migrate: create schema: %w", execErr)
		}
		_, execErr := s.db.Exec(`INSERT INTO schema_meta(version) VALUES (?)`, schemaVersion)
		return execErr
	}
	if current != schemaVersion {
		if _, execErr := s.db.Exec(schemaDropDDL); execErr != nil {
			return fmt.Errorf("migrate: rebuild: drop: %w", execErr)
		}
		if _, execErr := s.db.Exec(schemaDDL); execErr != nil {
			return fmt.Errorf("migrate: rebuild: create: %w", execErr)
		}
		if _, execErr := s.db.Exec(`DELETE FROM schema_meta`); execErr != nil {
			return fmt.Errorf("migrate: rebuild: clear meta: %w", execErr)
		}
		_, execErr := s.db.Exec(`INSERT INTO schema_meta(version) VALUES (?)`, schemaVersion)
		return execErr
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_meta (
  version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
  id            INTEGER PRIMARY KEY,
  path          TEXT NOT NULL UNIQUE,
  language      TEXT NOT NULL,
  hash          TEXT NOT NULL,
  last_indexed  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS nodes (
  id            INTEGER PRIMARY KEY,
  kind          TEXT NOT NULL,
  name          TEXT NOT NULL,
  file_path     TEXT NOT NULL,
  start_line    INTEGER NOT NULL,
  end_line      INTEGER NOT NULL,
  language      TEXT NOT NULL,
  visibility    TEXT NOT NULL,
  signature     TEXT,
  docstring     TEXT
);

CREATE TABLE IF NOT EXISTS edges (
  id            INTEGER PRIMARY KEY,
  kind          TEXT NOT NULL,
  source_id     INTEGER NOT NULL REFERENCES nodes(id),
  target_id     INTEGER NOT NULL REFERENCES nodes(id),
  file_path     TEXT NOT NULL,
  line          INTEGER,
  UNIQUE(source_id, target_id, kind)
);

CREATE TABLE IF NOT EXISTS unresolved_references (
  id              INTEGER PRIMARY KEY,
  source_node_id  INTEGER NOT NULL REFERENCES nodes(id),
  reference_name  TEXT NOT NULL,
  reference_kind  TEXT NOT NULL,
  file_path       TEXT NOT NULL,
  line            INTEGER
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_file_path ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
CREATE INDEX IF NOT EXISTS idx_unresolved_name ON unresolved_references(reference_name);
CREATE INDEX IF NOT EXISTS idx_unresolved_source ON unresolved_references(source_node_id);
`

const schemaDropDDL = `
DROP TABLE IF EXISTS unresolved_references;
DROP TABLE IF EXISTS edges;
DROP TABLE IF EXISTS nodes;
DROP TABLE IF EXISTS files;
DROP TABLE IF EXISTS schema_meta;
`

// IsBusy reports whether err is a SQLITE_BUSY condition (§7 StoreBusy).
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy
	}
	return strings.Contains(err.Error(), "database is locked")
}

// IsCorrupt reports whether err indicates dbPath is a corrupted or
// non-database file (§7 StoreCorrupt).
func IsCorrupt(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrCorrupt || sqliteErr.Code == sqlite3.ErrNotADB
	}
	msg := err.Error()
	return strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "file is not a database") ||
		strings.Contains(msg, "file is encrypted or is not a database")
}
