package store

import (
	"database/sql"
	"fmt"
)

// Tx is a handle on one writer transaction. §4.C requires every mutating
// Store operation to run inside one; Tx carries the *sql.Tx that every
// write of the operation goes through.
type Tx struct {
	tx *sql.Tx
}

// BeginTx opens a single writer transaction. Only one should be open at a
// time; a second concurrent writer blocks on SQLite's write lock until the
// busy timeout, at which point it surfaces as StoreBusy (§7).
func (s *Store) BeginTx() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction. Safe to call after Commit (no-op).
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
