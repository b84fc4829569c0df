// Package codemaperr defines the typed error kinds of §7 and the recovery
// disposition each kind carries. Internals propagate these as structured
// values; the CLI and tool server translate them at the boundary (exit code
// or a structured tool-response error field) rather than letting the
// process unwind, matching the teacher's plain fmt.Errorf wrapping style
// (the teacher carries no external error-wrapping dependency, so this
// package stays stdlib-only by direct correspondence).
package codemaperr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error kinds named in §7, each with a fixed recovery
// disposition.
type Kind string

const (
	// FileRead: skip the file, log, continue the indexing pass.
	FileRead Kind = "file_read"
	// FileDecode: skip the file, log, continue.
	FileDecode Kind = "file_decode"
	// ParseError: retain partial symbols, log, continue.
	ParseError Kind = "parse_error"
	// StoreBusy: retry with exponential backoff; surface if exhausted.
	StoreBusy Kind = "store_busy"
	// StoreCorrupt: fatal, forces a rebuild of index.db.
	StoreCorrupt Kind = "store_corrupt"
	// UnknownLanguage: silent skip, by design.
	UnknownLanguage Kind = "unknown_language"
	// ResolverAmbiguous: leave unresolved; not an error.
	ResolverAmbiguous Kind = "resolver_ambiguous"
	// QueryNotFound: return an empty result, not an error.
	QueryNotFound Kind = "query_not_found"
	// QueryBudgetExceeded: return a partial result with truncated=true.
	QueryBudgetExceeded Kind = "query_budget_exceeded"
	// BadRequest: invalid tool/CLI parameters, surfaced to the caller.
	BadRequest Kind = "bad_request"
)

// Error is a structured failure value carrying its §7 Kind alongside the
// usual wrapped cause.
type Error struct {
	Kind Kind
	Path string // file_path when the error is file-scoped, empty otherwise
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind, with no associated path.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// NewFile wraps err with kind and the file path it occurred against.
func NewFile(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// Is reports whether err (or something it wraps) carries kind.
func Is(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// Recoverable reports whether kind's §7 disposition lets the indexing pass
// continue past this error, as opposed to aborting the whole pass.
func Recoverable(kind Kind) bool {
	switch kind {
	case StoreCorrupt:
		return false
	default:
		return true
	}
}
