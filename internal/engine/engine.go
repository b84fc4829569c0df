// Package engine wires the Language Registry, Extractor, Store and
// Resolver into the indexing pipeline §2 describes: a directory walk
// yields candidate paths, the registry classifies them, the extractor
// produces records, the store batch-writes them in a transaction, and once
// the walk completes the resolver runs. It is grounded in the teacher's
// root-level Engine (engine.go/engine_parallel.go) but rebuilt around the
// new internal/store schema and internal/lang's tree-sitter-query
// extraction instead of the teacher's Risor scripting runtime.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codemap-dev/codemap/internal/codemaperr"
	"github.com/codemap-dev/codemap/internal/extract"
	"github.com/codemap-dev/codemap/internal/graphquery"
	"github.com/codemap-dev/codemap/internal/lang"
	"github.com/codemap-dev/codemap/internal/resolve"
	"github.com/codemap-dev/codemap/internal/store"
	"github.com/codemap-dev/codemap/internal/walkutil"
)

// Engine owns one Store and one Registry for a single repository. It is
// the CLI's and tool server's sole entry point into the core (§1 "external
// collaborators... only their interface to the core is specified").
type Engine struct {
	store    *store.Store
	registry *lang.Registry
	root     string
	workers  int
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithWorkers overrides the extraction worker pool size (§5 "a bounded
// worker pool parses files concurrently"). n <= 0 selects one worker per
// file, capped at 8.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New opens (creating if necessary) the store at dbPath and builds the
// language registry. root is the repository root, used to resolve relative
// paths recorded in file records. A StoreCorrupt open error (§7: "fatal;
// force a rebuild of index.db") deletes dbPath and reopens once rather than
// propagating, since a corrupted index.db is recoverable by rebuilding from
// source on the next indexing pass.
func New(dbPath, root string, opts ...Option) (*Engine, error) {
	s, err := store.Open(dbPath)
	if codemaperr.Is(err, codemaperr.StoreCorrupt) {
		if rmErr := os.Remove(dbPath); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("engine: removing corrupt store %s: %w", dbPath, rmErr)
		}
		s, err = store.Open(dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: open store: %w", err)
	}
	reg, err := lang.NewRegistry()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("engine: build registry: %w", err)
	}
	e := &Engine{store: s, registry: reg, root: root}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the underlying Store to collaborators (CLI, tool server)
// that need direct lookups beyond what Engine wraps.
func (e *Engine) Store() *store.Store { return e.store }

// Registry exposes the language registry, mainly for diagnostics.
func (e *Engine) Registry() *lang.Registry { return e.registry }

// GraphQuery builds a query engine over this Engine's store. maxVisits <=
// 0 selects graphquery.DefaultMaxVisits.
func (e *Engine) GraphQuery(maxVisits int) *graphquery.Engine {
	return graphquery.New(e.store, maxVisits)
}

// Stats summarizes one indexing pass.
type Stats struct {
	Inserted   int
	Unchanged  int
	Replaced   int
	Errored    int
	Resolved   int
	Pending    int
	Duration   time.Duration
	FileErrors []string
}

// IndexDirectory walks root for candidate files (§6 "honour standard
// ignore-file conventions") and indexes them, then runs the resolver.
func (e *Engine) IndexDirectory(ctx context.Context, root string) (Stats, error) {
	rel, err := walkutil.List(root)
	if err != nil {
		return Stats{}, codemaperr.New(codemaperr.FileRead, fmt.Errorf("walk %s: %w", root, err))
	}
	return e.IndexFiles(ctx, root, rel)
}

// IndexFiles indexes exactly the given paths (relative to root), then runs
// the resolver. Used by IndexDirectory and by the `reindex` operation.
func (e *Engine) IndexFiles(ctx context.Context, root string, relPaths []string) (Stats, error) {
	start := time.Now()
	results, fileErrs := e.extractAll(ctx, root, relPaths)

	stats := Stats{FileErrors: fileErrs, Errored: len(fileErrs)}
	for _, res := range results {
		if res.Language == "" {
			// Unknown extension (§4.A): skip entirely, no file record.
			continue
		}
		st, err := e.commitResult(res)
		if err != nil {
			stats.Errored++
			stats.FileErrors = append(stats.FileErrors, fmt.Sprintf("%s: %v", res.Path, err))
			continue
		}
		switch st {
		case store.FileInserted:
			stats.Inserted++
		case store.FileUnchanged:
			stats.Unchanged++
		case store.FileReplacedStale:
			stats.Replaced++
		}
	}

	rstats, err := resolve.Run(e.store)
	if err != nil {
		return stats, fmt.Errorf("engine: resolve: %w", err)
	}
	stats.Resolved = rstats.Resolved
	stats.Pending = rstats.Pending
	stats.Duration = time.Since(start)
	return stats, nil
}

// extractAll runs the §5 bounded-worker-pool extraction phase: each file
// is read, hash-checked and parsed concurrently (pure, contention-free),
// and every produced *extract.Result is funnelled to one slice a single
// goroutine appends to, so the caller's later commit phase is itself
// single-writer even though extraction was parallel.
func (e *Engine) extractAll(ctx context.Context, root string, relPaths []string) ([]*extract.Result, []string) {
	workers := e.workers
	if workers <= 0 {
		workers = len(relPaths)
		if workers > 8 {
			workers = 8
		}
	}
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		res *extract.Result
		err error
		rel string
	}
	outcomes := make([]outcome, len(relPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range relPaths {
		i, rel := i, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.extractOne(root, rel)
			outcomes[i] = outcome{res: res, err: err, rel: rel}
			return nil
		})
	}
	// Worker errors are per-file (§7 FileRead/FileDecode/ParseError are all
	// recoverable): g.Wait only returns non-nil on context cancellation,
	// since extractOne reports failures via outcome.err instead of
	// returning them to errgroup.
	_ = g.Wait()

	var results []*extract.Result
	var fileErrs []string
	for _, o := range outcomes {
		if o.rel == "" {
			continue // slot never ran (cancelled)
		}
		if o.err != nil {
			fileErrs = append(fileErrs, fmt.Sprintf("%s: %v", o.rel, o.err))
			continue
		}
		if o.res != nil {
			results = append(results, o.res)
		}
	}
	return results, fileErrs
}

// extractOne reads and parses one file. A FileRead error is recoverable
// (§7): the caller logs it via the returned error and moves on.
func (e *Engine) extractOne(root, rel string) (*extract.Result, error) {
	abs := filepath.Join(root, rel)
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, codemaperr.NewFile(codemaperr.FileRead, rel, err)
	}
	res, err := extract.Extract(e.registry, rel, content)
	if err != nil {
		return nil, codemaperr.NewFile(codemaperr.ParseError, rel, err)
	}
	return res, nil
}

// commitResult writes one file's extraction result inside its own
// transaction (§4.C "upsert_file"), matching the teacher's per-file commit
// granularity in engine.go's indexFile. IndexFiles never passes it a
// result whose language the registry didn't recognise: such files are
// skipped and get no file record.
func (e *Engine) commitResult(res *extract.Result) (store.FileState, error) {
	tx, err := beginTxWithRetry(e.store)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	fileID, state, err := store.UpsertFile(tx, res.Path, res.Language, res.Hash, time.Now())
	if err != nil {
		return 0, err
	}
	if state == store.FileUnchanged {
		return state, tx.Commit()
	}

	ids := make([]int64, len(res.Nodes))
	for i, n := range res.Nodes {
		id, err := store.InsertNode(tx, &store.Node{
			Kind:       n.Kind,
			Name:       n.Name,
			FilePath:   res.Path,
			StartLine:  n.StartLine,
			EndLine:    n.EndLine,
			Language:   res.Language,
			Visibility: n.Visibility,
			Signature:  n.Signature,
			Docstring:  n.Docstring,
		})
		if err != nil {
			return 0, err
		}
		ids[i] = id
	}

	for _, c := range res.Containment {
		if err := store.InsertEdge(tx, &store.Edge{
			Kind:     store.EdgeContains,
			SourceID: ids[c.ContainerIndex],
			TargetID: ids[c.ChildIndex],
			FilePath: res.Path,
			Line:     res.Nodes[c.ContainerIndex].StartLine,
		}); err != nil {
			return 0, err
		}
	}

	for _, u := range res.Unresolved {
		if _, err := store.InsertUnresolved(tx, &store.UnresolvedRef{
			SourceNodeID:  ids[u.SourceIndex],
			ReferenceName: u.ReferenceName,
			ReferenceKind: u.ReferenceKind,
			FilePath:      res.Path,
			Line:          u.Line,
		}); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	_ = fileID
	return state, nil
}

// Resolve re-runs the resolver pass on demand, independent of indexing
// (§4.D "may be re-run idempotently on demand").
func (e *Engine) Resolve() (resolve.Stats, error) {
	return resolve.Run(e.store)
}

// Status reports the store's file/node/edge/unresolved counts.
func (e *Engine) Status() (store.Counts, error) {
	return e.store.CountAll()
}

// DeleteFile removes a file and its owned data (§4.C delete_file),
// eagerly cascading within its own transaction (§9 Open Question decision
// 2: eager deletion, recorded in DESIGN.md).
func (e *Engine) DeleteFile(relPath string) error {
	return e.store.DeleteFile(relPath)
}

// maxBusyRetries and busyBackoff implement §7's StoreBusy disposition:
// retry with exponential backoff up to a bounded number of attempts,
// surfacing a codemaperr.StoreBusy once exhausted.
const maxBusyRetries = 5

var busyBackoff = 20 * time.Millisecond

func beginTxWithRetry(s *store.Store) (*store.Tx, error) {
	backoff := busyBackoff
	var lastErr error
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		tx, err := s.BeginTx()
		if err == nil {
			return tx, nil
		}
		if !store.IsBusy(err) {
			return nil, err
		}
		lastErr = err
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, codemaperr.New(codemaperr.StoreBusy, lastErr)
}
