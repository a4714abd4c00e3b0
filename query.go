package understory

import (
	"fmt"

	"github.com/jward/understory/internal/store"
)

// Query reads a persisted analysis index. It answers from stored rows only
// and never re-analyzes source.
type Query struct {
	store *store.Store
}

// Query returns a query layer over the Engine's store, or an error when the
// Engine was built without persistence.
func (e *Engine) Query() (*Query, error) {
	if e.store == nil {
		return nil, fmt.Errorf("understory: query requires a database (use WithDB)")
	}
	return &Query{store: e.store}, nil
}

// NewQuery wraps an already open store.
func NewQuery(s *store.Store) *Query {
	return &Query{store: s}
}

// ExportsOf lists the stored exports of one file.
func (q *Query) ExportsOf(path string) ([]*store.Export, error) {
	return q.store.ExportsForFile(path)
}

// ExportsNamed lists stored exports with the given name across the project.
func (q *Query) ExportsNamed(name string) ([]*store.Export, error) {
	return q.store.ExportsByName(name)
}

// GapsOf lists the stored gaps of one file in source order.
func (q *Query) GapsOf(path string) ([]*store.Gap, error) {
	return q.store.GapsForFile(path)
}

// GapsOfKind lists all stored gaps with the given kind.
func (q *Query) GapsOfKind(kind GapKind) ([]*store.Gap, error) {
	return q.store.GapsByKind(string(kind))
}

// AllGaps lists every stored gap ordered by file and position.
func (q *Query) AllGaps() ([]*store.Gap, error) {
	return q.store.AllGaps()
}

// Stats aggregates export and gap counts per analyzed file.
func (q *Query) Stats() ([]*store.FileStat, error) {
	return q.store.Stats()
}

// UnresolvedExports lists exports whose value never fully resolved, the
// usual starting point for working an index's gaps down.
func (q *Query) UnresolvedExports() ([]*store.Export, error) {
	files, err := q.store.Files()
	if err != nil {
		return nil, err
	}
	var out []*store.Export
	for _, f := range files {
		exports, err := q.store.ExportsForFile(f.Path)
		if err != nil {
			return nil, err
		}
		for _, e := range exports {
			if !e.Resolved {
				out = append(out, e)
			}
		}
	}
	return out, nil
}
