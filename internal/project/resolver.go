// Package project implements cross-file resolution over a directory of
// JavaScript/TypeScript source: the reference implementation of the
// scope.ImportResolver contract.
package project

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jward/understory/internal/parse"
	"github.com/jward/understory/internal/scope"
	"github.com/jward/understory/internal/value"
)

// extensionCandidates are tried in order when a specifier has no extension,
// mirroring bundler resolution for the dialects the analyzer parses.
var extensionCandidates = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// Resolver resolves import references across the files of one project tree.
// Module scopes are built once per file and memoized; the cache is the one
// piece of shared mutable state, guarded by a mutex so independent callers
// may resolve in parallel.
type Resolver struct {
	mu       sync.Mutex
	modules  map[string]*moduleEntry // normalized path → built scope
	inflight map[string]bool         // "path\x00name" currently resolving
}

type moduleEntry struct {
	scope *scope.ModuleScope
	err   error

	// resolved memoizes fully resolved exports per name.
	resolved map[string]value.Value
}

// NewResolver creates an empty resolver. It learns files lazily as imports
// reach them.
func NewResolver() *Resolver {
	return &Resolver{
		modules:  map[string]*moduleEntry{},
		inflight: map[string]bool{},
	}
}

// Resolve implements scope.ImportResolver. Bare (package) specifiers return
// false: packages outside the project are an analysis boundary, reported by
// the caller as an external-package gap. Import chains that return to a file
// already being resolved yield an unknown value carrying a circular-import
// gap — gaps travel as values, so the cycle is data, not a failure.
func (r *Resolver) Resolve(specifier, exportedName, fromFile string) (value.Value, bool) {
	if !strings.HasPrefix(specifier, ".") {
		return nil, false
	}
	path, ok := r.locate(specifier, fromFile)
	if !ok {
		return nil, false
	}

	key := path + "\x00" + exportedName
	r.mu.Lock()
	if r.inflight[key] {
		r.mu.Unlock()
		return &value.Unknown{Gap: value.Gap{
			What:       exportedName + " from " + specifier,
			Kind:       value.GapCircularImport,
			Suggestion: "break the import cycle between " + fromFile + " and " + path,
		}}, true
	}
	r.inflight[key] = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.inflight, key)
		r.mu.Unlock()
	}()

	entry := r.module(path)
	if entry.err != nil {
		return nil, false
	}
	return r.export(entry, path, exportedName)
}

// module builds or reuses the file's module scope.
func (r *Resolver) module(path string) *moduleEntry {
	r.mu.Lock()
	if e, ok := r.modules[path]; ok {
		r.mu.Unlock()
		return e
	}
	r.mu.Unlock()

	e := &moduleEntry{resolved: map[string]value.Value{}}
	src, err := os.ReadFile(path)
	if err != nil {
		e.err = err
	} else {
		f, perr := parse.Source(context.Background(), path, src)
		if perr != nil {
			e.err = perr
		} else {
			e.scope = scope.BuildModuleScope(f)
		}
	}

	r.mu.Lock()
	if prev, ok := r.modules[path]; ok {
		// Another caller built it first; keep theirs.
		e = prev
	} else {
		r.modules[path] = e
	}
	r.mu.Unlock()
	return e
}

// export resolves one exported name inside a built module scope:
// intra-file resolution first, then this resolver again for the imports the
// result still carries.
func (r *Resolver) export(entry *moduleEntry, path, exportedName string) (value.Value, bool) {
	r.mu.Lock()
	if v, ok := entry.resolved[exportedName]; ok {
		r.mu.Unlock()
		return v, true
	}
	r.mu.Unlock()

	if exportedName == "*" {
		v := r.namespace(entry, path)
		r.memoize(entry, exportedName, v)
		return v, true
	}

	exp, ok := entry.scope.Exports[exportedName]
	if !ok {
		// Chase `export * from` re-exports in source order. A source that
		// only reaches the name through a cycle loses to a later source
		// resolving it outright.
		var cyclic value.Value
		for _, spec := range entry.scope.Reexports {
			v, found := r.Resolve(spec, exportedName, path)
			if !found {
				continue
			}
			if containsCircular(v) {
				if cyclic == nil {
					cyclic = v
				}
				continue
			}
			r.memoize(entry, exportedName, v)
			return v, true
		}
		if cyclic != nil {
			return cyclic, true
		}
		return nil, false
	}

	v := scope.ResolveInScope(exp, entry.scope.Scope)
	v = scope.ResolveImports(v, r, path)
	v = scope.ResolveInScope(v, entry.scope.Scope)
	r.memoize(entry, exportedName, v)
	return v, true
}

// namespace materializes `import * as ns` as an object whose properties are
// the module's resolved exports, in sorted order for determinism.
func (r *Resolver) namespace(entry *moduleEntry, path string) value.Value {
	names := make([]string, 0, len(entry.scope.Exports))
	for name := range entry.scope.Exports {
		names = append(names, name)
	}
	sort.Strings(names)

	obj := &value.Object{}
	for _, name := range names {
		if v, ok := r.export(entry, path, name); ok {
			obj.Entries = append(obj.Entries, value.ObjectEntry{Key: name, Value: v})
		}
	}
	return obj
}

// memoize caches a fully computed export. Values tainted by an in-flight
// cycle are not cached: they were truncated by whatever resolution happened
// to be on the stack, so the next query recomputes them from its own entry
// point.
func (r *Resolver) memoize(entry *moduleEntry, name string, v value.Value) {
	if containsCircular(v) {
		return
	}
	r.mu.Lock()
	entry.resolved[name] = v
	r.mu.Unlock()
}

func containsCircular(v value.Value) bool {
	for _, g := range value.CollectGaps(v) {
		if g.Kind == value.GapCircularImport {
			return true
		}
	}
	return false
}

// locate maps a relative specifier to a concrete file: exact path first,
// then extension candidates, then index files for directory imports.
func (r *Resolver) locate(specifier, fromFile string) (string, bool) {
	base := filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(specifier))

	if isFile(base) {
		return base, true
	}
	for _, ext := range extensionCandidates {
		if p := base + ext; isFile(p) {
			return p, true
		}
	}
	for _, ext := range extensionCandidates {
		if p := filepath.Join(base, "index"+ext); isFile(p) {
			return p, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
