package understory

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jward/understory/internal/parse"
	"github.com/jward/understory/internal/project"
	"github.com/jward/understory/internal/scope"
	"github.com/jward/understory/internal/store"
	"github.com/jward/understory/internal/value"
)

// Engine orchestrates the analysis pipeline: parsing, structural lowering,
// intra-file scope resolution, cross-file resolution through the configured
// resolver, and optional persistence of results.
type Engine struct {
	resolver scope.ImportResolver
	store    *store.Store
	dbPath   string
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver supplies the cross-file resolver imports are delegated to.
// Without one, import references stay unresolved and surface as
// external-package gaps.
func WithResolver(r ImportResolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithProjectResolver wires the built-in resolver that follows relative
// imports across the files of the analyzed project, memoizing one module
// scope per file.
func WithProjectResolver() Option {
	return func(e *Engine) {
		e.resolver = project.NewResolver()
	}
}

// WithDB enables persistence: IndexDirectory writes exports and gaps to a
// SQLite database at dbPath and skips files whose content hash is unchanged.
func WithDB(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("understory: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("understory: migrate: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// Close releases the Engine's database resources, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying analysis store, or nil when persistence is
// not configured.
func (e *Engine) Store() *store.Store {
	return e.store
}

// AnalyzeSource analyzes one file's source: lowering, module scope
// construction, resolution of every top-level binding and export, and gap
// collection. The returned error covers only unusable input (unsupported
// extension); everything else degrades into gaps.
func (e *Engine) AnalyzeSource(ctx context.Context, path string, src []byte) (*FileAnalysis, error) {
	f, err := parse.Source(ctx, path, src)
	if err != nil {
		return nil, fmt.Errorf("understory: %w", err)
	}
	ms := scope.BuildModuleScope(f)

	fa := &FileAnalysis{
		Path:     path,
		Scope:    ms,
		Bindings: map[string]Value{},
		Exports:  map[string]Value{},
		Gaps:     append([]Gap(nil), ms.Gaps...),
	}

	for _, name := range ms.LocalNames() {
		v, _ := ms.Binding(name)
		fa.Bindings[name] = e.resolve(v, ms, path)
	}

	var results []Result[Value]
	for _, name := range sortedKeys(ms.Exports) {
		rv := e.resolve(ms.Exports[name], ms, path)
		fa.Exports[name] = rv
		results = append(results, resultFor(rv))
	}

	fa.Statements = e.resolveStatements(ms.Statements, ms, path)
	for _, st := range fa.Statements {
		results = append(results, statementResult(st))
	}

	combined := value.Combine(results, func([]Value) struct{} { return struct{}{} })
	fa.Confidence = combined.Confidence
	fa.Gaps = append(fa.Gaps, combined.Gaps...)
	return fa, nil
}

// AnalyzeFile reads path from disk and analyzes it.
func (e *Engine) AnalyzeFile(ctx context.Context, path string) (*FileAnalysis, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("understory: read %s: %w", path, err)
	}
	return e.AnalyzeSource(ctx, path, src)
}

// resolve runs the full resolution stack over one value: intra-file
// resolution, cross-file import filling, then a second intra-file pass so
// property projections and spread expansions that needed imported values can
// complete.
func (e *Engine) resolve(v Value, ms *scope.ModuleScope, path string) Value {
	rv := scope.ResolveInScope(v, ms.Scope)
	if e.resolver == nil {
		return rv
	}
	rv = scope.ResolveImports(rv, e.resolver, path)
	return scope.ResolveInScope(rv, ms.Scope)
}

func (e *Engine) resolveStatements(stmts []Statement, ms *scope.ModuleScope, path string) []Statement {
	out := scope.ResolveStatements(stmts, ms.Scope)
	if e.resolver == nil {
		return out
	}
	out = scope.ResolveStatementImports(out, e.resolver, path)
	return scope.ResolveStatements(out, ms.Scope)
}

// IndexSummary reports what IndexDirectory did.
type IndexSummary struct {
	Files    int
	Skipped  int
	Exports  int
	Gaps     int
	Failures int
}

// skipDirs are directory names IndexDirectory never descends into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
}

// IndexDirectory walks dir, analyzes every supported source file, and, when
// persistence is configured, saves exports and gaps, skipping files whose
// content hash is unchanged since the last run.
func (e *Engine) IndexDirectory(ctx context.Context, dir string) (*IndexSummary, error) {
	summary := &IndexSummary{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := parse.LanguageForFile(path); !ok {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return e.indexFile(ctx, path, summary)
	})
	if err != nil {
		return nil, fmt.Errorf("understory: index %s: %w", dir, err)
	}
	return summary, nil
}

func (e *Engine) indexFile(ctx context.Context, path string, summary *IndexSummary) error {
	src, err := os.ReadFile(path)
	if err != nil {
		summary.Failures++
		return nil
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(src))

	if e.store != nil {
		stored, ok, err := e.store.FileHash(path)
		if err != nil {
			return err
		}
		if ok && stored == hash {
			summary.Skipped++
			return nil
		}
	}

	fa, err := e.AnalyzeSource(ctx, path, src)
	if err != nil {
		summary.Failures++
		return nil
	}
	summary.Files++
	summary.Exports += len(fa.Exports)
	summary.Gaps += len(fa.Gaps)

	if e.store == nil {
		return nil
	}
	return e.store.SaveAnalysis(path, hash, exportRows(fa), gapRows(fa.Gaps))
}

func exportRows(fa *FileAnalysis) []store.Export {
	var rows []store.Export
	for _, name := range sortedKeys(fa.Exports) {
		v := fa.Exports[name]
		rows = append(rows, store.Export{
			Name:       name,
			Kind:       value.KindOf(value.FollowResolved(v)),
			Resolved:   value.IsResolved(v),
			Confidence: resultFor(v).Confidence.String(),
			Summary:    value.Summary(v),
		})
	}
	return rows
}

func gapRows(gaps []Gap) []store.Gap {
	rows := make([]store.Gap, 0, len(gaps))
	for _, g := range gaps {
		row := store.Gap{
			What:       g.What,
			Kind:       string(g.Kind),
			Suggestion: g.Suggestion,
		}
		if g.Span != nil {
			row.Line = int(g.Span.StartLine) + 1
			row.Col = int(g.Span.StartCol) + 1
		}
		rows = append(rows, row)
	}
	return rows
}
