// Package understory is a static value-resolution engine for JavaScript and
// TypeScript: given a file's syntax tree, it determines what value each
// expression denotes without executing the program, so that registration
// discovery and configuration extraction can reason about code that was
// never run.
//
// # Pipeline
//
// Resolution runs in three layers over an immutable value IR:
//
//  1. Structural lowering: tree-sitter syntax nodes map one-to-one onto
//     value IR nodes. Constructs outside the static model (conditionals,
//     arithmetic, runtime property names) become unknown values carrying a
//     classified gap instead of failing.
//  2. Scope resolution: per-file lexical scope chains are built from the
//     lowered declarations and imports, and references are substituted with
//     their resolved bindings. Cyclic bindings are broken by a per-call
//     visiting set.
//  3. Cross-file resolution: import references are delegated to an
//     [ImportResolver]. The built-in project resolver follows relative
//     imports across the analyzed tree, memoizing one module scope per
//     file.
//
// Nothing in the engine throws: every unsupported construct degrades into a
// [Gap] attached to a best-effort value, and a [Confidence] grade summarizes
// how much of a result is known.
//
// # Usage
//
// Create an Engine and analyze files:
//
//	e, err := understory.New(understory.WithProjectResolver())
//	if err != nil { ... }
//	defer e.Close()
//
//	fa, err := e.AnalyzeFile(ctx, "src/button.ts")
//	v, ok := fa.Binding("config")
//	name, ok := understory.GetString(v)
//
// Pattern-matching consumers read resolved values through the extraction
// helpers ([GetString], [GetStringSlice], [GetProperty], ...) and inspect
// [FileAnalysis.Gaps] for what stayed unknown. [FileAnalysis.Registrations]
// discovers component registration calls such as customElements.define.
//
// # Indexing
//
// With [WithDB], [Engine.IndexDirectory] persists every file's exports and
// gaps to SQLite, skipping files whose content hash has not changed since
// the previous run.
package understory
