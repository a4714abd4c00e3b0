package understory

import (
	"context"
	"sort"

	"github.com/jward/understory/internal/patterns"
	"github.com/jward/understory/internal/value"
)

// FileAnalysis is the result of analyzing one file: its module scope, every
// top-level binding and export resolved as far as statically possible, the
// lowered top-level statements, and the gaps explaining what stayed unknown.
type FileAnalysis struct {
	Path  string
	Scope *ModuleScope

	// Bindings maps every top-level name, exported or not, to its
	// resolved value.
	Bindings map[string]Value

	// Exports maps exported names to their resolved values.
	Exports map[string]Value

	// Statements are the resolved top-level non-declaration statements.
	Statements []Statement

	// Gaps aggregates everything that could not be determined, in tree
	// order per export and statement.
	Gaps []Gap

	// Confidence is the Combine fold over all exports and statements.
	Confidence Confidence
}

// Binding returns the resolved value of a top-level name.
func (fa *FileAnalysis) Binding(name string) (Value, bool) {
	v, ok := fa.Bindings[name]
	return v, ok
}

// Registrations discovers component registration calls in the file's
// resolved statements. With no arguments the default registrar set is used.
func (fa *FileAnalysis) Registrations(registrars ...string) Discovery {
	return patterns.Discover(fa.Statements, registrars...)
}

// MatchScript evaluates a risor expression against the plain form of v; the
// expression sees the value as the global "value" and its truthiness is the
// match result.
func MatchScript(ctx context.Context, script string, v Value) (bool, error) {
	return patterns.MatchScript(ctx, script, v)
}

// resultFor grades one resolved value: Exact with no gaps, Manual when the
// value itself is unknown, High when every gap is benign (unmodeled getters
// and enums), Partial otherwise.
func resultFor(v Value) Result[Value] {
	gaps := value.CollectGaps(v)
	if _, isUnknown := v.(*value.Unknown); isUnknown {
		return Result[Value]{Value: v, Confidence: Manual, Gaps: gaps}
	}
	if len(gaps) == 0 {
		return value.ExactResult(v)
	}
	if benignOnly(gaps) {
		return value.HighResult(v, gaps...)
	}
	return value.PartialResult(v, gaps...)
}

func statementResult(st Statement) Result[Value] {
	var gaps []Gap
	switch n := st.(type) {
	case *value.UnknownStatement:
		gaps = []Gap{n.Gap}
	case *value.ExpressionStatement:
		gaps = value.CollectGaps(n.Value)
	case *value.IfStatement:
		gaps = value.CollectGaps(n.Condition)
		for _, s := range append(append([]Statement{}, n.Then...), n.Else...) {
			gaps = append(gaps, statementResult(s).Gaps...)
		}
	case *value.ForOfStatement:
		gaps = value.CollectGaps(n.Iterable)
		for _, s := range n.Body {
			gaps = append(gaps, statementResult(s).Gaps...)
		}
	}
	if len(gaps) == 0 {
		return value.ExactResult[Value](nil)
	}
	return value.PartialResult[Value](nil, gaps...)
}

func benignOnly(gaps []Gap) bool {
	for _, g := range gaps {
		if g.Kind != value.GapFunctionReturn && g.Kind != value.GapLegacyPattern {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
