package value

// GapKind classifies why a value could not be fully determined. The set is
// closed: consumers switch on it to decide how to report or recover, so new
// kinds are an API change.
type GapKind string

const (
	// GapDynamicValue covers expression forms whose value depends on
	// runtime state: conditionals, await, binary/unary operators, template
	// interpolation, assignments, class expressions.
	GapDynamicValue GapKind = "dynamic-value"

	// GapUnsupportedFlow covers control flow outside the static model:
	// switch, try, throw, break/continue, labeled statements, and local
	// function or class declarations inside bodies.
	GapUnsupportedFlow GapKind = "unsupported-flow"

	// GapLoopVariable covers variables whose value changes per iteration:
	// traditional for, while, and do-while loops, and for-of loop bindings.
	GapLoopVariable GapKind = "loop-variable"

	// GapConditionalRegistration marks registration calls discovered under a
	// condition, where it cannot be decided statically whether they run.
	GapConditionalRegistration GapKind = "conditional-registration"

	// GapComputedProperty covers property names computed at runtime.
	GapComputedProperty GapKind = "computed-property"

	// GapSpreadUnknown marks a spread whose target never resolved to an
	// array.
	GapSpreadUnknown GapKind = "spread-unknown"

	// GapFunctionReturn covers values produced by calling a function whose
	// return is not tracked, including getters.
	GapFunctionReturn GapKind = "function-return"

	// GapExternalPackage marks an import from a package outside the
	// analyzed project.
	GapExternalPackage GapKind = "external-package"

	// GapCircularImport marks an import chain that returned to a file
	// already being resolved.
	GapCircularImport GapKind = "circular-import"

	// GapParseFailure marks source the parser could not produce a usable
	// tree for.
	GapParseFailure GapKind = "parse-failure"

	// GapUnresolvedReference marks a name that no enclosing scope binds.
	GapUnresolvedReference GapKind = "unresolved-reference"

	// GapLegacyPattern marks constructs the analyzer recognizes but
	// deliberately does not model (TS enums, rest patterns in
	// destructuring).
	GapLegacyPattern GapKind = "legacy-pattern"
)

// Gap records what could not be determined and why. Gaps are plain data:
// they accumulate alongside best-effort values and are never thrown.
type Gap struct {
	// What names the thing that could not be determined, in terms a user of
	// the analyzed source would recognize ("value of config", "import of
	// ./theme").
	What string

	// Kind is the closed classification of the reason.
	Kind GapKind

	// Span locates the construct, when known.
	Span *Span

	// Suggestion tells the user what change would make the value analyzable.
	Suggestion string
}

// NewGap builds a gap with a location.
func NewGap(what string, kind GapKind, span Span, suggestion string) Gap {
	return Gap{What: what, Kind: kind, Span: &span, Suggestion: suggestion}
}
