package understory

import (
	"github.com/jward/understory/internal/patterns"
	"github.com/jward/understory/internal/scope"
	"github.com/jward/understory/internal/value"
)

// Public type aliases for internal types used in the analysis API. These are
// Go type aliases (=) — identical to the internal types at compile time.
// External consumers use these names; no conversion is needed.

type Value = value.Value
type Statement = value.Statement
type Span = value.Span
type Gap = value.Gap
type GapKind = value.GapKind
type Confidence = value.Confidence
type Result[T any] = value.Result[T]
type BindingMode = value.BindingMode

type Scope = scope.Scope
type ModuleScope = scope.ModuleScope
type ImportBinding = scope.ImportBinding
type ImportResolver = scope.ImportResolver
type ResolverFunc = scope.ResolverFunc

type Discovery = patterns.Discovery
type Registration = patterns.Registration

// Confidence levels, lowest to highest.
const (
	Manual  = value.Manual
	Low     = value.Low
	Partial = value.Partial
	High    = value.High
	Exact   = value.Exact
)

// Gap kinds.
const (
	GapDynamicValue            = value.GapDynamicValue
	GapUnsupportedFlow         = value.GapUnsupportedFlow
	GapLoopVariable            = value.GapLoopVariable
	GapConditionalRegistration = value.GapConditionalRegistration
	GapComputedProperty        = value.GapComputedProperty
	GapSpreadUnknown           = value.GapSpreadUnknown
	GapFunctionReturn          = value.GapFunctionReturn
	GapExternalPackage         = value.GapExternalPackage
	GapCircularImport          = value.GapCircularImport
	GapParseFailure            = value.GapParseFailure
	GapUnresolvedReference     = value.GapUnresolvedReference
	GapLegacyPattern           = value.GapLegacyPattern
)

// Binding modes.
const (
	BindingProperty  = value.BindingProperty
	BindingAttribute = value.BindingAttribute
	BindingTwoWay    = value.BindingTwoWay
)

// IsResolved reports whether every reachable branch of v bottoms out in a
// known leaf.
func IsResolved(v Value) bool {
	return value.IsResolved(v)
}

// FollowResolved dereferences a chain of resolved references down to the
// underlying value.
func FollowResolved(v Value) Value {
	return value.FollowResolved(v)
}

// CollectGaps walks v and returns every reason it is not fully known.
func CollectGaps(v Value) []Gap {
	return value.CollectGaps(v)
}

// ToPlain converts v to plain maps, slices, and scalars.
func ToPlain(v Value) any {
	return value.ToPlain(v)
}

// GetString extracts a string literal from v.
func GetString(v Value) (string, bool) {
	return value.GetString(v)
}

// GetBool extracts a boolean literal from v.
func GetBool(v Value) (bool, bool) {
	return value.GetBool(v)
}

// GetNumber extracts a numeric literal from v.
func GetNumber(v Value) (float64, bool) {
	return value.GetNumber(v)
}

// GetStringSlice extracts an array of string literals from v.
func GetStringSlice(v Value) ([]string, bool) {
	return value.GetStringSlice(v)
}

// GetProperty extracts the named property from an object value.
func GetProperty(v Value, name string) (Value, bool) {
	return value.GetProperty(v, name)
}

// GetBindingMode extracts a binding mode from a string value.
func GetBindingMode(v Value) (BindingMode, bool) {
	return value.GetBindingMode(v)
}

// Combine folds N results into one, taking the minimum confidence and
// concatenating gaps in input order.
func Combine[T, U any](results []Result[T], fold func([]T) U) Result[U] {
	return value.Combine(results, fold)
}
