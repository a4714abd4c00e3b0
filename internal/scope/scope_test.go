package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/parse"
	"github.com/jward/understory/internal/value"
)

func moduleFor(t *testing.T, name, src string) *ModuleScope {
	t.Helper()
	f, err := parse.Source(context.Background(), name, []byte(src))
	require.NoError(t, err)
	return BuildModuleScope(f)
}

func TestBuildModuleScope_Bindings(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const name = "x-card";
let count = 2;
function helper(a) { return a; }
class Widget {}
`)
	for _, n := range []string{"name", "count", "helper", "Widget"} {
		_, ok := ms.Binding(n)
		assert.True(t, ok, n)
	}
	assert.Empty(t, ms.Gaps)
}

func TestBuildModuleScope_Exports(t *testing.T) {
	ms := moduleFor(t, "m.js", `
export const theme = "dark";
const local = 1;
export default local;
export { local as renamed };
`)
	require.Contains(t, ms.Exports, "theme")
	require.Contains(t, ms.Exports, "default")
	require.Contains(t, ms.Exports, "renamed")
	assert.NotContains(t, ms.Exports, "local")
}

func TestBuildModuleScope_Imports(t *testing.T) {
	ms := moduleFor(t, "m.js", `
import Dflt from "./a";
import * as ns from "./b";
import { one, two as alias } from "./c";
`)
	cases := map[string]struct{ spec, exported string }{
		"Dflt":  {"./a", "default"},
		"ns":    {"./b", "*"},
		"one":   {"./c", "one"},
		"alias": {"./c", "two"},
	}
	for name, want := range cases {
		imp, ok := ms.Import(name)
		require.True(t, ok, name)
		assert.Equal(t, want.spec, imp.Specifier, name)
		assert.Equal(t, want.exported, imp.ExportedName, name)
	}
}

func TestBuildModuleScope_DefaultClassDeclaration(t *testing.T) {
	ms := moduleFor(t, "m.js", `export default class Card {}`)
	ref, ok := ms.Exports["default"].(*value.Reference)
	require.True(t, ok)
	assert.Equal(t, "Card", ref.Name)

	// The class name still binds locally.
	v, ok := ms.Binding("Card")
	require.True(t, ok)
	_, ok = v.(*value.Class)
	assert.True(t, ok)
	assert.NotContains(t, ms.Exports, "Card")
}

func TestBuildModuleScope_DefaultFunctionDeclaration(t *testing.T) {
	ms := moduleFor(t, "m.js", `export default function setup() { return "ok"; }`)
	ref, ok := ms.Exports["default"].(*value.Reference)
	require.True(t, ok)
	assert.Equal(t, "setup", ref.Name)

	resolved := ResolveInScope(ms.Exports["default"], ms.Scope)
	_, ok = value.FollowResolved(resolved).(*value.Function)
	assert.True(t, ok)
}

func TestBuildModuleScope_DefaultAnonymousClass(t *testing.T) {
	ms := moduleFor(t, "m.js", `export default class { render() {} }`)
	require.Contains(t, ms.Exports, "default")
	cls, ok := value.FollowResolved(ms.Exports["default"]).(*value.Class)
	require.True(t, ok)
	assert.Empty(t, cls.Name)
	require.Len(t, cls.Members, 1)
	assert.Equal(t, "render", cls.Members[0].Name)
}

func TestBuildModuleScope_ReexportAndStar(t *testing.T) {
	ms := moduleFor(t, "m.js", `
export { part } from "./part";
export * from "./everything";
`)
	imp, ok := ms.Exports["part"].(*value.Import)
	require.True(t, ok)
	assert.Equal(t, "./part", imp.Specifier)
	assert.Equal(t, []string{"./everything"}, ms.Reexports)
}

func TestBuildModuleScope_EnumPlaceholder(t *testing.T) {
	ms := moduleFor(t, "m.ts", `export enum Mode { On, Off }`)
	v, ok := ms.Binding("Mode")
	require.True(t, ok)
	u, ok := v.(*value.Unknown)
	require.True(t, ok)
	assert.Equal(t, value.GapLegacyPattern, u.Gap.Kind)
}

func TestBuildModuleScope_ParseFailure(t *testing.T) {
	ms := moduleFor(t, "m.js", `const = = =;`)
	require.NotEmpty(t, ms.Gaps)
	assert.Equal(t, value.GapParseFailure, ms.Gaps[0].Kind)
}

func TestResolveInScope_Chain(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const base = "dark";
const theme = base;
const config = { theme: theme };
`)
	v, _ := ms.Binding("config")
	resolved := ResolveInScope(v, ms.Scope)

	tv, ok := value.GetProperty(resolved, "theme")
	require.True(t, ok)
	s, ok := value.GetString(tv)
	require.True(t, ok)
	assert.Equal(t, "dark", s)
	assert.True(t, value.IsResolved(resolved))
}

func TestResolveInScope_Idempotent(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const a = "x";
const arr = [a, a, "lit"];
`)
	v, _ := ms.Binding("arr")
	first := ResolveInScope(v, ms.Scope)
	second := ResolveInScope(first, ms.Scope)
	// A fully resolved tree passes through without reallocation.
	assert.Same(t, first, second)
}

func TestResolveInScope_CycleTerminates(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const a = b;
const b = a;
`)
	v, _ := ms.Binding("a")
	resolved := ResolveInScope(v, ms.Scope)
	// The chain is finite and bottoms out in an unresolved reference.
	assert.False(t, value.IsResolved(resolved))
	end := value.FollowResolved(resolved)
	_, ok := end.(*value.Reference)
	assert.True(t, ok)
}

func TestResolveInScope_ParamShadowsModuleBinding(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const b = "outer";
const f = (b) => b;
`)
	v, _ := ms.Binding("f")
	fn, ok := ResolveInScope(v, ms.Scope).(*value.Function)
	require.True(t, ok)
	require.Len(t, fn.Body, 1)
	ret := fn.Body[0].(*value.ReturnStatement)

	// The body reference hits the parameter placeholder, never "outer".
	s, got := value.GetString(ret.Value)
	assert.False(t, got, "param use leaked to module binding %q", s)
}

func TestResolveInScope_ParamShadowsBodyBinding(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const f = (x) => { const x = 5; return x; };
`)
	v, _ := ms.Binding("f")
	fn, ok := ResolveInScope(v, ms.Scope).(*value.Function)
	require.True(t, ok)
	require.Len(t, fn.Body, 2)
	ret := fn.Body[1].(*value.ReturnStatement)

	// The returned x is the parameter placeholder, not the body constant.
	n, got := value.GetNumber(ret.Value)
	assert.False(t, got, "param use leaked to body binding %v", n)
}

func TestResolveInScope_BindingResolvesInDefiningScope(t *testing.T) {
	// a is defined at module level referencing c; resolving a use of a
	// inside a function whose param is named c must still see module c.
	ms := moduleFor(t, "m.js", `
const c = "module";
const a = c;
const f = (c) => a;
`)
	v, _ := ms.Binding("f")
	fn := ResolveInScope(v, ms.Scope).(*value.Function)
	ret := fn.Body[0].(*value.ReturnStatement)
	s, ok := value.GetString(ret.Value)
	require.True(t, ok)
	assert.Equal(t, "module", s)
}

func TestResolveInScope_SpreadExpansion(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const a = ["x"];
const b = ["y", "z"];
const all = [...a, ...b];
`)
	v, _ := ms.Binding("all")
	resolved := ResolveInScope(v, ms.Scope)
	got, ok := value.GetStringSlice(resolved)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y", "z"}, got)
}

func TestResolveInScope_SpreadInCallArguments(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const parts = ["a", "b"];
const result = make(...parts);
`)
	v, _ := ms.Binding("result")
	call, ok := ResolveInScope(v, ms.Scope).(*value.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 1)

	sp, ok := call.Args[0].(*value.Spread)
	require.True(t, ok)
	require.Len(t, sp.Expanded, 2)
	for i, want := range []string{"a", "b"} {
		s, ok := value.GetString(sp.Expanded[i])
		require.True(t, ok)
		assert.Equal(t, want, s)
	}
}

func TestResolveInScope_SpreadOfNonArrayStaysGap(t *testing.T) {
	ms := moduleFor(t, "m.js", `const all = [...window.things];`)
	v, _ := ms.Binding("all")
	resolved := ResolveInScope(v, ms.Scope)
	gaps := value.CollectGaps(resolved)
	require.NotEmpty(t, gaps)
}

func TestResolveInScope_PropertyProjection(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const config = { mode: "open", items: ["a", "b"] };
const m = config.mode;
const second = config.items[1];
`)
	v, _ := ms.Binding("m")
	s, ok := value.GetString(ResolveInScope(v, ms.Scope))
	require.True(t, ok)
	assert.Equal(t, "open", s)

	v, _ = ms.Binding("second")
	s, ok = value.GetString(ResolveInScope(v, ms.Scope))
	require.True(t, ok)
	assert.Equal(t, "b", s)
}

func TestResolveInScope_ImportBecomesImportNode(t *testing.T) {
	ms := moduleFor(t, "m.js", `
import { theme } from "./theme";
const current = theme;
`)
	v, _ := ms.Binding("current")
	resolved := ResolveInScope(v, ms.Scope)
	imp, ok := resolved.(*value.Import)
	require.True(t, ok)
	assert.Equal(t, "./theme", imp.Specifier)
	assert.Equal(t, "theme", imp.ExportedName)
	assert.Nil(t, imp.Resolved)
}

func TestResolveInScope_UnboundNameStaysBare(t *testing.T) {
	ms := moduleFor(t, "m.js", `const x = mystery;`)
	v, _ := ms.Binding("x")
	resolved := ResolveInScope(v, ms.Scope)
	ref, ok := resolved.(*value.Reference)
	require.True(t, ok)
	assert.Nil(t, ref.Resolved)

	gaps := value.CollectGaps(resolved)
	require.Len(t, gaps, 1)
	assert.Equal(t, value.GapUnresolvedReference, gaps[0].Kind)
}

func TestResolveStatements_ForOfBindsLoopVariable(t *testing.T) {
	ms := moduleFor(t, "m.js", `
const outer = "shadowed";
for (const outer of list) { use(outer); }
`)
	stmts := ResolveStatements(ms.Statements, ms.Scope)
	var forOf *value.ForOfStatement
	for _, st := range stmts {
		if f, ok := st.(*value.ForOfStatement); ok {
			forOf = f
		}
	}
	require.NotNil(t, forOf)
	call := forOf.Body[0].(*value.ExpressionStatement).Value.(*value.Call)
	// The loop variable stays opaque; it never picks up the module binding.
	_, got := value.GetString(call.Args[0])
	assert.False(t, got)
}

func TestResolveImports(t *testing.T) {
	ms := moduleFor(t, "m.js", `
import { theme } from "./theme";
export const current = theme;
`)
	v := ResolveInScope(ms.Exports["current"], ms.Scope)

	res := ResolverFunc(func(specifier, exportedName, fromFile string) (value.Value, bool) {
		if specifier == "./theme" && exportedName == "theme" {
			return &value.String{Value: "dark"}, true
		}
		return nil, false
	})
	v = ResolveImports(v, res, "m.js")

	s, ok := value.GetString(v)
	require.True(t, ok)
	assert.Equal(t, "dark", s)
}

func TestResolveImports_ExternalPackage(t *testing.T) {
	ms := moduleFor(t, "m.js", `
import { html } from "lit";
export const tpl = html;
`)
	v := ResolveInScope(ms.Exports["tpl"], ms.Scope)
	v = ResolveImports(v, ResolverFunc(func(string, string, string) (value.Value, bool) {
		return nil, false
	}), "m.js")

	gaps := value.CollectGaps(v)
	require.Len(t, gaps, 1)
	assert.Equal(t, value.GapExternalPackage, gaps[0].Kind)
}

func TestScopeChainLookup(t *testing.T) {
	root := NewScope("m.js")
	child := NewChildScope(root, map[string]value.Value{
		"inner": &value.String{Value: "i"},
	})
	assert.Equal(t, "m.js", child.File())
	_, ok := child.Binding("inner")
	assert.True(t, ok)
	_, ok = root.Binding("inner")
	assert.False(t, ok)
}
