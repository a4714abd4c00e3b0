package patterns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/parse"
	"github.com/jward/understory/internal/scope"
	"github.com/jward/understory/internal/value"
)

// resolvedStatements lowers and resolves a source snippet the way the engine
// does before discovery runs.
func resolvedStatements(t *testing.T, src string) []value.Statement {
	t.Helper()
	f, err := parse.Source(context.Background(), "test.js", []byte(src))
	require.NoError(t, err)
	ms := scope.BuildModuleScope(f)
	return scope.ResolveStatements(ms.Statements, ms.Scope)
}

func TestDiscover_DirectRegistration(t *testing.T) {
	stmts := resolvedStatements(t, `
class Card extends HTMLElement {}
customElements.define("x-card", Card);
`)
	d := Discover(stmts)
	require.Len(t, d.Registrations, 1)

	reg := d.Registrations[0]
	assert.Equal(t, "x-card", reg.TagName)
	assert.Equal(t, "customElements.define", reg.Callee)
	assert.False(t, reg.Conditional)

	cls, ok := reg.Target.(*value.Class)
	require.True(t, ok)
	assert.Equal(t, "Card", cls.Name)
}

func TestDiscover_TagThroughBinding(t *testing.T) {
	stmts := resolvedStatements(t, `
const tag = "x-list";
class List extends HTMLElement {}
customElements.define(tag, List);
`)
	d := Discover(stmts)
	require.Len(t, d.Registrations, 1)
	assert.Equal(t, "x-list", d.Registrations[0].TagName)
}

func TestDiscover_DynamicTagName(t *testing.T) {
	stmts := resolvedStatements(t, `
customElements.define(prefix + "-card", Card);
`)
	d := Discover(stmts)
	require.Len(t, d.Registrations, 1)

	reg := d.Registrations[0]
	assert.Empty(t, reg.TagName)
	require.NotEmpty(t, reg.Gaps)
	assert.Equal(t, value.GapDynamicValue, reg.Gaps[0].Kind)
}

func TestDiscover_Conditional(t *testing.T) {
	stmts := resolvedStatements(t, `
if (!customElements.get("x-card")) {
  customElements.define("x-card", Card);
}
`)
	d := Discover(stmts)
	require.Len(t, d.Registrations, 1)

	reg := d.Registrations[0]
	assert.True(t, reg.Conditional)
	require.NotEmpty(t, reg.Gaps)
	assert.Equal(t, value.GapConditionalRegistration, reg.Gaps[0].Kind)
}

func TestDiscover_InsideLoop(t *testing.T) {
	stmts := resolvedStatements(t, `
for (const entry of entries) {
  define(entry, Thing);
}
`)
	d := Discover(stmts)
	require.Len(t, d.Registrations, 1)
	assert.True(t, d.Registrations[0].Conditional)
	assert.Equal(t, value.GapLoopVariable, d.Registrations[0].Gaps[0].Kind)
}

func TestDiscover_CustomRegistrars(t *testing.T) {
	stmts := resolvedStatements(t, `
app.component("my-widget", Widget);
customElements.define("x-skip", Skip);
`)
	d := Discover(stmts, "app.component")
	require.Len(t, d.Registrations, 1)
	assert.Equal(t, "my-widget", d.Registrations[0].TagName)
	assert.Equal(t, "app.component", d.Registrations[0].Callee)
}

func TestDiscover_ConfigArgument(t *testing.T) {
	stmts := resolvedStatements(t, `
customElements.define("x-ext", Ext, { extends: "button" });
`)
	d := Discover(stmts)
	require.Len(t, d.Registrations, 1)
	cfg := d.Registrations[0].Config
	require.NotNil(t, cfg)
	v, ok := value.GetProperty(cfg, "extends")
	require.True(t, ok)
	s, _ := value.GetString(v)
	assert.Equal(t, "button", s)
}

func TestDiscover_IgnoresUnrelatedCalls(t *testing.T) {
	stmts := resolvedStatements(t, `
console.log("hello");
setup();
`)
	d := Discover(stmts)
	assert.Empty(t, d.Registrations)
}

func TestCalleeName(t *testing.T) {
	ref := &value.Reference{Name: "define"}
	assert.Equal(t, "define", CalleeName(ref))

	pa := &value.PropertyAccess{
		Base:     &value.Reference{Name: "customElements"},
		Property: "define",
	}
	assert.Equal(t, "customElements.define", CalleeName(pa))

	imp := &value.Import{Specifier: "./reg", ExportedName: "register"}
	assert.Equal(t, "register", CalleeName(imp))

	assert.Empty(t, CalleeName(&value.String{Value: "not a callee"}))
}

func TestMatchScript(t *testing.T) {
	obj := &value.Object{Entries: []value.ObjectEntry{
		{Key: "name", Value: &value.String{Value: "x-card"}},
	}}

	ok, err := MatchScript(context.Background(), `value["kind"] == "object"`, obj)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = MatchScript(context.Background(), `value["kind"] == "string"`, obj)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchScript_BadScript(t *testing.T) {
	_, err := MatchScript(context.Background(), `this is not risor (`, &value.Null{})
	require.Error(t, err)
}
