package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *String  { return &String{Value: s} }
func num(n float64) *Number { return &Number{Value: n} }
func boolean(b bool) Value  { return &Boolean{Value: b} }
func ref(name string) *Reference {
	return &Reference{Name: name}
}

func TestConfidenceOrdering(t *testing.T) {
	require.True(t, Manual < Low)
	require.True(t, Low < Partial)
	require.True(t, Partial < High)
	require.True(t, High < Exact)
}

func TestConfidenceString(t *testing.T) {
	assert.Equal(t, "manual", Manual.String())
	assert.Equal(t, "low", Low.String())
	assert.Equal(t, "partial", Partial.String())
	assert.Equal(t, "high", High.String())
	assert.Equal(t, "exact", Exact.String())
}

func TestCombine_MinConfidence(t *testing.T) {
	results := []Result[Value]{
		ExactResult[Value](str("a")),
		PartialResult[Value](str("b"), Gap{What: "b is dynamic", Kind: GapDynamicValue}),
		HighResult[Value](str("c"), Gap{What: "c has a getter", Kind: GapFunctionReturn}),
	}
	combined := Combine(results, func(vs []Value) []Value { return vs })

	assert.Equal(t, Partial, combined.Confidence)
	require.Len(t, combined.Gaps, 2)
	// Gaps keep input order.
	assert.Equal(t, "b is dynamic", combined.Gaps[0].What)
	assert.Equal(t, "c has a getter", combined.Gaps[1].What)
	assert.Len(t, combined.Value, 3)
}

func TestCombine_Empty(t *testing.T) {
	combined := Combine(nil, func(vs []Value) int { return len(vs) })
	assert.Equal(t, Exact, combined.Confidence)
	assert.Empty(t, combined.Gaps)
	assert.Equal(t, 0, combined.Value)
}

func TestCombine_ManualDominates(t *testing.T) {
	results := []Result[Value]{
		ExactResult[Value](str("a")),
		ManualResult[Value](Gap{What: "eval call", Kind: GapDynamicValue}),
	}
	combined := Combine(results, func(vs []Value) []Value { return vs })
	assert.Equal(t, Manual, combined.Confidence)
}

func TestIsResolved_Literals(t *testing.T) {
	for _, v := range []Value{
		str("x"), num(1), boolean(true), &Null{}, &Undefined{},
	} {
		assert.True(t, IsResolved(v), "%T", v)
	}
}

func TestIsResolved_Reference(t *testing.T) {
	bare := ref("theme")
	assert.False(t, IsResolved(bare))

	resolved := &Reference{Name: "theme", Resolved: str("dark")}
	assert.True(t, IsResolved(resolved))

	// Resolution to another unresolved node does not count.
	chained := &Reference{Name: "a", Resolved: ref("b")}
	assert.False(t, IsResolved(chained))
}

func TestIsResolved_Containers(t *testing.T) {
	arr := &Array{Elements: []Value{str("a"), ref("b")}}
	assert.False(t, IsResolved(arr))

	arr.Elements[1] = &Reference{Name: "b", Resolved: str("b")}
	assert.True(t, IsResolved(arr))

	obj := &Object{Entries: []ObjectEntry{{Key: "k", Value: ref("v")}}}
	assert.False(t, IsResolved(obj))
}

func TestIsResolved_Unknown(t *testing.T) {
	u := &Unknown{Gap: Gap{What: "await expression", Kind: GapDynamicValue}}
	assert.False(t, IsResolved(u))
}

func TestIsResolved_Spread(t *testing.T) {
	sp := &Spread{Target: ref("base")}
	assert.False(t, IsResolved(&Array{Elements: []Value{sp}}))

	sp.Expanded = []Value{str("a")}
	assert.True(t, IsResolved(&Array{Elements: []Value{sp}}))
}

func TestFollowResolved(t *testing.T) {
	leaf := str("dark")
	mid := &Import{Specifier: "./theme", ExportedName: "theme", Resolved: leaf}
	top := &Reference{Name: "theme", Resolved: mid}

	assert.Same(t, leaf, FollowResolved(top))
	assert.Same(t, leaf, FollowResolved(leaf))

	bare := ref("loose")
	assert.Same(t, bare, FollowResolved(bare).(*Reference))
}

func TestCollectGaps_SynthesizesForBareNodes(t *testing.T) {
	arr := &Array{Elements: []Value{
		ref("missing"),
		&Import{Specifier: "lit", ExportedName: "html"},
	}}
	gaps := CollectGaps(arr)
	require.Len(t, gaps, 2)
	assert.Equal(t, GapUnresolvedReference, gaps[0].Kind)
	assert.Equal(t, GapExternalPackage, gaps[1].Kind)
}

func TestCollectGaps_Unknown(t *testing.T) {
	u := &Unknown{Gap: Gap{What: "ternary expression", Kind: GapDynamicValue}}
	gaps := CollectGaps(u)
	require.Len(t, gaps, 1)
	assert.Equal(t, "ternary expression", gaps[0].What)
}

func TestCollectGaps_ResolvedTreeIsClean(t *testing.T) {
	obj := &Object{Entries: []ObjectEntry{
		{Key: "name", Value: str("x-button")},
		{Key: "count", Value: &Reference{Name: "n", Resolved: num(3)}},
	}}
	assert.Empty(t, CollectGaps(obj))
}

func TestGetString(t *testing.T) {
	s, ok := GetString(str("hello"))
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = GetString(num(1))
	assert.False(t, ok)

	// Through a resolved chain.
	s, ok = GetString(&Reference{Name: "x", Resolved: str("via")})
	require.True(t, ok)
	assert.Equal(t, "via", s)
}

func TestGetStringSlice(t *testing.T) {
	arr := &Array{Elements: []Value{str("a"), str("b")}}
	got, ok := GetStringSlice(arr)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	// Expanded spreads contribute their elements in place.
	withSpread := &Array{Elements: []Value{
		str("a"),
		&Spread{Target: ref("rest"), Expanded: []Value{str("b"), str("c")}},
	}}
	got, ok = GetStringSlice(withSpread)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	// Unexpanded spread fails the whole extraction.
	_, ok = GetStringSlice(&Array{Elements: []Value{&Spread{Target: ref("rest")}}})
	assert.False(t, ok)

	// Mixed element types fail too.
	_, ok = GetStringSlice(&Array{Elements: []Value{str("a"), num(2)}})
	assert.False(t, ok)
}

func TestGetProperty(t *testing.T) {
	obj := &Object{Entries: []ObjectEntry{
		{Key: "mode", Value: str("open")},
	}}
	v, ok := GetProperty(obj, "mode")
	require.True(t, ok)
	s, _ := GetString(v)
	assert.Equal(t, "open", s)

	_, ok = GetProperty(obj, "absent")
	assert.False(t, ok)
}

func TestGetBindingMode(t *testing.T) {
	cases := map[string]BindingMode{
		"property":  BindingProperty,
		"attribute": BindingAttribute,
		"two-way":   BindingTwoWay,
		"twoWay":    BindingTwoWay,
	}
	for spelling, want := range cases {
		got, ok := GetBindingMode(str(spelling))
		require.True(t, ok, spelling)
		assert.Equal(t, want, got, spelling)
	}

	_, ok := GetBindingMode(str("sideways"))
	assert.False(t, ok)
	_, ok = GetBindingMode(num(1))
	assert.False(t, ok)
}

func TestObjectProp_LastWriteWins(t *testing.T) {
	obj := &Object{Entries: []ObjectEntry{
		{Key: "k", Value: str("first")},
		{Key: "k", Value: str("second")},
	}}
	v, ok := obj.Prop("k")
	require.True(t, ok)
	s, _ := GetString(v)
	assert.Equal(t, "second", s)
}

func TestClassStaticMembers(t *testing.T) {
	c := &Class{
		Name: "Widget",
		Members: []ClassMember{
			{Name: "styles", Static: true, Value: str(".a{}")},
			{Name: "render", Static: false, Value: &Function{}},
		},
	}
	statics := c.StaticMembers()
	require.Len(t, statics, 1)
	assert.Equal(t, "styles", statics[0].Name)

	m, ok := c.Member("render")
	require.True(t, ok)
	assert.False(t, m.Static)

	_, ok = c.Member("absent")
	assert.False(t, ok)
}

func TestToPlain(t *testing.T) {
	obj := &Object{Entries: []ObjectEntry{
		{Key: "name", Value: str("x-card")},
		{Key: "count", Value: num(2)},
	}}
	plain := ToPlain(obj)
	m, ok := plain.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", m["kind"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "string", KindOf(str("a")))
	assert.Equal(t, "array", KindOf(&Array{}))
	assert.Equal(t, "class", KindOf(&Class{Name: "C"}))
	assert.Equal(t, "unknown", KindOf(&Unknown{}))
}

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary(str("hi")), "hi")
	assert.NotEmpty(t, Summary(&Class{Name: "Widget"}))
}
