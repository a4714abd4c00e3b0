package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/value"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestResolve_CrossFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"theme.js": `export const theme = "dark";`,
		"app.js":   `import { theme } from "./theme";`,
	})
	r := NewResolver()
	v, ok := r.Resolve("./theme", "theme", filepath.Join(dir, "app.js"))
	require.True(t, ok)
	s, got := value.GetString(v)
	require.True(t, got)
	assert.Equal(t, "dark", s)
}

func TestResolve_ExtensionAndIndexCandidates(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.ts":           `export const a = 1;`,
		"widgets/index.js": `export const b = 2;`,
	})
	from := filepath.Join(dir, "app.js")
	r := NewResolver()

	v, ok := r.Resolve("./lib", "a", from)
	require.True(t, ok)
	n, got := value.GetNumber(v)
	require.True(t, got)
	assert.Equal(t, float64(1), n)

	v, ok = r.Resolve("./widgets", "b", from)
	require.True(t, ok)
	n, got = value.GetNumber(v)
	require.True(t, got)
	assert.Equal(t, float64(2), n)
}

func TestResolve_BarePackageIsExternal(t *testing.T) {
	r := NewResolver()
	_, ok := r.Resolve("lit", "html", "/tmp/app.js")
	assert.False(t, ok)
}

func TestResolve_MissingFile(t *testing.T) {
	r := NewResolver()
	_, ok := r.Resolve("./absent", "x", filepath.Join(t.TempDir(), "app.js"))
	assert.False(t, ok)
}

func TestResolve_MissingExport(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.js": `export const present = 1;`,
	})
	r := NewResolver()
	_, ok := r.Resolve("./lib", "absent", filepath.Join(dir, "app.js"))
	assert.False(t, ok)
}

func TestResolve_ProjectionThroughImport(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"config.js": `export const config = { mode: "open" };`,
		"use.js":    `import { config } from "./config"; export const m = config.mode;`,
	})
	r := NewResolver()
	v, ok := r.Resolve("./use", "m", filepath.Join(dir, "app.js"))
	require.True(t, ok)
	s, got := value.GetString(v)
	require.True(t, got)
	assert.Equal(t, "open", s)
}

func TestResolve_Reexport(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"inner.js":  `export const deep = "v";`,
		"barrel.js": `export * from "./inner";`,
	})
	r := NewResolver()
	v, ok := r.Resolve("./barrel", "deep", filepath.Join(dir, "app.js"))
	require.True(t, ok)
	s, got := value.GetString(v)
	require.True(t, got)
	assert.Equal(t, "v", s)
}

func TestResolve_Namespace(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ns.js": `
export const a = "1";
export const b = "2";
`,
	})
	r := NewResolver()
	v, ok := r.Resolve("./ns", "*", filepath.Join(dir, "app.js"))
	require.True(t, ok)
	obj, isObj := v.(*value.Object)
	require.True(t, isObj)
	require.Len(t, obj.Entries, 2)
	// Namespace entries come back sorted by name.
	assert.Equal(t, "a", obj.Entries[0].Key)
	assert.Equal(t, "b", obj.Entries[1].Key)
}

func TestResolve_CircularImport(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": `import { fromB } from "./b"; export const fromA = fromB;`,
		"b.js": `import { fromA } from "./a"; export const fromB = fromA;`,
	})
	r := NewResolver()
	v, ok := r.Resolve("./a", "fromA", filepath.Join(dir, "app.js"))
	require.True(t, ok)

	gaps := value.CollectGaps(v)
	require.NotEmpty(t, gaps)
	var sawCircular bool
	for _, g := range gaps {
		if g.Kind == value.GapCircularImport {
			sawCircular = true
		}
	}
	assert.True(t, sawCircular)
}

func TestResolve_ReexportCycleDoesNotShadowLaterSource(t *testing.T) {
	// barrel's first star re-export loops straight back to it; the name
	// only exists in the second source. The cycle must not win, and the
	// truncated value must not be cached for later queries.
	dir := writeFiles(t, map[string]string{
		"barrel.js": `export * from "./loop"; export * from "./real";`,
		"loop.js":   `export * from "./barrel";`,
		"real.js":   `export const item = "it";`,
	})
	from := filepath.Join(dir, "app.js")
	r := NewResolver()

	for i := 0; i < 2; i++ {
		v, ok := r.Resolve("./barrel", "item", from)
		require.True(t, ok)
		s, got := value.GetString(v)
		require.True(t, got, "query %d returned %v", i, value.CollectGaps(v))
		assert.Equal(t, "it", s)
	}
}

func TestResolve_CircularValueIsNotMemoized(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": `import { fromB } from "./b"; export const fromA = fromB;`,
		"b.js": `import { fromA } from "./a"; export const fromB = fromA;`,
	})
	from := filepath.Join(dir, "app.js")
	r := NewResolver()

	v1, ok := r.Resolve("./a", "fromA", from)
	require.True(t, ok)
	v2, ok := r.Resolve("./a", "fromA", from)
	require.True(t, ok)
	// Both queries see the cycle, but neither result was pinned in the
	// cache.
	assert.NotSame(t, v1, v2)
	assert.NotEmpty(t, value.CollectGaps(v2))
}

func TestResolve_Memoized(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.js": `export const arr = ["a"];`,
	})
	from := filepath.Join(dir, "app.js")
	r := NewResolver()
	v1, ok := r.Resolve("./lib", "arr", from)
	require.True(t, ok)
	v2, ok := r.Resolve("./lib", "arr", from)
	require.True(t, ok)
	assert.Same(t, v1, v2)
}
