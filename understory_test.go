package understory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestAnalyzeSource_Exports(t *testing.T) {
	e := newTestEngine(t)
	fa, err := e.AnalyzeSource(context.Background(), "app.js", []byte(`
const base = "dark";
export const theme = base;
export const size = 12;
`))
	require.NoError(t, err)

	s, ok := GetString(fa.Exports["theme"])
	require.True(t, ok)
	assert.Equal(t, "dark", s)

	n, ok := GetNumber(fa.Exports["size"])
	require.True(t, ok)
	assert.Equal(t, float64(12), n)

	assert.Equal(t, Exact, fa.Confidence)
	assert.Empty(t, fa.Gaps)
}

func TestAnalyzeSource_BindingsIncludeUnexported(t *testing.T) {
	e := newTestEngine(t)
	fa, err := e.AnalyzeSource(context.Background(), "app.js", []byte(`
const local = "hidden";
export const open = local;
`))
	require.NoError(t, err)

	v, ok := fa.Binding("local")
	require.True(t, ok)
	s, _ := GetString(v)
	assert.Equal(t, "hidden", s)
	assert.NotContains(t, fa.Exports, "local")
}

func TestAnalyzeSource_PartialWithGaps(t *testing.T) {
	e := newTestEngine(t)
	fa, err := e.AnalyzeSource(context.Background(), "app.js", []byte(`
export const config = {
  theme: "dark",
  mode: flag ? "a" : "b",
};
`))
	require.NoError(t, err)

	v := fa.Exports["config"]
	tv, ok := GetProperty(v, "theme")
	require.True(t, ok)
	s, _ := GetString(tv)
	assert.Equal(t, "dark", s)

	assert.Equal(t, Partial, fa.Confidence)
	require.NotEmpty(t, fa.Gaps)
	assert.Equal(t, GapDynamicValue, fa.Gaps[0].Kind)
}

func TestAnalyzeSource_CrossFile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"theme.js": `export const theme = "dark";`,
		"app.js":   `import { theme } from "./theme"; export const current = theme;`,
	})
	e := newTestEngine(t, WithProjectResolver())

	fa, err := e.AnalyzeFile(context.Background(), filepath.Join(dir, "app.js"))
	require.NoError(t, err)
	s, ok := GetString(fa.Exports["current"])
	require.True(t, ok)
	assert.Equal(t, "dark", s)
}

func TestAnalyzeSource_ExternalImportStaysGap(t *testing.T) {
	e := newTestEngine(t, WithProjectResolver())
	fa, err := e.AnalyzeSource(context.Background(), "/tmp/app.js", []byte(`
import { html } from "lit";
export const tpl = html;
`))
	require.NoError(t, err)

	assert.False(t, IsResolved(fa.Exports["tpl"]))
	require.NotEmpty(t, fa.Gaps)
	assert.Equal(t, GapExternalPackage, fa.Gaps[0].Kind)
}

func TestAnalyzeSource_NoResolverLeavesImportsOpen(t *testing.T) {
	e := newTestEngine(t)
	fa, err := e.AnalyzeSource(context.Background(), "app.js", []byte(`
import { theme } from "./theme";
export const current = theme;
`))
	require.NoError(t, err)
	assert.False(t, IsResolved(fa.Exports["current"]))
}

func TestRegistrations(t *testing.T) {
	e := newTestEngine(t)
	fa, err := e.AnalyzeSource(context.Background(), "card.js", []byte(`
const tag = "x-card";
class Card extends HTMLElement {}
customElements.define(tag, Card);
`))
	require.NoError(t, err)

	d := fa.Registrations()
	require.Len(t, d.Registrations, 1)
	assert.Equal(t, "x-card", d.Registrations[0].TagName)
}

func TestMatchScript(t *testing.T) {
	e := newTestEngine(t)
	fa, err := e.AnalyzeSource(context.Background(), "app.js", []byte(`
export const theme = "dark";
`))
	require.NoError(t, err)

	ok, err := MatchScript(context.Background(), `value["value"] == "dark"`, fa.Exports["theme"])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIndexDirectory(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"theme.js":                  `export const theme = "dark";`,
		"app.js":                    `import { theme } from "./theme"; export const current = theme;`,
		"node_modules/dep/index.js": `export const skipped = 1;`,
		"README.md":                 "not code",
	})
	dbPath := filepath.Join(t.TempDir(), "index.db")
	e := newTestEngine(t, WithProjectResolver(), WithDB(dbPath))

	summary, err := e.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 2, summary.Exports)

	exports, err := e.Store().ExportsByName("current")
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.True(t, exports[0].Resolved)
	assert.Equal(t, "exact", exports[0].Confidence)
}

func TestIndexDirectory_SkipsUnchanged(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.js": `export const a = 1;`,
	})
	dbPath := filepath.Join(t.TempDir(), "index.db")
	e := newTestEngine(t, WithDB(dbPath))

	first, err := e.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Files)

	second, err := e.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Files)
	assert.Equal(t, 1, second.Skipped)

	// Changed content is re-analyzed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"),
		[]byte(`export const a = 2;`), 0o644))
	third, err := e.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Files)
}

func TestIndexDirectory_WithoutDB(t *testing.T) {
	// Without a store the walk still analyzes and counts, it just cannot
	// skip unchanged files.
	dir := writeProject(t, map[string]string{
		"a.js": `export const a = 1;`,
	})
	e := newTestEngine(t)
	summary, err := e.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Files)
	assert.Nil(t, e.Store())
}

func TestAnalyzeFile_Missing(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "absent.js"))
	require.Error(t, err)
}
