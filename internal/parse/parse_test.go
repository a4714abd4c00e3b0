package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageForFile(t *testing.T) {
	cases := map[string]string{
		"a.js":  "javascript",
		"a.jsx": "javascript",
		"a.mjs": "javascript",
		"a.cjs": "javascript",
		"a.ts":  "typescript",
		"a.tsx": "typescript",
	}
	for path, want := range cases {
		lang, ok := LanguageForFile(path)
		require.True(t, ok, path)
		assert.Equal(t, want, lang, path)
	}

	_, ok := LanguageForFile("a.go")
	assert.False(t, ok)
	_, ok = LanguageForFile("README.md")
	assert.False(t, ok)
}

func TestSource_JavaScript(t *testing.T) {
	f, err := Source(context.Background(), "a.js", []byte(`const x = 1;`))
	require.NoError(t, err)
	require.NotNil(t, f.Tree)
	assert.Equal(t, "program", f.Root().Type())
	assert.False(t, f.Root().HasError())
}

func TestSource_TypeScriptSyntax(t *testing.T) {
	f, err := Source(context.Background(), "a.ts", []byte(`const x: string = "v" as const;`))
	require.NoError(t, err)
	assert.False(t, f.Root().HasError())
}

func TestSource_UnsupportedExtension(t *testing.T) {
	_, err := Source(context.Background(), "a.py", []byte(`x = 1`))
	require.Error(t, err)
}

func TestSource_BrokenInputStillParses(t *testing.T) {
	// tree-sitter recovers; errors surface on the tree, not as a Go error.
	f, err := Source(context.Background(), "a.js", []byte(`const = = =;`))
	require.NoError(t, err)
	assert.True(t, f.Root().HasError())
}
