// Package parse wraps tree-sitter parsing for the JavaScript and TypeScript
// dialects the analyzer understands. It is the only package that creates
// syntax trees; everything downstream consumes *sitter.Node values.
package parse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
	".mts": "typescript",
	".cts": "typescript",
}

var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"javascript": javascript.GetLanguage(),
			"typescript": ts.GetLanguage(),
		}
	})
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// File is a parsed source file: the tree plus the bytes every Node.Content
// call needs.
type File struct {
	Path     string
	Language string
	Source   []byte
	Tree     *sitter.Tree
}

// Root returns the tree's root node.
func (f *File) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Source parses src as the language implied by path's extension.
func Source(ctx context.Context, path string, src []byte) (*File, error) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("parse: unsupported file extension %q", filepath.Ext(path))
	}
	initGrammars()

	parser := sitter.NewParser()
	parser.SetLanguage(langToGrammar[lang])
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %s: %w", path, err)
	}
	return &File{Path: path, Language: lang, Source: src, Tree: tree}, nil
}
