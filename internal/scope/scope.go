// Package scope builds per-file lexical scope chains from lowered
// declarations and imports, and rewrites value trees by substituting
// resolved bindings.
package scope

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/lower"
	"github.com/jward/understory/internal/parse"
	"github.com/jward/understory/internal/value"
)

// ImportBinding is a name bound by an import declaration. Specifier
// resolution is deferred to the cross-file resolver; ResolvedPath stays empty
// until then.
type ImportBinding struct {
	Specifier    string
	ExportedName string
	ResolvedPath string
	Span         value.Span
}

// Scope is one link of a lexical scope chain: local bindings and import
// bindings, a parent (nil for a file-root scope), and the owning file.
// Scopes are never mutated after construction; an enclosing scope is
// composed from parent plus new bindings.
type Scope struct {
	file     string
	parent   *Scope
	bindings map[string]value.Value
	imports  map[string]ImportBinding
}

// NewScope creates an empty file-root scope.
func NewScope(file string) *Scope {
	return &Scope{
		file:     file,
		bindings: map[string]value.Value{},
		imports:  map[string]ImportBinding{},
	}
}

// NewChildScope composes a scope over parent with the given bindings.
func NewChildScope(parent *Scope, bindings map[string]value.Value) *Scope {
	if bindings == nil {
		bindings = map[string]value.Value{}
	}
	return &Scope{
		file:     parent.file,
		parent:   parent,
		bindings: bindings,
		imports:  map[string]ImportBinding{},
	}
}

// File returns the identity of the file owning this scope chain.
func (s *Scope) File() string {
	return s.file
}

// LocalNames returns the names bound directly in this scope (not its
// parents), sorted for deterministic iteration.
func (s *Scope) LocalNames() []string {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ImportNames returns the names bound by imports in this scope, sorted.
func (s *Scope) ImportNames() []string {
	names := make([]string, 0, len(s.imports))
	for name := range s.imports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Import returns the import binding for name in this scope chain.
func (s *Scope) Import(name string) (ImportBinding, bool) {
	_, imp, _, ok := s.lookup(name)
	if !ok || imp == nil {
		return ImportBinding{}, false
	}
	return *imp, true
}

// Binding returns the local binding for name in this scope chain, nearest
// enclosing scope first.
func (s *Scope) Binding(name string) (value.Value, bool) {
	v, _, _, ok := s.lookup(name)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// lookup walks the chain for name. On a hit, exactly one of local and imp is
// set, and def is the scope that defines the binding — the binding's value
// must be resolved there, not at the use site, so inner shadowing cannot
// leak into outer bindings.
func (s *Scope) lookup(name string) (local value.Value, imp *ImportBinding, def *Scope, ok bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, found := cur.bindings[name]; found {
			return v, nil, cur, true
		}
		if ib, found := cur.imports[name]; found {
			return nil, &ib, cur, true
		}
	}
	return nil, nil, nil, false
}

// ModuleScope is a file's root scope plus its export surface.
type ModuleScope struct {
	*Scope

	// Exports maps exported name to its value: a reference for named
	// exports and named default declarations, the lowered expression for an
	// expression-form default, an import node for re-exports.
	Exports map[string]value.Value

	// Reexports lists the specifiers of `export * from` declarations, in
	// source order. Chasing them is the cross-file resolver's job.
	Reexports []string

	// Statements holds the file's lowered top-level non-declaration
	// statements (registration calls live here).
	Statements []value.Statement

	// Gaps accumulated while building the scope (parse errors and the
	// like).
	Gaps []value.Gap
}

// BuildModuleScope walks a parsed file's top-level declarations and builds
// its module scope. Every top-level binding is recorded, exported or not:
// values referenced only from inside a registration closure still have to
// resolve.
func BuildModuleScope(f *parse.File) *ModuleScope {
	ms := &ModuleScope{
		Scope:   NewScope(f.Path),
		Exports: map[string]value.Value{},
	}
	l := lower.New(f.Path, f.Source)
	root := f.Root()

	if root.HasError() {
		sp := spanOf(f.Path, root)
		ms.Gaps = append(ms.Gaps, value.NewGap(
			"syntax of "+f.Path, value.GapParseFailure, sp,
			"fix the syntax errors reported by the compiler"))
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		ms.topLevel(l, root.NamedChild(i), false)
	}
	return ms
}

// topLevel dispatches one top-level node. exported marks nodes unwrapped
// from an export statement.
func (ms *ModuleScope) topLevel(l *lower.Lowerer, n *sitter.Node, exported bool) {
	switch n.Type() {
	case "comment":
	case "lexical_declaration", "variable_declaration":
		ms.declare(l, n, exported)
	case "function_declaration":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name := nameNode.Content(l.Source())
			ms.bindings[name] = l.Function(n)
			if exported {
				ms.exportLocal(name, nameNode, l)
			}
		}
	case "generator_function_declaration":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name := nameNode.Content(l.Source())
			ms.bindings[name] = l.Opaque(n, "generator function "+name, value.GapDynamicValue,
				"generator values are only known at runtime")
			if exported {
				ms.exportLocal(name, nameNode, l)
			}
		}
	case "class_declaration", "abstract_class_declaration":
		cls := l.ClassDeclaration(n)
		if cls.Name != "" {
			ms.bindings[cls.Name] = cls
			if exported {
				ms.Exports[cls.Name] = &value.Reference{Span: cls.Span, Name: cls.Name}
			}
		}
	case "enum_declaration":
		// Enums are bound but not modeled, so later lookups of the name do
		// not fail outward.
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name := nameNode.Content(l.Source())
			ms.bindings[name] = l.Opaque(n, "enum "+name, value.GapLegacyPattern,
				"replace the enum with const string values")
			if exported {
				ms.exportLocal(name, nameNode, l)
			}
		}
	case "interface_declaration", "type_alias_declaration", "ambient_declaration":
		// Type-level only: no value to bind.
	case "import_statement":
		ms.importStatement(l, n)
	case "export_statement":
		ms.exportStatement(l, n)
	default:
		if st := l.Statement(n); st != nil {
			ms.Statements = append(ms.Statements, st)
		}
	}
}

// declare lowers a top-level variable statement into module bindings.
func (ms *ModuleScope) declare(l *lower.Lowerer, n *sitter.Node, exported bool) {
	st := l.Statement(n)
	decl, ok := st.(*value.DeclarationStatement)
	if !ok {
		return
	}
	for _, d := range decl.Declarations {
		ms.bindings[d.Name] = d.Value
		if exported {
			ms.Exports[d.Name] = &value.Reference{Span: d.Span, Name: d.Name}
		}
	}
}

func (ms *ModuleScope) exportLocal(name string, n *sitter.Node, l *lower.Lowerer) {
	ms.Exports[name] = &value.Reference{Span: l.Span(n), Name: name}
}

// importStatement records import bindings: default, named with rename, and
// namespace forms. Specifiers are kept verbatim for the cross-file resolver.
func (ms *ModuleScope) importStatement(l *lower.Lowerer, n *sitter.Node) {
	srcNode := n.ChildByFieldName("source")
	if srcNode == nil {
		return
	}
	specifier := l.StringContents(srcNode)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			c := clause.NamedChild(j)
			switch c.Type() {
			case "identifier":
				// import X from "m"
				ms.imports[c.Content(l.Source())] = ImportBinding{
					Specifier:    specifier,
					ExportedName: "default",
					Span:         l.Span(c),
				}
			case "namespace_import":
				// import * as ns from "m"
				if id := c.NamedChild(0); id != nil {
					ms.imports[id.Content(l.Source())] = ImportBinding{
						Specifier:    specifier,
						ExportedName: "*",
						Span:         l.Span(c),
					}
				}
			case "named_imports":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					spec := c.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					nameNode := spec.ChildByFieldName("name")
					if nameNode == nil {
						continue
					}
					exportedName := nameNode.Content(l.Source())
					local := exportedName
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						local = alias.Content(l.Source())
					}
					ms.imports[local] = ImportBinding{
						Specifier:    specifier,
						ExportedName: exportedName,
						Span:         l.Span(spec),
					}
				}
			}
		}
	}
}

// exportStatement records the file's export surface and binds any inline
// declaration it wraps.
func (ms *ModuleScope) exportStatement(l *lower.Lowerer, n *sitter.Node) {
	var source string
	if srcNode := n.ChildByFieldName("source"); srcNode != nil {
		source = l.StringContents(srcNode)
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		if hasDefaultChild(n) {
			// export default class Card {} / function setup() {}: the local
			// name (when present) binds as usual, the export surfaces under
			// "default".
			ms.topLevel(l, decl, false)
			ms.exportDefault(l, decl)
			return
		}
		ms.topLevel(l, decl, true)
		return
	}
	if val := n.ChildByFieldName("value"); val != nil {
		// export default <expression>
		if val.Type() == "class" {
			// Anonymous default class: lower the body rather than treating
			// it as an opaque class expression.
			ms.Exports["default"] = l.ClassDeclaration(val)
			return
		}
		ms.Exports["default"] = l.Expression(val)
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			spec := c.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			nameNode := spec.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			local := nameNode.Content(l.Source())
			exported := local
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = alias.Content(l.Source())
			}
			if source != "" {
				// export { a as b } from "m" — re-export without a local
				// binding.
				ms.Exports[exported] = &value.Import{
					Span:         l.Span(spec),
					Specifier:    source,
					ExportedName: local,
				}
				continue
			}
			ms.Exports[exported] = &value.Reference{Span: l.Span(spec), Name: local}
		}
	}

	// export * from "m"
	if source != "" && hasStarChild(n) {
		ms.Reexports = append(ms.Reexports, source)
	}
}

// exportDefault records a declaration-form default export: named
// declarations export a reference to their binding, anonymous ones export the
// lowered value itself.
func (ms *ModuleScope) exportDefault(l *lower.Lowerer, decl *sitter.Node) {
	if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
		name := nameNode.Content(l.Source())
		ms.Exports["default"] = &value.Reference{Span: l.Span(nameNode), Name: name}
		return
	}
	switch decl.Type() {
	case "class_declaration", "abstract_class_declaration":
		ms.Exports["default"] = l.ClassDeclaration(decl)
	case "function_declaration":
		ms.Exports["default"] = l.Function(decl)
	default:
		ms.Exports["default"] = l.Opaque(decl, "default export "+decl.Type(),
			value.GapDynamicValue, "export a named declaration instead")
	}
}

func hasDefaultChild(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}

func hasStarChild(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "*" {
			return true
		}
	}
	return false
}

// FunctionScope composes the scope a function body resolves in: a shallow
// scan of the body's own top-level declarations, shadowed by the parameter
// bindings. Parameters bind to their literal default when one is written,
// and to a self-reference placeholder otherwise, since the true value is
// only known at call time. Nested blocks are not scanned: their declarations
// are block-scoped and invisible to siblings.
func FunctionScope(parent *Scope, fn *value.Function) *Scope {
	bindings := map[string]value.Value{}
	for _, st := range fn.Body {
		decl, ok := st.(*value.DeclarationStatement)
		if !ok {
			continue
		}
		for _, d := range decl.Declarations {
			bindings[d.Name] = d.Value
		}
	}
	for _, p := range fn.Params {
		if p.Default != nil {
			bindings[p.Name] = p.Default
			continue
		}
		bindings[p.Name] = &value.Reference{Span: fn.Span, Name: p.Name}
	}
	return NewChildScope(parent, bindings)
}

func spanOf(file string, n *sitter.Node) value.Span {
	sp, ep := n.StartPoint(), n.EndPoint()
	return value.Span{
		File:      file,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartLine: sp.Row,
		StartCol:  sp.Column,
		EndLine:   ep.Row,
		EndCol:    ep.Column,
	}
}
