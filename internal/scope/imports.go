package scope

import (
	"github.com/jward/understory/internal/value"
)

// ImportResolver is the cross-file resolution contract. Implementations
// resolve the specifier to a concrete file, build or reuse that file's
// module scope, resolve the requested export inside it, and return the
// result. They return false — never an error — when resolution is
// impossible; the engine turns that into a gap. Cycle safety across files is
// the implementer's concern, typically by returning an unknown value
// carrying a circular-import gap.
type ImportResolver interface {
	Resolve(specifier, exportedName, fromFile string) (value.Value, bool)
}

// ResolverFunc adapts a function to the ImportResolver interface.
type ResolverFunc func(specifier, exportedName, fromFile string) (value.Value, bool)

func (f ResolverFunc) Resolve(specifier, exportedName, fromFile string) (value.Value, bool) {
	return f(specifier, exportedName, fromFile)
}

// ResolveImports fills the Resolved field of every reachable import node by
// delegating to res. Like ResolveInScope it is structure-preserving and
// reuses unchanged subtrees; a resolver miss leaves the import node as is,
// which gap collection reports as an external reference.
func ResolveImports(v value.Value, res ImportResolver, fromFile string) value.Value {
	w := &importWalker{res: res, from: fromFile}
	return w.value(v)
}

// ResolveStatementImports applies ResolveImports across a statement list.
func ResolveStatementImports(stmts []value.Statement, res ImportResolver, fromFile string) []value.Statement {
	w := &importWalker{res: res, from: fromFile}
	out, _ := w.statements(stmts)
	return out
}

type importWalker struct {
	res  ImportResolver
	from string
}

func (w *importWalker) value(v value.Value) value.Value {
	switch n := v.(type) {
	case *value.Import:
		if n.Resolved != nil {
			return n
		}
		resolved, ok := w.res.Resolve(n.Specifier, n.ExportedName, w.from)
		if !ok {
			return n
		}
		return &value.Import{
			Span:         n.Span,
			Specifier:    n.Specifier,
			ExportedName: n.ExportedName,
			ResolvedFile: n.ResolvedFile,
			Resolved:     resolved,
		}
	case *value.Reference:
		if n.Resolved == nil {
			return n
		}
		resolved := w.value(n.Resolved)
		if resolved == n.Resolved {
			return n
		}
		return &value.Reference{Span: n.Span, Name: n.Name, Resolved: resolved}
	case *value.PropertyAccess:
		base := w.value(n.Base)
		var resolved value.Value
		if n.Resolved != nil {
			resolved = w.value(n.Resolved)
		}
		if base == n.Base && resolved == n.Resolved {
			return n
		}
		return &value.PropertyAccess{Span: n.Span, Base: base, Property: n.Property, Resolved: resolved}
	case *value.Array:
		elems, changed := w.values(n.Elements)
		if !changed {
			return n
		}
		return &value.Array{Span: n.Span, Elements: elems}
	case *value.Object:
		changed := false
		entries := n.Entries
		for i, e := range n.Entries {
			ne := e
			if e.Spread != nil {
				sp := w.value(e.Spread)
				if sp == e.Spread {
					continue
				}
				ne.Spread = sp
			} else {
				nv := w.value(e.Value)
				if nv == e.Value {
					continue
				}
				ne.Value = nv
			}
			if !changed {
				entries = make([]value.ObjectEntry, len(n.Entries))
				copy(entries, n.Entries)
				changed = true
			}
			entries[i] = ne
		}
		if !changed {
			return n
		}
		return &value.Object{Span: n.Span, Entries: entries}
	case *value.Function:
		body, changed := w.statements(n.Body)
		if !changed {
			return n
		}
		return &value.Function{Span: n.Span, Params: n.Params, Body: body}
	case *value.Call:
		callee := w.value(n.Callee)
		args, argsChanged := w.values(n.Args)
		if callee == n.Callee && !argsChanged {
			return n
		}
		return &value.Call{Span: n.Span, Callee: callee, Args: args, Return: n.Return}
	case *value.New:
		callee := w.value(n.Callee)
		args, argsChanged := w.values(n.Args)
		if callee == n.Callee && !argsChanged {
			return n
		}
		return &value.New{Span: n.Span, Callee: callee, Args: args}
	case *value.Spread:
		target := w.value(n.Target)
		expanded := n.Expanded
		expChanged := false
		if n.Expanded != nil {
			expanded, expChanged = w.values(n.Expanded)
		}
		if target == n.Target && !expChanged {
			return n
		}
		return &value.Spread{Span: n.Span, Target: target, Expanded: expanded}
	case *value.Class:
		changed := false
		anns := n.Annotations
		for i, a := range n.Annotations {
			args, argsChanged := w.values(a.Args)
			if !argsChanged {
				continue
			}
			if !changed {
				anns = make([]value.Annotation, len(n.Annotations))
				copy(anns, n.Annotations)
				changed = true
			}
			anns[i].Args = args
		}
		members := n.Members
		membersChanged := false
		for i, m := range n.Members {
			if m.Value == nil {
				continue
			}
			nv := w.value(m.Value)
			if nv == m.Value {
				continue
			}
			if !membersChanged {
				members = make([]value.ClassMember, len(n.Members))
				copy(members, n.Members)
				membersChanged = true
			}
			members[i].Value = nv
		}
		if !changed && !membersChanged {
			return n
		}
		return &value.Class{
			Span:        n.Span,
			Name:        n.Name,
			File:        n.File,
			Annotations: anns,
			Members:     members,
			Gaps:        n.Gaps,
		}
	default:
		return v
	}
}

func (w *importWalker) values(vals []value.Value) ([]value.Value, bool) {
	changed := false
	out := vals
	for i, v := range vals {
		nv := w.value(v)
		if nv == v {
			continue
		}
		if !changed {
			out = make([]value.Value, len(vals))
			copy(out, vals)
			changed = true
		}
		out[i] = nv
	}
	return out, changed
}

func (w *importWalker) statements(stmts []value.Statement) ([]value.Statement, bool) {
	changed := false
	out := stmts
	for i, st := range stmts {
		ns := w.statement(st)
		if ns == st {
			continue
		}
		if !changed {
			out = make([]value.Statement, len(stmts))
			copy(out, stmts)
			changed = true
		}
		out[i] = ns
	}
	return out, changed
}

func (w *importWalker) statement(st value.Statement) value.Statement {
	switch n := st.(type) {
	case *value.ReturnStatement:
		v := w.value(n.Value)
		if v == n.Value {
			return n
		}
		return &value.ReturnStatement{Span: n.Span, Value: v}
	case *value.ExpressionStatement:
		v := w.value(n.Value)
		if v == n.Value {
			return n
		}
		return &value.ExpressionStatement{Span: n.Span, Value: v}
	case *value.DeclarationStatement:
		decls := n.Declarations
		changed := false
		for i, d := range n.Declarations {
			nv := w.value(d.Value)
			if nv == d.Value {
				continue
			}
			if !changed {
				decls = make([]value.Declaration, len(n.Declarations))
				copy(decls, n.Declarations)
				changed = true
			}
			decls[i].Value = nv
		}
		if !changed {
			return n
		}
		return &value.DeclarationStatement{Span: n.Span, Declarations: decls}
	case *value.IfStatement:
		cond := w.value(n.Condition)
		then, thenChanged := w.statements(n.Then)
		els, elseChanged := w.statements(n.Else)
		if cond == n.Condition && !thenChanged && !elseChanged {
			return n
		}
		return &value.IfStatement{Span: n.Span, Condition: cond, Then: then, Else: els}
	case *value.ForOfStatement:
		iterable := w.value(n.Iterable)
		body, bodyChanged := w.statements(n.Body)
		if iterable == n.Iterable && !bodyChanged {
			return n
		}
		return &value.ForOfStatement{Span: n.Span, Variable: n.Variable, Iterable: iterable, Body: body}
	default:
		return st
	}
}
