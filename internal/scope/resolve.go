package scope

import (
	"strconv"

	"github.com/jward/understory/internal/value"
)

// ResolveInScope rewrites v by substituting bindings resolved through the
// scope chain. The rewrite is structure-preserving and allocation-shy: a
// node is rebuilt only when a child actually changed, so unchanged subtrees
// are shared with the input.
//
// Reference cycles (a = b; b = a) are broken by a per-call visiting set
// keyed by binding name: a name already in flight resolves to itself
// unchanged. Re-resolving an already resolved tree returns it structurally
// unchanged.
func ResolveInScope(v value.Value, s *Scope) value.Value {
	r := &resolver{visiting: map[string]bool{}}
	return r.value(v, s)
}

// ResolveStatements resolves each statement of a lowered body in the given
// scope.
func ResolveStatements(stmts []value.Statement, s *Scope) []value.Statement {
	r := &resolver{visiting: map[string]bool{}}
	out, _ := r.statements(stmts, s)
	return out
}

type resolver struct {
	// visiting holds the binding names currently being resolved in this
	// call, the arena that keeps cyclic bindings from recursing forever.
	visiting map[string]bool
}

func (r *resolver) value(v value.Value, s *Scope) value.Value {
	switch n := v.(type) {
	case *value.Reference:
		return r.reference(n, s)
	case *value.PropertyAccess:
		return r.propertyAccess(n, s)
	case *value.Spread:
		return r.spread(n, s)
	case *value.Array:
		elems, changed := r.values(n.Elements, s)
		if !changed {
			return n
		}
		return &value.Array{Span: n.Span, Elements: elems}
	case *value.Object:
		return r.object(n, s)
	case *value.Function:
		return r.function(n, s)
	case *value.Class:
		return r.class(n, s)
	case *value.Call:
		callee := r.value(n.Callee, s)
		args, argsChanged := r.values(n.Args, s)
		if callee == n.Callee && !argsChanged {
			return n
		}
		return &value.Call{Span: n.Span, Callee: callee, Args: args, Return: n.Return}
	case *value.New:
		callee := r.value(n.Callee, s)
		args, argsChanged := r.values(n.Args, s)
		if callee == n.Callee && !argsChanged {
			return n
		}
		return &value.New{Span: n.Span, Callee: callee, Args: args}
	default:
		// Leaves, imports (cross-file resolution's job), unknowns.
		return v
	}
}

func (r *resolver) values(vals []value.Value, s *Scope) ([]value.Value, bool) {
	changed := false
	out := vals
	for i, v := range vals {
		nv := r.value(v, s)
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

// reference resolves a name through the scope chain. A hit on an import
// binding converts the reference into an import node for the cross-file
// layer; a hit on a local value is resolved recursively and attached as the
// reference's Resolved field, preserving the reference node itself.
func (r *resolver) reference(n *value.Reference, s *Scope) value.Value {
	if n.Resolved != nil {
		return n
	}
	if r.visiting[n.Name] {
		// Cyclic binding: resolve to the reference unchanged.
		return n
	}
	local, imp, def, ok := s.lookup(n.Name)
	if !ok {
		return n
	}
	if imp != nil {
		return &value.Import{
			Span:         n.Span,
			Specifier:    imp.Specifier,
			ExportedName: imp.ExportedName,
			ResolvedFile: imp.ResolvedPath,
		}
	}
	if local == n {
		// Self-reference placeholder (parameter or loop variable).
		return n
	}
	r.visiting[n.Name] = true
	resolved := r.value(local, def)
	delete(r.visiting, n.Name)
	return &value.Reference{Span: n.Span, Name: n.Name, Resolved: resolved}
}

// propertyAccess resolves the base and, once it resolves to an object or an
// array, projects the property through it.
func (r *resolver) propertyAccess(n *value.PropertyAccess, s *Scope) value.Value {
	if n.Resolved != nil {
		return n
	}
	base := r.value(n.Base, s)

	var resolved value.Value
	switch target := value.FollowResolved(base).(type) {
	case *value.Object:
		if pv, ok := target.Prop(n.Property); ok {
			resolved = pv
		}
	case *value.Array:
		if idx, err := strconv.Atoi(n.Property); err == nil && idx >= 0 && idx < len(target.Elements) {
			resolved = target.Elements[idx]
		}
	}
	if base == n.Base && resolved == nil {
		return n
	}
	return &value.PropertyAccess{Span: n.Span, Base: base, Property: n.Property, Resolved: resolved}
}

// spread resolves the spread target and expands the element list once the
// target resolves to an array, directly or through a reference.
func (r *resolver) spread(n *value.Spread, s *Scope) value.Value {
	if n.Expanded != nil {
		return n
	}
	target := r.value(n.Target, s)
	if arr, ok := value.FollowResolved(target).(*value.Array); ok {
		return &value.Spread{Span: n.Span, Target: target, Expanded: arr.Elements}
	}
	if target == n.Target {
		return n
	}
	return &value.Spread{Span: n.Span, Target: target}
}

func (r *resolver) object(n *value.Object, s *Scope) value.Value {
	changed := false
	entries := n.Entries
	for i, e := range n.Entries {
		var ne value.ObjectEntry
		switch {
		case e.Spread != nil:
			sp := r.value(e.Spread, s)
			if sp == e.Spread {
				continue
			}
			ne = e
			ne.Spread = sp
		default:
			nv := r.value(e.Value, s)
			if nv == e.Value {
				continue
			}
			ne = e
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
}

// function resolves a function body in a fresh child scope composed of the
// function's parameters over its body-level declarations.
func (r *resolver) function(n *value.Function, s *Scope) value.Value {
	fs := FunctionScope(s, n)
	body, bodyChanged := r.statements(n.Body, fs)

	params := n.Params
	paramsChanged := false
	for i, p := range n.Params {
		if p.Default == nil {
			continue
		}
		nd := r.value(p.Default, s)
		if nd == p.Default {
			continue
		}
		if !paramsChanged {
			params = make([]value.Param, len(n.Params))
			copy(params, n.Params)
			paramsChanged = true
		}
		params[i].Default = nd
	}
	if !bodyChanged && !paramsChanged {
		return n
	}
	return &value.Function{Span: n.Span, Params: params, Body: body}
}

func (r *resolver) class(n *value.Class, s *Scope) value.Value {
	changed := false

	anns, annsChanged := r.annotations(n.Annotations, s)
	changed = changed || annsChanged

	members := n.Members
	membersChanged := false
	for i, m := range n.Members {
		nm := m
		memberChanged := false
		if m.Value != nil {
			if nv := r.value(m.Value, s); nv != m.Value {
				nm.Value = nv
				memberChanged = true
			}
		}
		if mAnns, mc := r.annotations(m.Annotations, s); mc {
			nm.Annotations = mAnns
			memberChanged = true
		}
		if !memberChanged {
			continue
		}
		if !membersChanged {
			members = make([]value.ClassMember, len(n.Members))
			copy(members, n.Members)
			membersChanged = true
		}
		members[i] = nm
	}
	changed = changed || membersChanged
	if !changed {
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
}

func (r *resolver) annotations(anns []value.Annotation, s *Scope) ([]value.Annotation, bool) {
	changed := false
	out := anns
	for i, a := range anns {
		args, argsChanged := r.values(a.Args, s)
		if !argsChanged {
			continue
		}
		if !changed {
			out = make([]value.Annotation, len(anns))
			copy(out, anns)
			changed = true
		}
		out[i].Args = args
	}
	return out, changed
}

func (r *resolver) statements(stmts []value.Statement, s *Scope) ([]value.Statement, bool) {
	changed := false
	out := stmts
	for i, st := range stmts {
		ns := r.statement(st, s)
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

func (r *resolver) statement(st value.Statement, s *Scope) value.Statement {
	switch n := st.(type) {
	case *value.ReturnStatement:
		v := r.value(n.Value, s)
		if v == n.Value {
			return n
		}
		return &value.ReturnStatement{Span: n.Span, Value: v}
	case *value.ExpressionStatement:
		v := r.value(n.Value, s)
		if v == n.Value {
			return n
		}
		return &value.ExpressionStatement{Span: n.Span, Value: v}
	case *value.DeclarationStatement:
		decls := n.Declarations
		changed := false
		for i, d := range n.Declarations {
			nv := r.value(d.Value, s)
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
		cond := r.value(n.Condition, s)
		then, thenChanged := r.statements(n.Then, s)
		els, elseChanged := r.statements(n.Else, s)
		if cond == n.Condition && !thenChanged && !elseChanged {
			return n
		}
		return &value.IfStatement{Span: n.Span, Condition: cond, Then: then, Else: els}
	case *value.ForOfStatement:
		iterable := r.value(n.Iterable, s)
		// The loop body resolves in a child scope where the loop variable is
		// a self-reference placeholder: its per-iteration value is unknown.
		loopScope := NewChildScope(s, map[string]value.Value{
			n.Variable: &value.Reference{Span: n.Span, Name: n.Variable},
		})
		body, bodyChanged := r.statements(n.Body, loopScope)
		if iterable == n.Iterable && !bodyChanged {
			return n
		}
		return &value.ForOfStatement{Span: n.Span, Variable: n.Variable, Iterable: iterable, Body: body}
	default:
		return st
	}
}
