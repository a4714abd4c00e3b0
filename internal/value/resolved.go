package value

// IsResolved reports whether every reachable branch of v bottoms out in a
// known leaf. References and imports count as resolved only once their
// Resolved field is populated and itself resolved; calls and constructor
// invocations once callee and all arguments resolve; spreads only once
// Expanded is populated.
func IsResolved(v Value) bool {
	switch n := v.(type) {
	case *String, *Number, *Boolean, *Null, *Undefined, *Function, *Class:
		return true
	case *Array:
		for _, e := range n.Elements {
			if !IsResolved(e) {
				return false
			}
		}
		return true
	case *Object:
		for _, e := range n.Entries {
			if e.Spread != nil {
				if !IsResolved(e.Spread) {
					return false
				}
				continue
			}
			if !IsResolved(e.Value) {
				return false
			}
		}
		return true
	case *Reference:
		return n.Resolved != nil && IsResolved(n.Resolved)
	case *Import:
		return n.Resolved != nil && IsResolved(n.Resolved)
	case *PropertyAccess:
		return n.Resolved != nil && IsResolved(n.Resolved)
	case *Call:
		if !IsResolved(n.Callee) {
			return false
		}
		for _, a := range n.Args {
			if !IsResolved(a) {
				return false
			}
		}
		return true
	case *New:
		if !IsResolved(n.Callee) {
			return false
		}
		for _, a := range n.Args {
			if !IsResolved(a) {
				return false
			}
		}
		return true
	case *Spread:
		if n.Expanded == nil {
			return false
		}
		for _, e := range n.Expanded {
			if !IsResolved(e) {
				return false
			}
		}
		return true
	default:
		// *Unknown and anything future.
		return false
	}
}

// FollowResolved dereferences a chain of resolved references, imports, and
// property accesses down to the underlying value. It stops at the first node
// with no Resolved target, so the return is never nil for non-nil input.
func FollowResolved(v Value) Value {
	for {
		switch n := v.(type) {
		case *Reference:
			if n.Resolved == nil {
				return v
			}
			v = n.Resolved
		case *Import:
			if n.Resolved == nil {
				return v
			}
			v = n.Resolved
		case *PropertyAccess:
			if n.Resolved == nil {
				return v
			}
			v = n.Resolved
		default:
			return v
		}
	}
}

// CollectGaps walks v and returns every gap a consumer would need to explain
// why the value is not fully known: gaps carried by unknown nodes, plus
// synthesized gaps for unresolved references, imports, and spreads. Gaps
// appear in tree order.
func CollectGaps(v Value) []Gap {
	var gaps []Gap
	collectValueGaps(v, &gaps)
	return gaps
}

func collectValueGaps(v Value, gaps *[]Gap) {
	switch n := v.(type) {
	case *Unknown:
		*gaps = append(*gaps, n.Gap)
	case *Array:
		for _, e := range n.Elements {
			collectValueGaps(e, gaps)
		}
	case *Object:
		for _, e := range n.Entries {
			if e.Spread != nil {
				collectValueGaps(e.Spread, gaps)
				continue
			}
			collectValueGaps(e.Value, gaps)
		}
	case *Function:
		for _, p := range n.Params {
			if p.Default != nil {
				collectValueGaps(p.Default, gaps)
			}
		}
		collectStatementGaps(n.Body, gaps)
	case *Class:
		*gaps = append(*gaps, n.Gaps...)
		for _, a := range n.Annotations {
			for _, arg := range a.Args {
				collectValueGaps(arg, gaps)
			}
		}
		for _, m := range n.Members {
			if m.Value != nil {
				collectValueGaps(m.Value, gaps)
			}
		}
	case *Reference:
		if n.Resolved == nil {
			*gaps = append(*gaps, NewGap(
				"value of "+n.Name, GapUnresolvedReference, n.Span,
				"declare "+n.Name+" in this file or import it explicitly"))
			return
		}
		collectValueGaps(n.Resolved, gaps)
	case *Import:
		if n.Resolved == nil {
			*gaps = append(*gaps, NewGap(
				n.ExportedName+" from "+n.Specifier, GapExternalPackage, n.Span,
				"move the value into the analyzed project or inline it"))
			return
		}
		collectValueGaps(n.Resolved, gaps)
	case *PropertyAccess:
		if n.Resolved != nil {
			collectValueGaps(n.Resolved, gaps)
			return
		}
		collectValueGaps(n.Base, gaps)
	case *Call:
		collectValueGaps(n.Callee, gaps)
		for _, a := range n.Args {
			collectValueGaps(a, gaps)
		}
	case *New:
		collectValueGaps(n.Callee, gaps)
		for _, a := range n.Args {
			collectValueGaps(a, gaps)
		}
	case *Spread:
		if n.Expanded != nil {
			for _, e := range n.Expanded {
				collectValueGaps(e, gaps)
			}
			return
		}
		collectValueGaps(n.Target, gaps)
		*gaps = append(*gaps, NewGap(
			"spread target", GapSpreadUnknown, n.Span,
			"spread a locally declared array literal"))
	}
}

func collectStatementGaps(stmts []Statement, gaps *[]Gap) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *UnknownStatement:
			*gaps = append(*gaps, n.Gap)
		case *ReturnStatement:
			collectValueGaps(n.Value, gaps)
		case *ExpressionStatement:
			collectValueGaps(n.Value, gaps)
		case *DeclarationStatement:
			for _, d := range n.Declarations {
				collectValueGaps(d.Value, gaps)
			}
		case *IfStatement:
			collectValueGaps(n.Condition, gaps)
			collectStatementGaps(n.Then, gaps)
			collectStatementGaps(n.Else, gaps)
		case *ForOfStatement:
			collectValueGaps(n.Iterable, gaps)
			collectStatementGaps(n.Body, gaps)
		}
	}
}
