package value

import (
	"strconv"
	"strings"
)

// ToPlain converts v to plain maps, slices, and scalars for JSON output and
// script-side matching. Every node becomes a map with a "kind" key; resolved
// references collapse to their target with the reference recorded under
// "via". The conversion is lossy by design: spans are reduced to line
// numbers and function bodies to statement counts.
func ToPlain(v Value) any {
	switch n := v.(type) {
	case *String:
		return map[string]any{"kind": "string", "value": n.Value}
	case *Number:
		return map[string]any{"kind": "number", "value": n.Value}
	case *Boolean:
		return map[string]any{"kind": "boolean", "value": n.Value}
	case *Null:
		return map[string]any{"kind": "null"}
	case *Undefined:
		return map[string]any{"kind": "undefined"}
	case *Array:
		elems := make([]any, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = ToPlain(e)
		}
		return map[string]any{"kind": "array", "elements": elems}
	case *Object:
		props := map[string]any{}
		spreads := 0
		for _, e := range n.Entries {
			if e.Spread != nil {
				spreads++
				continue
			}
			props[e.Key] = ToPlain(e.Value)
		}
		out := map[string]any{"kind": "object", "properties": props}
		if spreads > 0 {
			out["spread_entries"] = spreads
		}
		return out
	case *Function:
		params := make([]any, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Name
		}
		return map[string]any{"kind": "function", "params": params, "statements": len(n.Body)}
	case *Class:
		return map[string]any{"kind": "class", "name": n.Name, "file": n.File}
	case *Reference:
		if n.Resolved != nil {
			out := asMap(ToPlain(n.Resolved))
			out["via"] = n.Name
			return out
		}
		return map[string]any{"kind": "reference", "name": n.Name}
	case *Import:
		if n.Resolved != nil {
			out := asMap(ToPlain(n.Resolved))
			out["via"] = n.ExportedName + " from " + n.Specifier
			return out
		}
		return map[string]any{"kind": "import", "specifier": n.Specifier, "name": n.ExportedName}
	case *PropertyAccess:
		if n.Resolved != nil {
			out := asMap(ToPlain(n.Resolved))
			out["via"] = n.Property
			return out
		}
		return map[string]any{"kind": "property_access", "base": ToPlain(n.Base), "property": n.Property}
	case *Call:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			args[i] = ToPlain(a)
		}
		return map[string]any{"kind": "call", "callee": ToPlain(n.Callee), "args": args}
	case *New:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			args[i] = ToPlain(a)
		}
		return map[string]any{"kind": "new", "callee": ToPlain(n.Callee), "args": args}
	case *Spread:
		if n.Expanded != nil {
			elems := make([]any, len(n.Expanded))
			for i, e := range n.Expanded {
				elems[i] = ToPlain(e)
			}
			return map[string]any{"kind": "spread", "expanded": elems}
		}
		return map[string]any{"kind": "spread", "target": ToPlain(n.Target)}
	case *Unknown:
		out := map[string]any{"kind": "unknown", "reason": string(n.Gap.Kind), "what": n.Gap.What}
		if n.Gap.Span != nil {
			out["line"] = int(n.Gap.Span.StartLine) + 1
		}
		return out
	default:
		return map[string]any{"kind": "unknown"}
	}
}

// KindOf names v's variant for reporting and persistence.
func KindOf(v Value) string {
	switch v.(type) {
	case *String:
		return "string"
	case *Number:
		return "number"
	case *Boolean:
		return "boolean"
	case *Null:
		return "null"
	case *Undefined:
		return "undefined"
	case *Array:
		return "array"
	case *Object:
		return "object"
	case *Function:
		return "function"
	case *Class:
		return "class"
	case *Reference:
		return "reference"
	case *Import:
		return "import"
	case *PropertyAccess:
		return "property-access"
	case *Call:
		return "call"
	case *New:
		return "new"
	case *Spread:
		return "spread"
	default:
		return "unknown"
	}
}

// Summary renders a one-line preview of v for listings: the shape and just
// enough content to recognize the value.
func Summary(v Value) string {
	switch n := FollowResolved(v).(type) {
	case *String:
		return strconv.Quote(n.Value)
	case *Number:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *Boolean:
		return strconv.FormatBool(n.Value)
	case *Null:
		return "null"
	case *Undefined:
		return "undefined"
	case *Array:
		return "[" + strconv.Itoa(len(n.Elements)) + " elements]"
	case *Object:
		keys := make([]string, 0, len(n.Entries))
		for _, e := range n.Entries {
			if e.Spread == nil {
				keys = append(keys, e.Key)
			}
		}
		return "{" + strings.Join(keys, ", ") + "}"
	case *Function:
		return "function(" + strconv.Itoa(len(n.Params)) + " params)"
	case *Class:
		return "class " + n.Name
	case *Reference:
		return "reference to " + n.Name
	case *Import:
		return n.ExportedName + " from " + n.Specifier
	case *PropertyAccess:
		return "property " + n.Property
	case *Call:
		return "call"
	case *New:
		return "constructor invocation"
	case *Spread:
		if n.Expanded != nil {
			return "spread of [" + strconv.Itoa(len(n.Expanded)) + " elements]"
		}
		return "spread"
	case *Unknown:
		return "unknown (" + string(n.Gap.Kind) + ")"
	default:
		return KindOf(v)
	}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": v}
}
