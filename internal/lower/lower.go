// Package lower maps tree-sitter syntax nodes to value IR nodes. It is the
// only package that looks at raw syntax.
//
// Lowering is pure and total: every node kind maps to exactly one IR node,
// and constructs outside the static model become unknown values carrying a
// classified gap instead of being dropped or raising an error.
package lower

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/value"
)

// Lowerer lowers one file's syntax nodes. It carries the owning file path
// (for spans) and the source bytes (for node text).
type Lowerer struct {
	file string
	src  []byte
}

// New returns a Lowerer for the given file.
func New(file string, src []byte) *Lowerer {
	return &Lowerer{file: file, src: src}
}

func (l *Lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

func (l *Lowerer) span(n *sitter.Node) value.Span {
	sp, ep := n.StartPoint(), n.EndPoint()
	return value.Span{
		File:      l.file,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartLine: sp.Row,
		StartCol:  sp.Column,
		EndLine:   ep.Row,
		EndCol:    ep.Column,
	}
}

func (l *Lowerer) unknown(n *sitter.Node, what string, kind value.GapKind, suggestion string) *value.Unknown {
	sp := l.span(n)
	return &value.Unknown{Span: sp, Gap: value.NewGap(what, kind, sp, suggestion)}
}

// Expression lowers an expression node to a value. Unsupported expression
// forms lower to *value.Unknown; the function never returns nil.
func (l *Lowerer) Expression(n *sitter.Node) value.Value {
	switch n.Type() {
	case "string":
		return &value.String{Span: l.span(n), Value: l.stringContents(n)}
	case "template_string":
		return l.templateString(n)
	case "number":
		return &value.Number{Span: l.span(n), Value: parseNumber(l.text(n))}
	case "true":
		return &value.Boolean{Span: l.span(n), Value: true}
	case "false":
		return &value.Boolean{Span: l.span(n), Value: false}
	case "null":
		return &value.Null{Span: l.span(n)}
	case "undefined":
		return &value.Undefined{Span: l.span(n)}
	case "identifier":
		return &value.Reference{Span: l.span(n), Name: l.text(n)}
	case "array":
		return l.array(n)
	case "object":
		return l.object(n)
	case "arrow_function", "function", "function_expression":
		return l.function(n)
	case "call_expression":
		return l.call(n)
	case "new_expression":
		return l.new(n)
	case "member_expression":
		return l.member(n)
	case "subscript_expression":
		return l.subscript(n)
	case "parenthesized_expression":
		if inner := n.NamedChild(0); inner != nil {
			return l.Expression(inner)
		}
		return &value.Undefined{Span: l.span(n)}
	case "spread_element":
		if inner := n.NamedChild(0); inner != nil {
			return &value.Spread{Span: l.span(n), Target: l.Expression(inner)}
		}
		return l.unknown(n, "spread target", value.GapSpreadUnknown, "spread a named array")
	case "as_expression", "satisfies_expression", "non_null_expression", "type_assertion":
		// TypeScript wrappers are value-transparent.
		if inner := n.NamedChild(0); inner != nil {
			return l.Expression(inner)
		}
		return &value.Undefined{Span: l.span(n)}
	case "ternary_expression":
		return l.unknown(n, "conditional expression", value.GapDynamicValue,
			"replace the conditional with a single statically known value")
	case "await_expression":
		return l.unknown(n, "await expression", value.GapDynamicValue,
			"awaited values are only known at runtime; use a literal instead")
	case "yield_expression":
		return l.unknown(n, "yield expression", value.GapDynamicValue,
			"generator values are only known at runtime")
	case "binary_expression":
		return l.unknown(n, "binary expression", value.GapDynamicValue,
			"precompute the result and write it as a literal")
	case "unary_expression", "update_expression":
		return l.unknown(n, "unary expression", value.GapDynamicValue,
			"precompute the result and write it as a literal")
	case "assignment_expression", "augmented_assignment_expression":
		return l.unknown(n, "assignment expression", value.GapDynamicValue,
			"declare the value with const instead of assigning it")
	case "sequence_expression":
		return l.unknown(n, "comma expression", value.GapDynamicValue,
			"split the sequence into separate statements")
	case "class":
		return l.unknown(n, "class expression", value.GapDynamicValue,
			"declare the class at the top level with a name")
	case "generator_function":
		return l.unknown(n, "generator function", value.GapDynamicValue,
			"generator values are only known at runtime")
	case "regex":
		return l.unknown(n, "regular expression literal", value.GapDynamicValue,
			"regular expressions are not modeled; use a string if the pattern matters")
	case "this":
		return l.unknown(n, "this", value.GapDynamicValue,
			"this depends on the call site and cannot be tracked statically")
	case "optional_chain":
		return l.unknown(n, "optional chaining", value.GapDynamicValue,
			"use a plain property access on a known object")
	}
	return l.unknown(n, n.Type(), value.GapDynamicValue,
		"this expression form is outside the static model")
}

// stringContents decodes a string literal node: quotes stripped, escape
// sequences applied.
func (l *Lowerer) stringContents(n *sitter.Node) string {
	var b strings.Builder
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "string_fragment":
			b.WriteString(l.text(c))
		case "escape_sequence":
			b.WriteString(unescape(l.text(c)))
		}
	}
	return b.String()
}

// templateString lowers a template literal. Without substitutions it is an
// ordinary string; with substitutions its value depends on runtime state.
func (l *Lowerer) templateString(n *sitter.Node) value.Value {
	var b strings.Builder
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "string_fragment":
			b.WriteString(l.text(c))
		case "escape_sequence":
			b.WriteString(unescape(l.text(c)))
		case "template_substitution":
			return l.unknown(n, "template interpolation with substitutions", value.GapDynamicValue,
				"use a plain string or a template without ${} substitutions")
		}
	}
	return &value.String{Span: l.span(n), Value: b.String()}
}

func (l *Lowerer) array(n *sitter.Node) value.Value {
	var elems []value.Value
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		elems = append(elems, l.Expression(c))
	}
	return &value.Array{Span: l.span(n), Elements: elems}
}

func (l *Lowerer) object(n *sitter.Node) value.Value {
	var entries []value.ObjectEntry
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "pair":
			if e, ok := l.pair(c); ok {
				entries = append(entries, e)
			}
		case "shorthand_property_identifier":
			name := l.text(c)
			entries = append(entries, value.ObjectEntry{
				Key:     name,
				KeySpan: l.span(c),
				Value:   &value.Reference{Span: l.span(c), Name: name},
			})
		case "method_definition":
			if e, ok := l.objectMethod(c); ok {
				entries = append(entries, e)
			}
		case "spread_element":
			if inner := c.NamedChild(0); inner != nil {
				entries = append(entries, value.ObjectEntry{
					KeySpan: l.span(c),
					Spread:  &value.Spread{Span: l.span(c), Target: l.Expression(inner)},
				})
			}
		case "comment":
		default:
			entries = append(entries, value.ObjectEntry{
				KeySpan: l.span(c),
				Value: l.unknown(c, c.Type(), value.GapDynamicValue,
					"this object entry form is outside the static model"),
			})
		}
	}
	return &value.Object{Span: l.span(n), Entries: entries}
}

func (l *Lowerer) pair(n *sitter.Node) (value.ObjectEntry, bool) {
	keyNode := n.ChildByFieldName("key")
	valNode := n.ChildByFieldName("value")
	if keyNode == nil || valNode == nil {
		return value.ObjectEntry{}, false
	}
	key, ok := l.propertyKey(keyNode)
	if !ok {
		// Runtime-computed key: keep an unkeyed unknown entry so the gap
		// survives in the object.
		return value.ObjectEntry{
			KeySpan: l.span(keyNode),
			Value: l.unknown(keyNode, "computed property name", value.GapComputedProperty,
				"use a literal property name"),
		}, true
	}
	return value.ObjectEntry{Key: key, KeySpan: l.span(keyNode), Value: l.Expression(valNode)}, true
}

// propertyKey extracts a static key from a property name node. Computed names
// are accepted only when they wrap a string or number literal.
func (l *Lowerer) propertyKey(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "property_identifier", "shorthand_property_identifier", "identifier":
		return l.text(n), true
	case "string":
		return l.stringContents(n), true
	case "number":
		return l.text(n), true
	case "computed_property_name":
		if inner := n.NamedChild(0); inner != nil {
			switch inner.Type() {
			case "string":
				return l.stringContents(inner), true
			case "number":
				return l.text(inner), true
			}
		}
		return "", false
	}
	return "", false
}

// objectMethod lowers a method property. Getters produce an unknown value
// (their result is a function return), setters produce no value at all.
func (l *Lowerer) objectMethod(n *sitter.Node) (value.ObjectEntry, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return value.ObjectEntry{}, false
	}
	name, ok := l.propertyKey(nameNode)
	if !ok {
		return value.ObjectEntry{
			KeySpan: l.span(nameNode),
			Value: l.unknown(nameNode, "computed method name", value.GapComputedProperty,
				"use a literal method name"),
		}, true
	}
	switch {
	case hasKeywordChild(n, "set"):
		return value.ObjectEntry{}, false
	case hasKeywordChild(n, "get"):
		return value.ObjectEntry{
			Key:     name,
			KeySpan: l.span(nameNode),
			Value: l.unknown(n, "getter "+name, value.GapFunctionReturn,
				"replace the getter with a plain property"),
		}, true
	}
	return value.ObjectEntry{
		Key:     name,
		KeySpan: l.span(nameNode),
		Value:   l.function(n),
		Method:  true,
	}, true
}

func (l *Lowerer) call(n *sitter.Node) value.Value {
	fnNode := n.ChildByFieldName("function")
	argsNode := n.ChildByFieldName("arguments")
	if fnNode == nil {
		return l.unknown(n, "call expression", value.GapDynamicValue, "")
	}
	if fnNode.Type() == "import" {
		return l.unknown(n, "dynamic import()", value.GapDynamicValue,
			"use a static import declaration at the top of the file")
	}
	if argsNode != nil && argsNode.Type() == "template_string" {
		return l.unknown(n, "tagged template call", value.GapDynamicValue,
			"tagged template results are only known at runtime")
	}
	return &value.Call{
		Span:   l.span(n),
		Callee: l.Expression(fnNode),
		Args:   l.arguments(argsNode),
	}
}

func (l *Lowerer) new(n *sitter.Node) value.Value {
	ctorNode := n.ChildByFieldName("constructor")
	if ctorNode == nil {
		return l.unknown(n, "constructor invocation", value.GapDynamicValue, "")
	}
	return &value.New{
		Span:   l.span(n),
		Callee: l.Expression(ctorNode),
		Args:   l.arguments(n.ChildByFieldName("arguments")),
	}
}

func (l *Lowerer) arguments(n *sitter.Node) []value.Value {
	if n == nil {
		return nil
	}
	var args []value.Value
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		args = append(args, l.Expression(c))
	}
	return args
}

func (l *Lowerer) member(n *sitter.Node) value.Value {
	if hasChildOfType(n, "optional_chain") {
		return l.unknown(n, "optional chaining", value.GapDynamicValue,
			"use a plain property access on a known object")
	}
	objNode := n.ChildByFieldName("object")
	propNode := n.ChildByFieldName("property")
	if objNode == nil || propNode == nil {
		return l.unknown(n, "member expression", value.GapDynamicValue, "")
	}
	return &value.PropertyAccess{
		Span:     l.span(n),
		Base:     l.Expression(objNode),
		Property: l.text(propNode),
	}
}

// subscript lowers base[index]. A string or numeric literal index becomes a
// property name; anything else is a runtime-computed property.
func (l *Lowerer) subscript(n *sitter.Node) value.Value {
	if hasChildOfType(n, "optional_chain") {
		return l.unknown(n, "optional chaining", value.GapDynamicValue,
			"use a plain property access on a known object")
	}
	objNode := n.ChildByFieldName("object")
	idxNode := n.ChildByFieldName("index")
	if objNode == nil || idxNode == nil {
		return l.unknown(n, "element access", value.GapDynamicValue, "")
	}
	switch idxNode.Type() {
	case "string":
		return &value.PropertyAccess{
			Span:     l.span(n),
			Base:     l.Expression(objNode),
			Property: l.stringContents(idxNode),
		}
	case "number":
		return &value.PropertyAccess{
			Span:     l.span(n),
			Base:     l.Expression(objNode),
			Property: l.text(idxNode),
		}
	}
	return l.unknown(n, "computed element access", value.GapComputedProperty,
		"index with a string or number literal")
}

func hasChildOfType(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

func hasKeywordChild(n *sitter.Node, kw string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == kw {
			return true
		}
	}
	return false
}

// parseNumber decodes a JavaScript numeric literal. Unparseable input maps
// to zero; lowering never fails.
func parseNumber(raw string) float64 {
	s := strings.ReplaceAll(raw, "_", "")
	s = strings.TrimSuffix(s, "n") // bigint literal
	if len(s) > 2 {
		var base int
		switch strings.ToLower(s[:2]) {
		case "0x":
			base = 16
		case "0o":
			base = 8
		case "0b":
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0
			}
			return float64(u)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// unescape decodes one escape sequence from a string literal.
func unescape(esc string) string {
	if len(esc) < 2 || esc[0] != '\\' {
		return esc
	}
	switch esc[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	case 'x', 'u':
		body := esc[2:]
		body = strings.TrimPrefix(body, "{")
		body = strings.TrimSuffix(body, "}")
		if code, err := strconv.ParseUint(body, 16, 32); err == nil {
			return string(rune(code))
		}
		return esc
	default:
		// \\ \' \" \` and identity escapes.
		return esc[1:]
	}
}
