package lower

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/value"
)

// Statement lowers a statement node. Statement kinds outside the static
// model become *value.UnknownStatement, each with its own reason so a
// consumer can report precisely why analysis stopped.
func (l *Lowerer) Statement(n *sitter.Node) value.Statement {
	switch n.Type() {
	case "expression_statement":
		if inner := n.NamedChild(0); inner != nil {
			return &value.ExpressionStatement{Span: l.span(n), Value: l.Expression(inner)}
		}
		return l.unknownStmt(n, "empty expression statement", value.GapUnsupportedFlow, "")
	case "return_statement":
		ret := &value.ReturnStatement{Span: l.span(n)}
		if inner := n.NamedChild(0); inner != nil {
			ret.Value = l.Expression(inner)
		} else {
			ret.Value = &value.Undefined{Span: l.span(n)}
		}
		return ret
	case "lexical_declaration", "variable_declaration":
		return l.declaration(n)
	case "if_statement":
		return l.ifStatement(n)
	case "for_in_statement":
		return l.forInStatement(n)
	case "statement_block":
		// A bare block introduces scoping the shallow model does not track.
		return l.unknownStmt(n, "block statement", value.GapUnsupportedFlow,
			"hoist the block's declarations to the enclosing scope")
	case "for_statement":
		return l.unknownStmt(n, "traditional for loop", value.GapLoopVariable,
			"use a for-of loop over a statically known array")
	case "while_statement":
		return l.unknownStmt(n, "while loop", value.GapLoopVariable,
			"use a for-of loop over a statically known array")
	case "do_statement":
		return l.unknownStmt(n, "do-while loop", value.GapLoopVariable,
			"use a for-of loop over a statically known array")
	case "switch_statement":
		return l.unknownStmt(n, "switch statement", value.GapUnsupportedFlow,
			"registration inside a switch cannot be tracked statically")
	case "try_statement":
		return l.unknownStmt(n, "try statement", value.GapUnsupportedFlow,
			"move registration out of the try block")
	case "throw_statement":
		return l.unknownStmt(n, "throw statement", value.GapUnsupportedFlow, "")
	case "function_declaration", "generator_function_declaration":
		return l.unknownStmt(n, "local function declaration", value.GapUnsupportedFlow,
			"declare functions at the top level of the file")
	case "class_declaration", "abstract_class_declaration":
		return l.unknownStmt(n, "local class declaration", value.GapUnsupportedFlow,
			"declare classes at the top level of the file")
	case "labeled_statement":
		return l.unknownStmt(n, "labeled statement", value.GapUnsupportedFlow, "")
	case "break_statement", "continue_statement":
		return l.unknownStmt(n, "loop control statement", value.GapUnsupportedFlow, "")
	case "debugger_statement":
		return l.unknownStmt(n, "debugger statement", value.GapUnsupportedFlow, "")
	case "empty_statement":
		return l.unknownStmt(n, "empty statement", value.GapUnsupportedFlow, "")
	case "comment":
		return nil
	}
	return l.unknownStmt(n, n.Type(), value.GapUnsupportedFlow,
		"this statement form is outside the static model")
}

func (l *Lowerer) unknownStmt(n *sitter.Node, what string, kind value.GapKind, suggestion string) *value.UnknownStatement {
	sp := l.span(n)
	return &value.UnknownStatement{Span: sp, Gap: value.NewGap(what, kind, sp, suggestion)}
}

// Block lowers the statements of a statement_block (or program) node,
// skipping comments.
func (l *Lowerer) Block(n *sitter.Node) []value.Statement {
	var out []value.Statement
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		if s := l.Statement(c); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// declaration lowers a const/let/var statement, flattening shallow
// destructuring patterns into one Declaration per bound name.
func (l *Lowerer) declaration(n *sitter.Node) value.Statement {
	decl := &value.DeclarationStatement{Span: l.span(n)}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "variable_declarator" {
			continue
		}
		nameNode := c.ChildByFieldName("name")
		valNode := c.ChildByFieldName("value")
		if nameNode == nil {
			continue
		}
		var init value.Value
		if valNode != nil {
			init = l.Expression(valNode)
		} else {
			init = &value.Undefined{Span: l.span(c)}
		}
		decl.Declarations = append(decl.Declarations, l.bindPattern(nameNode, init)...)
	}
	return decl
}

// bindPattern flattens a declaration target into named bindings. Identifier
// targets bind directly; object and array patterns bind each shallow entry to
// a property access on the initializer. Nested patterns and rest elements are
// not modeled: their names are simply not bound, which downstream lookups
// surface as unresolved references.
func (l *Lowerer) bindPattern(n *sitter.Node, init value.Value) []value.Declaration {
	switch n.Type() {
	case "identifier":
		return []value.Declaration{{Span: l.span(n), Name: l.text(n), Value: init}}
	case "object_pattern":
		return l.bindObjectPattern(n, init)
	case "array_pattern":
		return l.bindArrayPattern(n, init)
	}
	return nil
}

func (l *Lowerer) bindObjectPattern(n *sitter.Node, init value.Value) []value.Declaration {
	var out []value.Declaration
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "shorthand_property_identifier_pattern":
			name := l.text(c)
			out = append(out, value.Declaration{
				Span:  l.span(c),
				Name:  name,
				Value: &value.PropertyAccess{Span: l.span(c), Base: init, Property: name},
			})
		case "pair_pattern":
			keyNode := c.ChildByFieldName("key")
			valNode := c.ChildByFieldName("value")
			if keyNode == nil || valNode == nil || valNode.Type() != "identifier" {
				// Nested patterns stay unbound.
				continue
			}
			key, ok := l.propertyKey(keyNode)
			if !ok {
				continue
			}
			out = append(out, value.Declaration{
				Span:  l.span(valNode),
				Name:  l.text(valNode),
				Value: &value.PropertyAccess{Span: l.span(c), Base: init, Property: key},
			})
		case "object_assignment_pattern":
			// Shorthand with a default: bind the name, ignore the default.
			left := c.ChildByFieldName("left")
			if left != nil && left.Type() == "shorthand_property_identifier_pattern" {
				name := l.text(left)
				out = append(out, value.Declaration{
					Span:  l.span(left),
					Name:  name,
					Value: &value.PropertyAccess{Span: l.span(c), Base: init, Property: name},
				})
			}
		case "rest_pattern":
			// Rest stays unbound: collecting "everything else" needs the
			// merge semantics this layer does not define.
		}
	}
	return out
}

func (l *Lowerer) bindArrayPattern(n *sitter.Node, init value.Value) []value.Declaration {
	var out []value.Declaration
	idx := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "identifier" {
			out = append(out, value.Declaration{
				Span:  l.span(c),
				Name:  l.text(c),
				Value: &value.PropertyAccess{Span: l.span(c), Base: init, Property: strconv.Itoa(idx)},
			})
		}
		// Holes, rest, and nested patterns advance the index but stay
		// unbound.
		idx++
	}
	return out
}

func (l *Lowerer) ifStatement(n *sitter.Node) value.Statement {
	condNode := n.ChildByFieldName("condition")
	consNode := n.ChildByFieldName("consequence")
	stmt := &value.IfStatement{Span: l.span(n)}
	if condNode != nil {
		cond := condNode
		if cond.Type() == "parenthesized_expression" && cond.NamedChild(0) != nil {
			cond = cond.NamedChild(0)
		}
		stmt.Condition = l.Expression(cond)
	} else {
		stmt.Condition = l.unknown(n, "if condition", value.GapDynamicValue, "")
	}
	stmt.Then = l.branch(consNode)
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		// alternative is an else_clause wrapping the statement.
		if inner := alt.NamedChild(0); inner != nil {
			stmt.Else = l.branch(inner)
		}
	}
	return stmt
}

// branch lowers an if/else arm, which may be a block or a single statement.
func (l *Lowerer) branch(n *sitter.Node) []value.Statement {
	if n == nil {
		return nil
	}
	if n.Type() == "statement_block" {
		return l.Block(n)
	}
	if s := l.Statement(n); s != nil {
		return []value.Statement{s}
	}
	return nil
}

// forInStatement lowers for-of loops into the model and rejects for-in loops,
// whose key iteration order and string keys are runtime concerns.
func (l *Lowerer) forInStatement(n *sitter.Node) value.Statement {
	op := n.ChildByFieldName("operator")
	if op == nil || l.text(op) != "of" {
		return l.unknownStmt(n, "for-in loop", value.GapLoopVariable,
			"iterate values with for-of instead of keys with for-in")
	}
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	body := n.ChildByFieldName("body")
	if left == nil || left.Type() != "identifier" || right == nil {
		return l.unknownStmt(n, "for-of loop with a pattern binding", value.GapLoopVariable,
			"bind the loop variable to a plain identifier")
	}
	return &value.ForOfStatement{
		Span:     l.span(n),
		Variable: l.text(left),
		Iterable: l.Expression(right),
		Body:     l.branch(body),
	}
}

// function lowers arrow functions, function expressions, and method
// definitions into a function value: parameters plus a lowered body. An
// expression-bodied arrow becomes a single return statement.
func (l *Lowerer) function(n *sitter.Node) *value.Function {
	fn := &value.Function{Span: l.span(n)}

	if params := n.ChildByFieldName("parameters"); params != nil {
		fn.Params = l.parameters(params)
	} else if p := n.ChildByFieldName("parameter"); p != nil {
		// Single-parameter arrow without parentheses.
		fn.Params = []value.Param{{Name: l.text(p)}}
	}

	body := n.ChildByFieldName("body")
	switch {
	case body == nil:
	case body.Type() == "statement_block":
		fn.Body = l.Block(body)
	default:
		fn.Body = []value.Statement{
			&value.ReturnStatement{Span: l.span(body), Value: l.Expression(body)},
		}
	}
	return fn
}

// parameters flattens a formal parameter list. TypeScript wraps each entry in
// required_parameter/optional_parameter nodes; JavaScript uses bare patterns.
func (l *Lowerer) parameters(n *sitter.Node) []value.Param {
	var out []value.Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "identifier":
			out = append(out, value.Param{Name: l.text(c)})
		case "assignment_pattern":
			left := c.ChildByFieldName("left")
			right := c.ChildByFieldName("right")
			if left != nil && left.Type() == "identifier" {
				p := value.Param{Name: l.text(left)}
				if right != nil {
					p.Default = l.Expression(right)
				}
				out = append(out, p)
			}
		case "rest_pattern":
			if inner := c.NamedChild(0); inner != nil && inner.Type() == "identifier" {
				out = append(out, value.Param{Name: l.text(inner), Rest: true})
			}
		case "required_parameter", "optional_parameter":
			pattern := c.ChildByFieldName("pattern")
			if pattern == nil {
				continue
			}
			if pattern.Type() == "rest_pattern" {
				if inner := pattern.NamedChild(0); inner != nil && inner.Type() == "identifier" {
					out = append(out, value.Param{Name: l.text(inner), Rest: true})
				}
				continue
			}
			if pattern.Type() != "identifier" {
				// Destructured parameters stay unmodeled.
				continue
			}
			p := value.Param{Name: l.text(pattern)}
			if def := c.ChildByFieldName("value"); def != nil {
				p.Default = l.Expression(def)
			}
			out = append(out, p)
		}
	}
	return out
}
