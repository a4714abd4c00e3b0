package lower

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/value"
)

// ClassDeclaration lowers a class declaration into a class reference value:
// name, defining file, decorators, members with their decorators, and the
// gaps accumulated over member bodies. Constructs inside the class body that
// fall outside the static model land in the class's gap list rather than
// aborting the class.
func (l *Lowerer) ClassDeclaration(n *sitter.Node) *value.Class {
	cls := &value.Class{Span: l.span(n), File: l.file}
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		cls.Name = l.text(nameNode)
	}
	cls.Annotations = l.decorators(n)

	body := n.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		switch c.Type() {
		case "method_definition":
			l.classMethod(cls, c)
		case "field_definition", "public_field_definition":
			l.classField(cls, c)
		case "comment", "decorator":
		default:
			sp := l.span(c)
			cls.Gaps = append(cls.Gaps, value.NewGap(
				c.Type()+" in class "+cls.Name, value.GapUnsupportedFlow, sp,
				"this class member form is outside the static model"))
		}
	}
	return cls
}

func (l *Lowerer) classMethod(cls *value.Class, n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name, ok := l.propertyKey(nameNode)
	if !ok {
		sp := l.span(nameNode)
		cls.Gaps = append(cls.Gaps, value.NewGap(
			"computed method name in class "+cls.Name, value.GapComputedProperty, sp,
			"use a literal method name"))
		return
	}
	if hasKeywordChild(n, "set") {
		return
	}
	member := value.ClassMember{
		Name:        name,
		Static:      hasKeywordChild(n, "static"),
		Annotations: l.decorators(n),
	}
	if hasKeywordChild(n, "get") {
		member.Value = l.unknown(n, "getter "+name+" in class "+cls.Name,
			value.GapFunctionReturn, "replace the getter with a plain field")
	} else {
		member.Method = true
		member.Value = l.function(n)
	}
	cls.Members = append(cls.Members, member)
}

func (l *Lowerer) classField(cls *value.Class, n *sitter.Node) {
	nameNode := n.ChildByFieldName("property")
	if nameNode == nil {
		nameNode = n.ChildByFieldName("name")
	}
	if nameNode == nil {
		return
	}
	name, ok := l.propertyKey(nameNode)
	if !ok {
		sp := l.span(nameNode)
		cls.Gaps = append(cls.Gaps, value.NewGap(
			"computed field name in class "+cls.Name, value.GapComputedProperty, sp,
			"use a literal field name"))
		return
	}
	member := value.ClassMember{
		Name:        name,
		Static:      hasKeywordChild(n, "static"),
		Annotations: l.decorators(n),
	}
	if valNode := n.ChildByFieldName("value"); valNode != nil {
		member.Value = l.Expression(valNode)
	} else {
		member.Value = &value.Undefined{Span: l.span(n)}
	}
	cls.Members = append(cls.Members, member)
}

// decorators collects the decorator children of a class or member node. A
// decorator is either a bare name (@sealed) or a call (@component({...})).
func (l *Lowerer) decorators(n *sitter.Node) []value.Annotation {
	var out []value.Annotation
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() != "decorator" {
			continue
		}
		inner := c.NamedChild(0)
		if inner == nil {
			continue
		}
		ann := value.Annotation{Span: l.span(c)}
		switch inner.Type() {
		case "identifier":
			ann.Name = l.text(inner)
		case "member_expression":
			ann.Name = l.text(inner)
		case "call_expression":
			if fn := inner.ChildByFieldName("function"); fn != nil {
				ann.Name = l.text(fn)
			}
			ann.Args = l.arguments(inner.ChildByFieldName("arguments"))
		default:
			ann.Name = l.text(inner)
		}
		out = append(out, ann)
	}
	return out
}
