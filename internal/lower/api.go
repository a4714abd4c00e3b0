package lower

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/value"
)

// Source returns the source bytes the Lowerer reads node text from.
func (l *Lowerer) Source() []byte {
	return l.src
}

// Span returns n's location in the owning file.
func (l *Lowerer) Span(n *sitter.Node) value.Span {
	return l.span(n)
}

// Function lowers a function-shaped node (arrow, expression, declaration,
// method definition) to a function value.
func (l *Lowerer) Function(n *sitter.Node) *value.Function {
	return l.function(n)
}

// StringContents decodes a string literal node: quotes stripped, escapes
// applied.
func (l *Lowerer) StringContents(n *sitter.Node) string {
	return l.stringContents(n)
}

// Opaque builds an unknown value for n with a classified gap. Used for
// declarations that are bound but deliberately not modeled, so lookups of
// the name succeed and carry the reason.
func (l *Lowerer) Opaque(n *sitter.Node, what string, kind value.GapKind, suggestion string) *value.Unknown {
	return l.unknown(n, what, kind, suggestion)
}
