// Package patterns is a pattern-matching consumer of resolved value trees:
// it discovers component registrations and supports ad-hoc matching with
// user-supplied risor expressions. It reads values exclusively through the
// extraction helpers; it never inspects syntax.
package patterns

import (
	"context"
	"fmt"

	"github.com/risor-io/risor"

	"github.com/jward/understory/internal/value"
)

// DefaultRegistrars are the callee names treated as component registration
// calls when the caller does not configure its own set.
var DefaultRegistrars = []string{
	"customElements.define",
	"registerComponent",
	"define",
}

// Registration is one discovered registration call.
type Registration struct {
	// TagName is the statically determined first argument, usually the
	// custom element tag. Empty when it could not be determined.
	TagName string

	// Callee is the dotted name the call was made through.
	Callee string

	// Target is the registered value (class or constructor), dereferenced.
	Target value.Value

	// Config is the registration options value, when a third argument is
	// present.
	Config value.Value

	// Conditional marks registrations found under an if or loop, where it
	// cannot be decided statically whether they run.
	Conditional bool

	Span value.Span
	Gaps []value.Gap
}

// Discovery is the result of scanning one file's statements.
type Discovery struct {
	Registrations []Registration
	Gaps          []value.Gap
}

// Discover scans resolved top-level statements for registration calls.
// Registrations inside if statements and loops are still reported, flagged
// conditional with an explanatory gap.
func Discover(stmts []value.Statement, registrars ...string) Discovery {
	if len(registrars) == 0 {
		registrars = DefaultRegistrars
	}
	d := &discovery{registrars: registrars}
	d.statements(stmts, nil)
	return d.out
}

type discovery struct {
	registrars []string
	out        Discovery
}

// statements walks one statement list. context carries the gaps explaining
// why enclosing control flow makes a registration conditional.
func (d *discovery) statements(stmts []value.Statement, context []value.Gap) {
	for _, st := range stmts {
		switch n := st.(type) {
		case *value.ExpressionStatement:
			d.expression(n.Value, context)
		case *value.IfStatement:
			gap := value.NewGap("registration under a condition",
				value.GapConditionalRegistration, n.Pos(),
				"move the registration out of the if statement")
			d.statements(n.Then, append(context, gap))
			d.statements(n.Else, append(context, gap))
		case *value.ForOfStatement:
			gap := value.NewGap("registration inside a loop",
				value.GapLoopVariable, n.Pos(),
				"register each component with its own literal call")
			d.statements(n.Body, append(context, gap))
		}
	}
}

func (d *discovery) expression(v value.Value, context []value.Gap) {
	call, ok := value.FollowResolved(v).(*value.Call)
	if !ok {
		return
	}
	callee := CalleeName(call.Callee)
	if !d.isRegistrar(callee) {
		return
	}

	reg := Registration{
		Callee:      callee,
		Span:        call.Span,
		Conditional: len(context) > 0,
		Gaps:        append([]value.Gap(nil), context...),
	}
	if len(call.Args) > 0 {
		if tag, tok := value.GetString(call.Args[0]); tok {
			reg.TagName = tag
		} else {
			reg.Gaps = append(reg.Gaps, value.NewGap(
				"registered tag name", value.GapDynamicValue, call.Args[0].Pos(),
				"pass the tag name as a string literal"))
			reg.Gaps = append(reg.Gaps, value.CollectGaps(call.Args[0])...)
		}
	}
	if len(call.Args) > 1 {
		reg.Target = value.FollowResolved(call.Args[1])
		reg.Gaps = append(reg.Gaps, value.CollectGaps(call.Args[1])...)
	}
	if len(call.Args) > 2 {
		reg.Config = value.FollowResolved(call.Args[2])
		reg.Gaps = append(reg.Gaps, value.CollectGaps(call.Args[2])...)
	}
	d.out.Registrations = append(d.out.Registrations, reg)
	d.out.Gaps = append(d.out.Gaps, reg.Gaps...)
}

func (d *discovery) isRegistrar(callee string) bool {
	if callee == "" {
		return false
	}
	for _, r := range d.registrars {
		if callee == r {
			return true
		}
	}
	return false
}

// CalleeName renders a call target as a dotted name: identifier, chained
// property access on identifiers, or an imported name. Anything else yields
// the empty string.
func CalleeName(v value.Value) string {
	switch n := v.(type) {
	case *value.Reference:
		return n.Name
	case *value.Import:
		return n.ExportedName
	case *value.PropertyAccess:
		base := CalleeName(n.Base)
		if base == "" {
			return ""
		}
		return base + "." + n.Property
	}
	return ""
}

// MatchScript evaluates a risor expression against the plain form of v,
// bound as the global "value". The expression's truthiness is the match
// result. The script has no host capabilities beyond the bound value.
func MatchScript(ctx context.Context, script string, v value.Value) (bool, error) {
	result, err := risor.Eval(ctx, script, risor.WithGlobal("value", value.ToPlain(v)))
	if err != nil {
		return false, fmt.Errorf("patterns: match script: %w", err)
	}
	return result.IsTruthy(), nil
}
