// Package value defines the IR every resolution layer reads and writes: a
// tagged-union tree of statically known (or partially known) expression
// values, plus the gap and confidence records that travel alongside them.
//
// Nodes are immutable once constructed. Resolution never mutates a tree; it
// builds new nodes that share unchanged subtrees, so resolved values are safe
// to cache and to read concurrently.
package value

// Span locates a node in its source file by byte offset and line/column.
// Lines and columns are zero-based, matching tree-sitter points.
type Span struct {
	File      string
	StartByte uint32
	EndByte   uint32
	StartLine uint32
	StartCol  uint32
	EndLine   uint32
	EndCol    uint32
}

// Value is the closed set of IR node variants. Every variant is span-tagged.
// Consumers switch exhaustively over the concrete types; there is no open
// extension point.
type Value interface {
	Pos() Span
	value()
}

// String is a fully known string literal.
type String struct {
	Span  Span
	Value string
}

// Number is a fully known numeric literal.
type Number struct {
	Span  Span
	Value float64
}

// Boolean is a fully known boolean literal.
type Boolean struct {
	Span  Span
	Value bool
}

// Null is the JavaScript null literal.
type Null struct {
	Span Span
}

// Undefined is the JavaScript undefined value.
type Undefined struct {
	Span Span
}

// Array is an ordered sequence of element values. Elements that were spread
// expressions appear as *Spread nodes.
type Array struct {
	Span     Span
	Elements []Value
}

// ObjectEntry is one entry of an object literal, in source order. Exactly one
// of the three shapes applies:
//   - keyed value: Key set, Value set, Method false
//   - keyed method: Key set, Value holds a *Function, Method true
//   - spread entry: Spread set, Key empty (merge semantics are left to the
//     consumer; entries are not folded into the key set here)
type ObjectEntry struct {
	Key     string
	KeySpan Span
	Value   Value
	Method  bool
	Spread  Value
}

// Object is an object literal: named properties and methods plus preserved
// spread entries.
type Object struct {
	Span    Span
	Entries []ObjectEntry
}

// Prop returns the value of the named keyed entry, if present. Spread entries
// are not consulted.
func (o *Object) Prop(name string) (Value, bool) {
	for _, e := range o.Entries {
		if e.Spread == nil && e.Key == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Param is one function parameter. Default holds the literal default-value
// expression when one is written; otherwise the parameter's value is only
// known at call time.
type Param struct {
	Name    string
	Default Value
	Rest    bool
}

// Function is a function or method value: parameters plus a lowered statement
// body.
type Function struct {
	Span   Span
	Params []Param
	Body   []Statement
}

// Annotation is a decorator applied to a class or class member: its name and
// lowered argument values.
type Annotation struct {
	Span Span
	Name string
	Args []Value
}

// ClassMember is a field or method of a class, with any decorators applied to
// it.
type ClassMember struct {
	Name        string
	Static      bool
	Method      bool
	Value       Value
	Annotations []Annotation
}

// Class is a reference to a class declaration: its name, defining file,
// decorators, members, and the gaps accumulated while lowering its body.
type Class struct {
	Span        Span
	Name        string
	File        string
	Annotations []Annotation
	Members     []ClassMember
	Gaps        []Gap
}

// StaticMembers returns the class's static members in declaration order.
func (c *Class) StaticMembers() []ClassMember {
	var out []ClassMember
	for _, m := range c.Members {
		if m.Static {
			out = append(out, m)
		}
	}
	return out
}

// Member returns the named member, if present.
func (c *Class) Member(name string) (ClassMember, bool) {
	for _, m := range c.Members {
		if m.Name == name {
			return m, true
		}
	}
	return ClassMember{}, false
}

// Reference is a use of a local name. Resolved is filled by intra-file
// resolution; the reference node itself is preserved so the use site keeps
// its identity. FollowResolved dereferences the chain.
type Reference struct {
	Span     Span
	Name     string
	Resolved Value
}

// Import is a use of a name imported from another module. ResolvedFile and
// Resolved are filled by cross-file resolution.
type Import struct {
	Span         Span
	Specifier    string
	ExportedName string
	ResolvedFile string
	Resolved     Value
}

// PropertyAccess is base.property (or base["property"] / base[0] with a
// static index). Resolved is filled once the base resolves to an object or
// array containing the property.
type PropertyAccess struct {
	Span     Span
	Base     Value
	Property string
	Resolved Value
}

// Call is a call expression: callee plus lowered arguments. Return stays nil
// until an interprocedural pass supplies it.
type Call struct {
	Span   Span
	Callee Value
	Args   []Value
	Return Value
}

// New is a constructor invocation.
type New struct {
	Span   Span
	Callee Value
	Args   []Value
}

// Spread is ...target in an array literal or argument list. Expanded is
// filled once the target resolves to an array.
type Spread struct {
	Span     Span
	Target   Value
	Expanded []Value
}

// Unknown is the analysis boundary: a value that could not be determined,
// carrying the classified reason.
type Unknown struct {
	Span Span
	Gap  Gap
}

func (v *String) Pos() Span         { return v.Span }
func (v *Number) Pos() Span         { return v.Span }
func (v *Boolean) Pos() Span        { return v.Span }
func (v *Null) Pos() Span           { return v.Span }
func (v *Undefined) Pos() Span      { return v.Span }
func (v *Array) Pos() Span          { return v.Span }
func (v *Object) Pos() Span         { return v.Span }
func (v *Function) Pos() Span       { return v.Span }
func (v *Class) Pos() Span          { return v.Span }
func (v *Reference) Pos() Span      { return v.Span }
func (v *Import) Pos() Span         { return v.Span }
func (v *PropertyAccess) Pos() Span { return v.Span }
func (v *Call) Pos() Span           { return v.Span }
func (v *New) Pos() Span            { return v.Span }
func (v *Spread) Pos() Span         { return v.Span }
func (v *Unknown) Pos() Span        { return v.Span }

func (*String) value()         {}
func (*Number) value()         {}
func (*Boolean) value()        {}
func (*Null) value()           {}
func (*Undefined) value()      {}
func (*Array) value()          {}
func (*Object) value()         {}
func (*Function) value()       {}
func (*Class) value()          {}
func (*Reference) value()      {}
func (*Import) value()         {}
func (*PropertyAccess) value() {}
func (*Call) value()           {}
func (*New) value()            {}
func (*Spread) value()         {}
func (*Unknown) value()        {}

// Statement is the closed set of lowered statement variants. Statement kinds
// outside the static model become *UnknownStatement with a classified gap.
type Statement interface {
	Pos() Span
	stmt()
}

// ReturnStatement is a return with its lowered value (*Undefined for a bare
// return).
type ReturnStatement struct {
	Span  Span
	Value Value
}

// ExpressionStatement is a bare expression in statement position.
type ExpressionStatement struct {
	Span  Span
	Value Value
}

// Declaration is one name bound by a declaration statement.
type Declaration struct {
	Span  Span
	Name  string
	Value Value
}

// DeclarationStatement is a const/let/var statement. Shallow destructuring
// patterns are flattened into one Declaration per bound name.
type DeclarationStatement struct {
	Span         Span
	Declarations []Declaration
}

// IfStatement keeps both branches; the condition is tracked as a value but
// never evaluated.
type IfStatement struct {
	Span      Span
	Condition Value
	Then      []Statement
	Else      []Statement
}

// ForOfStatement is a for-of loop: the loop variable name, the iterable, and
// the lowered body.
type ForOfStatement struct {
	Span     Span
	Variable string
	Iterable Value
	Body     []Statement
}

// UnknownStatement is a statement outside the static model, carrying the
// classified reason analysis stopped there.
type UnknownStatement struct {
	Span Span
	Gap  Gap
}

func (s *ReturnStatement) Pos() Span      { return s.Span }
func (s *ExpressionStatement) Pos() Span  { return s.Span }
func (s *DeclarationStatement) Pos() Span { return s.Span }
func (s *IfStatement) Pos() Span          { return s.Span }
func (s *ForOfStatement) Pos() Span       { return s.Span }
func (s *UnknownStatement) Pos() Span     { return s.Span }

func (*ReturnStatement) stmt()      {}
func (*ExpressionStatement) stmt()  {}
func (*DeclarationStatement) stmt() {}
func (*IfStatement) stmt()          {}
func (*ForOfStatement) stmt()       {}
func (*UnknownStatement) stmt()     {}
