package value

// Extraction helpers for pattern-matching consumers. All of them follow
// resolved reference chains first and return ("", false)-style absences on a
// shape mismatch; none of them panic or allocate gaps.

// GetString extracts a string literal from v.
func GetString(v Value) (string, bool) {
	if s, ok := FollowResolved(v).(*String); ok {
		return s.Value, true
	}
	return "", false
}

// GetBool extracts a boolean literal from v.
func GetBool(v Value) (bool, bool) {
	if b, ok := FollowResolved(v).(*Boolean); ok {
		return b.Value, true
	}
	return false, false
}

// GetNumber extracts a numeric literal from v.
func GetNumber(v Value) (float64, bool) {
	if n, ok := FollowResolved(v).(*Number); ok {
		return n.Value, true
	}
	return 0, false
}

// GetStringSlice extracts an array of string literals from v. Spread elements
// with a populated expansion contribute their expanded strings; any
// non-string element fails the whole extraction.
func GetStringSlice(v Value) ([]string, bool) {
	arr, ok := FollowResolved(v).(*Array)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr.Elements))
	for _, e := range arr.Elements {
		if sp, isSpread := e.(*Spread); isSpread {
			if sp.Expanded == nil {
				return nil, false
			}
			for _, x := range sp.Expanded {
				s, sok := GetString(x)
				if !sok {
					return nil, false
				}
				out = append(out, s)
			}
			continue
		}
		s, sok := GetString(e)
		if !sok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// GetProperty extracts the named property from an object value.
func GetProperty(v Value, name string) (Value, bool) {
	obj, ok := FollowResolved(v).(*Object)
	if !ok {
		return nil, false
	}
	return obj.Prop(name)
}

// BindingMode is how a template binding connects a host value to a component
// property.
type BindingMode int

const (
	BindingProperty BindingMode = iota
	BindingAttribute
	BindingTwoWay
)

var bindingModeNames = [...]string{
	BindingProperty:  "property",
	BindingAttribute: "attribute",
	BindingTwoWay:    "two-way",
}

func (m BindingMode) String() string {
	if m < BindingProperty || m > BindingTwoWay {
		return "property"
	}
	return bindingModeNames[m]
}

// GetBindingMode extracts a binding mode from a string value. Recognized
// spellings: "property", "attribute", "two-way" and the camel-cased
// "twoWay".
func GetBindingMode(v Value) (BindingMode, bool) {
	s, ok := GetString(v)
	if !ok {
		return BindingProperty, false
	}
	switch s {
	case "property":
		return BindingProperty, true
	case "attribute":
		return BindingAttribute, true
	case "two-way", "twoWay":
		return BindingTwoWay, true
	}
	return BindingProperty, false
}
