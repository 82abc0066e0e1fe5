package expression

import (
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value
type ValueKind int

const (
	StringValue ValueKind = iota
	NumberValue
	ArrayValue
)

// String returns the kind name
func (k ValueKind) String() string {
	switch k {
	case StringValue:
		return "string"
	case NumberValue:
		return "number"
	case ArrayValue:
		return "array"
	default:
		return "unknown"
	}
}

// Value is an argument value: a string, a number or an array of values
type Value struct {
	Kind  ValueKind
	Text  string // String contents without quotes, or the number literal
	Items []Value
}

// StringOf returns a string value
func StringOf(s string) Value {
	return Value{Kind: StringValue, Text: s}
}

// NumberOf returns a number value from its literal
func NumberOf(literal string) Value {
	return Value{Kind: NumberValue, Text: literal}
}

// ArrayOf returns an array value
func ArrayOf(items ...Value) Value {
	return Value{Kind: ArrayValue, Items: items}
}

// Float returns the numeric value of a number
func (v Value) Float() (float64, bool) {
	if v.Kind != NumberValue {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Text, 64)
	return f, err == nil
}

// String renders the value the way it would be written in a template
func (v Value) String() string {
	switch v.Kind {
	case StringValue:
		return strconv.Quote(v.Text)
	case ArrayValue:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return v.Text
	}
}

// Argument is a single name=value pair
type Argument struct {
	Name  string
	Value Value
}

// Arguments keeps arguments in declaration order
type Arguments []Argument

// Get returns the value of the named argument. Names compare
// case-insensitively; when a name repeats the last one wins.
func (a Arguments) Get(name string) (Value, bool) {
	for i := len(a) - 1; i >= 0; i-- {
		if strings.EqualFold(a[i].Name, name) {
			return a[i].Value, true
		}
	}
	return Value{}, false
}

// String returns the named argument when it holds a string
func (a Arguments) String(name string) (string, bool) {
	v, ok := a.Get(name)
	if !ok || v.Kind != StringValue {
		return "", false
	}
	return v.Text, true
}

// Has reports whether the named argument is present
func (a Arguments) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Expression is a parsed ${NAME(arg=value, ...)} span
type Expression struct {
	Identifier string
	Arguments  Arguments
}
