package expression

import (
	"fmt"
	"regexp"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Grammar:
//
//	expression := "${" name ( "(" ws? ( argument ( "," ws? argument )* )? ws? ")" )? "}"
//	argument   := name "=" value
//	value      := number | string | array
//	array      := "[" ws? ( value ( "," ws? value )* )? ws? "]"
//
// Whitespace is a token, not elided, so it is only accepted where the grammar
// names it.

type expressionNode struct {
	Name string    `parser:"'$' '{' @Name"`
	Call *callNode `parser:"@@? '}'"`
}

type callNode struct {
	Open      string          `parser:"@'(' Whitespace?"`
	Arguments []*argumentNode `parser:"( @@ ( ',' Whitespace? @@ )* )? Whitespace? ')'"`
}

type argumentNode struct {
	Name  string     `parser:"@Name '='"`
	Value *valueNode `parser:"@@"`
}

type valueNode struct {
	String *string    `parser:"  @String"`
	Number *string    `parser:"| @( Number | Name )"`
	Array  *arrayNode `parser:"| @@"`
}

type arrayNode struct {
	Open   string       `parser:"@'[' Whitespace?"`
	Values []*valueNode `parser:"( @@ ( ',' Whitespace? @@ )* )? Whitespace? ']'"`
}

var expressionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Name", Pattern: `[A-Za-z0-9_]+`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Punct", Pattern: `[${}()\[\],=]`},
})

var expressionParser = participle.MustBuild[expressionNode](
	participle.Lexer(expressionLexer),
)

var numberPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Parse parses a complete ${...} span. Any deviation from the grammar is an
// error; callers leave such spans untouched.
func Parse(span string) (*Expression, error) {
	node, err := expressionParser.ParseString("", span)
	if err != nil {
		return nil, err
	}

	expr := &Expression{Identifier: node.Name}
	if node.Call == nil {
		return expr, nil
	}
	for _, arg := range node.Call.Arguments {
		value, err := convertValue(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		expr.Arguments = append(expr.Arguments, Argument{Name: arg.Name, Value: value})
	}
	return expr, nil
}

func convertValue(node *valueNode) (Value, error) {
	switch {
	case node == nil:
		return Value{}, fmt.Errorf("missing value")
	case node.String != nil:
		s := *node.String
		return StringOf(s[1 : len(s)-1]), nil
	case node.Number != nil:
		if !numberPattern.MatchString(*node.Number) {
			return Value{}, fmt.Errorf("invalid number: %s", *node.Number)
		}
		return NumberOf(*node.Number), nil
	case node.Array != nil:
		items := make([]Value, 0, len(node.Array.Values))
		for _, item := range node.Array.Values {
			v, err := convertValue(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return ArrayOf(items...), nil
	default:
		return Value{}, fmt.Errorf("empty value")
	}
}
