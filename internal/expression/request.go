package expression

import (
	"strings"

	"github.com/tidwall/gjson"
)

// PathParameterFunction renders a path parameter captured by the operation's
// URI template.
//
//	${PATH_PARAMETER(parameter="id")}
type PathParameterFunction struct{ named }

// NewPathParameterFunction creates the PATH_PARAMETER function
func NewPathParameterFunction() *PathParameterFunction {
	return &PathParameterFunction{named: "PATH_PARAMETER"}
}

// Evaluate implements Function
func (f *PathParameterFunction) Evaluate(in *Input) (string, error) {
	name, _ := in.Arguments.String("parameter")
	return in.Request.PathParameter(name), nil
}

// QueryStringFunction renders the first value of a query parameter.
//
//	${QUERY_STRING(query="page")}
type QueryStringFunction struct{ named }

// NewQueryStringFunction creates the QUERY_STRING function
func NewQueryStringFunction() *QueryStringFunction {
	return &QueryStringFunction{named: "QUERY_STRING"}
}

// Evaluate implements Function
func (f *QueryStringFunction) Evaluate(in *Input) (string, error) {
	name, _ := in.Arguments.String("query")
	return in.Request.QueryValue(name), nil
}

// RequestHeaderFunction renders the first value of a request header.
//
//	${REQUEST_HEADER(name="X-Request-Id")}
type RequestHeaderFunction struct{ named }

// NewRequestHeaderFunction creates the REQUEST_HEADER function
func NewRequestHeaderFunction() *RequestHeaderFunction {
	return &RequestHeaderFunction{named: "REQUEST_HEADER"}
}

// Evaluate implements Function
func (f *RequestHeaderFunction) Evaluate(in *Input) (string, error) {
	name, _ := in.Arguments.String("name")
	return in.Request.Header(name), nil
}

// BodyJSONPathFunction renders a value read from a JSON request body.
//
//	${BODY_JSON_PATH(expression="user.name")}
type BodyJSONPathFunction struct{ named }

// NewBodyJSONPathFunction creates the BODY_JSON_PATH function
func NewBodyJSONPathFunction() *BodyJSONPathFunction {
	return &BodyJSONPathFunction{named: "BODY_JSON_PATH"}
}

// Evaluate implements Function
func (f *BodyJSONPathFunction) Evaluate(in *Input) (string, error) {
	path, _ := in.Arguments.String("expression")
	body, _ := in.Arguments.String(BodyArgument)
	path = strings.TrimPrefix(strings.TrimPrefix(path, "$"), ".")
	if body == "" || path == "" {
		return "", nil
	}
	result := gjson.Get(body, path)
	if !result.Exists() {
		return "", nil
	}
	return result.String(), nil
}
