// Package condition evaluates request predicates attached to mock responses.
package condition

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/prasenjit/servicevirt/internal/models"
)

// Evaluator evaluates conditions against an incoming request. Compiled regular
// expressions are cached, so one evaluator should be shared.
type Evaluator struct {
	patterns sync.Map // string -> *regexp.Regexp, nil for invalid patterns
}

// NewEvaluator creates a new condition evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// EvaluateAll reports whether every condition matches (AND). An empty list matches.
func (e *Evaluator) EvaluateAll(conditions []models.Condition, req *models.IncomingRequest) bool {
	for _, cond := range conditions {
		if !e.Evaluate(cond, req) {
			return false
		}
	}
	return true
}

// Evaluate evaluates a single condition
func (e *Evaluator) Evaluate(cond models.Condition, req *models.IncomingRequest) bool {
	return e.compare(Extract(cond.Source, cond.Key, req), cond.Operator, cond.Value)
}

// Extract reads the value a condition inspects. Missing values are "".
func Extract(source models.ConditionSource, key string, req *models.IncomingRequest) string {
	if req == nil {
		return ""
	}
	switch source {
	case models.SourcePath:
		return req.PathParameter(key)
	case models.SourceQuery:
		return req.QueryValue(key)
	case models.SourceHeader:
		return req.Header(key)
	case models.SourceBody:
		result := gjson.Get(req.Body, key)
		if result.Exists() {
			return result.String()
		}
		return ""
	default:
		return ""
	}
}

func (e *Evaluator) compare(actual string, operator models.ConditionOperator, expected string) bool {
	switch operator {
	case models.OpEquals:
		return actual == expected
	case models.OpNotEquals:
		return actual != expected
	case models.OpContains:
		return strings.Contains(actual, expected)
	case models.OpNotContains:
		return !strings.Contains(actual, expected)
	case models.OpStartsWith:
		return strings.HasPrefix(actual, expected)
	case models.OpEndsWith:
		return strings.HasSuffix(actual, expected)
	case models.OpRegex:
		re := e.pattern(expected)
		return re != nil && re.MatchString(actual)
	case models.OpExists:
		return actual != ""
	case models.OpNotExists:
		return actual == ""
	case models.OpGreaterThan:
		return compareNumeric(actual, expected) > 0
	case models.OpLessThan:
		return compareNumeric(actual, expected) < 0
	case models.OpGTE:
		return compareNumeric(actual, expected) >= 0
	case models.OpLTE:
		return compareNumeric(actual, expected) <= 0
	default:
		return false
	}
}

func (e *Evaluator) pattern(expr string) *regexp.Regexp {
	if cached, ok := e.patterns.Load(expr); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	e.patterns.Store(expr, re)
	return re
}

// compareNumeric compares numerically when both sides parse, otherwise as strings
func compareNumeric(a, b string) int {
	aFloat, aErr := strconv.ParseFloat(a, 64)
	bFloat, bErr := strconv.ParseFloat(b, 64)
	if aErr != nil || bErr != nil {
		return strings.Compare(a, b)
	}
	switch {
	case aFloat < bFloat:
		return -1
	case aFloat > bFloat:
		return 1
	default:
		return 0
	}
}
