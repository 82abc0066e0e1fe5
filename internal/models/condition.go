package models

// ConditionSource names the part of the request a condition inspects
type ConditionSource string

const (
	SourcePath   ConditionSource = "path"
	SourceQuery  ConditionSource = "query"
	SourceHeader ConditionSource = "header"
	SourceBody   ConditionSource = "body" // Key is a gjson path
)

// ConditionOperator compares the extracted request value with Condition.Value
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "eq"
	OpNotEquals   ConditionOperator = "ne"
	OpContains    ConditionOperator = "contains"
	OpNotContains ConditionOperator = "notContains"
	OpStartsWith  ConditionOperator = "startsWith"
	OpEndsWith    ConditionOperator = "endsWith"
	OpRegex       ConditionOperator = "regex"
	OpExists      ConditionOperator = "exists"
	OpNotExists   ConditionOperator = "notExists"
	OpGreaterThan ConditionOperator = "gt"
	OpLessThan    ConditionOperator = "lt"
	OpGTE         ConditionOperator = "gte"
	OpLTE         ConditionOperator = "lte"
)

// Condition is a request predicate attached to a mock response and used by the
// CONDITION response strategy
type Condition struct {
	Source   ConditionSource   `json:"source"`
	Key      string            `json:"key"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
}

// Valid reports whether the condition names a known source and operator
func (c Condition) Valid() bool {
	switch c.Source {
	case SourcePath, SourceQuery, SourceHeader, SourceBody:
	default:
		return false
	}
	switch c.Operator {
	case OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpEndsWith,
		OpRegex, OpExists, OpNotExists, OpGreaterThan, OpLessThan, OpGTE, OpLTE:
		return true
	}
	return false
}
