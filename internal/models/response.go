package models

import "strings"

// MockResponseStatus marks whether a mock response can be served
type MockResponseStatus string

const (
	MockResponseEnabled  MockResponseStatus = "ENABLED"
	MockResponseDisabled MockResponseStatus = "DISABLED"
)

// HTTPHeader is a single ordered header entry
type HTTPHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MockResponse is a canned response owned by an operation
type MockResponse struct {
	ID               string             `json:"id"`
	OperationID      string             `json:"operationId"`
	Name             string             `json:"name"`
	Status           MockResponseStatus `json:"status"`
	Body             string             `json:"body"`
	HTTPStatusCode   int                `json:"httpStatusCode"`
	Headers          []HTTPHeader       `json:"headers,omitempty"`
	UsingExpressions bool               `json:"usingExpressions"` // Body is rewritten with ${...} expressions
	XPathExpressions []string           `json:"xpathExpressions,omitempty"`
	Conditions       []Condition        `json:"conditions,omitempty"`
	ContentEncodings []string           `json:"contentEncodings,omitempty"`
	Order            int64              `json:"order"` // Declaration order within the operation
}

// Clone returns a deep copy of the mock response
func (m *MockResponse) Clone() *MockResponse {
	if m == nil {
		return nil
	}
	c := *m
	c.Headers = append([]HTTPHeader(nil), m.Headers...)
	c.XPathExpressions = append([]string(nil), m.XPathExpressions...)
	c.Conditions = append([]Condition(nil), m.Conditions...)
	c.ContentEncodings = append([]string(nil), m.ContentEncodings...)
	return &c
}

// Enabled reports whether the response may be selected
func (m *MockResponse) Enabled() bool {
	return m.Status == MockResponseEnabled
}

// HeaderValues returns every value of the named header, case-insensitively
func (m *MockResponse) HeaderValues(name string) []string {
	var values []string
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}
	return values
}

// MockResponseInput represents input for creating a mock response
type MockResponseInput struct {
	Name             string             `json:"name"`
	Status           MockResponseStatus `json:"status"`
	Body             string             `json:"body"`
	HTTPStatusCode   int                `json:"httpStatusCode"`
	Headers          []HTTPHeader       `json:"headers"`
	UsingExpressions bool               `json:"usingExpressions"`
	XPathExpressions []string           `json:"xpathExpressions"`
	Conditions       []Condition        `json:"conditions"`
	ContentEncodings []string           `json:"contentEncodings"`
}

// MockResponseUpdate represents input for updating a mock response
type MockResponseUpdate struct {
	Name             *string             `json:"name,omitempty"`
	Status           *MockResponseStatus `json:"status,omitempty"`
	Body             *string             `json:"body,omitempty"`
	HTTPStatusCode   *int                `json:"httpStatusCode,omitempty"`
	Headers          *[]HTTPHeader       `json:"headers,omitempty"`
	UsingExpressions *bool               `json:"usingExpressions,omitempty"`
	XPathExpressions *[]string           `json:"xpathExpressions,omitempty"`
	Conditions       *[]Condition        `json:"conditions,omitempty"`
	ContentEncodings *[]string           `json:"contentEncodings,omitempty"`
}
