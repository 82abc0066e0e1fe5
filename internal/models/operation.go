package models

import "strings"

// OperationStatus decides what the dispatcher does with a request
type OperationStatus string

const (
	StatusDisabled   OperationStatus = "DISABLED"
	StatusForwarded  OperationStatus = "FORWARDED"
	StatusRecording  OperationStatus = "RECORDING"
	StatusRecordOnce OperationStatus = "RECORD_ONCE"
	StatusEcho       OperationStatus = "ECHO"
	StatusMocked     OperationStatus = "MOCKED"
)

// Valid reports whether s is a known status
func (s OperationStatus) Valid() bool {
	switch s {
	case StatusDisabled, StatusForwarded, StatusRecording, StatusRecordOnce, StatusEcho, StatusMocked:
		return true
	}
	return false
}

// Forwards reports whether the status sends traffic to the real endpoint
func (s OperationStatus) Forwards() bool {
	return s == StatusForwarded || s == StatusRecording || s == StatusRecordOnce
}

// ResponseStrategy decides which mock response is served
type ResponseStrategy string

const (
	StrategyRandom    ResponseStrategy = "RANDOM"
	StrategySequence  ResponseStrategy = "SEQUENCE"
	StrategyXPath     ResponseStrategy = "XPATH"
	StrategyCondition ResponseStrategy = "CONDITION"
	StrategyMultiple  ResponseStrategy = "MULTIPLE"
)

// Valid reports whether s is a known strategy
func (s ResponseStrategy) Valid() bool {
	switch s {
	case StrategyRandom, StrategySequence, StrategyXPath, StrategyCondition, StrategyMultiple:
		return true
	}
	return false
}

// Operation is a single virtualized endpoint: a REST method on a URI template or
// a SOAP operation on a port
type Operation struct {
	ID                           string             `json:"id"`
	ServiceID                    string             `json:"serviceId"`
	Name                         string             `json:"name"`
	Method                       string             `json:"method"`               // GET, POST, PUT, DELETE, PATCH, etc.
	URI                          string             `json:"uri"`                  // Template relative to the service base path e.g. /users/{id}
	Identifier                   string             `json:"identifier,omitempty"` // SOAP operation name
	Status                       OperationStatus    `json:"status"`
	ResponseStrategy             ResponseStrategy   `json:"responseStrategy"`
	MultipleStrategies           []ResponseStrategy `json:"multipleStrategies,omitempty"`
	CurrentResponseSequenceIndex int                `json:"currentResponseSequenceIndex"`
	ForwardedEndpoint            string             `json:"forwardedEndpoint,omitempty"`
	SimulateNetworkDelay         bool               `json:"simulateNetworkDelay"`
	NetworkDelay                 int64              `json:"networkDelay"` // Milliseconds
	DefaultXPathMockResponseID   string             `json:"defaultXPathMockResponseId,omitempty"`
	MockResponses                []MockResponse     `json:"mockResponses,omitempty"`
}

// Clone returns a deep copy of the operation and its mock responses
func (o *Operation) Clone() *Operation {
	if o == nil {
		return nil
	}
	c := *o
	c.MultipleStrategies = append([]ResponseStrategy(nil), o.MultipleStrategies...)
	if o.MockResponses != nil {
		c.MockResponses = make([]MockResponse, len(o.MockResponses))
		for i := range o.MockResponses {
			c.MockResponses[i] = *o.MockResponses[i].Clone()
		}
	}
	return &c
}

// FindMockResponse returns the mock response with the given id, or nil
func (o *Operation) FindMockResponse(id string) *MockResponse {
	for i := range o.MockResponses {
		if o.MockResponses[i].ID == id {
			return &o.MockResponses[i]
		}
	}
	return nil
}

// UsesStrategy reports whether the operation's selection involves s, either
// directly or as a MULTIPLE sub-strategy
func (o *Operation) UsesStrategy(s ResponseStrategy) bool {
	if o.ResponseStrategy == s {
		return true
	}
	if o.ResponseStrategy != StrategyMultiple {
		return false
	}
	for _, sub := range o.MultipleStrategies {
		if sub == s {
			return true
		}
	}
	return false
}

// NormalizedMethod returns the upper-cased HTTP method
func (o *Operation) NormalizedMethod() string {
	return strings.ToUpper(o.Method)
}

// OperationSummary is a lightweight version for listings
type OperationSummary struct {
	ID               string           `json:"id"`
	ServiceID        string           `json:"serviceId"`
	Name             string           `json:"name"`
	Method           string           `json:"method"`
	URI              string           `json:"uri"`
	Identifier       string           `json:"identifier,omitempty"`
	Status           OperationStatus  `json:"status"`
	ResponseStrategy ResponseStrategy `json:"responseStrategy"`
	ResponseCount    int              `json:"responseCount"`
}

// Summary converts the operation for listings
func (o *Operation) Summary() OperationSummary {
	return OperationSummary{
		ID:               o.ID,
		ServiceID:        o.ServiceID,
		Name:             o.Name,
		Method:           o.Method,
		URI:              o.URI,
		Identifier:       o.Identifier,
		Status:           o.Status,
		ResponseStrategy: o.ResponseStrategy,
		ResponseCount:    len(o.MockResponses),
	}
}

// OperationInput represents input for creating an operation
type OperationInput struct {
	Name                       string             `json:"name"`
	Method                     string             `json:"method"`
	URI                        string             `json:"uri"`
	Identifier                 string             `json:"identifier"`
	Status                     OperationStatus    `json:"status"`
	ResponseStrategy           ResponseStrategy   `json:"responseStrategy"`
	MultipleStrategies         []ResponseStrategy `json:"multipleStrategies"`
	ForwardedEndpoint          string             `json:"forwardedEndpoint"`
	SimulateNetworkDelay       bool               `json:"simulateNetworkDelay"`
	NetworkDelay               int64              `json:"networkDelay"`
	DefaultXPathMockResponseID string             `json:"defaultXPathMockResponseId"`
}

// OperationUpdate represents input for updating an operation
type OperationUpdate struct {
	Name                         *string             `json:"name,omitempty"`
	Status                       *OperationStatus    `json:"status,omitempty"`
	ResponseStrategy             *ResponseStrategy   `json:"responseStrategy,omitempty"`
	MultipleStrategies           *[]ResponseStrategy `json:"multipleStrategies,omitempty"`
	CurrentResponseSequenceIndex *int                `json:"currentResponseSequenceIndex,omitempty"`
	ForwardedEndpoint            *string             `json:"forwardedEndpoint,omitempty"`
	SimulateNetworkDelay         *bool               `json:"simulateNetworkDelay,omitempty"`
	NetworkDelay                 *int64              `json:"networkDelay,omitempty"`
	DefaultXPathMockResponseID   *string             `json:"defaultXPathMockResponseId,omitempty"`
}
