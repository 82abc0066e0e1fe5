package models

import (
	"time"
)

// Event is the audit record emitted once per dispatch
type Event struct {
	ID               string            `json:"id"`
	ServiceID        string            `json:"serviceId,omitempty"`
	OperationID      string            `json:"operationId,omitempty"`
	OperationName    string            `json:"operationName,omitempty"`
	Method           string            `json:"method"`
	URI              string            `json:"uri"`
	PathParameters   map[string]string `json:"pathParameters,omitempty"`
	OperationStatus  OperationStatus   `json:"operationStatus,omitempty"`
	ResponseStrategy ResponseStrategy  `json:"responseStrategy,omitempty"`
	MockResponseID   string            `json:"mockResponseId,omitempty"`
	MockResponseName string            `json:"mockResponseName,omitempty"`
	StatusCode       int               `json:"statusCode"`
	Failure          string            `json:"failure,omitempty"`
	StartedAt        time.Time         `json:"startedAt"`
	Duration         time.Duration     `json:"duration"` // Nanoseconds
}

// Failed reports whether the dispatch ended in an error
func (e *Event) Failed() bool {
	return e.Failure != ""
}

// EventFilter represents filters for querying audit events
type EventFilter struct {
	ServiceID   string    `json:"serviceId,omitempty"`
	OperationID string    `json:"operationId,omitempty"`
	Method      string    `json:"method,omitempty"`
	FailedOnly  bool      `json:"failedOnly,omitempty"`
	StartTime   time.Time `json:"startTime,omitempty"`
	EndTime     time.Time `json:"endTime,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Offset      int       `json:"offset,omitempty"`
}
