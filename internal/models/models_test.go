package models

import (
	"testing"
)

func TestOperationStatus(t *testing.T) {
	tests := []struct {
		status   OperationStatus
		valid    bool
		forwards bool
	}{
		{StatusDisabled, true, false},
		{StatusForwarded, true, true},
		{StatusRecording, true, true},
		{StatusRecordOnce, true, true},
		{StatusEcho, true, false},
		{StatusMocked, true, false},
		{"PAUSED", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Expected Valid() %v, got %v", tt.valid, got)
			}
			if got := tt.status.Forwards(); got != tt.forwards {
				t.Errorf("Expected Forwards() %v, got %v", tt.forwards, got)
			}
		})
	}
}

func TestOperation_Clone(t *testing.T) {
	op := &Operation{
		ID:                 "op-1",
		MultipleStrategies: []ResponseStrategy{StrategySequence},
		MockResponses: []MockResponse{
			{ID: "r1", Headers: []HTTPHeader{{Name: "Content-Type", Value: "application/json"}}},
		},
	}

	clone := op.Clone()
	clone.MultipleStrategies[0] = StrategyRandom
	clone.MockResponses[0].Headers[0].Value = "text/plain"
	clone.MockResponses[0].ID = "changed"

	if op.MultipleStrategies[0] != StrategySequence {
		t.Errorf("Expected original strategies untouched, got %v", op.MultipleStrategies)
	}
	if op.MockResponses[0].ID != "r1" {
		t.Errorf("Expected original response id 'r1', got %q", op.MockResponses[0].ID)
	}
	if op.MockResponses[0].Headers[0].Value != "application/json" {
		t.Errorf("Expected original header untouched, got %q", op.MockResponses[0].Headers[0].Value)
	}

	var nilOp *Operation
	if nilOp.Clone() != nil {
		t.Error("Expected nil clone of nil operation")
	}
}

func TestOperation_UsesStrategy(t *testing.T) {
	op := &Operation{
		ResponseStrategy:   StrategyMultiple,
		MultipleStrategies: []ResponseStrategy{StrategyXPath, StrategySequence},
	}

	if !op.UsesStrategy(StrategySequence) {
		t.Error("Expected MULTIPLE with SEQUENCE sub-strategy to use SEQUENCE")
	}
	if op.UsesStrategy(StrategyRandom) {
		t.Error("Expected RANDOM not to be used")
	}

	op = &Operation{ResponseStrategy: StrategySequence, MultipleStrategies: []ResponseStrategy{StrategyXPath}}
	if op.UsesStrategy(StrategyXPath) {
		t.Error("Expected sub-strategies to be ignored outside MULTIPLE")
	}
}

func TestMockResponse_HeaderValues(t *testing.T) {
	resp := &MockResponse{Headers: []HTTPHeader{
		{Name: "Content-Type", Value: "application/json"},
		{Name: "X-Trace", Value: "a"},
		{Name: "x-trace", Value: "b"},
	}}

	values := resp.HeaderValues("X-TRACE")
	if len(values) != 2 || values[0] != "a" || values[1] != "b" {
		t.Errorf("Expected [a b], got %v", values)
	}
	if got := resp.HeaderValues("Accept"); len(got) != 0 {
		t.Errorf("Expected no values, got %v", got)
	}
}

func TestCondition_Valid(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"header equals", Condition{Source: SourceHeader, Key: "X-Id", Operator: OpEquals, Value: "1"}, true},
		{"body exists", Condition{Source: SourceBody, Key: "user.id", Operator: OpExists}, true},
		{"unknown source", Condition{Source: "cookie", Key: "a", Operator: OpEquals}, false},
		{"unknown operator", Condition{Source: SourceQuery, Key: "a", Operator: "like"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.Valid(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIncomingRequest_Lookups(t *testing.T) {
	req := &IncomingRequest{
		Headers:        map[string][]string{"Content-Type": {"application/xml"}},
		Query:          map[string][]string{"page": {"2", "3"}},
		PathParameters: map[string]string{"id": "42"},
	}

	if got := req.Header("content-type"); got != "application/xml" {
		t.Errorf("Expected 'application/xml', got %q", got)
	}
	if got := req.QueryValue("page"); got != "2" {
		t.Errorf("Expected '2', got %q", got)
	}
	if got := req.PathParameter("id"); got != "42" {
		t.Errorf("Expected '42', got %q", got)
	}

	var nilReq *IncomingRequest
	if got := nilReq.Header("x"); got != "" {
		t.Errorf("Expected empty header from nil request, got %q", got)
	}
}
