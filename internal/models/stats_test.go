package models

import (
	"testing"
	"time"
)

func TestAtomicOperationStat_ToOperationStat(t *testing.T) {
	aos := &AtomicOperationStat{
		OperationID: "op-1",
		ServiceID:   "svc-1",
		Name:        "getUser",
		Method:      "GET",
	}

	aos.TotalRequests.Store(100)
	aos.TotalErrors.Store(5)
	aos.MockedResponses.Store(80)
	aos.ForwardedRequests.Store(15)
	aos.TotalTimeNs.Store(1000000000) // 1 second = 1000ms
	aos.MinTimeNs.Store(5000000)      // 5ms
	aos.MaxTimeNs.Store(50000000)     // 50ms
	aos.LastRequestTime.Store(time.Now())

	stat := aos.ToOperationStat()

	if stat.OperationID != "op-1" {
		t.Errorf("Expected operation ID 'op-1', got %q", stat.OperationID)
	}
	if stat.ServiceID != "svc-1" {
		t.Errorf("Expected service ID 'svc-1', got %q", stat.ServiceID)
	}
	if stat.Name != "getUser" {
		t.Errorf("Expected name 'getUser', got %q", stat.Name)
	}
	if stat.TotalRequests != 100 {
		t.Errorf("Expected 100 requests, got %d", stat.TotalRequests)
	}
	if stat.MockedResponses != 80 {
		t.Errorf("Expected 80 mocked responses, got %d", stat.MockedResponses)
	}
	if stat.ForwardedRequests != 15 {
		t.Errorf("Expected 15 forwarded requests, got %d", stat.ForwardedRequests)
	}
	// Avg should be 1000ms / 100 = 10ms
	if stat.AvgResponseTimeMs != 10.0 {
		t.Errorf("Expected avg 10ms, got %v", stat.AvgResponseTimeMs)
	}
	if stat.MinResponseTimeMs != 5.0 {
		t.Errorf("Expected min 5ms, got %v", stat.MinResponseTimeMs)
	}
	if stat.MaxResponseTimeMs != 50.0 {
		t.Errorf("Expected max 50ms, got %v", stat.MaxResponseTimeMs)
	}
	if stat.LastRequestTime == "" {
		t.Error("Expected non-empty last request time")
	}
}

func TestAtomicOperationStat_ZeroRequests(t *testing.T) {
	aos := &AtomicOperationStat{OperationID: "op-1"}

	stat := aos.ToOperationStat()

	if stat.TotalRequests != 0 {
		t.Errorf("Expected 0 requests, got %d", stat.TotalRequests)
	}
	if stat.AvgResponseTimeMs != 0 {
		t.Errorf("Expected avg 0, got %v", stat.AvgResponseTimeMs)
	}
	if stat.LastRequestTime != "" {
		t.Errorf("Expected empty last request time, got %q", stat.LastRequestTime)
	}
}
