package models

import (
	"sync/atomic"
	"time"
)

// GlobalStats represents engine-wide dispatch statistics
type GlobalStats struct {
	TotalRequests     int64           `json:"totalRequests"`
	TotalErrors       int64           `json:"totalErrors"`
	ActiveServices    int             `json:"activeServices"`
	TotalOperations   int             `json:"totalOperations"`
	AvgResponseTimeMs float64         `json:"avgResponseTimeMs"`
	RequestsPerSecond float64         `json:"requestsPerSecond"`
	StartTime         time.Time       `json:"startTime"`
	Uptime            string          `json:"uptime"`
	TopOperations     []OperationStat `json:"topOperations"`
	RecentErrors      []ErrorStat     `json:"recentErrors"`
	RequestsByHour    []HourlyStat    `json:"requestsByHour"`
}

// ServiceStats aggregates the operations of one service
type ServiceStats struct {
	ServiceID         string          `json:"serviceId"`
	ServiceName       string          `json:"serviceName"`
	TotalRequests     int64           `json:"totalRequests"`
	TotalErrors       int64           `json:"totalErrors"`
	AvgResponseTimeMs float64         `json:"avgResponseTimeMs"`
	Operations        []OperationStat `json:"operations"`
}

// OperationStat represents statistics for a specific operation
type OperationStat struct {
	OperationID       string  `json:"operationId"`
	ServiceID         string  `json:"serviceId"`
	Name              string  `json:"name"`
	Method            string  `json:"method"`
	TotalRequests     int64   `json:"totalRequests"`
	TotalErrors       int64   `json:"totalErrors"`
	MockedResponses   int64   `json:"mockedResponses"`
	ForwardedRequests int64   `json:"forwardedRequests"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	MinResponseTimeMs float64 `json:"minResponseTimeMs"`
	MaxResponseTimeMs float64 `json:"maxResponseTimeMs"`
	LastRequestTime   string  `json:"lastRequestTime,omitempty"`
}

// ErrorStat represents a failed dispatch
type ErrorStat struct {
	Timestamp   time.Time `json:"timestamp"`
	ServiceID   string    `json:"serviceId"`
	OperationID string    `json:"operationId"`
	URI         string    `json:"uri"`
	Method      string    `json:"method"`
	StatusCode  int       `json:"statusCode"`
	Error       string    `json:"error"`
}

// HourlyStat represents hourly request statistics
type HourlyStat struct {
	Hour     string `json:"hour"`
	Requests int64  `json:"requests"`
	Errors   int64  `json:"errors"`
}

// AtomicOperationStat is a thread-safe version of operation statistics
type AtomicOperationStat struct {
	OperationID       string
	ServiceID         string
	Name              string
	Method            string
	TotalRequests     atomic.Int64
	TotalErrors       atomic.Int64
	MockedResponses   atomic.Int64
	ForwardedRequests atomic.Int64
	TotalTimeNs       atomic.Int64
	MinTimeNs         atomic.Int64
	MaxTimeNs         atomic.Int64
	LastRequestTime   atomic.Value // stores time.Time
}

// ToOperationStat converts to a regular OperationStat
func (a *AtomicOperationStat) ToOperationStat() OperationStat {
	totalReqs := a.TotalRequests.Load()
	var avgMs float64
	if totalReqs > 0 {
		avgMs = float64(a.TotalTimeNs.Load()) / float64(totalReqs) / 1e6
	}

	var lastReqTime string
	if t, ok := a.LastRequestTime.Load().(time.Time); ok && !t.IsZero() {
		lastReqTime = t.Format(time.RFC3339)
	}

	return OperationStat{
		OperationID:       a.OperationID,
		ServiceID:         a.ServiceID,
		Name:              a.Name,
		Method:            a.Method,
		TotalRequests:     totalReqs,
		TotalErrors:       a.TotalErrors.Load(),
		MockedResponses:   a.MockedResponses.Load(),
		ForwardedRequests: a.ForwardedRequests.Load(),
		AvgResponseTimeMs: avgMs,
		MinResponseTimeMs: float64(a.MinTimeNs.Load()) / 1e6,
		MaxResponseTimeMs: float64(a.MaxTimeNs.Load()) / 1e6,
		LastRequestTime:   lastReqTime,
	}
}
