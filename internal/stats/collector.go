// Package stats aggregates dispatch statistics from audit events.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/prasenjit/servicevirt/internal/models"
)

// Collector collects and aggregates statistics
type Collector struct {
	mu             sync.RWMutex
	startTime      time.Time
	operations     map[string]*models.AtomicOperationStat // operationID -> stats
	unmatched      int64                                  // requests no operation matched
	recentErrors   []models.ErrorStat
	hourlyStats    map[string]*hourlyCounter // "YYYY-MM-DD-HH" -> counter
	maxErrors      int
	maxHourlySlots int
	metrics        *Metrics
}

type hourlyCounter struct {
	Hour     string
	Requests int64
	Errors   int64
}

// NewCollector creates a new statistics collector. metrics may be nil.
func NewCollector(metrics *Metrics) *Collector {
	return &Collector{
		startTime:      time.Now(),
		operations:     make(map[string]*models.AtomicOperationStat),
		recentErrors:   make([]models.ErrorStat, 0),
		hourlyStats:    make(map[string]*hourlyCounter),
		maxErrors:      100,
		maxHourlySlots: 168, // 7 days
		metrics:        metrics,
	}
}

// Observe records one dispatch
func (c *Collector) Observe(event *models.Event) {
	if c.metrics != nil {
		c.metrics.Observe(event)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	failed := event.Failed()

	if event.OperationID == "" {
		c.unmatched++
	} else {
		c.recordOperation(event, failed)
	}

	if failed {
		c.recordError(event)
	}

	hourKey := event.StartedAt.Format("2006-01-02-15")
	hourly, ok := c.hourlyStats[hourKey]
	if !ok {
		hourly = &hourlyCounter{Hour: hourKey}
		c.hourlyStats[hourKey] = hourly
		c.cleanupOldHourlyStats()
	}
	hourly.Requests++
	if failed {
		hourly.Errors++
	}
}

func (c *Collector) recordOperation(event *models.Event, failed bool) {
	durationNs := event.Duration.Nanoseconds()

	opStats, ok := c.operations[event.OperationID]
	if !ok {
		opStats = &models.AtomicOperationStat{
			OperationID: event.OperationID,
			ServiceID:   event.ServiceID,
			Name:        event.OperationName,
			Method:      event.Method,
		}
		opStats.MinTimeNs.Store(durationNs)
		c.operations[event.OperationID] = opStats
	}

	opStats.TotalRequests.Add(1)
	opStats.TotalTimeNs.Add(durationNs)
	opStats.LastRequestTime.Store(event.StartedAt)

	for {
		currentMin := opStats.MinTimeNs.Load()
		if durationNs >= currentMin || opStats.MinTimeNs.CompareAndSwap(currentMin, durationNs) {
			break
		}
	}
	for {
		currentMax := opStats.MaxTimeNs.Load()
		if durationNs <= currentMax || opStats.MaxTimeNs.CompareAndSwap(currentMax, durationNs) {
			break
		}
	}

	if failed {
		opStats.TotalErrors.Add(1)
		return
	}

	switch {
	case event.OperationStatus == models.StatusMocked:
		opStats.MockedResponses.Add(1)
	case event.OperationStatus.Forwards():
		opStats.ForwardedRequests.Add(1)
	}
}

func (c *Collector) recordError(event *models.Event) {
	c.recentErrors = append(c.recentErrors, models.ErrorStat{
		Timestamp:   event.StartedAt,
		ServiceID:   event.ServiceID,
		OperationID: event.OperationID,
		URI:         event.URI,
		Method:      event.Method,
		StatusCode:  event.StatusCode,
		Error:       event.Failure,
	})
	if len(c.recentErrors) > c.maxErrors {
		c.recentErrors = c.recentErrors[1:]
	}
}

// cleanupOldHourlyStats removes hourly stats older than maxHourlySlots
func (c *Collector) cleanupOldHourlyStats() {
	if len(c.hourlyStats) <= c.maxHourlySlots {
		return
	}

	keys := make([]string, 0, len(c.hourlyStats))
	for k := range c.hourlyStats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	toRemove := len(keys) - c.maxHourlySlots
	for i := 0; i < toRemove; i++ {
		delete(c.hourlyStats, keys[i])
	}
}

// GetGlobalStats returns global statistics
func (c *Collector) GetGlobalStats(activeServices, totalOperations int) *models.GlobalStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var totalRequests, totalErrors, totalTimeNs int64

	opStats := make([]models.OperationStat, 0, len(c.operations))
	for _, op := range c.operations {
		stat := op.ToOperationStat()
		opStats = append(opStats, stat)
		totalRequests += stat.TotalRequests
		totalErrors += stat.TotalErrors
		totalTimeNs += op.TotalTimeNs.Load()
	}

	// Sort by total requests (descending)
	sort.Slice(opStats, func(i, j int) bool {
		return opStats[i].TotalRequests > opStats[j].TotalRequests
	})

	topOps := opStats
	if len(topOps) > 10 {
		topOps = topOps[:10]
	}

	var avgResponseTimeMs float64
	if totalRequests > 0 {
		avgResponseTimeMs = float64(totalTimeNs) / float64(totalRequests) / 1e6
	}

	// Unmatched requests count as failed requests
	totalRequests += c.unmatched
	totalErrors += c.unmatched

	uptime := time.Since(c.startTime).Seconds()
	var requestsPerSecond float64
	if uptime > 0 {
		requestsPerSecond = float64(totalRequests) / uptime
	}

	return &models.GlobalStats{
		TotalRequests:     totalRequests,
		TotalErrors:       totalErrors,
		ActiveServices:    activeServices,
		TotalOperations:   totalOperations,
		AvgResponseTimeMs: avgResponseTimeMs,
		RequestsPerSecond: requestsPerSecond,
		StartTime:         c.startTime,
		Uptime:            formatDuration(time.Since(c.startTime)),
		TopOperations:     topOps,
		RecentErrors:      append([]models.ErrorStat(nil), c.recentErrors...),
		RequestsByHour:    c.buildHourlyStats(time.Now()),
	}
}

// GetServiceStats returns statistics for one service
func (c *Collector) GetServiceStats(serviceID, serviceName string) *models.ServiceStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var totalRequests, totalErrors, totalTimeNs int64
	opStats := make([]models.OperationStat, 0)

	for _, op := range c.operations {
		if op.ServiceID != serviceID {
			continue
		}

		stat := op.ToOperationStat()
		opStats = append(opStats, stat)
		totalRequests += stat.TotalRequests
		totalErrors += stat.TotalErrors
		totalTimeNs += op.TotalTimeNs.Load()
	}

	sort.Slice(opStats, func(i, j int) bool {
		return opStats[i].OperationID < opStats[j].OperationID
	})

	var avgResponseTimeMs float64
	if totalRequests > 0 {
		avgResponseTimeMs = float64(totalTimeNs) / float64(totalRequests) / 1e6
	}

	return &models.ServiceStats{
		ServiceID:         serviceID,
		ServiceName:       serviceName,
		TotalRequests:     totalRequests,
		TotalErrors:       totalErrors,
		AvgResponseTimeMs: avgResponseTimeMs,
		Operations:        opStats,
	}
}

// GetOperationStats returns statistics for a specific operation
func (c *Collector) GetOperationStats(operationID string) *models.OperationStat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if op, ok := c.operations[operationID]; ok {
		stat := op.ToOperationStat()
		return &stat
	}

	return nil
}

// buildHourlyStats returns the last 24 hours, oldest first
func (c *Collector) buildHourlyStats(now time.Time) []models.HourlyStat {
	stats := make([]models.HourlyStat, 0, 24)

	for i := 23; i >= 0; i-- {
		hour := now.Add(-time.Duration(i) * time.Hour)
		hourKey := hour.Format("2006-01-02-15")

		stat := models.HourlyStat{
			Hour: hour.Format("15:00"),
		}
		if hourly, ok := c.hourlyStats[hourKey]; ok {
			stat.Requests = hourly.Requests
			stat.Errors = hourly.Errors
		}

		stats = append(stats, stat)
	}

	return stats
}

// Reset resets all statistics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.operations = make(map[string]*models.AtomicOperationStat)
	c.unmatched = 0
	c.recentErrors = make([]models.ErrorStat, 0)
	c.hourlyStats = make(map[string]*hourlyCounter)
}

// formatDuration formats a duration in a human-readable format
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return d.Round(time.Minute).String()
	case d >= time.Minute:
		return d.Round(time.Second).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}
