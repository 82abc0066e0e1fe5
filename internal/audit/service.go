// Package audit keeps the per-dispatch audit trail: events are queued by the
// dispatcher without blocking, stored in a bounded ring and streamed to
// subscribers.
package audit

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/models"
)

const (
	defaultMaxEvents  = 1000
	defaultBufferSize = 256
	subscriberBuffer  = 100
)

// Service records and serves audit events
type Service struct {
	mu          sync.RWMutex
	events      []*models.Event
	maxEvents   int
	subscribers map[string]chan *models.Event

	queue     chan *models.Event
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64

	logger *zap.Logger
}

// NewService creates an audit service and starts its worker
func NewService(maxEvents, bufferSize int, logger *zap.Logger) *Service {
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		events:      make([]*models.Event, 0),
		maxEvents:   maxEvents,
		subscribers: make(map[string]chan *models.Event),
		queue:       make(chan *models.Event, bufferSize),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		logger:      logger,
	}
	go s.run()
	return s
}

func (s *Service) run() {
	defer close(s.stopped)
	for {
		select {
		case event := <-s.queue:
			s.Append(event)
		case <-s.done:
			// Drain what was queued before Close
			for {
				select {
				case event := <-s.queue:
					s.Append(event)
				default:
					return
				}
			}
		}
	}
}

// Record queues an event and returns immediately. Events are dropped, and
// counted, when the queue is full or the service is closed.
func (s *Service) Record(event *models.Event) {
	select {
	case <-s.done:
		s.dropped.Add(1)
		return
	default:
	}

	select {
	case s.queue <- event:
	default:
		s.dropped.Add(1)
		s.logger.Warn("Audit queue full, dropping event",
			zap.String("operation", event.OperationID),
			zap.String("uri", event.URI))
	}
}

// Append stores an event synchronously and notifies subscribers
func (s *Service) Append(event *models.Event) {
	s.mu.Lock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.StartedAt.IsZero() {
		event.StartedAt = time.Now()
	}

	s.events = append(s.events, event)
	if len(s.events) > s.maxEvents {
		s.events = s.events[len(s.events)-s.maxEvents:]
	}

	// Sends happen under the lock so Unsubscribe cannot close a channel mid-send
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber, skip
		}
	}

	s.mu.Unlock()

	if event.Failed() {
		s.logger.Info("Dispatch failed",
			zap.String("operation", event.OperationID),
			zap.String("method", event.Method),
			zap.String("uri", event.URI),
			zap.String("failure", event.Failure))
	}
}

// Close stops the worker after the queued events are stored
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
	})
}

// GetEvents returns events matching the filter, newest first
func (s *Service) GetEvents(filter *models.EventFilter) []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Event, 0)
	skipped := 0

	for i := len(s.events) - 1; i >= 0; i-- {
		event := s.events[i]
		if filter != nil && !matches(event, filter) {
			continue
		}
		if filter != nil && skipped < filter.Offset {
			skipped++
			continue
		}

		result = append(result, event)
		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	return result
}

func matches(event *models.Event, filter *models.EventFilter) bool {
	if filter.ServiceID != "" && event.ServiceID != filter.ServiceID {
		return false
	}
	if filter.OperationID != "" && event.OperationID != filter.OperationID {
		return false
	}
	if filter.Method != "" && !strings.EqualFold(event.Method, filter.Method) {
		return false
	}
	if filter.FailedOnly && !event.Failed() {
		return false
	}
	if !filter.StartTime.IsZero() && event.StartedAt.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && event.StartedAt.After(filter.EndTime) {
		return false
	}
	return true
}

// GetEvent returns a single event by ID
func (s *Service) GetEvent(id string) *models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, event := range s.events {
		if event.ID == id {
			return event
		}
	}
	return nil
}

// ClearEvents removes all events
func (s *Service) ClearEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]*models.Event, 0)
}

// ClearEventsByService removes the events of one service
func (s *Service) ClearEventsByService(serviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]*models.Event, 0, len(s.events))
	for _, event := range s.events {
		if event.ServiceID != serviceID {
			filtered = append(filtered, event)
		}
	}
	s.events = filtered
}

// Subscribe creates a subscription for live events
func (s *Service) Subscribe() (string, chan *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.Event, subscriberBuffer)
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// GetStats returns audit statistics
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"totalEvents":       len(s.events),
		"maxEvents":         s.maxEvents,
		"queuedEvents":      len(s.queue),
		"droppedEvents":     s.dropped.Load(),
		"activeSubscribers": len(s.subscribers),
	}
}
