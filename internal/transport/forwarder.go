// Package transport forwards requests to real endpoints for the FORWARDED and
// RECORDING operation states.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/models"
)

// ErrBreakerOpen is returned while an endpoint's circuit breaker is open
var ErrBreakerOpen = errors.New("circuit breaker open")

// ErrBodyTooLarge is returned when an upstream body exceeds the read limit
var ErrBodyTooLarge = errors.New("upstream body too large")

const maxBodySize = 32 << 20

// Hop-by-hop headers are not forwarded in either direction
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Proxy-Connection":    true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Host":                true,
	"Content-Length":      true,
	"Accept-Encoding":     true, // Let the client negotiate and decode compression
}

// BreakerSettings configures the per-host circuit breakers. Failures <= 0
// disables breaking.
type BreakerSettings struct {
	Failures         int
	Timeout          time.Duration
	HalfOpenRequests int
}

// Forwarder sends requests over HTTP with one circuit breaker per host
type Forwarder struct {
	client   *http.Client
	settings BreakerSettings
	maxBody  int64
	logger   *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.TwoStepCircuitBreaker
}

// NewForwarder creates a forwarder. A nil client uses a client without a
// global timeout; callers bound each call with the context.
func NewForwarder(client *http.Client, settings BreakerSettings, logger *zap.Logger) *Forwarder {
	if client == nil {
		client = &http.Client{
			// Upstream redirects are returned to the caller unchanged
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{
		client:   client,
		settings: settings,
		maxBody:  maxBodySize,
		logger:   logger,
		breakers: make(map[string]*gobreaker.TwoStepCircuitBreaker),
	}
}

func (f *Forwarder) breaker(host string) *gobreaker.TwoStepCircuitBreaker {
	if f.settings.Failures <= 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if b, ok := f.breakers[host]; ok {
		return b
	}

	halfOpen := f.settings.HalfOpenRequests
	if halfOpen <= 0 {
		halfOpen = 1
	}
	b := gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: uint32(halfOpen),
		Timeout:     f.settings.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return int(c.ConsecutiveFailures) >= f.settings.Failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			f.logger.Info("Circuit breaker changed state",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	f.breakers[host] = b
	return b
}

// Forward sends the request and returns the upstream response. Upstream error
// statuses are returned as responses; only transport failures are errors.
func (f *Forwarder) Forward(ctx context.Context, endpoint, method string, headers map[string][]string, body string) (*models.OutgoingResponse, error) {
	target, err := url.Parse(endpoint)
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", endpoint)
	}

	done := func(bool) {}
	if b := f.breaker(target.Host); b != nil {
		allow, err := b.Allow()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBreakerOpen, target.Host)
		}
		done = allow
	}

	resp, err := f.do(ctx, target, method, headers, body)
	// An oversized body still proves the upstream is reachable
	done(err == nil || errors.Is(err, ErrBodyTooLarge))
	return resp, err
}

func (f *Forwarder) do(ctx context.Context, target *url.URL, method string, headers map[string][]string, body string) (*models.OutgoingResponse, error) {
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for name, values := range headers {
		if hopHeaders[http.CanonicalHeaderKey(name)] {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream body: %w", err)
	}
	if int64(len(data)) > f.maxBody {
		f.logger.Warn("Upstream body exceeds limit",
			zap.String("url", target.String()),
			zap.Int64("limit", f.maxBody))
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.maxBody)
	}

	out := &models.OutgoingResponse{
		Body:       string(data),
		StatusCode: resp.StatusCode,
	}

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if hopHeaders[name] {
			continue
		}
		if name == "Content-Encoding" {
			out.ContentEncodings = append(out.ContentEncodings, resp.Header[name]...)
			continue
		}
		for _, v := range resp.Header[name] {
			out.Headers = append(out.Headers, models.HTTPHeader{Name: name, Value: v})
		}
	}

	f.logger.Debug("Forwarded request",
		zap.String("method", method),
		zap.String("url", target.String()),
		zap.Int("status", resp.StatusCode))

	return out, nil
}

// States returns the circuit breaker state of every host seen so far
func (f *Forwarder) States() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	states := make(map[string]string, len(f.breakers))
	for host, b := range f.breakers {
		states[host] = b.State().String()
	}
	return states
}
