// Package dispatch runs the per-operation state machine: it resolves a request
// to an operation, then rejects, forwards, records, echoes or mocks it
// according to the operation's status.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/catalog"
	"github.com/prasenjit/servicevirt/internal/models"
	"github.com/prasenjit/servicevirt/internal/selector"
)

var (
	// ErrNotFound is returned when no operation matches the request
	ErrNotFound = catalog.ErrNotFound
	// ErrOperationDisabled is returned for DISABLED operations
	ErrOperationDisabled = errors.New("operation is disabled")
	// ErrNoCandidateResponse is returned when no mock response can be served
	ErrNoCandidateResponse = errors.New("no mocked response available")
	// ErrUpstreamForward is returned when forwarding to the real endpoint fails
	ErrUpstreamForward = errors.New("upstream forward failed")
)

const (
	defaultForwardTimeout = 30 * time.Second
	recordedNameLayout    = "2006/01/02 15:04:05"
)

// Resolver maps a request onto a registered operation
type Resolver interface {
	Resolve(method, requestPath, soapOperation string) (*catalog.Match, error)
}

// Repository is the persistence the dispatcher needs
type Repository interface {
	LoadOperation(id string) (*models.Operation, error)
	SaveOperationStatus(id string, status models.OperationStatus) error
	SaveSequenceIndex(id string, index int) error
	AppendMockResponse(operationID string, resp *models.MockResponse) error
}

// Forwarder sends a request to a real endpoint
type Forwarder interface {
	Forward(ctx context.Context, endpoint, method string, headers map[string][]string, body string) (*models.OutgoingResponse, error)
}

// Auditor receives one event per dispatch. Record must not block.
type Auditor interface {
	Record(event *models.Event)
}

// Observer receives the same events for statistics
type Observer interface {
	Observe(event *models.Event)
}

// Rewriter expands ${...} expressions in a response body
type Rewriter interface {
	Rewrite(text string, req *models.IncomingRequest) string
}

// Options configures a Dispatcher
type Options struct {
	Resolver       Resolver
	Repository     Repository
	Forwarder      Forwarder
	Auditor        Auditor
	Observer       Observer
	Rewriter       Rewriter
	Selector       *selector.Selector
	Cursors        *selector.Cursors
	Logger         *zap.Logger
	DemoMode       bool
	ForwardTimeout time.Duration
	Clock          func() time.Time
}

// Dispatcher serves requests for virtualized operations. It is safe for
// concurrent use.
type Dispatcher struct {
	resolver       Resolver
	repo           Repository
	forwarder      Forwarder
	auditor        Auditor
	observer       Observer
	rewriter       Rewriter
	selector       *selector.Selector
	cursors        *selector.Cursors
	logger         *zap.Logger
	demoMode       bool
	forwardTimeout time.Duration
	now            func() time.Time
}

// New creates a dispatcher, filling unset options with defaults
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		resolver:       opts.Resolver,
		repo:           opts.Repository,
		forwarder:      opts.Forwarder,
		auditor:        opts.Auditor,
		observer:       opts.Observer,
		rewriter:       opts.Rewriter,
		selector:       opts.Selector,
		cursors:        opts.Cursors,
		logger:         opts.Logger,
		demoMode:       opts.DemoMode,
		forwardTimeout: opts.ForwardTimeout,
		now:            opts.Clock,
	}
	if d.selector == nil {
		d.selector = selector.New(nil, nil)
	}
	if d.cursors == nil {
		d.cursors = selector.NewCursors()
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.forwardTimeout <= 0 {
		d.forwardTimeout = defaultForwardTimeout
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// DemoMode reports whether forwarding statuses are served as MOCKED
func (d *Dispatcher) DemoMode() bool {
	return d.demoMode
}

// ResetCursor drops the in-memory sequence cursor of an operation so the next
// SEQUENCE selection reseeds it from storage
func (d *Dispatcher) ResetCursor(operationID string) {
	d.cursors.Reset(operationID)
}

// Dispatch serves one request. Exactly one audit event is emitted per call.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.IncomingRequest) (resp *models.OutgoingResponse, err error) {
	event := &models.Event{
		ID:        uuid.New().String(),
		Method:    req.Method,
		URI:       req.URI,
		StartedAt: d.now(),
	}
	var served *models.MockResponse

	defer func() {
		event.Duration = d.now().Sub(event.StartedAt)
		event.PathParameters = req.PathParameters
		if served != nil {
			event.MockResponseID = served.ID
		}
		if resp != nil {
			event.StatusCode = resp.StatusCode
			event.MockResponseName = resp.MockResponseName
		}
		if err != nil {
			event.Failure = err.Error()
			event.StatusCode = 0
		}
		d.emit(event)
	}()

	match, err := d.resolver.Resolve(req.Method, req.Path, req.SOAPOperation)
	if err != nil {
		return nil, err
	}
	req.PathParameters = match.PathParameters
	event.ServiceID = match.Service.ID
	event.OperationID = match.OperationID

	// Fresh snapshot per dispatch
	op, err := d.repo.LoadOperation(match.OperationID)
	if err != nil {
		return nil, fmt.Errorf("%w: operation %s: %w", ErrNotFound, match.OperationID, err)
	}
	event.OperationName = op.Name
	event.ResponseStrategy = op.ResponseStrategy

	status := op.Status
	if d.demoMode && status.Forwards() {
		status = models.StatusMocked
	}
	event.OperationStatus = status

	switch status {
	case models.StatusDisabled:
		return nil, fmt.Errorf("%w: %s", ErrOperationDisabled, op.Name)

	case models.StatusForwarded:
		resp, err = d.forward(ctx, match.Service, op, req)
		if err != nil {
			return nil, err
		}

	case models.StatusRecording, models.StatusRecordOnce:
		resp, err = d.forward(ctx, match.Service, op, req)
		if err != nil {
			return nil, err
		}
		d.record(op, status, resp)

	case models.StatusEcho:
		resp = d.echo(req)

	default:
		resp, served, err = d.mock(op, req)
		if err != nil {
			return nil, err
		}
	}

	if op.SimulateNetworkDelay && op.NetworkDelay > 0 {
		if err := d.delay(ctx, time.Duration(op.NetworkDelay)*time.Millisecond); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (d *Dispatcher) emit(event *models.Event) {
	if d.auditor != nil {
		d.auditor.Record(event)
	}
	if d.observer != nil {
		d.observer.Observe(event)
	}
}

func (d *Dispatcher) forward(ctx context.Context, svc *models.Service, op *models.Operation, req *models.IncomingRequest) (*models.OutgoingResponse, error) {
	if d.forwarder == nil || op.ForwardedEndpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint configured for %s", ErrUpstreamForward, op.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, d.forwardTimeout)
	defer cancel()

	endpoint := forwardURL(svc, op.ForwardedEndpoint, req)
	resp, err := d.forwarder.Forward(ctx, endpoint, req.Method, req.Headers, req.Body)
	if err != nil {
		d.logger.Warn("Forward failed",
			zap.String("operation", op.ID),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstreamForward, endpoint, err)
	}
	resp.MockResponseName = "Forwarded response"
	return resp, nil
}

// forwardURL appends the request path below the service base path and the
// query string to a REST endpoint. SOAP endpoints are used as configured.
func forwardURL(svc *models.Service, endpoint string, req *models.IncomingRequest) string {
	if svc != nil && svc.Type == models.ServiceTypeSOAP {
		return endpoint
	}

	rest := req.Path
	if svc != nil {
		base := path.Join("/", svc.BasePath)
		if base != "/" && len(rest) >= len(base) && strings.EqualFold(rest[:len(base)], base) {
			rest = rest[len(base):]
		}
	}

	url := strings.TrimSuffix(endpoint, "/") + rest
	if i := strings.IndexByte(req.URI, '?'); i >= 0 {
		url += req.URI[i:]
	}
	return url
}

// record appends the forwarded response as a new mock response. RECORD_ONCE
// switches the operation to MOCKED once a recording has been stored.
func (d *Dispatcher) record(op *models.Operation, status models.OperationStatus, resp *models.OutgoingResponse) {
	recorded := &models.MockResponse{
		Name:             "Recorded response " + d.now().Format(recordedNameLayout),
		Status:           models.MockResponseEnabled,
		Body:             resp.Body,
		HTTPStatusCode:   resp.StatusCode,
		Headers:          append([]models.HTTPHeader(nil), resp.Headers...),
		ContentEncodings: append([]string(nil), resp.ContentEncodings...),
	}

	if err := d.repo.AppendMockResponse(op.ID, recorded); err != nil {
		d.logger.Error("Failed to store recorded response",
			zap.String("operation", op.ID),
			zap.Error(err))
		return
	}

	if status != models.StatusRecordOnce {
		return
	}
	if err := d.repo.SaveOperationStatus(op.ID, models.StatusMocked); err != nil {
		d.logger.Error("Failed to switch operation to MOCKED",
			zap.String("operation", op.ID),
			zap.Error(err))
	}
}

func (d *Dispatcher) echo(req *models.IncomingRequest) *models.OutgoingResponse {
	contentType := req.ContentType
	if contentType == "" {
		contentType = req.Header("Content-Type")
	}

	resp := &models.OutgoingResponse{
		Body:             req.Body,
		StatusCode:       http.StatusOK,
		MockResponseName: "Echo response",
	}
	if contentType != "" {
		resp.Headers = []models.HTTPHeader{{Name: "Content-Type", Value: contentType}}
	}
	return resp
}

func (d *Dispatcher) mock(op *models.Operation, req *models.IncomingRequest) (*models.OutgoingResponse, *models.MockResponse, error) {
	opts := selector.Options{
		Strategy:               op.ResponseStrategy,
		MultipleStrategies:     op.MultipleStrategies,
		Accept:                 req.HeaderValues("Accept"),
		Request:                req,
		DefaultXPathResponseID: op.DefaultXPathMockResponseID,
		Cursor:                 op.CurrentResponseSequenceIndex,
	}

	var result *selector.Result
	var err error

	if op.UsesStrategy(models.StrategySequence) {
		err = d.cursors.Advance(op.ID, op.CurrentResponseSequenceIndex, func(current int) (int, bool, error) {
			opts.Cursor = current
			result, err = d.selector.Select(op.MockResponses, opts)
			if err != nil {
				return current, false, err
			}
			if !result.CursorAdvanced {
				return current, false, nil
			}
			// Written inside the critical section so stored values stay ordered
			if err := d.repo.SaveSequenceIndex(op.ID, result.NextCursor); err != nil {
				d.logger.Warn("Failed to persist sequence index",
					zap.String("operation", op.ID),
					zap.Error(err))
			}
			return result.NextCursor, true, nil
		})
	} else {
		result, err = d.selector.Select(op.MockResponses, opts)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrNoCandidateResponse, op.Name, err)
	}

	chosen := result.Response
	body := chosen.Body
	if chosen.UsingExpressions && d.rewriter != nil {
		body = d.rewriter.Rewrite(body, req)
	}

	statusCode := chosen.HTTPStatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	return &models.OutgoingResponse{
		Body:             body,
		StatusCode:       statusCode,
		Headers:          append([]models.HTTPHeader(nil), chosen.Headers...),
		ContentEncodings: append([]string(nil), chosen.ContentEncodings...),
		MockResponseName: chosen.Name,
	}, chosen, nil
}

// delay waits for the simulated network latency. Cancellation discards the
// response.
func (d *Dispatcher) delay(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		d.logger.Debug("Simulated delay interrupted", zap.Duration("delay", wait), zap.Error(ctx.Err()))
		return ctx.Err()
	}
}
