// Package proxy serves virtualized traffic over HTTP by handing every request
// to the dispatcher.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/dispatch"
	"github.com/prasenjit/servicevirt/internal/models"
	"github.com/prasenjit/servicevirt/internal/xpath"
)

// StatusClientClosedRequest is logged when the client went away mid-dispatch
const StatusClientClosedRequest = 499

const maxRequestBody = 32 << 20

// Dispatcher serves one virtualized request
type Dispatcher interface {
	Dispatch(ctx context.Context, req *models.IncomingRequest) (*models.OutgoingResponse, error)
}

// Handler adapts HTTP requests to the dispatcher
type Handler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewHandler creates a new proxy handler
func NewHandler(dispatcher Dispatcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{dispatcher: dispatcher, logger: logger}
}

// ServeHTTP dispatches the request and writes the outcome
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := NewIncomingRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		status := StatusCode(err)
		if status == StatusClientClosedRequest {
			h.logger.Debug("Client closed request", zap.String("uri", req.URI))
			return
		}
		if status >= http.StatusInternalServerError {
			h.logger.Warn("Dispatch failed",
				zap.String("method", req.Method),
				zap.String("uri", req.URI),
				zap.Int("status", status),
				zap.Error(err))
		}
		writeError(w, status, err.Error())
		return
	}

	writeResponse(w, resp)
}

// NewIncomingRequest converts an HTTP request into the dispatcher's view
func NewIncomingRequest(r *http.Request) (*models.IncomingRequest, error) {
	var body string
	if r.Body != nil {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			return nil, err
		}
		body = string(data)
	}

	req := &models.IncomingRequest{
		Method:      r.Method,
		URI:         r.URL.RequestURI(),
		Path:        r.URL.Path,
		Body:        body,
		Headers:     map[string][]string(r.Header.Clone()),
		Query:       map[string][]string(r.URL.Query()),
		ContentType: r.Header.Get("Content-Type"),
	}
	req.SOAPOperation = soapOperation(r.Header, body)
	return req, nil
}

// soapOperation names the SOAP operation from the SOAPAction header, the SOAP
// 1.2 action parameter, or the first element of the SOAP body
func soapOperation(header http.Header, body string) string {
	if action := header.Get("SOAPAction"); action != "" {
		if name := xpath.ActionName(action); name != "" {
			return name
		}
	}

	if _, params, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil {
		if action := params["action"]; action != "" {
			if name := xpath.ActionName(action); name != "" {
				return name
			}
		}
	}

	if strings.HasPrefix(strings.TrimSpace(body), "<") {
		return xpath.OperationName(body)
	}
	return ""
}

// StatusCode maps dispatch failures onto HTTP statuses
func StatusCode(err error) int {
	switch {
	case errors.Is(err, dispatch.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dispatch.ErrOperationDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, dispatch.ErrUpstreamForward):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeResponse(w http.ResponseWriter, resp *models.OutgoingResponse) {
	for _, h := range resp.Headers {
		w.Header().Add(h.Name, h.Value)
	}
	for _, encoding := range resp.ContentEncodings {
		w.Header().Add("Content-Encoding", encoding)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
