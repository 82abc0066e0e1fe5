package models

import (
	"strings"
)

// IncomingRequest is the transport-neutral view of a request handed to the
// dispatcher
type IncomingRequest struct {
	Method         string              `json:"method"`
	URI            string              `json:"uri"`  // Raw request URI including the query string
	Path           string              `json:"path"` // Decoded path without the query string
	Body           string              `json:"body"`
	Headers        map[string][]string `json:"headers"`
	Query          map[string][]string `json:"query"`
	ContentType    string              `json:"contentType"`
	SOAPOperation  string              `json:"soapOperation,omitempty"`  // Resolved SOAP operation name
	PathParameters map[string]string   `json:"pathParameters,omitempty"` // Filled in after routing
}

// Header returns the first value of the named header, case-insensitively
func (r *IncomingRequest) Header(name string) string {
	if values := r.HeaderValues(name); len(values) > 0 {
		return values[0]
	}
	return ""
}

// HeaderValues returns every value of the named header, case-insensitively
func (r *IncomingRequest) HeaderValues(name string) []string {
	if r == nil {
		return nil
	}
	var values []string
	for k, vals := range r.Headers {
		if strings.EqualFold(k, name) {
			values = append(values, vals...)
		}
	}
	return values
}

// QueryValue returns the first value of the named query parameter
func (r *IncomingRequest) QueryValue(name string) string {
	if r == nil {
		return ""
	}
	if vals, ok := r.Query[name]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// PathParameter returns the named path parameter extracted during routing
func (r *IncomingRequest) PathParameter(name string) string {
	if r == nil {
		return ""
	}
	return r.PathParameters[name]
}

// OutgoingResponse is the dispatcher's result, written back by the host adapter
type OutgoingResponse struct {
	Body             string       `json:"body"`
	StatusCode       int          `json:"statusCode"`
	Headers          []HTTPHeader `json:"headers,omitempty"`
	ContentEncodings []string     `json:"contentEncodings,omitempty"`
	MockResponseName string       `json:"mockResponseName,omitempty"`
}

// Header returns the first value of the named header, case-insensitively
func (r *OutgoingResponse) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
