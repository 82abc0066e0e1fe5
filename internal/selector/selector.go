// Package selector picks the mock response served for an operation.
package selector

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/prasenjit/servicevirt/internal/models"
)

var (
	// ErrNoCandidates is returned when the operation has no enabled response
	ErrNoCandidates = errors.New("no mocked response available")
	// ErrNoMatchingStrategy is returned when no response satisfies every strategy
	ErrNoMatchingStrategy = errors.New("no candidate satisfies all configured strategies")
)

// XPathMatcher evaluates XPath predicates against a request body
type XPathMatcher interface {
	Match(body string, expressions []string) bool
}

// ConditionMatcher evaluates request conditions
type ConditionMatcher interface {
	EvaluateAll(conditions []models.Condition, req *models.IncomingRequest) bool
}

// Options describes one selection
type Options struct {
	Strategy               models.ResponseStrategy
	MultipleStrategies     []models.ResponseStrategy
	Accept                 []string // Raw Accept header values
	Request                *models.IncomingRequest
	DefaultXPathResponseID string
	Cursor                 int // Current sequence cursor
}

// Result is the outcome of a selection
type Result struct {
	Response       *models.MockResponse
	NextCursor     int
	CursorAdvanced bool
}

// Selector applies response strategies. It holds no per-operation state and is
// safe for concurrent use.
type Selector struct {
	xpath      XPathMatcher
	conditions ConditionMatcher
	intn       func(n int) int
}

// New creates a selector. Either matcher may be nil, in which case the
// corresponding strategy never matches.
func New(xpath XPathMatcher, conditions ConditionMatcher) *Selector {
	return &Selector{xpath: xpath, conditions: conditions, intn: rand.IntN}
}

// WithRandom replaces the random source, for tests
func (s *Selector) WithRandom(intn func(n int) int) *Selector {
	c := *s
	c.intn = intn
	return &c
}

// Select chooses one response from candidates
func (s *Selector) Select(candidates []models.MockResponse, opts Options) (*Result, error) {
	enabled := make([]*models.MockResponse, 0, len(candidates))
	for i := range candidates {
		if candidates[i].Enabled() {
			enabled = append(enabled, &candidates[i])
		}
	}
	if len(enabled) == 0 {
		return nil, ErrNoCandidates
	}

	set := Negotiate(enabled, opts.Accept)
	result := &Result{NextCursor: opts.Cursor}

	switch opts.Strategy {
	case models.StrategySequence:
		result.Response = s.sequence(set, opts.Cursor, result)
	case models.StrategyXPath:
		result.Response = s.xpathOrFallback(set, opts)
	case models.StrategyCondition:
		result.Response = s.firstCondition(set, opts.Request)
	case models.StrategyMultiple:
		narrowed, ok := s.multiple(set, opts, result)
		if !ok {
			return nil, ErrNoMatchingStrategy
		}
		result.Response = s.random(narrowed)
	default:
		result.Response = s.random(set)
	}

	if result.Response == nil {
		return nil, ErrNoMatchingStrategy
	}
	return result, nil
}

func (s *Selector) random(set []*models.MockResponse) *models.MockResponse {
	if len(set) == 0 {
		return nil
	}
	if len(set) == 1 {
		return set[0]
	}
	return set[s.intn(len(set))]
}

// sequence serves set[cursor], restarting at 0 when the cursor is out of range
func (s *Selector) sequence(set []*models.MockResponse, cursor int, result *Result) *models.MockResponse {
	if len(set) == 0 {
		return nil
	}
	if cursor < 0 || cursor >= len(set) {
		cursor = 0
	}
	result.NextCursor = cursor + 1
	result.CursorAdvanced = true
	return set[cursor]
}

func (s *Selector) xpathMatches(set []*models.MockResponse, req *models.IncomingRequest) []*models.MockResponse {
	if s.xpath == nil || req == nil {
		return nil
	}
	var matched []*models.MockResponse
	for _, resp := range set {
		if len(resp.XPathExpressions) > 0 && s.xpath.Match(req.Body, resp.XPathExpressions) {
			matched = append(matched, resp)
		}
	}
	return matched
}

func findByID(set []*models.MockResponse, id string) *models.MockResponse {
	if id == "" {
		return nil
	}
	for _, resp := range set {
		if resp.ID == id {
			return resp
		}
	}
	return nil
}

// xpathOrFallback serves the first response whose XPath matches, then the
// configured default, then a random one
func (s *Selector) xpathOrFallback(set []*models.MockResponse, opts Options) *models.MockResponse {
	if matched := s.xpathMatches(set, opts.Request); len(matched) > 0 {
		return matched[0]
	}
	if resp := findByID(set, opts.DefaultXPathResponseID); resp != nil {
		return resp
	}
	return s.random(set)
}

func (s *Selector) conditionMatches(set []*models.MockResponse, req *models.IncomingRequest) []*models.MockResponse {
	if s.conditions == nil {
		return nil
	}
	var matched []*models.MockResponse
	for _, resp := range set {
		if s.conditions.EvaluateAll(resp.Conditions, req) {
			matched = append(matched, resp)
		}
	}
	return matched
}

// firstCondition serves the first response, in declared order, whose
// conditions all match. A response without conditions acts as a catch-all.
func (s *Selector) firstCondition(set []*models.MockResponse, req *models.IncomingRequest) *models.MockResponse {
	if matched := s.conditionMatches(set, req); len(matched) > 0 {
		return matched[0]
	}
	return nil
}

// multiple applies each sub-strategy as a filter over the surviving set
func (s *Selector) multiple(set []*models.MockResponse, opts Options, result *Result) ([]*models.MockResponse, bool) {
	for _, strategy := range opts.MultipleStrategies {
		if len(set) == 0 {
			return nil, false
		}
		switch strategy {
		case models.StrategyRandom:
			set = []*models.MockResponse{s.random(set)}
		case models.StrategySequence:
			set = []*models.MockResponse{s.sequence(set, opts.Cursor, result)}
		case models.StrategyXPath:
			matched := s.xpathMatches(set, opts.Request)
			if len(matched) == 0 {
				if resp := findByID(set, opts.DefaultXPathResponseID); resp != nil {
					matched = []*models.MockResponse{resp}
				}
			}
			set = matched
		case models.StrategyCondition:
			set = s.conditionMatches(set, opts.Request)
		}
	}
	return set, len(set) > 0
}

// Negotiate keeps the responses whose Content-Type is among the accepted media
// types. When nothing is accepted or nothing matches, every response is kept.
func Negotiate(set []*models.MockResponse, accept []string) []*models.MockResponse {
	accepted := mediaTypes(accept)
	if len(accepted) == 0 {
		return set
	}

	var narrowed []*models.MockResponse
	for _, resp := range set {
		for mt := range mediaTypes(resp.HeaderValues("Content-Type")) {
			if _, ok := accepted[mt]; ok {
				narrowed = append(narrowed, resp)
				break
			}
		}
	}
	if len(narrowed) == 0 {
		return set
	}
	return narrowed
}

// mediaTypes splits header values on commas into a lower-cased set, dropping
// parameters such as ";q=0.9" or ";charset=utf-8"
func mediaTypes(values []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if i := strings.IndexByte(part, ';'); i >= 0 {
				part = part[:i]
			}
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				set[part] = struct{}{}
			}
		}
	}
	return set
}
