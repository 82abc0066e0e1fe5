// Package xpath evaluates XPath predicates against XML request bodies and
// identifies the operation carried by a SOAP envelope.
package xpath

import (
	"strings"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Matcher evaluates XPath expressions. Compiled paths are cached, and so are
// compile failures so an invalid expression is reported once.
type Matcher struct {
	paths  sync.Map // string -> compiled
	logger *zap.Logger
}

type compiled struct {
	path etree.Path
	ok   bool
}

// NewMatcher creates a new matcher
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// Match reports whether any expression selects at least one element of body.
// Bodies that are not XML never match.
func (m *Matcher) Match(body string, expressions []string) bool {
	if len(expressions) == 0 || strings.TrimSpace(body) == "" {
		return false
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		m.logger.Debug("Request body is not XML", zap.Error(err))
		return false
	}

	for _, expr := range expressions {
		path, ok := m.compile(expr)
		if !ok {
			continue
		}
		if doc.FindElementPath(path) != nil {
			return true
		}
	}
	return false
}

func (m *Matcher) compile(expr string) (etree.Path, bool) {
	expr = strings.TrimSpace(expr)
	if cached, ok := m.paths.Load(expr); ok {
		c := cached.(compiled)
		return c.path, c.ok
	}
	path, err := etree.CompilePath(expr)
	if err != nil {
		if _, loaded := m.paths.LoadOrStore(expr, compiled{}); !loaded {
			m.logger.Warn("Invalid XPath expression", zap.String("expression", expr), zap.Error(err))
		}
		return etree.Path{}, false
	}
	m.paths.Store(expr, compiled{path: path, ok: true})
	return path, true
}

// OperationName returns the local name of the first element inside the SOAP
// Body, or "" when body is not a SOAP envelope.
func OperationName(body string) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return ""
	}
	envelope := doc.Root()
	if envelope == nil || envelope.Tag != "Envelope" {
		return ""
	}
	for _, child := range envelope.ChildElements() {
		if child.Tag != "Body" {
			continue
		}
		if ops := child.ChildElements(); len(ops) > 0 {
			return ops[0].Tag
		}
	}
	return ""
}

// ActionName extracts the operation name from a SOAPAction header value such
// as "http://example.com/Service/GetUser"
func ActionName(action string) string {
	action = strings.Trim(strings.TrimSpace(action), `"`)
	if i := strings.LastIndexAny(action, "/#:"); i >= 0 {
		action = action[i+1:]
	}
	return action
}
