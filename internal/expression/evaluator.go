package expression

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/prasenjit/servicevirt/internal/models"
)

// Evaluator rewrites ${...} expressions embedded in text. It is safe for
// concurrent use.
type Evaluator struct {
	registry *Registry
	logger   *zap.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(registry *Registry, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{registry: registry, logger: logger}
}

// Rewrite replaces every well-formed expression in text with the output of its
// function. Spans that do not parse, name no registered function or fail to
// evaluate are left untouched. The text is scanned once, left to right, and
// function output is never rescanned.
func (e *Evaluator) Rewrite(text string, req *models.IncomingRequest) string {
	if !strings.Contains(text, "${") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for pos < len(text) {
		start := strings.Index(text[pos:], "${")
		if start < 0 {
			break
		}
		start += pos
		b.WriteString(text[pos:start])

		end := spanEnd(text, start)
		if end < 0 {
			b.WriteString("${")
			pos = start + 2
			continue
		}

		span := text[start:end]
		if out, ok := e.evaluate(span, req); ok {
			b.WriteString(out)
		} else {
			b.WriteString(span)
		}
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// spanEnd returns the index just past the '}' closing the expression opened at
// start, or -1. Braces inside double quotes do not count.
func spanEnd(text string, start int) int {
	depth := 0
	inQuote := false
	for i := start + 1; i < len(text); i++ {
		c := text[i]
		if inQuote {
			if c == '"' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// evaluate handles one span; ok is false when the span must be kept as is
func (e *Evaluator) evaluate(span string, req *models.IncomingRequest) (out string, ok bool) {
	expr, err := Parse(span)
	if err != nil {
		e.logger.Debug("Leaving malformed expression untouched", zap.String("expression", span), zap.Error(err))
		return "", false
	}

	fn := e.registry.Lookup(expr.Identifier)
	if fn == nil {
		e.logger.Debug("No function registered for expression", zap.String("identifier", expr.Identifier))
		return "", false
	}

	in := &Input{Identifier: expr.Identifier, Arguments: expr.Arguments, Request: req}
	if req != nil && req.Body != "" && !in.Arguments.Has(BodyArgument) {
		in.Arguments = append(in.Arguments, Argument{Name: BodyArgument, Value: StringOf(req.Body)})
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Expression function panicked", zap.String("identifier", expr.Identifier), zap.Any("panic", r))
			out, ok = "", false
		}
	}()

	out, err = fn.Evaluate(in)
	if err != nil {
		e.logger.Warn("Expression evaluation failed", zap.String("identifier", expr.Identifier), zap.Error(err))
		return "", false
	}
	return out, true
}

// Evaluate parses and evaluates a single ${...} span
func (e *Evaluator) Evaluate(span string, req *models.IncomingRequest) (string, error) {
	out, ok := e.evaluate(span, req)
	if !ok {
		return span, fmt.Errorf("expression not evaluated: %s", span)
	}
	return out, nil
}
