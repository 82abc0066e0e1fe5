// Package expression implements the ${NAME(arg=value)} template language used
// in mock response bodies: the grammar, the function registry, the built-in
// functions and the best-effort rewriter.
package expression

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/prasenjit/servicevirt/internal/models"
)

// BodyArgument is the reserved argument through which the evaluator hands the
// request body to functions
const BodyArgument = "BODY"

// Clock returns the current time
type Clock func() time.Time

// Input is what a function receives for one evaluation
type Input struct {
	Identifier string
	Arguments  Arguments
	Request    *models.IncomingRequest // nil when evaluated outside a dispatch
}

// Function is a named template function
type Function interface {
	// Matches reports whether the function handles identifier
	Matches(identifier string) bool
	// Evaluate produces the replacement text
	Evaluate(in *Input) (string, error)
}

// named implements Matches for functions with a single identifier
type named string

func (n named) Matches(identifier string) bool {
	return strings.EqualFold(string(n), identifier)
}

// Registry holds the available functions. The first registered function whose
// Matches accepts the identifier handles the expression.
type Registry struct {
	mu        sync.RWMutex
	functions []Function
}

// NewRegistry creates a registry with the given functions
func NewRegistry(functions ...Function) *Registry {
	return &Registry{functions: functions}
}

// DefaultRegistry creates a registry with every built-in function. A nil clock
// uses time.Now and a nil random source uses crypto/rand.
func DefaultRegistry(clock Clock, random io.Reader) *Registry {
	if clock == nil {
		clock = time.Now
	}
	if random == nil {
		random = rand.Reader
	}
	return NewRegistry(
		NewDateFunction(clock),
		NewNowFunction(clock),
		NewTimeFunction(clock),
		NewJWTFunction(clock, random),
		NewRandomHexFunction(random),
		NewRandomUUIDFunction(random),
		NewRandomIntegerFunction(random),
		NewPathParameterFunction(),
		NewQueryStringFunction(),
		NewRequestHeaderFunction(),
		NewBodyJSONPathFunction(),
	)
}

// Register appends a function
func (r *Registry) Register(fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions = append(r.functions, fn)
}

// Lookup returns the function handling identifier, or nil
func (r *Registry) Lookup(identifier string) Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fn := range r.functions {
		if fn.Matches(identifier) {
			return fn
		}
	}
	return nil
}
