package expression

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// InvalidToken is served whenever a token cannot be produced
const InvalidToken = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJlcnJvciI6InRva2VuX2dlbmVyYXRpb25fZmFpbGVkIn0.invalid"

const (
	defaultJWTSecret     = "default-secret"
	defaultJWTExpiration = int64(3600)
	bodyReferencePrefix  = "@body."
)

// JWTFunction signs an HMAC token. Arguments other than algorithm, secret and
// exp become claims; "@body.<path>" values are read from the request body.
//
//	${JWT(secret="k", sub="user-1", score="95.5", exp="+600")}
type JWTFunction struct {
	named
	now    Clock
	random io.Reader
}

// NewJWTFunction creates the JWT function
func NewJWTFunction(clock Clock, random io.Reader) *JWTFunction {
	return &JWTFunction{named: "JWT", now: clock, random: random}
}

// Evaluate implements Function. It never fails: any problem yields InvalidToken.
func (f *JWTFunction) Evaluate(in *Input) (token string, err error) {
	defer func() {
		if r := recover(); r != nil {
			token, err = InvalidToken, nil
		}
	}()

	token, err = f.sign(in.Arguments)
	if err != nil {
		return InvalidToken, nil
	}
	return token, nil
}

func (f *JWTFunction) sign(args Arguments) (string, error) {
	method := signingMethod(args)

	secret := defaultJWTSecret
	if s, ok := args.String("secret"); ok && strings.TrimSpace(s) != "" {
		secret = s
	}

	id, err := uuid.NewRandomFromReader(f.random)
	if err != nil {
		return "", fmt.Errorf("failed to generate jti: %w", err)
	}

	now := f.now().Unix()
	claims := jwt.MapClaims{
		"iat": now,
		"exp": now + expiration(args),
		"jti": id.String(),
	}

	body, _ := args.String(BodyArgument)
	for _, arg := range args {
		if isReservedJWTArgument(arg.Name) {
			continue
		}
		value, ok := claimValue(arg.Value, body)
		if !ok {
			continue
		}
		claims[arg.Name] = value
	}

	return jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
}

func signingMethod(args Arguments) jwt.SigningMethod {
	alg, _ := args.String("algorithm")
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// expiration returns the lifetime in seconds; "+600" and "600" are equivalent
func expiration(args Arguments) int64 {
	raw, ok := args.String("exp")
	if !ok {
		if v, found := args.Get("exp"); found && v.Kind == NumberValue {
			raw, ok = v.Text, true
		}
	}
	if !ok {
		return defaultJWTExpiration
	}
	seconds, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "+"), 10, 64)
	if err != nil {
		return defaultJWTExpiration
	}
	return seconds
}

func isReservedJWTArgument(name string) bool {
	switch strings.ToLower(name) {
	case "algorithm", "secret", "exp", strings.ToLower(BodyArgument):
		return true
	}
	return false
}

// claimValue converts an argument into a typed claim. Blank strings are skipped.
func claimValue(v Value, body string) (interface{}, bool) {
	switch v.Kind {
	case StringValue:
		if strings.TrimSpace(v.Text) == "" {
			return nil, false
		}
		text := v.Text
		if strings.HasPrefix(text, bodyReferencePrefix) {
			text = lookupBody(body, strings.TrimPrefix(text, bodyReferencePrefix))
		}
		return inferClaim(text), true
	case NumberValue:
		return inferClaim(v.Text), true
	case ArrayValue:
		items := make([]interface{}, 0, len(v.Items))
		for _, item := range v.Items {
			if claim, ok := claimValue(item, body); ok {
				items = append(items, claim)
			}
		}
		return items, true
	}
	return nil, false
}

// lookupBody resolves a gjson path against the request body; misses yield ""
func lookupBody(body, path string) string {
	if body == "" || path == "" {
		return ""
	}
	result := gjson.Get(body, path)
	if !result.Exists() {
		return ""
	}
	return result.String()
}

// inferClaim types a claim: booleans, then integers, then finite floats, else
// the string itself
func inferClaim(text string) interface{} {
	switch strings.ToLower(text) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return text
}
