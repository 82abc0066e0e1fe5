package expression

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultHexLength = 32
	maxHexLength     = 1024
)

// RandomHexFunction renders random lowercase hex characters.
//
//	${RANDOM_HEX(length="7")}
type RandomHexFunction struct {
	named
	random io.Reader
}

// NewRandomHexFunction creates the RANDOM_HEX function
func NewRandomHexFunction(random io.Reader) *RandomHexFunction {
	return &RandomHexFunction{named: "RANDOM_HEX", random: random}
}

// Evaluate implements Function. Lengths outside (0, 1024] use the default of 32.
func (f *RandomHexFunction) Evaluate(in *Input) (string, error) {
	length := hexLength(in.Arguments)
	buf := make([]byte, (length+1)/2)
	if _, err := io.ReadFull(f.random, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}

func hexLength(args Arguments) int {
	v, ok := args.Get("length")
	if !ok || v.Kind == ArrayValue {
		return defaultHexLength
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.Text))
	if err != nil || n <= 0 || n > maxHexLength {
		return defaultHexLength
	}
	return n
}

// RandomUUIDFunction renders a random version 4 UUID.
//
//	${RANDOM_UUID}
type RandomUUIDFunction struct {
	named
	random io.Reader
}

// NewRandomUUIDFunction creates the RANDOM_UUID function
func NewRandomUUIDFunction(random io.Reader) *RandomUUIDFunction {
	return &RandomUUIDFunction{named: "RANDOM_UUID", random: random}
}

// Evaluate implements Function
func (f *RandomUUIDFunction) Evaluate(in *Input) (string, error) {
	id, err := uuid.NewRandomFromReader(f.random)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// RandomIntegerFunction renders a random integer in [min, max].
//
//	${RANDOM_INTEGER(min=1, max=6)}
type RandomIntegerFunction struct {
	named
	random io.Reader
}

// NewRandomIntegerFunction creates the RANDOM_INTEGER function
func NewRandomIntegerFunction(random io.Reader) *RandomIntegerFunction {
	return &RandomIntegerFunction{named: "RANDOM_INTEGER", random: random}
}

// Evaluate implements Function. Bounds default to 0 and 100.
func (f *RandomIntegerFunction) Evaluate(in *Input) (string, error) {
	lo := integerArgument(in.Arguments, "min", 0)
	hi := integerArgument(in.Arguments, "max", 100)
	if hi < lo {
		return "", fmt.Errorf("max %d is below min %d", hi, lo)
	}
	n, err := rand.Int(f.random, big.NewInt(hi-lo+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(lo+n.Int64(), 10), nil
}

func integerArgument(args Arguments, name string, fallback int64) int64 {
	v, ok := args.Get(name)
	if !ok || v.Kind == ArrayValue {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
