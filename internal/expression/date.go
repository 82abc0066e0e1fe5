package expression

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// offsetPattern matches offsets such as "+1 day", "-30 minutes" or "3600seconds"
var offsetPattern = regexp.MustCompile(`(?i)^([+-]?\d+)\s*(seconds?|minutes?|hours?|days?)$`)

type offsetUnit int

const (
	unitSeconds offsetUnit = iota
	unitMinutes
	unitHours
	unitDays
)

type offset struct {
	amount int64
	unit   offsetUnit
}

// parseOffset reads the "offset" argument. ok is false when the argument is
// absent or not a recognised offset, in which case no shift is applied.
func parseOffset(args Arguments) (offset, bool) {
	raw, ok := args.String("offset")
	if !ok {
		return offset{}, false
	}
	m := offsetPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return offset{}, false
	}
	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return offset{}, false
	}

	unit := strings.ToLower(m[2])
	switch {
	case strings.HasPrefix(unit, "second"):
		return offset{amount, unitSeconds}, true
	case strings.HasPrefix(unit, "minute"):
		return offset{amount, unitMinutes}, true
	case strings.HasPrefix(unit, "hour"):
		return offset{amount, unitHours}, true
	default:
		return offset{amount, unitDays}, true
	}
}

// seconds converts the offset to whole seconds
func (o offset) seconds() int64 {
	switch o.unit {
	case unitMinutes:
		return o.amount * 60
	case unitHours:
		return o.amount * 3600
	case unitDays:
		return o.amount * 86400
	default:
		return o.amount
	}
}

// days converts the offset to whole days, dropping any remainder
func (o offset) days() int64 {
	switch o.unit {
	case unitSeconds:
		return o.amount / 86400
	case unitMinutes:
		return o.amount / 1440
	case unitHours:
		return o.amount / 24
	default:
		return o.amount
	}
}

// DateFunction renders the current date as YYYY-MM-DD.
//
//	${DATE}
//	${DATE(offset="+1 day")}
type DateFunction struct {
	named
	now Clock
}

// NewDateFunction creates the DATE function
func NewDateFunction(clock Clock) *DateFunction {
	return &DateFunction{named: "DATE", now: clock}
}

// Evaluate implements Function
func (f *DateFunction) Evaluate(in *Input) (string, error) {
	date := f.now()
	if o, ok := parseOffset(in.Arguments); ok {
		date = date.AddDate(0, 0, int(o.days()))
	}
	return date.Format("2006-01-02"), nil
}

// NowFunction renders the current instant in RFC 3339, UTC.
//
//	${NOW(offset="-30 minutes")}
type NowFunction struct {
	named
	now Clock
}

// NewNowFunction creates the NOW function
func NewNowFunction(clock Clock) *NowFunction {
	return &NowFunction{named: "NOW", now: clock}
}

// Evaluate implements Function
func (f *NowFunction) Evaluate(in *Input) (string, error) {
	instant := f.now().UTC()
	if o, ok := parseOffset(in.Arguments); ok {
		instant = instant.Add(time.Duration(o.seconds()) * time.Second)
	}
	return instant.Format(time.RFC3339Nano), nil
}

// TimeFunction renders the current wall-clock time as HH:MM:SS. Day offsets
// are not applied.
//
//	${TIME(offset="+2 hours")}
type TimeFunction struct {
	named
	now Clock
}

// NewTimeFunction creates the TIME function
func NewTimeFunction(clock Clock) *TimeFunction {
	return &TimeFunction{named: "TIME", now: clock}
}

// Evaluate implements Function
func (f *TimeFunction) Evaluate(in *Input) (string, error) {
	clock := f.now()
	if o, ok := parseOffset(in.Arguments); ok && o.unit != unitDays {
		clock = clock.Add(time.Duration(o.seconds()) * time.Second)
	}
	return clock.Format("15:04:05"), nil
}
