// Package pathmatch matches request paths against URI templates such as
// /users/{id} or /files/id-{name}.json and extracts the path parameters.
package pathmatch

import (
	"strings"
)

// Segment is one "/"-separated piece of a template. A literal segment has an
// empty Param; a parametrized segment has the form Prefix{Param}Suffix.
type Segment struct {
	Literal string
	Param   string
	Prefix  string
	Suffix  string
}

// IsParam reports whether the segment carries a placeholder
func (s Segment) IsParam() bool {
	return s.Param != ""
}

// whole reports whether the placeholder spans the entire segment
func (s Segment) whole() bool {
	return s.Prefix == "" && s.Suffix == ""
}

// Template is a parsed URI template. It is immutable and safe for concurrent use.
type Template struct {
	raw      string
	segments []Segment
	params   int
}

// Parse parses a URI template
func Parse(uri string) *Template {
	parts := Split(uri)
	t := &Template{raw: uri, segments: make([]Segment, len(parts))}
	for i, part := range parts {
		t.segments[i] = parseSegment(part)
		if t.segments[i].IsParam() {
			t.params++
		}
	}
	return t
}

func parseSegment(part string) Segment {
	start := strings.IndexByte(part, '{')
	if start < 0 {
		return Segment{Literal: part}
	}
	end := strings.IndexByte(part[start:], '}')
	if end <= 1 {
		// "{}" or an unterminated brace is plain text
		return Segment{Literal: part}
	}
	end += start
	return Segment{
		Literal: part,
		Prefix:  part[:start],
		Param:   part[start+1 : end],
		Suffix:  part[end+1:],
	}
}

// Split splits a path into its segments. A trailing slash is ignored so
// "/users/" and "/users" produce the same segments.
func Split(p string) []string {
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return strings.Split(p, "/")
}

// String returns the template as it was declared
func (t *Template) String() string {
	return t.raw
}

// Segments returns a copy of the parsed segments
func (t *Template) Segments() []Segment {
	return append([]Segment(nil), t.segments...)
}

// ParamCount returns the number of parametrized segments
func (t *Template) ParamCount() int {
	return t.params
}

// Match reports whether path matches the template
func (t *Template) Match(path string) bool {
	return t.MatchSegments(Split(path))
}

// MatchSegments reports whether the already split request segments match the
// template. Segment counts must be equal; there are no partial matches.
func (t *Template) MatchSegments(request []string) bool {
	if len(request) != len(t.segments) {
		return false
	}
	for i, seg := range t.segments {
		if _, ok := matchSegment(seg, request[i]); !ok {
			return false
		}
	}
	return true
}

// ExtractParameters returns the placeholder values captured from path. Literal
// only templates, and paths that do not match, yield an empty map.
func (t *Template) ExtractParameters(path string) map[string]string {
	return t.ExtractSegments(Split(path))
}

// ExtractSegments is ExtractParameters for already split request segments
func (t *Template) ExtractSegments(request []string) map[string]string {
	params := make(map[string]string, t.params)
	if len(request) != len(t.segments) {
		return params
	}
	values := make(map[string]string, t.params)
	for i, seg := range t.segments {
		value, ok := matchSegment(seg, request[i])
		if !ok {
			return params
		}
		if seg.IsParam() {
			values[seg.Param] = value
		}
	}
	return values
}

// matchSegment compares one template segment with one request segment and
// returns the captured placeholder value. The suffix is located at its first
// occurrence after the prefix without backtracking. Anything after it is
// ignored, so "{x}.json" against "a.json.json" matches and captures "a".
func matchSegment(seg Segment, value string) (string, bool) {
	if !seg.IsParam() {
		return "", strings.EqualFold(seg.Literal, value)
	}
	if seg.whole() {
		return value, value != ""
	}
	if !strings.HasPrefix(value, seg.Prefix) {
		return "", false
	}
	rest := value[len(seg.Prefix):]
	if seg.Suffix == "" {
		return rest, true
	}
	idx := strings.Index(rest, seg.Suffix)
	if idx < 0 {
		return "", false
	}
	return rest[:idx], true
}
