package docroute

import (
	"fmt"
	"regexp"
	"strings"
)

// SegmentKind classifies a path template segment.
type SegmentKind int

// Segment kinds.
const (
	Literal  SegmentKind = iota // users
	Param                       // {id} or {id:[0-9]+}
	CatchAll                    // {path...}, last segment only
)

// Segment is one slash-separated element of a PathTemplate.
type Segment struct {
	Kind SegmentKind

	// Value is the literal text for Literal segments and the parameter
	// name for Param and CatchAll segments.
	Value string

	// Pattern is an optional regular expression constraining a Param.
	Pattern string
}

func (s Segment) String() string {
	switch s.Kind {
	case Param:
		if s.Pattern != "" {
			return "{" + s.Value + ":" + s.Pattern + "}"
		}
		return "{" + s.Value + "}"
	case CatchAll:
		return "{" + s.Value + "...}"
	default:
		return s.Value
	}
}

// PathTemplate is a parsed route pattern such as /users/{id}. The zero
// value is the root template "/". PathTemplates are immutable.
type PathTemplate struct {
	segs []Segment
}

var paramNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ParsePath parses and validates a path template. Failures wrap
// ErrInvalidPath.
func ParsePath(s string) (PathTemplate, error) {
	if s == "" {
		return PathTemplate{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if s[0] != '/' {
		return PathTemplate{}, fmt.Errorf("%w: %q must start with '/'", ErrInvalidPath, s)
	}
	if s == "/" {
		return PathTemplate{}, nil
	}

	parts := strings.Split(s[1:], "/")
	segs := make([]Segment, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		if part == "" {
			return PathTemplate{}, fmt.Errorf("%w: %q contains an empty segment", ErrInvalidPath, s)
		}

		seg, err := parseSegment(part)
		if err != nil {
			return PathTemplate{}, fmt.Errorf("%w: %q: %s", ErrInvalidPath, s, err.Error())
		}

		if seg.Kind == CatchAll && i != len(parts)-1 {
			return PathTemplate{}, fmt.Errorf("%w: %q: catch-all %q must be the last segment", ErrInvalidPath, s, part)
		}

		if seg.Kind != Literal {
			if seen[seg.Value] {
				return PathTemplate{}, fmt.Errorf("%w: %q: parameter %q appears more than once", ErrInvalidPath, s, seg.Value)
			}
			seen[seg.Value] = true
		}

		segs = append(segs, seg)
	}

	return PathTemplate{segs: segs}, nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(s string) PathTemplate {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(part string) (Segment, error) {
	if !strings.ContainsAny(part, "{}") {
		return Segment{Kind: Literal, Value: part}, nil
	}

	if part[0] != '{' || part[len(part)-1] != '}' {
		return Segment{}, fmt.Errorf("segment %q: parameters must span the whole segment", part)
	}
	inner := part[1 : len(part)-1]

	if name, ok := strings.CutSuffix(inner, "..."); ok {
		if !paramNamePattern.MatchString(name) {
			return Segment{}, fmt.Errorf("segment %q: invalid parameter name", part)
		}
		return Segment{Kind: CatchAll, Value: name}, nil
	}

	name, pattern, constrained := strings.Cut(inner, ":")
	if !paramNamePattern.MatchString(name) {
		return Segment{}, fmt.Errorf("segment %q: invalid parameter name", part)
	}
	if constrained {
		if pattern == "" {
			return Segment{}, fmt.Errorf("segment %q: empty constraint", part)
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return Segment{}, fmt.Errorf("segment %q: constraint: %s", part, err.Error())
		}
	}

	return Segment{Kind: Param, Value: name, Pattern: pattern}, nil
}

// String renders the template in its canonical form.
func (p PathTemplate) String() string {
	if len(p.segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// Segments returns a copy of the template's segments.
func (p PathTemplate) Segments() []Segment {
	out := make([]Segment, len(p.segs))
	copy(out, p.segs)
	return out
}

// IsRoot reports whether p is the root template "/".
func (p PathTemplate) IsRoot() bool { return len(p.segs) == 0 }

// Params returns the parameter names in the order they appear.
func (p PathTemplate) Params() []string {
	var names []string
	for _, s := range p.segs {
		if s.Kind != Literal {
			names = append(names, s.Value)
		}
	}
	return names
}

// Equal reports whether p and o match the same requests. Parameter names
// and constraints are ignored.
func (p PathTemplate) Equal(o PathTemplate) bool {
	return p.key() == o.key()
}

// key is the identity of a template within a router.
func (p PathTemplate) key() string {
	if len(p.segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		switch s.Kind {
		case Param:
			b.WriteString("{}")
		case CatchAll:
			b.WriteString("{...}")
		default:
			b.WriteString(s.Value)
		}
	}
	return b.String()
}

// sameNames reports whether p and o name their parameters identically.
func (p PathTemplate) sameNames(o PathTemplate) bool {
	a, b := p.Params(), o.Params()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isLiteral reports whether p has no parameter segments.
func (p PathTemplate) isLiteral() bool {
	for _, s := range p.segs {
		if s.Kind != Literal {
			return false
		}
	}
	return true
}

// join returns prefix followed by p. A root on either side contributes
// no segments, which collapses the slash at the boundary.
func (p PathTemplate) join(prefix PathTemplate) PathTemplate {
	segs := make([]Segment, 0, len(prefix.segs)+len(p.segs))
	segs = append(segs, prefix.segs...)
	segs = append(segs, p.segs...)
	return PathTemplate{segs: segs}
}

// docPath converts p to an OpenAPI path: constraints and catch-all
// markers are dropped so every parameter reads {name}.
func (p PathTemplate) docPath() string {
	if len(p.segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		if s.Kind == Literal {
			b.WriteString(s.Value)
			continue
		}
		b.WriteString("{" + s.Value + "}")
	}
	return b.String()
}

// parsePrefix parses a nest prefix. Prefixes are literal and may carry a
// trailing slash, which is ignored.
func parsePrefix(s string) (PathTemplate, error) {
	if s == "" {
		return PathTemplate{}, nil
	}
	if len(s) > 1 {
		s = strings.TrimSuffix(s, "/")
	}
	p, err := ParsePath(s)
	if err != nil {
		return PathTemplate{}, err
	}
	if !p.isLiteral() {
		return PathTemplate{}, fmt.Errorf("%w: prefix %q must be literal", ErrInvalidPath, s)
	}
	return p, nil
}
