package docroute

import (
	"fmt"
	"strings"
	"unicode"
)

// PathSyntax translates path templates into the route pattern language of
// a transport. Translate must be pure and must only fail with errors
// wrapping ErrUnsupportedPathSyntax.
type PathSyntax interface {
	Name() string
	Translate(p PathTemplate) (string, error)
}

// SyntaxFunc adapts a translation function to PathSyntax.
func SyntaxFunc(name string, fn func(PathTemplate) (string, error)) PathSyntax {
	return syntaxFunc{name: name, fn: fn}
}

type syntaxFunc struct {
	name string
	fn   func(PathTemplate) (string, error)
}

func (s syntaxFunc) Name() string { return s.name }

func (s syntaxFunc) Translate(p PathTemplate) (string, error) { return s.fn(p) }

// StdSyntax is the pattern syntax of http.ServeMux: {id}, {path...} and
// /{$} for the exact root. ServeMux cannot express regexp constraints, and
// its wildcard names must be Go identifiers.
var StdSyntax = SyntaxFunc("net/http", translateStd)

func translateStd(p PathTemplate) (string, error) {
	if p.IsRoot() {
		return "/{$}", nil
	}
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		if s.Kind != Literal && !wildcardName(s.Value) {
			return "", Unsupported("net/http", p, s)
		}
		switch s.Kind {
		case Param:
			if s.Pattern != "" {
				return "", Unsupported("net/http", p, s)
			}
			b.WriteString("{" + s.Value + "}")
		case CatchAll:
			b.WriteString("{" + s.Value + "...}")
		default:
			b.WriteString(s.Value)
		}
	}
	return b.String(), nil
}

// wildcardName reports whether ServeMux accepts name as a wildcard: a
// letter or underscore followed by letters, digits and underscores.
func wildcardName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		if !unicode.IsLetter(c) && c != '_' && (i == 0 || !unicode.IsDigit(c)) {
			return false
		}
	}
	return true
}

// Unsupported returns the error a PathSyntax reports for a segment of p it
// cannot express.
func Unsupported(syntax string, p PathTemplate, s Segment) error {
	return fmt.Errorf("%w: %s cannot express segment %s of %s", ErrUnsupportedPathSyntax, syntax, s, p)
}
