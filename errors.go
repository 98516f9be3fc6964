package docroute

import (
	"errors"
	"strings"
)

// Sentinel errors reported while building a router. All of them surface
// during bootstrap; nothing here is returned while serving requests.
var (
	ErrInvalidPath           = errors.New("invalid path template")
	ErrDuplicateMethod       = errors.New("method already registered for path")
	ErrPathCollision         = errors.New("path already registered")
	ErrUnsupportedPathSyntax = errors.New("path syntax not supported by transport")
	ErrAlreadyFinalized      = errors.New("router already finalized")
	ErrDescriptorMismatch    = errors.New("operation does not match registration")
	ErrNilHandler            = errors.New("nil handler")
	ErrConsumed              = errors.New("router already nested into another router")
	ErrInvalidNest           = errors.New("invalid nest")
)

// RouteError records a failed router operation along with the route it
// concerned. Err is always one of the sentinel errors above, possibly
// wrapped with more detail.
type RouteError struct {
	Op     string // "register", "nest", "finalize"
	Method Method
	Path   string
	Err    error
}

// Error returns "op METHOD /path: cause".
func (e *RouteError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Method != "" {
		b.WriteByte(' ')
		b.WriteString(string(e.Method))
	}
	if e.Path != "" {
		b.WriteByte(' ')
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying error.
func (e *RouteError) Unwrap() error { return e.Err }

func routeErr(op string, m Method, path string, err error) error {
	return &RouteError{Op: op, Method: m, Path: path, Err: err}
}
