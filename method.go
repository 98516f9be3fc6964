package docroute

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP method a route can be registered for.
type Method string

// Supported methods.
const (
	GET     Method = http.MethodGet
	PUT     Method = http.MethodPut
	POST    Method = http.MethodPost
	DELETE  Method = http.MethodDelete
	OPTIONS Method = http.MethodOptions
	HEAD    Method = http.MethodHead
	PATCH   Method = http.MethodPatch
	TRACE   Method = http.MethodTrace
)

// methodOrder is the order operations appear in within a documented path.
// It matches the field order of an OpenAPI path item.
var methodOrder = [...]Method{GET, PUT, POST, DELETE, OPTIONS, HEAD, PATCH, TRACE}

// Methods returns all supported methods in canonical document order.
func Methods() []Method {
	out := make([]Method, len(methodOrder))
	copy(out, methodOrder[:])
	return out
}

// ParseMethod converts a method name (any case) to a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(s))
	if !m.Valid() {
		return "", fmt.Errorf("unknown HTTP method %q", s)
	}
	return m, nil
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	return m.rank() >= 0
}

// String returns the upper-case method name.
func (m Method) String() string { return string(m) }

func (m Method) rank() int {
	for i, o := range methodOrder {
		if o == m {
			return i
		}
	}
	return -1
}
