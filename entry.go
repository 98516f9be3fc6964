package docroute

import (
	"fmt"
	"net/http"
)

// binding is the handler and documentation for one method of a route.
type binding struct {
	op      Operation
	handler http.Handler
}

// routeEntry holds every method registered for one path template. Each
// method has exactly one binding, so every documented method is
// dispatchable and vice versa.
type routeEntry struct {
	path    PathTemplate
	methods map[Method]binding
}

func newRouteEntry(path PathTemplate) *routeEntry {
	return &routeEntry{path: path, methods: make(map[Method]binding)}
}

// accepts reports why m on path cannot be added to e, or nil.
func (e *routeEntry) accepts(path PathTemplate, m Method) error {
	if !e.path.sameNames(path) {
		return fmt.Errorf("%w: parameters of %s differ from existing route %s", ErrInvalidPath, path, e.path)
	}
	if _, ok := e.methods[m]; ok {
		return ErrDuplicateMethod
	}
	return nil
}

// bindings returns the entry's bindings in canonical method order.
func (e *routeEntry) bindings() []binding {
	out := make([]binding, 0, len(e.methods))
	for _, m := range methodOrder {
		if b, ok := e.methods[m]; ok {
			out = append(out, b)
		}
	}
	return out
}

// remount returns a copy of e under prefix with the child's middleware
// baked into every handler and the child's tags applied to untagged
// operations.
func (e *routeEntry) remount(prefix PathTemplate, tags []string, mw []Middleware) *routeEntry {
	path := e.path.join(prefix)
	out := newRouteEntry(path)
	for m, b := range e.methods {
		out.methods[m] = binding{
			op:      b.op.withPath(path).withDefaultTags(tags),
			handler: chain(b.handler, mw),
		}
	}
	return out
}
