package docroute

import (
	"fmt"
	"net/http"
	"reflect"
	"slices"
)

// node is a flat table of routes keyed by path template identity. Routes
// keep the order in which they were registered or merged.
type node struct {
	routes     []*routeEntry
	index      map[string]int
	tags       []string
	middleware []Middleware
}

func newNode() *node {
	return &node{index: make(map[string]int)}
}

// registration is a pending handler binding awaiting validation.
type registration struct {
	path    PathTemplate
	method  Method
	handler http.Handler
	op      Operation
}

// register validates all registrations and then inserts them. Either every
// registration is applied or none is.
func (n *node) register(regs ...registration) error {
	pending := make(map[string]map[Method]bool)

	for _, reg := range regs {
		if err := n.check(reg); err != nil {
			return routeErr("register", reg.method, reg.path.String(), err)
		}
		key := reg.path.key()
		if pending[key][reg.method] {
			return routeErr("register", reg.method, reg.path.String(), ErrDuplicateMethod)
		}
		if pending[key] == nil {
			pending[key] = make(map[Method]bool)
		}
		pending[key][reg.method] = true
	}

	for _, reg := range regs {
		n.insert(reg)
	}
	return nil
}

func (n *node) check(reg registration) error {
	if isNilHandler(reg.handler) {
		return ErrNilHandler
	}
	if !reg.method.Valid() {
		return fmt.Errorf("%w: unknown method %q", ErrDescriptorMismatch, string(reg.method))
	}
	if reg.op.method != reg.method {
		return fmt.Errorf("%w: operation is for %s", ErrDescriptorMismatch, reg.op.method)
	}
	if !reg.op.path.Equal(reg.path) || !reg.op.path.sameNames(reg.path) {
		return fmt.Errorf("%w: operation is for %s", ErrDescriptorMismatch, reg.op.path)
	}
	if i, ok := n.index[reg.path.key()]; ok {
		return n.routes[i].accepts(reg.path, reg.method)
	}
	return nil
}

func (n *node) insert(reg registration) {
	key := reg.path.key()
	i, ok := n.index[key]
	if !ok {
		i = len(n.routes)
		n.index[key] = i
		n.routes = append(n.routes, newRouteEntry(reg.path))
	}
	n.routes[i].methods[reg.method] = binding{
		op:      reg.op,
		handler: limit(reg.handler, reg.op),
	}
}

// merge remounts every route of child under prefix and appends them to n.
// The rewritten set is built and checked against n before anything is
// inserted, so a collision leaves n untouched.
func (n *node) merge(prefix PathTemplate, child *node) error {
	staged := make([]*routeEntry, 0, len(child.routes))
	for _, e := range child.routes {
		moved := e.remount(prefix, child.tags, child.middleware)
		if _, ok := n.index[moved.path.key()]; ok {
			return routeErr("nest", "", moved.path.String(), ErrPathCollision)
		}
		staged = append(staged, moved)
	}

	for _, e := range staged {
		n.index[e.path.key()] = len(n.routes)
		n.routes = append(n.routes, e)
	}
	return nil
}

// count returns the number of (path, method) pairs in n.
func (n *node) count() int {
	total := 0
	for _, e := range n.routes {
		total += len(e.methods)
	}
	return total
}

func (n *node) addTags(tags []string) {
	for _, t := range tags {
		if !slices.Contains(n.tags, t) {
			n.tags = append(n.tags, t)
		}
	}
}

// isNilHandler reports whether h is nil or wraps a nil func, pointer or map,
// such as http.HandlerFunc(nil).
func isNilHandler(h http.Handler) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
