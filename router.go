package docroute

import (
	"fmt"
	"log/slog"
	"net/http"
)

type state int

const (
	stateBuilding state = iota
	stateNested
	stateFinalized
)

// Router registers handlers together with their documentation and nests
// other routers under path prefixes. Finalize turns it into a dispatch
// table and a document tree that describe exactly the same routes.
//
// A Router is built sequentially during startup and is not safe for
// concurrent use. The artifacts returned by Finalize are immutable and may
// be shared freely.
type Router struct {
	node   *node
	state  state
	logger *slog.Logger

	table *DispatchTable
	tree  *DocumentTree
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for build-time diagnostics. Records are
// emitted at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithDefaultTags sets tags applied to every operation of this router
// that does not declare its own.
func WithDefaultTags(tags ...string) Option {
	return func(r *Router) {
		r.node.addTags(tags)
	}
}

// WithMiddleware adds middleware wrapping every handler of this router,
// including handlers of routers nested into it.
func WithMiddleware(mw ...Middleware) Option {
	return func(r *Router) {
		r.node.middleware = append(r.node.middleware, mw...)
	}
}

// New creates an empty Router.
func New(opts ...Option) *Router {
	r := &Router{
		node:   newNode(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (r *Router) Use(mw ...Middleware) error {
	if err := r.mutable("use"); err != nil {
		return err
	}
	r.node.middleware = append(r.node.middleware, mw...)
	return nil
}

// Handle registers h for method on path, documented by op. The operation
// must have been described for the same method and path.
func (r *Router) Handle(method Method, path string, h http.Handler, op Operation) error {
	if err := r.mutable("register"); err != nil {
		return err
	}
	tmpl, err := ParsePath(path)
	if err != nil {
		return routeErr("register", method, path, err)
	}
	if err := r.node.register(registration{path: tmpl, method: method, handler: h, op: op}); err != nil {
		return err
	}
	r.logger.Debug("route registered", "method", string(method), "path", tmpl.String())
	return nil
}

// Route registers one handler for several methods on path. Each operation
// contributes its method. Nothing is registered if any of them fails.
func (r *Router) Route(path string, h http.Handler, ops ...Operation) error {
	if err := r.mutable("register"); err != nil {
		return err
	}
	tmpl, err := ParsePath(path)
	if err != nil {
		return routeErr("register", "", path, err)
	}
	if len(ops) == 0 {
		return routeErr("register", "", path, fmt.Errorf("%w: no operations", ErrDescriptorMismatch))
	}

	regs := make([]registration, len(ops))
	for i, op := range ops {
		regs[i] = registration{path: tmpl, method: op.method, handler: h, op: op}
	}
	if err := r.node.register(regs...); err != nil {
		return err
	}
	for _, op := range ops {
		r.logger.Debug("route registered", "method", string(op.method), "path", tmpl.String())
	}
	return nil
}

// Get registers a GET handler described by opts.
func (r *Router) Get(path string, h http.HandlerFunc, opts ...OperationOption) error {
	return r.describeAndHandle(GET, path, h, opts)
}

// Put registers a PUT handler described by opts.
func (r *Router) Put(path string, h http.HandlerFunc, opts ...OperationOption) error {
	return r.describeAndHandle(PUT, path, h, opts)
}

// Post registers a POST handler described by opts.
func (r *Router) Post(path string, h http.HandlerFunc, opts ...OperationOption) error {
	return r.describeAndHandle(POST, path, h, opts)
}

// Delete registers a DELETE handler described by opts.
func (r *Router) Delete(path string, h http.HandlerFunc, opts ...OperationOption) error {
	return r.describeAndHandle(DELETE, path, h, opts)
}

// Patch registers a PATCH handler described by opts.
func (r *Router) Patch(path string, h http.HandlerFunc, opts ...OperationOption) error {
	return r.describeAndHandle(PATCH, path, h, opts)
}

// Head registers a HEAD handler described by opts.
func (r *Router) Head(path string, h http.HandlerFunc, opts ...OperationOption) error {
	return r.describeAndHandle(HEAD, path, h, opts)
}

// Options registers an OPTIONS handler described by opts.
func (r *Router) Options(path string, h http.HandlerFunc, opts ...OperationOption) error {
	return r.describeAndHandle(OPTIONS, path, h, opts)
}

// Trace registers a TRACE handler described by opts.
func (r *Router) Trace(path string, h http.HandlerFunc, opts ...OperationOption) error {
	return r.describeAndHandle(TRACE, path, h, opts)
}

func (r *Router) describeAndHandle(m Method, path string, h http.HandlerFunc, opts []OperationOption) error {
	if err := r.mutable("register"); err != nil {
		return err
	}
	if h == nil {
		return routeErr("register", m, path, ErrNilHandler)
	}
	op, err := Describe(m, path, opts...)
	if err != nil {
		return routeErr("register", m, path, err)
	}
	return r.Handle(m, path, h, op)
}

// Nest mounts every route of child under prefix. The merge is atomic: if
// any rewritten path already exists in r, nothing changes and child stays
// usable. On success child is consumed and rejects further calls.
func (r *Router) Nest(prefix string, child *Router) error {
	if err := r.mutable("nest"); err != nil {
		return err
	}
	if child == nil || child == r {
		return routeErr("nest", "", prefix, fmt.Errorf("%w: child must be a distinct router", ErrInvalidNest))
	}
	if err := child.mutable("nest"); err != nil {
		return err
	}

	p, err := parsePrefix(prefix)
	if err != nil {
		return routeErr("nest", "", prefix, err)
	}

	if err := r.node.merge(p, child.node); err != nil {
		return err
	}

	r.logger.Debug("router nested", "prefix", p.String(), "routes", len(child.node.routes))
	child.node = nil
	child.state = stateNested
	return nil
}

// Merge mounts child's routes at the root of r. It is Nest with prefix "/".
func (r *Router) Merge(child *Router) error {
	return r.Nest("/", child)
}

// Len returns the number of (path, method) pairs registered so far.
func (r *Router) Len() int {
	if r.node == nil {
		return 0
	}
	return r.node.count()
}

// Outputs returns the artifacts produced by Finalize. ok is false until
// Finalize has succeeded.
func (r *Router) Outputs() (table *DispatchTable, tree *DocumentTree, ok bool) {
	if r.state != stateFinalized {
		return nil, nil, false
	}
	return r.table, r.tree, true
}

// mutable reports whether r still accepts registration and nesting.
func (r *Router) mutable(op string) error {
	switch r.state {
	case stateFinalized:
		return routeErr(op, "", "", ErrAlreadyFinalized)
	case stateNested:
		return routeErr(op, "", "", ErrConsumed)
	default:
		return nil
	}
}
