package docroute

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// MethodHandler is the handler for one method of a dispatch route.
type MethodHandler struct {
	Method  Method
	Handler http.Handler
}

// DispatchRoute is one path of a DispatchTable.
type DispatchRoute struct {
	// Path is the template translated into the transport's syntax.
	Path string

	// Template is the path as documented.
	Template PathTemplate

	// Handlers are ordered canonically (GET, PUT, POST, DELETE, OPTIONS,
	// HEAD, PATCH, TRACE).
	Handlers []MethodHandler
}

// DispatchTable is the frozen routing table handed to a transport.
type DispatchTable struct {
	syntax string
	routes []DispatchRoute
	index  map[string]int
}

// Syntax returns the name of the PathSyntax the table was built with.
func (t *DispatchTable) Syntax() string { return t.syntax }

// Routes returns a copy of the routes in document order.
func (t *DispatchTable) Routes() []DispatchRoute {
	out := make([]DispatchRoute, len(t.routes))
	for i, r := range t.routes {
		r.Handlers = slices.Clone(r.Handlers)
		out[i] = r
	}
	return out
}

// Len returns the number of (path, method) pairs.
func (t *DispatchTable) Len() int {
	n := 0
	for _, r := range t.routes {
		n += len(r.Handlers)
	}
	return n
}

// Lookup returns the handler for method on the native path.
func (t *DispatchTable) Lookup(path string, m Method) (http.Handler, bool) {
	i, ok := t.index[path]
	if !ok {
		return nil, false
	}
	for _, mh := range t.routes[i].Handlers {
		if mh.Method == m {
			return mh.Handler, true
		}
	}
	return nil, false
}

// Map returns the table flattened into path -> method -> handler.
func (t *DispatchTable) Map() map[string]map[Method]http.Handler {
	out := make(map[string]map[Method]http.Handler, len(t.routes))
	for _, r := range t.routes {
		ms := make(map[Method]http.Handler, len(r.Handlers))
		for _, mh := range r.Handlers {
			ms[mh.Method] = mh.Handler
		}
		out[r.Path] = ms
	}
	return out
}

// DocPath is one documented path with its operations.
type DocPath struct {
	// Path is the OpenAPI form of Template.
	Path       string
	Template   PathTemplate
	Operations []Operation
}

// DocumentTree is the frozen, ordered documentation of a finalized router.
// Paths appear in registration and merge order; operations within a path
// appear in canonical method order.
type DocumentTree struct {
	paths []DocPath
}

// Paths returns a copy of the documented paths.
func (d *DocumentTree) Paths() []DocPath {
	out := make([]DocPath, len(d.paths))
	for i, p := range d.paths {
		p.Operations = slices.Clone(p.Operations)
		out[i] = p
	}
	return out
}

// Len returns the number of documented operations.
func (d *DocumentTree) Len() int {
	n := 0
	for _, p := range d.paths {
		n += len(p.Operations)
	}
	return n
}

// FinalizeOption configures Finalize.
type FinalizeOption func(*finalizeConfig)

type finalizeConfig struct {
	syntax   PathSyntax
	registry prometheus.Registerer
}

// WithSyntax selects the transport path syntax. The default is StdSyntax.
func WithSyntax(s PathSyntax) FinalizeOption {
	return func(c *finalizeConfig) {
		c.syntax = s
	}
}

// WithInstrumentation records a request duration histogram, labeled by
// route template, for every dispatched handler.
func WithInstrumentation(reg prometheus.Registerer) FinalizeOption {
	return func(c *finalizeConfig) {
		c.registry = reg
	}
}

// Finalize freezes the router into a dispatch table and a document tree
// holding exactly the same (path, method) pairs. It may succeed only
// once. A failed Finalize leaves the router unchanged, so it can be
// retried with a different syntax.
func (r *Router) Finalize(opts ...FinalizeOption) (*DispatchTable, *DocumentTree, error) {
	if err := r.mutable("finalize"); err != nil {
		return nil, nil, err
	}

	cfg := finalizeConfig{syntax: StdSyntax}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.syntax == nil {
		cfg.syntax = StdSyntax
	}

	var inst *instrumentation
	if cfg.registry != nil {
		var err error
		if inst, err = newInstrumentation(cfg.registry); err != nil {
			return nil, nil, routeErr("finalize", "", "", err)
		}
	}

	table, tree, err := r.node.freeze(cfg.syntax, inst)
	if err != nil {
		return nil, nil, err
	}

	r.table, r.tree = table, tree
	r.state = stateFinalized
	r.node = nil

	r.logger.Debug("router finalized",
		"syntax", table.syntax,
		"paths", len(tree.paths),
		"operations", tree.Len(),
	)
	return table, tree, nil
}

// freeze builds both artifacts from one walk over the routes so the
// dispatch table and the document tree can never disagree.
func (n *node) freeze(syntax PathSyntax, inst *instrumentation) (*DispatchTable, *DocumentTree, error) {
	table := &DispatchTable{
		syntax: syntax.Name(),
		routes: make([]DispatchRoute, 0, len(n.routes)),
		index:  make(map[string]int, len(n.routes)),
	}
	tree := &DocumentTree{paths: make([]DocPath, 0, len(n.routes))}
	docIndex := make(map[string]bool, len(n.routes))
	schemas := make(map[string]JSONSchema)

	for _, e := range n.routes {
		tmpl := e.path.String()

		native, err := syntax.Translate(e.path)
		if err != nil {
			if !errors.Is(err, ErrUnsupportedPathSyntax) {
				err = fmt.Errorf("%w: %w", ErrUnsupportedPathSyntax, err)
			}
			return nil, nil, routeErr("finalize", "", tmpl, err)
		}
		if _, dup := table.index[native]; dup {
			return nil, nil, routeErr("finalize", "", tmpl, fmt.Errorf("%w: %s translates to %s twice", ErrPathCollision, tmpl, native))
		}

		docPath := e.path.docPath()
		if docIndex[docPath] {
			return nil, nil, routeErr("finalize", "", tmpl, fmt.Errorf("%w: documented path %s", ErrPathCollision, docPath))
		}
		docIndex[docPath] = true

		route := DispatchRoute{Path: native, Template: e.path}
		doc := DocPath{Path: docPath, Template: e.path}

		for _, b := range e.bindings() {
			m := b.op.method
			if err := checkSchemas(schemas, b.op); err != nil {
				return nil, nil, routeErr("finalize", m, tmpl, err)
			}

			op := b.op.withDefaultTags(n.tags)

			h := chain(b.handler, n.middleware)
			h = inst.wrap(tmpl, h)
			h = withRoute(tmpl, op, h)

			route.Handlers = append(route.Handlers, MethodHandler{Method: m, Handler: h})
			doc.Operations = append(doc.Operations, op)
		}

		table.index[native] = len(table.routes)
		table.routes = append(table.routes, route)
		tree.paths = append(tree.paths, doc)
	}

	return table, tree, nil
}
