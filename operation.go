package docroute

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Param describes a single operation parameter.
type Param struct {
	Name        string
	In          string // "path", "query", "header" or "cookie"
	Description string
	Required    bool
	Schema      JSONSchema
}

// PathParam returns a required path parameter with a string schema.
func PathParam(name, description string) Param {
	return Param{Name: name, In: "path", Description: description, Required: true, Schema: JSONSchema{Type: "string"}}
}

// QueryParam returns an optional query parameter.
func QueryParam(name string, schema JSONSchema, description string) Param {
	return Param{Name: name, In: "query", Description: description, Schema: schema}
}

// HeaderParam returns an optional header parameter.
func HeaderParam(name string, schema JSONSchema, description string) Param {
	return Param{Name: name, In: "header", Description: description, Schema: schema}
}

// Response describes the response for one status code.
type Response struct {
	Status      int
	Description string
	ContentType string // defaults to application/json when Body is set
	Body        SchemaRef
}

// RateLimit is a token bucket applied to a single operation.
type RateLimit struct {
	Rate  float64 // requests per second
	Burst int
}

// Operation documents one (method, path) pair. Build it with Describe;
// once built it cannot be modified.
type Operation struct {
	method      Method
	path        PathTemplate
	summary     string
	description string
	operationID string
	params      []Param
	body        SchemaRef
	responses   []Response
	tags        []string
	deprecated  bool
	extensions  map[string]any
	rateLimit   *RateLimit

	errs []error
}

// OperationOption configures an Operation inside Describe.
type OperationOption func(*Operation)

// Describe builds the descriptor for method and path. Path parameters
// present in the template but not declared with WithParams are added
// automatically with a string schema (and the constraint as pattern).
func Describe(method Method, path string, opts ...OperationOption) (Operation, error) {
	if !method.Valid() {
		return Operation{}, fmt.Errorf("%w: unknown method %q", ErrDescriptorMismatch, string(method))
	}
	tmpl, err := ParsePath(path)
	if err != nil {
		return Operation{}, err
	}

	op := Operation{method: method, path: tmpl}
	for _, opt := range opts {
		opt(&op)
	}
	if err := errors.Join(op.errs...); err != nil {
		return Operation{}, err
	}
	op.errs = nil

	params, err := resolvePathParams(tmpl, op.params)
	if err != nil {
		return Operation{}, err
	}
	op.params = params

	if len(op.responses) == 0 {
		op.responses = []Response{{Status: http.StatusOK, Description: "Successful response"}}
	}

	return op, nil
}

// MustDescribe is like Describe but panics on error.
func MustDescribe(method Method, path string, opts ...OperationOption) Operation {
	op, err := Describe(method, path, opts...)
	if err != nil {
		panic(err)
	}
	return op
}

// resolvePathParams orders path parameters by template position, fills in
// undeclared ones and rejects declared ones the template does not have.
func resolvePathParams(tmpl PathTemplate, declared []Param) ([]Param, error) {
	byName := make(map[string]Param)
	var rest []Param
	for _, p := range declared {
		if p.In != "path" {
			rest = append(rest, p)
			continue
		}
		byName[p.Name] = p
	}

	var out []Param
	for _, seg := range tmpl.segs {
		if seg.Kind == Literal {
			continue
		}
		p, ok := byName[seg.Value]
		if !ok {
			p = PathParam(seg.Value, "")
		}
		p.Required = true
		if seg.Pattern != "" && p.Schema.Pattern == "" {
			p.Schema.Pattern = "^" + seg.Pattern + "$"
		}
		delete(byName, seg.Value)
		out = append(out, p)
	}

	if len(byName) > 0 {
		names := slices.Sorted(maps.Keys(byName))
		return nil, fmt.Errorf("%w: path parameters %s are not in %s",
			ErrDescriptorMismatch, strings.Join(names, ", "), tmpl)
	}

	return append(out, rest...), nil
}

// WithSummary sets the operation summary.
func WithSummary(s string) OperationOption {
	return func(op *Operation) {
		op.summary = s
	}
}

// WithDescription sets the operation description.
func WithDescription(d string) OperationOption {
	return func(op *Operation) {
		op.description = d
	}
}

// WithOperationID sets the operationId.
func WithOperationID(id string) OperationOption {
	return func(op *Operation) {
		op.operationID = id
	}
}

// WithTags adds tags. Duplicates are ignored.
func WithTags(tags ...string) OperationOption {
	return func(op *Operation) {
		for _, t := range tags {
			if !slices.Contains(op.tags, t) {
				op.tags = append(op.tags, t)
			}
		}
	}
}

// WithDeprecated marks the operation as deprecated.
func WithDeprecated() OperationOption {
	return func(op *Operation) {
		op.deprecated = true
	}
}

// WithParams declares parameters.
func WithParams(params ...Param) OperationOption {
	return func(op *Operation) {
		for _, p := range params {
			if p.Name == "" || p.In == "" {
				op.errs = append(op.errs, fmt.Errorf("%w: parameter needs a name and location", ErrDescriptorMismatch))
				continue
			}
			op.params = append(op.params, p)
		}
	}
}

// WithRequestBody sets the JSON request body schema.
func WithRequestBody(body SchemaRef) OperationOption {
	return func(op *Operation) {
		op.body = body
	}
}

// WithResponse declares the response for status. A later declaration for
// the same status replaces an earlier one.
func WithResponse(status int, description string, body SchemaRef) OperationOption {
	return WithResponses(Response{Status: status, Description: description, Body: body})
}

// WithResponses declares full response objects.
func WithResponses(rs ...Response) OperationOption {
	return func(op *Operation) {
		for _, r := range rs {
			if r.Status < 100 || r.Status > 599 {
				op.errs = append(op.errs, fmt.Errorf("%w: invalid status %d", ErrDescriptorMismatch, r.Status))
				continue
			}
			op.responses = upsertResponse(op.responses, r)
		}
	}
}

// WithExtension adds an OpenAPI extension. The key must start with "x-".
func WithExtension(key string, value any) OperationOption {
	return func(op *Operation) {
		if !strings.HasPrefix(key, "x-") {
			op.errs = append(op.errs, fmt.Errorf("%w: extension key %q must start with x-", ErrDescriptorMismatch, key))
			return
		}
		if op.extensions == nil {
			op.extensions = make(map[string]any)
		}
		op.extensions[key] = value
	}
}

// WithRateLimit limits the operation to rate requests per second with the
// given burst. The limit is enforced by the dispatch handler and published
// in the document.
func WithRateLimit(rate float64, burst int) OperationOption {
	return func(op *Operation) {
		if rate <= 0 || burst <= 0 {
			op.errs = append(op.errs, fmt.Errorf("%w: rate limit needs positive rate and burst", ErrDescriptorMismatch))
			return
		}
		op.rateLimit = &RateLimit{Rate: rate, Burst: burst}
	}
}

// upsertResponse keeps responses ordered by status code.
func upsertResponse(rs []Response, r Response) []Response {
	i, found := slices.BinarySearchFunc(rs, r.Status, func(e Response, status int) int {
		return e.Status - status
	})
	if found {
		rs[i] = r
		return rs
	}
	return slices.Insert(rs, i, r)
}

// Method returns the HTTP method.
func (op Operation) Method() Method { return op.method }

// Path returns the path template.
func (op Operation) Path() PathTemplate { return op.path }

// Summary returns the summary.
func (op Operation) Summary() string { return op.summary }

// Description returns the description.
func (op Operation) Description() string { return op.description }

// OperationID returns the operationId.
func (op Operation) OperationID() string { return op.operationID }

// Deprecated reports whether the operation is deprecated.
func (op Operation) Deprecated() bool { return op.deprecated }

// RequestBody returns the request body schema.
func (op Operation) RequestBody() SchemaRef { return op.body }

// Params returns a copy of the parameters.
func (op Operation) Params() []Param { return slices.Clone(op.params) }

// Responses returns a copy of the responses ordered by status code.
func (op Operation) Responses() []Response { return slices.Clone(op.responses) }

// Tags returns a copy of the tags.
func (op Operation) Tags() []string { return slices.Clone(op.tags) }

// Extensions returns a copy of the extensions.
func (op Operation) Extensions() map[string]any { return maps.Clone(op.extensions) }

// RateLimit returns the operation's rate limit, if any.
func (op Operation) RateLimit() (RateLimit, bool) {
	if op.rateLimit == nil {
		return RateLimit{}, false
	}
	return *op.rateLimit, true
}

// schemaRefs returns the request and response body schemas of op.
func (op Operation) schemaRefs() []SchemaRef {
	refs := make([]SchemaRef, 0, len(op.responses)+1)
	if !op.body.IsZero() {
		refs = append(refs, op.body)
	}
	for _, r := range op.responses {
		if !r.Body.IsZero() {
			refs = append(refs, r.Body)
		}
	}
	return refs
}

// withPath returns a copy of op mounted at p.
func (op Operation) withPath(p PathTemplate) Operation {
	op.path = p
	return op
}

// withDefaultTags returns op with tags set when it has none.
func (op Operation) withDefaultTags(tags []string) Operation {
	if len(op.tags) > 0 || len(tags) == 0 {
		return op
	}
	op.tags = slices.Clone(tags)
	return op
}
