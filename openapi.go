package docroute

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"reflect"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// OpenAPISpec is the top-level OpenAPI 3.1 document.
type OpenAPISpec struct {
	OpenAPI    string      `json:"openapi" yaml:"openapi"`
	Info       OpenAPIInfo `json:"info" yaml:"info"`
	Servers    []Server    `json:"servers,omitempty" yaml:"servers,omitempty"`
	Tags       []Tag       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Paths      Paths       `json:"paths" yaml:"paths"`
	Components *Components `json:"components,omitempty" yaml:"components,omitempty"`
}

// OpenAPIInfo holds API metadata.
type OpenAPIInfo struct {
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Server is an entry of the servers array.
type Server struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Tag is an entry of the top-level tags array.
type Tag struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Components holds reusable schemas referenced with $ref.
type Components struct {
	Schemas map[string]JSONSchema `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// PathItem holds the operations of one path. Field order is the canonical
// method order, which both encoders preserve.
type PathItem struct {
	Get     *OperationObject `json:"get,omitempty" yaml:"get,omitempty"`
	Put     *OperationObject `json:"put,omitempty" yaml:"put,omitempty"`
	Post    *OperationObject `json:"post,omitempty" yaml:"post,omitempty"`
	Delete  *OperationObject `json:"delete,omitempty" yaml:"delete,omitempty"`
	Options *OperationObject `json:"options,omitempty" yaml:"options,omitempty"`
	Head    *OperationObject `json:"head,omitempty" yaml:"head,omitempty"`
	Patch   *OperationObject `json:"patch,omitempty" yaml:"patch,omitempty"`
	Trace   *OperationObject `json:"trace,omitempty" yaml:"trace,omitempty"`
}

func (p *PathItem) slot(m Method) **OperationObject {
	//exhaustive:ignore
	switch m {
	case GET:
		return &p.Get
	case PUT:
		return &p.Put
	case POST:
		return &p.Post
	case DELETE:
		return &p.Delete
	case OPTIONS:
		return &p.Options
	case HEAD:
		return &p.Head
	case PATCH:
		return &p.Patch
	case TRACE:
		return &p.Trace
	default:
		return nil
	}
}

// Operation returns the operation for m, or nil.
func (p PathItem) Operation(m Method) *OperationObject {
	if s := p.slot(m); s != nil {
		return *s
	}
	return nil
}

// Methods returns the methods present, in canonical order.
func (p PathItem) Methods() []Method {
	var out []Method
	for _, m := range methodOrder {
		if p.Operation(m) != nil {
			out = append(out, m)
		}
	}
	return out
}

// Paths is the ordered paths object. Encoding keeps insertion order, so
// documents are byte-for-byte reproducible.
type Paths struct {
	keys  []string
	items map[string]PathItem
}

// Keys returns the paths in document order.
func (p Paths) Keys() []string { return slices.Clone(p.keys) }

// Len returns the number of paths.
func (p Paths) Len() int { return len(p.keys) }

// Get returns the path item for path.
func (p Paths) Get(path string) (PathItem, bool) {
	item, ok := p.items[path]
	return item, ok
}

func (p *Paths) set(path string, item PathItem) {
	if p.items == nil {
		p.items = make(map[string]PathItem)
	}
	if _, ok := p.items[path]; !ok {
		p.keys = append(p.keys, path)
	}
	p.items[path] = item
}

// MarshalJSON writes the paths in document order.
func (p Paths) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.items[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads paths keeping their order.
func (p *Paths) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = Paths{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("paths: unexpected key %v", tok)
		}
		var item PathItem
		if err := dec.Decode(&item); err != nil {
			return err
		}
		p.set(key, item)
	}
	_, err := dec.Token()
	return err
}

// MarshalYAML writes the paths in document order.
func (p Paths) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range p.keys {
		var val yaml.Node
		if err := val.Encode(p.items[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}

// UnmarshalYAML reads paths keeping their order.
func (p *Paths) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("paths: expected a mapping, got kind %d", value.Kind)
	}
	*p = Paths{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var item PathItem
		if err := value.Content[i+1].Decode(&item); err != nil {
			return err
		}
		p.set(value.Content[i].Value, item)
	}
	return nil
}

// OperationObject describes a single API operation on a path.
type OperationObject struct {
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Summary     string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	OperationID string         `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Parameters  []Parameter    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody   `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   OperationResp  `json:"responses" yaml:"responses"`
	Deprecated  bool           `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Extensions  map[string]any `json:"-" yaml:",inline"`
}

type operationObject OperationObject

// MarshalJSON inlines the x- extensions next to the regular fields.
func (o OperationObject) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(operationObject(o))
	if err != nil {
		return nil, err
	}
	if len(o.Extensions) == 0 {
		return base, nil
	}
	ext, err := json.Marshal(o.Extensions)
	if err != nil {
		return nil, err
	}
	// base always has "responses", so it is never "{}".
	out := make([]byte, 0, len(base)+len(ext))
	out = append(out, base[:len(base)-1]...)
	out = append(out, ',')
	out = append(out, ext[1:]...)
	return out, nil
}

// UnmarshalJSON collects x- fields into Extensions.
func (o *OperationObject) UnmarshalJSON(data []byte) error {
	var base operationObject
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if len(k) < 2 || k[:2] != "x-" {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		if base.Extensions == nil {
			base.Extensions = make(map[string]any)
		}
		base.Extensions[k] = val
	}
	*o = OperationObject(base)
	return nil
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string     `json:"name" yaml:"name"`
	In          string     `json:"in" yaml:"in"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Schema      JSONSchema `json:"schema" yaml:"schema"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Required bool                `json:"required" yaml:"required"`
	Content  map[string]MediaObj `json:"content" yaml:"content"`
}

// MediaObj is a media type object with an optional schema.
type MediaObj struct {
	Schema *JSONSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// OperationResp maps HTTP status codes to response objects.
type OperationResp map[string]ResponseObj

// ResponseObj describes a single response.
type ResponseObj struct {
	Description string              `json:"description" yaml:"description"`
	Content     map[string]MediaObj `json:"content,omitempty" yaml:"content,omitempty"`
}

// DocOption configures the generated OpenAPI document.
type DocOption func(*docConfig)

type docConfig struct {
	info     OpenAPIInfo
	servers  []Server
	tagDescs map[string]string
}

// WithTitle sets the API title.
func WithTitle(title string) DocOption {
	return func(c *docConfig) {
		c.info.Title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) DocOption {
	return func(c *docConfig) {
		c.info.Version = version
	}
}

// WithAPIDescription sets the info description.
func WithAPIDescription(desc string) DocOption {
	return func(c *docConfig) {
		c.info.Description = desc
	}
}

// WithServers sets the servers array.
func WithServers(servers ...Server) DocOption {
	return func(c *docConfig) {
		c.servers = append(c.servers, servers...)
	}
}

// WithTagDescriptions sets descriptions for tags.
func WithTagDescriptions(descs map[string]string) DocOption {
	return func(c *docConfig) {
		if c.tagDescs == nil {
			c.tagDescs = make(map[string]string)
		}
		maps.Copy(c.tagDescs, descs)
	}
}

// OpenAPI renders the tree as an OpenAPI 3.1 document. The result depends
// only on the tree and opts.
func (d *DocumentTree) OpenAPI(opts ...DocOption) OpenAPISpec {
	var cfg docConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	spec := OpenAPISpec{
		OpenAPI: "3.1.0",
		Info:    cfg.info,
		Servers: cfg.servers,
	}

	schemas := make(map[string]JSONSchema)
	var tagOrder []string

	for _, p := range d.paths {
		var item PathItem
		for _, op := range p.Operations {
			obj := buildOperation(op, schemas)
			*item.slot(op.method) = &obj
			for _, t := range op.tags {
				if !slices.Contains(tagOrder, t) {
					tagOrder = append(tagOrder, t)
				}
			}
		}
		spec.Paths.set(p.Path, item)
	}

	for _, name := range slices.Sorted(maps.Keys(cfg.tagDescs)) {
		if !slices.Contains(tagOrder, name) {
			tagOrder = append(tagOrder, name)
		}
	}
	for _, name := range tagOrder {
		spec.Tags = append(spec.Tags, Tag{Name: name, Description: cfg.tagDescs[name]})
	}

	if len(schemas) > 0 {
		spec.Components = &Components{Schemas: schemas}
	}

	return spec
}

// buildOperation renders op, registering named schemas in schemas.
func buildOperation(op Operation, schemas map[string]JSONSchema) OperationObject {
	obj := OperationObject{
		Tags:        op.Tags(),
		Summary:     op.summary,
		Description: op.description,
		OperationID: op.operationID,
		Deprecated:  op.deprecated,
		Responses:   make(OperationResp, len(op.responses)+1),
		Extensions:  op.Extensions(),
	}

	for _, p := range op.params {
		obj.Parameters = append(obj.Parameters, Parameter{
			Name:        p.Name,
			In:          p.In,
			Description: p.Description,
			Required:    p.Required,
			Schema:      p.Schema,
		})
	}

	if !op.body.IsZero() {
		collectSchema(op.body, schemas)
		obj.RequestBody = &RequestBody{
			Required: true,
			Content: map[string]MediaObj{
				"application/json": {Schema: op.body.docSchema()},
			},
		}
	}

	for _, r := range op.responses {
		resp := ResponseObj{Description: r.Description}
		if resp.Description == "" {
			resp.Description = http.StatusText(r.Status)
		}
		if !r.Body.IsZero() {
			collectSchema(r.Body, schemas)
			ct := r.ContentType
			if ct == "" {
				ct = "application/json"
			}
			resp.Content = map[string]MediaObj{ct: {Schema: r.Body.docSchema()}}
		}
		obj.Responses[strconv.Itoa(r.Status)] = resp
	}

	if rl, ok := op.RateLimit(); ok {
		if obj.Extensions == nil {
			obj.Extensions = make(map[string]any)
		}
		obj.Extensions["x-rate-limit"] = map[string]any{"rate": rl.Rate, "burst": rl.Burst}

		code := strconv.Itoa(http.StatusTooManyRequests)
		if _, ok := obj.Responses[code]; !ok {
			obj.Responses[code] = ResponseObj{Description: http.StatusText(http.StatusTooManyRequests)}
		}
	}

	return obj
}

// collectSchema records a named schema. Finalize has already rejected two
// different schemas under one name, so the first definition is the only one.
func collectSchema(ref SchemaRef, schemas map[string]JSONSchema) {
	if ref.name == "" {
		return
	}
	if _, ok := schemas[ref.name]; !ok {
		schemas[ref.name] = ref.Schema()
	}
}

// checkSchemas records the named schemas op refers to in seen and fails if
// a name is already bound to a different schema.
func checkSchemas(seen map[string]JSONSchema, op Operation) error {
	for _, ref := range op.schemaRefs() {
		if ref.name == "" {
			continue
		}
		prev, ok := seen[ref.name]
		if !ok {
			seen[ref.name] = ref.Schema()
			continue
		}
		if !reflect.DeepEqual(prev, ref.Schema()) {
			return fmt.Errorf("%w: component schema %q has conflicting definitions", ErrDescriptorMismatch, ref.name)
		}
	}
	return nil
}
