package docroute

import (
	"reflect"
	"regexp"
	"strings"
	"time"
)

// JSONSchema represents a JSON Schema object (subset for OpenAPI 3.1).
type JSONSchema struct {
	Type        string                `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string                `json:"format,omitempty" yaml:"format,omitempty"`
	Pattern     string                `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty" yaml:"items,omitempty"`
	Required    []string              `json:"required,omitempty" yaml:"required,omitempty"`
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string              `json:"enum,omitempty" yaml:"enum,omitempty"`
	Ref         string                `json:"$ref,omitempty" yaml:"$ref,omitempty"`

	// AdditionalProperties can be true (any) or a schema.
	AdditionalProperties *JSONSchema `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

// SchemaRef points at the schema of a request or response body. A named
// ref is emitted as a $ref into components.schemas; an unnamed one is
// inlined. The zero value means "no body".
type SchemaRef struct {
	name   string
	schema *JSONSchema
}

// Ref returns a named schema reference.
func Ref(name string, schema JSONSchema) SchemaRef {
	return SchemaRef{name: componentName(name), schema: &schema}
}

// Inline returns an anonymous schema that is embedded where it is used.
func Inline(schema JSONSchema) SchemaRef {
	return SchemaRef{schema: &schema}
}

// RefOf reflects T into a schema. Named types become components, anything
// else is inlined.
func RefOf[T any]() SchemaRef {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	schema := typeToSchema(t)
	if t.Name() == "" || t.Kind() != reflect.Struct {
		return Inline(schema)
	}
	return Ref(t.Name(), schema)
}

// SchemaOf reflects T into an inline JSON schema.
func SchemaOf[T any]() JSONSchema {
	return typeToSchema(reflect.TypeFor[T]())
}

// Name returns the component name, or "" for inline schemas.
func (s SchemaRef) Name() string { return s.name }

// IsZero reports whether s describes no body.
func (s SchemaRef) IsZero() bool { return s.schema == nil }

// Schema returns a copy of the referenced schema.
func (s SchemaRef) Schema() JSONSchema {
	if s.schema == nil {
		return JSONSchema{}
	}
	return *s.schema
}

// docSchema is the schema emitted at the point of use.
func (s SchemaRef) docSchema() *JSONSchema {
	if s.schema == nil {
		return nil
	}
	if s.name != "" {
		return &JSONSchema{Ref: "#/components/schemas/" + s.name}
	}
	sc := *s.schema
	return &sc
}

var componentNameReplacer = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// componentName makes name safe for use as a components.schemas key.
// Generic instantiations such as Page[main.Item] become Page_main.Item_.
func componentName(name string) string {
	return componentNameReplacer.ReplaceAllString(name, "_")
}

// typeToSchema converts a reflect.Type to a JSONSchema.
func typeToSchema(t reflect.Type) JSONSchema {
	return schemaFor(t, make(map[reflect.Type]bool))
}

func schemaFor(t reflect.Type, visiting map[reflect.Type]bool) JSONSchema {
	// Unwrap pointer.
	if t.Kind() == reflect.Pointer {
		return schemaFor(t.Elem(), visiting)
	}

	// Handle well-known types.
	switch t {
	case reflect.TypeFor[time.Time]():
		return JSONSchema{Type: "string", Format: "date-time"}
	case reflect.TypeFor[time.Duration]():
		return JSONSchema{Type: "string", Format: "duration"}
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		return JSONSchema{Type: "string"}
	case reflect.Bool:
		return JSONSchema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return JSONSchema{Type: "integer"}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return JSONSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return JSONSchema{Type: "number"}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return JSONSchema{Type: "string", Format: "byte"}
		}
		items := schemaFor(t.Elem(), visiting)
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Array:
		items := schemaFor(t.Elem(), visiting)
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return JSONSchema{Type: "object"}
		}
		valSchema := schemaFor(t.Elem(), visiting)
		return JSONSchema{Type: "object", AdditionalProperties: &valSchema}
	case reflect.Struct:
		if visiting[t] {
			return JSONSchema{Type: "object"}
		}
		visiting[t] = true
		defer delete(visiting, t)
		return structToSchema(t, visiting)
	default:
		return JSONSchema{}
	}
}

// structToSchema converts a struct type to a JSONSchema with properties.
func structToSchema(t reflect.Type, visiting map[reflect.Type]bool) JSONSchema {
	schema := JSONSchema{
		Type:       "object",
		Properties: make(map[string]JSONSchema),
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name := jsonFieldName(f)
		if name == "-" {
			continue
		}

		prop := schemaFor(f.Type, visiting)

		if doc := f.Tag.Get("doc"); doc != "" {
			prop.Description = doc
		}

		schema.Properties[name] = prop

		if f.Tag.Get("required") == "true" {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// jsonFieldName returns the JSON field name for a struct field.
func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}
