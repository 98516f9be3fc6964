package docroute_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bjaus/docroute"
)

type User struct {
	ID    string `json:"id" required:"true"`
	Email string `json:"email" doc:"Primary contact address"`
}

type NewUser struct {
	Email string `json:"email" required:"true"`
}

// templateSyntax dispatches on the template text itself. It accepts every
// template, constraints included.
var templateSyntax = docroute.SyntaxFunc("template", func(p docroute.PathTemplate) (string, error) {
	return p.String(), nil
})

func buildDocRouter(t *testing.T) *docroute.Router {
	t.Helper()

	users := docroute.New(docroute.WithDefaultTags("users"))
	require.NoError(t, users.Get("/", ok,
		docroute.WithSummary("List users"),
		docroute.WithOperationID("listUsers"),
		docroute.WithParams(docroute.QueryParam("limit", docroute.JSONSchema{Type: "integer"}, "Page size")),
		docroute.WithResponse(http.StatusOK, "", docroute.RefOf[[]User]()),
	))
	require.NoError(t, users.Post("/", ok,
		docroute.WithSummary("Create user"),
		docroute.WithRequestBody(docroute.RefOf[NewUser]()),
		docroute.WithResponse(http.StatusCreated, "Created", docroute.RefOf[User]()),
		docroute.WithRateLimit(2, 4),
	))
	require.NoError(t, users.Get("/{id}", ok,
		docroute.WithSummary("Get user"),
		docroute.WithParams(docroute.PathParam("id", "User identifier")),
		docroute.WithResponse(http.StatusOK, "The user", docroute.RefOf[User]()),
		docroute.WithResponse(http.StatusNotFound, "", docroute.SchemaRef{}),
		docroute.WithDeprecated(),
	))

	r := docroute.New()
	require.NoError(t, r.Nest("/v1/users", users))
	require.NoError(t, r.Get("/health", ok,
		docroute.WithTags("meta"),
		docroute.WithResponse(http.StatusOK, "Healthy", docroute.Inline(docroute.JSONSchema{Type: "string"})),
	))
	return r
}

func buildDoc(t *testing.T) docroute.OpenAPISpec {
	t.Helper()
	_, tree, err := buildDocRouter(t).Finalize()
	require.NoError(t, err)
	return tree.OpenAPI(
		docroute.WithTitle("Users"),
		docroute.WithVersion("1.2.3"),
		docroute.WithAPIDescription("User management"),
		docroute.WithServers(docroute.Server{URL: "https://api.example.com"}),
		docroute.WithTagDescriptions(map[string]string{
			"users":   "User operations",
			"billing": "Billing operations",
			"admin":   "Admin operations",
		}),
	)
}

func TestOpenAPI_document(t *testing.T) {
	t.Parallel()

	spec := buildDoc(t)

	assert.Equal(t, "3.1.0", spec.OpenAPI)
	assert.Equal(t, docroute.OpenAPIInfo{Title: "Users", Version: "1.2.3", Description: "User management"}, spec.Info)
	assert.Equal(t, []docroute.Server{{URL: "https://api.example.com"}}, spec.Servers)
	assert.Equal(t, []string{"/v1/users", "/v1/users/{id}", "/health"}, spec.Paths.Keys())

	list, found := spec.Paths.Get("/v1/users")
	require.True(t, found)
	assert.Equal(t, []docroute.Method{docroute.GET, docroute.POST}, list.Methods())

	get := list.Operation(docroute.GET)
	require.NotNil(t, get)
	assert.Equal(t, "listUsers", get.OperationID)
	assert.Equal(t, []string{"users"}, get.Tags)
	assert.Equal(t, []docroute.Parameter{
		{Name: "limit", In: "query", Description: "Page size", Schema: docroute.JSONSchema{Type: "integer"}},
	}, get.Parameters)
	require.Contains(t, get.Responses, "200")
	assert.Equal(t, "OK", get.Responses["200"].Description)
	arr := get.Responses["200"].Content["application/json"].Schema
	require.NotNil(t, arr)
	assert.Equal(t, "array", arr.Type)

	post := list.Operation(docroute.POST)
	require.NotNil(t, post)
	require.NotNil(t, post.RequestBody)
	assert.True(t, post.RequestBody.Required)
	assert.Equal(t, "#/components/schemas/NewUser", post.RequestBody.Content["application/json"].Schema.Ref)
	assert.Equal(t, "#/components/schemas/User", post.Responses["201"].Content["application/json"].Schema.Ref)
	assert.Equal(t, map[string]any{"rate": float64(2), "burst": 4}, post.Extensions["x-rate-limit"])
	assert.Equal(t, "Too Many Requests", post.Responses["429"].Description)
	assert.Nil(t, list.Operation(docroute.DELETE))

	byID, found := spec.Paths.Get("/v1/users/{id}")
	require.True(t, found)
	one := byID.Get
	require.NotNil(t, one)
	assert.True(t, one.Deprecated)
	assert.Equal(t, []docroute.Parameter{
		{Name: "id", In: "path", Description: "User identifier", Required: true, Schema: docroute.JSONSchema{Type: "string"}},
	}, one.Parameters)
	assert.Equal(t, "Not Found", one.Responses["404"].Description)
	assert.Nil(t, one.Responses["404"].Content)

	health, found := spec.Paths.Get("/health")
	require.True(t, found)
	assert.Equal(t, &docroute.JSONSchema{Type: "string"}, health.Get.Responses["200"].Content["application/json"].Schema)

	require.NotNil(t, spec.Components)
	assert.Equal(t, []string{"id"}, spec.Components.Schemas["User"].Required)
	assert.Equal(t, "Primary contact address", spec.Components.Schemas["User"].Properties["email"].Description)
	assert.Contains(t, spec.Components.Schemas, "NewUser")
	assert.Len(t, spec.Components.Schemas, 2)
}

func TestOpenAPI_tags(t *testing.T) {
	t.Parallel()

	spec := buildDoc(t)
	assert.Equal(t, []docroute.Tag{
		{Name: "users", Description: "User operations"},
		{Name: "meta"},
		{Name: "admin", Description: "Admin operations"},
		{Name: "billing", Description: "Billing operations"},
	}, spec.Tags)
}

func TestOpenAPI_constraint_becomes_pattern(t *testing.T) {
	t.Parallel()

	r := docroute.New()
	require.NoError(t, r.Get("/items/{id:[0-9]+}", ok))
	require.NoError(t, r.Get("/files/{path...}", ok))

	_, tree, err := r.Finalize(docroute.WithSyntax(templateSyntax))
	require.NoError(t, err)
	spec := tree.OpenAPI()

	assert.Equal(t, []string{"/items/{id}", "/files/{path}"}, spec.Paths.Keys())

	item, _ := spec.Paths.Get("/items/{id}")
	require.Len(t, item.Get.Parameters, 1)
	assert.Equal(t, "^[0-9]+$", item.Get.Parameters[0].Schema.Pattern)
	assert.True(t, item.Get.Parameters[0].Required)

	// The default response is documented when none is declared.
	assert.Equal(t, "Successful response", item.Get.Responses["200"].Description)
}

func TestOpenAPI_json_keeps_path_order(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, docroute.WriteJSON(&buf, buildDoc(t)))
	out := buf.String()

	users := strings.Index(out, `"/v1/users":`)
	byID := strings.Index(out, `"/v1/users/{id}":`)
	health := strings.Index(out, `"/health":`)
	require.Positive(t, users)
	assert.Less(t, users, byID)
	assert.Less(t, byID, health)

	get := strings.Index(out, `"get":`)
	post := strings.Index(out, `"post":`)
	assert.Less(t, get, post)

	assert.Contains(t, out, `"x-rate-limit": {`)
}

func TestOpenAPI_is_deterministic(t *testing.T) {
	t.Parallel()

	a, b := buildDoc(t), buildDoc(t)
	if diff := cmp.Diff(a, b, cmp.AllowUnexported(docroute.Paths{})); diff != "" {
		t.Errorf("documents differ (-first +second):\n%s", diff)
	}

	var ja, jb bytes.Buffer
	require.NoError(t, docroute.WriteJSON(&ja, a))
	require.NoError(t, docroute.WriteJSON(&jb, b))
	assert.Equal(t, ja.String(), jb.String())

	var ya, yb bytes.Buffer
	require.NoError(t, docroute.WriteYAML(&ya, a))
	require.NoError(t, docroute.WriteYAML(&yb, b))
	assert.Equal(t, ya.String(), yb.String())
}

func TestOpenAPI_json_round_trip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, docroute.WriteJSON(&buf, buildDoc(t)))

	var got docroute.OpenAPISpec
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"/v1/users", "/v1/users/{id}", "/health"}, got.Paths.Keys())

	list, _ := got.Paths.Get("/v1/users")
	require.NotNil(t, list.Post)
	assert.Equal(t, map[string]any{"rate": float64(2), "burst": float64(4)}, list.Post.Extensions["x-rate-limit"])
	assert.Nil(t, list.Get.Extensions)

	var again bytes.Buffer
	require.NoError(t, docroute.WriteJSON(&again, got))
	assert.JSONEq(t, buf.String(), again.String())
}

func TestOpenAPI_yaml_round_trip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, docroute.WriteYAML(&buf, buildDoc(t)))
	assert.True(t, strings.HasPrefix(buf.String(), "openapi: 3.1.0\n"))

	var got docroute.OpenAPISpec
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"/v1/users", "/v1/users/{id}", "/health"}, got.Paths.Keys())

	var again bytes.Buffer
	require.NoError(t, docroute.WriteYAML(&again, got))
	assert.Equal(t, buf.String(), again.String())
}

func TestOperationObject_extensions_json(t *testing.T) {
	t.Parallel()

	obj := docroute.OperationObject{
		Summary:    "s",
		Responses:  docroute.OperationResp{"200": {Description: "OK"}},
		Extensions: map[string]any{"x-internal": true},
	}
	b, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"s","responses":{"200":{"description":"OK"}},"x-internal":true}`, string(b))

	var got docroute.OperationObject
	require.NoError(t, json.Unmarshal([]byte(`{"summary":"s","responses":{},"x-a":1,"other":2}`), &got))
	assert.Equal(t, map[string]any{"x-a": float64(1)}, got.Extensions)
}

func TestSpecHandlers(t *testing.T) {
	t.Parallel()

	spec := buildDoc(t)

	tests := map[string]struct {
		handler     func() (http.Handler, error)
		contentType string
		decode      func([]byte, any) error
	}{
		"json": {
			handler:     func() (http.Handler, error) { return docroute.SpecHandler(spec) },
			contentType: "application/json",
			decode:      json.Unmarshal,
		},
		"yaml": {
			handler:     func() (http.Handler, error) { return docroute.SpecYAMLHandler(spec) },
			contentType: "application/yaml",
			decode:      yaml.Unmarshal,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h, err := tc.handler()
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.contentType, rec.Header().Get("Content-Type"))

			body, err := io.ReadAll(rec.Body)
			require.NoError(t, err)
			var got docroute.OpenAPISpec
			require.NoError(t, tc.decode(body, &got))
			assert.Equal(t, "Users", got.Info.Title)
			assert.Equal(t, 3, got.Paths.Len())
		})
	}
}

func TestDocsHandler(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts      []docroute.DocsOption
		wantTitle string
		wantURL   string
	}{
		"defaults": {
			wantTitle: "<title>API Reference</title>",
			wantURL:   `apiDescriptionUrl="/openapi.json"`,
		},
		"custom": {
			opts:      []docroute.DocsOption{docroute.WithDocsTitle("Users"), docroute.WithSpecURL("/v1/spec.json")},
			wantTitle: "<title>Users</title>",
			wantURL:   `apiDescriptionUrl="/v1/spec.json"`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			docroute.DocsHandler(tc.opts...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tc.wantTitle)
			assert.Contains(t, rec.Body.String(), tc.wantURL)
		})
	}
}

func TestFinalize_conflicting_component_schemas(t *testing.T) {
	t.Parallel()

	order := docroute.JSONSchema{Type: "object", Properties: map[string]docroute.JSONSchema{"id": {Type: "integer"}}}

	tests := map[string]struct {
		build   func(t *testing.T) *docroute.Router
		wantErr bool
	}{
		"different schemas under one name": {
			build: func(t *testing.T) *docroute.Router {
				r := docroute.New()
				require.NoError(t, r.Get("/a", ok, docroute.WithResponse(http.StatusOK, "", docroute.Ref("Order", order))))
				require.NoError(t, r.Get("/b", ok, docroute.WithResponse(http.StatusOK, "", docroute.Ref("Order", docroute.JSONSchema{Type: "string"}))))
				return r
			},
			wantErr: true,
		},
		"request body against response across nesting": {
			build: func(t *testing.T) *docroute.Router {
				child := docroute.New()
				require.NoError(t, child.Post("/", ok, docroute.WithRequestBody(docroute.Ref("User", docroute.JSONSchema{Type: "string"}))))
				r := docroute.New()
				require.NoError(t, r.Get("/users/{id}", ok, docroute.WithResponse(http.StatusOK, "", docroute.RefOf[User]())))
				require.NoError(t, r.Nest("/users", child))
				return r
			},
			wantErr: true,
		},
		"same schema reused": {
			build: func(t *testing.T) *docroute.Router {
				r := docroute.New()
				require.NoError(t, r.Get("/a", ok, docroute.WithResponse(http.StatusOK, "", docroute.Ref("Order", order))))
				require.NoError(t, r.Post("/a", ok, docroute.WithRequestBody(docroute.Ref("Order", order))))
				require.NoError(t, r.Get("/b", ok, docroute.WithResponse(http.StatusOK, "", docroute.RefOf[User]())))
				require.NoError(t, r.Get("/c", ok, docroute.WithResponse(http.StatusOK, "", docroute.RefOf[User]())))
				return r
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := tc.build(t)
			_, tree, err := r.Finalize()
			if !tc.wantErr {
				require.NoError(t, err)
				spec := tree.OpenAPI()
				require.NotNil(t, spec.Components)
				assert.Len(t, spec.Components.Schemas, 2)
				return
			}

			require.ErrorIs(t, err, docroute.ErrDescriptorMismatch)
			var re *docroute.RouteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "finalize", re.Op)
			_, _, done := r.Outputs()
			assert.False(t, done)
		})
	}
}
