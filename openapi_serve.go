package docroute

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"
)

// WriteJSON writes spec as indented JSON to w.
func WriteJSON(w io.Writer, spec OpenAPISpec) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(spec)
}

// WriteYAML writes spec as YAML to w.
func WriteYAML(w io.Writer, spec OpenAPISpec) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return err
	}
	return enc.Close()
}

// SpecHandler serves spec as JSON. The document is rendered once, up front.
func SpecHandler(spec OpenAPISpec) (http.Handler, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, spec); err != nil {
		return nil, err
	}
	return staticHandler("application/json", buf.Bytes()), nil
}

// SpecYAMLHandler serves spec as YAML. The document is rendered once, up front.
func SpecYAMLHandler(spec OpenAPISpec) (http.Handler, error) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, spec); err != nil {
		return nil, err
	}
	return staticHandler("application/yaml", buf.Bytes()), nil
}

func staticHandler(contentType string, body []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		//nolint:errcheck,gosec // best-effort after WriteHeader
		w.Write(body)
	})
}

// DocsOption configures the docs UI.
type DocsOption func(*docsConfig)

type docsConfig struct {
	title   string
	specURL string
}

// WithDocsTitle sets the page title for the docs UI.
func WithDocsTitle(title string) DocsOption {
	return func(c *docsConfig) {
		c.title = title
	}
}

// WithSpecURL sets the URL the docs UI loads the document from.
func WithSpecURL(url string) DocsOption {
	return func(c *docsConfig) {
		c.specURL = url
	}
}

var docsTemplate = template.Must(template.New("docs").Parse(docsHTML))

// DocsHandler serves an interactive API documentation page rendering
// Stoplight Elements against the JSON document.
func DocsHandler(opts ...DocsOption) http.Handler {
	cfg := &docsConfig{
		title:   "API Reference",
		specURL: "/openapi.json",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		//nolint:errcheck,gosec // best-effort template render
		docsTemplate.Execute(w, cfg)
	})
}

const docsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
  <script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
</head>
<body>
  <elements-api
    apiDescriptionUrl="{{.SpecURL}}"
    router="hash"
    layout="sidebar"
  />
</body>
</html>`

// Title returns the docs config title (used in the template).
func (c *docsConfig) Title() string { return c.title }

// SpecURL returns the docs config spec URL (used in the template).
func (c *docsConfig) SpecURL() string { return c.specURL }
