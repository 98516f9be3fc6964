// Package docroutetest provides test helpers for routers built with docroute.
package docroutetest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/bjaus/docroute"
	"github.com/bjaus/docroute/transport"
)

// Pair is one (path template, method) combination.
type Pair struct {
	Path   string
	Method docroute.Method
}

// TablePairs lists the pairs served by table, in table order.
func TablePairs(table *docroute.DispatchTable) []Pair {
	var out []Pair
	for _, r := range table.Routes() {
		for _, mh := range r.Handlers {
			out = append(out, Pair{Path: r.Template.String(), Method: mh.Method})
		}
	}
	return out
}

// TreePairs lists the pairs documented by tree, in document order.
func TreePairs(tree *docroute.DocumentTree) []Pair {
	var out []Pair
	for _, p := range tree.Paths() {
		for _, op := range p.Operations {
			out = append(out, Pair{Path: p.Template.String(), Method: op.Method()})
		}
	}
	return out
}

// AssertSynchronized reports a test error unless table and tree hold the
// same pairs in the same order.
func AssertSynchronized(t testing.TB, table *docroute.DispatchTable, tree *docroute.DocumentTree) bool {
	t.Helper()
	served, documented := TablePairs(table), TreePairs(tree)
	if !slices.Equal(served, documented) {
		t.Errorf("docroutetest: dispatch and documentation differ\nserved:     %v\ndocumented: %v", served, documented)
		return false
	}
	return true
}

// Client wraps an httptest.Server for convenient API testing.
type Client struct {
	Server *httptest.Server
}

// NewClient mounts table on a fresh http.ServeMux and serves it. The table
// must have been finalized with docroute.StdSyntax.
func NewClient(t testing.TB, table *docroute.DispatchTable) *Client {
	t.Helper()
	mux := http.NewServeMux()
	if err := transport.ServeMux(table, mux); err != nil {
		t.Fatalf("docroutetest: mount table: %v", err)
	}
	return NewClientFor(t, mux)
}

// NewClientFor serves h.
func NewClientFor(t testing.TB, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{Server: srv}
}

// Response holds a received response.
type Response[T any] struct {
	Status  int
	Headers http.Header
	Body    *T
	Raw     []byte
}

// Get sends a GET request and decodes a JSON body into Resp when present.
func Get[Resp any](t testing.TB, c *Client, path string) *Response[Resp] {
	t.Helper()
	return Do[Resp](t, c, http.MethodGet, path, nil)
}

// Do sends a request with an optional JSON body.
func Do[Resp any](t testing.TB, c *Client, method, path string, body any) *Response[Resp] {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("docroutetest: marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("docroutetest: create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("docroutetest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("docroutetest: close body: %v", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("docroutetest: read body: %v", err)
	}

	result := &Response[Resp]{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Raw:     raw,
	}

	if len(raw) > 0 && json.Valid(raw) {
		var decoded Resp
		if err := json.Unmarshal(raw, &decoded); err == nil {
			result.Body = &decoded
		}
	}

	return result
}
