package docroute_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/docroute"
)

func TestRecovery(t *testing.T) {
	t.Parallel()

	r := docroute.New(docroute.WithMiddleware(docroute.Recovery()))
	require.NoError(t, r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	require.NoError(t, r.Get("/fine", ok))

	table, _, err := r.Finalize()
	require.NoError(t, err)

	h, _ := table.Lookup("/boom", docroute.GET)
	rec := serve(t, h, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	h, _ = table.Lookup("/fine", docroute.GET)
	rec = serve(t, h, http.MethodGet, "/fine")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	child := docroute.New()
	require.NoError(t, child.Post("/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		//nolint:errcheck,gosec // test handler
		w.Write([]byte("created"))
	}))

	r := docroute.New(docroute.WithMiddleware(docroute.Logger(logger)))
	require.NoError(t, r.Nest("/orders", child))

	table, _, err := r.Finalize()
	require.NoError(t, err)

	h, _ := table.Lookup("/orders/{id}", docroute.POST)
	rec := serve(t, h, http.MethodPost, "/orders/9")
	assert.Equal(t, http.StatusCreated, rec.Code)

	out := buf.String()
	assert.Contains(t, out, `"msg":"request"`)
	assert.Contains(t, out, `"method":"POST"`)
	assert.Contains(t, out, `"path":"/orders/9"`)
	assert.Contains(t, out, `"status":201`)
	assert.Contains(t, out, `"size":7`)
	assert.Contains(t, out, `"route":"/orders/{id}"`)
}

func TestLogger_without_route(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := docroute.Logger(logger)(http.HandlerFunc(ok))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"path":"/raw"`)
	assert.NotContains(t, buf.String(), `"route"`)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	r := docroute.New()
	require.NoError(t, r.Post("/login", ok, docroute.WithRateLimit(0.5, 2)))
	require.NoError(t, r.Get("/login", ok))

	table, _, err := r.Finalize()
	require.NoError(t, err)

	post, _ := table.Lookup("/login", docroute.POST)
	get, _ := table.Lookup("/login", docroute.GET)

	send := func(h http.Handler, method, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send(post, http.MethodPost, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, send(post, http.MethodPost, "10.0.0.1:1001").Code)

	rec := send(post, http.MethodPost, "10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too Many Requests", strings.TrimSpace(rec.Body.String()))

	// Other clients and other methods on the same path are unaffected.
	assert.Equal(t, http.StatusOK, send(post, http.MethodPost, "10.0.0.2:1000").Code)
	for range 5 {
		assert.Equal(t, http.StatusOK, send(get, http.MethodGet, "10.0.0.1:1000").Code)
	}
}

func TestRateLimit_survives_nesting(t *testing.T) {
	t.Parallel()

	child := docroute.New()
	require.NoError(t, child.Get("/x", ok, docroute.WithRateLimit(1, 1)))

	r := docroute.New()
	require.NoError(t, r.Nest("/api", child))
	table, _, err := r.Finalize()
	require.NoError(t, err)

	h, _ := table.Lookup("/api/x", docroute.GET)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/api/x").Code)
	rec := serve(t, h, http.MethodGet, "/api/x")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := docroute.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = docroute.RequestIDFrom(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 32)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", seen)
	assert.Equal(t, "client-id", rec.Header().Get("X-Request-ID"))
}

func TestRequestID_options(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := docroute.New(docroute.WithMiddleware(
		docroute.RequestID(
			docroute.WithRequestIDHeader("X-Trace-ID"),
			docroute.WithRequestIDGenerator(func() string { return "fixed" }),
		),
		docroute.Logger(logger),
	))
	require.NoError(t, r.Get("/a", ok))
	table, _, err := r.Finalize()
	require.NoError(t, err)

	h, _ := table.Lookup("/a", docroute.GET)
	rec := serve(t, h, http.MethodGet, "/a")

	assert.Equal(t, "fixed", rec.Header().Get("X-Trace-ID"))
	assert.Empty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"request_id":"fixed"`)
}

func TestRequestIDFrom_unset(t *testing.T) {
	t.Parallel()

	assert.Empty(t, docroute.RequestIDFrom(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestLogger_operation_and_level(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status    int
		wantLevel string
	}{
		"success":      {status: http.StatusNoContent, wantLevel: `"level":"INFO"`},
		"client error": {status: http.StatusConflict, wantLevel: `"level":"WARN"`},
		"server error": {status: http.StatusBadGateway, wantLevel: `"level":"ERROR"`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			child := docroute.New(docroute.WithDefaultTags("orders"))
			require.NoError(t, child.Put("/{id}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}, docroute.WithOperationID("replaceOrder")))

			r := docroute.New(docroute.WithMiddleware(docroute.Logger(logger)))
			require.NoError(t, r.Nest("/orders", child))
			table, _, err := r.Finalize()
			require.NoError(t, err)

			h, _ := table.Lookup("/orders/{id}", docroute.PUT)
			assert.Equal(t, tc.status, serve(t, h, http.MethodPut, "/orders/3").Code)

			out := buf.String()
			assert.Contains(t, out, tc.wantLevel)
			assert.Contains(t, out, `"route":"/orders/{id}"`)
			assert.Contains(t, out, `"operation_id":"replaceOrder"`)
			assert.Contains(t, out, `"tags":["orders"]`)
			assert.Contains(t, out, `"size":0`)
		})
	}
}

func TestLogger_omits_missing_operation_fields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := docroute.New(docroute.WithMiddleware(docroute.Logger(logger)))
	require.NoError(t, r.Get("/plain", ok))
	table, _, err := r.Finalize()
	require.NoError(t, err)

	h, _ := table.Lookup("/plain", docroute.GET)
	serve(t, h, http.MethodGet, "/plain")

	out := buf.String()
	assert.Contains(t, out, `"route":"/plain"`)
	assert.NotContains(t, out, "operation_id")
	assert.NotContains(t, out, "tags")
}
