package docroute

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

type requestIDKey struct{}

// RequestIDOption configures the RequestID middleware.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	header   string
	generate func() string
}

// WithRequestIDHeader sets the header the ID is read from and echoed in.
// The default is X-Request-ID.
func WithRequestIDHeader(name string) RequestIDOption {
	return func(c *requestIDConfig) {
		if name != "" {
			c.header = name
		}
	}
}

// WithRequestIDGenerator replaces the random hex generator.
func WithRequestIDGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if fn != nil {
			c.generate = fn
		}
	}
}

// RequestID returns middleware that tags every request with an ID. An ID
// supplied by the client is kept; otherwise one is generated. The ID is
// echoed in the response and picked up by Logger.
func RequestID(opts ...RequestIDOption) Middleware {
	c := requestIDConfig{
		header:   "X-Request-ID",
		generate: randomID,
	}
	for _, opt := range opts {
		opt(&c)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(c.header)
			if id == "" {
				id = c.generate()
			}
			w.Header().Set(c.header, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// RequestIDFrom returns the ID assigned by RequestID, or "".
func RequestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func randomID() string {
	b := make([]byte, 16)
	//nolint:errcheck,gosec // crypto/rand.Read never fails
	rand.Read(b)
	return hex.EncodeToString(b)
}
