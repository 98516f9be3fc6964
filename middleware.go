package docroute

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Middleware is the standard middleware signature compatible with the entire
// Go middleware ecosystem.
type Middleware func(next http.Handler) http.Handler

// chain wraps h so that mw[0] runs first.
func chain(h http.Handler, mw []Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

type routeKey struct{}

// RouteInfo identifies the route that matched a request and the operation
// documenting it.
type RouteInfo struct {
	Method      Method
	Template    string
	OperationID string
	Tags        []string
}

// Route returns the route the request was dispatched to. It is available
// to every middleware attached through the router.
func Route(r *http.Request) (RouteInfo, bool) {
	info, ok := r.Context().Value(routeKey{}).(RouteInfo)
	return info, ok
}

// withRoute records the matched route in the request context.
func withRoute(tmpl string, op Operation, next http.Handler) http.Handler {
	info := RouteInfo{
		Method:      op.method,
		Template:    tmpl,
		OperationID: op.operationID,
		Tags:        op.Tags(),
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), routeKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recovery returns middleware that recovers from panics and responds with 500.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					attrs := []any{
						"panic", rec,
						"stack", string(debug.Stack()),
						"method", r.Method,
						"path", r.URL.Path,
					}
					if info, ok := Route(r); ok {
						attrs = append(attrs, "route", info.Template)
					}
					slog.Error("panic recovered", attrs...)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
