package transport

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bjaus/docroute"
)

// ChiSyntax is chi's pattern syntax: {id}, {id:regexp} and a trailing *.
var ChiSyntax = docroute.SyntaxFunc("chi", func(p docroute.PathTemplate) (string, error) {
	if p.IsRoot() {
		return "/", nil
	}
	var b strings.Builder
	for _, s := range p.Segments() {
		b.WriteByte('/')
		if s.Kind == docroute.CatchAll {
			b.WriteByte('*')
			continue
		}
		b.WriteString(s.String())
	}
	return b.String(), nil
})

// Chi registers every route of table on r. The table must be finalized
// with ChiSyntax.
func Chi(table *docroute.DispatchTable, r chi.Router) error {
	if err := checkSyntax(table, ChiSyntax); err != nil {
		return err
	}
	return mount(table, func(route docroute.DispatchRoute, mh docroute.MethodHandler) {
		r.Method(string(mh.Method), route.Path, chiParams(catchAll(route.Template), mh.Handler))
	})
}

// chiParams copies chi's URL parameters into the request's path values.
func chiParams(wildcard string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if key == "*" {
					if wildcard == "" {
						continue
					}
					key = wildcard
				}
				r.SetPathValue(key, rctx.URLParams.Values[i])
			}
		}
		next.ServeHTTP(w, r)
	})
}
