package transport

import (
	"net/http"
	"slices"
	"strings"

	"github.com/bjaus/docroute"
)

// ServeMux registers every route of table on mux using Go 1.22 method
// patterns. The table must be finalized with docroute.StdSyntax.
//
// A "GET" pattern also matches HEAD requests on http.ServeMux. Routes with a
// GET binding and no HEAD binding therefore get an explicit HEAD pattern
// answering 405, so the mux serves exactly the methods the table documents.
func ServeMux(table *docroute.DispatchTable, mux *http.ServeMux) error {
	if err := checkSyntax(table, docroute.StdSyntax); err != nil {
		return err
	}
	return mount(table, func(route docroute.DispatchRoute, mh docroute.MethodHandler) {
		mux.Handle(string(mh.Method)+" "+route.Path, mh.Handler)
		if mh.Method == docroute.GET && !hasMethod(route, docroute.HEAD) {
			mux.Handle(string(docroute.HEAD)+" "+route.Path, methodNotAllowed(route))
		}
	})
}

func hasMethod(route docroute.DispatchRoute, m docroute.Method) bool {
	return slices.ContainsFunc(route.Handlers, func(mh docroute.MethodHandler) bool {
		return mh.Method == m
	})
}

// methodNotAllowed answers 405 with the route's methods in Allow.
func methodNotAllowed(route docroute.DispatchRoute) http.Handler {
	methods := make([]string, len(route.Handlers))
	for i, mh := range route.Handlers {
		methods[i] = string(mh.Method)
	}
	allow := strings.Join(methods, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allow)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
}
