// Package transport mounts a finalized docroute.DispatchTable onto an HTTP
// router. Every adapter exposes path parameters through
// (*http.Request).PathValue, so handlers do not depend on the router they
// end up mounted on.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bjaus/docroute"
)

// Errors returned by the adapters.
var (
	ErrSyntaxMismatch = errors.New("dispatch table was finalized for a different syntax")
	ErrTransport      = errors.New("transport rejected route")
)

// checkSyntax verifies the table was built with want.
func checkSyntax(table *docroute.DispatchTable, want docroute.PathSyntax) error {
	if table.Syntax() != want.Name() {
		return fmt.Errorf("%w: table uses %s, adapter needs %s", ErrSyntaxMismatch, table.Syntax(), want.Name())
	}
	return nil
}

// mount calls add for every (route, method) pair of table. Routers that
// panic on conflicting patterns have the panic turned into an error.
func mount(table *docroute.DispatchTable, add func(route docroute.DispatchRoute, mh docroute.MethodHandler)) (err error) {
	var current string
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTransport, current, rec)
		}
	}()

	for _, route := range table.Routes() {
		for _, mh := range route.Handlers {
			current = string(mh.Method) + " " + route.Path
			add(route, mh)
		}
	}
	return nil
}

// catchAll returns the name of the template's catch-all parameter, if any.
func catchAll(tmpl docroute.PathTemplate) string {
	segs := tmpl.Segments()
	if len(segs) == 0 {
		return ""
	}
	if last := segs[len(segs)-1]; last.Kind == docroute.CatchAll {
		return last.Value
	}
	return ""
}

// Serve starts an HTTP server on addr.
// It blocks until the context is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
