// Package docroute keeps an HTTP routing table and its OpenAPI
// documentation in lockstep. Every handler is registered together with an
// Operation describing it, routers are composed by nesting them under path
// prefixes, and Finalize produces two artifacts from the same routes: a
// DispatchTable for the transport and a DocumentTree for the document.
//
//	users := docroute.New(docroute.WithDefaultTags("users"))
//	users.Get("/{id}", getUser,
//	    docroute.WithSummary("Get a user"),
//	    docroute.WithResponse(http.StatusOK, "The user", docroute.RefOf[User]()),
//	)
//
//	root := docroute.New()
//	root.Get("/health", health, docroute.WithResponse(http.StatusOK, "Healthy", docroute.SchemaRef{}))
//	root.Nest("/api/users", users)
//
//	table, tree, err := root.Finalize()
//
// The table is mounted with the transport package (net/http, chi, gin or
// echo). The tree renders to OpenAPI 3.1 with DocumentTree.OpenAPI; path
// order follows registration and nesting order and methods within a path
// follow a fixed order, so identical routers always produce identical
// documents.
//
// Handlers are plain http.Handlers. Path parameters are read with
// (*http.Request).PathValue whichever transport serves them.
//
// Errors are reported at build time only. Registration, nesting and
// finalization return a *RouteError wrapping one of the Err* sentinels;
// after Finalize succeeds, the router rejects every further change.
package docroute
