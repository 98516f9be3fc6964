// Command sample serves a small customer/order API whose routing table and
// OpenAPI document are produced by the same docroute.Router.
//
// Run:
//
//	go run ./cmd/sample                          # serve on net/http
//	go run ./cmd/sample -transport chi           # serve on chi (also gin, echo)
//
// Generate the OpenAPI document:
//
//	go run ./cmd/sample -spec                    # JSON to stdout
//	go run ./cmd/sample -spec -yaml -o api.yaml  # YAML to a file
//
// Then explore:
//
//	GET  http://localhost:8080/openapi.json      # OpenAPI document
//	GET  http://localhost:8080/docs              # documentation UI
//	GET  http://localhost:8080/metrics           # Prometheus metrics
//	GET  http://localhost:8080/api/health        # health check
//	GET  http://localhost:8080/api/customer      # get customer
//	POST http://localhost:8080/api/customer      # list customers
//	GET  http://localhost:8080/api/order         # get order
//	POST http://localhost:8080/api/order         # create order
//	GET  http://localhost:8080/api/order/{id}    # get order by ID
//	GET  http://localhost:8080/api/inner/secret  # secret
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bjaus/docroute"
	"github.com/bjaus/docroute/transport"
)

const (
	customerTag = "customer"
	orderTag    = "order"
)

var docOptions = []docroute.DocOption{
	docroute.WithTitle("Sample API"),
	docroute.WithVersion("1.0.0"),
	docroute.WithTagDescriptions(map[string]string{
		customerTag: "Customer API endpoints",
		orderTag:    "Order API endpoints",
	}),
}

func main() {
	specFlag := flag.Bool("spec", false, "Print the OpenAPI document and exit")
	yamlFlag := flag.Bool("yaml", false, "Print the document as YAML (requires -spec)")
	outFlag := flag.String("o", "", "Output file for the document (requires -spec)")
	transportFlag := flag.String("transport", "std", "Router to serve on: std, chi, gin or echo")
	addrFlag := flag.String("addr", ":8080", "Listen address")
	debugFlag := flag.Bool("debug", false, "Log router construction")
	flag.Parse()

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*specFlag, *yamlFlag, *outFlag, *transportFlag, *addrFlag, logger); err != nil {
		slog.Error("sample failed", "err", err)
		os.Exit(1)
	}
}

func run(spec, asYAML bool, out, transportName, addr string, logger *slog.Logger) error {
	syntax, err := syntaxFor(transportName)
	if err != nil {
		return err
	}

	r, err := newRouter(logger)
	if err != nil {
		return err
	}

	opts := []docroute.FinalizeOption{docroute.WithSyntax(syntax)}
	if !spec {
		opts = append(opts, docroute.WithInstrumentation(prometheus.DefaultRegisterer))
	}

	table, tree, err := r.Finalize(opts...)
	if err != nil {
		return err
	}
	doc := tree.OpenAPI(docOptions...)

	if spec {
		return writeSpec(doc, asYAML, out)
	}

	h, err := mountOn(transportName, table, doc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting server", "addr", addr, "transport", transportName, "routes", table.Len())

	if err := transport.Serve(ctx, addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	slog.Info("server stopped")
	return nil
}

func syntaxFor(name string) (docroute.PathSyntax, error) {
	switch name {
	case "std":
		return docroute.StdSyntax, nil
	case "chi":
		return transport.ChiSyntax, nil
	case "gin":
		return transport.GinSyntax, nil
	case "echo":
		return transport.EchoSyntax, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}

// mountOn builds the server handler: the API routes plus the document,
// the docs UI and the metrics endpoint.
func mountOn(name string, table *docroute.DispatchTable, doc docroute.OpenAPISpec) (http.Handler, error) {
	specH, err := docroute.SpecHandler(doc)
	if err != nil {
		return nil, err
	}
	docsH := docroute.DocsHandler(docroute.WithDocsTitle(doc.Info.Title))
	metricsH := promhttp.Handler()

	switch name {
	case "chi":
		r := chi.NewRouter()
		r.Method(http.MethodGet, "/openapi.json", specH)
		r.Method(http.MethodGet, "/docs", docsH)
		r.Method(http.MethodGet, "/metrics", metricsH)
		return r, transport.Chi(table, r)

	case "gin":
		gin.SetMode(gin.ReleaseMode)
		e := gin.New()
		e.GET("/openapi.json", gin.WrapH(specH))
		e.GET("/docs", gin.WrapH(docsH))
		e.GET("/metrics", gin.WrapH(metricsH))
		return e, transport.Gin(table, e)

	case "echo":
		e := echo.New()
		e.HideBanner = true
		e.GET("/openapi.json", echo.WrapHandler(specH))
		e.GET("/docs", echo.WrapHandler(docsH))
		e.GET("/metrics", echo.WrapHandler(metricsH))
		return e, transport.Echo(table, e)

	default:
		mux := http.NewServeMux()
		mux.Handle("GET /openapi.json", specH)
		mux.Handle("GET /docs", docsH)
		mux.Handle("GET /metrics", metricsH)
		return mux, transport.ServeMux(table, mux)
	}
}

// newRouter assembles the API from independently built routers.
func newRouter(logger *slog.Logger) (*docroute.Router, error) {
	root := docroute.New(
		docroute.WithLogger(logger),
		docroute.WithMiddleware(docroute.RequestID(), docroute.Recovery(), docroute.Logger(logger)),
	)

	health := docroute.MustDescribe(docroute.GET, "/api/health",
		docroute.WithSummary("Get health of the API."),
		docroute.WithResponses(docroute.Response{
			Status:      http.StatusOK,
			Description: "Success",
			ContentType: "text/plain",
			Body:        docroute.Inline(docroute.JSONSchema{Type: "string"}),
		}),
	)
	healthHead := docroute.MustDescribe(docroute.HEAD, "/api/health",
		docroute.WithSummary("Get health of the API."),
		docroute.WithResponse(http.StatusOK, "Success", docroute.SchemaRef{}),
	)

	var errs []error
	add := func(err error) { errs = append(errs, err) }

	add(root.Route("/api/health", http.HandlerFunc(handleHealth), health, healthHead))
	add(root.Nest("/api/customer", customerRouter(logger)))
	add(root.Nest("/api/order", orderRouter(logger)))
	add(root.Merge(secretRouter(logger)))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return root, nil
}

func customerRouter(logger *slog.Logger) *docroute.Router {
	r := docroute.New(docroute.WithLogger(logger), docroute.WithDefaultTags(customerTag))
	must(r.Get("/", handleGetCustomer,
		docroute.WithSummary("Get customer"),
		docroute.WithDescription("Just return a static Customer object"),
		docroute.WithResponse(http.StatusOK, "Success", docroute.RefOf[Customer]()),
	))
	must(r.Post("/", handleGetCustomers,
		docroute.WithSummary("List customers"),
		docroute.WithResponse(http.StatusOK, "Success", docroute.RefOf[Customers]()),
		docroute.WithRateLimit(5, 10),
	))
	return r
}

func orderRouter(logger *slog.Logger) *docroute.Router {
	r := docroute.New(docroute.WithLogger(logger), docroute.WithDefaultTags(orderTag))
	must(r.Get("/", handleGetOrder,
		docroute.WithSummary("Get static order object"),
		docroute.WithResponse(http.StatusOK, "Success", docroute.RefOf[Order]()),
	))
	must(r.Post("/", handleCreateOrder,
		docroute.WithSummary("Create an order."),
		docroute.WithDescription("Create an order by passing through the name of the request with static id."),
		docroute.WithRequestBody(docroute.RefOf[OrderRequest]()),
		docroute.WithResponse(http.StatusOK, "Success", docroute.RefOf[Order]()),
	))
	must(r.Get("/{id}", handleGetOrderByID,
		docroute.WithSummary("Get order by ID"),
		docroute.WithParams(docroute.PathParam("id", "Order identifier")),
		docroute.WithResponse(http.StatusOK, "Success", docroute.RefOf[Order]()),
		docroute.WithResponse(http.StatusNotFound, "Unknown order", docroute.SchemaRef{}),
	))
	return r
}

func secretRouter(logger *slog.Logger) *docroute.Router {
	r := docroute.New(docroute.WithLogger(logger))
	must(r.Get("/api/inner/secret", handleGetSecret,
		docroute.WithSummary("This is some secret inner handler"),
		docroute.WithResponse(http.StatusOK, "Success", docroute.Inline(docroute.JSONSchema{Type: "string"})),
	))
	must(r.Post("/api/inner/secret", handlePostSecret,
		docroute.WithSummary("Post some secret inner handler"),
		docroute.WithResponse(http.StatusOK, "Success", docroute.SchemaRef{}),
	))
	return r
}

// must panics on registration errors in routers built from literals.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

func writeSpec(doc docroute.OpenAPISpec, asYAML bool, outFile string) error {
	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile) //nolint:gosec // user-provided CLI flag
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Close(); err != nil {
				slog.Error("failed to close output file", "err", err)
			}
		}()
		w = f
	}
	return writeSpecTo(w, doc, asYAML)
}

func writeSpecTo(w io.Writer, doc docroute.OpenAPISpec, asYAML bool) error {
	if asYAML {
		return docroute.WriteYAML(w, doc)
	}
	return docroute.WriteJSON(w, doc)
}
