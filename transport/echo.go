package transport

import (
	"github.com/labstack/echo/v4"

	"github.com/bjaus/docroute"
)

// EchoSyntax is echo's pattern syntax: :id and a trailing unnamed *. Echo
// has no regexp constraints.
var EchoSyntax = docroute.SyntaxFunc("echo", func(p docroute.PathTemplate) (string, error) {
	return colonPath("echo", p, false)
})

// EchoRouter is implemented by *echo.Echo and *echo.Group.
type EchoRouter interface {
	Add(method, path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Echo registers every route of table on e. The table must be finalized
// with EchoSyntax.
func Echo(table *docroute.DispatchTable, e EchoRouter) error {
	if err := checkSyntax(table, EchoSyntax); err != nil {
		return err
	}
	return mount(table, func(route docroute.DispatchRoute, mh docroute.MethodHandler) {
		h := mh.Handler
		wildcard := catchAll(route.Template)
		e.Add(string(mh.Method), route.Path, func(c echo.Context) error {
			req := c.Request()
			values := c.ParamValues()
			for i, name := range c.ParamNames() {
				if i >= len(values) {
					break
				}
				if name == "*" {
					name = wildcard
				}
				if name == "" {
					continue
				}
				req.SetPathValue(name, values[i])
			}
			h.ServeHTTP(c.Response(), req)
			return nil
		})
	})
}
