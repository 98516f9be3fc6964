package transport

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bjaus/docroute"
)

// GinSyntax is gin's pattern syntax: :id and a trailing *name. Gin has no
// regexp constraints.
var GinSyntax = docroute.SyntaxFunc("gin", func(p docroute.PathTemplate) (string, error) {
	return colonPath("gin", p, true)
})

// Gin registers every route of table on r. The table must be finalized
// with GinSyntax.
func Gin(table *docroute.DispatchTable, r gin.IRoutes) error {
	if err := checkSyntax(table, GinSyntax); err != nil {
		return err
	}
	return mount(table, func(route docroute.DispatchRoute, mh docroute.MethodHandler) {
		h := mh.Handler
		r.Handle(string(mh.Method), route.Path, func(c *gin.Context) {
			for _, p := range c.Params {
				// Catch-all values keep their leading slash in gin.
				c.Request.SetPathValue(p.Key, strings.TrimPrefix(p.Value, "/"))
			}
			h.ServeHTTP(c.Writer, c.Request)
		})
	})
}

// colonPath renders p with :name parameters. Catch-alls become *name when
// named is set and a bare * otherwise.
func colonPath(syntax string, p docroute.PathTemplate, named bool) (string, error) {
	if p.IsRoot() {
		return "/", nil
	}
	var b strings.Builder
	for _, s := range p.Segments() {
		b.WriteByte('/')
		switch s.Kind {
		case docroute.Param:
			if s.Pattern != "" {
				return "", docroute.Unsupported(syntax, p, s)
			}
			b.WriteString(":" + s.Value)
		case docroute.CatchAll:
			b.WriteByte('*')
			if named {
				b.WriteString(s.Value)
			}
		default:
			b.WriteString(s.Value)
		}
	}
	return b.String(), nil
}
