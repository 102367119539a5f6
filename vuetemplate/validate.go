package vuetemplate

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// expr checks src as a JavaScript expression and rewrites it for the render
// context. The first syntax error is kept on the generator and returned by
// Compile.
func (g *generator) expr(src string, sc scope) string {
	src = strings.TrimSpace(src)
	g.check(src, "("+src+")")
	return prefixIdentifiers(src, sc.locals)
}

// statements is expr for inline handler bodies written as statements.
func (g *generator) statements(src string, sc scope) string {
	src = strings.TrimSpace(src)
	g.check(src, src)
	return prefixIdentifiers(src, sc.locals)
}

func (g *generator) check(src, code string) {
	if g.err != nil {
		return
	}
	if src == "" {
		g.err = fmt.Errorf("%w: empty expression", ErrInvalidExpression)
		return
	}
	res := api.Transform(code, api.TransformOptions{Loader: api.LoaderJS})
	if len(res.Errors) > 0 {
		g.err = fmt.Errorf("%w %q: %s", ErrInvalidExpression, src, res.Errors[0].Text)
	}
}
