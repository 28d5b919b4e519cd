package tools

import (
	"fmt"
	"html"
	"io"

	md "github.com/russross/blackfriday/v2"

	"github.com/rdforge/srl/ast"
)

// RenderRulesHTML writes an HTML view of a rule set: prefixes, then
// one section per rule with its documentation (Markdown), head, and
// body.
func RenderRulesHTML(rs *ast.RuleSet, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="ruleset">`)

	if len(rs.Prefixes) > 0 {
		f(`<table class="prefixes">`)
		for p, n := range rs.Prefixes {
			f(`<tr><td><code>%s:</code></td><td><code>%s</code></td></tr>`,
				html.EscapeString(p), html.EscapeString(n))
		}
		f(`</table>`)
	}

	for i, r := range rs.Rules {
		f(`<div class="rule"><span class="ruleNum">rule %d</span>`, i)
		if r.Doc != "" {
			f(`<div class="ruleDoc doc">%s</div>`, md.Run([]byte(r.Doc)))
		}
		f(`<div class="head"><pre>`)
		for _, t := range r.Head {
			f("%s", html.EscapeString(t.String()))
		}
		f(`</pre></div>`)
		f(`<div class="body"><pre>`)
		renderBody(f, r.Body, "")
		f(`</pre></div>`)
		f(`</div>`)
	}

	f(`</div>`)
	return nil
}

func renderBody(f func(string, ...interface{}), body []ast.BodyElement, indent string) {
	for _, el := range body {
		switch e := el.(type) {
		case ast.TriplePattern:
			f("%s%s", indent, html.EscapeString(e.String()))
		case ast.Filter:
			f("%sFILTER %s", indent, html.EscapeString(ast.FormatExpr(e.Expr)))
		case ast.Bind:
			f("%sBIND(%s AS %s)", indent, html.EscapeString(ast.FormatExpr(e.Expr)), html.EscapeString(e.Var.String()))
		case ast.Not:
			f("%sNOT {", indent)
			renderBody(f, e.Body, indent+"  ")
			f("%s}", indent)
		}
	}
}

// RenderRulesPage wraps RenderRulesHTML in a complete HTML page.
func RenderRulesPage(rs *ast.RuleSet, title string, out io.Writer) error {
	fmt.Fprintf(out, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.rule { border: 1px solid #ccc; border-radius: 4px; padding: 1em; margin: 1em 0; }
.ruleNum { color: #888; font-size: small; }
pre { background: #f6f6f6; padding: 0.5em; }
</style>
</head>
<body>
<h1>%s</h1>
`, html.EscapeString(title), html.EscapeString(title))
	if err := RenderRulesHTML(rs, out); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "</body>\n</html>\n")
	return err
}
