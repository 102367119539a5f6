// Package vuetemplate compiles HTML templates into Vue 3 render functions.
//
// The compiler covers the subset of the template language that appears in
// rendered documents: plain elements and text, mustache interpolation, attribute
// and event bindings, the structural directives, and components with default
// slot content. Tag and attribute names keep the case they are written in.
package vuetemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrUnsupportedDirective is returned for directives the compiler does not
// implement, such as v-model or v-slot.
var ErrUnsupportedDirective = errors.New("unsupported directive")

// ErrUnsupportedElement is returned for built-in elements that need compiler
// support beyond plain components, such as <component> and <slot>.
var ErrUnsupportedElement = errors.New("unsupported element")

// ErrInvalidExpression is returned when an interpolation or directive value is
// not a valid JavaScript expression.
var ErrInvalidExpression = errors.New("invalid template expression")

// Options describes one compilation.
type Options struct {
	// Filename is used in error messages.
	Filename string
	// ID identifies the owning module. It is reserved for scoped styles.
	ID string
	// Source is the template markup.
	Source string
	// TransformAssetURLs turns relative asset references into module imports.
	TransformAssetURLs bool
}

// Result is the output of Compile.
type Result struct {
	// Code is an ES module exporting a render function.
	Code string
	// Helpers lists the runtime helpers imported from "vue".
	Helpers []string
	// Assets lists asset URLs hoisted into imports, in binding order.
	Assets []string
}

// Compile turns opts.Source into a render function module.
func Compile(opts Options) (Result, error) {
	source, tags := annotate(opts.Source)
	nodes, err := html.ParseFragment(strings.NewReader(source), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s: parse template: %w", opts.Filename, err)
	}
	restore(nodes, tags)

	g := &generator{
		opts:   opts,
		used:   make(map[string]bool),
		assets: make(map[string]int),
	}
	body, err := g.root(nodes)
	if err == nil {
		err = g.err
	}
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", opts.Filename, err)
	}

	helpers := g.helpers()
	var out strings.Builder
	if len(helpers) > 0 {
		imports := make([]string, len(helpers))
		for i, h := range helpers {
			imports[i] = h + " as _" + h
		}
		fmt.Fprintf(&out, "import { %s } from \"vue\"\n", strings.Join(imports, ", "))
	}
	for i, url := range g.assetList {
		fmt.Fprintf(&out, "import _imports_%d from %s\n", i, quote(url))
	}
	if out.Len() > 0 {
		out.WriteString("\n")
	}
	out.WriteString("export function render(_ctx, _cache) {\n")
	for _, name := range g.components {
		fmt.Fprintf(&out, "  const %s = _resolveComponent(%s)\n", componentVar(name), quote(name))
	}
	if len(g.components) > 0 {
		out.WriteString("\n")
	}
	out.WriteString("  return ")
	out.WriteString(body)
	out.WriteString("\n}")

	return Result{Code: out.String(), Helpers: helpers, Assets: g.assetList}, nil
}

// Patch flags understood by the Vue runtime.
const (
	flagText           = 1
	flagClass          = 1 << 1
	flagStyle          = 1 << 2
	flagProps          = 1 << 3
	flagFullProps      = 1 << 4
	flagStableFragment = 1 << 6
	flagKeyedFragment  = 1 << 7
	flagUnkeyedFrag    = 1 << 8
	flagNeedPatch      = 1 << 9
	flagDynamicSlots   = 1 << 10
)

var flagNames = []struct {
	flag int
	name string
}{
	{flagText, "TEXT"},
	{flagClass, "CLASS"},
	{flagStyle, "STYLE"},
	{flagProps, "PROPS"},
	{flagFullProps, "FULL_PROPS"},
	{flagStableFragment, "STABLE_FRAGMENT"},
	{flagKeyedFragment, "KEYED_FRAGMENT"},
	{flagUnkeyedFrag, "UNKEYED_FRAGMENT"},
	{flagNeedPatch, "NEED_PATCH"},
	{flagDynamicSlots, "DYNAMIC_SLOTS"},
}

func formatFlags(flags int) string {
	var names []string
	for _, f := range flagNames {
		if flags&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	return fmt.Sprintf("%d /* %s */", flags, strings.Join(names, ", "))
}

// helperOrder fixes the order of the import list.
var helperOrder = []string{
	"resolveComponent", "withCtx", "Fragment", "openBlock", "createElementBlock",
	"createBlock", "createElementVNode", "createVNode", "createCommentVNode",
	"createTextVNode", "renderList", "toDisplayString",
	"normalizeClass", "normalizeStyle", "normalizeProps", "guardReactiveProps",
	"mergeProps", "withDirectives", "vShow", "withModifiers", "withKeys",
}

type generator struct {
	opts       Options
	used       map[string]bool
	assets     map[string]int
	assetList  []string
	components []string
	cache      int
	// err is the first invalid expression met during generation.
	err error
}

func (g *generator) helper(name string) string {
	g.used[name] = true
	return "_" + name
}

func (g *generator) helpers() []string {
	var out []string
	for _, h := range helperOrder {
		if g.used[h] {
			out = append(out, h)
		}
	}
	return out
}

func (g *generator) asset(url string) string {
	idx, ok := g.assets[url]
	if !ok {
		idx = len(g.assetList)
		g.assets[url] = idx
		g.assetList = append(g.assetList, url)
	}
	return fmt.Sprintf("_imports_%d", idx)
}

// component returns the binding for a resolved component, declaring it on
// first use.
func (g *generator) component(name string) string {
	if !slices.Contains(g.components, name) {
		g.components = append(g.components, name)
		g.helper("resolveComponent")
	}
	return componentVar(name)
}

func (g *generator) nextCache() int {
	n := g.cache
	g.cache++
	return n
}

// scope carries lexical state down the tree.
type scope struct {
	// preserve keeps whitespace verbatim (<pre>, <textarea>).
	preserve bool
	// raw disables directive and interpolation processing (v-pre).
	raw    bool
	locals map[string]bool
}

func (s scope) with(names ...string) scope {
	locals := make(map[string]bool, len(s.locals)+len(names))
	for k := range s.locals {
		locals[k] = true
	}
	for _, n := range names {
		locals[n] = true
	}
	s.locals = locals
	return s
}

// child is one rendered position in a children list: a text run, a single
// element, or a v-if chain.
type child struct {
	text     string
	isText   bool
	el       *html.Node
	branches []branch
}

type branch struct {
	condition string
	el        *html.Node
}

func (g *generator) root(nodes []*html.Node) (string, error) {
	kids, err := g.children(nodes, scope{})
	if err != nil {
		return "", err
	}

	switch len(kids) {
	case 0:
		return "null", nil
	case 1:
		k := kids[0]
		switch {
		case k.isText:
			expr, _ := g.text(k.text, scope{})
			return expr, nil
		case k.branches != nil:
			return g.ifChain(k.branches, scope{}, 1)
		default:
			return g.element(k.el, scope{}, 1, true, "")
		}
	}

	list, err := g.childList(kids, scope{}, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s(), %s(%s, null, %s, %s))",
		g.helper("openBlock"), g.helper("createElementBlock"), g.helper("Fragment"),
		list, formatFlags(flagStableFragment)), nil
}

var whitespaceRun = regexp.MustCompile(`[ \t\r\n\f]+`)

// children condenses whitespace, drops comments and groups v-if chains.
func (g *generator) children(nodes []*html.Node, sc scope) ([]child, error) {
	type entry struct {
		n           *html.Node
		nearComment bool
	}
	var kept []entry
	for i, n := range nodes {
		switch n.Type {
		case html.ElementNode:
			kept = append(kept, entry{n: n})
		case html.TextNode:
			near := (i > 0 && nodes[i-1].Type == html.CommentNode) ||
				(i+1 < len(nodes) && nodes[i+1].Type == html.CommentNode)
			kept = append(kept, entry{n: n, nearComment: near})
		}
	}

	var out []child
	for i, e := range kept {
		if e.n.Type == html.ElementNode {
			out = append(out, child{el: e.n})
			continue
		}

		text := e.n.Data
		switch {
		case sc.preserve:
			if text == "" {
				continue
			}
		case isWhitespace(text):
			first, last := i == 0, i == len(kept)-1
			betweenElements := !first && !last &&
				kept[i-1].n.Type == html.ElementNode && kept[i+1].n.Type == html.ElementNode &&
				strings.ContainsAny(text, "\r\n")
			if first || last || e.nearComment || betweenElements {
				continue
			}
			text = " "
		default:
			text = whitespaceRun.ReplaceAllString(text, " ")
		}

		// Adjacent text runs appear once a comment between them is dropped.
		if n := len(out); n > 0 && out[n-1].isText {
			out[n-1].text += text
			continue
		}
		out = append(out, child{text: text, isText: true})
	}

	if sc.raw {
		return out, nil
	}
	return groupConditionals(out)
}

func groupConditionals(in []child) ([]child, error) {
	var out []child
	for i := 0; i < len(in); i++ {
		c := in[i]
		if c.isText {
			out = append(out, c)
			continue
		}
		if _, ok := attr(c.el, "v-else-if"); ok {
			return nil, fmt.Errorf("v-else-if on <%s> has no adjacent v-if", c.el.Data)
		}
		if _, ok := attr(c.el, "v-else"); ok {
			return nil, fmt.Errorf("v-else on <%s> has no adjacent v-if", c.el.Data)
		}
		cond, ok := attr(c.el, "v-if")
		if !ok {
			out = append(out, c)
			continue
		}

		chain := []branch{{condition: cond, el: c.el}}
		for j := i + 1; j < len(in); j++ {
			next := in[j]
			if next.isText {
				if strings.TrimSpace(next.text) == "" {
					continue
				}
				break
			}
			if v, ok := attr(next.el, "v-else-if"); ok {
				chain = append(chain, branch{condition: v, el: next.el})
				i = j
				continue
			}
			if _, ok := attr(next.el, "v-else"); ok {
				chain = append(chain, branch{el: next.el})
				i = j
			}
			break
		}
		out = append(out, child{el: c.el, branches: chain})
	}
	return out, nil
}

func (g *generator) childList(kids []child, sc scope, indent int) (string, error) {
	pad := strings.Repeat("  ", indent+1)
	lines := make([]string, 0, len(kids))
	for _, k := range kids {
		var (
			s   string
			err error
		)
		switch {
		case k.isText:
			expr, dynamic := g.text(k.text, sc)
			if dynamic {
				s = fmt.Sprintf("%s(%s, %s)", g.helper("createTextVNode"), expr, formatFlags(flagText))
			} else {
				s = fmt.Sprintf("%s(%s)", g.helper("createTextVNode"), expr)
			}
		case k.branches != nil:
			s, err = g.ifChain(k.branches, sc, indent+1)
		default:
			s, err = g.element(k.el, sc, indent+1, false, "")
		}
		if err != nil {
			return "", err
		}
		lines = append(lines, pad+s)
	}
	return "[\n" + strings.Join(lines, ",\n") + "\n" + strings.Repeat("  ", indent) + "]", nil
}

func (g *generator) ifChain(branches []branch, sc scope, indent int) (string, error) {
	pad := strings.Repeat("  ", indent+1)
	var sb strings.Builder
	for i, b := range branches {
		key := fmt.Sprintf("%d", i)
		node, err := g.element(b.el, sc, indent+1, true, key)
		if err != nil {
			return "", err
		}
		if b.condition == "" {
			sb.WriteString(node)
			return sb.String(), nil
		}
		fmt.Fprintf(&sb, "(%s)\n%s? %s\n%s: ", g.expr(b.condition, sc), pad, node, pad)
	}
	fmt.Fprintf(&sb, "%s(\"v-if\", true)", g.helper("createCommentVNode"))
	return sb.String(), nil
}

var interpolation = regexp.MustCompile(`\{\{([\s\S]*?)\}\}`)

// text renders a text run as a JavaScript expression and reports whether it
// depends on render state.
func (g *generator) text(s string, sc scope) (string, bool) {
	if sc.raw {
		return quote(s), false
	}
	matches := interpolation.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return quote(s), false
	}

	var parts []string
	last := 0
	for _, m := range matches {
		if m[0] > last {
			parts = append(parts, quote(s[last:m[0]]))
		}
		expr := g.expr(s[m[2]:m[3]], sc)
		parts = append(parts, g.helper("toDisplayString")+"("+expr+")")
		last = m[1]
	}
	if last < len(s) {
		parts = append(parts, quote(s[last:]))
	}
	return strings.Join(parts, " + "), true
}

func isWhitespace(s string) bool {
	return strings.Trim(s, " \t\r\n\f") == ""
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if attrName(a) == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}
