package vuetemplate

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var forExpression = regexp.MustCompile(`^\s*([\s\S]*?)\s+(?:in|of)\s+([\s\S]*?)\s*$`)

var functionExpression = regexp.MustCompile(`^(?:async\s+)?(?:[\w$]+|\([^)]*?\))\s*=>|^(?:async\s+)?function(?:\s+[\w$]+)?\s*\(`)

var keyModifiers = toSet("enter", "tab", "delete", "esc", "space", "up", "down")

var eventOptionModifiers = toSet("once", "capture", "passive")

// builtinElements are resolved by the Vue compiler itself rather than as
// user components.
var builtinElements = toSet(
	"component", "slot", "keepalive", "keep-alive", "teleport", "suspense",
	"transition", "transitiongroup", "transition-group",
)

var assetAttributes = map[string][]string{
	"img":    {"src"},
	"video":  {"src", "poster"},
	"source": {"src"},
	"audio":  {"src"},
	"track":  {"src"},
	"embed":  {"src"},
	"input":  {"src"},
	"image":  {"href", "xlink:href"},
	"use":    {"href", "xlink:href"},
}

// element renders el as a vnode call. Blocks open a new block scope; key is
// the branch key assigned by an enclosing v-if chain.
func (g *generator) element(el *html.Node, sc scope, indent int, block bool, key string) (string, error) {
	if !sc.raw {
		if _, ok := attr(el, "v-pre"); ok {
			sc.raw = true
		} else if source, ok := attr(el, "v-for"); ok {
			return g.forLoop(el, source, sc, indent, key)
		}
	}
	if el.DataAtom == atom.Pre || el.DataAtom == atom.Textarea {
		sc.preserve = true
	}
	if hasKey(el) {
		key = ""
	}

	if block && !sc.raw && el.DataAtom == atom.Template {
		return g.fragment(el, sc, indent, key)
	}
	if !sc.raw && el.Namespace == "" && builtinElements[strings.ToLower(el.Data)] {
		return "", fmt.Errorf("%w: <%s>", ErrUnsupportedElement, el.Data)
	}
	component := !sc.raw && isComponent(el)
	tag := quote(el.Data)
	if component {
		tag = g.component(el.Data)
	}

	p, err := g.props(el, sc, key)
	if err != nil {
		return "", err
	}

	var children string
	if !p.ownsContent {
		kids, err := g.children(childNodes(el), sc)
		if err != nil {
			return "", err
		}
		switch {
		case component && len(kids) > 0:
			children, err = g.slots(kids, sc, indent)
			if err != nil {
				return "", err
			}
			if len(sc.locals) > 0 {
				p.flags |= flagDynamicSlots
			}
		case len(kids) == 1 && kids[0].isText:
			expr, dynamic := g.text(kids[0].text, sc)
			children = expr
			if dynamic {
				p.flags |= flagText
			}
		case len(kids) > 0:
			children, err = g.childList(kids, sc, indent)
			if err != nil {
				return "", err
			}
		}
	}

	props := g.propsExpr(&p)
	if len(p.directives) > 0 && p.flags == 0 {
		p.flags = flagNeedPatch
	}
	var flags, dynamic string
	if p.flags != 0 {
		flags = formatFlags(p.flags)
	}
	if len(p.dynamic) > 0 {
		dynamic = stringArray(p.dynamic)
	}

	args := []string{tag, props, children, flags, dynamic}
	for len(args) > 1 && args[len(args)-1] == "" {
		args = args[:len(args)-1]
	}
	for i := range args {
		if args[i] == "" {
			args[i] = "null"
		}
	}
	call := strings.Join(args, ", ")

	blockCall, vnodeCall := "createElementBlock", "createElementVNode"
	if component {
		blockCall, vnodeCall = "createBlock", "createVNode"
	}
	var node string
	if block {
		node = fmt.Sprintf("(%s(), %s(%s))", g.helper("openBlock"), g.helper(blockCall), call)
	} else {
		node = fmt.Sprintf("%s(%s)", g.helper(vnodeCall), call)
	}
	if len(p.directives) > 0 {
		node = fmt.Sprintf("%s(%s, [%s])", g.helper("withDirectives"), node, strings.Join(p.directives, ", "))
	}
	return node, nil
}

// slots renders the children of a component as its default slot. Slots that
// close over v-for variables are marked dynamic.
func (g *generator) slots(kids []child, sc scope, indent int) (string, error) {
	list, err := g.childList(kids, sc, indent+1)
	if err != nil {
		return "", err
	}
	pad := strings.Repeat("  ", indent+1)
	stability := "1 /* STABLE */"
	if len(sc.locals) > 0 {
		stability = "2 /* DYNAMIC */"
	}
	return fmt.Sprintf("{\n%sdefault: %s(() => %s),\n%s_: %s\n%s}",
		pad, g.helper("withCtx"), list, pad, stability, strings.Repeat("  ", indent)), nil
}

// fragment renders a <template> carrying a structural directive.
func (g *generator) fragment(el *html.Node, sc scope, indent int, key string) (string, error) {
	kids, err := g.children(childNodes(el), sc)
	if err != nil {
		return "", err
	}
	list := "[]"
	if len(kids) > 0 {
		if list, err = g.childList(kids, sc, indent); err != nil {
			return "", err
		}
	}
	props := "null"
	if key != "" {
		props = "{ key: " + key + " }"
	}
	return fmt.Sprintf("(%s(), %s(%s, %s, %s, %s))",
		g.helper("openBlock"), g.helper("createElementBlock"), g.helper("Fragment"),
		props, list, formatFlags(flagStableFragment)), nil
}

func (g *generator) forLoop(el *html.Node, source string, sc scope, indent int, key string) (string, error) {
	m := forExpression.FindStringSubmatch(source)
	if m == nil {
		return "", fmt.Errorf("invalid v-for expression %q on <%s>", source, el.Data)
	}
	alias := strings.TrimSpace(m[1])
	if strings.HasPrefix(alias, "(") && strings.HasSuffix(alias, ")") {
		alias = strings.TrimSpace(alias[1 : len(alias)-1])
	}
	if alias == "" {
		return "", fmt.Errorf("invalid v-for alias in %q on <%s>", source, el.Data)
	}
	list := g.expr(m[2], sc)

	item := *el
	item.Attr = make([]html.Attribute, 0, len(el.Attr))
	for _, a := range el.Attr {
		if attrName(a) != "v-for" {
			item.Attr = append(item.Attr, a)
		}
	}

	inner := sc.with(identifierRegex.FindAllString(alias, -1)...)
	node, err := g.element(&item, inner, indent+1, true, "")
	if err != nil {
		return "", err
	}

	flag := flagUnkeyedFrag
	if hasKey(el) {
		flag = flagKeyedFragment
	}
	props := "null"
	if key != "" {
		props = "{ key: " + key + " }"
	}
	return fmt.Sprintf("(%s(true), %s(%s, %s, %s(%s, (%s) => {\n%sreturn %s\n%s}), %s))",
		g.helper("openBlock"), g.helper("createElementBlock"), g.helper("Fragment"), props,
		g.helper("renderList"), list, alias,
		strings.Repeat("  ", indent+1), node, strings.Repeat("  ", indent),
		formatFlags(flag)), nil
}

type prop struct {
	key   string
	value string
}

// merged collects the static and bound halves of class or style.
type merged struct {
	static  string
	dynamic string
	index   int
	seen    bool
	bound   bool
}

type elementProps struct {
	list        []prop
	spreads     []string
	flags       int
	dynamic     []string
	directives  []string
	ownsContent bool
}

func (g *generator) props(el *html.Node, sc scope, key string) (elementProps, error) {
	var (
		p            elementProps
		class, style merged
	)
	if key != "" {
		p.list = append(p.list, prop{"key", key})
	}
	place := func(m *merged, name string) {
		if !m.seen {
			m.seen = true
			m.index = len(p.list)
			p.list = append(p.list, prop{key: name})
		}
	}

	for _, a := range el.Attr {
		name := attrName(a)
		if sc.raw || !isDirective(name) {
			if name == "v-pre" {
				continue
			}
			switch name {
			case "class":
				place(&class, "class")
				class.static = a.Val
			case "style":
				place(&style, "style")
				style.static = a.Val
			default:
				p.list = append(p.list, prop{name, g.staticValue(el, name, a.Val)})
			}
			continue
		}

		switch {
		case name == "v-if" || name == "v-else-if" || name == "v-else" || name == "v-for" ||
			name == "v-once" || name == "v-cloak":
		case name == "v-html":
			p.list = append(p.list, prop{"innerHTML", g.expr(a.Val, sc)})
			p.dynamic = append(p.dynamic, "innerHTML")
			p.flags |= flagProps
			p.ownsContent = true
		case name == "v-text":
			value := g.helper("toDisplayString") + "(" + g.expr(a.Val, sc) + ")"
			p.list = append(p.list, prop{"textContent", value})
			p.dynamic = append(p.dynamic, "textContent")
			p.flags |= flagProps
			p.ownsContent = true
		case name == "v-show":
			p.directives = append(p.directives, fmt.Sprintf("[%s, %s]",
				g.helper("vShow"), g.expr(a.Val, sc)))
		case strings.HasPrefix(name, ":") || name == "v-bind" || strings.HasPrefix(name, "v-bind:"):
			arg, modifiers := directiveArgument(name)
			if strings.HasPrefix(arg, "[") {
				return p, fmt.Errorf("%w: dynamic argument %s on <%s>", ErrUnsupportedDirective, name, el.Data)
			}
			value := g.expr(a.Val, sc)
			if arg == "" {
				p.spreads = append(p.spreads, value)
				continue
			}
			if slices.Contains(modifiers, "camel") {
				arg = camelize(arg)
			}
			switch arg {
			case "class":
				place(&class, "class")
				class.dynamic, class.bound = value, true
			case "style":
				place(&style, "style")
				style.dynamic, style.bound = value, true
			case "key":
				p.list = append(p.list, prop{"key", value})
			default:
				p.list = append(p.list, prop{arg, value})
				p.dynamic = append(p.dynamic, arg)
				p.flags |= flagProps
			}
		case strings.HasPrefix(name, "@") || strings.HasPrefix(name, "v-on:"):
			arg, modifiers := directiveArgument(name)
			if arg == "" || strings.HasPrefix(arg, "[") {
				return p, fmt.Errorf("%w: %s on <%s>", ErrUnsupportedDirective, name, el.Data)
			}
			event, handler := g.listener(arg, a.Val, modifiers, sc)
			p.list = append(p.list, prop{event, handler})
			if len(sc.locals) > 0 {
				p.dynamic = append(p.dynamic, event)
				p.flags |= flagProps
			}
		default:
			return p, fmt.Errorf("%w: %s on <%s>", ErrUnsupportedDirective, name, el.Data)
		}
	}

	if class.seen {
		p.list[class.index].value = g.mergedValue(class, "normalizeClass")
		if class.bound {
			p.flags |= flagClass
		}
	}
	if style.seen {
		p.list[style.index].value = g.mergedValue(style, "normalizeStyle")
		if style.bound {
			p.flags |= flagStyle
		}
	}
	return p, nil
}

func (g *generator) mergedValue(m merged, normalize string) string {
	switch {
	case !m.bound:
		return quote(m.static)
	case m.static == "":
		return g.helper(normalize) + "(" + m.dynamic + ")"
	default:
		return g.helper(normalize) + "([" + quote(m.static) + ", " + m.dynamic + "])"
	}
}

func (g *generator) staticValue(el *html.Node, name, value string) string {
	if g.opts.TransformAssetURLs && slices.Contains(assetAttributes[el.Data], name) && isRelativeURL(value) {
		return g.asset(strings.TrimPrefix(value, "~"))
	}
	return quote(value)
}

// listener renders an event binding as a cached handler.
func (g *generator) listener(arg, value string, modifiers []string, sc scope) (string, string) {
	event := "on" + capitalize(camelize(arg))
	var system, keys []string
	for _, m := range modifiers {
		switch {
		case eventOptionModifiers[m]:
			event += capitalize(m)
		case keyModifiers[m]:
			keys = append(keys, m)
		default:
			system = append(system, m)
		}
	}

	handler := g.handler(value, sc)
	if len(system) > 0 {
		handler = fmt.Sprintf("%s(%s, %s)", g.helper("withModifiers"), handler, stringArray(system))
	}
	if len(keys) > 0 {
		handler = fmt.Sprintf("%s(%s, %s)", g.helper("withKeys"), handler, stringArray(keys))
	}
	// Handlers closing over v-for variables change per item and cannot be cached.
	if len(sc.locals) > 0 {
		return event, handler
	}
	n := g.nextCache()
	return event, fmt.Sprintf("_cache[%d] || (_cache[%d] = %s)", n, n, handler)
}

func (g *generator) handler(value string, sc scope) string {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return "() => {}"
	case memberPath.MatchString(v) && !keywords[v]:
		fn := g.expr(v, sc)
		return fmt.Sprintf("(...args) => (%s && %s(...args))", fn, fn)
	case functionExpression.MatchString(v):
		return g.expr(v, sc)
	}

	if strings.Contains(v, ";") {
		return "$event => {" + g.statements(v, sc.with("$event")) + "}"
	}
	return "$event => (" + g.expr(v, sc.with("$event")) + ")"
}

func (g *generator) propsExpr(p *elementProps) string {
	var obj string
	if len(p.list) > 0 {
		parts := make([]string, len(p.list))
		for i, pr := range p.list {
			parts[i] = propertyKey(pr.key) + ": " + pr.value
		}
		obj = "{ " + strings.Join(parts, ", ") + " }"
	}
	if len(p.spreads) == 0 {
		return obj
	}

	p.flags = p.flags&^(flagClass|flagStyle|flagProps) | flagFullProps
	p.dynamic = nil
	if obj == "" && len(p.spreads) == 1 {
		return fmt.Sprintf("%s(%s(%s))", g.helper("normalizeProps"), g.helper("guardReactiveProps"), p.spreads[0])
	}
	var args []string
	if obj != "" {
		args = append(args, obj)
	}
	args = append(args, p.spreads...)
	return g.helper("mergeProps") + "(" + strings.Join(args, ", ") + ")"
}

func isDirective(name string) bool {
	return strings.HasPrefix(name, "v-") || strings.HasPrefix(name, ":") ||
		strings.HasPrefix(name, "@") || strings.HasPrefix(name, "#")
}

// directiveArgument splits ":href.camel" or "v-on:click.prevent" into the
// argument and its modifiers.
func directiveArgument(name string) (string, []string) {
	switch {
	case strings.HasPrefix(name, ":") || strings.HasPrefix(name, "@"):
		name = name[1:]
	case strings.HasPrefix(name, "v-bind:"):
		name = strings.TrimPrefix(name, "v-bind:")
	case strings.HasPrefix(name, "v-on:"):
		name = strings.TrimPrefix(name, "v-on:")
	case name == "v-bind":
		return "", nil
	}
	parts := strings.Split(name, ".")
	return parts[0], parts[1:]
}

func hasKey(el *html.Node) bool {
	for _, a := range el.Attr {
		switch attrName(a) {
		case "key", ":key", "v-bind:key":
			return true
		}
	}
	return false
}

func childNodes(el *html.Node) []*html.Node {
	var out []*html.Node
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func isRelativeURL(u string) bool {
	return u != "" && (u[0] == '.' || u[0] == '~' || u[0] == '@')
}

func stringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
