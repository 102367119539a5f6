package vuetemplate

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// sourceAttr marks every start tag before parsing so the parsed element can
// be matched back to the tag as written.
const sourceAttr = "data-vuetemplate-src"

// rawTag is a start tag as it appears in the template source.
type rawTag struct {
	name    string
	attrs   []string
	renamed bool
}

// svgCamelTags are the mixed-case SVG element names the HTML parser restores
// on its own.
var svgCamelTags = toSet(
	"altGlyph", "altGlyphDef", "altGlyphItem", "animateColor", "animateMotion",
	"animateTransform", "clipPath", "feBlend", "feColorMatrix", "feComponentTransfer",
	"feComposite", "feConvolveMatrix", "feDiffuseLighting", "feDisplacementMap",
	"feDistantLight", "feDropShadow", "feFlood", "feFuncA", "feFuncB", "feFuncG",
	"feFuncR", "feGaussianBlur", "feImage", "feMerge", "feMergeNode", "feMorphology",
	"feOffset", "fePointLight", "feSpecularLighting", "feSpotLight", "feTile",
	"feTurbulence", "foreignObject", "glyphRef", "linearGradient", "radialGradient",
	"textPath",
)

// annotate rewrites source for the HTML parser. Every start tag gets a
// sourceAttr index into the returned tags. Mixed-case tag names, which the
// parser would lowercase and could confuse with HTML elements such as <Link>
// or <Table>, are replaced by neutral placeholders. Self-closing tags that are
// not void elements get an explicit end tag.
func annotate(source string) (string, []rawTag) {
	var (
		out          strings.Builder
		tags         []rawTag
		placeholders = make(map[string]string)
		consumed     int
	)
	z := html.NewTokenizer(strings.NewReader(source))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := string(z.Raw())
		consumed += len(raw)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, rest := splitTagName(raw[1:])
			tag := rawTag{name: name, attrs: rawAttrNames(rest)}
			emitted := name
			if hasUpper(name) && !svgCamelTags[name] {
				emitted = placeholder(placeholders, name)
				tag.renamed = true
			}
			fmt.Fprintf(&out, "<%s %s=\"%d\"", emitted, sourceAttr, len(tags))
			tags = append(tags, tag)

			if tt == html.SelfClosingTagToken && !isVoid(name) {
				out.WriteString(strings.TrimSuffix(strings.TrimSuffix(rest, ">"), "/"))
				fmt.Fprintf(&out, "></%s>", emitted)
				continue
			}
			out.WriteString(rest)
		case html.EndTagToken:
			name, rest := splitTagName(raw[2:])
			if emitted, ok := placeholders[name]; ok {
				name = emitted
			}
			out.WriteString("</" + name + rest)
		default:
			out.WriteString(raw)
		}
	}
	out.WriteString(source[consumed:])
	return out.String(), tags
}

// restore undoes annotate on the parsed nodes: it drops the marker and puts
// back the tag and attribute names as written.
func restore(nodes []*html.Node, tags []rawTag) {
	for _, n := range nodes {
		restoreNode(n, tags)
	}
}

func restoreNode(n *html.Node, tags []rawTag) {
	if n.Type == html.ElementNode {
		for i, a := range n.Attr {
			if a.Namespace != "" || a.Key != sourceAttr {
				continue
			}
			n.Attr = append(n.Attr[:i:i], n.Attr[i+1:]...)
			if idx, err := strconv.Atoi(a.Val); err == nil && idx >= 0 && idx < len(tags) {
				restoreNames(n, tags[idx])
			}
			break
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		restoreNode(c, tags)
	}
}

func restoreNames(n *html.Node, tag rawTag) {
	if tag.renamed {
		n.Data = tag.name
		n.DataAtom = 0
	}
	written := make(map[string]string, len(tag.attrs))
	for _, name := range tag.attrs {
		lower := strings.ToLower(name)
		if _, ok := written[lower]; !ok {
			written[lower] = name
		}
	}
	for i, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		if name, ok := written[a.Key]; ok {
			n.Attr[i].Key = name
		}
	}
}

func placeholder(placeholders map[string]string, name string) string {
	p, ok := placeholders[name]
	if !ok {
		p = fmt.Sprintf("vuetemplate-component-%d", len(placeholders))
		placeholders[name] = p
	}
	return p
}

// splitTagName splits s, the raw tag text after "<" or "</", into the tag
// name and everything that follows it.
func splitTagName(s string) (string, string) {
	end := strings.IndexAny(s, " \t\n\f\r/>")
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// rawAttrNames lists attribute names in the order written, keeping case.
func rawAttrNames(s string) []string {
	var names []string
	i := 0
	for i < len(s) {
		switch c := s[i]; {
		case c == '>':
			return names
		case c == '/' || isSpace(c):
			i++
			continue
		}

		start := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '/' && s[i] != '>' && (s[i] != '=' || i == start) {
			i++
		}
		names = append(names, s[start:i])

		j := i
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j >= len(s) || s[j] != '=' {
			continue
		}
		j++
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j < len(s) && (s[j] == '"' || s[j] == '\'') {
			if end := strings.IndexByte(s[j+1:], s[j]); end >= 0 {
				j += end + 2
			} else {
				j = len(s)
			}
		} else {
			for j < len(s) && !isSpace(s[j]) && s[j] != '>' {
				j++
			}
		}
		i = j
	}
	return names
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}

func hasUpper(s string) bool {
	return strings.ToLower(s) != s
}

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true, atom.Embed: true,
	atom.Hr: true, atom.Img: true, atom.Input: true, atom.Link: true, atom.Meta: true,
	atom.Source: true, atom.Track: true, atom.Wbr: true,
}

func isVoid(name string) bool {
	if hasUpper(name) {
		return false
	}
	return voidElements[atom.Lookup([]byte(name))]
}

// isComponent reports whether el refers to a Vue component rather than an
// HTML element: an unknown or mixed-case tag outside SVG and MathML.
func isComponent(el *html.Node) bool {
	return el.Type == html.ElementNode && el.Namespace == "" && el.DataAtom == 0
}

// componentVar names the binding that holds a resolved component.
func componentVar(name string) string {
	var sb strings.Builder
	sb.WriteString("_component_")
	for _, r := range name {
		switch {
		case r == '-':
			sb.WriteByte('_')
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteString(strconv.Itoa(int(r)))
		}
	}
	return sb.String()
}
