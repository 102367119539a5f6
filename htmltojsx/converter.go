// Package htmltojsx converts HTML markup into an equivalent JSX expression.
package htmltojsx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const defaultClassName = "NewComponent"

// Config controls the shape of the generated code.
type Config struct {
	// CreateClass wraps the markup in a React.createClass declaration instead of
	// returning the bare JSX expression.
	CreateClass bool `json:"createClass,omitempty"`
	// OutputClassName names the declared component when CreateClass is set.
	OutputClassName string `json:"outputClassName,omitempty"`
}

func (c Config) applyDefaults() Config {
	if c.OutputClassName == "" {
		c.OutputClassName = defaultClassName
	}
	return c
}

// Converter turns HTML into JSX.
type Converter struct {
	config Config
}

// New creates a Converter with the given config.
func New(config Config) *Converter {
	return &Converter{config: config.applyDefaults()}
}

// Convert parses source as an HTML fragment and returns JSX markup.
//
// A fragment with exactly one top-level element is emitted as that element.
// Anything else is wrapped in a <div>.
func (c *Converter) Convert(source string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(source), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	w := &writer{}
	if root, ok := singleElement(nodes); ok {
		w.element(root, false)
	} else {
		container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		for _, n := range nodes {
			container.AppendChild(n)
		}
		w.element(container, false)
	}

	jsx := w.buf.String()
	if !c.config.CreateClass {
		return jsx, nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "var %s = React.createClass({\n", c.config.OutputClassName)
	out.WriteString("  render: function() {\n")
	out.WriteString("    return (\n")
	fmt.Fprintf(&out, "      %s\n", jsx)
	out.WriteString("    );\n")
	out.WriteString("  }\n")
	out.WriteString("});\n")
	return out.String(), nil
}

func singleElement(nodes []*html.Node) (*html.Node, bool) {
	var found *html.Node
	for _, n := range nodes {
		if n.Type == html.TextNode && isWhitespace(n.Data) {
			continue
		}
		if n.Type != html.ElementNode || found != nil {
			return nil, false
		}
		found = n
	}
	return found, found != nil
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) element(n *html.Node, pre bool) {
	name := n.Data
	w.buf.WriteByte('<')
	w.buf.WriteString(name)

	var textareaValue *string
	if n.DataAtom == atom.Textarea && n.FirstChild != nil {
		v := textContent(n)
		textareaValue = &v
	}

	for _, attr := range n.Attr {
		w.attribute(n, attr)
	}
	if textareaValue != nil {
		w.buf.WriteString(" defaultValue=")
		w.buf.WriteString(expression(*textareaValue))
	}

	if voidElements[name] || n.FirstChild == nil || textareaValue != nil {
		w.buf.WriteString(" />")
		return
	}

	w.buf.WriteByte('>')
	pre = pre || preformatted[n.DataAtom]
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		w.node(child, pre)
	}
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteByte('>')
}

func (w *writer) node(n *html.Node, pre bool) {
	switch n.Type {
	case html.ElementNode:
		w.element(n, pre)
	case html.TextNode:
		w.text(n, pre)
	case html.CommentNode:
		w.buf.WriteString("{/*")
		w.buf.WriteString(strings.ReplaceAll(n.Data, "*/", "* /"))
		w.buf.WriteString("*/}")
	}
}

var whitespaceRun = regexp.MustCompile(`[ \t\r\n\f]+`)

func (w *writer) text(n *html.Node, pre bool) {
	if pre {
		if n.Data == "" {
			return
		}
		// JSX trims and joins lines, so preformatted text is always a string literal.
		w.buf.WriteString(expression(n.Data))
		return
	}

	if isWhitespace(n.Data) {
		if droppableWhitespace(n) {
			return
		}
		w.buf.WriteString(`{" "}`)
		return
	}

	text := whitespaceRun.ReplaceAllString(n.Data, " ")
	if strings.ContainsAny(text, "{}<>&") {
		w.buf.WriteString(expression(text))
		return
	}
	w.buf.WriteString(text)
}

func droppableWhitespace(n *html.Node) bool {
	if n.PrevSibling == nil || n.NextSibling == nil {
		return true
	}
	return isBlock(n.PrevSibling) || isBlock(n.NextSibling)
}

func isBlock(n *html.Node) bool {
	return n.Type == html.CommentNode || (n.Type == html.ElementNode && blockElements[n.DataAtom])
}

func isWhitespace(s string) bool {
	return strings.TrimLeft(s, " \t\r\n\f") == ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// expression renders s as a JSX string expression container.
func expression(s string) string {
	return "{" + quote(s) + "}"
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

var preformatted = map[atom.Atom]bool{
	atom.Pre:      true,
	atom.Textarea: true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Listing:  true,
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Details: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Summary: true, atom.Table: true, atom.Tbody: true,
	atom.Td: true, atom.Tfoot: true, atom.Th: true, atom.Thead: true, atom.Tr: true,
	atom.Ul: true, atom.Caption: true, atom.Colgroup: true,
}
