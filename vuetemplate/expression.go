package vuetemplate

import (
	"regexp"
	"strings"
)

// globals are identifiers that resolve against the global scope rather than
// the component instance.
var globals = toSet(
	"Infinity", "undefined", "NaN", "isFinite", "isNaN", "parseFloat", "parseInt",
	"decodeURI", "decodeURIComponent", "encodeURI", "encodeURIComponent", "Math",
	"Number", "Date", "Array", "Object", "Boolean", "String", "RegExp", "Map", "Set",
	"JSON", "Intl", "BigInt", "console", "Error", "Symbol",
)

var keywords = toSet(
	"true", "false", "null", "this", "typeof", "instanceof", "in", "of", "new",
	"void", "delete", "await", "function", "return", "if", "else", "var", "let",
	"const", "async", "yield",
)

var (
	arrowParams     = regexp.MustCompile(`\(([^()]*)\)\s*=>`)
	arrowParam      = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*=>`)
	identifierRegex = regexp.MustCompile(`[A-Za-z_$][\w$]*`)
	memberPath      = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\s*\.\s*[A-Za-z_$][\w$]*|\[[^\]]+\])*$`)
	validIdentifier = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
)

func toSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// prefixIdentifiers rewrites free identifiers in a template expression so they
// read from the render context. Member accesses, object keys, globals and
// names bound by an enclosing v-for or arrow function are left alone.
func prefixIdentifiers(expr string, locals map[string]bool) string {
	scope := make(map[string]bool, len(locals))
	for k := range locals {
		scope[k] = true
	}
	for _, m := range arrowParams.FindAllStringSubmatch(expr, -1) {
		for _, id := range identifierRegex.FindAllString(m[1], -1) {
			scope[id] = true
		}
	}
	for _, m := range arrowParam.FindAllStringSubmatch(expr, -1) {
		scope[m[1]] = true
	}

	p := &prefixer{src: expr, scope: scope}
	p.run(false)
	return p.out.String()
}

type prefixer struct {
	src   string
	pos   int
	scope map[string]bool
	out   strings.Builder
	stack []byte
	prev  string
}

// run rewrites src from the current position. Inside a template literal
// substitution it stops at the closing brace without consuming it.
func (p *prefixer) run(substitution bool) {
	depth := len(p.stack)
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\'' || c == '"':
			j := scanString(p.src, p.pos)
			p.out.WriteString(p.src[p.pos:j])
			p.pos = j
			p.prev = "str"
		case c == '`':
			p.templateLiteral()
			p.prev = "str"
		case isIdentStart(c):
			j := p.pos + 1
			for j < len(p.src) && isIdentPart(p.src[j]) {
				j++
			}
			p.identifier(p.src[p.pos:j], j)
			p.pos = j
		case isDigit(c):
			j := p.pos + 1
			for j < len(p.src) && (isIdentPart(p.src[j]) || p.src[j] == '.') {
				j++
			}
			p.out.WriteString(p.src[p.pos:j])
			p.pos = j
			p.prev = "num"
		case c == '.' && strings.HasPrefix(p.src[p.pos:], "..."):
			p.out.WriteString("...")
			p.pos += 3
			p.prev = "..."
		case c == '?' && strings.HasPrefix(p.src[p.pos:], "?.") && !(p.pos+2 < len(p.src) && isDigit(p.src[p.pos+2])):
			p.out.WriteString("?.")
			p.pos += 2
			p.prev = "."
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.out.WriteByte(c)
			p.pos++
		default:
			switch c {
			case '(', '[', '{':
				p.stack = append(p.stack, c)
			case ')', ']', '}':
				if substitution && len(p.stack) == depth && c == '}' {
					return
				}
				if len(p.stack) > 0 {
					p.stack = p.stack[:len(p.stack)-1]
				}
			}
			p.out.WriteByte(c)
			p.pos++
			p.prev = string(c)
		}
	}
}

func (p *prefixer) identifier(name string, next int) {
	switch {
	case p.prev == ".":
		p.out.WriteString(name)
	case keywords[name]:
		p.out.WriteString(name)
		p.prev = "kw"
		return
	default:
		p.bareIdentifier(name, next)
	}
	p.prev = "id"
}

func (p *prefixer) bareIdentifier(name string, next int) {
	follow := nextSignificant(p.src, next)
	inObject := len(p.stack) > 0 && p.stack[len(p.stack)-1] == '{' && (p.prev == "{" || p.prev == ",")
	switch {
	case inObject && follow == ':':
		p.out.WriteString(name)
	case inObject && (follow == ',' || follow == '}'):
		p.out.WriteString(name)
		p.out.WriteString(": ")
		p.out.WriteString(p.resolve(name))
	case strings.HasPrefix(strings.TrimLeft(p.src[next:], " \t\r\n"), "=>"):
		p.out.WriteString(name)
	default:
		p.out.WriteString(p.resolve(name))
	}
}

func (p *prefixer) resolve(name string) string {
	if p.scope[name] || globals[name] {
		return name
	}
	return "_ctx." + name
}

func (p *prefixer) templateLiteral() {
	p.out.WriteByte('`')
	p.pos++
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			p.out.WriteString(p.src[p.pos : p.pos+2])
			p.pos += 2
		case c == '`':
			p.out.WriteByte('`')
			p.pos++
			return
		case c == '$' && strings.HasPrefix(p.src[p.pos:], "${"):
			p.out.WriteString("${")
			p.pos += 2
			p.prev = "{"
			p.run(true)
			if p.pos < len(p.src) {
				p.out.WriteByte('}')
				p.pos++
			}
		default:
			p.out.WriteByte(c)
			p.pos++
		}
	}
}

func scanString(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(s)
}

func nextSignificant(s string, from int) byte {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return s[i]
		}
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// propertyKey renders name as an object literal key.
func propertyKey(name string) string {
	if validIdentifier.MatchString(name) {
		return name
	}
	return quote(name)
}

func camelize(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
