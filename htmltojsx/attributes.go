package htmltojsx

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var attributeNames = map[string]string{
	"class":           "className",
	"for":             "htmlFor",
	"accept-charset":  "acceptCharset",
	"accesskey":       "accessKey",
	"allowfullscreen": "allowFullScreen",
	"autocomplete":    "autoComplete",
	"autofocus":       "autoFocus",
	"autoplay":        "autoPlay",
	"cellpadding":     "cellPadding",
	"cellspacing":     "cellSpacing",
	"charset":         "charSet",
	"colspan":         "colSpan",
	"contenteditable": "contentEditable",
	"contextmenu":     "contextMenu",
	"crossorigin":     "crossOrigin",
	"datetime":        "dateTime",
	"enctype":         "encType",
	"formaction":      "formAction",
	"frameborder":     "frameBorder",
	"hreflang":        "hrefLang",
	"http-equiv":      "httpEquiv",
	"inputmode":       "inputMode",
	"marginheight":    "marginHeight",
	"marginwidth":     "marginWidth",
	"maxlength":       "maxLength",
	"minlength":       "minLength",
	"novalidate":      "noValidate",
	"playsinline":     "playsInline",
	"readonly":        "readOnly",
	"referrerpolicy":  "referrerPolicy",
	"rowspan":         "rowSpan",
	"spellcheck":      "spellCheck",
	"srcdoc":          "srcDoc",
	"srclang":         "srcLang",
	"srcset":          "srcSet",
	"tabindex":        "tabIndex",
	"usemap":          "useMap",
	"xlink:href":      "xlinkHref",
	"xml:lang":        "xmlLang",
	"xml:space":       "xmlSpace",
}

var booleanAttributes = map[string]bool{
	"allowfullscreen": true, "async": true, "autofocus": true, "autoplay": true,
	"checked": true, "controls": true, "default": true, "defer": true,
	"disabled": true, "formnovalidate": true, "hidden": true, "itemscope": true,
	"loop": true, "multiple": true, "muted": true, "novalidate": true, "open": true,
	"playsinline": true, "readonly": true, "required": true, "reversed": true,
	"selected": true,
}

func (w *writer) attribute(el *html.Node, attr html.Attribute) {
	key := attr.Key
	if attr.Namespace != "" {
		key = attr.Namespace + ":" + attr.Key
	}
	name := jsxAttributeName(el, key)

	w.buf.WriteByte(' ')
	w.buf.WriteString(name)

	if name == "style" {
		w.buf.WriteString("={")
		w.buf.WriteString(styleObject(attr.Val))
		w.buf.WriteByte('}')
		return
	}

	lower := strings.ToLower(key)
	if booleanAttributes[lower] && (attr.Val == "" || strings.EqualFold(attr.Val, lower)) {
		return
	}

	w.buf.WriteByte('=')
	if strings.ContainsAny(attr.Val, "\"&") {
		w.buf.WriteString(expression(attr.Val))
		return
	}
	w.buf.WriteByte('"')
	w.buf.WriteString(attr.Val)
	w.buf.WriteByte('"')
}

func jsxAttributeName(el *html.Node, key string) string {
	lower := strings.ToLower(key)

	if el.DataAtom == atom.Input {
		switch lower {
		case "value":
			return "defaultValue"
		case "checked":
			return "defaultChecked"
		}
	}
	if name, ok := attributeNames[lower]; ok {
		return name
	}
	if strings.HasPrefix(lower, "data-") || strings.HasPrefix(lower, "aria-") {
		return key
	}
	if el.Namespace == "svg" && strings.Contains(key, "-") {
		return camelCase(key)
	}
	return key
}

func camelCase(s string) string {
	parts := strings.Split(s, "-")
	var sb strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 || sb.Len() == 0 {
			sb.WriteString(part)
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}

var numericValue = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// styleObject converts an inline CSS declaration list to a JSX object literal.
func styleObject(css string) string {
	var entries []string
	for _, decl := range strings.Split(css, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		value = strings.TrimSpace(value)
		if prop == "" || value == "" {
			continue
		}

		var out string
		if numericValue.MatchString(value) {
			out = value
		} else {
			out = quote(value)
		}
		entries = append(entries, styleKey(prop)+": "+out)
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

func styleKey(prop string) string {
	if strings.HasPrefix(prop, "--") {
		return quote(prop)
	}
	prop = strings.ToLower(prop)
	switch {
	case strings.HasPrefix(prop, "-ms-"):
		return camelCase(prop[1:])
	case strings.HasPrefix(prop, "-"):
		key := camelCase(prop[1:])
		if key == "" {
			return quote(prop)
		}
		return strings.ToUpper(key[:1]) + key[1:]
	}
	return camelCase(prop)
}
