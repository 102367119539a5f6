package vuetemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		locals []string
		want   string
	}{
		{name: "member access", expr: "a + b.c", want: "_ctx.a + _ctx.b.c"},
		{name: "globals", expr: "Math.max(a, 1)", want: "Math.max(_ctx.a, 1)"},
		{name: "object keys and shorthand", expr: "{ a, b: c }", want: "{ a: _ctx.a, b: _ctx.c }"},
		{name: "ternary", expr: "ok ? 'yes' : 'no'", want: "_ctx.ok ? 'yes' : 'no'"},
		{name: "arrow params", expr: "items.map(x => x * 2)", want: "_ctx.items.map(x => x * 2)"},
		{name: "parenthesised arrow params", expr: "list.filter((a, i) => a > i)", want: "_ctx.list.filter((a, i) => a > i)"},
		{name: "template literal", expr: "`Hi ${name}!`", want: "`Hi ${_ctx.name}!`"},
		{name: "keywords", expr: "typeof x === 'string' && !false", want: "typeof _ctx.x === 'string' && !false"},
		{name: "locals", expr: "$event.target.value + item", locals: []string{"$event", "item"}, want: "$event.target.value + item"},
		{name: "optional chaining", expr: "user?.name", want: "_ctx.user?.name"},
		{name: "spread", expr: "[...list, 1.5]", want: "[..._ctx.list, 1.5]"},
		{name: "strings untouched", expr: `"a" + 'b\'c'`, want: `"a" + 'b\'c'`},
		{name: "unbalanced braces", expr: "a }", want: "_ctx.a }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prefixIdentifiers(tt.expr, toSet(tt.locals...)))
		})
	}
}

func TestPropertyKey(t *testing.T) {
	assert.Equal(t, "class", propertyKey("class"))
	assert.Equal(t, `"data-id"`, propertyKey("data-id"))
	assert.Equal(t, `"onUpdate:modelValue"`, propertyKey("onUpdate:modelValue"))
}

func TestCamelize(t *testing.T) {
	assert.Equal(t, "viewBox", camelize("view-box"))
	assert.Equal(t, "click", camelize("click"))
}
