package emitter

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdcomp/mdcomp/frontmatter"
	"github.com/mdcomp/mdcomp/vuetemplate"
)

func metadata(t testing.TB, yamlBlock string) *frontmatter.Metadata {
	t.Helper()
	doc, err := frontmatter.Extract("---\n" + yamlBlock + "---\n")
	require.NoError(t, err)
	return doc.Metadata
}

type fakeCompiler struct {
	got  vuetemplate.Options
	code string
	err  error
}

func (f *fakeCompiler) CompileTemplate(opts vuetemplate.Options) (vuetemplate.Result, error) {
	f.got = opts
	return vuetemplate.Result{Code: f.code}, f.err
}

const fakeRender = "import { x as _x } from \"vue\"\n\nexport function render(_ctx, _cache) {\n  return null\n}"

func TestVueEmitDevelopment(t *testing.T) {
	compiler := &fakeCompiler{code: fakeRender}
	v := NewVue(VueConfig{Compiler: compiler})

	out, err := v.Emit(context.Background(), Input{
		ID:       "/src/doc.md",
		Markup:   `<div class="markdown-body"><h1>Hi</h1></div>`,
		Metadata: metadata(t, "title: Hi\n"),
	})
	require.NoError(t, err)

	want := "import { x as _x } from \"vue\"\n\nfunction render(_ctx, _cache) {\n  return null\n}" +
		"\nconst __matter = {\"title\":\"Hi\"};" +
		"\nconst data = () => ({ frontmatter: __matter });" +
		"\nconst __script = { render, data };" +
		"\n__script.__hmrId = \"/src/doc.md\";" +
		"\nexport default __script;"
	assert.Equal(t, want, out)

	assert.Equal(t, vuetemplate.Options{
		Filename: "/src/doc.md",
		ID:       "/src/doc.md",
		Source:   `<div class="markdown-body"><h1>Hi</h1></div>`,
	}, compiler.got)
}

func TestVueEmitProductionOmitsHMRID(t *testing.T) {
	v := NewVue(VueConfig{Compiler: &fakeCompiler{code: fakeRender}})

	out, err := v.Emit(context.Background(), Input{
		ID:    "doc.md",
		Build: BuildContext{Production: true},
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "__hmrId")
	assert.Contains(t, out, "\nconst __matter = {};")
}

func TestVueEmitReplacesOnlyFirstExport(t *testing.T) {
	code := "export function render() {}\n// export function render"
	v := NewVue(VueConfig{Compiler: &fakeCompiler{code: code}})

	out, err := v.Emit(context.Background(), Input{ID: "doc.md"})
	require.NoError(t, err)
	assert.Contains(t, out, "function render() {}\n// export function render")
	assert.NotContains(t, out, "export function render() {}")
}

func TestVueTransformRunsBeforeDefaultExport(t *testing.T) {
	var seen string
	v := NewVue(VueConfig{
		Compiler: &fakeCompiler{code: fakeRender},
		Transform: func(_ context.Context, src string) (string, error) {
			seen = src
			return src + "\n__script.name = 'Doc';", nil
		},
	})

	out, err := v.Emit(context.Background(), Input{ID: "doc.md", Build: BuildContext{Production: true}})
	require.NoError(t, err)
	assert.NotContains(t, seen, "export default")
	assert.Contains(t, out, "\n__script.name = 'Doc';\nexport default __script;")
}

func TestVueEmitErrors(t *testing.T) {
	boom := errors.New("boom")

	v := NewVue(VueConfig{Compiler: &fakeCompiler{err: boom}})
	_, err := v.Emit(context.Background(), Input{ID: "doc.md"})
	assert.ErrorIs(t, err, boom)

	v = NewVue(VueConfig{
		Compiler:  &fakeCompiler{code: fakeRender},
		Transform: func(context.Context, string) (string, error) { return "", boom },
	})
	_, err = v.Emit(context.Background(), Input{ID: "doc.md"})
	assert.ErrorIs(t, err, boom)
}

func TestVueEmitWithBuiltInCompiler(t *testing.T) {
	v := NewVue(VueConfig{})

	out, err := v.Emit(context.Background(), Input{
		ID:       "doc.md",
		Markup:   `<div class="markdown-body"><h1>{{ frontmatter.title }}</h1></div>`,
		Metadata: metadata(t, "title: Hi\n"),
	})
	require.NoError(t, err)
	assert.Contains(t, out, "\nfunction render(_ctx, _cache) {")
	assert.NotContains(t, out, "export function render")
	assert.Contains(t, out, "_toDisplayString(_ctx.frontmatter.title)")
	assert.Contains(t, out, `const __matter = {"title":"Hi"};`)
}

func TestReactEmitBuildsScaffold(t *testing.T) {
	var source, file string
	r := NewReact(ReactConfig{
		Transformer: JSXTransformerFunc(func(_ context.Context, src, filename string) (string, error) {
			source, file = src, filename
			return "compiled", nil
		}),
		Import:  "import Layout from './Layout'",
		Content: "console.log(html)",
	})

	out, err := r.Emit(context.Background(), Input{
		ID:       "doc.md",
		Markup:   "<h1>{{ frontmatter.title }}</h1>\n",
		Metadata: metadata(t, "title: Hi\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "compiled", out)
	assert.Equal(t, "doc.md", file)

	want := "import React from 'react'\n" +
		"import Layout from './Layout'\n\n" +
		"export default function(props){\n" +
		"  const html = <h1>Hi</h1>\n" +
		"  console.log(html)\n" +
		"  return {...html,...{props:{...html.props,...props}}}\n" +
		"}\n"
	assert.Equal(t, want, source)
}

func TestReactEmitWithEsbuild(t *testing.T) {
	r := NewReact(ReactConfig{})

	out, err := r.Emit(context.Background(), Input{
		ID:       "doc.md",
		Markup:   `<div class="markdown-body"><h1>{{ frontmatter.title }}</h1></div>`,
		Metadata: metadata(t, "title: Hi\n"),
	})
	require.NoError(t, err)
	assert.Contains(t, out, `import React from "react"`)
	assert.Contains(t, out, `React.createElement("h1", null, "Hi")`)
	assert.Contains(t, out, `className: "markdown-body"`)
	assert.Contains(t, out, "export default function(props)")
	assert.NotContains(t, out, "<h1>")
}

func TestReactEmitReportsCompileErrors(t *testing.T) {
	r := NewReact(ReactConfig{Content: "const = ;"})

	_, err := r.Emit(context.Background(), Input{ID: "doc.md", Markup: "<p>x</p>"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJSXTransform)
}

func TestInterpolate(t *testing.T) {
	meta := metadata(t, "title: Hi\ncount: 3\nratio: 0.5\ndraft: false\ntags: [a, b]\nauthor:\n  name: Ann\nempty: null\na.b: dotted\n")

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{name: "string", markup: "<p>{{ frontmatter.title }}</p>", want: "<p>Hi</p>"},
		{name: "no spaces", markup: "{{frontmatter.title}}", want: "Hi"},
		{name: "integer", markup: "{{ frontmatter.count }}", want: "3"},
		{name: "float", markup: "{{ frontmatter.ratio }}", want: "0.5"},
		{name: "bool", markup: "{{ frontmatter.draft }}", want: "false"},
		{name: "sequence", markup: "{{ frontmatter.tags }}", want: "a,b"},
		{name: "mapping", markup: "{{ frontmatter.author }}", want: "[object Object]"},
		{name: "null", markup: "{{ frontmatter.empty }}", want: "null"},
		{name: "missing", markup: "{{ frontmatter.nope }}", want: "undefined"},
		{name: "nested path is a literal key", markup: "{{ frontmatter.author.name }}", want: "undefined"},
		{name: "dotted key", markup: "{{ frontmatter.a.b }}", want: "dotted"},
		{name: "prefix ignored", markup: "{{ anything.title }}", want: "Hi"},
		{name: "single segment looks up empty key", markup: "{{ title }}", want: "undefined"},
		{name: "multi line", markup: "{{\nfrontmatter.title\n}}", want: "Hi"},
		{name: "several", markup: "{{ frontmatter.title }} x{{ frontmatter.count }}", want: "Hi x3"},
		{name: "no placeholders", markup: "<p>{ plain }</p>", want: "<p>{ plain }</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpolate(tt.markup, meta))
		})
	}
}

func TestInterpolateSingleSegmentUsesEmptyKey(t *testing.T) {
	meta := metadata(t, "\"\": fallback\ntitle: Hi\n")

	assert.Equal(t, "fallback", Interpolate("{{ title }}", meta))
	assert.Equal(t, "fallback", Interpolate("{{ anything }}", meta))
	assert.Equal(t, "Hi", Interpolate("{{ frontmatter.title }}", meta))
}

func TestInterpolateWithoutMetadata(t *testing.T) {
	assert.Equal(t, "undefined", Interpolate("{{ frontmatter.title }}", nil))
	assert.Equal(t, "undefined", Interpolate("{{ frontmatter.title }}", frontmatter.Empty()))
}

func TestJSString(t *testing.T) {
	assert.Equal(t, "1e+21", jsString(1e21))
	assert.Equal(t, "1e-7", jsString(1e-7))
	assert.Equal(t, "123.25", jsString(123.25))
	assert.Equal(t, "NaN", jsString(math.NaN()))
	assert.Equal(t, "a,,b", jsString([]any{"a", nil, "b"}))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "Tue Jan 02 2024 03:04:05 GMT+0000 (Coordinated Universal Time)", jsString(ts))
}
