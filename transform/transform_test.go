package transform

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdcomp/mdcomp/emitter"
	"github.com/mdcomp/mdcomp/internal/logger"
	"github.com/mdcomp/mdcomp/metrics"
	"github.com/mdcomp/mdcomp/vuetemplate"
)

type fakeRecorder struct {
	mu      sync.Mutex
	results map[metrics.ResultLabel]int
	stages  map[string]int
	totals  int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{results: map[metrics.ResultLabel]int{}, stages: map[string]int{}}
}

func (f *fakeRecorder) ObserveTransformDuration(string, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals++
}

func (f *fakeRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages[stage]++
}

func (f *fakeRecorder) IncTransformResult(_ string, result metrics.ResultLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[result]++
}

// captureCompiler records the markup it receives and returns a stub render
// module.
type captureCompiler struct {
	mu     sync.Mutex
	source string
	err    error
}

func (c *captureCompiler) CompileTemplate(opts vuetemplate.Options) (vuetemplate.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = opts.Source
	if c.err != nil {
		return vuetemplate.Result{}, c.err
	}
	return vuetemplate.Result{Code: "export function render() {}"}, nil
}

func newTestPlugin(t *testing.T, opts Options, options ...Option) *Plugin {
	t.Helper()
	p, err := New(opts, options...)
	require.NoError(t, err)
	return p
}

func TestTransformBypassesNonMarkdown(t *testing.T) {
	rec := newFakeRecorder()
	p := newTestPlugin(t, Options{Frame: FrameVue}, WithRecorder(rec))

	ids := []string{"main.ts", "/src/App.vue?y.md", "notes.md.bak", "README.MD", ""}
	for _, id := range ids {
		raw := "# not markdown\n---\n"
		res, err := p.TransformDocument(context.Background(), raw, id)
		require.NoError(t, err, id)
		assert.True(t, res.Bypassed, id)
		assert.Equal(t, raw, res.Code, id)
	}
	assert.Equal(t, len(ids), rec.results[metrics.ResultBypassed])
	assert.Zero(t, rec.totals)
}

func TestTransformVueDocument(t *testing.T) {
	compiler := &captureCompiler{}
	p := newTestPlugin(t, Options{Frame: FrameVue, TemplateCompiler: compiler})

	out, err := p.Transform(context.Background(), "# Hi", "/src/doc.md")
	require.NoError(t, err)

	assert.Equal(t, "<div class=\"markdown-body\"><h1>Hi</h1>\n</div>", compiler.source)
	assert.Equal(t, "function render() {}"+
		"\nconst __matter = {};"+
		"\nconst data = () => ({ frontmatter: __matter });"+
		"\nconst __script = { render, data };"+
		"\n__script.__hmrId = \"/src/doc.md\";"+
		"\nexport default __script;", out)
}

func TestTransformVueProductionOmitsHMRID(t *testing.T) {
	p := newTestPlugin(t, Options{Frame: FrameVue, TemplateCompiler: &captureCompiler{}})
	p.ConfigResolved(emitter.BuildContext{Production: true})

	out, err := p.Transform(context.Background(), "# Hi", "/src/doc.md")
	require.NoError(t, err)
	assert.NotContains(t, out, "__hmrId")
}

func TestTransformStripsQueryFromID(t *testing.T) {
	p := newTestPlugin(t, Options{Frame: FrameVue, TemplateCompiler: &captureCompiler{}})

	out, err := p.Transform(context.Background(), "# Hi", "/src/doc.md?import&v=3")
	require.NoError(t, err)
	assert.Contains(t, out, `__script.__hmrId = "/src/doc.md";`)
}

func TestTransformVueFrontMatter(t *testing.T) {
	p := newTestPlugin(t, Options{Frame: FrameVue})

	res, err := p.TransformDocument(context.Background(), "---\ntitle: Hi\ncount: 2\n---\n# {{ frontmatter.title }}\n", "/doc.md")
	require.NoError(t, err)

	assert.Contains(t, res.Code, `const __matter = {"title":"Hi","count":2};`)
	assert.Contains(t, res.Code, "_toDisplayString(_ctx.frontmatter.title)")
	assert.Contains(t, res.Code, "\nfunction render(_ctx, _cache) {")
	assert.NotContains(t, res.Code, "export function render")
	assert.True(t, strings.HasSuffix(res.Code, "\nexport default __script;"))
	require.NotNil(t, res.Metadata)
	assert.Equal(t, []string{"title", "count"}, res.Metadata.Keys())
	assert.Empty(t, res.Warnings)
}

func TestTransformReactDocument(t *testing.T) {
	p := newTestPlugin(t, Options{Frame: FrameReact})

	out, err := p.Transform(context.Background(), "---\ntitle: Hi\n---\n# {{ frontmatter.title }}\n", "/doc.md")
	require.NoError(t, err)

	assert.Contains(t, out, `className: "markdown-body"`)
	assert.Contains(t, out, `"Hi"`)
	assert.NotContains(t, out, "frontmatter.title")
	assert.NotContains(t, out, "<h1>")
}

func TestTransformReactUsesCustomTransformer(t *testing.T) {
	var got string
	p := newTestPlugin(t, Options{
		Frame:           FrameReact,
		ReactTransforms: ReactTransforms{Import: "import Box from './box'", Content: "console.log(props)"},
		JSXTransformer: emitter.JSXTransformerFunc(func(_ context.Context, source, filename string) (string, error) {
			got = source
			assert.Equal(t, "/doc.md", filename)
			return "compiled", nil
		}),
	})

	out, err := p.Transform(context.Background(), "plain", "/doc.md?x")
	require.NoError(t, err)
	assert.Equal(t, "compiled", out)
	assert.True(t, strings.HasPrefix(got, "import React from 'react'\nimport Box from './box'\n\n"))
	assert.Contains(t, got, "  console.log(props)\n")
}

func TestTransformHookOrder(t *testing.T) {
	var calls []string
	compiler := &captureCompiler{}
	p := newTestPlugin(t, Options{
		Frame:            FrameVue,
		TemplateCompiler: compiler,
		Transforms: Transforms{
			Before: func(_ context.Context, text, id string) (string, error) {
				calls = append(calls, "before:"+text)
				assert.Equal(t, "/doc.md?raw", id)
				return text + " there", nil
			},
			After: func(_ context.Context, text, _ string) (string, error) {
				calls = append(calls, "after:"+text)
				return strings.ToUpper(text), nil
			},
		},
		VueTransforms: func(_ context.Context, source string) (string, error) {
			calls = append(calls, "vue")
			return source + "\n// tail", nil
		},
	})

	out, err := p.Transform(context.Background(), "---\na: 1\n---\nHi", "/doc.md?raw")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"before:Hi",
		"after:<div class=\"markdown-body\"><p>Hi there</p>\n</div>",
		"vue",
	}, calls)
	assert.Equal(t, "<DIV CLASS=\"MARKDOWN-BODY\"><P>HI THERE</P>\n</DIV>", compiler.source)
	assert.True(t, strings.HasSuffix(out, "\n// tail\nexport default __script;"))
}

func TestTransformHookErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := func(context.Context, string, string) (string, error) { return "", boom }

	tests := []struct {
		name string
		opts Options
	}{
		{"before", Options{Transforms: Transforms{Before: failing}}},
		{"after", Options{Transforms: Transforms{After: failing}}},
		{"vue", Options{VueTransforms: func(context.Context, string) (string, error) { return "", boom }}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Frame = FrameVue
			tt.opts.TemplateCompiler = &captureCompiler{}
			p := newTestPlugin(t, tt.opts)

			_, err := p.Transform(context.Background(), "# Hi", "/doc.md")
			require.Error(t, err)
			assert.True(t, IsCategory(err, CategoryHook))
			assert.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), "/doc.md")
		})
	}
}

func TestTransformEmitError(t *testing.T) {
	rec := newFakeRecorder()
	broken := errors.New("bad template")
	p := newTestPlugin(t, Options{Frame: FrameVue, TemplateCompiler: &captureCompiler{err: broken}}, WithRecorder(rec))

	_, err := p.Transform(context.Background(), "# Hi", "/doc.md")
	require.Error(t, err)
	assert.True(t, IsCategory(err, CategoryEmit))
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, 1, rec.results[metrics.ResultFailed])
}

func TestTransformInvalidTemplateExpression(t *testing.T) {
	p := newTestPlugin(t, Options{Frame: FrameVue})

	_, err := p.Transform(context.Background(), "Total: {{ 1 + }}\n", "/doc.md")
	require.Error(t, err)
	assert.True(t, IsCategory(err, CategoryEmit))
	assert.ErrorIs(t, err, vuetemplate.ErrInvalidExpression)
}

func TestTransformReactCompileError(t *testing.T) {
	p := newTestPlugin(t, Options{
		Frame: FrameReact,
		ReactTransforms: ReactTransforms{
			Content: "const = ;",
		},
	})

	_, err := p.Transform(context.Background(), "# Hi", "/doc.md")
	require.Error(t, err)
	assert.True(t, IsCategory(err, CategoryEmit))
	assert.ErrorIs(t, err, emitter.ErrJSXTransform)
}

func TestTransformInvalidFrontMatterContinues(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: logger.WarnLevel, Output: &logs})
	p := newTestPlugin(t, Options{Frame: FrameVue, TemplateCompiler: &captureCompiler{}}, WithLogger(log))

	res, err := p.TransformDocument(context.Background(), "---\ntitle: [unclosed\n---\n# Title\n", "/doc.md")
	require.NoError(t, err)

	assert.Contains(t, res.Code, "const __matter = {};")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarningInvalidFrontMatter, res.Warnings[0].Type)
	assert.Contains(t, logs.String(), "invalid front-matter")
}

func TestTransformCanceledContext(t *testing.T) {
	rec := newFakeRecorder()
	p := newTestPlugin(t, Options{Frame: FrameVue}, WithRecorder(rec))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Transform(ctx, "# Hi", "/doc.md")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, rec.results[metrics.ResultCanceled])

	out, err := p.Transform(ctx, "raw", "main.ts")
	require.NoError(t, err)
	assert.Equal(t, "raw", out)
}

func TestTransformRecordsStages(t *testing.T) {
	rec := newFakeRecorder()
	p := newTestPlugin(t, Options{Frame: FrameVue, TemplateCompiler: &captureCompiler{}}, WithRecorder(rec))

	_, err := p.Transform(context.Background(), "# Hi", "/doc.md")
	require.NoError(t, err)

	assert.Equal(t, 1, rec.totals)
	assert.Equal(t, 1, rec.results[metrics.ResultSuccess])
	assert.Equal(t, map[string]int{metrics.StageExtract: 1, metrics.StageRender: 1, metrics.StageEmit: 1}, rec.stages)
}

func TestWrapperClasses(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
		want    string
	}{
		{"default", nil, "<div class=\"markdown-body\"><p>x</p>\n</div>"},
		{"custom", []string{"a", "", "b"}, "<div class=\"a b\"><p>x</p>\n</div>"},
		{"disabled", []string{}, "<p>x</p>\n"},
		{"only empty", []string{""}, "<p>x</p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiler := &captureCompiler{}
			p := newTestPlugin(t, Options{Frame: FrameVue, TemplateCompiler: compiler, WrapperClasses: tt.classes})

			_, err := p.Transform(context.Background(), "x", "/doc.md")
			require.NoError(t, err)
			assert.Equal(t, tt.want, compiler.source)
		})
	}
}

func TestNewCopiesOptions(t *testing.T) {
	classes := []string{"prose"}
	compiler := &captureCompiler{}
	p := newTestPlugin(t, Options{Frame: FrameVue, TemplateCompiler: compiler, WrapperClasses: classes})
	classes[0] = "changed"

	_, err := p.Transform(context.Background(), "x", "/doc.md")
	require.NoError(t, err)
	assert.Contains(t, compiler.source, `class="prose"`)
}

func TestNewRejectsUnknownFrame(t *testing.T) {
	for _, frame := range []Frame{"", "svelte"} {
		_, err := New(Options{Frame: frame})
		require.Error(t, err, string(frame))
		assert.True(t, IsCategory(err, CategoryConfig))
		assert.ErrorIs(t, err, ErrUnknownFrame)
	}
}

func TestNewFrameConstructors(t *testing.T) {
	vue, err := NewVue(Options{Frame: FrameReact})
	require.NoError(t, err)
	assert.Equal(t, FrameVue, vue.Frame())

	react, err := NewReact(Options{})
	require.NoError(t, err)
	assert.Equal(t, FrameReact, react.Frame())
}

func TestTransformConcurrent(t *testing.T) {
	p := newTestPlugin(t, Options{Frame: FrameVue})
	want, err := p.Transform(context.Background(), "---\ntitle: Hi\n---\n# {{ frontmatter.title }}\n", "/doc.md")
	require.NoError(t, err)

	var wg sync.WaitGroup
	outputs := make([]string, 16)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := p.Transform(context.Background(), "---\ntitle: Hi\n---\n# {{ frontmatter.title }}\n", "/doc.md")
			assert.NoError(t, err)
			outputs[i] = out
		}(i)
	}
	wg.Wait()

	for _, out := range outputs {
		assert.Equal(t, want, out)
	}
}
