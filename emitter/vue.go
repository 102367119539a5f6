package emitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdcomp/mdcomp/vuetemplate"
)

// TemplateCompiler compiles component markup into a module exporting a render
// function. The output must contain "export function render".
type TemplateCompiler interface {
	CompileTemplate(opts vuetemplate.Options) (vuetemplate.Result, error)
}

// TemplateCompilerFunc adapts a function to TemplateCompiler.
type TemplateCompilerFunc func(opts vuetemplate.Options) (vuetemplate.Result, error)

func (f TemplateCompilerFunc) CompileTemplate(opts vuetemplate.Options) (vuetemplate.Result, error) {
	return f(opts)
}

// DefaultTemplateCompiler is the built-in compiler.
var DefaultTemplateCompiler TemplateCompiler = TemplateCompilerFunc(vuetemplate.Compile)

// VueTransform post-processes generated Vue source before the default export
// is appended.
type VueTransform func(ctx context.Context, source string) (string, error)

// VueConfig configures the Vue emitter.
type VueConfig struct {
	Compiler  TemplateCompiler
	Transform VueTransform
}

// Vue emits single-file-component style modules for Vue 3.
type Vue struct {
	compiler  TemplateCompiler
	transform VueTransform
}

// NewVue creates a Vue emitter. Nil fields fall back to the built-in compiler
// and an identity transform.
func NewVue(cfg VueConfig) *Vue {
	v := &Vue{compiler: cfg.Compiler, transform: cfg.Transform}
	if v.compiler == nil {
		v.compiler = DefaultTemplateCompiler
	}
	return v
}

// Emit compiles the markup to a render function and attaches the metadata as
// the component's reactive data under "frontmatter".
func (v *Vue) Emit(ctx context.Context, in Input) (string, error) {
	res, err := v.compiler.CompileTemplate(vuetemplate.Options{
		Filename:           in.ID,
		ID:                 in.ID,
		Source:             in.Markup,
		TransformAssetURLs: false,
	})
	if err != nil {
		return "", fmt.Errorf("compile template: %w", err)
	}

	matter, err := in.Metadata.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(strings.Replace(res.Code, "export function render", "function render", 1))
	fmt.Fprintf(&sb, "\nconst __matter = %s;", matter)
	sb.WriteString("\nconst data = () => ({ frontmatter: __matter });")
	sb.WriteString("\nconst __script = { render, data };")
	if !in.Build.Production {
		fmt.Fprintf(&sb, "\n__script.__hmrId = %s;", jsonString(in.ID))
	}

	out := sb.String()
	if v.transform != nil {
		if out, err = v.transform(ctx, out); err != nil {
			return "", fmt.Errorf("vue transform: %w", err)
		}
	}
	return out + "\nexport default __script;", nil
}
