package transform

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/mdcomp/mdcomp/emitter"
	"github.com/mdcomp/mdcomp/renderer"
)

// Frame selects the target component framework.
type Frame string

const (
	FrameVue   Frame = "vue"
	FrameReact Frame = "react"
)

// DefaultWrapperClass is used when Options.WrapperClasses is nil.
const DefaultWrapperClass = "markdown-body"

// Hook rewrites text between pipeline stages. id is the identifier passed to
// Transform, including any query suffix.
type Hook func(ctx context.Context, text, id string) (string, error)

// Transforms holds the optional text hooks around rendering.
type Transforms struct {
	// Before receives the document body after front-matter extraction.
	Before Hook
	// After receives the wrapped markup.
	After Hook
}

// ReactTransforms injects code into the generated React component.
type ReactTransforms struct {
	Import  string `json:"import,omitempty" yaml:"import,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Options configures a Plugin.
type Options struct {
	MarkdownItOptions renderer.Options   `json:"markdownItOptions,omitempty"`
	MarkdownItUses    []renderer.Use     `json:"-"`
	MarkdownItSetup   renderer.SetupFunc `json:"-"`
	// WrapperClasses are joined into the class attribute of the wrapper div.
	// Nil selects DefaultWrapperClass; an empty slice disables wrapping.
	WrapperClasses  []string             `json:"wrapperClasses,omitempty"`
	Transforms      Transforms           `json:"-"`
	VueTransforms   emitter.VueTransform `json:"-"`
	ReactTransforms ReactTransforms      `json:"reactTransforms,omitempty"`
	Frame           Frame                `json:"frame"`

	// TemplateCompiler replaces the built-in Vue template compiler.
	TemplateCompiler emitter.TemplateCompiler `json:"-"`
	// JSXTransformer replaces the built-in esbuild JSX compile step.
	JSXTransformer emitter.JSXTransformer `json:"-"`
}

func (o Options) applyDefaults() Options {
	if o.WrapperClasses == nil {
		o.WrapperClasses = []string{DefaultWrapperClass}
	}
	return o
}

func (o Options) clone() Options {
	cloned := o
	if o.MarkdownItUses != nil {
		cloned.MarkdownItUses = make([]renderer.Use, len(o.MarkdownItUses))
		for i, use := range o.MarkdownItUses {
			cloned.MarkdownItUses[i] = renderer.Use{Plugin: use.Plugin, Options: maps.Clone(use.Options)}
		}
	}
	if o.WrapperClasses != nil {
		cloned.WrapperClasses = append([]string{}, o.WrapperClasses...)
	}
	return cloned
}

// Validate checks that option values are usable.
func (o Options) Validate() error {
	switch o.Frame {
	case FrameVue, FrameReact:
	case "":
		return wrap(ErrUnknownFrame, CategoryConfig, "", "frame is required")
	default:
		return wrap(ErrUnknownFrame, CategoryConfig, "", fmt.Sprintf("invalid frame %q", o.Frame))
	}
	for i, use := range o.MarkdownItUses {
		if use.Plugin == nil {
			return wrap(fmt.Errorf("markdownItUses[%d] has no plugin", i), CategoryConfig, "", "invalid markdown plugin")
		}
	}
	return nil
}

// ParseFrame converts a case-insensitive frame name.
func ParseFrame(s string) (Frame, error) {
	f := Frame(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FrameVue, FrameReact:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFrame, s)
}
