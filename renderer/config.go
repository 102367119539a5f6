package renderer

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/yuin/goldmark/parser"
	gmrenderer "github.com/yuin/goldmark/renderer"
)

// Options configures the markdown renderer. Nil flags fall back to the defaults.
type Options struct {
	HTML        *bool `json:"html,omitempty"`        // Allow raw HTML in the source.
	Linkify     *bool `json:"linkify,omitempty"`     // Turn bare URLs into links.
	Typographer *bool `json:"typographer,omitempty"` // Smart quotes, dashes and ellipses.
	XHTMLOut    *bool `json:"xhtmlOut,omitempty"`    // Close void elements XHTML style (`<br />`).
	Breaks      *bool `json:"breaks,omitempty"`      // Render soft line breaks as `<br>`.

	// Engine-specific overrides, applied after the options above.
	ParserOptions   []parser.Option     `json:"-"`
	RendererOptions []gmrenderer.Option `json:"-"`
}

// Bool returns a pointer to v, for use in Options literals.
func Bool(v bool) *bool {
	return &v
}

func defaultOptions() Options {
	return Options{
		HTML:        Bool(true),
		Linkify:     Bool(true),
		Typographer: Bool(true),
		XHTMLOut:    Bool(false),
		Breaks:      Bool(false),
	}
}

// applyDefaults merges the receiver over the defaults; values set by the caller win.
func (o Options) applyDefaults() (Options, error) {
	merged := o.clone()
	// Pointers are compared, not their targets, so an explicit false survives.
	if err := mergo.Merge(&merged, defaultOptions(), mergo.WithoutDereference); err != nil {
		return Options{}, fmt.Errorf("merge renderer options: %w", err)
	}
	return merged, nil
}

func (o Options) clone() Options {
	cloned := Options{
		HTML:        cloneBool(o.HTML),
		Linkify:     cloneBool(o.Linkify),
		Typographer: cloneBool(o.Typographer),
		XHTMLOut:    cloneBool(o.XHTMLOut),
		Breaks:      cloneBool(o.Breaks),
	}
	if o.ParserOptions != nil {
		cloned.ParserOptions = append([]parser.Option(nil), o.ParserOptions...)
	}
	if o.RendererOptions != nil {
		cloned.RendererOptions = append([]gmrenderer.Option(nil), o.RendererOptions...)
	}
	return cloned
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	return Bool(*v)
}

func enabled(v *bool) bool {
	return v != nil && *v
}
