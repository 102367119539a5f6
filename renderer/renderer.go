// Package renderer turns markdown content into HTML markup with a configurable
// goldmark engine.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmrenderer "github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// SetupFunc receives the constructed engine for further configuration.
type SetupFunc func(md goldmark.Markdown)

// Renderer renders markdown bodies with a fixed configuration.
type Renderer struct {
	options Options
	md      goldmark.Markdown
}

// New builds the engine from opts, applies uses in order and finally calls setup.
func New(opts Options, uses []Use, setup SetupFunc) (*Renderer, error) {
	resolved, err := opts.applyDefaults()
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		goldmark.WithParserOptions(parserOptions(resolved)...),
		goldmark.WithRendererOptions(rendererOptions(resolved)...),
	)
	if enabled(resolved.Linkify) {
		extension.Linkify.Extend(md)
	}
	if enabled(resolved.Typographer) {
		extension.Typographer.Extend(md)
	}

	for i, use := range uses {
		if use.Plugin == nil {
			return nil, fmt.Errorf("markdown use #%d: plugin is nil", i)
		}
		if err := use.Plugin.Extend(md, use.Options); err != nil {
			return nil, fmt.Errorf("markdown use #%d: %w", i, err)
		}
	}

	if setup != nil {
		setup(md)
	}

	return &Renderer{options: resolved, md: md}, nil
}

// Render converts body to HTML.
func (r *Renderer) Render(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Options returns the effective options after defaults were applied.
func (r *Renderer) Options() Options {
	return r.options.clone()
}

// Markdown exposes the underlying engine.
func (r *Renderer) Markdown() goldmark.Markdown {
	return r.md
}

func parserOptions(opts Options) []parser.Option {
	out := []parser.Option{}
	return append(out, opts.ParserOptions...)
}

func rendererOptions(opts Options) []gmrenderer.Option {
	var out []gmrenderer.Option
	if enabled(opts.HTML) {
		out = append(out, html.WithUnsafe())
	}
	if enabled(opts.XHTMLOut) {
		out = append(out, html.WithXHTML())
	}
	if enabled(opts.Breaks) {
		out = append(out, html.WithHardWraps())
	}
	return append(out, opts.RendererOptions...)
}
