package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

// Plugin extends a markdown engine. Options are plugin specific and may be nil.
type Plugin interface {
	Extend(md goldmark.Markdown, options map[string]any) error
}

// PluginFunc adapts a function to Plugin.
type PluginFunc func(md goldmark.Markdown, options map[string]any) error

// Extend calls f.
func (f PluginFunc) Extend(md goldmark.Markdown, options map[string]any) error {
	return f(md, options)
}

// Use registers a plugin with its options.
type Use struct {
	Plugin  Plugin
	Options map[string]any
}

// Extension adapts a goldmark extender that takes no options.
func Extension(ext goldmark.Extender) Plugin {
	return PluginFunc(func(md goldmark.Markdown, _ map[string]any) error {
		ext.Extend(md)
		return nil
	})
}

var registry = map[string]Plugin{
	"gfm":            Extension(extension.GFM),
	"table":          Extension(extension.Table),
	"strikethrough":  Extension(extension.Strikethrough),
	"tasklist":       Extension(extension.TaskList),
	"definitionlist": Extension(extension.DefinitionList),
	"cjk":            Extension(extension.CJK),
	"linkify":        Extension(extension.Linkify),
	"typographer":    Extension(extension.Typographer),
	"footnote":       PluginFunc(footnote),
	"highlight":      PluginFunc(highlight),
}

// Lookup returns the built-in plugin registered under name.
func Lookup(name string) (Plugin, bool) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names lists the built-in plugin names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func footnote(md goldmark.Markdown, options map[string]any) error {
	var opts []extension.FootnoteOption
	prefix, err := stringOption(options, "idPrefix")
	if err != nil {
		return err
	}
	if prefix != "" {
		opts = append(opts, extension.WithFootnoteIDPrefix([]byte(prefix)))
	}
	extension.NewFootnote(opts...).Extend(md)
	return nil
}

func highlight(md goldmark.Markdown, options map[string]any) error {
	var opts []highlighting.Option
	style, err := stringOption(options, "style")
	if err != nil {
		return err
	}
	if style != "" {
		opts = append(opts, highlighting.WithStyle(style))
	}
	guess, err := boolOption(options, "guessLanguage")
	if err != nil {
		return err
	}
	if guess {
		opts = append(opts, highlighting.WithGuessLanguage(true))
	}
	highlighting.NewHighlighting(opts...).Extend(md)
	return nil
}

func stringOption(options map[string]any, key string) (string, error) {
	raw, ok := options[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("option %q must be a string, got %T", key, raw)
	}
	return s, nil
}

func boolOption(options map[string]any, key string) (bool, error) {
	raw, ok := options[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("option %q must be a boolean, got %T", key, raw)
	}
	return b, nil
}
