package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mdcomp/mdcomp/renderer"
	"github.com/mdcomp/mdcomp/transform"
)

// fileConfig is the YAML configuration file layout.
type fileConfig struct {
	Frame          string                    `yaml:"frame"`
	WrapperClasses classList                 `yaml:"wrapperClasses"`
	MarkdownIt     markdownConfig            `yaml:"markdownIt"`
	Plugins        []pluginConfig            `yaml:"plugins"`
	React          transform.ReactTransforms `yaml:"reactTransforms"`
}

// classList accepts either a single class name or a sequence of them.
type classList []string

func (c *classList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*c = classList{single}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}
	if many == nil {
		many = []string{}
	}
	*c = many
	return nil
}

type markdownConfig struct {
	HTML        *bool `yaml:"html"`
	Linkify     *bool `yaml:"linkify"`
	Typographer *bool `yaml:"typographer"`
	XHTMLOut    *bool `yaml:"xhtmlOut"`
	Breaks      *bool `yaml:"breaks"`
}

type pluginConfig struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
}

// loadConfig reads path. An empty path yields the zero configuration.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// overrides holds flag values that take precedence over the file.
type overrides struct {
	Frame          string
	WrapperClasses []string
}

func resolveOptions(cfg fileConfig, o overrides) (transform.Options, error) {
	frameName := cfg.Frame
	if o.Frame != "" {
		frameName = o.Frame
	}
	if frameName == "" {
		frameName = string(transform.FrameVue)
	}
	frame, err := transform.ParseFrame(frameName)
	if err != nil {
		return transform.Options{}, err
	}

	opts := transform.Options{
		Frame: frame,
		MarkdownItOptions: renderer.Options{
			HTML:        cfg.MarkdownIt.HTML,
			Linkify:     cfg.MarkdownIt.Linkify,
			Typographer: cfg.MarkdownIt.Typographer,
			XHTMLOut:    cfg.MarkdownIt.XHTMLOut,
			Breaks:      cfg.MarkdownIt.Breaks,
		},
		WrapperClasses:  cfg.WrapperClasses,
		ReactTransforms: cfg.React,
	}
	if o.WrapperClasses != nil {
		opts.WrapperClasses = o.WrapperClasses
	}

	for _, pc := range cfg.Plugins {
		plugin, ok := renderer.Lookup(pc.Name)
		if !ok {
			return transform.Options{}, fmt.Errorf("unknown markdown plugin %q (allowed: %s)", pc.Name, strings.Join(renderer.Names(), ", "))
		}
		opts.MarkdownItUses = append(opts.MarkdownItUses, renderer.Use{Plugin: plugin, Options: pc.Options})
	}
	return opts, nil
}
