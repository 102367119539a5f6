// Package transform turns markdown documents with YAML front-matter into
// component modules for a build host.
//
// A Plugin is built once from Options and then handles every module the host
// loads. Identifiers whose path does not end in ".md" pass through untouched.
package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/mdcomp/mdcomp/emitter"
	"github.com/mdcomp/mdcomp/frontmatter"
	"github.com/mdcomp/mdcomp/internal/logger"
	"github.com/mdcomp/mdcomp/metrics"
	"github.com/mdcomp/mdcomp/renderer"
)

// Option customizes a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger used for warnings and debug traces.
func WithLogger(l *charmlog.Logger) Option {
	return func(p *Plugin) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Plugin) {
		if r != nil {
			p.recorder = r
		}
	}
}

// Plugin converts markdown modules into components. It is safe for concurrent
// use once constructed.
type Plugin struct {
	opts     Options
	renderer *renderer.Renderer
	emitter  emitter.Emitter
	build    atomic.Pointer[emitter.BuildContext]
	logger   *charmlog.Logger
	recorder metrics.Recorder
}

// New validates opts and builds a Plugin for opts.Frame.
func New(opts Options, options ...Option) (*Plugin, error) {
	cfg := opts.clone().applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r, err := renderer.New(cfg.MarkdownItOptions, cfg.MarkdownItUses, cfg.MarkdownItSetup)
	if err != nil {
		return nil, wrap(err, CategoryConfig, "", "configure markdown renderer")
	}

	p := &Plugin{
		opts:     cfg,
		renderer: r,
		logger:   logger.Discard(),
		recorder: metrics.NoopRecorder{},
	}
	switch cfg.Frame {
	case FrameVue:
		p.emitter = emitter.NewVue(emitter.VueConfig{
			Compiler:  cfg.TemplateCompiler,
			Transform: classifyVueTransform(cfg.VueTransforms),
		})
	case FrameReact:
		p.emitter = emitter.NewReact(emitter.ReactConfig{
			Transformer: cfg.JSXTransformer,
			Import:      cfg.ReactTransforms.Import,
			Content:     cfg.ReactTransforms.Content,
		})
	}

	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// NewVue builds a Plugin emitting Vue components regardless of opts.Frame.
func NewVue(opts Options, options ...Option) (*Plugin, error) {
	opts.Frame = FrameVue
	return New(opts, options...)
}

// NewReact builds a Plugin emitting React components regardless of opts.Frame.
func NewReact(opts Options, options ...Option) (*Plugin, error) {
	opts.Frame = FrameReact
	return New(opts, options...)
}

// Frame returns the target framework.
func (p *Plugin) Frame() Frame {
	return p.opts.Frame
}

// ConfigResolved records the host's resolved build settings. Transforms that
// run before it is called behave as a development build.
func (p *Plugin) ConfigResolved(build emitter.BuildContext) {
	p.build.Store(&build)
}

func (p *Plugin) buildContext() emitter.BuildContext {
	if b := p.build.Load(); b != nil {
		return *b
	}
	return emitter.BuildContext{}
}

// Transform returns component source for a markdown module, or raw unchanged
// when id does not name one.
func (p *Plugin) Transform(ctx context.Context, raw, id string) (string, error) {
	res, err := p.TransformDocument(ctx, raw, id)
	if err != nil {
		return "", err
	}
	return res.Code, nil
}

// TransformDocument is Transform with the extracted metadata and any
// warnings attached.
func (p *Plugin) TransformDocument(ctx context.Context, raw, id string) (Result, error) {
	frame := string(p.opts.Frame)
	path := ParseID(id)
	if !strings.HasSuffix(path, ".md") {
		p.recorder.IncTransformResult(frame, metrics.ResultBypassed)
		p.logger.Debug("bypassed", logger.KeyID, id)
		return Result{Code: raw, Bypassed: true}, nil
	}

	if err := ctx.Err(); err != nil {
		p.recorder.IncTransformResult(frame, metrics.ResultCanceled)
		return Result{}, fmt.Errorf("%s: %w", id, err)
	}

	start := time.Now()
	res, err := p.run(ctx, raw, id, path)
	elapsed := time.Since(start)
	p.recorder.ObserveTransformDuration(frame, elapsed)
	if err != nil {
		label := metrics.ResultFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			label = metrics.ResultCanceled
		}
		p.recorder.IncTransformResult(frame, label)
		p.logger.Debug("transform failed", logger.KeyID, id, logger.KeyFrame, frame, logger.KeyError, err)
		return Result{}, err
	}

	p.recorder.IncTransformResult(frame, metrics.ResultSuccess)
	p.logger.Debug("transformed", logger.KeyID, id, logger.KeyFrame, frame, logger.KeyDurationMS, elapsed.Milliseconds())
	return res, nil
}

func (p *Plugin) run(ctx context.Context, raw, id, path string) (Result, error) {
	var res Result

	stage := time.Now()
	doc, err := frontmatter.Extract(raw)
	if err != nil {
		p.logger.Warn("ignoring invalid front-matter", logger.KeyID, id, logger.KeyError, err)
		res.Warnings = append(res.Warnings, Warning{Type: WarningInvalidFrontMatter, Message: err.Error()})
	}
	p.recorder.ObserveStageDuration(metrics.StageExtract, time.Since(stage))
	res.Metadata = doc.Metadata

	body := doc.Body
	if hook := p.opts.Transforms.Before; hook != nil {
		if body, err = hook(ctx, body, id); err != nil {
			return Result{}, wrap(err, CategoryHook, id, "before transform")
		}
	}

	stage = time.Now()
	markup, err := p.renderer.Render(body)
	if err != nil {
		return Result{}, wrap(err, CategoryRender, id, "render markdown")
	}
	p.recorder.ObserveStageDuration(metrics.StageRender, time.Since(stage))

	markup = Wrap(markup, p.opts.WrapperClasses)
	if hook := p.opts.Transforms.After; hook != nil {
		if markup, err = hook(ctx, markup, id); err != nil {
			return Result{}, wrap(err, CategoryHook, id, "after transform")
		}
	}

	stage = time.Now()
	code, err := p.emitter.Emit(ctx, emitter.Input{
		ID:       path,
		Markup:   markup,
		Metadata: doc.Metadata,
		Build:    p.buildContext(),
	})
	if err != nil {
		var classified *Error
		if errors.As(err, &classified) {
			classified.ID = id
			return Result{}, classified
		}
		return Result{}, wrap(err, CategoryEmit, id, fmt.Sprintf("emit %s component", p.opts.Frame))
	}
	p.recorder.ObserveStageDuration(metrics.StageEmit, time.Since(stage))

	res.Code = code
	return res, nil
}

// classifyVueTransform marks failures of the user's Vue hook so they are
// reported as hook errors rather than emit errors.
func classifyVueTransform(hook emitter.VueTransform) emitter.VueTransform {
	if hook == nil {
		return nil
	}
	return func(ctx context.Context, source string) (string, error) {
		out, err := hook(ctx, source)
		if err != nil {
			return "", wrap(err, CategoryHook, "", "vue transform")
		}
		return out, nil
	}
}
