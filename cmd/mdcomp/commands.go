package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/mdcomp/mdcomp/internal/logger"
	"github.com/mdcomp/mdcomp/metrics"
)

// TransformCmd implements the 'transform' command.
type TransformCmd struct {
	File string `arg:"" help:"Markdown file to transform" type:"existingfile"`
}

func (t *TransformCmd) Run(g *Global, root *CLI) error {
	p, err := root.newPlugin(g.Logger, nil)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(t.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", t.File, err)
	}
	out, err := p.Transform(context.Background(), string(raw), t.File)
	if err != nil {
		return err
	}
	_, err = io.WriteString(g.Out, out)
	return err
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Files       []string `arg:"" help:"Markdown files to transform" type:"existingfile"`
	Output      string   `short:"o" help:"Output directory" default:"./dist"`
	Concurrency int      `help:"Maximum number of files transformed at once (0 uses GOMAXPROCS)" default:"0"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	reg := prom.NewRegistry()
	p, err := root.newPlugin(g.Logger, reg)
	if err != nil {
		return err
	}

	targets, err := outputPaths(b.Files, b.Output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(b.Output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	limit := b.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(limit)
	for i, file := range b.Files {
		file := file
		target := targets[i]
		group.Go(func() error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			res, err := p.TransformDocument(ctx, string(raw), file)
			if err != nil {
				return err
			}
			if res.Bypassed {
				g.Logger.Warn("skipping non-markdown file", logger.KeyFile, file)
				return nil
			}
			if err := os.WriteFile(target, []byte(res.Code), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			g.Logger.Debug("wrote component", logger.KeyFile, file, logger.KeyOutput, target)
			return nil
		})
	}
	buildErr := group.Wait()

	totals, err := metrics.Summarize(reg)
	if err != nil {
		g.Logger.Warn("gather metrics", logger.KeyError, err)
	}
	g.Logger.Info("build finished",
		logger.KeyOutput, b.Output,
		logger.KeyCount, totals[metrics.ResultSuccess],
		logger.KeyFailed, totals[metrics.ResultFailed],
		logger.KeySkipped, totals[metrics.ResultBypassed],
		logger.KeyDurationMS, time.Since(start).Milliseconds(),
	)
	return buildErr
}

// outputPaths maps each input file to <dir>/<name>.js and rejects collisions.
func outputPaths(files []string, dir string) ([]string, error) {
	seen := make(map[string]string, len(files))
	targets := make([]string, len(files))
	for i, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		target := filepath.Join(dir, name+".js")
		if prev, ok := seen[target]; ok {
			return nil, fmt.Errorf("%s and %s both write %s", prev, file, target)
		}
		seen[target] = file
		targets[i] = target
	}
	return targets, nil
}
