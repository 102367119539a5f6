// Command mdcomp converts markdown documents into Vue or React component
// modules outside of a bundler.
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/mdcomp/mdcomp/emitter"
	"github.com/mdcomp/mdcomp/internal/logger"
	"github.com/mdcomp/mdcomp/metrics"
	"github.com/mdcomp/mdcomp/transform"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *charmlog.Logger
	Out    io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config       string   `short:"c" help:"Configuration file path" type:"path"`
	Frame        string   `short:"f" help:"Target framework (vue|react); overrides the config file"`
	Production   bool     `short:"p" help:"Build for production (omits hot-reload ids)"`
	WrapperClass []string `name:"wrapper-class" help:"Class for the wrapper div; repeatable, overrides the config file"`
	NoWrapper    bool     `name:"no-wrapper" help:"Do not wrap rendered markup"`
	LogLevel     string   `name:"log-level" help:"Log level (debug|info|warn|error)" default:"info"`
	LogJSON      bool     `name:"log-json" help:"Emit logs as JSON"`

	Transform TransformCmd `cmd:"" help:"Transform one markdown file and print the component source"`
	Build     BuildCmd     `cmd:"" help:"Transform markdown files into an output directory"`
}

func (c *CLI) newLogger(w io.Writer) *charmlog.Logger {
	return logger.New(&logger.Config{
		Level:      logger.LogLevel(c.LogLevel),
		Output:     w,
		JSON:       c.LogJSON,
		TimeFormat: logger.DefaultConfig().TimeFormat,
	})
}

// newPlugin builds a Plugin from the config file and flags. Metrics are
// registered with reg when it is non-nil.
func (c *CLI) newPlugin(log *charmlog.Logger, reg *prom.Registry) (*transform.Plugin, error) {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return nil, err
	}

	o := overrides{Frame: c.Frame, WrapperClasses: c.WrapperClass}
	if c.NoWrapper {
		o.WrapperClasses = []string{}
	}
	opts, err := resolveOptions(cfg, o)
	if err != nil {
		return nil, err
	}

	options := []transform.Option{transform.WithLogger(log)}
	if reg != nil {
		options = append(options, transform.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	}
	p, err := transform.New(opts, options...)
	if err != nil {
		return nil, err
	}
	p.ConfigResolved(emitter.BuildContext{Production: c.Production})
	return p, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("mdcomp"),
		kong.Description("Compile markdown with YAML front-matter into Vue or React components."),
		kong.UsageOnError(),
	)

	global := &Global{Logger: cli.newLogger(os.Stderr), Out: os.Stdout}
	if err := ctx.Run(global, &cli); err != nil {
		global.Logger.Error("command failed", logger.KeyError, err)
		os.Exit(1)
	}
}
