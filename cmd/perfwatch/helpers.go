package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/perfwatch/internal/bench"
	"github.com/panbanda/perfwatch/internal/output"
	"github.com/panbanda/perfwatch/internal/progress"
	"github.com/panbanda/perfwatch/pkg/config"
	"github.com/panbanda/perfwatch/pkg/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// loadConfig loads the file named by --config, or searches the standard locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return result.Config, nil
}

// requireAbs fails unless each named flag holds an absolute path.
func requireAbs(c *cli.Context, names ...string) error {
	for _, name := range names {
		value := c.String(name)
		if value == "" {
			return fmt.Errorf("-%s is required", name)
		}
		if !filepath.IsAbs(value) {
			return fmt.Errorf("-%s must be an absolute path (got %q)", name, value)
		}
	}
	return nil
}

// newFormatter picks the --format flag, then the config file, then fallback.
// With --output-file the report goes to that file, uncolored; the caller closes it.
func newFormatter(c *cli.Context, cfg *config.Config, fallback output.Format) (*output.Formatter, error) {
	format := fallback
	switch {
	case c.String("format") != "":
		format = output.ParseFormat(c.String("format"))
	case cfg.Output.Format != "" && cfg.Output.Format != string(output.FormatText):
		format = output.ParseFormat(cfg.Output.Format)
	}
	colored := cfg.Output.Color && !c.Bool("no-color") && !color.NoColor
	if path := c.String("output-file"); path != "" {
		return output.NewFormatter(format, path, colored)
	}
	return output.NewWriterFormatter(format, c.App.Writer, colored), nil
}

func newLogger(c *cli.Context) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(c.App.ErrWriter)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if c.Bool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// newPipeline builds a pipeline that runs hyperfine as configured. The
// benchmarked command's own output goes to stderr so stdout stays parseable.
// The returned tracker is nil when progress is disabled.
func newPipeline(c *cli.Context, cfg *config.Config, label, projectsDir string) (*pipeline.Pipeline, *progress.Tracker, error) {
	logger := newLogger(c)

	hf := bench.NewHyperfine(cfg.Hyperfine.Binary)
	hf.ShowOutput = cfg.Hyperfine.ShowOutput
	hf.Timeout = time.Duration(cfg.Hyperfine.Timeout) * time.Second
	hf.Stdout = c.App.ErrWriter
	hf.Stderr = c.App.ErrWriter
	hf.Logger = logger

	opts := append(pipeline.FromConfig(cfg),
		pipeline.WithRunner(hf),
		pipeline.WithLogger(logger),
	)

	var tracker *progress.Tracker
	if cfg.Output.Progress && !cfg.Hyperfine.ShowOutput && !c.Bool("verbose") {
		total, err := pipeline.New(opts...).Count(projectsDir)
		if err != nil {
			return nil, nil, err
		}
		tracker = progress.NewTrackerWriter(c.App.ErrWriter, label, total)
		opts = append(opts, pipeline.WithProgress(tracker.Tick))
	}

	return pipeline.New(opts...), tracker, nil
}
