package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/panbanda/perfwatch/internal/output"
	"github.com/panbanda/perfwatch/pkg/config"
	"github.com/panbanda/perfwatch/pkg/watch"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Sample again whenever files under projects_dir change",
		Description: `Samples once, then watches projects_dir and samples again each time the
tree has been quiet for watch.debounce milliseconds. Directories named in
watch.exclude_dirs (dbt's target and logs by default) are not watched, so the
benchmarked commands do not retrigger themselves. Regressions are reported but
do not stop the watch. Press Ctrl+C to stop.

Example:
  perfwatch watch -projects_dir /work/projects -baseline_dir /work/baselines \
    -out_dir /tmp/perfwatch-samples`,
		Flags:  sampleFlags(),
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	if err := checkSampleFlags(c); err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := newLogger(c)
	projectsDir := c.String("projects_dir")
	w, err := watch.NewWatcher(projectsDir,
		watch.WithDebounce(time.Duration(cfg.Watch.Debounce)*time.Millisecond),
		watch.WithExcludeDirs(cfg.Watch.ExcludeDirs...),
		watch.WithIgnorePaths(c.String("out_dir"), c.String("baseline_dir"), c.String("history_dir")),
		watch.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer w.Stop()

	formatter, err := newFormatter(c, cfg, output.FormatText)
	if err != nil {
		return err
	}
	defer formatter.Close()
	w.SetCallback(func(_ context.Context, changed []string) {
		rel := make([]string, len(changed))
		for i, p := range changed {
			if r, err := filepath.Rel(projectsDir, p); err == nil {
				rel[i] = r
			} else {
				rel[i] = p
			}
		}
		logger.WithFields(logrus.Fields{"count": len(rel)}).Debug("project tree changed")
		if !formatter.Structured() {
			formatter.Info("Changed: %s", strings.Join(rel, ", "))
		}
		watchPass(c, cfg, formatter, logger)
	})

	watchPass(c, cfg, formatter, logger)
	if !formatter.Structured() {
		formatter.Info("Watching for changes in %s... Press Ctrl+C to stop", projectsDir)
	}

	if err := w.Start(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchPass samples once and reports. Failures are shown and the watch goes on.
func watchPass(c *cli.Context, cfg *config.Config, formatter *output.Formatter, logger logrus.FieldLogger) {
	result, err := sampleOnce(c, cfg)
	if err == nil {
		err = reportResult(formatter, result)
	}
	if err == nil || c.Context.Err() != nil {
		return
	}
	if formatter.Structured() {
		logger.WithError(err).Error("sample failed")
		return
	}
	formatter.Error("sample failed: %v", err)
}
