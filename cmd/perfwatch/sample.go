package main

import (
	"context"
	"time"

	"github.com/panbanda/perfwatch/internal/output"
	"github.com/panbanda/perfwatch/internal/vcs"
	"github.com/panbanda/perfwatch/pkg/config"
	"github.com/panbanda/perfwatch/pkg/history"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/panbanda/perfwatch/pkg/regression"
	"github.com/panbanda/perfwatch/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func sampleCmd() *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: "Time the current code once and compare it to the latest baselines",
		Description: `Runs each configured metric twice on every project under projects_dir,
keeps the first timing, and compares it to the latest version under
baseline_dir. Exits 1 when any metric regressed.

Example:
  perfwatch sample -projects_dir /work/projects -baseline_dir /work/baselines \
    -out_dir /tmp/perfwatch-samples -history_dir /work/history`,
		Flags:  sampleFlags(),
		Action: runSample,
	}
}

func sampleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "projects_dir", Usage: "Absolute path to the directory of projects to benchmark", Required: true},
		&cli.StringFlag{Name: "baseline_dir", Usage: "Absolute path to the baseline root", Required: true},
		&cli.StringFlag{Name: "out_dir", Usage: "Absolute path to scratch space for samples; deleted and recreated", Required: true},
		&cli.StringFlag{Name: "history_dir", Usage: "Absolute path to append a record of this run to"},
	}
}

func runSample(c *cli.Context) error {
	if err := checkSampleFlags(c); err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	result, err := sampleOnce(c, cfg)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg, output.FormatText)
	if err != nil {
		return err
	}
	defer formatter.Close()
	if err := reportResult(formatter, result); err != nil {
		return err
	}
	if result.Calculations.HasRegression() {
		return errRegressionsFound
	}
	return nil
}

// checkSampleFlags validates the path flags shared by sample and watch.
func checkSampleFlags(c *cli.Context) error {
	if err := requireAbs(c, "projects_dir", "baseline_dir", "out_dir"); err != nil {
		return err
	}
	if c.String("history_dir") != "" {
		return requireAbs(c, "history_dir")
	}
	return nil
}

// sampleOnce loads the latest baselines, times every project, compares, and
// appends to history when history_dir is set. Nothing is timed and out_dir
// is left alone when the baselines cannot be loaded.
func sampleOnce(c *cli.Context, cfg *config.Config) (*regression.Result, error) {
	p, tracker, err := newPipeline(c, cfg, "Sampling", c.String("projects_dir"))
	if err != nil {
		return nil, err
	}

	st := store.New(c.String("baseline_dir"), store.WithPretty(cfg.Baselines.Pretty))
	result, err := regression.NewCalculator(st).Run(c.Context, func(ctx context.Context) ([]models.Sample, error) {
		samples, err := p.Sample(ctx, c.String("projects_dir"), c.String("out_dir"))
		if err != nil {
			tracker.FinishError(err)
			return nil, err
		}
		tracker.FinishSuccess()
		return samples, nil
	})
	if err != nil {
		return nil, err
	}

	if dir := c.String("history_dir"); dir != "" {
		if err := appendHistory(c, dir, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// reportResult prints every calculation, then either the regressions or a
// success line. Structured formats get the result as one document.
func reportResult(formatter *output.Formatter, result *regression.Result) error {
	if formatter.Structured() {
		return formatter.Output(result)
	}

	calcs := result.Calculations
	if err := formatter.Output(&output.CalculationsView{Title: ":: All Calculations ::", Calculations: calcs}); err != nil {
		return err
	}
	if calcs.HasRegression() {
		formatter.Error(":: Regressions Found ::")
		return formatter.Output(&output.CalculationsView{Calculations: calcs.Regressions()})
	}
	formatter.Success("congrats! no regressions :)")
	return nil
}

// appendHistory records the run under the timestamp its samples were taken
// at. The commit is left empty when projects_dir is not inside a git repository.
func appendHistory(c *cli.Context, dir string, result *regression.Result) error {
	rec := history.Record{
		Timestamp:    runTimestamp(result),
		Version:      result.Version,
		Fingerprint:  result.Fingerprint,
		Calculations: result.Calculations,
	}

	logger := newLogger(c)
	short := ""
	if rev, err := vcs.CurrentRevision(c.String("projects_dir")); err != nil {
		logger.WithError(err).Debug("no git revision for history record")
	} else {
		rec.Commit = rev.Hash
		rec.Dirty = rev.Dirty
		short = rev.Short()
	}

	path, err := history.New(dir).Append(c.Context, rec)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"path": path, "commit": short, "dirty": rec.Dirty}).Debug("history record written")
	return nil
}

// runTimestamp is the shared timestamp of a run's calculations.
func runTimestamp(result *regression.Result) time.Time {
	if len(result.Calculations) == 0 {
		return time.Now().UTC()
	}
	return result.Calculations[0].Timestamp
}
