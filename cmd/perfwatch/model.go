package main

import (
	"fmt"

	"github.com/panbanda/perfwatch/internal/output"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/panbanda/perfwatch/pkg/pipeline"
	"github.com/urfave/cli/v2"
)

func modelCmd() *cli.Command {
	return &cli.Command{
		Name:  "model",
		Usage: "Benchmark every project and record the results as baselines for a release",
		Description: `Runs each configured metric n_runs times on every project under
projects_dir and writes one baseline per (metric, project) to
<baselines_dir>/<version>/<metric>___<project>.json, replacing any existing file.

Example:
  perfwatch model -version 1.0.9 -projects_dir /work/projects \
    -baselines_dir /work/baselines -tmp_dir /tmp/perfwatch -n_runs 20`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "version", Usage: "Release version of the baselines (major.minor.patch)", Required: true},
			&cli.StringFlag{Name: "projects_dir", Usage: "Absolute path to the directory of projects to benchmark", Required: true},
			&cli.StringFlag{Name: "baselines_dir", Usage: "Absolute path to the baseline root", Required: true},
			&cli.StringFlag{Name: "tmp_dir", Usage: "Absolute path to scratch space; deleted and recreated", Required: true},
			&cli.IntFlag{Name: "n_runs", Usage: "Timed runs per metric", Required: true},
		},
		Action: runModel,
	}
}

func runModel(c *cli.Context) error {
	v, err := models.ParseVersion(c.String("version"))
	if err != nil {
		return err
	}
	if err := requireAbs(c, "projects_dir", "baselines_dir", "tmp_dir"); err != nil {
		return err
	}
	runs := c.Int("n_runs")
	if runs < 1 {
		return fmt.Errorf("-n_runs must be a positive integer (got %d)", runs)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	p, tracker, err := newPipeline(c, cfg, "Modeling", c.String("projects_dir"))
	if err != nil {
		return err
	}

	baselines, err := p.Model(c.Context, pipeline.ModelRequest{
		Version:     v,
		ProjectsDir: c.String("projects_dir"),
		OutputRoot:  c.String("baselines_dir"),
		TmpDir:      c.String("tmp_dir"),
		Runs:        runs,
	})
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.FinishSuccess()

	formatter, err := newFormatter(c, cfg, output.FormatJSON)
	if err != nil {
		return err
	}
	defer formatter.Close()
	if !formatter.Structured() {
		formatter.Info(":: Modeling Results ::")
	}
	return formatter.Output(&output.BaselinesView{
		Title:     "Baselines " + v.String(),
		Baselines: baselines,
	})
}
