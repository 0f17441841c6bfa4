// Package pipeline runs the benchmarking tool across every (project, metric)
// pair and turns its exports into samples or baselines.
//
// Both pipelines follow the same steps: reset the scratch directory, invoke
// the benchmark once per pair (sequentially, stopping at the first failure),
// parse every export, emit. Benchmarks never run concurrently.
package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/panbanda/perfwatch/internal/bench"
	"github.com/panbanda/perfwatch/internal/fsutil"
	"github.com/panbanda/perfwatch/pkg/config"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// SampleRuns is the number of timed runs per pair when sampling. Only the
// first timing is kept.
const SampleRuns = 2

// ProgressFunc is called after each benchmark invocation completes.
type ProgressFunc func()

// Pipeline drives the benchmarking tool.
type Pipeline struct {
	runner     bench.Runner
	fs         afero.Fs
	metrics    []config.MetricDef
	warmup     int
	logger     logrus.FieldLogger
	onProgress ProgressFunc
	now        func() time.Time
	pretty     bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner sets the benchmark runner.
func WithRunner(r bench.Runner) Option {
	return func(p *Pipeline) {
		p.runner = r
	}
}

// WithFs sets the filesystem used for projects, scratch and output directories.
func WithFs(fsys afero.Fs) Option {
	return func(p *Pipeline) {
		p.fs = fsys
	}
}

// WithMetrics sets the metric definitions measured on every project.
func WithMetrics(metrics []config.MetricDef) Option {
	return func(p *Pipeline) {
		p.metrics = metrics
	}
}

// WithWarmup sets the number of uncounted warmup runs per invocation.
func WithWarmup(n int) Option {
	return func(p *Pipeline) {
		p.warmup = n
	}
}

// WithLogger sets the logger for per-pair diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithProgress sets a callback invoked after each completed invocation.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.onProgress = fn
	}
}

// WithClock sets the source of the run timestamp.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithPrettyBaselines controls whether modeled baselines are written indented.
func WithPrettyBaselines(pretty bool) Option {
	return func(p *Pipeline) {
		p.pretty = pretty
	}
}

// New creates a pipeline. Without options it runs hyperfine from PATH on the
// OS filesystem with the default metric set.
func New(opts ...Option) *Pipeline {
	cfg := config.DefaultConfig()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	p := &Pipeline{
		runner:  bench.NewHyperfine(cfg.Hyperfine.Binary),
		fs:      fsutil.OS(),
		metrics: cfg.Metrics,
		warmup:  cfg.Hyperfine.Warmup,
		logger:  logger,
		now:     time.Now,
		pretty:  cfg.Baselines.Pretty,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromConfig returns the options matching a loaded configuration.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithMetrics(cfg.Metrics),
		WithWarmup(cfg.Hyperfine.Warmup),
		WithPrettyBaselines(cfg.Baselines.Pretty),
	}
}

// Pair is one project and one metric definition to measure on it.
type Pair struct {
	ProjectDir string
	Metric     models.Metric
	Def        config.MetricDef
}

// Pairs enumerates every project directory under projectsDir, in name
// order, crossed with every metric definition. A project name containing
// models.MetricSeparator cannot round-trip through an export file name and
// fails with MetricParseFail before anything runs.
func Pairs(fsys afero.Fs, projectsDir string, metrics []config.MetricDef) ([]Pair, error) {
	projects, err := fsutil.Dirs(fsys, projectsDir)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		if strings.Contains(project, models.MetricSeparator) {
			return nil, &models.ParseError{Kind: models.MetricParseFail, Input: project}
		}
	}

	pairs := make([]Pair, 0, len(projects)*len(metrics))
	for _, project := range projects {
		for _, def := range metrics {
			pairs = append(pairs, Pair{
				ProjectDir: filepath.Join(projectsDir, project),
				Metric:     models.Metric{Name: def.Name, ProjectName: project},
				Def:        def,
			})
		}
	}
	return pairs, nil
}

// Count returns how many benchmark invocations a run over projectsDir makes.
func (p *Pipeline) Count(projectsDir string) (int, error) {
	pairs, err := Pairs(p.fs, projectsDir, p.metrics)
	if err != nil {
		return 0, err
	}
	return len(pairs), nil
}

// invokeAll resets scratchDir once the pairs are known, then runs the
// benchmark once per pair, writing each export to scratchDir/<metric>.json.
// It stops at the first failure, so no later pair runs and no export is parsed.
func (p *Pipeline) invokeAll(ctx context.Context, projectsDir, scratchDir string, runs int) error {
	pairs, err := Pairs(p.fs, projectsDir, p.metrics)
	if err != nil {
		return err
	}

	if err := fsutil.ResetDir(p.fs, scratchDir); err != nil {
		return err
	}

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return err
		}

		inv := bench.Invocation{
			Dir:        pair.ProjectDir,
			Command:    pair.Def.Command,
			Prepare:    pair.Def.Prepare,
			Warmup:     p.warmup,
			Runs:       runs,
			ExportPath: filepath.Join(scratchDir, pair.Metric.Filename()),
		}

		log := p.logger.WithFields(logrus.Fields{
			"project": pair.Metric.ProjectName,
			"metric":  pair.Metric.Name,
			"runs":    runs,
			"export":  inv.ExportPath,
		})
		log.Debug("benchmarking")

		if err := p.runner.Run(ctx, inv); err != nil {
			log.WithError(err).Debug("benchmark failed")
			return err
		}

		if p.onProgress != nil {
			p.onProgress()
		}
	}
	return nil
}
