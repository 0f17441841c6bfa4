package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/panbanda/perfwatch/pkg/history"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHyperfine writes a script that accepts hyperfine's arguments and
// exports a fixed timing per project directory.
func fakeHyperfine(t *testing.T, dir string, timings map[string]float64) string {
	t.Helper()

	var cases strings.Builder
	for project, v := range timings {
		fmt.Fprintf(&cases, "  %s) t=%g ;;\n", project, v)
	}

	script := fmt.Sprintf(`#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --export-json) out="$2"; shift ;;
  esac
  shift
done
case "$(basename "$PWD")" in
%s  *) t=1 ;;
esac
cat > "$out" <<JSON
{"results":[{"command":"dbt parse","mean":$t,"stddev":0.1,"median":$t,"user":0.5,"system":0.1,"min":$t,"max":$t,"times":[$t,$t],"exit_codes":[0,0]}]}
JSON
`, cases.String())

	path := filepath.Join(dir, "hyperfine")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

type env struct {
	root      string
	projects  string
	baselines string
	scratch   string
	history   string
	config    string
	bins      int
}

func newEnv(t *testing.T, projects ...string) *env {
	t.Helper()
	root := t.TempDir()
	e := &env{
		root:      root,
		projects:  filepath.Join(root, "projects"),
		baselines: filepath.Join(root, "baselines"),
		scratch:   filepath.Join(root, "scratch"),
		history:   filepath.Join(root, "history"),
		config:    filepath.Join(root, "perfwatch.toml"),
	}
	for _, p := range projects {
		require.NoError(t, os.MkdirAll(filepath.Join(e.projects, p), 0o755))
	}
	return e
}

// useTimings points the config at a fake hyperfine reporting timings.
func (e *env) useTimings(t *testing.T, timings map[string]float64) {
	t.Helper()
	e.bins++
	binDir := filepath.Join(e.root, "bin", strconv.Itoa(e.bins))
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	bin := fakeHyperfine(t, binDir, timings)

	cfg := fmt.Sprintf(`
[hyperfine]
binary = %q
show_output = false

[output]
progress = false
color = false
`, bin)
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0o644))
}

func (e *env) run(args ...string) (int, string, string) {
	return e.runContext(context.Background(), args...)
}

func (e *env) runContext(ctx context.Context, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"perfwatch", "--config", e.config, "--no-color"}, args...)
	code := run(ctx, full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *env) model(version string) (int, string, string) {
	return e.run("model",
		"-version", version,
		"-projects_dir", e.projects,
		"-baselines_dir", e.baselines,
		"-tmp_dir", filepath.Join(e.scratch, "model"),
		"-n_runs", "3",
	)
}

func (e *env) sample(extra ...string) (int, string, string) {
	args := []string{"sample",
		"-projects_dir", e.projects,
		"-baseline_dir", e.baselines,
		"-out_dir", filepath.Join(e.scratch, "samples"),
	}
	return e.run(append(args, extra...)...)
}

func TestModelThenSample_NoRegression(t *testing.T) {
	e := newEnv(t, "p1", "p2")
	e.useTimings(t, map[string]float64{"p1": 1.0, "p2": 2.0})

	code, stdout, stderr := e.model("1.0.1")
	require.Equal(t, 0, code, stderr)

	var baselines []models.Baseline
	require.NoError(t, json.Unmarshal([]byte(stdout), &baselines), stdout)
	require.Len(t, baselines, 2)
	assert.Equal(t, "p1", baselines[0].Metric.ProjectName)
	assert.Equal(t, models.NewVersion(1, 0, 1), baselines[0].Version)
	assert.FileExists(t, filepath.Join(e.baselines, "1.0.1", "parse___p1.json"))
	assert.FileExists(t, filepath.Join(e.baselines, "1.0.1", "parse___p2.json"))

	code, stdout, stderr = e.sample()
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, ":: All Calculations ::")
	assert.Contains(t, stdout, "congrats! no regressions :)")
	assert.NotContains(t, stdout, ":: Regressions Found ::")
}

func TestSample_Regression(t *testing.T) {
	e := newEnv(t, "p1", "p2")
	e.useTimings(t, map[string]float64{"p1": 1.0, "p2": 1.0})
	code, _, stderr := e.model("1.0.0")
	require.Equal(t, 0, code, stderr)

	// threshold is 1.0 + 3*0.1
	e.useTimings(t, map[string]float64{"p1": 1.0, "p2": 1.5})
	code, stdout, stderr := e.sample()

	assert.Equal(t, 1, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, ":: Regressions Found ::")
	assert.Contains(t, stdout, "REGRESSION")
	assert.NotContains(t, stdout, "congrats")
}

func TestSample_ComparesAgainstLatestVersion(t *testing.T) {
	e := newEnv(t, "p1")
	e.useTimings(t, map[string]float64{"p1": 5.0})
	code, _, stderr := e.model("0.20.0")
	require.Equal(t, 0, code, stderr)

	e.useTimings(t, map[string]float64{"p1": 1.0})
	code, _, stderr = e.model("1.0.9")
	require.Equal(t, 0, code, stderr)

	// 2.0 passes against 0.20.0 but regresses against 1.0.9
	e.useTimings(t, map[string]float64{"p1": 2.0})
	code, stdout, _ := e.run("--format", "json", "sample",
		"-projects_dir", e.projects,
		"-baseline_dir", e.baselines,
		"-out_dir", filepath.Join(e.scratch, "samples"),
	)
	assert.Equal(t, 1, code)

	var result struct {
		Version      models.Version      `json:"version"`
		Fingerprint  string              `json:"fingerprint"`
		Calculations models.Calculations `json:"calculations"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), stdout)
	assert.Equal(t, models.NewVersion(1, 0, 9), result.Version)
	assert.Len(t, result.Fingerprint, 64)
	require.Len(t, result.Calculations, 1)
	assert.True(t, result.Calculations[0].Regression)
}

func TestSample_MissingSampleFails(t *testing.T) {
	e := newEnv(t, "p1", "p2")
	e.useTimings(t, map[string]float64{"p1": 1.0, "p2": 1.0})
	code, _, stderr := e.model("1.0.0")
	require.Equal(t, 0, code, stderr)

	require.NoError(t, os.RemoveAll(filepath.Join(e.projects, "p2")))
	code, _, stderr = e.sample()

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "BaselineMetricNotSampled")
	assert.Contains(t, stderr, "project p2")
}

func TestSample_NoBaselines(t *testing.T) {
	e := newEnv(t, "p1")
	e.useTimings(t, map[string]float64{"p1": 1.0})
	require.NoError(t, os.MkdirAll(e.baselines, 0o755))
	outDir := filepath.Join(e.scratch, "samples")
	marker := filepath.Join(outDir, "marker")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(marker, []byte("keep"), 0o644))

	code, _, stderr := e.sample()
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "NoVersionedBaselineData")

	// baselines load before anything is timed
	assert.FileExists(t, marker)
	assert.NoFileExists(t, filepath.Join(outDir, "parse___p1.json"))
}

func TestSample_NoBaselinesReportedBeforeBenchmarkFailure(t *testing.T) {
	e := newEnv(t, "p1")
	bin := filepath.Join(e.root, "failing-hyperfine")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexit 3\n"), 0o755))
	cfg := fmt.Sprintf("[hyperfine]\nbinary = %q\nshow_output = false\n\n[output]\nprogress = false\n", bin)
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0o644))
	require.NoError(t, os.MkdirAll(e.baselines, 0o755))

	code, _, stderr := e.sample()
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "NoVersionedBaselineData")
	assert.NotContains(t, stderr, "HyperfineNonZeroExitCode")
}

func TestSample_WritesHistory(t *testing.T) {
	e := newEnv(t, "p1")
	e.useTimings(t, map[string]float64{"p1": 1.0})
	code, _, stderr := e.model("1.0.0")
	require.Equal(t, 0, code, stderr)

	code, _, stderr = e.sample("-history_dir", e.history)
	require.Equal(t, 0, code, stderr)
	code, _, stderr = e.sample("-history_dir", e.history)
	require.Equal(t, 0, code, stderr)

	records, err := history.New(e.history).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.NewVersion(1, 0, 0), records[0].Version)
	assert.Empty(t, records[0].Commit, "temp projects dir is not a git repository")
	for _, rec := range records {
		require.NotEmpty(t, rec.Calculations)
		assert.True(t, rec.Timestamp.Equal(rec.Calculations[0].Timestamp),
			"record timestamp %v, calculation timestamp %v", rec.Timestamp, rec.Calculations[0].Timestamp)
	}

	code, stdout, stderr := e.run("--format", "json", "history", "-history_dir", e.history)
	require.Equal(t, 0, code, stderr)
	var trends []history.MetricTrend
	require.NoError(t, json.Unmarshal([]byte(stdout), &trends), stdout)
	require.Len(t, trends, 1)
	assert.Equal(t, 2, trends[0].Runs)
}

func TestHistory_EmptyDirWarns(t *testing.T) {
	e := newEnv(t)
	e.useTimings(t, map[string]float64{})

	code, stdout, stderr := e.run("history", "-history_dir", e.history)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "WARNING: No history records in "+e.history)
}

func TestBaselinesCommand(t *testing.T) {
	e := newEnv(t, "p1")
	e.useTimings(t, map[string]float64{"p1": 1.0})
	for _, v := range []string{"1.0.0", "0.20.0", "1.0.9"} {
		code, _, stderr := e.model(v)
		require.Equal(t, 0, code, stderr)
	}

	code, stdout, stderr := e.run("--format", "json", "baselines", "-baseline_dir", e.baselines)
	require.Equal(t, 0, code, stderr)

	var report baselinesReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report), stdout)
	assert.Equal(t, models.NewVersion(1, 0, 9), report.Latest)
	assert.Equal(t, models.NewVersion(1, 0, 9), report.Selected)
	assert.Equal(t, []models.Version{
		models.NewVersion(0, 20, 0),
		models.NewVersion(1, 0, 0),
		models.NewVersion(1, 0, 9),
	}, report.Versions)
	assert.Len(t, report.Baselines, 1)

	code, stdout, stderr = e.run("--format", "markdown", "baselines", "-baseline_dir", e.baselines, "-version", "0.20.0")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "## Baselines 0.20.0")
}

func TestOutputFileFlag(t *testing.T) {
	e := newEnv(t, "p1")
	e.useTimings(t, map[string]float64{"p1": 1.0})
	code, _, stderr := e.model("1.2.3")
	require.Equal(t, 0, code, stderr)

	report := filepath.Join(e.root, "report.json")
	code, stdout, stderr := e.run("--format", "json", "--output-file", report, "baselines", "-baseline_dir", e.baselines)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var got baselinesReport
	require.NoError(t, json.Unmarshal(data, &got), string(data))
	assert.Equal(t, models.NewVersion(1, 2, 3), got.Selected)

	code, _, stderr = e.run("--output-file", filepath.Join(e.root, "missing", "report.txt"), "baselines", "-baseline_dir", e.baselines)
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestPathFlagsMustBeAbsolute(t *testing.T) {
	e := newEnv(t, "p1")
	e.useTimings(t, map[string]float64{"p1": 1.0})

	code, _, stderr := e.run("sample",
		"-projects_dir", "relative/projects",
		"-baseline_dir", e.baselines,
		"-out_dir", e.scratch,
	)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-projects_dir must be an absolute path")
}

func TestModel_InvalidArguments(t *testing.T) {
	e := newEnv(t, "p1")
	e.useTimings(t, map[string]float64{"p1": 1.0})

	tests := []struct {
		name    string
		version string
		runs    string
		want    string
	}{
		{name: "bad version", version: "1.0", runs: "2", want: "VersionParseFail"},
		{name: "zero runs", version: "1.0.0", runs: "0", want: "-n_runs must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := e.run("model",
				"-version", tt.version,
				"-projects_dir", e.projects,
				"-baselines_dir", e.baselines,
				"-tmp_dir", e.scratch,
				"-n_runs", tt.runs,
			)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestModel_HyperfineFailure(t *testing.T) {
	e := newEnv(t, "p1")
	bin := filepath.Join(e.root, "failing-hyperfine")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexit 3\n"), 0o755))
	cfg := fmt.Sprintf("[hyperfine]\nbinary = %q\nshow_output = false\n\n[output]\nprogress = false\n", bin)
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0o644))

	code, _, stderr := e.model("1.0.0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "non-zero exit code: 3")
	assert.NoDirExists(t, filepath.Join(e.baselines, "1.0.0"))
}

func TestConfigShowAndInit(t *testing.T) {
	e := newEnv(t)
	e.useTimings(t, map[string]float64{})

	code, stdout, stderr := e.run("config", "show")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "# Configuration from: "+e.config)
	assert.Contains(t, stdout, "[[metrics]]")

	code, stdout, stderr = e.run("config", "validate")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Configuration valid")

	out := filepath.Join(e.root, ".perfwatch", "perfwatch.toml")
	code, _, stderr = e.run("init", "-o", out)
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, out)

	code, _, stderr = e.run("init", "-o", out)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	code, _, stderr = e.run("init", "-o", out, "--force")
	assert.Equal(t, 0, code, stderr)
}

func TestGenerateDefaultConfig(t *testing.T) {
	content, err := generateDefaultConfig()
	require.NoError(t, err)
	assert.Contains(t, content, `name = "parse"`)
	assert.Contains(t, content, `prepare = "dbt clean"`)
	assert.Contains(t, content, "[hyperfine]")
}

func TestWatch_SamplesUntilCanceled(t *testing.T) {
	e := newEnv(t, "p1")
	e.useTimings(t, map[string]float64{"p1": 1.0})
	code, _, stderr := e.model("1.0.0")
	require.Equal(t, 0, code, stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(3*time.Second, cancel)

	code, stdout, stderr := e.runContext(ctx, "watch",
		"-projects_dir", e.projects,
		"-baseline_dir", e.baselines,
		"-out_dir", filepath.Join(e.scratch, "samples"),
	)
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "congrats! no regressions :)")
	assert.Contains(t, stdout, "Watching for changes in "+e.projects)
}
