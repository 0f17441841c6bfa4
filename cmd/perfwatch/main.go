package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errRegressionsFound fails the process after the regressions have been reported.
var errRegressionsFound = errors.New("regressions found")

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:    "perfwatch",
		Usage:   "Detect performance regressions against modeled baselines",
		Version: version,
		Description: `perfwatch times a fixed set of commands on every project in a directory
with hyperfine. "model" records the timings of a release as baselines; "sample"
times the current code once and fails when any metric is more than three
standard deviations slower than the latest baseline.`,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"PERFWATCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon, yaml",
			},
			&cli.StringFlag{
				Name:  "output-file",
				Usage: "Write the report to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log each benchmark invocation to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			modelCmd(),
			sampleCmd(),
			watchCmd(),
			baselinesCmd(),
			historyCmd(),
			configCmd(),
			initCmd(),
		},
	}
}

// run executes the CLI and returns the process exit code: 0 on success,
// 1 on any error or when regressions were found.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).RunContext(ctx, args)
	if err == nil {
		return 0
	}
	if !errors.Is(err, errRegressionsFound) {
		fmt.Fprintln(stderr, err)
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
