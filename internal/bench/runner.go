// Package bench drives the external benchmarking tool (hyperfine) and reads
// its JSON exports.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/panbanda/perfwatch/internal/fsutil"
	"github.com/sirupsen/logrus"
)

// Invocation describes one benchmarking run of a single command.
type Invocation struct {
	Dir        string // working directory of the command
	Command    string
	Prepare    string // run before every timed run, empty for none
	Warmup     int
	Runs       int // exact number of timed runs
	ExportPath string
}

// Runner runs one benchmark and leaves its JSON export at inv.ExportPath.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, inv Invocation) error

// Run calls f(ctx, inv).
func (f RunnerFunc) Run(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}

// NonZeroExitError is returned when the benchmarking tool exits unsuccessfully.
type NonZeroExitError struct {
	Code int
}

func (e *NonZeroExitError) Error() string {
	return fmt.Sprintf("HyperfineNonZeroExitCode: Hyperfine child process exited with non-zero exit code: %d", e.Code)
}

// Hyperfine runs benchmarks with the hyperfine binary.
type Hyperfine struct {
	Binary     string
	ShowOutput bool
	Timeout    time.Duration // per invocation, zero for none
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     logrus.FieldLogger
}

// NewHyperfine creates a runner for the given binary that passes the
// command's output through to the process's stdout and stderr.
func NewHyperfine(binary string) *Hyperfine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Hyperfine{
		Binary:     binary,
		ShowOutput: true,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     logger,
	}
}

// Args returns the hyperfine command line for inv, excluding the binary.
func (h *Hyperfine) Args(inv Invocation) []string {
	runs := strconv.Itoa(inv.Runs)
	args := []string{
		// warms filesystem caches by running the command once without counting it
		"--warmup", strconv.Itoa(inv.Warmup),
		"--min-runs", runs,
		"--max-runs", runs,
	}
	if inv.Prepare != "" {
		args = append(args, "--prepare", inv.Prepare)
	}
	args = append(args, inv.Command, "--export-json", inv.ExportPath)
	if h.ShowOutput {
		args = append(args, "--show-output")
	}
	return args
}

// Run executes hyperfine and waits for it to exit.
func (h *Hyperfine) Run(ctx context.Context, inv Invocation) error {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	args := h.Args(inv)
	cmd := exec.CommandContext(ctx, h.Binary, args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr

	if h.Logger != nil {
		h.Logger.WithFields(logrus.Fields{
			"dir":    inv.Dir,
			"runs":   inv.Runs,
			"export": inv.ExportPath,
			"args":   args,
		}).Debug("running hyperfine")
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return &NonZeroExitError{Code: exitErr.ExitCode()}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &fsutil.IOError{Kind: fsutil.CommandErr, Path: inv.Dir, Err: fmt.Errorf("%s: %w", h.Binary, ctxErr)}
	}
	return &fsutil.IOError{Kind: fsutil.CommandErr, Path: inv.Dir, Err: err}
}
