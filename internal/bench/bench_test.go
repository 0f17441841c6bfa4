package bench

import (
	"context"
	"errors"
	"testing"

	"github.com/panbanda/perfwatch/internal/fsutil"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/panbanda/perfwatch/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHyperfineArgs(t *testing.T) {
	tests := []struct {
		name       string
		showOutput bool
		inv        Invocation
		want       []string
	}{
		{
			name:       "sampling with prepare",
			showOutput: true,
			inv: Invocation{
				Command:    "dbt parse --no-version-check",
				Prepare:    "dbt clean",
				Warmup:     1,
				Runs:       2,
				ExportPath: "/tmp/out/parse___proj.json",
			},
			want: []string{
				"--warmup", "1",
				"--min-runs", "2",
				"--max-runs", "2",
				"--prepare", "dbt clean",
				"dbt parse --no-version-check",
				"--export-json", "/tmp/out/parse___proj.json",
				"--show-output",
			},
		},
		{
			name: "no prepare, output hidden",
			inv: Invocation{
				Command:    "make build",
				Warmup:     0,
				Runs:       10,
				ExportPath: "/x/build___p.json",
			},
			want: []string{
				"--warmup", "0",
				"--min-runs", "10",
				"--max-runs", "10",
				"make build",
				"--export-json", "/x/build___p.json",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHyperfine("hyperfine")
			h.ShowOutput = tt.showOutput
			assert.Equal(t, tt.want, h.Args(tt.inv))
		})
	}
}

func TestHyperfineRun_MissingBinary(t *testing.T) {
	h := NewHyperfine("/nonexistent/perfwatch-hyperfine")
	err := h.Run(context.Background(), Invocation{Dir: t.TempDir(), Command: "true", Runs: 1, ExportPath: "x.json"})
	require.Error(t, err)

	var ioErr *fsutil.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, fsutil.CommandErr, ioErr.Kind)
}

func TestHyperfineRun_NonZeroExit(t *testing.T) {
	// "false" ignores its arguments and exits 1, standing in for a failing hyperfine.
	h := NewHyperfine("false")
	err := h.Run(context.Background(), Invocation{Dir: t.TempDir(), Command: "true", Runs: 1, ExportPath: "x.json"})

	var exitErr *NonZeroExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, err.Error(), "non-zero exit code: 1")
}

func TestRunnerFunc(t *testing.T) {
	var got Invocation
	r := RunnerFunc(func(_ context.Context, inv Invocation) error {
		got = inv
		return nil
	})
	require.NoError(t, r.Run(context.Background(), Invocation{Command: "c", Runs: 3}))
	assert.Equal(t, "c", got.Command)
	assert.Equal(t, 3, got.Runs)
}

func TestDecodeExport(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, ms models.Measurements)
	}{
		{
			name: "valid export with extra fields",
			data: `{"results":[{"command":"dbt parse","mean":1.2,"stddev":0.01,"median":1.2,"user":1.0,"system":0.1,"min":1.19,"max":1.21,"times":[1.19,1.21],"exit_codes":[0,0]}]}`,
			check: func(t *testing.T, ms models.Measurements) {
				require.Len(t, ms.Results, 1)
				assert.Equal(t, "dbt parse", ms.Results[0].Command)
				assert.Equal(t, []float64{1.19, 1.21}, ms.Results[0].Times)
			},
		},
		{
			name: "null stddev from a single run",
			data: `{"results":[{"command":"c","mean":1,"stddev":null,"median":1,"user":1,"system":0,"min":1,"max":1,"times":[1]}]}`,
			check: func(t *testing.T, ms models.Measurements) {
				assert.Equal(t, 0.0, ms.Results[0].Stddev)
			},
		},
		{
			name: "empty results decodes",
			data: `{"results":[]}`,
			check: func(t *testing.T, ms models.Measurements) {
				assert.Empty(t, ms.Results)
			},
		},
		{
			name:    "not json",
			data:    `{"results":`,
			wantErr: true,
		},
		{
			name:    "missing results",
			data:    `{"runs":[]}`,
			wantErr: true,
		},
		{
			name:    "mean is a string",
			data:    `{"results":[{"command":"c","mean":"fast","stddev":0,"median":1,"user":1,"system":0,"min":1,"max":1,"times":[1]}]}`,
			wantErr: true,
		},
		{
			name:    "missing times",
			data:    `{"results":[{"command":"c","mean":1,"stddev":0,"median":1,"user":1,"system":0,"min":1,"max":1}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, err := DecodeExport("/out/parse___p.json", []byte(tt.data))
			if tt.wantErr {
				var jsonErr *fsutil.JSONError
				require.True(t, errors.As(err, &jsonErr), "got %v", err)
				assert.Equal(t, "/out/parse___p.json", jsonErr.Path)
				assert.Equal(t, tt.data, jsonErr.Raw)
				return
			}
			require.NoError(t, err)
			tt.check(t, ms)
		})
	}
}

func TestReadExports(t *testing.T) {
	fs := testutil.MemFS()
	testutil.WriteExport(t, fs, "/out/parse___b.json", testutil.Measurement(2, 0.1, 2.0, 2.1))
	testutil.WriteExport(t, fs, "/out/parse___a.json", testutil.Measurement(1, 0.1, 1.0, 1.1))
	testutil.WriteFile(t, fs, "/out/notes.txt", "ignored")

	exports, err := ReadExports(fs, "/out")
	require.NoError(t, err)
	require.Len(t, exports, 2)
	assert.Equal(t, "/out/parse___a.json", exports[0].Path)
	assert.Equal(t, "/out/parse___b.json", exports[1].Path)
	assert.Equal(t, 2.0, exports[1].Value.Results[0].Mean)
}

func TestReadExports_MissingDir(t *testing.T) {
	_, err := ReadExports(testutil.MemFS(), "/missing")

	var ioErr *fsutil.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, fsutil.ReadErr, ioErr.Kind)
}
