// Package testutil holds helpers shared by perfwatch tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/spf13/afero"
)

// MemFS creates an in-memory filesystem for testing.
func MemFS() afero.Fs {
	return afero.NewMemMapFs()
}

// WriteFile writes content to a file in the given filesystem.
func WriteFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file in the given filesystem.
func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists in the filesystem.
func FileExists(fs afero.Fs, path string) bool {
	exists, _ := afero.Exists(fs, path)
	return exists
}

// DirExists checks if a directory exists in the filesystem.
func DirExists(fs afero.Fs, path string) bool {
	exists, _ := afero.DirExists(fs, path)
	return exists
}

// MkdirAll creates each directory under root.
func MkdirAll(t *testing.T, fs afero.Fs, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		path := filepath.Join(root, d)
		if err := fs.MkdirAll(path, 0755); err != nil {
			t.Fatalf("MkdirAll(%s) error: %v", path, err)
		}
	}
}

// ListFiles returns all files in a directory recursively.
func ListFiles(t *testing.T, fs afero.Fs, root string) []string {
	t.Helper()
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk(%s) error: %v", root, err)
	}
	return files
}

// Measurement builds a measurement with the given mean, stddev and timings.
func Measurement(mean, stddev float64, times ...float64) models.Measurement {
	m := models.Measurement{
		Command: "dbt parse --no-version-check",
		Mean:    mean,
		Stddev:  stddev,
		Median:  mean,
		Times:   times,
	}
	if len(times) > 0 {
		m.Min, m.Max = times[0], times[0]
		for _, v := range times[1:] {
			m.Min = min(m.Min, v)
			m.Max = max(m.Max, v)
		}
	}
	return m
}

// ExportJSON renders a hyperfine export holding the given results.
func ExportJSON(t *testing.T, results ...models.Measurement) []byte {
	t.Helper()
	if results == nil {
		results = []models.Measurement{}
	}
	for i := range results {
		if results[i].Times == nil {
			results[i].Times = []float64{}
		}
	}
	data, err := json.Marshal(models.Measurements{Results: results})
	if err != nil {
		t.Fatalf("Marshal export error: %v", err)
	}
	return data
}

// WriteExport writes a hyperfine export to path.
func WriteExport(t *testing.T, fs afero.Fs, path string, results ...models.Measurement) {
	t.Helper()
	WriteFile(t, fs, path, string(ExportJSON(t, results...)))
}

// Baseline builds a baseline for name on project at version v.
func Baseline(v models.Version, name, project string, mean, stddev float64) models.Baseline {
	return models.Baseline{
		Version:     v,
		Metric:      models.Metric{Name: name, ProjectName: project},
		Timestamp:   time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC),
		Measurement: Measurement(mean, stddev, mean),
	}
}

// Sample builds a sample for name on project.
func Sample(name, project string, value float64) models.Sample {
	return models.Sample{
		Metric:    models.Metric{Name: name, ProjectName: project},
		Value:     value,
		Timestamp: time.Date(2021, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}
