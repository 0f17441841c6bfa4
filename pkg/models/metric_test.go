package models

import (
	"errors"
	"testing"

	"github.com/panbanda/perfwatch/internal/fsutil"
)

func TestMetricString(t *testing.T) {
	m := Metric{Name: "parse", ProjectName: "my_project"}
	if got := m.String(); got != "parse___my_project" {
		t.Errorf("String() = %q", got)
	}
	if got := m.Filename(); got != "parse___my_project.json" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		input   string
		want    Metric
		wantErr bool
	}{
		{input: "parse___my_project", want: Metric{Name: "parse", ProjectName: "my_project"}},
		{input: "a_b___c_d", want: Metric{Name: "a_b", ProjectName: "c_d"}},
		{input: "___", want: Metric{}},
		{input: "parse", wantErr: true},
		{input: "parse___a___b", wantErr: true},
		{input: "parse__proj", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMetric(tt.input)
			if tt.wantErr {
				var pe *ParseError
				if !errors.As(err, &pe) || pe.Kind != MetricParseFail {
					t.Fatalf("ParseMetric(%q) error = %v, want MetricParseFail", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMetric(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMetric(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("round trip = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestMetricFromPath(t *testing.T) {
	m, err := MetricFromPath("/out/parse___proj.json")
	if err != nil {
		t.Fatal(err)
	}
	if m != (Metric{Name: "parse", ProjectName: "proj"}) {
		t.Errorf("MetricFromPath = %+v", m)
	}

	// Only the last extension is stripped.
	m, err = MetricFromPath("/out/parse___proj.json.bak")
	if err != nil {
		t.Fatal(err)
	}
	if m.ProjectName != "proj.json" {
		t.Errorf("ProjectName = %q, want proj.json", m.ProjectName)
	}

	_, err = MetricFromPath("/out/parse.json")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %v", err)
	}

	_, err = MetricFromPath("/")
	var ioe *fsutil.IOError
	if !errors.As(err, &ioe) || ioe.Kind != fsutil.BadFilestem {
		t.Errorf("expected BadFilestem, got %v", err)
	}
}

func TestMetricAsMapKey(t *testing.T) {
	seen := map[Metric]int{}
	seen[Metric{Name: "parse", ProjectName: "a"}]++
	seen[Metric{Name: "parse", ProjectName: "a"}]++
	seen[Metric{Name: "parse", ProjectName: "b"}]++
	if len(seen) != 2 || seen[Metric{Name: "parse", ProjectName: "a"}] != 2 {
		t.Errorf("unexpected map contents: %v", seen)
	}
}
