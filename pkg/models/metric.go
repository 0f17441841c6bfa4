package models

import (
	"path/filepath"
	"strings"

	"github.com/panbanda/perfwatch/internal/fsutil"
)

// MetricSeparator joins the metric name and project name in a metric's
// canonical textual form. Neither field may contain it.
const MetricSeparator = "___"

// Metric identifies one measured operation on one project.
// Metric values are comparable and are used directly as map keys.
type Metric struct {
	Name        string `json:"name"`
	ProjectName string `json:"project_name"`
}

// String returns the canonical "<name>___<project>" form.
func (m Metric) String() string {
	return m.Name + MetricSeparator + m.ProjectName
}

// Filename returns the file name a metric is stored under, e.g. "parse___my_project.json".
func (m Metric) Filename() string {
	return m.String() + ".json"
}

// ParseMetric decodes the canonical textual form produced by String.
// The input must not carry a file extension.
func ParseMetric(s string) (Metric, error) {
	parts := strings.Split(s, MetricSeparator)
	if len(parts) != 2 {
		return Metric{}, &ParseError{Kind: MetricParseFail, Input: s}
	}
	return Metric{Name: parts[0], ProjectName: parts[1]}, nil
}

// MetricFromPath decodes the metric encoded in a file's stem.
// "/out/parse___proj.json" yields {parse, proj}.
func MetricFromPath(path string) (Metric, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return Metric{}, &fsutil.IOError{Kind: fsutil.BadFilestem, Path: path}
	}
	return ParseMetric(stem)
}
