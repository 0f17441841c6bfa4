package models

import "time"

// Measurement is one statistical summary of repeated timings of a single
// command, as exported by hyperfine. Field names match its JSON export.
type Measurement struct {
	Command string    `json:"command"`
	Mean    float64   `json:"mean"`
	Stddev  float64   `json:"stddev"`
	Median  float64   `json:"median"`
	User    float64   `json:"user"`
	System  float64   `json:"system"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Times   []float64 `json:"times"`
}

// Measurements is the top-level hyperfine export document.
type Measurements struct {
	Results []Measurement `json:"results"`
}

// First returns the measurement of record for an export. Only the first
// result is consulted; an export without results is malformed.
func (m Measurements) First(path string) (Measurement, error) {
	if len(m.Results) == 0 {
		return Measurement{}, &MalformedMeasurementError{
			Path:   path,
			Field:  "results",
			Count:  0,
			Reason: "benchmark output contains no results",
		}
	}
	return m.Results[0], nil
}

// Baseline is the modeled reference point for one metric at one version.
// Baselines are written once and never mutated.
type Baseline struct {
	Version     Version     `json:"version"`
	Metric      Metric      `json:"metric"`
	Timestamp   time.Time   `json:"ts"`
	Measurement Measurement `json:"measurement"`
}

// Less orders baselines by version only.
func (b Baseline) Less(o Baseline) bool {
	return b.Version.Less(o.Version)
}

// BaselineFromMeasurements builds the baseline recorded in a hyperfine
// export. The metric is decoded from the export's file name.
func BaselineFromMeasurements(version Version, path string, ms Measurements, ts time.Time) (Baseline, error) {
	metric, err := MetricFromPath(path)
	if err != nil {
		return Baseline{}, err
	}
	m, err := ms.First(path)
	if err != nil {
		return Baseline{}, err
	}
	return Baseline{
		Version:     version,
		Metric:      metric,
		Timestamp:   ts,
		Measurement: m,
	}, nil
}
