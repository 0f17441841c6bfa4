package models

import "time"

// Sample is one fresh timing of a metric, taken on the code under test.
type Sample struct {
	Metric    Metric    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"ts"`
}

// SampleFromMeasurement converts a hyperfine measurement into a Sample.
//
// Sampling runs the command twice and keeps the first timing, so a
// measurement must carry exactly one or two timings. The metric is decoded
// from the export's file name.
func SampleFromMeasurement(path string, m Measurement, ts time.Time) (Sample, error) {
	metric, err := MetricFromPath(path)
	if err != nil {
		return Sample{}, err
	}

	switch len(m.Times) {
	case 1, 2:
		return Sample{Metric: metric, Value: m.Times[0], Timestamp: ts}, nil
	case 0:
		return Sample{}, &MalformedMeasurementError{
			Path:   path,
			Field:  "times",
			Count:  0,
			Reason: "found a sample with no measurement",
		}
	default:
		return Sample{}, &MalformedMeasurementError{
			Path:   path,
			Field:  "times",
			Count:  len(m.Times),
			Reason: "found a sample with too many measurements",
		}
	}
}
