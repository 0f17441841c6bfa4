package models

import "time"

// Calculation is the regression verdict for one baselined metric.
type Calculation struct {
	Version    Version   `json:"version"`
	Metric     Metric    `json:"metric"`
	Regression bool      `json:"regression"`
	Timestamp  time.Time `json:"ts"`
	Sigma      float64   `json:"sigma"`
	Mean       float64   `json:"mean"`
	Stddev     float64   `json:"stddev"`
	Threshold  float64   `json:"threshold"`
	Sample     float64   `json:"sample"`
}

// NewCalculation compares a sample to its baseline with a one-sided
// threshold of mean + sigma*stddev. It does not check that the metrics match.
func NewCalculation(b Baseline, s Sample, sigma float64) Calculation {
	model := b.Measurement
	threshold := model.Mean + sigma*model.Stddev

	return Calculation{
		Version:    b.Version,
		Metric:     b.Metric,
		Regression: s.Value > threshold,
		Timestamp:  s.Timestamp,
		Sigma:      sigma,
		Mean:       model.Mean,
		Stddev:     model.Stddev,
		Threshold:  threshold,
		Sample:     s.Value,
	}
}

// Calculations is an ordered set of verdicts from one run.
type Calculations []Calculation

// Regressions returns only the calculations that regressed, preserving order.
func (cs Calculations) Regressions() Calculations {
	var out Calculations
	for _, c := range cs {
		if c.Regression {
			out = append(out, c)
		}
	}
	return out
}

// HasRegression reports whether any calculation regressed.
func (cs Calculations) HasRegression() bool {
	for _, c := range cs {
		if c.Regression {
			return true
		}
	}
	return false
}
