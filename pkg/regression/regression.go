// Package regression compares fresh samples against modeled baselines.
//
// A sample regresses when it exceeds mean + Sigma*stddev of its baseline.
// The test is one-sided: getting faster is never a regression.
package regression

import (
	"context"
	"fmt"

	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/panbanda/perfwatch/pkg/store"
)

// Sigma is the number of standard deviations above the baseline mean a
// sample may reach before it counts as a regression.
const Sigma = 3.0

// MetricNotSampledError is returned when a baselined metric has no sample.
// A missing sample must never read as "no regression".
type MetricNotSampledError struct {
	Metric models.Metric
}

func (e *MetricNotSampledError) Error() string {
	return fmt.Sprintf("BaselineMetricNotSampled: The metric %s on project %s was included in the baseline comparison but was not sampled.",
		e.Metric.Name, e.Metric.ProjectName)
}

// Calculate builds the verdict for one baseline and its sample.
func Calculate(b models.Baseline, s models.Sample) models.Calculation {
	return models.NewCalculation(b, s, Sigma)
}

// Compare produces one calculation per baseline, in baseline order.
// Samples without a baseline are ignored; a baseline without a sample is
// an error. When several samples share a metric the last one wins.
func Compare(baselines []models.Baseline, samples []models.Sample) (models.Calculations, error) {
	byMetric := make(map[models.Metric]models.Sample, len(samples))
	for _, s := range samples {
		byMetric[s.Metric] = s
	}

	calcs := make(models.Calculations, 0, len(baselines))
	for _, b := range baselines {
		s, ok := byMetric[b.Metric]
		if !ok {
			return nil, &MetricNotSampledError{Metric: b.Metric}
		}
		calcs = append(calcs, Calculate(b, s))
	}
	return calcs, nil
}

// Result is the outcome of comparing a sample set against the latest
// baselines in a store.
type Result struct {
	Version      models.Version      `json:"version"`
	Fingerprint  string              `json:"fingerprint"`
	Calculations models.Calculations `json:"calculations"`
}

// Calculator compares samples against the latest version held by a store.
type Calculator struct {
	store *store.Store
}

// NewCalculator creates a calculator backed by st.
func NewCalculator(st *store.Store) *Calculator {
	return &Calculator{store: st}
}

// SampleFunc produces the samples to compare. It runs only after the
// baselines have loaded.
type SampleFunc func(ctx context.Context) ([]models.Sample, error)

// Run resolves the latest version, loads its baselines, then calls sample
// and compares the result. A store without baselines fails before sample
// is called.
func (c *Calculator) Run(ctx context.Context, sample SampleFunc) (*Result, error) {
	version, baselines, err := c.store.LoadLatest(ctx)
	if err != nil {
		return nil, err
	}

	fp, err := c.store.Fingerprint(ctx, version)
	if err != nil {
		return nil, err
	}

	samples, err := sample(ctx)
	if err != nil {
		return nil, err
	}

	calcs, err := Compare(baselines, samples)
	if err != nil {
		return nil, err
	}

	return &Result{
		Version:      version,
		Fingerprint:  fp,
		Calculations: calcs,
	}, nil
}
