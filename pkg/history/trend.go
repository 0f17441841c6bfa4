package history

import (
	"cmp"
	"math"
	"slices"

	"github.com/panbanda/perfwatch/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// MetricTrend summarizes the samples recorded for one metric across runs.
type MetricTrend struct {
	Metric      models.Metric `json:"metric"`
	Runs        int           `json:"runs"`
	Regressions int           `json:"regressions"`
	Latest      float64       `json:"latest"`
	Mean        float64       `json:"mean"`
	Stddev      float64       `json:"stddev"`
	Slope       float64       `json:"slope"`     // seconds per run
	RSquared    float64       `json:"r_squared"` // goodness of fit (0-1)
}

// Summarize groups calculations by metric across records, in record order,
// and fits a line through each metric's sample values over run index.
// Trends are ordered by metric.
func Summarize(records []Record) []MetricTrend {
	values := make(map[models.Metric][]float64)
	regressions := make(map[models.Metric]int)

	for _, rec := range records {
		for _, c := range rec.Calculations {
			values[c.Metric] = append(values[c.Metric], c.Sample)
			if c.Regression {
				regressions[c.Metric]++
			}
		}
	}

	trends := make([]MetricTrend, 0, len(values))
	for metric, ys := range values {
		t := MetricTrend{
			Metric:      metric,
			Runs:        len(ys),
			Regressions: regressions[metric],
			Latest:      ys[len(ys)-1],
		}
		t.Mean, t.Stddev = stat.MeanStdDev(ys, nil)
		if math.IsNaN(t.Stddev) {
			t.Stddev = 0
		}
		t.Slope, t.RSquared = fit(ys)
		trends = append(trends, t)
	}

	slices.SortFunc(trends, func(a, b MetricTrend) int {
		return cmp.Compare(a.Metric.String(), b.Metric.String())
	})
	return trends
}

// fit returns the least-squares slope and R² of ys over 0..n-1.
// Fewer than 2 points have no trend.
func fit(ys []float64) (slope, rSquared float64) {
	n := len(ys)
	if n < 2 {
		return 0, 0
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	rSquared = stat.RSquared(xs, ys, nil, intercept, slope)
	if math.IsNaN(rSquared) {
		// constant series: the fit is exact but R² is undefined
		rSquared = 0
	}
	return slope, rSquared
}
