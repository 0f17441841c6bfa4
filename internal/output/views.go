package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/panbanda/perfwatch/pkg/history"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/panbanda/perfwatch/pkg/store"
)

func seconds(v float64) string {
	return fmt.Sprintf("%.4fs", v)
}

// CalculationsView renders regression verdicts.
type CalculationsView struct {
	Title        string
	Calculations models.Calculations
}

func (v *CalculationsView) table(colored bool) *Table {
	headers := []string{"Metric", "Project", "Version", "Mean", "Stddev", "Threshold", "Sample", "Result"}
	rows := make([][]string, 0, len(v.Calculations))
	for _, c := range v.Calculations {
		result := "ok"
		if c.Regression {
			result = "REGRESSION"
		}
		if colored {
			result = Verdict(c.Regression, result)
		}
		rows = append(rows, []string{
			c.Metric.Name,
			c.Metric.ProjectName,
			c.Version.String(),
			seconds(c.Mean),
			seconds(c.Stddev),
			seconds(c.Threshold),
			seconds(c.Sample),
			result,
		})
	}
	footer := []string{"", "", "", "", "", "", "Regressions", strconv.Itoa(len(v.Calculations.Regressions()))}
	return NewTable(v.Title, headers, rows, footer, nil)
}

func (v *CalculationsView) RenderText(w io.Writer, colored bool) error {
	return v.table(colored).RenderText(w, colored)
}

func (v *CalculationsView) RenderMarkdown(w io.Writer) error {
	return v.table(false).RenderMarkdown(w)
}

func (v *CalculationsView) RenderData() any {
	if v.Calculations == nil {
		return models.Calculations{}
	}
	return v.Calculations
}

// BaselinesView renders the modeled baselines of one version.
type BaselinesView struct {
	Title       string
	Baselines   []models.Baseline
	Fingerprint string // empty when unknown
}

func (v *BaselinesView) table() *Table {
	headers := []string{"Metric", "Project", "Version", "Mean", "Stddev", "Min", "Max", "Runs"}
	rows := make([][]string, 0, len(v.Baselines))
	for _, b := range v.Baselines {
		m := b.Measurement
		rows = append(rows, []string{
			b.Metric.Name,
			b.Metric.ProjectName,
			b.Version.String(),
			seconds(m.Mean),
			seconds(m.Stddev),
			seconds(m.Min),
			seconds(m.Max),
			strconv.Itoa(len(m.Times)),
		})
	}
	var footer []string
	if v.Fingerprint != "" {
		footer = []string{"Fingerprint", store.ShortFingerprint(v.Fingerprint), "", "", "", "", "", ""}
	}
	return NewTable(v.Title, headers, rows, footer, nil)
}

func (v *BaselinesView) RenderText(w io.Writer, colored bool) error {
	return v.table().RenderText(w, colored)
}

func (v *BaselinesView) RenderMarkdown(w io.Writer) error {
	return v.table().RenderMarkdown(w)
}

func (v *BaselinesView) RenderData() any {
	if v.Baselines == nil {
		return []models.Baseline{}
	}
	return v.Baselines
}

// VersionsView renders the versions held by a baseline root.
type VersionsView struct {
	Root     string           `json:"root"`
	Versions []models.Version `json:"versions"`
	Latest   *models.Version  `json:"latest,omitempty"`
}

func (v *VersionsView) table() *Table {
	rows := make([][]string, 0, len(v.Versions))
	for _, ver := range v.Versions {
		mark := ""
		if v.Latest != nil && ver == *v.Latest {
			mark = "latest"
		}
		rows = append(rows, []string{ver.String(), mark})
	}
	return NewTable("Versions in "+v.Root, []string{"Version", ""}, rows, nil, nil)
}

func (v *VersionsView) RenderText(w io.Writer, colored bool) error {
	return v.table().RenderText(w, colored)
}

func (v *VersionsView) RenderMarkdown(w io.Writer) error {
	return v.table().RenderMarkdown(w)
}

func (v *VersionsView) RenderData() any {
	return v
}

// TrendsView renders per-metric history trends.
type TrendsView struct {
	Title  string
	Trends []history.MetricTrend
}

func (v *TrendsView) table(colored bool) *Table {
	headers := []string{"Metric", "Project", "Runs", "Regressions", "Latest", "Mean", "Stddev", "Slope/run", "R²"}
	rows := make([][]string, 0, len(v.Trends))
	for _, t := range v.Trends {
		regressions := strconv.Itoa(t.Regressions)
		if colored {
			regressions = Verdict(t.Regressions > 0, regressions)
		}
		rows = append(rows, []string{
			t.Metric.Name,
			t.Metric.ProjectName,
			strconv.Itoa(t.Runs),
			regressions,
			seconds(t.Latest),
			seconds(t.Mean),
			seconds(t.Stddev),
			fmt.Sprintf("%+.4fs", t.Slope),
			fmt.Sprintf("%.2f", t.RSquared),
		})
	}
	return NewTable(v.Title, headers, rows, nil, nil)
}

func (v *TrendsView) RenderText(w io.Writer, colored bool) error {
	return v.table(colored).RenderText(w, colored)
}

func (v *TrendsView) RenderMarkdown(w io.Writer) error {
	return v.table(false).RenderMarkdown(w)
}

func (v *TrendsView) RenderData() any {
	if v.Trends == nil {
		return []history.MetricTrend{}
	}
	return v.Trends
}
