package main

import (
	"github.com/panbanda/perfwatch/internal/output"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/panbanda/perfwatch/pkg/store"
	"github.com/urfave/cli/v2"
)

func baselinesCmd() *cli.Command {
	return &cli.Command{
		Name:  "baselines",
		Usage: "List baseline versions and show the baselines of one",
		Description: `Shows every version under baseline_dir and the baselines of the latest
version, or of -version when given.

Example:
  perfwatch baselines -baseline_dir /work/baselines -version 1.0.1`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "baseline_dir", Usage: "Absolute path to the baseline root", Required: true},
			&cli.StringFlag{Name: "version", Usage: "Version to show (default: latest)"},
		},
		Action: runBaselines,
	}
}

// baselinesReport is the structured form of the baselines command.
type baselinesReport struct {
	Root        string            `json:"root"`
	Versions    []models.Version  `json:"versions"`
	Latest      models.Version    `json:"latest"`
	Selected    models.Version    `json:"selected"`
	Fingerprint string            `json:"fingerprint"`
	Baselines   []models.Baseline `json:"baselines"`
}

func runBaselines(c *cli.Context) error {
	if err := requireAbs(c, "baseline_dir"); err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	st := store.New(c.String("baseline_dir"))
	versions, err := st.Versions(c.Context)
	if err != nil {
		return err
	}
	latest, ok := models.LatestVersion(versions)
	if !ok {
		return &store.NoBaselineDataError{Dir: st.Root()}
	}
	models.SortVersions(versions)

	selected := latest
	if s := c.String("version"); s != "" {
		if selected, err = models.ParseVersion(s); err != nil {
			return err
		}
	}

	baselines, err := st.Load(c.Context, selected)
	if err != nil {
		return err
	}
	fp, err := st.Fingerprint(c.Context, selected)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg, output.FormatText)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(&output.Report{
		Sections: []output.Renderable{
			&output.VersionsView{Root: st.Root(), Versions: versions, Latest: &latest},
			&output.BaselinesView{Title: "Baselines " + selected.String(), Baselines: baselines, Fingerprint: fp},
		},
		Data: baselinesReport{
			Root:        st.Root(),
			Versions:    versions,
			Latest:      latest,
			Selected:    selected,
			Fingerprint: fp,
			Baselines:   baselines,
		},
	})
}
