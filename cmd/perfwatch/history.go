package main

import (
	"github.com/panbanda/perfwatch/internal/output"
	"github.com/panbanda/perfwatch/pkg/history"
	"github.com/urfave/cli/v2"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Summarize recorded sample runs per metric",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "history_dir", Usage: "Absolute path to the history directory", Required: true},
		},
		Action: runHistory,
	}
}

func runHistory(c *cli.Context) error {
	if err := requireAbs(c, "history_dir"); err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	hs := history.New(c.String("history_dir"))
	records, err := hs.Load(c.Context)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg, output.FormatText)
	if err != nil {
		return err
	}
	defer formatter.Close()
	if len(records) == 0 && !formatter.Structured() {
		formatter.Warning("No history records in %s", hs.Dir())
		return nil
	}

	return formatter.Output(&output.TrendsView{
		Title:  "Trends over recorded runs",
		Trends: history.Summarize(records),
	})
}
