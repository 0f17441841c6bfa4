package pipeline

import (
	"context"
	"fmt"

	"github.com/panbanda/perfwatch/internal/bench"
	"github.com/panbanda/perfwatch/pkg/models"
	"github.com/panbanda/perfwatch/pkg/store"
	"github.com/sirupsen/logrus"
)

// ModelRequest describes one modeling run.
type ModelRequest struct {
	Version     models.Version
	ProjectsDir string
	OutputRoot  string // baseline root; baselines land in <OutputRoot>/<Version>/
	TmpDir      string // scratch space for exports, reset before the run
	Runs        int
}

// Model measures every pair with req.Runs timed runs, turns each export into
// a Baseline tagged with req.Version, and persists them under req.OutputRoot.
// All baselines share the timestamp taken when the run starts.
func (p *Pipeline) Model(ctx context.Context, req ModelRequest) ([]models.Baseline, error) {
	if req.Runs < 1 {
		return nil, fmt.Errorf("run count must be at least 1 (got %d)", req.Runs)
	}

	ts := p.now().UTC()

	if err := p.invokeAll(ctx, req.ProjectsDir, req.TmpDir, req.Runs); err != nil {
		return nil, err
	}

	exports, err := bench.ReadExports(p.fs, req.TmpDir)
	if err != nil {
		return nil, err
	}

	baselines := make([]models.Baseline, 0, len(exports))
	for _, e := range exports {
		b, err := models.BaselineFromMeasurements(req.Version, e.Path, e.Value, ts)
		if err != nil {
			return nil, err
		}
		baselines = append(baselines, b)
	}

	st := store.New(req.OutputRoot, store.WithFs(p.fs), store.WithPretty(p.pretty))
	if err := st.WriteAll(ctx, baselines); err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"version":   req.Version.String(),
		"baselines": len(baselines),
	}).Debug("modeling complete")
	return baselines, nil
}
