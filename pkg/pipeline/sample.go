package pipeline

import (
	"context"

	"github.com/panbanda/perfwatch/internal/bench"
	"github.com/panbanda/perfwatch/pkg/models"
)

// Sample measures every pair once on the current code and returns one
// Sample per export. All samples share the timestamp taken when the run starts.
//
// outDir is scratch space: it is deleted and recreated first.
func (p *Pipeline) Sample(ctx context.Context, projectsDir, outDir string) ([]models.Sample, error) {
	ts := p.now().UTC()

	if err := p.invokeAll(ctx, projectsDir, outDir, SampleRuns); err != nil {
		return nil, err
	}

	exports, err := bench.ReadExports(p.fs, outDir)
	if err != nil {
		return nil, err
	}

	samples := make([]models.Sample, 0, len(exports))
	for _, e := range exports {
		m, err := e.Value.First(e.Path)
		if err != nil {
			return nil, err
		}
		s, err := models.SampleFromMeasurement(e.Path, m, ts)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	p.logger.WithField("samples", len(samples)).Debug("sampling complete")
	return samples, nil
}
