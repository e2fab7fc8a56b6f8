// Package harness runs scenario files end to end and compares the resulting
// event catalogs against golden trace files. Golden files are the source of
// truth for sampling behavior; regenerate them with:
//
//	go test ./internal/harness -update
package harness

import (
	"context"
	"fmt"

	"github.com/hazardlab/sesgen/internal/modelspec"
	"github.com/hazardlab/sesgen/internal/monitor"
	"github.com/hazardlab/sesgen/internal/sampler"
	"github.com/hazardlab/sesgen/internal/scenario"
)

// Result bundles everything a scenario run produced.
type Result struct {
	Scenario *scenario.Scenario
	Model    *scenario.Model
	Batch    *sampler.Batch
	Monitor  *monitor.Monitor
}

// Run loads the scenario file at path, compiles its source models, assembles
// the inputs and samples one batch.
func Run(ctx context.Context, path string) (*Result, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}

	defs, err := modelspec.CompileFiles(s.Models)
	if err != nil {
		return nil, fmt.Errorf("compile models: %w", err)
	}

	model, err := s.Assemble(defs)
	if err != nil {
		return nil, err
	}

	mon := monitor.New("sampling")
	batch, err := sampler.SampleRuptures(ctx, model.Sources, model.Sites,
		model.Filter, model.ContextMaker, model.Params, mon)
	if err != nil {
		return nil, err
	}

	return &Result{Scenario: s, Model: model, Batch: batch, Monitor: mon}, nil
}
