package cli

import (
	"github.com/hazardlab/sesgen/internal/modelspec"
	"github.com/hazardlab/sesgen/internal/scenario"
)

// loadScenario loads a scenario file, compiles its source models and
// assembles the sampling inputs.
func loadScenario(path string) (*scenario.Scenario, *scenario.Model, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	defs, err := modelspec.CompileFiles(s.Models)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to compile source models", err)
	}

	model, err := s.Assemble(defs)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to assemble scenario", err)
	}
	return s, model, nil
}
