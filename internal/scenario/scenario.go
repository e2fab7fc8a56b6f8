// Package scenario defines the inputs of a sampling calculation: a YAML
// scenario file naming the sites, the tunable parameters, and the CUE source
// model files to compile. Scenarios drive both the CLI and the golden-trace
// conformance tests.
//
// Geometry stays out of the engine: scenario ruptures declare their affected
// site indices and their minimum distance to the site collection directly.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one sampling calculation definition.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// Models lists CUE source-model files to compile.
	// Paths are relative to the scenario file location.
	Models []string `yaml:"models"`

	// Sites are the ordered site labels of interest.
	Sites []string `yaml:"sites"`

	// IntegrationDistanceKm is the maximum source-to-site distance beyond
	// which a rupture is discarded.
	IntegrationDistanceKm float64 `yaml:"integration_distance_km"`

	// GSIMs names the ground-shaking intensity models of the tectonic
	// region, passed through to the context builder.
	GSIMs []string `yaml:"gsims,omitempty"`

	// Params are the sampling tunables.
	Params ParamsDef `yaml:"params"`
}

// ParamsDef mirrors the recognized keys of the parameters dictionary.
type ParamsDef struct {
	Seed                int64 `yaml:"seed"`
	SESPerLogicTreePath int   `yaml:"ses_per_logic_tree_path"`
	Samples             int   `yaml:"samples"`
}

// Load reads and parses a scenario YAML file, resolving model paths relative
// to the scenario file location. Unknown fields are rejected, which catches
// typos like "site:" vs "sites:".
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, model := range s.Models {
		if !filepath.IsAbs(model) {
			s.Models[i] = filepath.Join(base, model)
		}
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Models) == 0 {
		return fmt.Errorf("models list is required and must be non-empty")
	}
	if len(s.Sites) == 0 {
		return fmt.Errorf("sites list is required and must be non-empty")
	}
	if s.IntegrationDistanceKm <= 0 {
		return fmt.Errorf("integration_distance_km must be positive")
	}
	if s.Params.SESPerLogicTreePath < 1 {
		return fmt.Errorf("params.ses_per_logic_tree_path must be at least 1")
	}
	if s.Params.Samples < 1 {
		return fmt.Errorf("params.samples must be at least 1")
	}
	for _, model := range s.Models {
		if _, err := os.Stat(model); os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", model)
		}
	}
	return nil
}
