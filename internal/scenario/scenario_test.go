package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func writeModel(t *testing.T, dir, name string) {
	t.Helper()
	body := `source: "src-a": {
	group: 1
	ruptures: [{mag: 6.0, rate: 0.01, sites: [0]}]
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_ResolvesModelPaths(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "model.cue")
	path := writeScenario(t, dir, `
name: basic
description: one source, one site
models: [model.cue]
sites: [site-0]
integration_distance_km: 200
params:
  seed: 42
  ses_per_logic_tree_path: 1
  samples: 1
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "basic", s.Name)
	assert.Equal(t, []string{filepath.Join(dir, "model.cue")}, s.Models)
	assert.Equal(t, int64(42), s.Params.Seed)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "model.cue")
	path := writeScenario(t, dir, `
name: typo
description: site vs sites
models: [model.cue]
site: [site-0]
integration_distance_km: 200
params:
  seed: 42
  ses_per_logic_tree_path: 1
  samples: 1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site")
}

func TestLoad_Validation(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "model.cue")

	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: `
description: d
models: [model.cue]
sites: [site-0]
integration_distance_km: 200
params: {seed: 1, ses_per_logic_tree_path: 1, samples: 1}
`,
			want: "name is required",
		},
		{
			name: "no sites",
			body: `
name: n
description: d
models: [model.cue]
sites: []
integration_distance_km: 200
params: {seed: 1, ses_per_logic_tree_path: 1, samples: 1}
`,
			want: "sites",
		},
		{
			name: "nonpositive distance",
			body: `
name: n
description: d
models: [model.cue]
sites: [site-0]
integration_distance_km: 0
params: {seed: 1, ses_per_logic_tree_path: 1, samples: 1}
`,
			want: "integration_distance_km",
		},
		{
			name: "zero ses",
			body: `
name: n
description: d
models: [model.cue]
sites: [site-0]
integration_distance_km: 200
params: {seed: 1, ses_per_logic_tree_path: 0, samples: 1}
`,
			want: "ses_per_logic_tree_path",
		},
		{
			name: "missing model file",
			body: `
name: n
description: d
models: [nope.cue]
sites: [site-0]
integration_distance_km: 200
params: {seed: 1, ses_per_logic_tree_path: 1, samples: 1}
`,
			want: "not found",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeScenario(t, dir, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
