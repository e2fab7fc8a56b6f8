package modelspec

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazardlab/sesgen/internal/scenario"
)

func compileSourceString(t *testing.T, id, body string) (*scenario.SourceDef, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(body)
	require.NoError(t, v.Err())
	return CompileSource(id, v.LookupPath(cue.ParsePath(`source."`+id+`"`)))
}

func TestCompileSourceBasic(t *testing.T) {
	def, err := compileSourceString(t, "area-1", `
		source: "area-1": {
			group:           2
			serial_base:     10
			tectonic_region: "Active Shallow Crust"
			time_span:       50
			ruptures: [
				{mag: 6.5, rate: 0.01, distance_km: 30, sites: [0, 1]},
				{mag: 5.0, occurrences: {"0/1": 1, "1/2": 3}, sites: [0]},
			]
		}
	`)
	require.NoError(t, err)

	assert.Equal(t, "area-1", def.ID)
	assert.Equal(t, uint16(2), def.Group)
	assert.Equal(t, int64(10), def.SerialBase)
	assert.Equal(t, "Active Shallow Crust", def.TectonicRegion)
	assert.Equal(t, 50.0, def.TimeSpanYears)
	require.Len(t, def.Ruptures, 2)

	assert.Equal(t, 6.5, def.Ruptures[0].Mag)
	assert.Equal(t, 0.01, def.Ruptures[0].Rate)
	assert.Equal(t, 30.0, def.Ruptures[0].DistanceKm)
	assert.Equal(t, []uint32{0, 1}, def.Ruptures[0].SIDs)

	assert.Nil(t, def.Ruptures[0].Occurrences)
	assert.Equal(t, map[scenario.Cell]int{
		{Sample: 0, SES: 1}: 1,
		{Sample: 1, SES: 2}: 3,
	}, def.Ruptures[1].Occurrences)
}

func TestCompileSourceDefaults(t *testing.T) {
	def, err := compileSourceString(t, "s", `
		source: "s": {
			ruptures: [{mag: 6.0, rate: 0.5, sites: [0]}]
		}
	`)
	require.NoError(t, err)

	assert.Equal(t, uint16(0), def.Group)
	assert.Equal(t, int64(0), def.SerialBase)
	assert.Equal(t, 1.0, def.TimeSpanYears)
	assert.Equal(t, 0.0, def.Ruptures[0].DistanceKm)
}

func TestCompileSourceErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing ruptures",
			body: `source: "s": {group: 1}`,
			want: "ruptures list is required",
		},
		{
			name: "empty ruptures",
			body: `source: "s": {ruptures: []}`,
			want: "at least one rupture",
		},
		{
			name: "missing mag",
			body: `source: "s": {ruptures: [{rate: 0.1, sites: [0]}]}`,
			want: "mag is required",
		},
		{
			name: "neither rate nor occurrences",
			body: `source: "s": {ruptures: [{mag: 6.0, sites: [0]}]}`,
			want: "either rate or occurrences",
		},
		{
			name: "both rate and occurrences",
			body: `source: "s": {ruptures: [{mag: 6.0, rate: 0.1, occurrences: {"0/1": 1}, sites: [0]}]}`,
			want: "mutually exclusive",
		},
		{
			name: "negative rate",
			body: `source: "s": {ruptures: [{mag: 6.0, rate: -0.1, sites: [0]}]}`,
			want: "rate must be positive",
		},
		{
			name: "missing sites",
			body: `source: "s": {ruptures: [{mag: 6.0, rate: 0.1}]}`,
			want: "sites list is required",
		},
		{
			name: "group overflow",
			body: `source: "s": {group: 70000, ruptures: [{mag: 6.0, rate: 0.1, sites: [0]}]}`,
			want: "16 bits",
		},
		{
			name: "negative serial base",
			body: `source: "s": {serial_base: -1, ruptures: [{mag: 6.0, rate: 0.1, sites: [0]}]}`,
			want: "serial_base",
		},
		{
			name: "bad cell key",
			body: `source: "s": {ruptures: [{mag: 6.0, occurrences: {"nope": 1}, sites: [0]}]}`,
			want: "sample/ses",
		},
		{
			name: "zero-based ses in cell key",
			body: `source: "s": {ruptures: [{mag: 6.0, occurrences: {"0/0": 1}, sites: [0]}]}`,
			want: "1-based",
		},
		{
			name: "zero occurrence count",
			body: `source: "s": {ruptures: [{mag: 6.0, occurrences: {"0/1": 0}, sites: [0]}]}`,
			want: "must be positive",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compileSourceString(t, "s", tc.body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)

			var cerr *CompileError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.cue")
	fileB := filepath.Join(dir, "b.cue")
	require.NoError(t, os.WriteFile(fileA, []byte(`
source: "src-a": {
	serial_base: 0
	ruptures: [{mag: 6.0, rate: 0.1, sites: [0]}]
}
`), 0o644))
	require.NoError(t, os.WriteFile(fileB, []byte(`
source: "src-b": {
	serial_base: 1
	ruptures: [{mag: 5.5, rate: 0.2, sites: [0]}]
}
`), 0o644))

	defs, err := CompileFiles([]string{fileA, fileB})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "src-a", defs[0].ID)
	assert.Equal(t, "src-b", defs[1].ID)
}

func TestCompileFiles_NoSourceStruct(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "empty.cue")
	require.NoError(t, os.WriteFile(file, []byte(`x: 1`), 0o644))

	_, err := CompileFiles([]string{file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source struct is required")
}

func TestCompileFiles_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(file, []byte(`source: {`), 0o644))

	_, err := CompileFiles([]string{file})
	require.Error(t, err)
}
