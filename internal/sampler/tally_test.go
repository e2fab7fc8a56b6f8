package sampler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazardlab/sesgen/internal/catalog"
	"github.com/hazardlab/sesgen/internal/testutil"
)

func TestSampleSource_Deterministic(t *testing.T) {
	src := &testutil.Source{
		SourceID:   "src-det",
		SerialBase: 100,
		Rups: []catalog.Rupture{
			&testutil.BernoulliRupture{P: 0.5},
			&testutil.BernoulliRupture{P: 0.3},
			&testutil.BernoulliRupture{P: 0.8},
		},
	}

	first, err := sampleSource(src, 5, 2, 42)
	require.NoError(t, err)
	second, err := sampleSource(src, 5, 2, 42)
	require.NoError(t, err)

	require.Len(t, second.ruptures, len(first.ruptures), "same master seed must reproduce the tally")
	for i := range first.ruptures {
		assert.Equal(t, first.ruptures[i].rupNo, second.ruptures[i].rupNo)
		assert.Equal(t, first.ruptures[i].seed, second.ruptures[i].seed)
		assert.Equal(t, first.ruptures[i].counts, second.ruptures[i].counts)
	}
}

func TestSampleSource_DifferentSeedsDiverge(t *testing.T) {
	// Not a strict guarantee for any single rupture, but with 64 ruptures
	// at p=0.5 two master seeds agreeing everywhere would be astonishing.
	rups := make([]catalog.Rupture, 64)
	for i := range rups {
		rups[i] = &testutil.BernoulliRupture{P: 0.5}
	}
	src := &testutil.Source{SourceID: "src-div", Rups: rups}

	a, err := sampleSource(src, 4, 1, 1)
	require.NoError(t, err)
	b, err := sampleSource(src, 4, 1, 2)
	require.NoError(t, err)

	same := len(a.ruptures) == len(b.ruptures)
	if same {
		for i := range a.ruptures {
			if !assert.ObjectsAreEqual(a.ruptures[i].counts, b.ruptures[i].counts) {
				same = false
				break
			}
		}
	}
	assert.False(t, same, "different master seeds should produce different tallies")
}

func TestSampleSource_DrawOrder(t *testing.T) {
	// Draws are consumed samples-first, then SES indices 1..numSES.
	rup := &testutil.ScriptedRupture{Counts: []int{1, 2, 0, 3}}
	src := &testutil.Source{SourceID: "src-order", Rups: []catalog.Rupture{rup}}

	tally, err := sampleSource(src, 2, 2, 0)
	require.NoError(t, err)
	require.Len(t, tally.ruptures, 1)
	assert.Equal(t, 4, rup.Draws(), "one draw per grid cell")

	rt := tally.ruptures[0]
	assert.Equal(t, map[cell]int{
		{Sample: 0, SES: 1}: 1,
		{Sample: 0, SES: 2}: 2,
		{Sample: 1, SES: 2}: 3,
	}, rt.counts, "zero counts are never stored")
	assert.Equal(t, []cell{
		{Sample: 0, SES: 1},
		{Sample: 0, SES: 2},
		{Sample: 1, SES: 2},
	}, rt.sortedCells())
	assert.Equal(t, 6, rt.multiplicity())
}

func TestSampleSource_SeedDerivation(t *testing.T) {
	src := &testutil.Source{
		SourceID:   "src-seed",
		SerialBase: 1000,
		Rups: []catalog.Rupture{
			&testutil.ScriptedRupture{Counts: []int{1}},
			&testutil.ScriptedRupture{Counts: []int{1}},
		},
	}

	tally, err := sampleSource(src, 1, 1, 42)
	require.NoError(t, err)
	require.Len(t, tally.ruptures, 2)

	assert.Equal(t, int64(1042), tally.ruptures[0].seed, "seed = Serial(0) + masterSeed")
	assert.Equal(t, int64(1043), tally.ruptures[1].seed, "seed = Serial(1) + masterSeed")
	assert.Equal(t, 1, tally.ruptures[0].rupNo)
	assert.Equal(t, 2, tally.ruptures[1].rupNo)
}

func TestSampleSource_ZeroOccurrenceExcluded(t *testing.T) {
	src := &testutil.Source{
		SourceID: "src-quiet",
		Rups:     []catalog.Rupture{&testutil.ScriptedRupture{Counts: []int{0, 0, 0, 0}}},
	}

	tally, err := sampleSource(src, 2, 2, 7)
	require.NoError(t, err)
	assert.Empty(t, tally.ruptures, "a rupture that never occurs enters no tally")
}

func TestSampleSource_ErrorAttributed(t *testing.T) {
	cause := errors.New("surface projection failed")
	src := &testutil.Source{
		SourceID: "src7",
		Rups:     []catalog.Rupture{&testutil.ScriptedRupture{Counts: []int{1}}},
		Err:      cause,
	}

	_, err := sampleSource(src, 1, 1, 0)
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "src7", srcErr.SourceID)
	assert.ErrorIs(t, err, cause, "original failure must stay reachable")
	assert.Contains(t, err.Error(), "src7")
}
