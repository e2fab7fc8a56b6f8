package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazardlab/sesgen/internal/catalog"
	"github.com/hazardlab/sesgen/internal/sampler"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testParams() sampler.Params {
	return sampler.Params{SESPerLogicTreePath: 2, Samples: 1, Seed: 42}
}

func testBatch() *sampler.Batch {
	return &sampler.Batch{
		RunID: "run-1",
		EBRuptures: []*catalog.EBRupture{
			{
				SourceID: "src-a",
				SIDs:     []uint32{0, 1},
				Serial:   1,
				Events: []catalog.Event{
					{EID: 1 << 32, GrpID: 3, SES: 1, Sample: 0},
					{EID: 1<<32 + 1, GrpID: 3, SES: 2, Sample: 0},
				},
			},
			{
				SourceID: "src-b",
				SIDs:     []uint32{1},
				Serial:   2,
				Events: []catalog.Event{
					{EID: 2 << 32, GrpID: 3, SES: 1, Sample: 0},
				},
			},
		},
		NumEvents:   3,
		NumRuptures: 5,
	}
}

func TestStore_WriteAndReadBatch(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WriteBatch(ctx, "demo", testParams(), testBatch()))

	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "demo", run.Scenario)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, 2, run.SESPerPath)
	assert.Equal(t, 5, run.NumRuptures)
	assert.Equal(t, 3, run.NumEvents)

	ruptures, err := st.ReadRuptures(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, ruptures, 2)

	assert.Equal(t, int64(1), ruptures[0].Serial)
	assert.Equal(t, "src-a", ruptures[0].SourceID)
	assert.Equal(t, uint16(3), ruptures[0].GrpID)
	assert.Equal(t, []uint32{0, 1}, ruptures[0].SIDs)
	assert.Equal(t, testBatch().EBRuptures[0].Events, ruptures[0].Events)

	assert.Equal(t, int64(2), ruptures[1].Serial)
	assert.Equal(t, testBatch().EBRuptures[1].Events, ruptures[1].Events)
}

func TestStore_WriteBatchIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.WriteBatch(ctx, "demo", testParams(), testBatch()))
	require.NoError(t, st.WriteBatch(ctx, "demo", testParams(), testBatch()))

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	ruptures, err := st.ReadRuptures(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, ruptures, 2)
}

func TestStore_RupturesComeBackInSerialOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	batch := testBatch()
	batch.EBRuptures[0], batch.EBRuptures[1] = batch.EBRuptures[1], batch.EBRuptures[0]
	require.NoError(t, st.WriteBatch(ctx, "demo", testParams(), batch))

	ruptures, err := st.ReadRuptures(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, ruptures, 2)
	assert.Equal(t, int64(1), ruptures[0].Serial)
	assert.Equal(t, int64(2), ruptures[1].Serial)
}

func TestStore_LargeEventIDsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	// A serial past 2^31 pushes the event ID past the signed 64-bit
	// midpoint.
	eid := uint64(3_000_000_000) << 32
	batch := &sampler.Batch{
		RunID: "run-big",
		EBRuptures: []*catalog.EBRupture{{
			SourceID: "src-a",
			SIDs:     []uint32{0},
			Serial:   3_000_000_000,
			Events:   []catalog.Event{{EID: eid, GrpID: 1, SES: 1, Sample: 0}},
		}},
		NumEvents:   1,
		NumRuptures: 1,
	}
	require.NoError(t, st.WriteBatch(ctx, "big", testParams(), batch))

	ruptures, err := st.ReadRuptures(ctx, "run-big")
	require.NoError(t, err)
	require.Len(t, ruptures, 1)
	require.Len(t, ruptures[0].Events, 1)
	assert.Equal(t, eid, ruptures[0].Events[0].EID)
}

func TestStore_ReadRunNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.ReadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = st.ReadRuptures(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_ListRunsEmpty(t *testing.T) {
	st := openTestStore(t)

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NotNil(t, runs)
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")

	st1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st1.Close())

	st2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st2.Close())
}
