package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/hazardlab/sesgen/internal/catalog"
	"github.com/hazardlab/sesgen/internal/sampler"
)

// TraceSnapshot flattens a batch into the canonical-JSON-friendly shape the
// golden files hold. Run IDs and timings are excluded: only the reproducible
// parts of a batch belong in a golden file.
func TraceSnapshot(scenarioName string, batch *sampler.Batch) map[string]any {
	ebrs := make([]any, len(batch.EBRuptures))
	for i, ebr := range batch.EBRuptures {
		events := make([]any, len(ebr.Events))
		for j, ev := range ebr.Events {
			events[j] = map[string]any{
				"eid":    ev.EID,
				"grp":    ev.GrpID,
				"sample": ev.Sample,
				"ses":    ev.SES,
			}
		}
		sites := make([]any, len(ebr.SIDs))
		for j, sid := range ebr.SIDs {
			sites[j] = sid
		}
		ebrs[i] = map[string]any{
			"serial": ebr.Serial,
			"sites":  sites,
			"events": events,
		}
	}
	return map[string]any{
		"scenario":     scenarioName,
		"eb_ruptures":  ebrs,
		"num_events":   batch.NumEvents,
		"num_ruptures": batch.NumRuptures,
	}
}

// RunWithGolden runs the scenario file at path and asserts its trace against
// testdata/golden/{scenario name}.golden.
func RunWithGolden(t *testing.T, path string) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), path)
	if err != nil {
		return nil, err
	}

	trace, err := catalog.MarshalCanonical(TraceSnapshot(result.Scenario.Name, result.Batch))
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, result.Scenario.Name, trace)

	return result, nil
}
