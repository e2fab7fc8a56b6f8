package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hazardlab/sesgen/internal/catalog"
	"github.com/hazardlab/sesgen/internal/monitor"
)

// Params are the tunables of the batch sampling pipeline.
type Params struct {
	// SESPerLogicTreePath is the number of stochastic event set replicas
	// per logic-tree sample. Must be at least 1.
	SESPerLogicTreePath int

	// Samples is the number of logic-tree samples. Must be at least 1.
	Samples int

	// Seed is the master seed every per-rupture stream derives from.
	Seed int64
}

func (p Params) validate() error {
	if p.SESPerLogicTreePath < 1 {
		return fmt.Errorf("ses_per_logic_tree_path must be at least 1, got %d", p.SESPerLogicTreePath)
	}
	if p.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", p.Samples)
	}
	return nil
}

// SourceTiming records the elapsed wall time spent on one source, for
// external scheduling decisions.
type SourceTiming struct {
	SourceID string
	Elapsed  time.Duration
}

// Batch is the result of sampling one batch of sources sharing a source
// group.
type Batch struct {
	// RunID is a UUIDv7 stamped on the batch, for attribution in logs
	// and in the event catalog.
	RunID string

	// EBRuptures holds the surviving ruptures with their events, in
	// per-source enumeration order.
	EBRuptures []*catalog.EBRupture

	// NumEvents is the total number of events across all EBRuptures.
	NumEvents int

	// CalcTimes records elapsed time per source.
	CalcTimes []SourceTiming

	// NumRuptures counts every enumerated rupture, including those that
	// never occurred or were filtered away.
	NumRuptures int
}

// SampleRuptures runs the batch pipeline: occurrence sampling, distance
// filtering via the context builder, event construction, and event-ID
// allocation.
//
// A failure while enumerating or sampling a source's ruptures aborts the
// batch and surfaces as a *SourceError naming that source; EBRuptures built
// for earlier sources are not corrupted, but the batch as a whole is failed.
func SampleRuptures(ctx context.Context, sources []catalog.Source, sites *catalog.SiteCollection,
	srcFilter SourceFilter, cmaker ContextMaker, params Params, mon *monitor.Monitor) (*Batch, error) {

	if err := params.validate(); err != nil {
		return nil, err
	}

	batch := &Batch{RunID: uuid.Must(uuid.NewV7()).String()}
	ctxMon := mon.Sub("making contexts")

	for src, sSites := range srcFilter.Pairs(sources, sites) {
		t0 := time.Now()
		batch.NumRuptures += src.NumRuptures()

		// Sampling before filtering: occurrence counts are << 1 per
		// cell, so most ruptures are discarded here for free.
		tally, err := sampleSource(src, params.SESPerLogicTreePath, params.Samples, params.Seed)
		if err != nil {
			return nil, err
		}

		ebrs, err := buildEBRuptures(ctx, src, tally, cmaker, sSites, params.Seed, ctxMon)
		if err != nil {
			return nil, err
		}
		batch.EBRuptures = append(batch.EBRuptures, ebrs...)

		dt := time.Since(t0)
		batch.CalcTimes = append(batch.CalcTimes, SourceTiming{SourceID: src.ID(), Elapsed: dt})

		slog.Debug("source sampled",
			"run_id", batch.RunID,
			"source_id", src.ID(),
			"ruptures", src.NumRuptures(),
			"occurring", len(tally.ruptures),
			"surviving", len(ebrs),
			"elapsed", dt,
		)
	}

	numEvents, err := SetEventIDs(batch.EBRuptures)
	if err != nil {
		return nil, err
	}
	batch.NumEvents = numEvents

	slog.Info("batch sampled",
		"run_id", batch.RunID,
		"sources", len(batch.CalcTimes),
		"num_ruptures", batch.NumRuptures,
		"eb_ruptures", len(batch.EBRuptures),
		"num_events", batch.NumEvents,
		"contexts_elapsed", ctxMon.Elapsed(),
	)
	return batch, nil
}

// buildEBRuptures expands the surviving tally of one source into EBRuptures.
//
// Ruptures are processed in ascending sequence index (the tally preserves
// enumeration order), and each rupture's events are emitted in ascending
// (sample, ses) cell order, so the output ordering is deterministic across
// runs. Ruptures the context builder signals as too far are dropped together
// with their tally entries - pre-filter event populations can be orders of
// magnitude larger than post-filter, so the memory is reclaimed immediately.
func buildEBRuptures(ctx context.Context, src catalog.Source, tally *sourceTally,
	cmaker ContextMaker, sites *catalog.SiteCollection, masterSeed int64,
	ctxMon *monitor.Monitor) ([]*catalog.EBRupture, error) {

	var ebrs []*catalog.EBRupture
	for i, rt := range tally.ruptures {
		rctx, ok, err := makeContext(ctx, cmaker, sites, rt.rup, ctxMon)
		if err != nil {
			return nil, fmt.Errorf("source %s rupture %d: %w", src.ID(), rt.rupNo, err)
		}
		if !ok {
			tally.ruptures[i] = nil // reclaim the tally entry
			continue
		}

		events := make([]catalog.Event, 0, rt.multiplicity())
		for _, c := range rt.sortedCells() {
			for k := 0; k < rt.counts[c]; k++ {
				// EID 0 is a placeholder filled in by SetEventIDs.
				events = append(events, catalog.Event{
					GrpID:  src.GroupID(),
					SES:    uint32(c.SES),
					Sample: uint32(c.Sample),
				})
			}
		}
		if len(events) == 0 {
			continue
		}

		// The serial recovers the 1-based sequence index from the
		// derived seed, so it is never stored twice.
		ebrs = append(ebrs, &catalog.EBRupture{
			Rupture:  rt.rup,
			SourceID: src.ID(),
			SIDs:     rctx.SIDs,
			Events:   events,
			Serial:   rt.seed - masterSeed + 1,
		})
	}
	return ebrs, nil
}
