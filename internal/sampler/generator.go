package sampler

import (
	"iter"
	"math/rand"

	"github.com/hazardlab/sesgen/internal/catalog"
)

// EventSet generates a stochastic event set: a lazy sequence of rupture
// instances representing one possible realization of the seismicity described
// by the given sources. A rupture sampled k>1 times appears k times in a row;
// a rupture with zero sampled occurrences does not appear at all.
//
// If sites is nil every source is iterated unfiltered; otherwise only the
// (source, filtered-sites) pairs surviving srcFilter are iterated.
//
// All sampling draws from the single caller-owned rng with no per-rupture
// reseeding. This is the exploratory mode: reproducibility requires nothing
// more than seeding rng before the call, and two consumers sharing one
// stream will see different (but still valid) realizations. The batch
// pipeline in SampleRuptures is the reproducible discipline.
//
// The sequence is pull-driven and non-restartable. A consumer that stops
// early simply abandons it; no resources are held.
//
// A failure while enumerating a source's ruptures is yielded once as a
// *SourceError naming the source, and the sequence stops.
func EventSet(sources []catalog.Source, sites *catalog.SiteCollection,
	srcFilter SourceFilter, rng *rand.Rand) iter.Seq2[catalog.Rupture, error] {

	if sites == nil {
		return func(yield func(catalog.Rupture, error) bool) {
			for _, src := range sources {
				if !yieldOccurrences(src, rng, yield) {
					return
				}
			}
		}
	}

	return func(yield func(catalog.Rupture, error) bool) {
		for src := range srcFilter.Pairs(sources, sites) {
			if !yieldOccurrences(src, rng, yield) {
				return
			}
		}
	}
}

// yieldOccurrences yields one source's ruptures, once per sampled occurrence.
// Returns false when the consumer stopped pulling or an error was yielded.
func yieldOccurrences(src catalog.Source, rng *rand.Rand,
	yield func(catalog.Rupture, error) bool) bool {

	for rup, err := range src.Ruptures() {
		if err != nil {
			yield(nil, &SourceError{SourceID: src.ID(), Err: err})
			return false
		}
		n := rup.SampleOccurrences(rng)
		for i := 0; i < n; i++ {
			if !yield(rup, nil) {
				return false
			}
		}
	}
	return true
}
