package sampler

import (
	"math/rand"
	"sort"

	"github.com/hazardlab/sesgen/internal/catalog"
)

// cell addresses one position of the two-dimensional replication grid:
// a logic-tree sample (0-based) crossed with a stochastic event set (1-based).
type cell struct {
	Sample int
	SES    int
}

// ruptureTally records the sampled occurrences of one rupture. Only cells
// with a positive count are stored; a rupture whose every cell sampled zero
// never enters the tally at all.
type ruptureTally struct {
	rup    catalog.Rupture
	rupNo  int   // 1-based sequence index within the source
	seed   int64 // derived seed: source serial base + master seed
	counts map[cell]int
}

// sortedCells returns the occupied cells in ascending (sample, ses) order.
// The counts map is unordered; event construction depends on this ordering
// for deterministic output.
func (rt *ruptureTally) sortedCells() []cell {
	cells := make([]cell, 0, len(rt.counts))
	for c := range rt.counts {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Sample != cells[j].Sample {
			return cells[i].Sample < cells[j].Sample
		}
		return cells[i].SES < cells[j].SES
	})
	return cells
}

// multiplicity is the sum of the rupture's occurrence counts.
func (rt *ruptureTally) multiplicity() int {
	total := 0
	for _, n := range rt.counts {
		total += n
	}
	return total
}

// sourceTally holds the occurring ruptures of one source in enumeration
// order. Built fresh per source, consumed once by the event builder.
type sourceTally struct {
	ruptures []*ruptureTally
}

// sampleSource draws occurrence counts for every rupture the source
// enumerates, across every (sample, ses) cell of the replication grid.
//
// The reproducibility contract: ruptures are enumerated in the source's
// stable order with a running 1-based sequence index; each rupture gets
// exactly one fresh PRNG stream seeded with Serial(i) + masterSeed, and its
// cells are drawn samples-first, then SES indices 1..numSES. The same master
// seed, source, and grid dimensions always produce the same tally.
//
// Occurrence probabilities are typically far below one per cell, so sampling
// before any geometric filtering is the cheap first gate: most ruptures never
// occur and are dropped here without ever touching the context builder.
func sampleSource(src catalog.Source, numSES, numSamples int, masterSeed int64) (*sourceTally, error) {
	tally := &sourceTally{}

	rupNo := 0
	for rup, err := range src.Ruptures() {
		if err != nil {
			return nil, &SourceError{SourceID: src.ID(), Err: err}
		}
		seed := src.Serial(rupNo) + masterSeed
		rupNo++

		// One stream per rupture: no two ruptures' sampling sequences
		// interfere, regardless of execution order.
		rng := rand.New(rand.NewSource(seed))

		var counts map[cell]int
		for sample := 0; sample < numSamples; sample++ {
			for ses := 1; ses <= numSES; ses++ {
				n := rup.SampleOccurrences(rng)
				if n == 0 {
					continue
				}
				if counts == nil {
					counts = make(map[cell]int)
				}
				counts[cell{Sample: sample, SES: ses}] += n
			}
		}
		if counts == nil {
			continue
		}
		tally.ruptures = append(tally.ruptures, &ruptureTally{
			rup:    rup,
			rupNo:  rupNo,
			seed:   seed,
			counts: counts,
		})
	}
	return tally, nil
}
