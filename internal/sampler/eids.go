package sampler

import (
	"github.com/hazardlab/sesgen/internal/catalog"
)

// two32 is the event-ID block size: each rupture serial owns the contiguous
// identifier block [2^32 * serial, 2^32 * serial + multiplicity).
const two32 = int64(1) << 32

// SetEventIDs assigns globally unique 64-bit event identifiers to every
// event across the given EBRuptures and returns the total event count.
//
// The block scheme needs no coordination between sources, workers, or
// batches beyond agreement on the master seed and the 2^32 block size:
// distinct serials occupy disjoint high-order blocks, and within a block the
// low-order offset is dense and contiguous in stored event order.
//
// Preconditions: every serial and every multiplicity is strictly less than
// 2^32. A violation is a configuration or combinatorial-scale error upstream
// and is returned as an *InvariantError; identifiers are never truncated.
//
// An empty rupture list returns 0 and performs no allocation.
func SetEventIDs(ebruptures []*catalog.EBRupture) (int, error) {
	if len(ebruptures) == 0 {
		return 0, nil
	}

	numEvents := 0
	for _, ebr := range ebruptures {
		m := ebr.Multiplicity()
		if ebr.Serial < 0 || ebr.Serial >= two32 {
			return 0, &InvariantError{
				Serial:       ebr.Serial,
				Multiplicity: m,
				Reason:       "rupture serial outside [0, 2^32)",
			}
		}
		if int64(m) >= two32 {
			return 0, &InvariantError{
				Serial:       ebr.Serial,
				Multiplicity: m,
				Reason:       "rupture multiplicity exceeds the 2^32 block size",
			}
		}

		base := uint64(ebr.Serial) << 32
		for i := range ebr.Events {
			ebr.Events[i].EID = base + uint64(i)
		}
		numEvents += m
	}
	return numEvents, nil
}
