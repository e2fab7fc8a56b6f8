package testutil

import (
	"iter"
	"math/rand"

	"github.com/hazardlab/sesgen/internal/catalog"
)

// Source is a configurable catalog.Source fake.
//
// Serial numbers are SerialBase + rupture index, matching the upstream
// convention of per-rupture serials assigned contiguously per source.
//
// If Err is set, enumeration yields it after the scripted ruptures, which
// simulates a failure in the middle of rupture generation.
type Source struct {
	SourceID   string
	Group      uint16
	SerialBase int64
	Rups       []catalog.Rupture
	Err        error

	// RuptureCount overrides the declared rupture count when positive.
	// Defaults to len(Rups).
	RuptureCount int
}

// ID implements catalog.Source.
func (s *Source) ID() string { return s.SourceID }

// GroupID implements catalog.Source.
func (s *Source) GroupID() uint16 { return s.Group }

// NumRuptures implements catalog.Source.
func (s *Source) NumRuptures() int {
	if s.RuptureCount > 0 {
		return s.RuptureCount
	}
	return len(s.Rups)
}

// Serial implements catalog.Source.
func (s *Source) Serial(i int) int64 { return s.SerialBase + int64(i) }

// Ruptures implements catalog.Source.
func (s *Source) Ruptures() iter.Seq2[catalog.Rupture, error] {
	return func(yield func(catalog.Rupture, error) bool) {
		for _, r := range s.Rups {
			if !yield(r, nil) {
				return
			}
		}
		if s.Err != nil {
			yield(nil, s.Err)
		}
	}
}

// ScriptedRupture returns predetermined occurrence counts in draw order and
// zero once the script is exhausted.
//
// The batch sampler draws cells samples-first then SES indices, so a script
// of [1, 0] with samples=1 and ses=2 means one occurrence in cell
// (sample 0, ses 1) and none in (sample 0, ses 2).
//
// ScriptedRupture is single-use: it is consumed as it is drawn from. Tests
// that sample the same source twice should rebuild their sources, or use
// BernoulliRupture, whose draws depend only on the supplied stream.
type ScriptedRupture struct {
	Counts []int
	next   int
}

// SampleOccurrences implements catalog.Rupture. The rng is ignored.
func (r *ScriptedRupture) SampleOccurrences(*rand.Rand) int {
	if r.next >= len(r.Counts) {
		return 0
	}
	n := r.Counts[r.next]
	r.next++
	return n
}

// Draws reports how many times the rupture has been sampled.
func (r *ScriptedRupture) Draws() int { return r.next }

// BernoulliRupture occurs once with probability P per draw. Its output
// depends only on the supplied stream, so identically seeded runs produce
// identical tallies.
type BernoulliRupture struct {
	P float64
}

// SampleOccurrences implements catalog.Rupture.
func (r *BernoulliRupture) SampleOccurrences(rng *rand.Rand) int {
	if rng.Float64() < r.P {
		return 1
	}
	return 0
}

// SIDsContext is a ContextMaker fake returning fixed site indices for every
// rupture, with an optional per-rupture override and far-away set.
type SIDsContext struct {
	SIDs []uint32

	// FarAway marks ruptures to reject with catalog.ErrFarAway.
	FarAway map[catalog.Rupture]bool

	// Err, when set, is returned for every rupture.
	Err error
}

// MakeContext implements the sampler's ContextMaker contract.
func (c *SIDsContext) MakeContext(sites *catalog.SiteCollection, rup catalog.Rupture) (catalog.RuptureContext, error) {
	if c.Err != nil {
		return catalog.RuptureContext{}, c.Err
	}
	if c.FarAway[rup] {
		return catalog.RuptureContext{}, catalog.ErrFarAway
	}
	sids := c.SIDs
	if sids == nil && sites != nil {
		sids = sites.SIDs()
	}
	return catalog.RuptureContext{SIDs: sids}, nil
}
