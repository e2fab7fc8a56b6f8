package catalog

import (
	"errors"
	"iter"
	"math/rand"
)

// ErrFarAway is the distinguished signal returned by a ContextMaker when a
// rupture is farther than the integration distance from every site. It is an
// expected structural outcome, not a failure: the sampler silently drops the
// rupture and reclaims its tally entry.
var ErrFarAway = errors.New("rupture is farther than the integration distance from every site")

// Rupture is a single possible earthquake event definition with an associated
// occurrence-probability model.
//
// SampleOccurrences draws one occurrence count from that model using the
// supplied stream. Which stream is supplied is the caller's reproducibility
// contract: the batch sampler derives one stream per rupture from the master
// seed, while the exploratory event set generator feeds every rupture from a
// single caller-owned stream.
type Rupture interface {
	// SampleOccurrences returns a non-negative occurrence count drawn from
	// the rupture's occurrence-probability model.
	SampleOccurrences(rng *rand.Rand) int
}

// Source is a seismic source: a generator of ruptures with a stable
// numbering scheme.
//
// INVARIANTS:
//   - Ruptures() enumerates in the same order on every call.
//   - Serial(i) is assigned before sampling and never changes.
//   - NumRuptures() counts every enumerable rupture, whether or not it
//     survives occurrence sampling or distance filtering.
type Source interface {
	// ID identifies the source within its model, for error attribution
	// and timing records.
	ID() string

	// GroupID is the source-group identifier stamped on every event the
	// source produces.
	GroupID() uint16

	// NumRuptures is the declared rupture count.
	NumRuptures() int

	// Serial returns the seed base for the i-th rupture (0-based).
	// Serial numbers are assigned upstream and are expected to be unique
	// across the whole source model.
	Serial(i int) int64

	// Ruptures lazily enumerates the source's ruptures in stable order.
	// On failure the sequence yields (nil, err) once and stops.
	Ruptures() iter.Seq2[Rupture, error]
}

// SiteCollection is the ordered set of sites of interest for a calculation.
// Geometry is out of scope here: sites are opaque labels, and site indices
// (sids) are positions in this collection.
type SiteCollection struct {
	names []string
}

// NewSiteCollection builds a collection from ordered site labels.
func NewSiteCollection(names []string) *SiteCollection {
	c := &SiteCollection{names: make([]string, len(names))}
	copy(c.names, names)
	return c
}

// Len returns the number of sites.
func (c *SiteCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Name returns the label of the i-th site.
func (c *SiteCollection) Name(i int) string { return c.names[i] }

// SIDs returns the ordered site indices 0..Len-1.
func (c *SiteCollection) SIDs() []uint32 {
	sids := make([]uint32, c.Len())
	for i := range sids {
		sids[i] = uint32(i)
	}
	return sids
}

// RuptureContext is the affected-site context computed for one rupture by an
// external context builder.
type RuptureContext struct {
	// SIDs are the ordered indices of the sites affected by the rupture.
	SIDs []uint32
}
