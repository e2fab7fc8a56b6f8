package scenario

import (
	"fmt"
	"iter"
	"math"
	"math/rand"
	"sort"

	"github.com/hazardlab/sesgen/internal/catalog"
	"github.com/hazardlab/sesgen/internal/sampler"
)

// Cell addresses one (logic-tree sample, stochastic event set) position of
// the replication grid in a fixed occurrence model.
type Cell struct {
	Sample int
	SES    int
}

// SourceDef is one compiled source-model definition.
type SourceDef struct {
	ID             string
	Group          uint16
	SerialBase     int64
	TectonicRegion string
	TimeSpanYears  float64
	Ruptures       []RuptureDef
}

// RuptureDef is one rupture definition within a source.
//
// When Occurrences is nil the rupture uses the poisson occurrence model with
// annual rate Rate over the source's time span. When set, the rupture
// produces exactly the declared counts per grid cell - the controllable model
// the conformance tests rely on.
type RuptureDef struct {
	Mag         float64
	Rate        float64
	Occurrences map[Cell]int
	DistanceKm  float64
	SIDs        []uint32
}

// Model is an assembled scenario, ready to feed the sampling pipeline.
type Model struct {
	Sources      []catalog.Source
	Sites        *catalog.SiteCollection
	Params       sampler.Params
	ContextMaker sampler.ContextMaker
	Filter       sampler.SourceFilter
}

// Assemble turns compiled source definitions into engine inputs.
//
// Serial ranges of distinct sources must not overlap: event-ID
// collision-freedom rests on globally unique per-rupture serials.
func (s *Scenario) Assemble(defs []SourceDef) (*Model, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("scenario %s: no source definitions", s.Name)
	}

	params := sampler.Params{
		SESPerLogicTreePath: s.Params.SESPerLogicTreePath,
		Samples:             s.Params.Samples,
		Seed:                s.Params.Seed,
	}

	type serialRange struct {
		id     string
		lo, hi int64 // [lo, hi)
	}
	var ranges []serialRange

	sources := make([]catalog.Source, 0, len(defs))
	for _, def := range defs {
		for _, rd := range def.Ruptures {
			for _, sid := range rd.SIDs {
				if int(sid) >= len(s.Sites) {
					return nil, fmt.Errorf("source %s: site index %d out of range (have %d sites)",
						def.ID, sid, len(s.Sites))
				}
			}
		}
		ranges = append(ranges, serialRange{
			id: def.ID,
			lo: def.SerialBase,
			hi: def.SerialBase + int64(len(def.Ruptures)),
		})
		sources = append(sources, &modelSource{def: def, params: params})
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].lo < ranges[j].lo })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].lo < ranges[i-1].hi {
			return nil, fmt.Errorf("serial ranges of sources %s and %s overlap",
				ranges[i-1].id, ranges[i].id)
		}
	}

	return &Model{
		Sources: sources,
		Sites:   catalog.NewSiteCollection(s.Sites),
		Params:  params,
		ContextMaker: &ContextMaker{
			IntegrationDistanceKm: s.IntegrationDistanceKm,
			GSIMs:                 s.GSIMs,
		},
		Filter: &MaxDistanceFilter{DistKm: s.IntegrationDistanceKm},
	}, nil
}

// modelSource adapts a SourceDef to the catalog.Source contract. Rupture
// instances are built fresh on every enumeration, so fixed occurrence
// scripts restart from the first grid cell each time the source is sampled.
type modelSource struct {
	def    SourceDef
	params sampler.Params
}

func (s *modelSource) ID() string         { return s.def.ID }
func (s *modelSource) GroupID() uint16    { return s.def.Group }
func (s *modelSource) NumRuptures() int   { return len(s.def.Ruptures) }
func (s *modelSource) Serial(i int) int64 { return s.def.SerialBase + int64(i) }

func (s *modelSource) Ruptures() iter.Seq2[catalog.Rupture, error] {
	return func(yield func(catalog.Rupture, error) bool) {
		for i := range s.def.Ruptures {
			rd := &s.def.Ruptures[i]
			var rup catalog.Rupture
			if rd.Occurrences != nil {
				rup = newFixedRupture(rd, s.params.Samples, s.params.SESPerLogicTreePath)
			} else {
				rup = &poissonRupture{def: rd, lambda: rd.Rate * s.def.TimeSpanYears}
			}
			if !yield(rup, nil) {
				return
			}
		}
	}
}

// defRupture is implemented by every scenario rupture, giving the context
// maker and the CLI access to the underlying definition.
type defRupture interface {
	Def() *RuptureDef
}

// poissonRupture occurs a Poisson-distributed number of times per grid cell,
// with mean rate x time span.
type poissonRupture struct {
	def    *RuptureDef
	lambda float64
}

func (r *poissonRupture) Def() *RuptureDef { return r.def }
func (r *poissonRupture) Mag() float64     { return r.def.Mag }

// SampleOccurrences implements catalog.Rupture with Knuth's inversion,
// which is exact and fast for the small means typical of seismic sources.
func (r *poissonRupture) SampleOccurrences(rng *rand.Rand) int {
	if r.lambda <= 0 {
		return 0
	}
	limit := math.Exp(-r.lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// fixedRupture returns the declared per-cell counts in grid draw order
// (samples-first, then SES indices 1..numSES) and ignores the stream. It is
// the workhorse of hand-computable conformance scenarios.
type fixedRupture struct {
	def   *RuptureDef
	draws []int
	next  int
}

func newFixedRupture(def *RuptureDef, numSamples, numSES int) *fixedRupture {
	draws := make([]int, numSamples*numSES)
	for c, n := range def.Occurrences {
		if c.Sample < 0 || c.Sample >= numSamples || c.SES < 1 || c.SES > numSES {
			continue // cells outside the grid are never drawn
		}
		draws[c.Sample*numSES+(c.SES-1)] = n
	}
	return &fixedRupture{def: def, draws: draws}
}

func (r *fixedRupture) Def() *RuptureDef { return r.def }
func (r *fixedRupture) Mag() float64     { return r.def.Mag }

// SampleOccurrences implements catalog.Rupture.
func (r *fixedRupture) SampleOccurrences(*rand.Rand) int {
	if r.next >= len(r.draws) {
		return 0
	}
	n := r.draws[r.next]
	r.next++
	return n
}

// ContextMaker computes affected-site contexts from the declared rupture
// geometry summary: a rupture farther than the integration distance from
// every site is rejected with catalog.ErrFarAway.
type ContextMaker struct {
	IntegrationDistanceKm float64
	GSIMs                 []string
}

// MakeContext implements the sampler's context builder contract.
func (c *ContextMaker) MakeContext(sites *catalog.SiteCollection, rup catalog.Rupture) (catalog.RuptureContext, error) {
	mr, ok := rup.(defRupture)
	if !ok {
		return catalog.RuptureContext{}, fmt.Errorf("rupture %T carries no scenario definition", rup)
	}
	def := mr.Def()
	if def.DistanceKm > c.IntegrationDistanceKm {
		return catalog.RuptureContext{}, catalog.ErrFarAway
	}
	sids := make([]uint32, len(def.SIDs))
	copy(sids, def.SIDs)
	return catalog.RuptureContext{SIDs: sids}, nil
}

// MaxDistanceFilter drops whole sources whose every rupture lies beyond the
// integration distance, before any sampling happens.
type MaxDistanceFilter struct {
	DistKm float64
}

// Pairs implements sampler.SourceFilter.
func (f *MaxDistanceFilter) Pairs(sources []catalog.Source, sites *catalog.SiteCollection) iter.Seq2[catalog.Source, *catalog.SiteCollection] {
	return func(yield func(catalog.Source, *catalog.SiteCollection) bool) {
		for _, src := range sources {
			ms, ok := src.(*modelSource)
			if ok && !f.reachable(ms) {
				continue
			}
			if !yield(src, sites) {
				return
			}
		}
	}
}

// IntegrationDistance implements sampler.SourceFilter.
func (f *MaxDistanceFilter) IntegrationDistance() float64 { return f.DistKm }

func (f *MaxDistanceFilter) reachable(src *modelSource) bool {
	for i := range src.def.Ruptures {
		if src.def.Ruptures[i].DistanceKm <= f.DistKm {
			return true
		}
	}
	return false
}
