package sampler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/hazardlab/sesgen/internal/catalog"
	"github.com/hazardlab/sesgen/internal/monitor"
)

// ContextMaker is the externally supplied ground-motion context builder.
// Given the site collection and a rupture that occurred at least once, it
// computes the affected-site context, or returns catalog.ErrFarAway when the
// rupture is beyond the integration distance from every site.
type ContextMaker interface {
	MakeContext(sites *catalog.SiteCollection, rup catalog.Rupture) (catalog.RuptureContext, error)
}

// SourceFilter decides which (source, sites) pairs take part in a
// calculation. Implementations typically prefilter sources against the site
// collection using the integration distance; the filter also decides which
// sites each surviving source is scoped to.
type SourceFilter interface {
	// Pairs lazily yields the surviving sources with their filtered sites.
	Pairs(sources []catalog.Source, sites *catalog.SiteCollection) iter.Seq2[catalog.Source, *catalog.SiteCollection]

	// IntegrationDistance is the maximum source-to-site distance in km
	// beyond which a rupture's effect is considered negligible.
	IntegrationDistance() float64
}

// NoopFilter passes every source through unfiltered, scoped to the full site
// collection. Used when no sites are given or when filtering happened
// upstream.
type NoopFilter struct{}

// Pairs yields every source with the unmodified site collection.
func (NoopFilter) Pairs(sources []catalog.Source, sites *catalog.SiteCollection) iter.Seq2[catalog.Source, *catalog.SiteCollection] {
	return func(yield func(catalog.Source, *catalog.SiteCollection) bool) {
		for _, src := range sources {
			if !yield(src, sites) {
				return
			}
		}
	}
}

// IntegrationDistance is unbounded for the no-op filter.
func (NoopFilter) IntegrationDistance() float64 { return math.Inf(1) }

// makeContext invokes the context builder under the "making contexts" monitor
// region, keeping geometry-bound cost disjoint from per-source sampling cost.
//
// The second return value reports whether the rupture survived: a false with
// a nil error means the rupture was too far from every site and must be
// discarded together with its tally entry.
func makeContext(ctx context.Context, cmaker ContextMaker, sites *catalog.SiteCollection,
	rup catalog.Rupture, ctxMon *monitor.Monitor) (catalog.RuptureContext, bool, error) {

	_, stop := ctxMon.Start(ctx)
	defer stop()

	rctx, err := cmaker.MakeContext(sites, rup)
	if errors.Is(err, catalog.ErrFarAway) {
		return catalog.RuptureContext{}, false, nil
	}
	if err != nil {
		return catalog.RuptureContext{}, false, fmt.Errorf("make context: %w", err)
	}
	return rctx, true, nil
}
