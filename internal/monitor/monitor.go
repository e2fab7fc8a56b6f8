// Package monitor provides named, scoped timing regions for the sampling
// pipeline. A Monitor measures elapsed wall time for a region of code and
// emits an OpenTelemetry span for it; named sub-monitors form disjoint
// buckets, so geometry-bound cost ("making contexts") can be profiled
// separately from per-source sampling cost.
//
// Monitors only measure - they never enforce timeouts or cancellation.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/hazardlab/sesgen/internal/monitor"

// Monitor accumulates elapsed time for one named region.
//
// Thread-safety: accumulation is guarded by a mutex, so a Monitor may be
// shared across goroutines, but the core pipeline is single-threaded and a
// region is normally entered from one goroutine at a time.
type Monitor struct {
	name   string
	tracer trace.Tracer

	mu      sync.Mutex
	elapsed time.Duration
	count   int
	subs    map[string]*Monitor
}

// New creates a root monitor with the given region name.
func New(name string) *Monitor {
	return &Monitor{
		name:   name,
		tracer: otel.Tracer(tracerName),
	}
}

// Sub returns the named sub-region monitor, creating it on first use.
// Sub-regions accumulate independently of their parent.
func (m *Monitor) Sub(name string) *Monitor {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subs == nil {
		m.subs = make(map[string]*Monitor)
	}
	if sub, ok := m.subs[name]; ok {
		return sub
	}
	sub := &Monitor{name: name, tracer: m.tracer}
	m.subs[name] = sub
	return sub
}

// Start enters the region: it opens a span and starts the wall clock.
// The returned stop function ends the span and adds the elapsed time to the
// region's bucket. Typical usage:
//
//	ctx, stop := mon.Start(ctx)
//	defer stop()
func (m *Monitor) Start(ctx context.Context) (context.Context, func()) {
	ctx, span := m.tracer.Start(ctx, m.name)
	t0 := time.Now()
	return ctx, func() {
		dt := time.Since(t0)
		span.End()

		m.mu.Lock()
		m.elapsed += dt
		m.count++
		m.mu.Unlock()
	}
}

// Name returns the region name.
func (m *Monitor) Name() string { return m.name }

// Elapsed returns the total wall time accumulated by the region.
func (m *Monitor) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

// Count returns how many times the region was entered.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
