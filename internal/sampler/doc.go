// Package sampler is the stochastic event set engine: given seismic sources,
// it produces concrete, reproducible realizations of "what could happen"
// over a chosen time span.
//
// Two entry points with two distinct reproducibility disciplines:
//
//   - SampleRuptures is the batch pipeline. Every rupture samples from its
//     own PRNG stream derived from source.Serial(i) + masterSeed, so the same
//     master seed, sources, and grid dimensions always produce the same
//     events, regardless of which worker processes which source.
//
//   - EventSet is the exploratory lazy generator. All ruptures draw from a
//     single caller-owned stream with no per-rupture reseeding; its output
//     depends on whatever state that stream is in. The divergence is
//     deliberate and both modes are kept separate.
//
// The engine is single-threaded and synchronous. Distributing source batches
// across workers is the caller's concern; the event-ID block scheme makes the
// resulting lack of cross-source ordering harmless.
package sampler
