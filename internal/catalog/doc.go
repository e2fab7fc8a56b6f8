// Package catalog defines the data model shared by the stochastic event set
// pipeline: the Source and Rupture contracts consumed by the sampler, the
// Event and EBRupture result records it produces, and the canonical JSON
// serialization used for deterministic trace comparison.
//
// Sources and ruptures are externally owned: this package only specifies the
// behavior the sampling engine relies on (a stable rupture enumeration order,
// per-rupture serial numbers, and a per-rupture occurrence-probability model).
package catalog
