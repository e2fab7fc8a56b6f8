package catalog

// Event is one concrete, individually identified occurrence of a rupture
// within a specific (sample, SES) cell.
//
// EID is zero at construction; the event-ID allocator fills it in as a single
// batch once all EBRuptures for a source group have been collected.
type Event struct {
	// EID is the globally unique 64-bit event identifier.
	EID uint64 `json:"eid"`

	// GrpID is the source-group identifier of the rupture's source.
	GrpID uint16 `json:"grp_id"`

	// SES is the 1-based stochastic event set index.
	SES uint32 `json:"ses"`

	// Sample is the 0-based logic-tree sample index.
	Sample uint32 `json:"sample"`
}

// EBRupture is an event-based rupture: a rupture bundled with the ordered
// indices of the sites it affects, the concrete events it produced in a
// batch, and its serial number.
//
// EBRuptures are created once by the event builder and never mutated
// afterward, except that the events' EID fields are filled in by SetEventIDs.
type EBRupture struct {
	// Rupture is the underlying rupture definition.
	Rupture Rupture

	// SourceID identifies the source that produced the rupture.
	SourceID string

	// SIDs are the ordered indices of the affected sites.
	SIDs []uint32

	// Events holds one entry per sampled occurrence, ordered by ascending
	// (sample, ses) cell.
	Events []Event

	// Serial is the rupture's serial number. It must be strictly less
	// than 2^32 when event IDs are allocated.
	Serial int64
}

// Multiplicity is the number of events the rupture carries, which equals the
// sum of its surviving occurrence counts across all (sample, ses) cells.
func (e *EBRupture) Multiplicity() int { return len(e.Events) }
