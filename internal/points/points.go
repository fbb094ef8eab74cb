// Package points defines the shared point-acquisition record types consumed
// by the schema migration and grandfather clause packages.
//
// A user's accumulated standing in a jurisdiction is not a single number but
// a sequence of timestamped acquisitions. Every downstream valuation (epoch
// splits, conversion ratios, caps) operates on these records.
package points

// Method records how a point was acquired.
type Method string

const (
	// MethodApplication is a point earned through an unsuccessful application.
	MethodApplication Method = "application"
	// MethodPurchase is a point bought directly (point-only purchase).
	MethodPurchase Method = "purchase"
	// MethodUnknown marks records reconstructed from legacy aggregate counts,
	// where the original acquisition method was never tracked.
	MethodUnknown Method = "unknown"
)

// ValidMethods defines the allowed acquisition methods.
var ValidMethods = map[Method]bool{
	MethodApplication: true,
	MethodPurchase:    true,
	MethodUnknown:     true,
}

// AcquisitionRecord is one unit of accumulated preference/bonus standing,
// timestamped to the year it was earned.
//
// INVARIANT: the count of records for a (state, species) pair never decreases
// except through an explicit draw-outcome mutation, which the host performs
// under the idempotency guard.
type AcquisitionRecord struct {
	StateID      string `json:"state_id"`
	SpeciesID    string `json:"species_id"`
	AcquiredYear int    `json:"acquired_year"`
	Method       Method `json:"method"`
}

// TimestampedPoint is the atomic unit consumed by the grandfather clause
// engine: an acquisition record filtered down to a single (state, species),
// so only the year and method remain.
type TimestampedPoint struct {
	AcquiredYear int    `json:"acquired_year"`
	Method       Method `json:"method"`
}
