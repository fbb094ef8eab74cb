package grandfather

import (
	"fmt"

	"github.com/huntwise/drawcore/internal/points"
)

// MaxUsablePoints is the fixed cap on total usable points per (state,
// species) holding. The cap arrived with the epoch rule changes, so
// pre-cutoff accumulators are shielded from it by the grandfather clause.
const MaxUsablePoints = 25

// CapResult reports whether the usable-points cap applies to a holding.
type CapResult struct {
	Capped     bool   `json:"capped"`
	MaxAllowed int    `json:"max_allowed"`
	Reason     string `json:"reason"`
}

// EnforcePointCap applies the usable-points cap to a holding.
//
// A holder with any point acquired before the applicable epoch's cutoff is
// exempt. A holding entirely on or after the cutoff - or one with no
// applicable epoch at all - is subject to the cap at MaxAllowed.
func (r *Registry) EnforcePointCap(pts []points.TimestampedPoint, stateID, speciesID string) CapResult {
	epoch := r.Lookup(stateID, speciesID)

	if epoch != nil {
		for _, p := range pts {
			if p.AcquiredYear < epoch.CutoffYear {
				return CapResult{
					Capped:     false,
					MaxAllowed: MaxUsablePoints,
					Reason:     fmt.Sprintf("Grandfathered: holds points acquired before the %d cutoff of %s.", epoch.CutoffYear, epoch.ID),
				}
			}
		}
	}

	return CapResult{
		Capped:     true,
		MaxAllowed: MaxUsablePoints,
		Reason:     fmt.Sprintf("Capped at %d usable points.", MaxUsablePoints),
	}
}
