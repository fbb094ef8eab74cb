package grandfather

import (
	"fmt"

	"github.com/huntwise/drawcore/internal/points"
)

// BuildTimestampedPoints filters an acquisition history down to the matching
// (state, species) pair, keeping only year and method.
func BuildTimestampedPoints(history []points.AcquisitionRecord, stateID, speciesID string) []points.TimestampedPoint {
	out := []points.TimestampedPoint{}
	for _, rec := range history {
		if rec.StateID == stateID && rec.SpeciesID == speciesID {
			out = append(out, points.TimestampedPoint{
				AcquiredYear: rec.AcquiredYear,
				Method:       rec.Method,
			})
		}
	}
	return out
}

// SplitByEpoch partitions points around an epoch's cutoff year. Points
// acquired strictly before the cutoff are legacy; the cutoff year itself and
// later are modern.
func SplitByEpoch(pts []points.TimestampedPoint, epoch Epoch) (legacy, modern []points.TimestampedPoint) {
	legacy = []points.TimestampedPoint{}
	modern = []points.TimestampedPoint{}
	for _, p := range pts {
		if p.AcquiredYear < epoch.CutoffYear {
			legacy = append(legacy, p)
		} else {
			modern = append(modern, p)
		}
	}
	return legacy, modern
}

// EffectiveResult is the valuation of a point holding at an evaluation year.
//
// Counts and ratios are plain decimal numbers; the conversion multiplication
// is exact (4 points x 1.5 = 6.0) and no rounding is applied here - display
// rounding belongs to the presentation layer.
type EffectiveResult struct {
	StateID         string  `json:"state_id"`
	SpeciesID       string  `json:"species_id"`
	EvaluationYear  int     `json:"evaluation_year"`
	AppliedEpoch    *Epoch  `json:"applied_epoch,omitempty"`
	Grandfathered   bool    `json:"grandfathered"`
	LegacyCount     int     `json:"legacy_count"`
	ModernCount     int     `json:"modern_count"`
	LegacyValue     float64 `json:"legacy_value"`
	ModernValue     float64 `json:"modern_value"`
	EffectivePoints float64 `json:"effective_points"`
	Explanation     string  `json:"explanation"`
}

// ComputeEffectivePoints values a point holding for a (state, species) pair
// at the given evaluation year.
//
// Resolution order:
//  1. No registered epoch: face value, not grandfathered.
//  2. Epoch with expired sunset: face value for everyone; the old
//     protection no longer inflates legacy points.
//  3. Active epoch: legacy points worth ConversionRatio each, modern points
//     worth 1; grandfathered whenever any legacy points exist.
func (r *Registry) ComputeEffectivePoints(pts []points.TimestampedPoint, stateID, speciesID string, evaluationYear int) EffectiveResult {
	res := EffectiveResult{
		StateID:        stateID,
		SpeciesID:      speciesID,
		EvaluationYear: evaluationYear,
	}

	epoch := r.Lookup(stateID, speciesID)
	if epoch == nil {
		res.ModernCount = len(pts)
		res.ModernValue = float64(len(pts))
		res.EffectivePoints = float64(len(pts))
		res.Explanation = fmt.Sprintf("No regulatory change applies. %d points at face value.", len(pts))
		return res
	}

	res.AppliedEpoch = epoch
	legacy, modern := SplitByEpoch(pts, *epoch)
	res.LegacyCount = len(legacy)
	res.ModernCount = len(modern)

	if !epoch.SunsetActive(evaluationYear) {
		// Sunset expired: legacy points fall back to face value, ratio 1.
		res.LegacyValue = float64(len(legacy))
		res.ModernValue = float64(len(modern))
		res.EffectivePoints = res.LegacyValue + res.ModernValue
		res.Explanation = fmt.Sprintf(
			"Grandfather protection under %s expired %d years after the %d cutoff; all %d points at face value.",
			epoch.ID, *epoch.SunsetYears, epoch.CutoffYear, len(pts))
		return res
	}

	res.LegacyValue = float64(len(legacy)) * epoch.ConversionRatio
	res.ModernValue = float64(len(modern))
	res.EffectivePoints = res.LegacyValue + res.ModernValue

	if len(legacy) > 0 {
		res.Grandfathered = true
		res.Explanation = fmt.Sprintf(
			"%d legacy points acquired before the %d cutoff are protected by the grandfather clause under %s (ratio %g), plus %d modern points.",
			len(legacy), epoch.CutoffYear, epoch.ID, epoch.ConversionRatio, len(modern))
	} else {
		// An epoch exists but this holding postdates it entirely.
		res.Explanation = fmt.Sprintf(
			"All %d points acquired on or after the %d cutoff of %s; face value, no grandfathering needed.",
			len(modern), epoch.CutoffYear, epoch.ID)
	}

	return res
}

// ImpactEntry is a human-readable advisory for one (state, species) holding.
type ImpactEntry struct {
	StateID   string          `json:"state_id"`
	SpeciesID string          `json:"species_id"`
	Result    EffectiveResult `json:"result"`
	Advisory  string          `json:"advisory"`
}

// AnalyzeTransitionImpact runs ComputeEffectivePoints for every distinct
// (state, species) pair in a history and summarizes each as an advisory.
// Entries are ordered by first appearance in the history.
func (r *Registry) AnalyzeTransitionImpact(history []points.AcquisitionRecord, evaluationYear int) []ImpactEntry {
	type pair struct{ state, species string }
	seen := map[pair]bool{}
	order := []pair{}
	for _, rec := range history {
		p := pair{rec.StateID, rec.SpeciesID}
		if !seen[p] {
			seen[p] = true
			order = append(order, p)
		}
	}

	entries := []ImpactEntry{}
	for _, p := range order {
		pts := BuildTimestampedPoints(history, p.state, p.species)
		res := r.ComputeEffectivePoints(pts, p.state, p.species, evaluationYear)

		var advisory string
		if res.Grandfathered {
			advisory = fmt.Sprintf(
				"%s/%s: grandfathered - %d points worth %g under current rules.",
				p.state, p.species, len(pts), res.EffectivePoints)
		} else {
			advisory = fmt.Sprintf(
				"%s/%s: not grandfathered - %d points worth %g under current rules.",
				p.state, p.species, len(pts), res.EffectivePoints)
		}

		entries = append(entries, ImpactEntry{
			StateID:   p.state,
			SpeciesID: p.species,
			Result:    res,
			Advisory:  advisory,
		})
	}
	return entries
}
