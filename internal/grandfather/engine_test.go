package grandfather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntwise/drawcore/internal/points"
)

// pointsInYears builds timestamped points for the given acquisition years.
func pointsInYears(years ...int) []points.TimestampedPoint {
	pts := make([]points.TimestampedPoint, len(years))
	for i, y := range years {
		pts[i] = points.TimestampedPoint{AcquiredYear: y, Method: points.MethodApplication}
	}
	return pts
}

// TestBuildTimestampedPoints tests filtering a history to one pair.
func TestBuildTimestampedPoints(t *testing.T) {
	history := []points.AcquisitionRecord{
		{StateID: "WY", SpeciesID: "elk", AcquiredYear: 2023, Method: points.MethodApplication},
		{StateID: "WY", SpeciesID: "deer", AcquiredYear: 2024, Method: points.MethodPurchase},
		{StateID: "MT", SpeciesID: "elk", AcquiredYear: 2025, Method: points.MethodUnknown},
		{StateID: "WY", SpeciesID: "elk", AcquiredYear: 2026, Method: points.MethodPurchase},
	}

	pts := BuildTimestampedPoints(history, "WY", "elk")
	require.Len(t, pts, 2)
	assert.Equal(t, 2023, pts[0].AcquiredYear)
	assert.Equal(t, points.MethodPurchase, pts[1].Method)

	assert.Empty(t, BuildTimestampedPoints(history, "CO", "elk"))
}

// TestSplitByEpoch_Boundary tests the strictly-before-cutoff rule.
func TestSplitByEpoch_Boundary(t *testing.T) {
	epoch := Epoch{ID: "wy", StateID: "WY", CutoffYear: 2027}

	legacy, modern := SplitByEpoch(pointsInYears(2025, 2026, 2027, 2028), epoch)
	assert.Len(t, legacy, 2, "2025 and 2026 are legacy")
	assert.Len(t, modern, 2, "the cutoff year itself is modern")
}

// TestComputeEffectivePoints_GrandfatherBoundary tests the WY scenario:
// cutoff 2027, points 2022-2028, evaluated 2028.
func TestComputeEffectivePoints_GrandfatherBoundary(t *testing.T) {
	r := NewRegistry(Epoch{ID: "wy-2027", StateID: "WY", CutoffYear: 2027, ConversionRatio: 1.0})

	pts := pointsInYears(2022, 2023, 2024, 2025, 2026, 2027, 2028)
	res := r.ComputeEffectivePoints(pts, "WY", "elk", 2028)

	assert.Equal(t, 5, res.LegacyCount)
	assert.Equal(t, 2, res.ModernCount)
	assert.Equal(t, 7.0, res.EffectivePoints)
	assert.True(t, res.Grandfathered)
	assert.Contains(t, res.Explanation, "legacy points")
	assert.Contains(t, res.Explanation, "grandfather clause")
}

// TestComputeEffectivePoints_ConversionRatio tests the MT ratio: 4 legacy at
// 1.5 plus 2 modern = 8, exactly.
func TestComputeEffectivePoints_ConversionRatio(t *testing.T) {
	r := NewRegistry(Epoch{ID: "mt-2024", StateID: "MT", CutoffYear: 2024, ConversionRatio: 1.5})

	pts := pointsInYears(2020, 2021, 2022, 2023, 2024, 2025)
	res := r.ComputeEffectivePoints(pts, "MT", "deer", 2025)

	assert.Equal(t, 6.0, res.LegacyValue)
	assert.Equal(t, 2.0, res.ModernValue)
	assert.Equal(t, 8.0, res.EffectivePoints)
	assert.True(t, res.Grandfathered)
}

// TestComputeEffectivePoints_SunsetExpiry tests that an expired sunset
// values legacy points at face value.
func TestComputeEffectivePoints_SunsetExpiry(t *testing.T) {
	r := NewRegistry(Epoch{
		ID: "mt-2024", StateID: "MT", CutoffYear: 2024,
		ConversionRatio: 1.5, SunsetYears: sunset(5),
	})
	pts := pointsInYears(2020, 2021, 2022, 2023)

	// 2029 is exactly 5 years past the cutoff: still active (inclusive).
	res := r.ComputeEffectivePoints(pts, "MT", "elk", 2029)
	assert.True(t, res.Grandfathered)
	assert.Equal(t, 6.0, res.EffectivePoints)

	// 2030 is past the sunset: expired, face value, no 1.5x.
	res = r.ComputeEffectivePoints(pts, "MT", "elk", 2030)
	assert.False(t, res.Grandfathered)
	assert.Equal(t, 4.0, res.EffectivePoints)
	assert.Contains(t, res.Explanation, "expired")
}

// TestComputeEffectivePoints_NoEpoch tests face value for unregistered
// pairs.
func TestComputeEffectivePoints_NoEpoch(t *testing.T) {
	r := NewRegistry()

	res := r.ComputeEffectivePoints(pointsInYears(2024, 2025, 2026), "NV", "sheep", 2026)
	assert.Nil(t, res.AppliedEpoch)
	assert.False(t, res.Grandfathered)
	assert.Equal(t, 3.0, res.EffectivePoints)
	assert.Contains(t, res.Explanation, "No regulatory change applies.")
}

// TestComputeEffectivePoints_ZeroLegacyUnderActiveEpoch tests that a purely
// modern holding is not grandfathered even though an epoch exists.
func TestComputeEffectivePoints_ZeroLegacyUnderActiveEpoch(t *testing.T) {
	r := NewRegistry(Epoch{ID: "wy-2027", StateID: "WY", CutoffYear: 2027, ConversionRatio: 1.3})

	res := r.ComputeEffectivePoints(pointsInYears(2027, 2028), "WY", "elk", 2028)
	require.NotNil(t, res.AppliedEpoch)
	assert.False(t, res.Grandfathered)
	assert.Equal(t, 2.0, res.EffectivePoints)
}

// TestComputeEffectivePoints_EmptyHolding tests zero points.
func TestComputeEffectivePoints_EmptyHolding(t *testing.T) {
	r := DefaultRegistry()

	res := r.ComputeEffectivePoints(nil, "WY", "elk", 2026)
	assert.Equal(t, 0.0, res.EffectivePoints)
	assert.False(t, res.Grandfathered)
}

// TestLookup_SpecificityResolution tests that a species-scoped epoch beats a
// state-wide one regardless of registration order.
func TestLookup_SpecificityResolution(t *testing.T) {
	stateWide := Epoch{ID: "co-wide", StateID: "CO", CutoffYear: 2025, ConversionRatio: 1.0}
	elkOnly := Epoch{ID: "co-elk", StateID: "CO", SpeciesID: "elk", CutoffYear: 2026, ConversionRatio: 1.25}

	// State-wide registered first.
	r := NewRegistry(stateWide, elkOnly)
	got := r.Lookup("CO", "elk")
	require.NotNil(t, got)
	assert.Equal(t, "co-elk", got.ID)

	// Species-scoped registered first: same resolution.
	r = NewRegistry(elkOnly, stateWide)
	got = r.Lookup("CO", "elk")
	require.NotNil(t, got)
	assert.Equal(t, "co-elk", got.ID)

	// Other species fall back to the state-wide epoch.
	got = r.Lookup("CO", "deer")
	require.NotNil(t, got)
	assert.Equal(t, "co-wide", got.ID)

	// Unregistered state resolves to nothing.
	assert.Nil(t, r.Lookup("AZ", "elk"))
}

// TestEnforcePointCap_GrandfatheredExempt tests cap exemption for
// pre-cutoff holders.
func TestEnforcePointCap_GrandfatheredExempt(t *testing.T) {
	r := NewRegistry(Epoch{ID: "wy-2027", StateID: "WY", CutoffYear: 2027, ConversionRatio: 1.0})

	years := make([]int, 30)
	for i := range years {
		years[i] = 2000 + i // includes plenty of pre-2027 points
	}
	res := r.EnforcePointCap(pointsInYears(years...), "WY", "elk")

	assert.False(t, res.Capped)
	assert.Equal(t, MaxUsablePoints, res.MaxAllowed)
	assert.Contains(t, res.Reason, "Grandfathered")
}

// TestEnforcePointCap_PostCutoffCapped tests the cap on modern-only
// holdings.
func TestEnforcePointCap_PostCutoffCapped(t *testing.T) {
	r := NewRegistry(Epoch{ID: "wy-2027", StateID: "WY", CutoffYear: 2027, ConversionRatio: 1.0})

	res := r.EnforcePointCap(pointsInYears(2027, 2028, 2029), "WY", "elk")
	assert.True(t, res.Capped)
	assert.Equal(t, MaxUsablePoints, res.MaxAllowed)
	assert.Contains(t, res.Reason, "25")
}

// TestEnforcePointCap_NoEpoch tests that the cap applies where no epoch
// shields the holder.
func TestEnforcePointCap_NoEpoch(t *testing.T) {
	r := NewRegistry()

	res := r.EnforcePointCap(pointsInYears(2020, 2021), "NV", "sheep")
	assert.True(t, res.Capped)
	assert.Contains(t, res.Reason, "25")
}

// TestAnalyzeTransitionImpact tests per-pair advisories.
func TestAnalyzeTransitionImpact(t *testing.T) {
	r := NewRegistry(
		Epoch{ID: "wy-2027", StateID: "WY", CutoffYear: 2027, ConversionRatio: 1.0},
	)

	history := []points.AcquisitionRecord{
		{StateID: "WY", SpeciesID: "elk", AcquiredYear: 2025, Method: points.MethodApplication},
		{StateID: "WY", SpeciesID: "elk", AcquiredYear: 2027, Method: points.MethodApplication},
		{StateID: "NV", SpeciesID: "sheep", AcquiredYear: 2026, Method: points.MethodPurchase},
	}

	entries := r.AnalyzeTransitionImpact(history, 2028)
	require.Len(t, entries, 2)

	assert.Equal(t, "WY", entries[0].StateID)
	assert.True(t, entries[0].Result.Grandfathered)
	assert.Contains(t, entries[0].Advisory, "grandfathered")

	assert.Equal(t, "NV", entries[1].StateID)
	assert.False(t, entries[1].Result.Grandfathered)
	assert.Contains(t, entries[1].Advisory, "not grandfathered")
}

// TestDefaultRegistry tests the registered rule changes resolve.
func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	require.NotNil(t, r.Lookup("WY", "elk"))
	require.NotNil(t, r.Lookup("MT", "deer"))

	co := r.Lookup("CO", "elk")
	require.NotNil(t, co)
	assert.Equal(t, "co-2026-elk-hybrid", co.ID)
	assert.Nil(t, r.Lookup("CO", "deer"), "CO change is elk-scoped")
}
