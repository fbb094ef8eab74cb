package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntwise/drawcore/internal/points"
)

// TestDetectVersion_AbsentMeansV1 tests the pre-tag format signal.
func TestDetectVersion_AbsentMeansV1(t *testing.T) {
	assert.Equal(t, 1, DetectVersion(Snapshot{"homeState": "CO"}))
}

// TestDetectVersion_Present tests explicit version values.
func TestDetectVersion_Present(t *testing.T) {
	assert.Equal(t, 3, DetectVersion(Snapshot{VersionField: 3}))
	assert.Equal(t, 4, DetectVersion(Snapshot{VersionField: float64(4)}), "JSON-decoded versions are float64")
}

// TestDetectVersion_ClampsBelowMinimum tests malformed/ancient versions.
func TestDetectVersion_ClampsBelowMinimum(t *testing.T) {
	assert.Equal(t, MinSupportedVersion, DetectVersion(Snapshot{VersionField: 0}))
	assert.Equal(t, MinSupportedVersion, DetectVersion(Snapshot{VersionField: -2}))
	assert.Equal(t, MinSupportedVersion, DetectVersion(Snapshot{VersionField: "garbage"}))
}

// TestMigrate_CurrentVersionUntouched tests the no-op path.
func TestMigrate_CurrentVersionUntouched(t *testing.T) {
	s := NewCurrentSnapshot(nil)

	res := Migrate(s)
	assert.False(t, res.Migrated)
	assert.Equal(t, CurrentSchemaVersion, res.FromVersion)
	assert.Equal(t, CurrentSchemaVersion, res.ToVersion)
	assert.Empty(t, res.AddedFields)

	// Same object, not a copy: nothing to rewrite.
	assert.Equal(t, s, res.State)
}

// TestMigrate_Idempotent tests that migrating twice is a no-op the second
// time and yields an identical state.
func TestMigrate_Idempotent(t *testing.T) {
	first := MigrateAt(NewV1Snapshot(nil), 2026)
	require.True(t, first.Migrated)

	second := MigrateAt(first.State, 2026)
	assert.False(t, second.Migrated)
	assert.Equal(t, first.State, second.State)
}

// TestMigrate_PreservesInputVerbatim tests field preservation and
// copy-on-write.
func TestMigrate_PreservesInputVerbatim(t *testing.T) {
	in := NewV1Snapshot(Snapshot{"homeCity": "Bozeman"})
	inLen := len(in)

	res := MigrateAt(in, 2026)
	require.True(t, res.Migrated)

	// Every input field survives with its value.
	for k, v := range in {
		assert.Equal(t, v, res.State[k], "field %s must be preserved", k)
	}

	// Input not mutated in place.
	assert.Len(t, in, inLen)
	_, leaked := in[VersionField]
	assert.False(t, leaked, "input must not gain the version field")
}

// TestMigrate_DefaultsNewFields tests scalar nil defaults and empty
// collection defaults.
func TestMigrate_DefaultsNewFields(t *testing.T) {
	res := MigrateAt(NewV1Snapshot(nil), 2026)
	require.True(t, res.Migrated)

	v, ok := res.State["weaponType"]
	assert.True(t, ok)
	assert.Nil(t, v)

	v, ok = res.State["outfitterLicenseNumber"]
	assert.True(t, ok)
	assert.Nil(t, v)

	assert.Equal(t, map[string]any{}, res.State["weaponSeasons"])
	assert.Equal(t, []any{}, res.State["partyMembers"])
	assert.Equal(t, CurrentSchemaVersion, res.State[VersionField])
}

// TestMigrate_AddedFieldsListed tests the audit trail.
func TestMigrate_AddedFieldsListed(t *testing.T) {
	res := MigrateAt(NewV1Snapshot(nil), 2026)
	require.True(t, res.Migrated)

	assert.ElementsMatch(t, []string{
		VersionField,
		"weaponType",
		"outfitterLicenseNumber",
		"weaponSeasons",
		"partyMembers",
		"pointAcquisitionHistory",
	}, res.AddedFields)
}

// TestMigrate_BackfillConservation tests that a legacy count of 5 produces
// exactly 5 records on consecutive years ending at the anchor, oldest first.
func TestMigrate_BackfillConservation(t *testing.T) {
	in := NewV1Snapshot(Snapshot{
		"existingPoints": map[string]any{
			"WY": map[string]any{"elk": float64(5)},
		},
	})

	res := MigrateAt(in, 2026)
	require.True(t, res.Migrated)

	history, ok := res.State["pointAcquisitionHistory"].([]points.AcquisitionRecord)
	require.True(t, ok)
	require.Len(t, history, 5)

	for i, rec := range history {
		assert.Equal(t, "WY", rec.StateID)
		assert.Equal(t, "elk", rec.SpeciesID)
		assert.Equal(t, points.MethodUnknown, rec.Method)
		assert.Equal(t, 2022+i, rec.AcquiredYear, "years are consecutive, oldest first")
	}
	assert.Less(t, history[0].AcquiredYear, history[4].AcquiredYear)
	assert.Equal(t, 2026, history[4].AcquiredYear, "newest record lands on the anchor year")
}

// TestMigrate_BackfillMultiplePairs tests deterministic ordering across
// several (state, species) pairs.
func TestMigrate_BackfillMultiplePairs(t *testing.T) {
	in := NewV1Snapshot(Snapshot{
		"existingPoints": map[string]any{
			"WY": map[string]any{"elk": float64(2), "deer": float64(1)},
			"MT": map[string]any{"elk": float64(1)},
		},
	})

	res := MigrateAt(in, 2026)
	history := res.State["pointAcquisitionHistory"].([]points.AcquisitionRecord)
	require.Len(t, history, 4)

	// States and species visited in sorted order.
	assert.Equal(t, "MT", history[0].StateID)
	assert.Equal(t, "deer", history[1].SpeciesID)
	assert.Equal(t, "elk", history[2].SpeciesID)
	assert.Equal(t, 2025, history[2].AcquiredYear)
	assert.Equal(t, 2026, history[3].AcquiredYear)
}

// TestMigrate_EmptyExistingPoints tests backfill with nothing to reconstruct.
func TestMigrate_EmptyExistingPoints(t *testing.T) {
	in := NewV1Snapshot(Snapshot{"existingPoints": map[string]any{}})

	res := MigrateAt(in, 2026)
	history := res.State["pointAcquisitionHistory"].([]points.AcquisitionRecord)
	assert.Empty(t, history)
}

// TestMigrate_MalformedVersionMigratesForward tests that junk versions are
// clamped and migrated rather than rejected.
func TestMigrate_MalformedVersionMigratesForward(t *testing.T) {
	in := NewV1Snapshot(Snapshot{VersionField: 0})

	res := MigrateAt(in, 2026)
	assert.True(t, res.Migrated)
	assert.Equal(t, MinSupportedVersion, res.FromVersion)
	assert.Equal(t, CurrentSchemaVersion, res.ToVersion)
}

// TestMigrate_IntermediateVersion tests migration from v3: only the v4
// fields are added.
func TestMigrate_IntermediateVersion(t *testing.T) {
	in := NewV1Snapshot(Snapshot{
		VersionField:             3,
		"weaponType":             "archery",
		"outfitterLicenseNumber": nil,
		"weaponSeasons":          map[string]any{"WY": "archery-sep"},
		"partyMembers":           []any{"p-1"},
	})

	res := MigrateAt(in, 2026)
	require.True(t, res.Migrated)
	assert.Equal(t, 3, res.FromVersion)
	assert.ElementsMatch(t, []string{"pointAcquisitionHistory"}, res.AddedFields)

	// v3 values untouched.
	assert.Equal(t, "archery", res.State["weaponType"])
	assert.Equal(t, map[string]any{"WY": "archery-sep"}, res.State["weaponSeasons"])
}

// TestValidateSchema tests missing-field reporting.
func TestValidateSchema(t *testing.T) {
	assert.Empty(t, ValidateSchema(NewCurrentSnapshot(nil)))

	missing := ValidateSchema(Snapshot{"homeState": "CO"})
	assert.Contains(t, missing, "pointAcquisitionHistory")
	assert.Contains(t, missing, "weaponSeasons")
	assert.NotContains(t, missing, "homeState")
}

// TestValidateSchema_AfterMigration tests that migration leaves nothing
// missing.
func TestValidateSchema_AfterMigration(t *testing.T) {
	res := MigrateAt(NewV1Snapshot(nil), 2026)
	assert.Empty(t, ValidateSchema(res.State))
}
