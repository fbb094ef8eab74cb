package schema

import (
	"slices"

	"github.com/huntwise/drawcore/internal/points"
)

// sortFields orders field names for stable AddedFields output.
func sortFields(fields []string) {
	slices.Sort(fields)
}

// sortedKeys returns map keys in sorted order so backfilled history is
// deterministic regardless of map iteration order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// NewV1Snapshot builds an oldest-format snapshot (no version field) for
// tests. Overrides are applied on top of the defaults; a nil override map is
// fine. Fixture builder, not production logic.
func NewV1Snapshot(overrides Snapshot) Snapshot {
	s := Snapshot{
		"homeState":               "CO",
		"homeCity":                "Denver",
		"species":                 []any{"elk", "deer"},
		"pointYearBudget":         float64(1500),
		"huntYearBudget":          float64(6000),
		"selectedStatesConfirmed": []any{"WY", "MT"},
		"existingPoints": map[string]any{
			"WY": map[string]any{"elk": float64(5)},
		},
	}
	for k, v := range overrides {
		s[k] = v
	}
	return s
}

// NewCurrentSnapshot builds a fully migrated current-version snapshot for
// tests. Fixture builder, not production logic.
func NewCurrentSnapshot(overrides Snapshot) Snapshot {
	s := Snapshot{
		VersionField:              CurrentSchemaVersion,
		"homeState":               "CO",
		"homeCity":                "Denver",
		"species":                 []any{"elk", "deer"},
		"pointYearBudget":         float64(1500),
		"huntYearBudget":          float64(6000),
		"selectedStatesConfirmed": []any{"WY", "MT"},
		"weaponType":              "rifle",
		"outfitterLicenseNumber":  nil,
		"weaponSeasons":           map[string]any{},
		"partyMembers":            []any{},
		"pointAcquisitionHistory": []points.AcquisitionRecord{},
		"existingPoints":          map[string]any{},
	}
	for k, v := range overrides {
		s[k] = v
	}
	return s
}
