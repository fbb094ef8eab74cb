// Package schema detects and upgrades persisted user-state snapshots across
// format versions without data loss.
//
// A snapshot is a flat versioned bag of fields tagged with _schemaVersion.
// The oldest format predates the tag entirely, so its absence is itself the
// version-1 signal. Migration is strictly forward and copy-on-write: the
// input snapshot is never mutated, every input field is preserved verbatim,
// and new fields get safe defaults. The system never refuses to load old
// data - a malformed or ancient version is clamped to the oldest supported
// format and migrated normally.
package schema

import (
	"time"

	"github.com/huntwise/drawcore/internal/points"
)

// Version ladder:
//  1 - base profile (homeState, budgets, species, existingPoints)
//  2 - added weaponType, outfitterLicenseNumber
//  3 - added weaponSeasons, partyMembers
//  4 - added pointAcquisitionHistory (backfilled from existingPoints)
const (
	// CurrentSchemaVersion is the version this package migrates to.
	CurrentSchemaVersion = 4

	// MinSupportedVersion is the floor: anything below (including malformed
	// or zero values) is treated as this version rather than rejected.
	MinSupportedVersion = 1
)

// VersionField is the key carrying the schema version inside a snapshot.
const VersionField = "_schemaVersion"

// Snapshot is a persisted bag of user-state fields. Owned by the host
// application; this package only reads snapshots and produces new ones.
type Snapshot = map[string]any

// RequiredFields lists every field a fully migrated current-version snapshot
// must carry. ValidateSchema reports which of these are missing.
var RequiredFields = []string{
	"homeState",
	"homeCity",
	"species",
	"pointYearBudget",
	"huntYearBudget",
	"selectedStatesConfirmed",
	"weaponType",
	"outfitterLicenseNumber",
	"weaponSeasons",
	"partyMembers",
	"pointAcquisitionHistory",
	"existingPoints",
}

// scalarFieldsByVersion maps each version to the scalar/reference fields it
// introduced. Scalars added by migration default to nil.
var scalarFieldsByVersion = map[int][]string{
	2: {"weaponType", "outfitterLicenseNumber"},
}

// collectionFieldsByVersion maps each version to the collection fields it
// introduced, with their empty defaults.
var collectionFieldsByVersion = map[int]map[string]func() any{
	3: {
		"weaponSeasons": func() any { return map[string]any{} },
		"partyMembers":  func() any { return []any{} },
	},
}

// DetectVersion returns the schema version of a snapshot.
//
// Absence of the version field means version 1 (the pre-tag format).
// A present value below MinSupportedVersion - including non-numeric junk,
// which decodes to zero - is clamped up to MinSupportedVersion.
func DetectVersion(s Snapshot) int {
	raw, ok := s[VersionField]
	if !ok {
		return MinSupportedVersion
	}

	v := 0
	switch n := raw.(type) {
	case int:
		v = n
	case int64:
		v = int(n)
	case float64:
		// JSON decoding lands here.
		v = int(n)
	}

	if v < MinSupportedVersion {
		return MinSupportedVersion
	}
	return v
}

// Result describes one migration run.
type Result struct {
	Migrated    bool
	FromVersion int
	ToVersion   int
	State       Snapshot
	AddedFields []string
}

// Migrate upgrades a snapshot to CurrentSchemaVersion, anchoring the
// point-history backfill at the current wall-clock year.
//
// Migration is idempotent: a snapshot already at the current version is
// returned unchanged with Migrated=false, so migrating twice yields
// identical output.
func Migrate(s Snapshot) Result {
	return MigrateAt(s, time.Now().Year())
}

// MigrateAt is Migrate with an explicit backfill anchor year.
//
// The backfill spreads each legacy point count over consecutive years ending
// at anchorYear. That rule is a best-effort reconstruction with no historical
// ground truth, and it directly affects grandfather-clause eligibility, so
// hosts that know a better anchor (e.g. the year the profile was last active)
// should pass it here instead of relying on "now".
func MigrateAt(s Snapshot, anchorYear int) Result {
	from := DetectVersion(s)
	if from >= CurrentSchemaVersion {
		return Result{
			Migrated:    false,
			FromVersion: from,
			ToVersion:   from,
			State:       s,
		}
	}

	// Copy-on-write: new top-level map, input preserved verbatim.
	state := make(Snapshot, len(s)+8)
	for k, v := range s {
		state[k] = v
	}

	var added []string
	addIfMissing := func(field string, value func() any) {
		if _, ok := state[field]; ok {
			return
		}
		state[field] = value()
		added = append(added, field)
	}

	for v := from + 1; v <= CurrentSchemaVersion; v++ {
		for _, field := range scalarFieldsByVersion[v] {
			addIfMissing(field, func() any { return nil })
		}
		for field, empty := range collectionFieldsByVersion[v] {
			addIfMissing(field, empty)
		}
	}

	if _, ok := state["pointAcquisitionHistory"]; !ok {
		state["pointAcquisitionHistory"] = backfillHistory(s, anchorYear)
		added = append(added, "pointAcquisitionHistory")
	}

	state[VersionField] = CurrentSchemaVersion
	if _, ok := s[VersionField]; !ok {
		added = append(added, VersionField)
	}

	sortFields(added)

	return Result{
		Migrated:    true,
		FromVersion: from,
		ToVersion:   CurrentSchemaVersion,
		State:       state,
		AddedFields: added,
	}
}

// backfillHistory synthesizes acquisition records from the legacy
// existingPoints map ({stateId: {speciesId: count}}).
//
// For a count of N the backfill produces N records with method "unknown" on
// N consecutive years ending at anchorYear, oldest first. This lets every
// downstream computation treat legacy and freshly-tracked points uniformly.
func backfillHistory(s Snapshot, anchorYear int) []points.AcquisitionRecord {
	history := []points.AcquisitionRecord{}

	existing, ok := s["existingPoints"].(map[string]any)
	if !ok {
		return history
	}

	for _, stateID := range sortedKeys(existing) {
		perSpecies, ok := existing[stateID].(map[string]any)
		if !ok {
			continue
		}
		for _, speciesID := range sortedKeys(perSpecies) {
			count := asInt(perSpecies[speciesID])
			for i := 0; i < count; i++ {
				history = append(history, points.AcquisitionRecord{
					StateID:      stateID,
					SpeciesID:    speciesID,
					AcquiredYear: anchorYear - count + 1 + i,
					Method:       points.MethodUnknown,
				})
			}
		}
	}

	return history
}

// ValidateSchema returns the names of required current-version fields still
// missing from a state. Empty means fully migrated.
func ValidateSchema(s Snapshot) []string {
	missing := []string{}
	for _, field := range RequiredFields {
		if _, ok := s[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
