package airlock

import "maps"

// PromoteSnapshot merges an approved staging snapshot into the live record.
//
// Copy-on-write: the live input is never mutated and the result shares no
// mutable state with either input. Sections present in staging overwrite the
// live section wholesale; sections absent from staging carry over unchanged.
// Provenance metadata always updates to the staging snapshot's values.
//
// Promotion of the same jurisdiction's record from two snapshots
// concurrently must be serialized by the caller; this function does not
// merge two staging snapshots against each other.
func PromoteSnapshot(staging StagingSnapshot, live LiveRecord) LiveRecord {
	out := LiveRecord{
		StateID:       live.StateID,
		LastScrapedAt: staging.CapturedAt,
		SourceURL:     staging.SourceURL,
		DataVersion:   staging.DataVersion,
	}
	if out.StateID == "" {
		out.StateID = staging.StateID
	}

	if staging.Fees != nil {
		out.Fees = cloneFees(staging.Fees)
	} else {
		out.Fees = cloneFees(live.Fees)
	}
	if staging.Deadlines != nil {
		out.Deadlines = cloneDeadlines(staging.Deadlines)
	} else {
		out.Deadlines = cloneDeadlines(live.Deadlines)
	}
	if staging.Quotas != nil {
		out.Quotas = maps.Clone(staging.Quotas)
	} else {
		out.Quotas = maps.Clone(live.Quotas)
	}
	if staging.Rules != nil {
		out.Rules = cloneRules(staging.Rules)
	} else {
		out.Rules = cloneRules(live.Rules)
	}
	if staging.Species != nil {
		out.Species = cloneSpecies(staging.Species)
	} else {
		out.Species = cloneSpecies(live.Species)
	}

	return out
}

func cloneFees(f *FeeSection) *FeeSection {
	if f == nil {
		return nil
	}
	out := &FeeSection{
		LicenseFees: maps.Clone(f.LicenseFees),
		TagCosts:    maps.Clone(f.TagCosts),
		PointCost:   maps.Clone(f.PointCost),
	}
	if f.FeeSchedule != nil {
		out.FeeSchedule = make([]FeeItem, len(f.FeeSchedule))
		copy(out.FeeSchedule, f.FeeSchedule)
	}
	return out
}

func cloneDeadlines(d *DeadlineSection) *DeadlineSection {
	if d == nil {
		return nil
	}
	return &DeadlineSection{
		ApplicationDeadlines: maps.Clone(d.ApplicationDeadlines),
		DrawResultDates:      maps.Clone(d.DrawResultDates),
	}
}

func cloneRules(r *RuleSection) *RuleSection {
	if r == nil {
		return nil
	}
	out := &RuleSection{
		PointSystem:         r.PointSystem,
		PointSystemDetails:  r.PointSystemDetails,
		ApplicationApproach: r.ApplicationApproach,
	}
	if r.OnceInALifetime != nil {
		out.OnceInALifetime = make([]string, len(r.OnceInALifetime))
		copy(out.OnceInALifetime, r.OnceInALifetime)
	}
	return out
}

func cloneSpecies(s *SpeciesSection) *SpeciesSection {
	if s == nil {
		return nil
	}
	out := &SpeciesSection{}
	if s.AvailableSpecies != nil {
		out.AvailableSpecies = make([]string, len(s.AvailableSpecies))
		copy(out.AvailableSpecies, s.AvailableSpecies)
	}
	return out
}
