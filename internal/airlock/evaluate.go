package airlock

import (
	"fmt"
	"math"
	"slices"
	"time"

	"golang.org/x/text/unicode/norm"
)

// dateLayout is the ISO-8601 date format used by deadline fields.
const dateLayout = "2006-01-02"

// EvaluateSnapshot diffs a staging snapshot against the live record and
// classifies every change by the category tolerance rules.
//
// Pure function of its inputs: concurrent evaluation of different snapshots
// needs no locking, and neither input is mutated.
func EvaluateSnapshot(staging StagingSnapshot, live LiveRecord, tol Tolerances) Verdict {
	old := sections{
		Fees:      live.Fees,
		Deadlines: live.Deadlines,
		Quotas:    live.Quotas,
		Rules:     live.Rules,
		Species:   live.Species,
	}
	diffs := diffSections(old, sectionsOf(staging), staging.StateID, tol)
	return aggregate(staging, diffs)
}

// DiffSnapshots applies the same categorization between two staging
// snapshots. Used for audit history, not promotion.
func DiffSnapshots(old, newer StagingSnapshot, tol Tolerances) []Diff {
	return diffSections(sectionsOf(old), sectionsOf(newer), newer.StateID, tol)
}

// sections is the category payload common to staging snapshots and live
// records, so both diff paths share one walk.
type sections struct {
	Fees      *FeeSection
	Deadlines *DeadlineSection
	Quotas    map[string]int
	Rules     *RuleSection
	Species   *SpeciesSection
}

func sectionsOf(s StagingSnapshot) sections {
	return sections{
		Fees:      s.Fees,
		Deadlines: s.Deadlines,
		Quotas:    s.Quotas,
		Rules:     s.Rules,
		Species:   s.Species,
	}
}

// diffSections walks every trackable field. Sections absent from the newer
// side were not captured and produce no diffs.
func diffSections(old, newer sections, stateID string, tol Tolerances) []Diff {
	var diffs []Diff

	if newer.Fees != nil {
		diffs = append(diffs, diffFees(old.Fees, newer.Fees, stateID, tol)...)
	}
	if newer.Deadlines != nil {
		diffs = append(diffs, diffDeadlines(old.Deadlines, newer.Deadlines, stateID, tol)...)
	}
	if newer.Quotas != nil {
		diffs = append(diffs, diffQuotas(old.Quotas, newer.Quotas, stateID)...)
	}
	if newer.Rules != nil {
		diffs = append(diffs, diffRules(old.Rules, newer.Rules, stateID, tol)...)
	}
	if newer.Species != nil {
		diffs = append(diffs, diffSpecies(old.Species, newer.Species, stateID)...)
	}

	return diffs
}

// aggregate tallies severities into the overall verdict.
func aggregate(staging StagingSnapshot, diffs []Diff) Verdict {
	v := Verdict{
		StateID:   staging.StateID,
		StagingID: staging.ID,
		Diffs:     diffs,
	}
	for _, d := range diffs {
		switch d.Severity {
		case SeverityBlock:
			v.BlockCount++
		case SeverityWarn:
			v.WarnCount++
		default:
			v.PassCount++
		}
	}

	switch {
	case v.BlockCount > 0:
		v.Overall = SeverityBlock
	case v.WarnCount > 0:
		v.Overall = SeverityWarn
	default:
		v.Overall = SeverityPass
	}
	v.CanAutoPromote = v.Overall == SeverityPass

	if len(diffs) == 0 {
		v.Summary = fmt.Sprintf("No changes detected for %s.", staging.StateID)
	} else {
		v.Summary = fmt.Sprintf("%d changes for %s: %d blocked, %d warnings, %d passed.",
			len(diffs), staging.StateID, v.BlockCount, v.WarnCount, v.PassCount)
	}
	return v
}

// --- fees ---

func diffFees(old, newer *FeeSection, stateID string, tol Tolerances) []Diff {
	if old == nil {
		old = &FeeSection{}
	}
	var diffs []Diff

	diffs = append(diffs, diffFeeMap(old.LicenseFees, newer.LicenseFees, "licenseFees", "", stateID, tol)...)
	diffs = append(diffs, diffFeeSchedule(old.FeeSchedule, newer.FeeSchedule, stateID, tol)...)
	diffs = append(diffs, diffFeeMap(old.TagCosts, newer.TagCosts, "tagCosts", "species", stateID, tol)...)
	diffs = append(diffs, diffFeeMap(old.PointCost, newer.PointCost, "pointCost", "species", stateID, tol)...)

	return diffs
}

// diffFeeMap diffs one named fee map. keyKind "species" marks the map key as
// a species ID so notifications can filter on it.
func diffFeeMap(old, newer map[string]float64, field, keyKind, stateID string, tol Tolerances) []Diff {
	var diffs []Diff
	for _, key := range unionKeys(old, newer) {
		oldAmt, hadOld := old[key]
		newAmt, hasNew := newer[key]
		qualified := field + "." + key

		speciesID := ""
		if keyKind == "species" {
			speciesID = key
		}

		switch {
		case hadOld && hasNew && oldAmt != newAmt:
			diffs = append(diffs, classifyFee(qualified, key, oldAmt, newAmt, stateID, speciesID, tol))
		case !hadOld:
			diffs = append(diffs, Diff{
				ID:                "fee:" + qualified,
				Category:          CategoryFee,
				Field:             qualified,
				Label:             key,
				Severity:          SeverityWarn,
				OldValue:          nil,
				NewValue:          newAmt,
				ChangeDescription: fmt.Sprintf("new fee %s at $%.2f", key, newAmt),
				ToleranceRule:     "new fee line has no baseline for pct tolerance; needs review",
				StateID:           stateID,
				SpeciesID:         speciesID,
			})
		case !hasNew:
			diffs = append(diffs, Diff{
				ID:                "fee:" + qualified,
				Category:          CategoryFee,
				Field:             qualified,
				Label:             key,
				Severity:          SeverityWarn,
				OldValue:          oldAmt,
				NewValue:          nil,
				ChangeDescription: fmt.Sprintf("fee %s ($%.2f) no longer published", key, oldAmt),
				ToleranceRule:     "vanished fee line; needs review",
				StateID:           stateID,
				SpeciesID:         speciesID,
			})
		}
	}
	return diffs
}

func diffFeeSchedule(old, newer []FeeItem, stateID string, tol Tolerances) []Diff {
	oldByName := make(map[string]float64, len(old))
	for _, item := range old {
		oldByName[norm.NFC.String(item.Name)] = item.Amount
	}
	newByName := make(map[string]float64, len(newer))
	for _, item := range newer {
		newByName[norm.NFC.String(item.Name)] = item.Amount
	}
	return diffFeeMap(oldByName, newByName, "feeSchedule", "", stateID, tol)
}

// classifyFee applies the percentage tolerances. Boundary values pass;
// only strictly greater shifts block.
func classifyFee(field, label string, oldAmt, newAmt float64, stateID, speciesID string, tol Tolerances) Diff {
	d := Diff{
		ID:        "fee:" + field,
		Category:  CategoryFee,
		Field:     field,
		Label:     label,
		OldValue:  oldAmt,
		NewValue:  newAmt,
		StateID:   stateID,
		SpeciesID: speciesID,
	}

	// A $0 baseline has no meaningful percentage; treated like a fee with no
	// baseline at all. Keeps PctChange finite so the diff stays serializable.
	if oldAmt == 0 {
		d.Severity = SeverityWarn
		d.ChangeDescription = fmt.Sprintf("%s changed from $0.00 to $%.2f", label, newAmt)
		d.ToleranceRule = "zero baseline has no pct tolerance; needs review"
		return d
	}

	pct := (newAmt - oldAmt) / oldAmt * 100
	d.PctChange = &pct

	if pct > 0 {
		d.ChangeDescription = fmt.Sprintf("%s increased %.1f%% ($%.2f to $%.2f)", label, pct, oldAmt, newAmt)
		if pct <= tol.FeeIncreaseMaxPct {
			d.Severity = SeverityPass
			d.ToleranceRule = fmt.Sprintf("increase within %.1f%% tolerance", tol.FeeIncreaseMaxPct)
		} else {
			d.Severity = SeverityBlock
			d.ToleranceRule = fmt.Sprintf("increase exceeds %.1f%% tolerance", tol.FeeIncreaseMaxPct)
		}
		return d
	}

	drop := -pct
	d.ChangeDescription = fmt.Sprintf("%s decreased %.1f%% ($%.2f to $%.2f)", label, drop, oldAmt, newAmt)
	if drop <= tol.FeeDecreaseMaxPct {
		d.Severity = SeverityPass
		d.ToleranceRule = fmt.Sprintf("decrease within %.1f%% tolerance", tol.FeeDecreaseMaxPct)
	} else {
		// Fees rarely drop; a big decrease usually means a scrape error.
		d.Severity = SeverityBlock
		d.ToleranceRule = fmt.Sprintf("suspicious decrease exceeds %.1f%% tolerance", tol.FeeDecreaseMaxPct)
	}
	return d
}

// --- deadlines ---

func diffDeadlines(old, newer *DeadlineSection, stateID string, tol Tolerances) []Diff {
	if old == nil {
		old = &DeadlineSection{}
	}
	var diffs []Diff

	for _, speciesID := range unionKeys(old.ApplicationDeadlines, newer.ApplicationDeadlines) {
		oldWin, hadOld := old.ApplicationDeadlines[speciesID]
		newWin, hasNew := newer.ApplicationDeadlines[speciesID]

		if !hadOld || !hasNew {
			diffs = append(diffs, deadlinePresenceDiff(speciesID, stateID, hadOld, oldWin, newWin))
			continue
		}
		if oldWin.Open != newWin.Open {
			diffs = append(diffs, classifyDeadline(
				"applicationDeadlines."+speciesID+".open", speciesID+" application open",
				oldWin.Open, newWin.Open, stateID, speciesID, tol, false))
		}
		if oldWin.Close != newWin.Close {
			diffs = append(diffs, classifyDeadline(
				"applicationDeadlines."+speciesID+".close", speciesID+" application close",
				oldWin.Close, newWin.Close, stateID, speciesID, tol, false))
		}
	}

	for _, speciesID := range unionKeys(old.DrawResultDates, newer.DrawResultDates) {
		oldDate, hadOld := old.DrawResultDates[speciesID]
		newDate, hasNew := newer.DrawResultDates[speciesID]
		switch {
		case hadOld && hasNew && oldDate != newDate:
			diffs = append(diffs, classifyDeadline(
				"drawResultDates."+speciesID, speciesID+" draw results",
				oldDate, newDate, stateID, speciesID, tol, true))
		case !hadOld && hasNew:
			diffs = append(diffs, drawResultPresenceDiff(speciesID, stateID, false, oldDate, newDate))
		case hadOld && !hasNew:
			diffs = append(diffs, drawResultPresenceDiff(speciesID, stateID, true, oldDate, newDate))
		}
	}

	return diffs
}

func deadlinePresenceDiff(speciesID, stateID string, hadOld bool, oldWin, newWin DeadlineWindow) Diff {
	field := "applicationDeadlines." + speciesID
	if hadOld {
		return Diff{
			ID:                "deadline:" + field,
			Category:          CategoryDeadline,
			Field:             field,
			Label:             speciesID + " application window",
			Severity:          SeverityWarn,
			OldValue:          oldWin,
			NewValue:          nil,
			ChangeDescription: fmt.Sprintf("application window for %s no longer published", speciesID),
			ToleranceRule:     "vanished deadline; needs review",
			StateID:           stateID,
			SpeciesID:         speciesID,
		}
	}
	return Diff{
		ID:                "deadline:" + field,
		Category:          CategoryDeadline,
		Field:             field,
		Label:             speciesID + " application window",
		Severity:          SeverityWarn,
		OldValue:          nil,
		NewValue:          newWin,
		ChangeDescription: fmt.Sprintf("new application window for %s (%s to %s)", speciesID, newWin.Open, newWin.Close),
		ToleranceRule:     "new deadline has no baseline for shift tolerance; needs review",
		StateID:           stateID,
		SpeciesID:         speciesID,
	}
}

// drawResultPresenceDiff records a draw-result date appearing or vanishing.
// Informational like draw-result shifts, but still warn-level: presence
// changes have no baseline for the shift tolerance to judge.
func drawResultPresenceDiff(speciesID, stateID string, hadOld bool, oldDate, newDate string) Diff {
	field := "drawResultDates." + speciesID
	d := Diff{
		ID:        "deadline:" + field,
		Category:  CategoryDeadline,
		Field:     field,
		Label:     speciesID + " draw results",
		Severity:  SeverityWarn,
		StateID:   stateID,
		SpeciesID: speciesID,
	}
	if hadOld {
		d.OldValue = oldDate
		d.ChangeDescription = fmt.Sprintf("draw results date for %s (%s) no longer published", speciesID, oldDate)
		d.ToleranceRule = "vanished draw-result date; recorded for review"
		return d
	}
	d.NewValue = newDate
	d.ChangeDescription = fmt.Sprintf("draw results date for %s newly published (%s)", speciesID, newDate)
	d.ToleranceRule = "new draw-result date has no baseline for shift tolerance; recorded for review"
	return d
}

// classifyDeadline applies the day-shift tolerance. Draw-result dates are
// informational: shifts beyond the threshold warn instead of blocking,
// since nothing the user must act on moves.
func classifyDeadline(field, label, oldDate, newDate, stateID, speciesID string, tol Tolerances, informational bool) Diff {
	d := Diff{
		ID:        "deadline:" + field,
		Category:  CategoryDeadline,
		Field:     field,
		Label:     label,
		OldValue:  oldDate,
		NewValue:  newDate,
		StateID:   stateID,
		SpeciesID: speciesID,
	}

	oldT, errOld := time.Parse(dateLayout, oldDate)
	newT, errNew := time.Parse(dateLayout, newDate)
	if errOld != nil || errNew != nil {
		d.Severity = SeverityWarn
		d.ChangeDescription = fmt.Sprintf("%s changed from %q to %q", label, oldDate, newDate)
		d.ToleranceRule = "unparseable date; recorded for review"
		return d
	}

	days := int(math.Round(newT.Sub(oldT).Hours() / 24))
	d.DaysDelta = &days
	d.ChangeDescription = fmt.Sprintf("%s moved %+d days (%s to %s)", label, days, oldDate, newDate)

	shift := days
	if shift < 0 {
		shift = -shift
	}

	switch {
	case shift <= tol.DeadlineShiftMaxDays:
		d.Severity = SeverityPass
		d.ToleranceRule = fmt.Sprintf("shift within %d day tolerance", tol.DeadlineShiftMaxDays)
	case informational:
		d.Severity = SeverityWarn
		d.ToleranceRule = fmt.Sprintf("draw-result shift beyond %d days is informational", tol.DeadlineShiftMaxDays)
	default:
		d.Severity = SeverityBlock
		d.ToleranceRule = fmt.Sprintf("shift exceeds %d day tolerance", tol.DeadlineShiftMaxDays)
	}
	return d
}

// --- quotas ---

// diffQuotas records quota changes. No tolerance rule is configured for the
// quota category, so the unmatched-category default applies: the change is
// recorded and passes rather than being silently dropped.
func diffQuotas(old, newer map[string]int, stateID string) []Diff {
	var diffs []Diff
	for _, key := range unionKeys(old, newer) {
		oldQ, hadOld := old[key]
		newQ, hasNew := newer[key]
		if hadOld && hasNew && oldQ == newQ {
			continue
		}

		d := Diff{
			ID:            "quota:" + key,
			Category:      CategoryQuota,
			Field:         "quotas." + key,
			Label:         key,
			Severity:      SeverityPass,
			StateID:       stateID,
			ToleranceRule: "no tolerance configured for quota changes; recorded for audit",
		}
		switch {
		case hadOld && hasNew:
			d.OldValue = oldQ
			d.NewValue = newQ
			d.ChangeDescription = fmt.Sprintf("quota %s changed from %d to %d", key, oldQ, newQ)
		case !hadOld:
			d.NewValue = newQ
			d.ChangeDescription = fmt.Sprintf("new quota %s at %d", key, newQ)
		default:
			d.OldValue = oldQ
			d.ChangeDescription = fmt.Sprintf("quota %s (%d) no longer published", key, oldQ)
		}
		diffs = append(diffs, d)
	}
	return diffs
}

// --- rules ---

// diffRules flags every draw-rule mutation. Rule changes reshape what
// accumulated points are worth, so they block by default; the once-in-a-
// lifetime list is species data and blocks unconditionally.
func diffRules(old, newer *RuleSection, stateID string, tol Tolerances) []Diff {
	if old == nil {
		old = &RuleSection{}
	}
	var diffs []Diff

	sev := SeverityBlock
	rule := "rule mutations block promotion"
	if !tol.BlockOnRuleMutation {
		sev = SeverityWarn
		rule = "rule mutation blocking disabled; downgraded to warning"
	}

	ruleDiff := func(field, label string, oldV, newV any) {
		diffs = append(diffs, Diff{
			ID:                "rule:" + field,
			Category:          CategoryRule,
			Field:             field,
			Label:             label,
			Severity:          sev,
			OldValue:          oldV,
			NewValue:          newV,
			ChangeDescription: fmt.Sprintf("%s changed from %v to %v", label, oldV, newV),
			ToleranceRule:     rule,
			StateID:           stateID,
		})
	}

	if !normEq(old.PointSystem, newer.PointSystem) {
		ruleDiff("rules.pointSystem", "point system type", old.PointSystem, newer.PointSystem)
	}
	if old.PointSystemDetails.PreferencePct != newer.PointSystemDetails.PreferencePct {
		ruleDiff("rules.pointSystemDetails.preferencePct", "preference split", old.PointSystemDetails.PreferencePct, newer.PointSystemDetails.PreferencePct)
	}
	if old.PointSystemDetails.RandomPct != newer.PointSystemDetails.RandomPct {
		ruleDiff("rules.pointSystemDetails.randomPct", "random split", old.PointSystemDetails.RandomPct, newer.PointSystemDetails.RandomPct)
	}
	if old.PointSystemDetails.Squared != newer.PointSystemDetails.Squared {
		ruleDiff("rules.pointSystemDetails.squared", "squared-bonus flag", old.PointSystemDetails.Squared, newer.PointSystemDetails.Squared)
	}
	if !normEq(old.ApplicationApproach, newer.ApplicationApproach) {
		ruleDiff("rules.applicationApproach", "application approach", old.ApplicationApproach, newer.ApplicationApproach)
	}

	diffs = append(diffs, diffStringSet(
		old.OnceInALifetime, newer.OnceInALifetime, stateID,
		"rules.onceInALifetime", "once-in-a-lifetime list",
		SeverityBlock, SeverityBlock,
		"once-in-a-lifetime list changes block promotion")...)

	return diffs
}

// --- species ---

func diffSpecies(old, newer *SpeciesSection, stateID string) []Diff {
	if old == nil {
		old = &SpeciesSection{}
	}
	return diffStringSet(
		old.AvailableSpecies, newer.AvailableSpecies, stateID,
		"species.availableSpecies", "available species",
		SeverityWarn, SeverityBlock,
		"species removal blocks; addition needs review")
}

// diffStringSet diffs two species lists as NFC-normalized sets. Additions
// get addSev, removals get removeSev.
func diffStringSet(old, newer []string, stateID, field, label string, addSev, removeSev Severity, rule string) []Diff {
	oldSet := normSet(old)
	newSet := normSet(newer)
	var diffs []Diff

	for _, sp := range sortedSetKeys(newSet) {
		if !oldSet[sp] {
			diffs = append(diffs, Diff{
				ID:                "species:" + field + "." + sp,
				Category:          CategorySpecies,
				Field:             field,
				Label:             label,
				Severity:          addSev,
				NewValue:          sp,
				ChangeDescription: fmt.Sprintf("%s added to %s", sp, label),
				ToleranceRule:     rule,
				StateID:           stateID,
				SpeciesID:         sp,
			})
		}
	}
	for _, sp := range sortedSetKeys(oldSet) {
		if !newSet[sp] {
			diffs = append(diffs, Diff{
				ID:                "species:" + field + "." + sp,
				Category:          CategorySpecies,
				Field:             field,
				Label:             label,
				Severity:          removeSev,
				OldValue:          sp,
				ChangeDescription: fmt.Sprintf("%s removed from %s", sp, label),
				ToleranceRule:     rule,
				StateID:           stateID,
				SpeciesID:         sp,
			})
		}
	}
	return diffs
}

// --- helpers ---

// normEq compares scraped strings under NFC normalization, so a source that
// flips unicode forms between scrapes does not produce spurious diffs.
func normEq(a, b string) bool {
	return norm.NFC.String(a) == norm.NFC.String(b)
}

func normSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[norm.NFC.String(v)] = true
	}
	return set
}

func sortedSetKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// unionKeys returns the sorted union of two maps' keys, for deterministic
// diff ordering.
func unionKeys[V any](a, b map[string]V) []string {
	set := make(map[string]bool, len(a)+len(b))
	for k := range a {
		set[k] = true
	}
	for k := range b {
		set[k] = true
	}
	return sortedSetKeys(set)
}
