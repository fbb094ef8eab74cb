// Package airlock is the diff/tolerance gate between newly scraped
// jurisdiction data and the live dataset the rest of the system reads.
//
// A staging snapshot is never promoted directly. EvaluateSnapshot classifies
// every field-level change against category-specific tolerance rules and
// aggregates a verdict: pass changes may auto-promote, warn changes need
// eyes, block changes halt promotion until a human approves. The evaluation
// and promotion functions are pure; persistence of quarantined verdicts
// lives in the queue package.
package airlock

import "time"

// Category classifies a detected change. The set is closed so a missing
// switch case surfaces when a new category is added.
type Category string

const (
	CategoryFee      Category = "fee"
	CategoryDeadline Category = "deadline"
	CategoryQuota    Category = "quota"
	CategoryRule     Category = "rule"
	CategorySpecies  Category = "species"
)

// Severity is the verdict for one change or one whole snapshot.
type Severity string

const (
	SeverityPass  Severity = "pass"
	SeverityWarn  Severity = "warn"
	SeverityBlock Severity = "block"
)

// Tolerances are the thresholds deciding change severity. Boundary values
// are inclusive of pass: exactly the threshold passes, only strictly greater
// blocks.
type Tolerances struct {
	// FeeIncreaseMaxPct is the largest fee increase (percent) that passes.
	FeeIncreaseMaxPct float64 `json:"fee_increase_max_pct" yaml:"fee_increase_max_pct"`

	// FeeDecreaseMaxPct is the largest fee decrease (percent) that passes.
	// Real fee decreases are rare; a large one usually means a bad scrape.
	FeeDecreaseMaxPct float64 `json:"fee_decrease_max_pct" yaml:"fee_decrease_max_pct"`

	// DeadlineShiftMaxDays is the largest deadline shift (days, either
	// direction) that passes.
	DeadlineShiftMaxDays int `json:"deadline_shift_max_days" yaml:"deadline_shift_max_days"`

	// BlockOnRuleMutation blocks any draw-rule change. Disabled, rule
	// changes downgrade to warn.
	BlockOnRuleMutation bool `json:"block_on_rule_mutation" yaml:"block_on_rule_mutation"`
}

// DefaultTolerances are the production thresholds.
var DefaultTolerances = Tolerances{
	FeeIncreaseMaxPct:    8,
	FeeDecreaseMaxPct:    1,
	DeadlineShiftMaxDays: 3,
	BlockOnRuleMutation:  true,
}

// Diff is one detected field-level change between snapshots.
type Diff struct {
	ID                string   `json:"id"`
	Category          Category `json:"category"`
	Field             string   `json:"field"`
	Label             string   `json:"label"`
	Severity          Severity `json:"severity"`
	OldValue          any      `json:"old_value"`
	NewValue          any      `json:"new_value"`
	ChangeDescription string   `json:"change_description"`
	ToleranceRule     string   `json:"tolerance_rule"`
	PctChange         *float64 `json:"pct_change,omitempty"`
	DaysDelta         *int     `json:"days_delta,omitempty"`
	StateID           string   `json:"state_id"`
	SpeciesID         string   `json:"species_id,omitempty"`
}

// Verdict aggregates all diffs for one staging snapshot.
type Verdict struct {
	StateID        string   `json:"state_id"`
	StagingID      string   `json:"staging_id"`
	Diffs          []Diff   `json:"diffs"`
	BlockCount     int      `json:"block_count"`
	WarnCount      int      `json:"warn_count"`
	PassCount      int      `json:"pass_count"`
	Overall        Severity `json:"overall_verdict"`
	CanAutoPromote bool     `json:"can_auto_promote"`
	Summary        string   `json:"summary"`
}

// FeeItem is one line of a published fee schedule.
type FeeItem struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// FeeSection holds every money field for one jurisdiction.
type FeeSection struct {
	LicenseFees map[string]float64 `json:"license_fees" yaml:"license_fees"`
	FeeSchedule []FeeItem          `json:"fee_schedule" yaml:"fee_schedule"`
	TagCosts    map[string]float64 `json:"tag_costs" yaml:"tag_costs"`
	PointCost   map[string]float64 `json:"point_cost" yaml:"point_cost"`
}

// DeadlineWindow is an application window, ISO-8601 dates (2006-01-02).
type DeadlineWindow struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

// DeadlineSection holds per-species application windows and draw-result
// publication dates.
type DeadlineSection struct {
	ApplicationDeadlines map[string]DeadlineWindow `json:"application_deadlines" yaml:"application_deadlines"`
	DrawResultDates      map[string]string         `json:"draw_result_dates" yaml:"draw_result_dates"`
}

// RuleDetails is the preference/random split of a jurisdiction's draw.
type RuleDetails struct {
	PreferencePct float64 `json:"preference_pct" yaml:"preference_pct"`
	RandomPct     float64 `json:"random_pct" yaml:"random_pct"`
	Squared       bool    `json:"squared" yaml:"squared"`
}

// RuleSection holds the draw-rule configuration.
type RuleSection struct {
	PointSystem         string      `json:"point_system" yaml:"point_system"`
	PointSystemDetails  RuleDetails `json:"point_system_details" yaml:"point_system_details"`
	ApplicationApproach string      `json:"application_approach" yaml:"application_approach"`
	OnceInALifetime     []string    `json:"once_in_a_lifetime" yaml:"once_in_a_lifetime"`
}

// SpeciesSection lists species currently open to applications.
type SpeciesSection struct {
	AvailableSpecies []string `json:"available_species" yaml:"available_species"`
}

// StagingSnapshot is newly captured external data for one jurisdiction.
// Immutable once captured. A nil section means that section was not captured
// in this scrape and must not overwrite live data.
type StagingSnapshot struct {
	ID            string    `json:"id" yaml:"id"`
	StateID       string    `json:"state_id" yaml:"state_id"`
	CapturedAt    time.Time `json:"captured_at" yaml:"captured_at"`
	SourceURL     string    `json:"source_url" yaml:"source_url"`
	DataVersion   string    `json:"data_version" yaml:"data_version"`
	CaptureMethod string    `json:"capture_method" yaml:"capture_method"`
	CapturedBy    string    `json:"captured_by" yaml:"captured_by"`

	Fees      *FeeSection      `json:"fees,omitempty" yaml:"fees,omitempty"`
	Deadlines *DeadlineSection `json:"deadlines,omitempty" yaml:"deadlines,omitempty"`
	Quotas    map[string]int   `json:"quotas,omitempty" yaml:"quotas,omitempty"`
	Rules     *RuleSection     `json:"rules,omitempty" yaml:"rules,omitempty"`
	Species   *SpeciesSection  `json:"species,omitempty" yaml:"species,omitempty"`
}

// LiveRecord is the promoted dataset for one jurisdiction, read by the rest
// of the system. Only PromoteSnapshot produces new ones.
type LiveRecord struct {
	StateID       string    `json:"state_id" yaml:"state_id"`
	LastScrapedAt time.Time `json:"last_scraped_at" yaml:"last_scraped_at"`
	SourceURL     string    `json:"source_url" yaml:"source_url"`
	DataVersion   string    `json:"data_version" yaml:"data_version"`

	Fees      *FeeSection      `json:"fees,omitempty" yaml:"fees,omitempty"`
	Deadlines *DeadlineSection `json:"deadlines,omitempty" yaml:"deadlines,omitempty"`
	Quotas    map[string]int   `json:"quotas,omitempty" yaml:"quotas,omitempty"`
	Rules     *RuleSection     `json:"rules,omitempty" yaml:"rules,omitempty"`
	Species   *SpeciesSection  `json:"species,omitempty" yaml:"species,omitempty"`
}
