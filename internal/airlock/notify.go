package airlock

import "fmt"

// NotifySeverity is the user-facing severity of a change notification.
type NotifySeverity string

const (
	NotifyCritical NotifySeverity = "critical"
	NotifyWarning  NotifySeverity = "warning"
	NotifyInfo     NotifySeverity = "info"
)

// Notification is one portfolio-relevant change surfaced to a user.
type Notification struct {
	Severity       NotifySeverity `json:"severity"`
	StateID        string         `json:"state_id"`
	SpeciesID      string         `json:"species_id,omitempty"`
	Field          string         `json:"field"`
	Message        string         `json:"message"`
	ActionRequired bool           `json:"action_required"`
	ActionURL      string         `json:"action_url,omitempty"`
}

// ChangeImpactNotifications filters a verdict's diffs down to the caller's
// active portfolio and maps each surviving diff to a notification.
//
// A diff survives when its state is active and, if it names a species, that
// species is active for the state. Species-less diffs (state-wide rule or
// fee changes) survive on the state match alone.
func ChangeImpactNotifications(v Verdict, activeStateIDs []string, activeSpeciesByState map[string][]string) []Notification {
	activeStates := make(map[string]bool, len(activeStateIDs))
	for _, s := range activeStateIDs {
		activeStates[s] = true
	}

	var out []Notification
	for _, d := range v.Diffs {
		if !activeStates[d.StateID] {
			continue
		}
		if d.SpeciesID != "" && !containsString(activeSpeciesByState[d.StateID], d.SpeciesID) {
			continue
		}

		n := Notification{
			Severity:       notifySeverity(d.Severity),
			StateID:        d.StateID,
			SpeciesID:      d.SpeciesID,
			Field:          d.Field,
			Message:        fmt.Sprintf("%s: %s", d.StateID, d.ChangeDescription),
			ActionRequired: actionRequired(d),
		}
		if d.Category == CategoryFee {
			// Money moved; point the user at their budget.
			n.ActionURL = "/budget?state=" + d.StateID
		}
		out = append(out, n)
	}
	return out
}

func notifySeverity(s Severity) NotifySeverity {
	switch s {
	case SeverityBlock:
		return NotifyCritical
	case SeverityWarn:
		return NotifyWarning
	default:
		return NotifyInfo
	}
}

// actionRequired marks warn/block changes that affect money or deadlines -
// the two categories where the user has something to reschedule or re-budget.
func actionRequired(d Diff) bool {
	if d.Severity == SeverityPass {
		return false
	}
	return d.Category == CategoryFee || d.Category == CategoryDeadline
}

func containsString(vals []string, want string) bool {
	for _, v := range vals {
		if v == want {
			return true
		}
	}
	return false
}
