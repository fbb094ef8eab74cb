package airlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mixedVerdict builds a verdict containing a blocked fee, a warned species
// addition, and a passed quota change.
func mixedVerdict() Verdict {
	s := stagingFixture()
	s.Fees = cloneFees(s.Fees)
	s.Fees.LicenseFees["resident_elk"] = 700 // +40%: block
	s.Quotas = map[string]int{"area-7-elk": 350}
	s.Species = &SpeciesSection{AvailableSpecies: []string{"elk", "deer", "antelope"}}
	return EvaluateSnapshot(s, liveFixture(), DefaultTolerances)
}

// TestChangeImpactNotifications_PortfolioFilter tests that only active
// states and species survive.
func TestChangeImpactNotifications_PortfolioFilter(t *testing.T) {
	v := mixedVerdict()

	// No WY in the portfolio: nothing to say.
	assert.Empty(t, ChangeImpactNotifications(v, []string{"MT"}, nil))

	// WY active but only for elk: the antelope addition is filtered out,
	// state-level fee and quota diffs survive.
	got := ChangeImpactNotifications(v, []string{"WY"}, map[string][]string{"WY": {"elk"}})
	require.Len(t, got, 2)
	fields := []string{got[0].Field, got[1].Field}
	assert.Contains(t, fields, "licenseFees.resident_elk")
	assert.Contains(t, fields, "quotas.area-7-elk")

	// Antelope active too: all three.
	got = ChangeImpactNotifications(v, []string{"WY"}, map[string][]string{"WY": {"elk", "antelope"}})
	assert.Len(t, got, 3)
}

// TestChangeImpactNotifications_SeverityMapping tests block->critical,
// warn->warning, pass->info.
func TestChangeImpactNotifications_SeverityMapping(t *testing.T) {
	v := mixedVerdict()
	got := ChangeImpactNotifications(v, []string{"WY"}, map[string][]string{"WY": {"elk", "antelope"}})

	byField := map[string]Notification{}
	for _, n := range got {
		byField[n.Field] = n
	}

	assert.Equal(t, NotifyCritical, byField["licenseFees.resident_elk"].Severity)
	assert.Equal(t, NotifyWarning, byField["species.availableSpecies"].Severity)
	assert.Equal(t, NotifyInfo, byField["quotas.area-7-elk"].Severity)
}

// TestChangeImpactNotifications_ActionRequired tests that money and
// deadline changes at warn/block demand action, others do not.
func TestChangeImpactNotifications_ActionRequired(t *testing.T) {
	v := mixedVerdict()
	got := ChangeImpactNotifications(v, []string{"WY"}, map[string][]string{"WY": {"elk", "antelope"}})

	for _, n := range got {
		switch n.Field {
		case "licenseFees.resident_elk":
			assert.True(t, n.ActionRequired, "blocked fee change affects money")
			assert.Equal(t, "/budget?state=WY", n.ActionURL, "fee changes link to the budget view")
		case "species.availableSpecies":
			assert.False(t, n.ActionRequired, "species availability is not money or deadline")
		case "quotas.area-7-elk":
			assert.False(t, n.ActionRequired, "passed changes never demand action")
		}
	}
}

// TestChangeImpactNotifications_DeadlineActionRequired tests deadline
// changes at block severity.
func TestChangeImpactNotifications_DeadlineActionRequired(t *testing.T) {
	s := stagingFixture()
	s.Deadlines = cloneDeadlines(s.Deadlines)
	s.Deadlines.ApplicationDeadlines["elk"] = DeadlineWindow{Open: "2026-05-01", Close: "2026-05-15"}
	v := EvaluateSnapshot(s, liveFixture(), DefaultTolerances)

	got := ChangeImpactNotifications(v, []string{"WY"}, map[string][]string{"WY": {"elk"}})
	require.Len(t, got, 1)
	assert.Equal(t, NotifyCritical, got[0].Severity)
	assert.True(t, got[0].ActionRequired)
	assert.Empty(t, got[0].ActionURL, "only fee changes carry the budget link")
}
