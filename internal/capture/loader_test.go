package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStagingSnapshot(t *testing.T) {
	path := writeFixture(t, "staging.yaml", `
id: snap-wy-001
state_id: WY
captured_at: 2026-08-01T08:00:00Z
source_url: https://wgfd.wyo.gov/fees
data_version: "2026.08"
capture_method: scrape
captured_by: scheduler
fees:
  license_fees:
    resident_elk: 500
    nonresident_elk: 1200
deadlines:
  application_deadlines:
    elk:
      open: "2026-05-01"
      close: "2026-05-31"
quotas:
  area-7-elk: 400
`)

	s, err := LoadStagingSnapshot(path)
	require.NoError(t, err)

	assert.Equal(t, "snap-wy-001", s.ID)
	assert.Equal(t, "WY", s.StateID)
	assert.Equal(t, time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC), s.CapturedAt)
	require.NotNil(t, s.Fees)
	assert.Equal(t, 1200.0, s.Fees.LicenseFees["nonresident_elk"])
	require.NotNil(t, s.Deadlines)
	assert.Equal(t, "2026-05-31", s.Deadlines.ApplicationDeadlines["elk"].Close)
	assert.Equal(t, 400, s.Quotas["area-7-elk"])
	assert.Nil(t, s.Rules)
	assert.Nil(t, s.Species)
}

func TestLoadStagingSnapshot_UnknownFieldRejected(t *testing.T) {
	path := writeFixture(t, "staging.yaml", `
id: snap-wy-001
state_id: WY
licence_fees: {}
`)

	_, err := LoadStagingSnapshot(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "licence_fees")
}

func TestLoadStagingSnapshot_MissingFile(t *testing.T) {
	_, err := LoadStagingSnapshot(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load staging snapshot")
}

func TestLoadLiveRecord(t *testing.T) {
	path := writeFixture(t, "live.yaml", `
state_id: WY
last_scraped_at: 2026-07-01T08:00:00Z
source_url: https://wgfd.wyo.gov/fees
data_version: "2026.07"
species:
  available_species: [elk, deer]
`)

	l, err := LoadLiveRecord(path)
	require.NoError(t, err)

	assert.Equal(t, "WY", l.StateID)
	assert.Equal(t, "2026.07", l.DataVersion)
	require.NotNil(t, l.Species)
	assert.Equal(t, []string{"elk", "deer"}, l.Species.AvailableSpecies)
}

func TestLoadTolerances_PartialOverride(t *testing.T) {
	path := writeFixture(t, "tolerances.yaml", `
fee_increase_max_pct: 5
block_on_rule_mutation: false
`)

	tol, err := LoadTolerances(path)
	require.NoError(t, err)

	// Overridden fields take effect; the rest keep defaults.
	assert.Equal(t, 5.0, tol.FeeIncreaseMaxPct)
	assert.False(t, tol.BlockOnRuleMutation)
	assert.Equal(t, 1.0, tol.FeeDecreaseMaxPct)
	assert.Equal(t, 3, tol.DeadlineShiftMaxDays)
}

func TestLoadTolerances_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeFixture(t, "tolerances.yaml", "")

	tol, err := LoadTolerances(path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, tol.FeeIncreaseMaxPct)
	assert.True(t, tol.BlockOnRuleMutation)
}
