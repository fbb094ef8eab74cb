package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyJSON = `[
  {"state_id": "MT", "species_id": "elk", "acquired_year": 2022, "method": "application"},
  {"state_id": "MT", "species_id": "elk", "acquired_year": 2023, "method": "purchase"},
  {"state_id": "MT", "species_id": "elk", "acquired_year": 2025, "method": "application"},
  {"state_id": "WY", "species_id": "deer", "acquired_year": 2027, "method": "application"}
]`

func TestPoints_Valuation(t *testing.T) {
	dir := t.TempDir()
	history := writeTempFile(t, dir, "history.json", historyJSON)

	// MT's bonus-squared epoch cut over in 2024 at ratio 1.5: two legacy
	// points worth 1.5 each plus one modern point.
	out, _, err := runCommand(t, "points", "--history", history, "--state", "MT", "--species", "elk", "--year", "2028")
	require.NoError(t, err)
	assert.Contains(t, out, "4.0 effective points")
	assert.Contains(t, out, "2 legacy, 1 modern")
	assert.Contains(t, out, "grandfather clause")
}

func TestPoints_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	history := writeTempFile(t, dir, "history.json", historyJSON)

	out, _, err := runCommand(t, "--format", "json", "points", "--history", history, "--state", "MT", "--species", "elk", "--year", "2028")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	valuation := data["valuation"].(map[string]any)
	assert.Equal(t, float64(4), valuation["effective_points"])
	assert.Equal(t, true, valuation["grandfathered"])

	capRes := data["cap"].(map[string]any)
	assert.Equal(t, false, capRes["capped"])
}

func TestPoints_Impact(t *testing.T) {
	dir := t.TempDir()
	history := writeTempFile(t, dir, "history.json", historyJSON)

	out, _, err := runCommand(t, "points", "--history", history, "--impact", "--year", "2028")
	require.NoError(t, err)
	assert.Contains(t, out, "MT/elk: grandfathered")
	assert.Contains(t, out, "WY/deer: not grandfathered")
}

func TestPoints_UnknownMethodRejected(t *testing.T) {
	dir := t.TempDir()
	history := writeTempFile(t, dir, "history.json",
		`[{"state_id": "MT", "species_id": "elk", "acquired_year": 2022, "method": "gifted"}]`)

	_, _, err := runCommand(t, "points", "--history", history, "--state", "MT", "--species", "elk")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPoints_RequiresTarget(t *testing.T) {
	dir := t.TempDir()
	history := writeTempFile(t, dir, "history.json", historyJSON)

	_, _, err := runCommand(t, "points", "--history", history)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
