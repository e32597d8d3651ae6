package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataRoot)
	assert.Equal(t, "2025-2026", cfg.Season)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/mcp", cfg.Server.MCPPath)
	assert.True(t, cfg.Server.RequireAuth)
	assert.Equal(t, 5, cfg.Forecast.MinHistory)
	assert.Equal(t, 15, cfg.Forecast.SquadSize)
	assert.InDelta(t, 0.8, cfg.Rotation.FirstTeamStartRatio, 1e-9)
	assert.Equal(t, []string{"Premier League"}, cfg.Rotation.IncludedLeagues)

	assert.Equal(t, "data/2025-2026", cfg.SnapshotRoot())
	assert.Equal(t, "data/2025-2026/lineups", cfg.LineupsRoot())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
data_root: /var/lib/fplcast
season: 2026-2027
server:
  addr: ":9090"
  require_auth: false
rotation:
  first_team_start_ratio: 0.7
  min_subs_for_rival: 2
player_overrides:
  - fotmob_team_id: 9825
    fotmob_player_id: 12345
    fpl_team_id: 1
    fpl_player_id: 42
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/fplcast", cfg.DataRoot)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.False(t, cfg.Server.RequireAuth)
	assert.InDelta(t, 0.7, cfg.Rotation.FirstTeamStartRatio, 1e-9)
	assert.Equal(t, 2, cfg.Rotation.MinSubsForRival)
	require.Len(t, cfg.Overrides, 1)
	assert.Equal(t, 42, cfg.Overrides[0].FPLPlayerID)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FPLCAST_SEASON", "2027-2028")
	t.Setenv("FPLCAST_SERVER_ADDR", ":7070")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "2027-2028", cfg.Season)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
