// Package rotation derives squad roles and substitution rivalries from
// external match logs and bridges their player ids onto the fantasy API's.
package rotation

// Config controls which matches count and how rivals are ranked.
type Config struct {
	FirstTeamStartRatio float64  `mapstructure:"first_team_start_ratio"`
	MinSubsForRival     int      `mapstructure:"min_subs_for_rival"`
	IncludedLeagues     []string `mapstructure:"included_leagues"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		FirstTeamStartRatio: 0.8,
		MinSubsForRival:     1,
		IncludedLeagues:     []string{"Premier League"},
	}
}

// PlayerMappingOverride pins or suppresses the mapping for one match-log
// player, bypassing fuzzy name matching. FPLPlayerID must be set unless
// Ignore is.
type PlayerMappingOverride struct {
	FotmobTeamID   int    `mapstructure:"fotmob_team_id"`
	FotmobPlayerID int    `mapstructure:"fotmob_player_id"`
	FPLTeamID      int    `mapstructure:"fpl_team_id"`
	FPLPlayerID    int    `mapstructure:"fpl_player_id"`
	Ignore         bool   `mapstructure:"ignore"`
	Note           string `mapstructure:"note"`
}

// DefaultOverrides covers the players whose match-log names cannot be
// matched to the fantasy roster by tokens alone.
var DefaultOverrides = []PlayerMappingOverride{
	{
		FotmobTeamID:   9825,
		FotmobPlayerID: 795179,
		FPLTeamID:      1,
		FPLPlayerID:    5,
		Note:           "Gabriel dos Santos Magalhães",
	},
	{
		FotmobTeamID:   10252,
		FotmobPlayerID: 610184,
		FPLTeamID:      2,
		FPLPlayerID:    50,
		Note:           "Emiliano Buendía Stati (MID) - Aston Villa",
	},
	{
		FotmobTeamID:   8602,
		FotmobPlayerID: 1174672,
		FPLTeamID:      20,
		FPLPlayerID:    646,
		Note:           "João Victor Gomes da Silva",
	},
}
