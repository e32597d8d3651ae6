// Package config loads the process configuration from environment variables
// and an optional file via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"fplcast/internal/rotation"
)

// Config is the full process configuration. Every field can be set from the
// environment with the FPLCAST_ prefix (dots become underscores) or from a
// config file.
type Config struct {
	DataRoot string `mapstructure:"data_root"`
	Season   string `mapstructure:"season"`

	LogLevel    string `mapstructure:"log_level"`
	Development bool   `mapstructure:"development"`

	Server   Server          `mapstructure:"server"`
	Forecast Forecast        `mapstructure:"forecast"`
	Rotation rotation.Config `mapstructure:"rotation"`

	Overrides []rotation.PlayerMappingOverride `mapstructure:"player_overrides"`
}

// Server holds the HTTP serving settings.
type Server struct {
	Addr        string `mapstructure:"addr"`
	MCPPath     string `mapstructure:"mcp_path"`
	AuthHeader  string `mapstructure:"auth_header"`
	APIKey      string `mapstructure:"api_key"`
	RequireAuth bool   `mapstructure:"require_auth"`
}

// Forecast holds the model parameters.
type Forecast struct {
	MinHistory int `mapstructure:"min_history"`
	SquadSize  int `mapstructure:"squad_size"`
}

// SnapshotRoot is the directory holding this season's API snapshots.
func (c *Config) SnapshotRoot() string {
	return fmt.Sprintf("%s/%s", c.DataRoot, c.Season)
}

// LineupsRoot is the directory holding this season's saved match reports.
func (c *Config) LineupsRoot() string {
	return fmt.Sprintf("%s/%s/lineups", c.DataRoot, c.Season)
}

// Load reads configuration from the environment and, when path is non-empty,
// the given config file. File values override defaults; environment values
// override both.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_root", "data")
	v.SetDefault("season", "2025-2026")
	v.SetDefault("log_level", "info")
	v.SetDefault("development", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mcp_path", "/mcp")
	v.SetDefault("server.auth_header", "X-API-Key")
	v.SetDefault("server.require_auth", true)
	v.SetDefault("forecast.min_history", 5)
	v.SetDefault("forecast.squad_size", 15)

	defaults := rotation.DefaultConfig()
	v.SetDefault("rotation.first_team_start_ratio", defaults.FirstTeamStartRatio)
	v.SetDefault("rotation.min_subs_for_rival", defaults.MinSubsForRival)
	v.SetDefault("rotation.included_leagues", defaults.IncludedLeagues)

	v.SetEnvPrefix("FPLCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
