package main

import (
	"fmt"

	"fplcast/internal/availability"
)

type PlayerRotationArgs struct {
	PlayerID    int `json:"player_id" jsonschema:"Fantasy player id (required)"`
	MaxGameweek int `json:"max_gw" jsonschema:"Only count matches through this gameweek (0 = all)"`
}

type PlayerFlagsArgs struct {
	PlayerID int `json:"player_id" jsonschema:"Fantasy player id (required)"`
}

type rivalRow struct {
	FotmobPlayerID int    `json:"fotmob_player_id"`
	FPLPlayerID    *int   `json:"fpl_player_id,omitempty"`
	Name           string `json:"name"`
	SubCount       int    `json:"sub_count"`
}

type flagRow struct {
	Kind       string  `json:"kind"`
	Importance float64 `json:"importance"`
	Note       string  `json:"note,omitempty"`
}

func (a *app) buildSquadRole(args PlayerRotationArgs) (any, error) {
	if args.PlayerID == 0 {
		return nil, fmt.Errorf("player_id is required")
	}
	if a.adapter == nil {
		return nil, fmt.Errorf("no match logs loaded, rotation views are unavailable")
	}

	role, err := a.adapter.SquadRole(args.PlayerID, args.MaxGameweek)
	if err != nil {
		return nil, err
	}
	player, err := a.data.PlayerByID(args.PlayerID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"player_id":         args.PlayerID,
		"name":              player.FullName(),
		"team":              a.teamName(player.TeamID),
		"starts":            role.Starts(),
		"bench_count":       role.BenchCount(),
		"unavailable_count": role.UnavailableCount(),
		"total_matches":     role.TotalMatches(),
		"start_ratio":       round2(role.StartRatio()),
		"is_first_team":     role.IsFirstTeam(),
	}, nil
}

func (a *app) buildStartHint(args PlayerRotationArgs) (any, error) {
	if args.PlayerID == 0 {
		return nil, fmt.Errorf("player_id is required")
	}
	if a.adapter == nil {
		return nil, fmt.Errorf("no match logs loaded, rotation views are unavailable")
	}

	hint, err := a.adapter.StartHint(args.PlayerID, args.MaxGameweek)
	if err != nil {
		return nil, err
	}
	player, err := a.data.PlayerByID(args.PlayerID)
	if err != nil {
		return nil, err
	}

	rivals := make([]rivalRow, 0, len(hint.Rivals))
	for _, rival := range hint.Rivals {
		row := rivalRow{
			FotmobPlayerID: rival.FotmobPlayerID,
			Name:           rival.Name,
			SubCount:       rival.SubCount,
		}
		if fplID, err := a.adapter.FPLPlayerID(rival.FotmobPlayerID); err == nil {
			row.FPLPlayerID = &fplID
		}
		rivals = append(rivals, row)
	}

	return map[string]any{
		"player_id": args.PlayerID,
		"name":      player.FullName(),
		"team":      a.teamName(player.TeamID),
		"rivals":    rivals,
	}, nil
}

func (a *app) buildPlayerFlags(args PlayerFlagsArgs) (any, error) {
	if args.PlayerID == 0 {
		return nil, fmt.Errorf("player_id is required")
	}
	player, err := a.data.PlayerByID(args.PlayerID)
	if err != nil {
		return nil, err
	}

	flags := availability.Flags(player)
	rows := make([]flagRow, 0, len(flags))
	for _, flag := range flags {
		rows = append(rows, flagRow{
			Kind:       string(flag.Kind),
			Importance: flag.Importance,
			Note:       flag.Note,
		})
	}

	return map[string]any{
		"player_id": args.PlayerID,
		"name":      player.FullName(),
		"team":      a.teamName(player.TeamID),
		"status":    player.Status,
		"flags":     rows,
	}, nil
}
