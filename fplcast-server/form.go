package main

import (
	"fmt"

	"fplcast/internal/season"
)

type TeamFormArgs struct {
	TeamID int `json:"team_id" jsonschema:"Fantasy team id (required)"`
	NextGW int `json:"next_gw" jsonschema:"Season state gameweek (0 = auto-detect)"`
	Window int `json:"window" jsonschema:"Form window in gameweeks (default 5)"`
}

type FixturesArgs struct {
	GW      int `json:"gw" jsonschema:"Start gameweek (0 = next)"`
	Horizon int `json:"horizon" jsonschema:"How many gameweeks forward (default 5)"`
}

type fixtureRow struct {
	FixtureID      int    `json:"fixture_id"`
	Gameweek       int    `json:"gameweek"`
	Home           string `json:"home"`
	Away           string `json:"away"`
	HomeDifficulty int    `json:"home_difficulty"`
	AwayDifficulty int    `json:"away_difficulty"`
	Finished       bool   `json:"finished"`
	HomeScore      *int   `json:"home_score,omitempty"`
	AwayScore      *int   `json:"away_score,omitempty"`
}

func (a *app) buildTeamForm(args TeamFormArgs) (any, error) {
	if args.TeamID == 0 {
		return nil, fmt.Errorf("team_id is required")
	}
	next, err := resolveNextGW(a.data, args.NextGW)
	if err != nil {
		return nil, err
	}
	window := args.Window
	if window <= 0 {
		window = 5
	}

	s, err := a.pipe.Season(next)
	if err != nil {
		return nil, err
	}
	ts, ok := s.TeamStats(args.TeamID)
	if !ok {
		return nil, fmt.Errorf("unknown team %d", args.TeamID)
	}

	return map[string]any{
		"team_id":  args.TeamID,
		"team":     a.teamName(args.TeamID),
		"as_of_gw": s.Gameweek(),
		"window":   window,
		"season": map[string]float64{
			"clean_sheets": round2(ts.CleanSheets.Total().Ratio()),
			"xg":           round2(ts.XG.Total().Ratio()),
			"xa":           round2(ts.XA.Total().Ratio()),
			"dc":           round2(ts.DC.Total().Ratio()),
			"points":       round2(ts.Points.Total().Ratio()),
		},
		"form": map[string]float64{
			"clean_sheets": round2(ts.CSLast(window).Ratio()),
			"xg":           round2(ts.XGForm(window).Ratio()),
			"xa":           round2(ts.XAForm(window).Ratio()),
			"dc":           round2(ts.DCForm(window).Ratio()),
			"points":       round2(ts.PointsForm(window).Ratio()),
		},
		"form_vs_season": map[string]float64{
			"xg": round2(ts.XGFormNorm(window, season.NormOwn).Ratio()),
			"xa": round2(ts.XAFormNorm(window, season.NormOwn).Ratio()),
		},
	}, nil
}

func (a *app) buildFixtures(args FixturesArgs) (any, error) {
	start, err := resolveNextGW(a.data, args.GW)
	if err != nil {
		return nil, err
	}
	horizon := args.Horizon
	if horizon <= 0 {
		horizon = 5
	}

	var rows []fixtureRow
	for gw := start; gw < start+horizon; gw++ {
		for _, f := range a.data.FixturesByGameweek(gw) {
			rows = append(rows, fixtureRow{
				FixtureID:      f.ID,
				Gameweek:       f.Gameweek,
				Home:           a.teamName(f.Home.TeamID),
				Away:           a.teamName(f.Away.TeamID),
				HomeDifficulty: f.Home.Difficulty,
				AwayDifficulty: f.Away.Difficulty,
				Finished:       f.Finished,
				HomeScore:      f.Home.Score,
				AwayScore:      f.Away.Score,
			})
		}
	}

	return map[string]any{
		"from_gw":  start,
		"horizon":  horizon,
		"fixtures": rows,
	}, nil
}
