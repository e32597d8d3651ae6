package main

import (
	"fmt"
	"math"

	"fplcast/internal/prediction"
)

type PredictPlayersArgs struct {
	NextGW     int    `json:"next_gw" jsonschema:"Season state gameweek (0 = auto-detect)"`
	TargetGWs  []int  `json:"target_gws" jsonschema:"Explicit target gameweeks (overrides horizon)"`
	Horizon    int    `json:"horizon" jsonschema:"Consecutive gameweeks from next (default 1)"`
	Position   string `json:"position" jsonschema:"Filter: GKP|DEF|MID|FWD (empty = all)"`
	SortBy     string `json:"sort_by" jsonschema:"total|clean_sheets|goals|assists|dc|value (default total)"`
	Limit      int    `json:"limit" jsonschema:"Max rows (default 30)"`
	MinHistory int    `json:"min_history" jsonschema:"Player form window in gameweeks (0 = default)"`
}

type PredictCleanSheetsArgs struct {
	NextGW     int   `json:"next_gw" jsonschema:"Season state gameweek (0 = auto-detect)"`
	TargetGWs  []int `json:"target_gws" jsonschema:"Explicit target gameweeks (overrides horizon)"`
	Horizon    int   `json:"horizon" jsonschema:"Consecutive gameweeks from next (default 1)"`
	MinHistory int   `json:"min_history" jsonschema:"Player form window in gameweeks (0 = default)"`
}

type playerForecastRow struct {
	PlayerID         int     `json:"player_id"`
	Name             string  `json:"name"`
	Team             string  `json:"team"`
	Position         string  `json:"position"`
	Cost             float64 `json:"cost"`
	TotalPoints      float64 `json:"total_points"`
	CleanSheetPoints float64 `json:"clean_sheet_points"`
	GoalPoints       float64 `json:"goal_points"`
	AssistPoints     float64 `json:"assist_points"`
	DCPoints         float64 `json:"dc_points"`
	PointsPerCost    float64 `json:"points_per_cost"`
	ActualPoints     *int    `json:"actual_points,omitempty"`
}

type teamForecastRow struct {
	TeamID          int     `json:"team_id"`
	Team            string  `json:"team"`
	CleanSheetProb  float64 `json:"clean_sheet_probability"`
	FixturesCovered int     `json:"fixtures_covered"`
}

func (a *app) buildPlayerForecast(args PredictPlayersArgs) (any, error) {
	next, err := resolveNextGW(a.data, args.NextGW)
	if err != nil {
		return nil, err
	}
	pos, err := parsePosition(args.Position)
	if err != nil {
		return nil, err
	}

	targets := targetGameweeks(next, args.TargetGWs, args.Horizon)
	span, err := a.pipe.Predict(next, targets, args.MinHistory)
	if err != nil {
		return nil, err
	}
	span.Pos = pos

	var totals []prediction.PlayerTotalPrediction
	switch args.SortBy {
	case "", "total":
		totals = span.PlayersByTotalPointsDesc(a.data.PlayerByID)
	case "clean_sheets":
		totals = span.PlayersByCleanSheetPointsDesc(a.data.PlayerByID)
	case "goals":
		totals = span.PlayersByGoalPointsDesc(a.data.PlayerByID)
	case "assists":
		totals = span.PlayersByAssistPointsDesc(a.data.PlayerByID)
	case "dc":
		totals = span.PlayersByDCPointsDesc(a.data.PlayerByID)
	case "value":
		totals = span.PlayersByPointsPerCostDesc(a.data.PlayerByID)
	default:
		return nil, fmt.Errorf("unknown sort_by %q", args.SortBy)
	}

	limit := args.Limit
	if limit <= 0 {
		limit = 30
	}
	if len(totals) > limit {
		totals = totals[:limit]
	}

	rows := make([]playerForecastRow, 0, len(totals))
	for _, total := range totals {
		row := playerForecastRow{
			PlayerID:         total.Player.ID,
			Name:             total.Player.FullName(),
			Team:             a.teamName(total.Player.TeamID),
			Position:         total.Player.Position.String(),
			Cost:             total.Player.NowCost,
			TotalPoints:      round2(total.TotalPoints()),
			CleanSheetPoints: round2(total.CleanSheetPoints()),
			GoalPoints:       round2(total.GoalPoints()),
			AssistPoints:     round2(total.AssistPoints()),
			DCPoints:         round2(total.DCPoints()),
			PointsPerCost:    round2(total.PointsPerCost()),
		}
		if pts, ok := total.ActualPoints(); ok {
			row.ActualPoints = &pts
		}
		rows = append(rows, row)
	}

	return map[string]any{
		"next_gw":    next,
		"target_gws": targets,
		"players":    rows,
	}, nil
}

func (a *app) buildCleanSheetForecast(args PredictCleanSheetsArgs) (any, error) {
	next, err := resolveNextGW(a.data, args.NextGW)
	if err != nil {
		return nil, err
	}
	targets := targetGameweeks(next, args.TargetGWs, args.Horizon)
	span, err := a.pipe.Predict(next, targets, args.MinHistory)
	if err != nil {
		return nil, err
	}

	totals := span.TeamsByCleanSheetDesc()
	rows := make([]teamForecastRow, 0, len(totals))
	for _, total := range totals {
		rows = append(rows, teamForecastRow{
			TeamID:          total.TeamID,
			Team:            a.teamName(total.TeamID),
			CleanSheetProb:  round2(total.CleanSheet().Ratio()),
			FixturesCovered: len(total.Fixtures),
		})
	}

	return map[string]any{
		"next_gw":    next,
		"target_gws": targets,
		"teams":      rows,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
