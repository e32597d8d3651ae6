// Package loader converts raw upstream JSON snapshots into the typed
// repositories the statistics layer works on.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"fplcast/internal/data"
	"fplcast/internal/fetch"
	"fplcast/internal/logging"
	"fplcast/internal/store"
)

type bootstrapResponse struct {
	Events   []eventRow   `json:"events"`
	Teams    []teamRow    `json:"teams"`
	Elements []elementRow `json:"elements"`
}

type eventRow struct {
	ID           int     `json:"id"`
	DeadlineTime *string `json:"deadline_time"`
}

type teamRow struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	StrengthOverallHome int    `json:"strength_overall_home"`
	StrengthOverallAway int    `json:"strength_overall_away"`
	StrengthAttackHome  int    `json:"strength_attack_home"`
	StrengthAttackAway  int    `json:"strength_attack_away"`
	StrengthDefenceHome int    `json:"strength_defence_home"`
	StrengthDefenceAway int    `json:"strength_defence_away"`
}

type elementRow struct {
	ID                       int    `json:"id"`
	FirstName                string `json:"first_name"`
	SecondName               string `json:"second_name"`
	WebName                  string `json:"web_name"`
	ElementType              int    `json:"element_type"`
	Team                     int    `json:"team"`
	NowCost                  int    `json:"now_cost"`
	Status                   string `json:"status"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
	ChanceOfPlayingThisRound *int   `json:"chance_of_playing_this_round"`
	News                     string `json:"news"`
}

type fixtureRow struct {
	ID              int  `json:"id"`
	Event           *int `json:"event"`
	Finished        bool `json:"finished"`
	TeamH           int  `json:"team_h"`
	TeamHDifficulty int  `json:"team_h_difficulty"`
	TeamHScore      *int `json:"team_h_score"`
	TeamA           int  `json:"team_a"`
	TeamADifficulty int  `json:"team_a_difficulty"`
	TeamAScore      *int `json:"team_a_score"`
}

type elementSummary struct {
	History  []historyRow       `json:"history"`
	Fixtures []futureFixtureRow `json:"fixtures"`
}

// The expected-stat fields arrive as decimal strings.
type historyRow struct {
	Element               int    `json:"element"`
	Fixture               int    `json:"fixture"`
	Round                 int    `json:"round"`
	WasHome               bool   `json:"was_home"`
	TotalPoints           int    `json:"total_points"`
	Minutes               int    `json:"minutes"`
	GoalsScored           int    `json:"goals_scored"`
	Assists               int    `json:"assists"`
	CleanSheets           int    `json:"clean_sheets"`
	DefensiveContribution int    `json:"defensive_contribution"`
	ExpectedGoals         string `json:"expected_goals"`
	ExpectedAssists       string `json:"expected_assists"`
	ExpectedGoalInvolved  string `json:"expected_goal_involvements"`
	ExpectedGoalsConceded string `json:"expected_goals_conceded"`
	Value                 int    `json:"value"`
	Starts                int    `json:"starts"`
}

type futureFixtureRow struct {
	ID     int  `json:"id"`
	Event  *int `json:"event"`
	IsHome bool `json:"is_home"`
}

// Build assembles a Context from raw bootstrap, fixtures, and per-player
// element-summary bodies. Fixtures without a scheduled gameweek are skipped,
// as are the future player fixtures pointing at them.
func Build(bootstrap, fixtures []byte, summaries map[int][]byte) (*data.Context, error) {
	log := logging.WithComponent("loader")

	var boot bootstrapResponse
	if err := json.Unmarshal(bootstrap, &boot); err != nil {
		return nil, fmt.Errorf("loader: bootstrap: %w", err)
	}
	var fixtureRows []fixtureRow
	if err := json.Unmarshal(fixtures, &fixtureRows); err != nil {
		return nil, fmt.Errorf("loader: fixtures: %w", err)
	}

	ctx := data.NewContext()

	for _, row := range boot.Events {
		gw, err := eventToGameweek(row)
		if err != nil {
			return nil, err
		}
		if err := ctx.AddGameweek(gw); err != nil {
			return nil, err
		}
	}

	for _, row := range boot.Teams {
		if err := ctx.AddTeam(teamFromRow(row)); err != nil {
			return nil, err
		}
	}

	for _, row := range boot.Elements {
		if err := ctx.AddPlayer(playerFromRow(row)); err != nil {
			return nil, err
		}
	}

	unscheduled := 0
	for _, row := range fixtureRows {
		if row.Event == nil {
			unscheduled++
			continue
		}
		if err := ctx.AddFixture(fixtureFromRow(row)); err != nil {
			return nil, err
		}
	}
	if unscheduled > 0 {
		log.WithField("count", unscheduled).Info("Skipped unscheduled fixtures")
	}

	for playerID, body := range summaries {
		var summary elementSummary
		if err := json.Unmarshal(body, &summary); err != nil {
			return nil, fmt.Errorf("loader: element summary %d: %w", playerID, err)
		}
		for _, row := range summary.History {
			pf, err := historyToPlayerFixture(row)
			if err != nil {
				return nil, err
			}
			if err := ctx.AddPlayerFixture(pf); err != nil {
				return nil, err
			}
		}
		for _, row := range summary.Fixtures {
			if row.Event == nil {
				continue
			}
			if _, err := ctx.FixtureByID(row.ID); errors.Is(err, data.ErrNotFound) {
				continue
			}
			pf := &data.PlayerFixture{
				PlayerID:  playerID,
				FixtureID: row.ID,
				Gameweek:  *row.Event,
				WasHome:   row.IsHome,
			}
			if err := ctx.AddPlayerFixture(pf); err != nil {
				return nil, err
			}
		}
	}

	log.WithFields(logrus.Fields{
		"teams":    len(ctx.Teams()),
		"players":  len(ctx.Players()),
		"elements": len(summaries),
	}).Info("Loaded dataset")
	return ctx, nil
}

// Load assembles a Context from the latest snapshots in the store. Players
// without a fetched element summary contribute no fixture history.
func Load(st *store.SnapshotStore) (*data.Context, error) {
	log := logging.WithComponent("loader")

	bootstrap, err := st.ReadLatest("bootstrap")
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	fixtures, err := st.ReadLatest("fixtures")
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	var boot bootstrapResponse
	if err := json.Unmarshal(bootstrap, &boot); err != nil {
		return nil, fmt.Errorf("loader: bootstrap: %w", err)
	}

	summaries := make(map[int][]byte, len(boot.Elements))
	missing := 0
	for _, row := range boot.Elements {
		body, err := st.ReadLatest(fetch.ElementSummaryPath(row.ID))
		if errors.Is(err, store.ErrNoSnapshots) {
			missing++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loader: element summary %d: %w", row.ID, err)
		}
		summaries[row.ID] = body
	}
	if missing > 0 {
		log.WithField("count", missing).Warn("Players without element-summary snapshots")
	}

	return Build(bootstrap, fixtures, summaries)
}

func eventToGameweek(row eventRow) (data.Gameweek, error) {
	if row.DeadlineTime == nil {
		return data.Gameweek{}, fmt.Errorf("loader: missing deadline_time for gameweek %d", row.ID)
	}
	deadline, err := time.Parse(time.RFC3339, *row.DeadlineTime)
	if err != nil {
		return data.Gameweek{}, fmt.Errorf("loader: gameweek %d deadline: %w", row.ID, err)
	}
	return data.Gameweek{Number: row.ID, Deadline: deadline}, nil
}

func teamFromRow(row teamRow) *data.Team {
	return &data.Team{
		ID:                  row.ID,
		Name:                row.Name,
		StrengthOverallHome: row.StrengthOverallHome,
		StrengthOverallAway: row.StrengthOverallAway,
		StrengthAttackHome:  row.StrengthAttackHome,
		StrengthAttackAway:  row.StrengthAttackAway,
		StrengthDefenceHome: row.StrengthDefenceHome,
		StrengthDefenceAway: row.StrengthDefenceAway,
	}
}

func playerFromRow(row elementRow) *data.Player {
	return &data.Player{
		ID:                       row.ID,
		FirstName:                row.FirstName,
		SecondName:               row.SecondName,
		WebName:                  row.WebName,
		Position:                 data.Position(row.ElementType),
		TeamID:                   row.Team,
		NowCost:                  float64(row.NowCost) / 10,
		Status:                   row.Status,
		ChanceOfPlayingNextRound: row.ChanceOfPlayingNextRound,
		ChanceOfPlayingThisRound: row.ChanceOfPlayingThisRound,
		News:                     row.News,
	}
}

func fixtureFromRow(row fixtureRow) *data.Fixture {
	return &data.Fixture{
		ID:       row.ID,
		Gameweek: *row.Event,
		Finished: row.Finished,
		Home: data.TeamFixture{
			FixtureID:  row.ID,
			TeamID:     row.TeamH,
			Difficulty: row.TeamHDifficulty,
			Score:      row.TeamHScore,
		},
		Away: data.TeamFixture{
			FixtureID:  row.ID,
			TeamID:     row.TeamA,
			Difficulty: row.TeamADifficulty,
			Score:      row.TeamAScore,
		},
	}
}

func historyToPlayerFixture(row historyRow) (*data.PlayerFixture, error) {
	xg, err := parseExpected(row.ExpectedGoals, "expected_goals", row)
	if err != nil {
		return nil, err
	}
	xa, err := parseExpected(row.ExpectedAssists, "expected_assists", row)
	if err != nil {
		return nil, err
	}
	xgi, err := parseExpected(row.ExpectedGoalInvolved, "expected_goal_involvements", row)
	if err != nil {
		return nil, err
	}
	xgc, err := parseExpected(row.ExpectedGoalsConceded, "expected_goals_conceded", row)
	if err != nil {
		return nil, err
	}
	return &data.PlayerFixture{
		PlayerID:              row.Element,
		FixtureID:             row.Fixture,
		Gameweek:              row.Round,
		WasHome:               row.WasHome,
		TotalPoints:           row.TotalPoints,
		Minutes:               row.Minutes,
		Goals:                 row.GoalsScored,
		Assists:               row.Assists,
		CleanSheets:           row.CleanSheets,
		DefensiveContribution: row.DefensiveContribution,
		ExpectedGoals:         xg,
		ExpectedAssists:       xa,
		ExpectedGoalInvolved:  xgi,
		ExpectedGoalsConceded: xgc,
		Value:                 row.Value,
		Starts:                row.Starts,
	}, nil
}

func parseExpected(s, field string, row historyRow) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("loader: player %d fixture %d: bad %s %q", row.Element, row.Fixture, field, s)
	}
	return v, nil
}
