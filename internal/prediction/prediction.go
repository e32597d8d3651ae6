// Package prediction holds the result containers the forecast models fill
// and the cross-gameweek aggregation views served to clients. Group by
// gameweek first, then merge per team or player; every derived number is
// computed on demand from the per-fixture parts.
package prediction

import (
	"sort"

	"github.com/samber/lo"

	"fplcast/internal/aggregate"
	"fplcast/internal/data"
)

// TeamFixturePrediction is one team's clean-sheet prediction for one fixture.
type TeamFixturePrediction struct {
	TeamID     int
	Fixture    *data.Fixture
	CleanSheet aggregate.Aggregate
}

// PlayerFixturePrediction is one player's metric predictions for one fixture.
// For future fixtures PlayerFixture is an identity shell without stats.
type PlayerFixturePrediction struct {
	PlayerID      int
	PlayerFixture *data.PlayerFixture
	Fixture       *data.Fixture

	CleanSheet aggregate.Aggregate
	XG         aggregate.Aggregate
	XA         aggregate.Aggregate
	DC         aggregate.Aggregate
}

// TeamTotalPrediction merges one team's fixture predictions across gameweeks.
type TeamTotalPrediction struct {
	TeamID   int
	Fixtures []TeamFixturePrediction
}

// CleanSheet sums the per-fixture clean-sheet predictions.
func (p TeamTotalPrediction) CleanSheet() aggregate.Aggregate {
	var out aggregate.Aggregate
	for _, fp := range p.Fixtures {
		out.Update(fp.CleanSheet)
	}
	return out
}

// PlayerTotalPrediction merges one player's fixture predictions across
// gameweeks and converts them to fantasy points via the position tables.
type PlayerTotalPrediction struct {
	Player   *data.Player
	Fixtures []PlayerFixturePrediction
}

func (p PlayerTotalPrediction) sum(pick func(PlayerFixturePrediction) aggregate.Aggregate) aggregate.Aggregate {
	var out aggregate.Aggregate
	for _, fp := range p.Fixtures {
		out.Update(pick(fp))
	}
	return out
}

func (p PlayerTotalPrediction) CleanSheet() aggregate.Aggregate {
	return p.sum(func(fp PlayerFixturePrediction) aggregate.Aggregate { return fp.CleanSheet })
}

func (p PlayerTotalPrediction) XG() aggregate.Aggregate {
	return p.sum(func(fp PlayerFixturePrediction) aggregate.Aggregate { return fp.XG })
}

func (p PlayerTotalPrediction) XA() aggregate.Aggregate {
	return p.sum(func(fp PlayerFixturePrediction) aggregate.Aggregate { return fp.XA })
}

func (p PlayerTotalPrediction) DC() aggregate.Aggregate {
	return p.sum(func(fp PlayerFixturePrediction) aggregate.Aggregate { return fp.DC })
}

// CleanSheetPoints is the expected fantasy points from clean sheets.
func (p PlayerTotalPrediction) CleanSheetPoints() float64 {
	return p.CleanSheet().Ratio() * p.Player.Position.CleanSheetPoints()
}

// GoalPoints is the expected fantasy points from goals, via xG.
func (p PlayerTotalPrediction) GoalPoints() float64 {
	return p.XG().Ratio() * p.Player.Position.GoalPoints()
}

// AssistPoints is the expected fantasy points from assists, via xA.
func (p PlayerTotalPrediction) AssistPoints() float64 {
	return p.XA().Ratio() * p.Player.Position.AssistPoints()
}

// DCPoints is the expected fantasy points from defensive contribution.
func (p PlayerTotalPrediction) DCPoints() float64 {
	return p.DC().Ratio() * p.Player.Position.DefensiveContributionPoints()
}

// TotalPoints is the expected fantasy points across all components.
func (p PlayerTotalPrediction) TotalPoints() float64 {
	return p.CleanSheetPoints() + p.GoalPoints() + p.AssistPoints() + p.DCPoints()
}

// PointsPerCost is expected points per unit of current price, 0 for a free
// (unpriced) player.
func (p PlayerTotalPrediction) PointsPerCost() float64 {
	if p.Player.NowCost == 0 {
		return 0
	}
	return p.TotalPoints() / p.Player.NowCost
}

// ActualPoints sums the points the player actually scored in the covered
// fixtures; ok is false when none of them has been played.
func (p PlayerTotalPrediction) ActualPoints() (int, bool) {
	total, played := 0, false
	for _, fp := range p.Fixtures {
		if fp.Fixture != nil && fp.Fixture.Finished && fp.PlayerFixture != nil {
			total += fp.PlayerFixture.TotalPoints
			played = true
		}
	}
	return total, played
}

// GameweekPrediction holds every team and player prediction for one
// gameweek, keyed for merging.
type GameweekPrediction struct {
	Gameweek int
	Teams    map[int]TeamFixturePrediction
	Players  map[int]PlayerFixturePrediction
}

// NewGameweekPrediction returns an empty container for one gameweek.
func NewGameweekPrediction(gameweek int) *GameweekPrediction {
	return &GameweekPrediction{
		Gameweek: gameweek,
		Teams:    make(map[int]TeamFixturePrediction),
		Players:  make(map[int]PlayerFixturePrediction),
	}
}

// AddTeam records one team's fixture prediction.
func (gp *GameweekPrediction) AddTeam(p TeamFixturePrediction) {
	gp.Teams[p.TeamID] = p
}

// AddPlayer records one player's fixture prediction.
func (gp *GameweekPrediction) AddPlayer(p PlayerFixturePrediction) {
	gp.Players[p.PlayerID] = p
}

// GameweekPredictions aggregates across gameweeks. Entities are enumerated
// from the first gameweek; a gameweek where the entity has no fixture simply
// contributes nothing to its totals. Pos, when set, restricts the player
// views to one position.
type GameweekPredictions struct {
	Gameweeks []*GameweekPrediction
	Pos       *data.Position
}

// TeamTotals merges per-team predictions across the covered gameweeks,
// ordered by team id.
func (g GameweekPredictions) TeamTotals() []TeamTotalPrediction {
	if len(g.Gameweeks) == 0 {
		return nil
	}
	ids := lo.Keys(g.Gameweeks[0].Teams)
	sort.Ints(ids)

	return lo.Map(ids, func(teamID int, _ int) TeamTotalPrediction {
		total := TeamTotalPrediction{TeamID: teamID}
		for _, gp := range g.Gameweeks {
			if fp, ok := gp.Teams[teamID]; ok {
				total.Fixtures = append(total.Fixtures, fp)
			}
		}
		return total
	})
}

// PlayerTotals merges per-player predictions across the covered gameweeks,
// ordered by player id, honoring the position filter. The resolver maps a
// player id to its Player record; unresolvable players are skipped.
func (g GameweekPredictions) PlayerTotals(resolve func(playerID int) (*data.Player, error)) []PlayerTotalPrediction {
	if len(g.Gameweeks) == 0 {
		return nil
	}
	ids := lo.Keys(g.Gameweeks[0].Players)
	sort.Ints(ids)

	var totals []PlayerTotalPrediction
	for _, playerID := range ids {
		player, err := resolve(playerID)
		if err != nil {
			continue
		}
		if g.Pos != nil && player.Position != *g.Pos {
			continue
		}
		total := PlayerTotalPrediction{Player: player}
		for _, gp := range g.Gameweeks {
			if fp, ok := gp.Players[playerID]; ok {
				total.Fixtures = append(total.Fixtures, fp)
			}
		}
		totals = append(totals, total)
	}
	return totals
}

// TeamsByCleanSheetDesc ranks teams by merged clean-sheet probability.
func (g GameweekPredictions) TeamsByCleanSheetDesc() []TeamTotalPrediction {
	totals := g.TeamTotals()
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].CleanSheet().Ratio() > totals[j].CleanSheet().Ratio()
	})
	return totals
}

func (g GameweekPredictions) playersBy(resolve func(int) (*data.Player, error), key func(PlayerTotalPrediction) float64) []PlayerTotalPrediction {
	totals := g.PlayerTotals(resolve)
	sort.SliceStable(totals, func(i, j int) bool { return key(totals[i]) > key(totals[j]) })
	return totals
}

// PlayersByCleanSheetPointsDesc ranks players by expected clean-sheet points.
func (g GameweekPredictions) PlayersByCleanSheetPointsDesc(resolve func(int) (*data.Player, error)) []PlayerTotalPrediction {
	return g.playersBy(resolve, PlayerTotalPrediction.CleanSheetPoints)
}

// PlayersByGoalPointsDesc ranks players by expected goal points.
func (g GameweekPredictions) PlayersByGoalPointsDesc(resolve func(int) (*data.Player, error)) []PlayerTotalPrediction {
	return g.playersBy(resolve, PlayerTotalPrediction.GoalPoints)
}

// PlayersByAssistPointsDesc ranks players by expected assist points.
func (g GameweekPredictions) PlayersByAssistPointsDesc(resolve func(int) (*data.Player, error)) []PlayerTotalPrediction {
	return g.playersBy(resolve, PlayerTotalPrediction.AssistPoints)
}

// PlayersByDCPointsDesc ranks players by expected defensive-contribution
// points.
func (g GameweekPredictions) PlayersByDCPointsDesc(resolve func(int) (*data.Player, error)) []PlayerTotalPrediction {
	return g.playersBy(resolve, PlayerTotalPrediction.DCPoints)
}

// PlayersByTotalPointsDesc ranks players by expected total points.
func (g GameweekPredictions) PlayersByTotalPointsDesc(resolve func(int) (*data.Player, error)) []PlayerTotalPrediction {
	return g.playersBy(resolve, PlayerTotalPrediction.TotalPoints)
}

// PlayersByPointsPerCostDesc ranks players by expected points per price.
func (g GameweekPredictions) PlayersByPointsPerCostDesc(resolve func(int) (*data.Player, error)) []PlayerTotalPrediction {
	return g.playersBy(resolve, PlayerTotalPrediction.PointsPerCost)
}
