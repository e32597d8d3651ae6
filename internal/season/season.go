// Package season replays a fantasy season gameweek by gameweek, maintaining
// season-wide, per-team, and per-player accumulators that the forecast models
// query. State only ever moves forward: Play consumes one complete gameweek at
// a time and the gameweek counter advances exactly once per batch.
package season

import (
	"fmt"

	"fplcast/internal/aggregate"
	"fplcast/internal/data"
	"fplcast/internal/stats"
)

// Metric selects which per-player observation a window query reads.
type Metric string

const (
	MetricXG      Metric = "xg"
	MetricXA      Metric = "xa"
	MetricDC      Metric = "dc"
	MetricMinutes Metric = "minutes"
	MetricPoints  Metric = "points"
)

// NormKind selects the difficulty-normalization denominator: the team's own
// buckets or the season-wide ones.
type NormKind string

const (
	NormOwn    NormKind = "own"
	NormSeason NormKind = "season"
)

// TeamStats tracks one team's bucketed accumulators across every metric.
// Fixture lists inside each accumulator hold only this team's fixtures.
type TeamStats struct {
	TeamID int

	CleanSheets *stats.FixtureAggregate
	XG          *stats.FixtureAggregate
	XA          *stats.FixtureAggregate
	DC          *stats.FixtureAggregate
	Points      *stats.FixtureAggregate

	season *Season
}

func newTeamStats(teamID int, s *Season) *TeamStats {
	return &TeamStats{
		TeamID:      teamID,
		CleanSheets: stats.NewCleanSheet(),
		XG:          stats.NewXG(),
		XA:          stats.NewXA(),
		DC:          stats.NewDC(),
		Points:      stats.NewPoints(),
		season:      s,
	}
}

// AddFixtureAndStats records one of this team's fixtures into every metric
// accumulator, on the side the team occupied. A fixture not involving the
// team means the replay routed it wrong, which is fatal for the caller.
func (ts *TeamStats) AddFixtureAndStats(f *data.Fixture) error {
	side, ok := f.SideOf(ts.TeamID)
	if !ok {
		return fmt.Errorf("season: fixture %d does not involve team %d", f.ID, ts.TeamID)
	}
	for _, agg := range ts.all() {
		agg.AddFixture(f)
		if side == data.Home {
			agg.AddHomeStats(f)
		} else {
			agg.AddAwayStats(f)
		}
	}
	return nil
}

func (ts *TeamStats) all() []*stats.FixtureAggregate {
	return []*stats.FixtureAggregate{ts.CleanSheets, ts.XG, ts.XA, ts.DC, ts.Points}
}

// formWindow sums the team-side extraction of agg over the last n gameweeks
// ending at the season's current gameweek. Gameweeks with no fixture
// contribute nothing; a short history yields a smaller-count aggregate.
func (ts *TeamStats) formWindow(agg *stats.FixtureAggregate, n int) aggregate.Aggregate {
	if n <= 0 {
		panic(fmt.Sprintf("season: window size %d", n))
	}
	var out aggregate.Aggregate
	last := ts.season.Gameweek()
	for i := 0; i < n; i++ {
		for _, f := range agg.FixturesIn(last - i) {
			side, _ := f.SideOf(ts.TeamID)
			out.Update(agg.Value(f, side))
		}
	}
	return out
}

// CSLast is the team's clean-sheet aggregate over the last n gameweeks.
func (ts *TeamStats) CSLast(n int) aggregate.Aggregate { return ts.formWindow(ts.CleanSheets, n) }

// XGForm is the team's expected goals over the last n gameweeks.
func (ts *TeamStats) XGForm(n int) aggregate.Aggregate { return ts.formWindow(ts.XG, n) }

// XAForm is the team's expected assists over the last n gameweeks.
func (ts *TeamStats) XAForm(n int) aggregate.Aggregate { return ts.formWindow(ts.XA, n) }

// DCForm is the team's defensive contribution over the last n gameweeks.
func (ts *TeamStats) DCForm(n int) aggregate.Aggregate { return ts.formWindow(ts.DC, n) }

// PointsForm is the team's fantasy points over the last n gameweeks.
func (ts *TeamStats) PointsForm(n int) aggregate.Aggregate { return ts.formWindow(ts.Points, n) }

// formNorm divides each windowed observation by the chosen FDR-norm
// denominator for that fixture's difficulty. A zero denominator contributes
// 0 to the total; the count still advances.
func (ts *TeamStats) formNorm(own, seasonWide *stats.FixtureAggregate, n int, kind NormKind) aggregate.Aggregate {
	if n <= 0 {
		panic(fmt.Sprintf("season: window size %d", n))
	}
	var out aggregate.Aggregate
	last := ts.season.Gameweek()
	for i := 0; i < n; i++ {
		for _, f := range own.FixturesIn(last - i) {
			side, _ := f.SideOf(ts.TeamID)
			fdr := f.TeamSide(side).Difficulty

			denom := own.FDRNorm(fdr)
			if kind == NormSeason {
				denom = seasonWide.FDRNorm(fdr)
			}
			obs := own.Value(f, side)
			if denom != 0 {
				out.Update(aggregate.New(obs.Total/denom, obs.Count))
			} else {
				out.Update(aggregate.New(0, obs.Count))
			}
		}
	}
	return out
}

// XGFormNorm is the difficulty-normalized xG form over the last n gameweeks.
func (ts *TeamStats) XGFormNorm(n int, kind NormKind) aggregate.Aggregate {
	return ts.formNorm(ts.XG, ts.season.XG, n, kind)
}

// XAFormNorm is the difficulty-normalized xA form over the last n gameweeks.
func (ts *TeamStats) XAFormNorm(n int, kind NormKind) aggregate.Aggregate {
	return ts.formNorm(ts.XA, ts.season.XA, n, kind)
}

// PlayerStats tracks one player's per-gameweek appearance history and
// bucketed xG/xA/DC accumulators.
type PlayerStats struct {
	PlayerID int

	XG *stats.PlayerAggregate
	XA *stats.PlayerAggregate
	DC *stats.PlayerAggregate

	byGameweek [stats.SeasonGameweeks + 1][]*data.PlayerFixture

	season *Season
}

func newPlayerStats(playerID int, s *Season) *PlayerStats {
	return &PlayerStats{
		PlayerID: playerID,
		XG:       stats.NewPlayerXG(),
		XA:       stats.NewPlayerXA(),
		DC:       stats.NewPlayerDC(),
		season:   s,
	}
}

func (ps *PlayerStats) addPlayerFixture(pf *data.PlayerFixture, difficulty int) error {
	if pf.PlayerID != ps.PlayerID {
		return fmt.Errorf("season: player fixture for %d routed to %d", pf.PlayerID, ps.PlayerID)
	}
	if pf.Gameweek < 1 || pf.Gameweek > stats.SeasonGameweeks {
		return fmt.Errorf("season: player fixture gameweek %d out of range", pf.Gameweek)
	}
	ps.byGameweek[pf.Gameweek] = append(ps.byGameweek[pf.Gameweek], pf)
	ps.XG.AddPlayerFixture(pf, difficulty)
	ps.XA.AddPlayerFixture(pf, difficulty)
	ps.DC.AddPlayerFixture(pf, difficulty)
	return nil
}

func metricValue(pf *data.PlayerFixture, metric Metric) float64 {
	switch metric {
	case MetricXG:
		return pf.ExpectedGoals
	case MetricXA:
		return pf.ExpectedAssists
	case MetricDC:
		return float64(pf.DefensiveContribution)
	case MetricMinutes:
		return float64(pf.Minutes)
	case MetricPoints:
		return float64(pf.TotalPoints)
	default:
		panic(fmt.Sprintf("season: unknown metric %q", metric))
	}
}

// Last is the player's aggregate for one metric over the last n gameweeks.
func (ps *PlayerStats) Last(n int, metric Metric) aggregate.Aggregate {
	if n <= 0 {
		panic(fmt.Sprintf("season: window size %d", n))
	}
	var out aggregate.Aggregate
	last := ps.season.Gameweek()
	for i := 0; i < n; i++ {
		gw := last - i
		if gw < 1 || gw > stats.SeasonGameweeks {
			continue
		}
		for _, pf := range ps.byGameweek[gw] {
			out.Update(aggregate.New(metricValue(pf, metric), 1))
		}
	}
	return out
}

// ShareLast is the player's fraction of their team's output for one metric
// over the last n gameweeks, 0 when the team produced nothing in the window.
// Minutes have no team-side counterpart and are rejected.
func (ps *PlayerStats) ShareLast(n int, metric Metric) (float64, error) {
	p, err := ps.season.ctx.PlayerByID(ps.PlayerID)
	if err != nil {
		return 0, err
	}
	team, ok := ps.season.TeamStats(p.TeamID)
	if !ok {
		return 0, fmt.Errorf("season: no stats for team %d", p.TeamID)
	}

	var teamForm aggregate.Aggregate
	switch metric {
	case MetricXG:
		teamForm = team.XGForm(n)
	case MetricXA:
		teamForm = team.XAForm(n)
	case MetricDC:
		teamForm = team.DCForm(n)
	case MetricPoints:
		teamForm = team.PointsForm(n)
	default:
		return 0, fmt.Errorf("season: no team form for metric %q", metric)
	}

	if teamForm.Total == 0 {
		return 0, nil
	}
	return ps.Last(n, metric).Total / teamForm.Total, nil
}

// Season is the replay state: the current gameweek (0 before any fixtures
// have been played), the season-wide accumulators, and the per-team and
// per-player stats for every entity in the loaded Context.
type Season struct {
	ctx      *data.Context
	gameweek int

	CleanSheets *stats.FixtureAggregate
	XG          *stats.FixtureAggregate
	XA          *stats.FixtureAggregate
	DC          *stats.FixtureAggregate

	teamStats   map[int]*TeamStats
	playerStats map[int]*PlayerStats
}

// New builds the replay state for every team and player in ctx, positioned
// before gameweek 1.
func New(ctx *data.Context) *Season {
	s := &Season{
		ctx:         ctx,
		CleanSheets: stats.NewCleanSheet(),
		XG:          stats.NewXG(),
		XA:          stats.NewXA(),
		DC:          stats.NewDC(),
		teamStats:   make(map[int]*TeamStats),
		playerStats: make(map[int]*PlayerStats),
	}
	for _, team := range ctx.Teams() {
		s.teamStats[team.ID] = newTeamStats(team.ID, s)
	}
	for _, player := range ctx.Players() {
		s.playerStats[player.ID] = newPlayerStats(player.ID, s)
	}
	return s
}

// Context returns the dataset this season replays.
func (s *Season) Context() *data.Context { return s.ctx }

// Gameweek returns the last fully played gameweek, 0 before any replay.
func (s *Season) Gameweek() int { return s.gameweek }

// TeamStats returns the accumulator for one team.
func (s *Season) TeamStats(teamID int) (*TeamStats, bool) {
	ts, ok := s.teamStats[teamID]
	return ts, ok
}

// PlayerStats returns the accumulator for one player.
func (s *Season) PlayerStats(playerID int) (*PlayerStats, bool) {
	ps, ok := s.playerStats[playerID]
	return ps, ok
}

// Play consumes one gameweek's fixtures. Every fixture must belong to the
// gameweek directly after the current one; anything else means fixtures are
// being replayed out of order and the season state can no longer be trusted.
// The counter advances once per batch, even an empty one (a blank gameweek).
func (s *Season) Play(fixtures []*data.Fixture) error {
	next := s.gameweek + 1
	for _, f := range fixtures {
		if f.Gameweek != next {
			return fmt.Errorf("season: fixture %d is gameweek %d, expected %d", f.ID, f.Gameweek, next)
		}

		for _, agg := range []*stats.FixtureAggregate{s.CleanSheets, s.XG, s.XA, s.DC} {
			agg.AddFixture(f)
			agg.AddHomeStats(f)
			agg.AddAwayStats(f)
		}

		for _, teamID := range []int{f.Home.TeamID, f.Away.TeamID} {
			ts, ok := s.teamStats[teamID]
			if !ok {
				return fmt.Errorf("season: fixture %d references unknown team %d", f.ID, teamID)
			}
			if err := ts.AddFixtureAndStats(f); err != nil {
				return err
			}
		}

		for _, pf := range s.ctx.PlayerFixturesByFixture(f.ID) {
			ps, ok := s.playerStats[pf.PlayerID]
			if !ok {
				return fmt.Errorf("season: fixture %d references unknown player %d", f.ID, pf.PlayerID)
			}
			side, _ := f.SideOf(pf.TeamID)
			if err := ps.addPlayerFixture(pf, f.TeamSide(side).Difficulty); err != nil {
				return err
			}
		}
	}
	s.gameweek = next
	return nil
}

// PlayAll replays every gameweek in ctx order up to and including maxGameweek.
func (s *Season) PlayAll(maxGameweek int) error {
	for gw := s.gameweek + 1; gw <= maxGameweek; gw++ {
		if err := s.Play(s.ctx.FixturesByGameweek(gw)); err != nil {
			return err
		}
	}
	return nil
}
