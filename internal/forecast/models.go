// Package forecast holds the prediction models. Every model is a pure
// function of the Season state it holds: predicting never mutates, and a
// model asked about an entity with no history degrades to a zero-count
// aggregate rather than erroring.
package forecast

import (
	"math"

	"fplcast/internal/aggregate"
	"fplcast/internal/data"
	"fplcast/internal/season"
	"fplcast/internal/stats"
)

// DefaultWindow is the rolling-window length the player models read form
// over.
const DefaultWindow = 5

// TeamPredictor predicts one team's expected value of a metric in a fixture.
type TeamPredictor interface {
	PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate
}

// TeamScaler supplies a difficulty scale factor for one team in a fixture.
type TeamScaler interface {
	ScaleForTeam(teamID int, f *data.Fixture) float64
}

// PlayerPredictor predicts one player's expected value of a metric in a
// fixture. The parent fixture is passed alongside the player record so
// future fixtures (no stats yet) can be predicted too.
type PlayerPredictor interface {
	PredictForPlayer(pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate
}

func teamStats(s *season.Season, teamID int) *season.TeamStats {
	ts, ok := s.TeamStats(teamID)
	if !ok {
		return nil
	}
	return ts
}

// SeasonAvgCleanSheet predicts from the team's all-season clean-sheet rate.
type SeasonAvgCleanSheet struct {
	Season *season.Season
}

func (m SeasonAvgCleanSheet) PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate {
	ts := teamStats(m.Season, teamID)
	if ts == nil {
		return aggregate.Aggregate{}
	}
	return ts.CleanSheets.Total()
}

// FormCleanSheet predicts from the team's recent clean-sheet rate.
type FormCleanSheet struct {
	Season *season.Season
	Window int
}

func (m FormCleanSheet) window() int {
	if m.Window <= 0 {
		return DefaultWindow
	}
	return m.Window
}

func (m FormCleanSheet) PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate {
	ts := teamStats(m.Season, teamID)
	if ts == nil {
		return aggregate.Aggregate{}
	}
	return ts.CSLast(m.window())
}

// AllAndFormCleanSheet blends the season average with recent form; the
// shrinkage weighting lets form take over as its sample grows.
type AllAndFormCleanSheet struct {
	Season *season.Season
}

func (m AllAndFormCleanSheet) PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate {
	return aggregate.ShrunkWeightedAverage(
		SeasonAvgCleanSheet{Season: m.Season}.PredictForTeam(teamID, f),
		FormCleanSheet{Season: m.Season}.PredictForTeam(teamID, f),
	)
}

// FDRCleanSheet predicts from the league-wide clean-sheet rate at the
// difficulty the team faces in this fixture.
type FDRCleanSheet struct {
	Season *season.Season
}

func (m FDRCleanSheet) PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate {
	side, ok := f.SideOf(teamID)
	if !ok {
		return aggregate.Aggregate{}
	}
	return m.Season.CleanSheets.FDR(f.TeamSide(side).Difficulty)
}

// SeasonAndFDRCleanSheet blends the team's season average with the
// league-wide difficulty bucket.
type SeasonAndFDRCleanSheet struct {
	Season *season.Season
}

func (m SeasonAndFDRCleanSheet) PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate {
	return aggregate.ShrunkWeightedAverage(
		SeasonAvgCleanSheet{Season: m.Season}.PredictForTeam(teamID, f),
		FDRCleanSheet{Season: m.Season}.PredictForTeam(teamID, f),
	)
}

// UltimateCleanSheet is the production clean-sheet model: 60% league
// difficulty bucket, 40% a venue blend of the team's own side aggregate
// against its overall one, weighted by how much of a season the side sample
// covers.
type UltimateCleanSheet struct {
	Season *season.Season
}

func (m UltimateCleanSheet) PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate {
	ts := teamStats(m.Season, teamID)
	side, ok := f.SideOf(teamID)
	if ts == nil || !ok {
		return aggregate.Aggregate{}
	}

	sideAgg := ts.CleanSheets.Side(side)
	totalAgg := ts.CleanSheets.Total()
	venue := aggregate.WeightedAverage(
		aggregate.Weighted{Aggregate: sideAgg, Weight: sideAgg.Count},
		aggregate.Weighted{Aggregate: totalAgg, Weight: 38 - sideAgg.Count},
	)
	return aggregate.WeightedAverage(
		aggregate.Weighted{Aggregate: FDRCleanSheet{Season: m.Season}.PredictForTeam(teamID, f), Weight: 0.6},
		aggregate.Weighted{Aggregate: venue, Weight: 0.4},
	)
}

// fdrScale is the difficulty scale shared by the simple xG/xA/DC models: the
// team's own bucket share once it has at least minFDRObservations in the
// bucket, the league-wide share until then.
const minFDRObservations = 3

func fdrScale(own, seasonWide *stats.Buckets, teamID int, f *data.Fixture) float64 {
	side, ok := f.SideOf(teamID)
	if !ok {
		return 0
	}
	fdr := f.TeamSide(side).Difficulty
	if own != nil && own.FDR(fdr).Count >= minFDRObservations {
		return own.FDRNorm(fdr)
	}
	return seasonWide.FDRNorm(fdr)
}

// SimpleXG predicts a team's expected goals as its own-normalized 3-gameweek
// form rescaled by the fixture's difficulty.
type SimpleXG struct {
	Season *season.Season
}

func (m SimpleXG) ScaleForTeam(teamID int, f *data.Fixture) float64 {
	ts := teamStats(m.Season, teamID)
	var own *stats.Buckets
	if ts != nil {
		own = &ts.XG.Buckets
	}
	return fdrScale(own, &m.Season.XG.Buckets, teamID, f)
}

func (m SimpleXG) PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate {
	ts := teamStats(m.Season, teamID)
	if ts == nil {
		return aggregate.Aggregate{}
	}
	form := ts.XGFormNorm(3, season.NormOwn)
	return aggregate.New(form.Ratio()*m.ScaleForTeam(teamID, f), 1)
}

// SimpleXA is SimpleXG over expected assists.
type SimpleXA struct {
	Season *season.Season
}

func (m SimpleXA) ScaleForTeam(teamID int, f *data.Fixture) float64 {
	ts := teamStats(m.Season, teamID)
	var own *stats.Buckets
	if ts != nil {
		own = &ts.XA.Buckets
	}
	return fdrScale(own, &m.Season.XA.Buckets, teamID, f)
}

func (m SimpleXA) PredictForTeam(teamID int, f *data.Fixture) aggregate.Aggregate {
	ts := teamStats(m.Season, teamID)
	if ts == nil {
		return aggregate.Aggregate{}
	}
	form := ts.XAFormNorm(3, season.NormOwn)
	return aggregate.New(form.Ratio()*m.ScaleForTeam(teamID, f), 1)
}

// SimpleDC supplies the difficulty scale for defensive contribution. There
// is no team-level DC prediction; players are scaled directly.
type SimpleDC struct {
	Season *season.Season
}

func (m SimpleDC) ScaleForTeam(teamID int, f *data.Fixture) float64 {
	ts := teamStats(m.Season, teamID)
	var own *stats.Buckets
	if ts != nil {
		own = &ts.DC.Buckets
	}
	return fdrScale(own, &m.Season.DC.Buckets, teamID, f)
}

// PlayerCSSimple discounts the team's clean-sheet prediction by the player's
// recent playing time: a player averaging a full hour or more gets the whole
// team probability, below that a linear share.
type PlayerCSSimple struct {
	Season *season.Season
	Team   TeamPredictor
	Window int
}

func (m PlayerCSSimple) window() int {
	if m.Window <= 0 {
		return DefaultWindow
	}
	return m.Window
}

func (m PlayerCSSimple) PredictForPlayer(pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate {
	ps, ok := m.Season.PlayerStats(pf.PlayerID)
	if !ok {
		return aggregate.Aggregate{}
	}
	teamCS := m.Team.PredictForTeam(pf.TeamID, f)
	minutes := ps.Last(m.window(), season.MetricMinutes)
	participation := math.Min(1, minutes.Ratio()/60)
	return aggregate.New(teamCS.Ratio()*participation, 1)
}

// playerRateModel is the shared shape of the simple player metric models:
// the player's own recent per-fixture rate rescaled by the team's difficulty
// scale.
func playerRate(s *season.Season, scaler TeamScaler, metric season.Metric, window int, pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate {
	ps, ok := s.PlayerStats(pf.PlayerID)
	if !ok {
		return aggregate.Aggregate{}
	}
	rate := ps.Last(window, metric)
	return aggregate.New(rate.Ratio()*scaler.ScaleForTeam(pf.TeamID, f), 1)
}

// PlayerXGSimple predicts a player's xG from their own recent rate.
type PlayerXGSimple struct {
	Season *season.Season
	Team   TeamScaler
	Window int
}

func (m PlayerXGSimple) PredictForPlayer(pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate {
	w := m.Window
	if w <= 0 {
		w = DefaultWindow
	}
	return playerRate(m.Season, m.Team, season.MetricXG, w, pf, f)
}

// PlayerXASimple predicts a player's xA from their own recent rate.
type PlayerXASimple struct {
	Season *season.Season
	Team   TeamScaler
	Window int
}

func (m PlayerXASimple) PredictForPlayer(pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate {
	w := m.Window
	if w <= 0 {
		w = DefaultWindow
	}
	return playerRate(m.Season, m.Team, season.MetricXA, w, pf, f)
}

// PlayerDCSimple predicts a player's defensive contribution from their own
// recent rate.
type PlayerDCSimple struct {
	Season *season.Season
	Team   TeamScaler
	Window int
}

func (m PlayerDCSimple) PredictForPlayer(pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate {
	w := m.Window
	if w <= 0 {
		w = DefaultWindow
	}
	return playerRate(m.Season, m.Team, season.MetricDC, w, pf, f)
}

// playerShare apportions the team-level prediction by the player's recent
// fraction of team output. A player or team with no history contributes a
// zero share.
func playerShare(s *season.Season, team TeamPredictor, metric season.Metric, window int, pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate {
	ps, ok := s.PlayerStats(pf.PlayerID)
	if !ok {
		return aggregate.Aggregate{}
	}
	teamPred := team.PredictForTeam(pf.TeamID, f)
	share, err := ps.ShareLast(window, metric)
	if err != nil {
		share = 0
	}
	return aggregate.New(teamPred.Total*share, teamPred.Count)
}

// PlayerXGUltimate apportions the team xG prediction by the player's share
// of team xG.
type PlayerXGUltimate struct {
	Season *season.Season
	Team   TeamPredictor
	Window int
}

func (m PlayerXGUltimate) PredictForPlayer(pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate {
	w := m.Window
	if w <= 0 {
		w = DefaultWindow
	}
	return playerShare(m.Season, m.Team, season.MetricXG, w, pf, f)
}

// PlayerXAUltimate apportions the team xA prediction by the player's share
// of team xA.
type PlayerXAUltimate struct {
	Season *season.Season
	Team   TeamPredictor
	Window int
}

func (m PlayerXAUltimate) PredictForPlayer(pf *data.PlayerFixture, f *data.Fixture) aggregate.Aggregate {
	w := m.Window
	if w <= 0 {
		w = DefaultWindow
	}
	return playerShare(m.Season, m.Team, season.MetricXA, w, pf, f)
}
