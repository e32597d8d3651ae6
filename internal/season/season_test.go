package season

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fplcast/internal/aggregate"
	"fplcast/internal/data"
)

func intPtr(v int) *int { return &v }

// twoTeamSeason loads two teams with one player each and three played
// gameweeks: team 1 wins 1-0 at home, draws 1-1 away, then wins 2-0 at home.
func twoTeamSeason(t *testing.T) *data.Context {
	t.Helper()
	ctx := data.NewContext()

	require.NoError(t, ctx.AddTeam(&data.Team{ID: 1, Name: "Arsenal"}))
	require.NoError(t, ctx.AddTeam(&data.Team{ID: 2, Name: "Chelsea"}))
	require.NoError(t, ctx.AddPlayer(&data.Player{ID: 10, TeamID: 1, Position: data.Forward, WebName: "Ten"}))
	require.NoError(t, ctx.AddPlayer(&data.Player{ID: 20, TeamID: 2, Position: data.Midfielder, WebName: "Twenty"}))

	add := func(id, gw int, homeTeam, awayTeam, homeScore, awayScore, homeFDR, awayFDR int) *data.Fixture {
		f := &data.Fixture{
			ID: id, Gameweek: gw, Finished: true,
			Home: data.TeamFixture{FixtureID: id, TeamID: homeTeam, Difficulty: homeFDR, Score: intPtr(homeScore)},
			Away: data.TeamFixture{FixtureID: id, TeamID: awayTeam, Difficulty: awayFDR, Score: intPtr(awayScore)},
		}
		require.NoError(t, ctx.AddFixture(f))
		return f
	}
	add(100, 1, 1, 2, 1, 0, 2, 4)
	add(101, 2, 2, 1, 1, 1, 3, 3)
	add(102, 3, 1, 2, 2, 0, 2, 4)

	pf := func(playerID, fixtureID, gw int, wasHome bool, xg, xa float64, minutes, points int) {
		require.NoError(t, ctx.AddPlayerFixture(&data.PlayerFixture{
			PlayerID: playerID, FixtureID: fixtureID, Gameweek: gw, WasHome: wasHome,
			ExpectedGoals: xg, ExpectedAssists: xa, Minutes: minutes, TotalPoints: points,
		}))
	}
	pf(10, 100, 1, true, 0.8, 0.1, 90, 8)
	pf(20, 100, 1, false, 0.2, 0.3, 90, 2)
	pf(10, 101, 2, false, 0.5, 0.2, 60, 5)
	pf(20, 101, 2, true, 0.4, 0.1, 90, 4)
	pf(10, 102, 3, true, 1.1, 0.0, 90, 9)
	pf(20, 102, 3, false, 0.1, 0.2, 45, 1)

	return ctx
}

func TestPlayAdvancesOncePerBatch(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)

	assert.Equal(t, 0, s.Gameweek())
	require.NoError(t, s.Play(ctx.FixturesByGameweek(1)))
	assert.Equal(t, 1, s.Gameweek())

	// A blank gameweek still advances the counter.
	require.NoError(t, s.Play(nil))
	assert.Equal(t, 2, s.Gameweek())
}

func TestPlayRejectsOutOfOrderGameweek(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)

	err := s.Play(ctx.FixturesByGameweek(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1")
	assert.Equal(t, 0, s.Gameweek(), "a rejected batch leaves the counter alone")
}

func TestSeasonWideAggregates(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)
	require.NoError(t, s.PlayAll(3))

	// 3 fixtures, 6 side observations. Team 1 shut team 2 out twice; team 2
	// never kept a clean sheet.
	assert.Equal(t, aggregate.New(2, 6), s.CleanSheets.Total())

	// Fixture-level xG is the sum of the side's player xG.
	assert.InDelta(t, 0.8+0.2+0.5+0.4+1.1+0.1, s.XG.Total().Total, 1e-12)
	assert.EqualValues(t, 6, s.XG.Total().Count)
}

func TestTeamFormWindows(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)
	require.NoError(t, s.PlayAll(3))

	ts, ok := s.TeamStats(1)
	require.True(t, ok)

	assert.Equal(t, aggregate.New(1, 1), ts.CSLast(1), "clean sheet in gw3")
	assert.Equal(t, aggregate.New(2, 3), ts.CSLast(3))
	assert.Equal(t, aggregate.New(2, 3), ts.CSLast(5), "short history clamps to what exists")

	assert.InDelta(t, 1.1, ts.XGForm(1).Total, 1e-12)
	assert.InDelta(t, 0.8+0.5+1.1, ts.XGForm(3).Total, 1e-12)
	assert.InDelta(t, 0.1+0.2+0.0, ts.XAForm(3).Total, 1e-12)
	assert.InDelta(t, 8+5+9, ts.PointsForm(3).Total, 1e-12)
}

func TestTeamFormNorm(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)
	require.NoError(t, s.PlayAll(3))

	ts, ok := s.TeamStats(1)
	require.True(t, ok)

	// Team 1 side observations: gw1 FDR2 xg=0.8, gw2 FDR3 xg=0.5,
	// gw3 FDR2 xg=1.1. Own norms divide each observation by the team's own
	// FDR-bucket share.
	norm2 := ts.XG.FDRNorm(2)
	norm3 := ts.XG.FDRNorm(3)

	got := ts.XGFormNorm(3, NormOwn)
	assert.InDelta(t, 0.8/norm2+0.5/norm3+1.1/norm2, got.Total, 1e-9)
	assert.EqualValues(t, 3, got.Count)

	// Season norms use the league-wide buckets instead.
	seasonNorm2 := s.XG.FDRNorm(2)
	seasonNorm3 := s.XG.FDRNorm(3)
	gotSeason := ts.XGFormNorm(3, NormSeason)
	assert.InDelta(t, 0.8/seasonNorm2+0.5/seasonNorm3+1.1/seasonNorm2, gotSeason.Total, 1e-9)
}

func TestFormNormZeroDenominatorContributesZero(t *testing.T) {
	ctx := data.NewContext()
	require.NoError(t, ctx.AddTeam(&data.Team{ID: 1}))
	require.NoError(t, ctx.AddTeam(&data.Team{ID: 2}))
	f := &data.Fixture{
		ID: 1, Gameweek: 1, Finished: true,
		Home: data.TeamFixture{FixtureID: 1, TeamID: 1, Difficulty: 2, Score: intPtr(0)},
		Away: data.TeamFixture{FixtureID: 1, TeamID: 2, Difficulty: 4, Score: intPtr(0)},
	}
	require.NoError(t, ctx.AddFixture(f))

	s := New(ctx)
	require.NoError(t, s.Play([]*data.Fixture{f}))

	ts, _ := s.TeamStats(1)
	// No xG recorded anywhere: norm denominators are all 0.
	got := ts.XGFormNorm(1, NormOwn)
	assert.Equal(t, 0.0, got.Total)
	assert.EqualValues(t, 1, got.Count, "the observation still counts")
}

func TestPlayerWindowsAndShare(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)
	require.NoError(t, s.PlayAll(3))

	ps, ok := s.PlayerStats(10)
	require.True(t, ok)

	assert.InDelta(t, 1.1, ps.Last(1, MetricXG).Total, 1e-12)
	assert.InDelta(t, 0.5+1.1, ps.Last(2, MetricXG).Total, 1e-12)
	assert.InDelta(t, 0.2+0.0, ps.Last(2, MetricXA).Total, 1e-12)
	assert.InDelta(t, 60+90, ps.Last(2, MetricMinutes).Total, 1e-12)
	assert.InDelta(t, 8+5+9, ps.Last(3, MetricPoints).Total, 1e-12)
	assert.EqualValues(t, 3, ps.Last(5, MetricXG).Count, "window clamps to season start")

	ts, _ := s.TeamStats(1)
	share, err := ps.ShareLast(3, MetricXG)
	require.NoError(t, err)
	assert.InDelta(t, ps.Last(3, MetricXG).Total/ts.XGForm(3).Total, share, 1e-12)

	_, err = ps.ShareLast(3, MetricMinutes)
	assert.Error(t, err, "minutes have no team counterpart")
}

func TestShareLastZeroTeamTotal(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)
	// Before any gameweek is played the team form is empty.
	ps, _ := s.PlayerStats(10)
	share, err := ps.ShareLast(5, MetricXG)
	require.NoError(t, err)
	assert.Equal(t, 0.0, share)
}

func TestWindowSizeValidation(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)
	ts, _ := s.TeamStats(1)
	ps, _ := s.PlayerStats(10)

	require.Panics(t, func() { ts.CSLast(0) })
	require.Panics(t, func() { ts.XGFormNorm(-1, NormOwn) })
	require.Panics(t, func() { ps.Last(0, MetricXG) })
}

func TestAddFixtureAndStatsRejectsForeignFixture(t *testing.T) {
	ctx := twoTeamSeason(t)
	s := New(ctx)
	ts, _ := s.TeamStats(1)

	foreign := &data.Fixture{
		ID: 999, Gameweek: 1,
		Home: data.TeamFixture{TeamID: 8},
		Away: data.TeamFixture{TeamID: 9},
	}
	assert.Error(t, ts.AddFixtureAndStats(foreign))
}
