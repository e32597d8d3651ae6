package rotation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fplcast/internal/data"
	"fplcast/internal/fotmob"
)

var (
	gw1Deadline = time.Date(2025, 8, 15, 17, 30, 0, 0, time.UTC)
	gw2Deadline = time.Date(2025, 8, 22, 17, 30, 0, 0, time.UTC)
	gw3Deadline = time.Date(2025, 8, 29, 17, 30, 0, 0, time.UTC)
	gw4Deadline = time.Date(2025, 9, 13, 16, 0, 0, 0, time.UTC)

	gw1Kickoff = gw1Deadline.Add(24 * time.Hour)
	gw2Kickoff = gw2Deadline.Add(24 * time.Hour)
	gw3Kickoff = gw3Deadline.Add(24 * time.Hour)
)

// leagueContext loads all twenty fantasy teams, each with one filler player
// whose name cannot collide with any test name, plus three gameweek
// deadlines.
func leagueContext(t *testing.T) *data.Context {
	t.Helper()
	ctx := data.NewContext()
	for id := 1; id <= 20; id++ {
		require.NoError(t, ctx.AddTeam(&data.Team{ID: id, Name: fotmob.FPLTeamIDToName[id]}))
		require.NoError(t, ctx.AddPlayer(&data.Player{
			ID:         1000 + id,
			FirstName:  "Filler",
			SecondName: fmt.Sprintf("Zz%d", id),
			TeamID:     id,
		}))
	}
	require.NoError(t, ctx.AddGameweek(data.Gameweek{Number: 1, Deadline: gw1Deadline}))
	require.NoError(t, ctx.AddGameweek(data.Gameweek{Number: 2, Deadline: gw2Deadline}))
	require.NoError(t, ctx.AddGameweek(data.Gameweek{Number: 3, Deadline: gw3Deadline}))
	require.NoError(t, ctx.AddGameweek(data.Gameweek{Number: 4, Deadline: gw4Deadline}))
	return ctx
}

func mustMap(t *testing.T, mapper GameweekMapper, kickoff time.Time) int {
	t.Helper()
	gw, err := mapper(kickoff)
	require.NoError(t, err)
	return gw
}

func mapperFor(t *testing.T, ctx *data.Context) GameweekMapper {
	t.Helper()
	m, err := NewGameweekMapper(ctx.Gameweeks())
	require.NoError(t, err)
	return m
}

func plMatch(id int, kickoff time.Time) *fotmob.MatchDetails {
	return &fotmob.MatchDetails{
		MatchID:      id,
		EventTime:    kickoff,
		OpponentTeam: fotmob.Team{ID: 8455, Name: "Chelsea"},
		LeagueName:   "Premier League",
	}
}

func TestGameweekMapper(t *testing.T) {
	ctx := leagueContext(t)
	mapper := mapperFor(t, ctx)

	assert.Equal(t, 0, mustMap(t, mapper, gw1Deadline.Add(-time.Hour)), "before the first deadline is preseason")
	assert.Equal(t, 1, mustMap(t, mapper, gw1Deadline), "a kickoff at the deadline belongs to that gameweek")
	assert.Equal(t, 1, mustMap(t, mapper, gw1Kickoff))
	assert.Equal(t, 2, mustMap(t, mapper, gw2Kickoff))
	assert.Equal(t, 3, mustMap(t, mapper, gw3Kickoff))

	_, err := mapper(gw4Deadline.Add(time.Hour))
	assert.Error(t, err, "a kickoff past the final deadline must not be mislabeled")

	_, err = NewGameweekMapper(nil)
	assert.ErrorIs(t, err, ErrNoDeadlines)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"emiliano", "buendia"}, tokenize("Emiliano Buendía"))
	assert.Equal(t, []string{"joao", "victor", "gomes", "da", "silva"}, tokenize("João Victor Gomes da Silva"))
	assert.Equal(t, []string{"o", "neil", "smith"}, tokenize("O'Neil-Smith"))
	assert.Empty(t, tokenize("山田"), "non-transliterable names yield no tokens")
}

func TestMatchScore(t *testing.T) {
	assert.Equal(t, 0.0, matchScore([]string{"saka"}, []string{"martinelli"}), "no shared tokens")

	// "bukayo saka" vs itself: 2 common + last 5 + first 3 + suffix 4 + prefix 2.
	assert.Equal(t, 16.0, matchScore([]string{"bukayo", "saka"}, []string{"bukayo", "saka"}))

	// "silva" vs "bernardo silva": 1 common + last 5 + suffix 4.
	assert.Equal(t, 10.0, matchScore([]string{"silva"}, []string{"bernardo", "silva"}))

	// "bernardo" vs "bernardo silva": 1 common + first 3 + prefix 2.
	assert.Equal(t, 6.0, matchScore([]string{"bernardo"}, []string{"bernardo", "silva"}))

	// First letters match without the full first token: +1 instead of +3.
	assert.Equal(t, 1.0+5+1, matchScore([]string{"b", "silva"}, []string{"bernardo", "silva"}))
}

func TestAnalyzerSquadRoleAndLeagueFilter(t *testing.T) {
	ctx := leagueContext(t)
	mapper := mapperFor(t, ctx)

	starter := fotmob.Player{ID: 501, Name: "Bukayo Saka"}
	benchman := fotmob.Player{ID: 502, Name: "Ethan Nwaneri"}

	m1 := plMatch(1, gw1Kickoff)
	m1.Starters = []fotmob.Player{starter}
	m1.Benched = []fotmob.Player{benchman}

	m2 := plMatch(2, gw2Kickoff)
	m2.Starters = []fotmob.Player{starter, benchman}

	cup := plMatch(3, gw2Kickoff)
	cup.LeagueName = "FA Cup"
	cup.Benched = []fotmob.Player{starter}

	m3 := plMatch(4, gw3Kickoff)
	m3.Unavailable = []fotmob.Player{starter}

	a, err := NewAnalyzer(map[int][]*fotmob.MatchDetails{9825: {m1, m2, cup, m3}}, DefaultConfig(), mapper)
	require.NoError(t, err)

	role, err := a.SquadRole(501, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, role.Starts())
	assert.Equal(t, 0, role.BenchCount(), "the cup bench appearance is filtered out")
	assert.Equal(t, 1, role.UnavailableCount())
	assert.Equal(t, 3, role.TotalMatches())
	assert.InDelta(t, 2.0/3.0, role.StartRatio(), 1e-12)
	assert.False(t, role.IsFirstTeam())

	// Cut off before the unavailability: a clean 100% starter.
	early, err := a.SquadRole(501, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, early.TotalMatches())
	assert.True(t, early.IsFirstTeam())

	sub, err := a.SquadRole(502, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Starts())
	assert.Equal(t, 1, sub.BenchCount())

	_, err = a.SquadRole(999, 0)
	assert.ErrorIs(t, err, data.ErrNotFound)
}

func TestAnalyzerStartHint(t *testing.T) {
	ctx := leagueContext(t)
	mapper := mapperFor(t, ctx)

	starter := fotmob.Player{ID: 501, Name: "Bukayo Saka"}
	subA := fotmob.Player{ID: 502, Name: "Ethan Nwaneri"}
	subB := fotmob.Player{ID: 503, Name: "Leandro Trossard"}

	m1 := plMatch(1, gw1Kickoff)
	m1.Starters = []fotmob.Player{starter}
	m1.SubsLog = []fotmob.Substitution{{Time: 70, PlayerOut: starter, PlayerIn: subA}}

	m2 := plMatch(2, gw2Kickoff)
	m2.Starters = []fotmob.Player{starter}
	m2.SubsLog = []fotmob.Substitution{
		{Time: 60, PlayerOut: starter, PlayerIn: subA},
		{Time: 80, PlayerOut: starter, PlayerIn: subB, PlayerOutInjured: true},
	}

	a, err := NewAnalyzer(map[int][]*fotmob.MatchDetails{9825: {m1, m2}}, DefaultConfig(), mapper)
	require.NoError(t, err)

	hint, err := a.StartHint(501, 0)
	require.NoError(t, err)
	require.Len(t, hint.Rivals, 2)
	assert.Equal(t, 502, hint.Rivals[0].FotmobPlayerID, "most frequent rival first")
	assert.Equal(t, 2, hint.Rivals[0].SubCount)
	assert.Equal(t, "Ethan Nwaneri", hint.Rivals[0].Name)
	assert.Equal(t, 1, hint.Rivals[1].SubCount)

	// The rivalry is bidirectional.
	reverse, err := a.StartHint(502, 0)
	require.NoError(t, err)
	require.Len(t, reverse.Rivals, 1)
	assert.Equal(t, 501, reverse.Rivals[0].FotmobPlayerID)

	// Gameweek cutoff drops the second match's substitutions.
	cutoff, err := a.StartHint(501, 1)
	require.NoError(t, err)
	require.Len(t, cutoff.Rivals, 1)
	assert.Equal(t, 502, cutoff.Rivals[0].FotmobPlayerID)

	// A higher threshold filters sparse rivals but keeps the list present.
	cfg := DefaultConfig()
	cfg.MinSubsForRival = 2
	strict, err := NewAnalyzer(map[int][]*fotmob.MatchDetails{9825: {m1, m2}}, cfg, mapper)
	require.NoError(t, err)
	hint, err = strict.StartHint(501, 0)
	require.NoError(t, err)
	require.Len(t, hint.Rivals, 1)
	assert.Equal(t, 502, hint.Rivals[0].FotmobPlayerID)
}

func TestAdapterFuzzyTeamMatch(t *testing.T) {
	ctx := leagueContext(t)
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 7, FirstName: "Bukayo", SecondName: "Saka", WebName: "Saka", TeamID: 1,
	}))

	m := plMatch(1, gw1Kickoff)
	m.Starters = []fotmob.Player{{ID: 501, Name: "Bukayo Saka"}}

	a, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Arsenal": {m}},
		DefaultConfig(), mapperFor(t, ctx), nil)
	require.NoError(t, err)

	got, err := a.FPLPlayerID(501)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	back, err := a.FotmobPlayerID(7)
	require.NoError(t, err)
	assert.Equal(t, 501, back)
}

func TestAdapterOverrideBypassesMatching(t *testing.T) {
	ctx := leagueContext(t)
	// Fantasy record whose name shares no tokens with the match-log one.
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 50, FirstName: "Emi", SecondName: "B.", WebName: "Emi", TeamID: 2,
	}))

	m := plMatch(1, gw1Kickoff)
	m.Starters = []fotmob.Player{{ID: 610184, Name: "Emiliano Buendía Stati"}}

	a, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Aston Villa": {m}},
		DefaultConfig(), mapperFor(t, ctx), nil)
	require.NoError(t, err)

	got, err := a.FPLPlayerID(610184)
	require.NoError(t, err)
	assert.Equal(t, 50, got)
}

func TestAdapterOverrideIgnoreAndPinValidation(t *testing.T) {
	ctx := leagueContext(t)
	m := plMatch(1, gw1Kickoff)
	m.Starters = []fotmob.Player{{ID: 601, Name: "Trialist"}}

	ignored, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Arsenal": {m}},
		DefaultConfig(), mapperFor(t, ctx),
		[]PlayerMappingOverride{{FotmobTeamID: 9825, FotmobPlayerID: 601, Ignore: true}})
	require.NoError(t, err)
	_, err = ignored.FPLPlayerID(601)
	assert.ErrorIs(t, err, data.ErrNotFound)

	_, err = NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Arsenal": {m}},
		DefaultConfig(), mapperFor(t, ctx),
		[]PlayerMappingOverride{{FotmobTeamID: 9825, FotmobPlayerID: 601}})
	require.Error(t, err, "a pin without a target id is a config error")
	assert.Contains(t, err.Error(), "must pin")
}

func TestAdapterAmbiguousNameIsFatal(t *testing.T) {
	ctx := leagueContext(t)
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 201, FirstName: "Bernardo", SecondName: "Silva", TeamID: 13,
	}))
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 202, FirstName: "Fabio", SecondName: "Silva", TeamID: 13,
	}))

	m := plMatch(1, gw1Kickoff)
	m.Starters = []fotmob.Player{{ID: 701, Name: "Silva"}}

	_, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Manchester City": {m}},
		DefaultConfig(), mapperFor(t, ctx), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
	assert.Contains(t, err.Error(), "Silva")
}

func TestAdapterGlobalFallback(t *testing.T) {
	ctx := leagueContext(t)
	// The fantasy record lists the player under a different team (a mid-window
	// transfer the match-log data hasn't caught up with).
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 301, FirstName: "Alexander", SecondName: "Isak", TeamID: 12,
	}))

	m := plMatch(1, gw1Kickoff)
	m.Starters = []fotmob.Player{{ID: 801, Name: "Alexander Isak"}}

	a, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Newcastle": {m}},
		DefaultConfig(), mapperFor(t, ctx), nil)
	require.NoError(t, err)

	got, err := a.FPLPlayerID(801)
	require.NoError(t, err)
	assert.Equal(t, 301, got)
}

func TestAdapterUnmatchableNameIsFatal(t *testing.T) {
	ctx := leagueContext(t)
	m := plMatch(1, gw1Kickoff)
	m.Starters = []fotmob.Player{{ID: 901, Name: "Zorro"}}

	_, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Arsenal": {m}},
		DefaultConfig(), mapperFor(t, ctx), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fantasy candidate")
}

func TestAdapterConflictingRemapIsFatal(t *testing.T) {
	ctx := leagueContext(t)
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 401, FirstName: "Granit", SecondName: "Xhaka", TeamID: 1,
	}))
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 402, FirstName: "Granit", SecondName: "Xhaka", TeamID: 17,
	}))

	// The same match-log player id appears for two teams and resolves to two
	// different fantasy records.
	arsenal := plMatch(1, gw1Kickoff)
	arsenal.Starters = []fotmob.Player{{ID: 955, Name: "Granit Xhaka"}}
	sunderland := plMatch(2, gw1Kickoff)
	sunderland.Starters = []fotmob.Player{{ID: 955, Name: "Granit Xhaka"}}

	_, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Arsenal": {arsenal}, "Sunderland": {sunderland}},
		DefaultConfig(), mapperFor(t, ctx), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting")
}

func TestAdapterUnknownTeamNameIsFatal(t *testing.T) {
	ctx := leagueContext(t)
	_, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Real Madrid": nil},
		DefaultConfig(), mapperFor(t, ctx), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown match-log team")
}

func TestAdapterPassthroughs(t *testing.T) {
	ctx := leagueContext(t)
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 7, FirstName: "Bukayo", SecondName: "Saka", TeamID: 1,
	}))
	require.NoError(t, ctx.AddPlayer(&data.Player{
		ID: 8, FirstName: "Leandro", SecondName: "Trossard", TeamID: 1,
	}))

	saka := fotmob.Player{ID: 501, Name: "Bukayo Saka"}
	trossard := fotmob.Player{ID: 503, Name: "Leandro Trossard"}

	m := plMatch(1, gw1Kickoff)
	m.Starters = []fotmob.Player{saka}
	m.Benched = []fotmob.Player{trossard}
	m.SubsLog = []fotmob.Substitution{{Time: 75, PlayerOut: saka, PlayerIn: trossard}}

	a, err := NewAdapter(ctx,
		map[string][]*fotmob.MatchDetails{"Arsenal": {m}},
		DefaultConfig(), mapperFor(t, ctx), nil)
	require.NoError(t, err)

	role, err := a.SquadRole(7, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, role.Starts())

	hint, err := a.StartHint(7, 0)
	require.NoError(t, err)
	require.Len(t, hint.Rivals, 1)
	assert.Equal(t, 503, hint.Rivals[0].FotmobPlayerID)

	_, err = a.SquadRole(9999, 0)
	assert.ErrorIs(t, err, data.ErrNotFound)
}
