package data

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned by Context lookups for ids that were never loaded.
// Callers must treat it as an explicit case, not substitute a zero value.
var ErrNotFound = errors.New("not found")

type fixtureTeamKey struct {
	fixtureID int
	teamID    int
}

type fixturePlayerKey struct {
	fixtureID int
	playerID  int
}

// Context is the repository for one loaded dataset. It is constructed once
// per data load and passed by reference; multiple contexts (e.g. different
// season snapshots in a backtest) can coexist. All indices are fixed at
// construction: there is no runtime field-name dispatch.
type Context struct {
	teams     map[int]*Team
	teamIDs   []int
	players   map[int]*Player
	playerIDs []int

	fixtures           map[int]*Fixture
	fixturesByGameweek map[int][]*Fixture

	playerFixtures  []*PlayerFixture
	pfByFixture     map[int][]*PlayerFixture
	pfByFixtureTeam map[fixtureTeamKey][]*PlayerFixture
	pfByPlayer      map[int][]*PlayerFixture
	pfKeys          map[fixturePlayerKey]struct{}

	gameweeks []Gameweek
}

// NewContext returns an empty repository context.
func NewContext() *Context {
	return &Context{
		teams:              make(map[int]*Team),
		players:            make(map[int]*Player),
		fixtures:           make(map[int]*Fixture),
		fixturesByGameweek: make(map[int][]*Fixture),
		pfByFixture:        make(map[int][]*PlayerFixture),
		pfByFixtureTeam:    make(map[fixtureTeamKey][]*PlayerFixture),
		pfByPlayer:         make(map[int][]*PlayerFixture),
		pfKeys:             make(map[fixturePlayerKey]struct{}),
	}
}

// AddTeam registers a team. Duplicate ids are an error.
func (c *Context) AddTeam(t *Team) error {
	if _, ok := c.teams[t.ID]; ok {
		return fmt.Errorf("data: duplicate team id %d", t.ID)
	}
	c.teams[t.ID] = t
	c.teamIDs = append(c.teamIDs, t.ID)
	return nil
}

// AddPlayer registers a player. Duplicate ids are an error.
func (c *Context) AddPlayer(p *Player) error {
	if _, ok := c.players[p.ID]; ok {
		return fmt.Errorf("data: duplicate player id %d", p.ID)
	}
	c.players[p.ID] = p
	c.playerIDs = append(c.playerIDs, p.ID)
	return nil
}

// AddFixture registers a fixture. Duplicate ids are an error.
func (c *Context) AddFixture(f *Fixture) error {
	if _, ok := c.fixtures[f.ID]; ok {
		return fmt.Errorf("data: duplicate fixture id %d", f.ID)
	}
	c.fixtures[f.ID] = f
	c.fixturesByGameweek[f.Gameweek] = append(c.fixturesByGameweek[f.Gameweek], f)
	return nil
}

// AddPlayerFixture registers a player's participation record. The parent
// fixture must already be registered: the record's team/opponent ids are
// derived from it, and the per-team-fixture stat sums are accumulated onto the
// fixture side the player occupied. One record per (fixture, player) pair;
// duplicates are an error.
func (c *Context) AddPlayerFixture(pf *PlayerFixture) error {
	f, ok := c.fixtures[pf.FixtureID]
	if !ok {
		return fmt.Errorf("data: player fixture references unknown fixture %d", pf.FixtureID)
	}
	key := fixturePlayerKey{fixtureID: pf.FixtureID, playerID: pf.PlayerID}
	if _, dup := c.pfKeys[key]; dup {
		return fmt.Errorf("data: duplicate player fixture (fixture %d, player %d)", pf.FixtureID, pf.PlayerID)
	}

	side := f.TeamSide(pf.Side())
	opponent := f.TeamSide(Away)
	if pf.Side() == Away {
		opponent = f.TeamSide(Home)
	}
	pf.TeamID = side.TeamID
	pf.OpponentTeamID = opponent.TeamID

	side.ExpectedGoals += pf.ExpectedGoals
	side.ExpectedAssists += pf.ExpectedAssists
	side.DefensiveContribution += float64(pf.DefensiveContribution)
	side.TotalPoints += float64(pf.TotalPoints)

	c.pfKeys[key] = struct{}{}
	c.playerFixtures = append(c.playerFixtures, pf)
	c.pfByFixture[pf.FixtureID] = append(c.pfByFixture[pf.FixtureID], pf)
	ftKey := fixtureTeamKey{fixtureID: pf.FixtureID, teamID: pf.TeamID}
	c.pfByFixtureTeam[ftKey] = append(c.pfByFixtureTeam[ftKey], pf)
	c.pfByPlayer[pf.PlayerID] = append(c.pfByPlayer[pf.PlayerID], pf)
	return nil
}

// AddGameweek registers a gameweek deadline. Duplicate numbers are an error.
func (c *Context) AddGameweek(gw Gameweek) error {
	for _, existing := range c.gameweeks {
		if existing.Number == gw.Number {
			return fmt.Errorf("data: duplicate gameweek %d", gw.Number)
		}
	}
	c.gameweeks = append(c.gameweeks, gw)
	sort.Slice(c.gameweeks, func(i, j int) bool { return c.gameweeks[i].Number < c.gameweeks[j].Number })
	return nil
}

// TeamByID returns the team or ErrNotFound.
func (c *Context) TeamByID(id int) (*Team, error) {
	t, ok := c.teams[id]
	if !ok {
		return nil, fmt.Errorf("data: team %d: %w", id, ErrNotFound)
	}
	return t, nil
}

// Teams returns all teams in load order.
func (c *Context) Teams() []*Team {
	out := make([]*Team, 0, len(c.teamIDs))
	for _, id := range c.teamIDs {
		out = append(out, c.teams[id])
	}
	return out
}

// PlayerByID returns the player or ErrNotFound.
func (c *Context) PlayerByID(id int) (*Player, error) {
	p, ok := c.players[id]
	if !ok {
		return nil, fmt.Errorf("data: player %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// Players returns all players in load order.
func (c *Context) Players() []*Player {
	out := make([]*Player, 0, len(c.playerIDs))
	for _, id := range c.playerIDs {
		out = append(out, c.players[id])
	}
	return out
}

// PlayersByTeam returns the players registered for a team, in load order.
func (c *Context) PlayersByTeam(teamID int) []*Player {
	var out []*Player
	for _, id := range c.playerIDs {
		if p := c.players[id]; p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// FixtureByID returns the fixture or ErrNotFound.
func (c *Context) FixtureByID(id int) (*Fixture, error) {
	f, ok := c.fixtures[id]
	if !ok {
		return nil, fmt.Errorf("data: fixture %d: %w", id, ErrNotFound)
	}
	return f, nil
}

// FixturesByGameweek returns the fixtures of one gameweek in load order.
// An unknown gameweek yields an empty slice: a blank gameweek is data, not an
// error.
func (c *Context) FixturesByGameweek(gw int) []*Fixture {
	return c.fixturesByGameweek[gw]
}

// PlayerFixturesByFixture returns every player's record for one fixture.
func (c *Context) PlayerFixturesByFixture(fixtureID int) []*PlayerFixture {
	return c.pfByFixture[fixtureID]
}

// PlayerFixturesByFixtureAndTeam returns one team's player records for one
// fixture.
func (c *Context) PlayerFixturesByFixtureAndTeam(fixtureID, teamID int) []*PlayerFixture {
	return c.pfByFixtureTeam[fixtureTeamKey{fixtureID: fixtureID, teamID: teamID}]
}

// PlayerFixturesByPlayer returns one player's records across all fixtures.
func (c *Context) PlayerFixturesByPlayer(playerID int) []*PlayerFixture {
	return c.pfByPlayer[playerID]
}

// Gameweeks returns the deadline table sorted by gameweek number.
func (c *Context) Gameweeks() []Gameweek {
	return c.gameweeks
}
