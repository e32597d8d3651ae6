// Package data holds the immutable fixture/player models loaded from the
// fantasy API and the typed repository Context the rest of the module queries.
// Everything here is plain data: no I/O, no derived statistics beyond simple
// per-fixture sums materialized at load time.
package data

import (
	"fmt"
	"time"
)

// Side is the home/away dimension every fixture statistic is bucketed by.
type Side string

const (
	Home Side = "home"
	Away Side = "away"
)

// Position is the fantasy position of a player. The numeric values match the
// upstream element_type codes.
type Position int

const (
	Goalkeeper Position = 1
	Defender   Position = 2
	Midfielder Position = 3
	Forward    Position = 4
	Manager    Position = 5
)

func (p Position) String() string {
	switch p {
	case Goalkeeper:
		return "GKP"
	case Defender:
		return "DEF"
	case Midfielder:
		return "MID"
	case Forward:
		return "FWD"
	case Manager:
		return "MNG"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// CleanSheetPoints is the fantasy value of a clean sheet for this position.
func (p Position) CleanSheetPoints() float64 {
	switch p {
	case Goalkeeper, Defender:
		return 4
	case Midfielder:
		return 1
	default:
		return 0
	}
}

// GoalPoints is the fantasy value of a goal for this position.
func (p Position) GoalPoints() float64 {
	switch p {
	case Goalkeeper, Defender:
		return 6
	case Midfielder:
		return 5
	case Forward:
		return 4
	default:
		return 0
	}
}

// AssistPoints is the fantasy value of an assist; flat across positions.
func (p Position) AssistPoints() float64 {
	return 3
}

// DefensiveContributionPoints is the fantasy value of one unit of defensive
// contribution. Defenders hit their bonus threshold every 10 actions,
// midfielders and forwards every 12.
func (p Position) DefensiveContributionPoints() float64 {
	switch p {
	case Defender:
		return 0.1 / 10
	case Midfielder, Forward:
		return 0.1 / 12
	default:
		return 0
	}
}

// Team is a fantasy-API team with its strength ratings.
type Team struct {
	ID   int
	Name string

	StrengthOverallHome int
	StrengthOverallAway int
	StrengthAttackHome  int
	StrengthAttackAway  int
	StrengthDefenceHome int
	StrengthDefenceAway int
}

// TeamFixture is one team's view of a fixture: its assigned difficulty, final
// score once played, and per-fixture sums of its players' observed stats. The
// sums are filled in as player fixtures are registered with the Context.
type TeamFixture struct {
	FixtureID  int
	TeamID     int
	Difficulty int  // fixture-difficulty rating, 1..5
	Score      *int // nil until the fixture finishes

	ExpectedGoals         float64
	ExpectedAssists       float64
	DefensiveContribution float64
	TotalPoints           float64
}

// Fixture is one match between two teams in a single gameweek.
type Fixture struct {
	ID       int
	Gameweek int
	Finished bool
	Home     TeamFixture
	Away     TeamFixture
}

// CleanSheet reports whether the given side kept a clean sheet (1) or not (0).
// An unplayed fixture counts as no clean sheet.
func (f *Fixture) CleanSheet(side Side) float64 {
	opponent := &f.Away
	if side == Away {
		opponent = &f.Home
	}
	if opponent.Score != nil && *opponent.Score == 0 {
		return 1
	}
	return 0
}

// SideOf returns which side teamID played in this fixture; ok is false when
// the team was not involved at all.
func (f *Fixture) SideOf(teamID int) (Side, bool) {
	switch teamID {
	case f.Home.TeamID:
		return Home, true
	case f.Away.TeamID:
		return Away, true
	default:
		return "", false
	}
}

// TeamSide returns the TeamFixture for the given side.
func (f *Fixture) TeamSide(side Side) *TeamFixture {
	if side == Home {
		return &f.Home
	}
	return &f.Away
}

// PlayerFixture is a player's participation record in one fixture. For future
// fixtures only the identity fields are populated; stats land once the
// gameweek has been played.
type PlayerFixture struct {
	PlayerID  int
	FixtureID int
	Gameweek  int
	WasHome   bool

	// Derived at registration time from the parent fixture.
	TeamID         int
	OpponentTeamID int

	TotalPoints           int
	Minutes               int
	Goals                 int
	Assists               int
	CleanSheets           int
	DefensiveContribution int
	ExpectedGoals         float64
	ExpectedAssists       float64
	ExpectedGoalInvolved  float64
	ExpectedGoalsConceded float64
	Value                 int
	Starts                int
}

// Side returns the side the player's team occupied in the fixture.
func (pf *PlayerFixture) Side() Side {
	if pf.WasHome {
		return Home
	}
	return Away
}

// Player is a fantasy-API player with position, team, cost, and the
// availability fields used for red-flag derivation.
type Player struct {
	ID         int
	FirstName  string
	SecondName string
	WebName    string
	Position   Position
	TeamID     int
	NowCost    float64

	Status                   string // a=available, d=doubtful, i=injured, s=suspended, u=unavailable, n=not in squad
	ChanceOfPlayingNextRound *int   // percent, nil when the API reports null
	ChanceOfPlayingThisRound *int
	News                     string
}

// FullName returns "First Second", falling back to the web name when the
// upstream record carries no split name.
func (p *Player) FullName() string {
	if p.FirstName == "" && p.SecondName == "" {
		return p.WebName
	}
	if p.FirstName == "" {
		return p.SecondName
	}
	return p.FirstName + " " + p.SecondName
}

// Gameweek is one round of the fantasy calendar with its squad deadline.
type Gameweek struct {
	Number   int
	Deadline time.Time
}
