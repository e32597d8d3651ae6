// Package fotmob holds the match-report models and static metadata for the
// external match-log source. Records are read-only inputs; everything derived
// from them lives in the rotation package.
package fotmob

import "time"

// Team is a match-log team reference.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Player is a match-log player reference.
type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Substitution is one swap during a match, with the minute it happened and
// whether the outgoing player left injured.
type Substitution struct {
	Time             int    `json:"time"`
	PlayerOutInjured bool   `json:"player_out_injured"`
	PlayerOut        Player `json:"player_out"`
	PlayerIn         Player `json:"player_in"`
}

// MatchDetails is one team's view of a match: who started, who sat on the
// bench, who was ruled out, and the substitution log.
type MatchDetails struct {
	MatchID      int            `json:"match_id"`
	EventTime    time.Time      `json:"event_time"`
	OpponentTeam Team           `json:"opponent_team"`
	Starters     []Player       `json:"starters"`
	Benched      []Player       `json:"benched"`
	Unavailable  []Player       `json:"unavailable"`
	SubsLog      []Substitution `json:"subs_log"`
	LeagueName   string         `json:"league_name"`
}
