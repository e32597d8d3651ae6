package rotation

import "fplcast/internal/fotmob"

// AppearanceStatus is a player's involvement in one match squad.
type AppearanceStatus string

const (
	Started     AppearanceStatus = "started"
	Benched     AppearanceStatus = "benched"
	Unavailable AppearanceStatus = "unavailable"
)

// PlayerAppearance is one player's squad status for one match.
type PlayerAppearance struct {
	FotmobPlayerID int
	Status         AppearanceStatus
	Match          *fotmob.MatchDetails
}

// PlayerSquadRole summarizes a player's appearance history against the
// first-team threshold.
type PlayerSquadRole struct {
	FotmobPlayerID     int
	Appearances        []PlayerAppearance
	FirstTeamThreshold float64
}

func (r PlayerSquadRole) countWith(status AppearanceStatus) int {
	n := 0
	for _, a := range r.Appearances {
		if a.Status == status {
			n++
		}
	}
	return n
}

// Starts is how many matches the player started.
func (r PlayerSquadRole) Starts() int { return r.countWith(Started) }

// BenchCount is how many matches the player sat on the bench.
func (r PlayerSquadRole) BenchCount() int { return r.countWith(Benched) }

// UnavailableCount is how many matches the player was ruled out of.
func (r PlayerSquadRole) UnavailableCount() int { return r.countWith(Unavailable) }

// TotalMatches is the number of recorded squad appearances.
func (r PlayerSquadRole) TotalMatches() int { return len(r.Appearances) }

// StartRatio is starts over total matches, 0 with no history.
func (r PlayerSquadRole) StartRatio() float64 {
	if len(r.Appearances) == 0 {
		return 0
	}
	return float64(r.Starts()) / float64(len(r.Appearances))
}

// IsFirstTeam reports whether the start ratio meets the threshold.
func (r PlayerSquadRole) IsFirstTeam() bool {
	return r.StartRatio() >= r.FirstTeamThreshold
}

// RivalSubDetail is one rival a player has swapped with, with every match it
// happened in.
type RivalSubDetail struct {
	FotmobPlayerID int
	Name           string
	SubCount       int
	Matches        []*fotmob.MatchDetails
}

// RivalStartHint lists a player's substitution rivals, most frequent first.
type RivalStartHint struct {
	PlayerFotmobID int
	Rivals         []RivalSubDetail
}
