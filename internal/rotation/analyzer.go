package rotation

import (
	"fmt"
	"sort"

	"fplcast/internal/data"
	"fplcast/internal/fotmob"
)

// Analyzer precomputes squad roles and substitution rivalries from match
// logs. Every indexed match is tagged with its effective gameweek so queries
// can be cut off at a point in the season.
type Analyzer struct {
	config Config

	appearances map[int][]taggedAppearance
	rivals      map[int]map[int][]taggedMatch
	names       map[int]string
}

type taggedAppearance struct {
	gameweek   int
	appearance PlayerAppearance
}

type taggedMatch struct {
	gameweek int
	match    *fotmob.MatchDetails
}

// NewAnalyzer indexes the given matches, grouped by match-log team id.
// Matches outside the configured leagues are skipped; a match whose kickoff
// cannot be mapped to a gameweek is an error.
func NewAnalyzer(matchesByTeam map[int][]*fotmob.MatchDetails, config Config, mapper GameweekMapper) (*Analyzer, error) {
	a := &Analyzer{
		config:      config,
		appearances: make(map[int][]taggedAppearance),
		rivals:      make(map[int]map[int][]taggedMatch),
		names:       make(map[int]string),
	}

	allowed := make(map[string]struct{}, len(config.IncludedLeagues))
	for _, league := range config.IncludedLeagues {
		allowed[league] = struct{}{}
	}

	for _, matches := range matchesByTeam {
		for _, match := range matches {
			if len(allowed) > 0 {
				if _, ok := allowed[match.LeagueName]; !ok {
					continue
				}
			}
			gw, err := mapper(match.EventTime)
			if err != nil {
				return nil, fmt.Errorf("rotation: match %d: %w", match.MatchID, err)
			}
			a.indexAppearances(match, gw)
			a.indexSubstitutions(match, gw)
		}
	}
	return a, nil
}

func (a *Analyzer) indexAppearances(match *fotmob.MatchDetails, gw int) {
	for _, p := range match.Starters {
		a.addAppearance(p, Started, match, gw)
	}
	for _, p := range match.Benched {
		a.addAppearance(p, Benched, match, gw)
	}
	for _, p := range match.Unavailable {
		a.addAppearance(p, Unavailable, match, gw)
	}
}

func (a *Analyzer) addAppearance(p fotmob.Player, status AppearanceStatus, match *fotmob.MatchDetails, gw int) {
	a.rememberName(p)
	a.appearances[p.ID] = append(a.appearances[p.ID], taggedAppearance{
		gameweek: gw,
		appearance: PlayerAppearance{
			FotmobPlayerID: p.ID,
			Status:         status,
			Match:          match,
		},
	})
}

func (a *Analyzer) rememberName(p fotmob.Player) {
	if _, ok := a.names[p.ID]; !ok {
		a.names[p.ID] = p.Name
	}
}

// indexSubstitutions records both directions of every swap: each side is a
// rival of the other.
func (a *Analyzer) indexSubstitutions(match *fotmob.MatchDetails, gw int) {
	for _, sub := range match.SubsLog {
		a.rememberName(sub.PlayerIn)
		a.rememberName(sub.PlayerOut)
		a.addRival(sub.PlayerOut.ID, sub.PlayerIn.ID, match, gw)
		a.addRival(sub.PlayerIn.ID, sub.PlayerOut.ID, match, gw)
	}
}

func (a *Analyzer) addRival(primaryID, rivalID int, match *fotmob.MatchDetails, gw int) {
	byRival, ok := a.rivals[primaryID]
	if !ok {
		byRival = make(map[int][]taggedMatch)
		a.rivals[primaryID] = byRival
	}
	byRival[rivalID] = append(byRival[rivalID], taggedMatch{gameweek: gw, match: match})
}

// known reports whether the player appeared anywhere in the index.
func (a *Analyzer) known(fotmobPlayerID int) bool {
	_, ok := a.names[fotmobPlayerID]
	return ok
}

// SquadRole returns cumulative appearance stats for a player. maxGameweek 0
// means no cutoff. A player the index has never seen is a not-found error.
func (a *Analyzer) SquadRole(fotmobPlayerID, maxGameweek int) (PlayerSquadRole, error) {
	if !a.known(fotmobPlayerID) {
		return PlayerSquadRole{}, fmt.Errorf("rotation: player %d: %w", fotmobPlayerID, data.ErrNotFound)
	}
	var appearances []PlayerAppearance
	for _, tagged := range a.appearances[fotmobPlayerID] {
		if maxGameweek > 0 && tagged.gameweek > maxGameweek {
			continue
		}
		appearances = append(appearances, tagged.appearance)
	}
	return PlayerSquadRole{
		FotmobPlayerID:     fotmobPlayerID,
		Appearances:        appearances,
		FirstTeamThreshold: a.config.FirstTeamStartRatio,
	}, nil
}

// StartHint summarizes which rivals keep swapping with the player, most
// frequent first. Rivals below the minimum sub count are dropped; no
// qualifying rivals yields an empty, not missing, list.
func (a *Analyzer) StartHint(fotmobPlayerID, maxGameweek int) (RivalStartHint, error) {
	if !a.known(fotmobPlayerID) {
		return RivalStartHint{}, fmt.Errorf("rotation: player %d: %w", fotmobPlayerID, data.ErrNotFound)
	}

	var rivals []RivalSubDetail
	for rivalID, events := range a.rivals[fotmobPlayerID] {
		var matches []*fotmob.MatchDetails
		for _, tagged := range events {
			if maxGameweek > 0 && tagged.gameweek > maxGameweek {
				continue
			}
			matches = append(matches, tagged.match)
		}
		if len(matches) < a.config.MinSubsForRival {
			continue
		}
		name, ok := a.names[rivalID]
		if !ok {
			return RivalStartHint{}, fmt.Errorf("rotation: no name recorded for rival %d, substitution index is incomplete", rivalID)
		}
		rivals = append(rivals, RivalSubDetail{
			FotmobPlayerID: rivalID,
			Name:           name,
			SubCount:       len(matches),
			Matches:        matches,
		})
	}
	sort.SliceStable(rivals, func(i, j int) bool {
		if rivals[i].SubCount != rivals[j].SubCount {
			return rivals[i].SubCount > rivals[j].SubCount
		}
		return rivals[i].FotmobPlayerID < rivals[j].FotmobPlayerID
	})
	return RivalStartHint{PlayerFotmobID: fotmobPlayerID, Rivals: rivals}, nil
}
