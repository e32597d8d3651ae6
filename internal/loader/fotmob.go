package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"fplcast/internal/fotmob"
	"fplcast/internal/logging"
)

// Raw match-report payload, narrowed to the sections the models need.
type matchPayload struct {
	General struct {
		MatchID          json.Number `json:"matchId"`
		LeagueName       string      `json:"leagueName"`
		MatchTimeUTCDate string      `json:"matchTimeUTCDate"`
	} `json:"general"`
	Header struct {
		Status struct {
			UTCTime string `json:"utcTime"`
		} `json:"status"`
	} `json:"header"`
	Content struct {
		Lineup struct {
			HomeTeam *lineupSection `json:"homeTeam"`
			AwayTeam *lineupSection `json:"awayTeam"`
		} `json:"lineup"`
		MatchFacts struct {
			Events struct {
				Events []matchEvent `json:"events"`
			} `json:"events"`
		} `json:"matchFacts"`
	} `json:"content"`
}

type lineupSection struct {
	ID          json.Number    `json:"id"`
	Name        string         `json:"name"`
	Starters    []lineupPlayer `json:"starters"`
	Subs        []lineupPlayer `json:"subs"`
	Unavailable []lineupPlayer `json:"unavailable"`
}

type lineupPlayer struct {
	ID        json.Number `json:"id"`
	Name      string      `json:"name"`
	ShortName string      `json:"shortName"`
	FullName  string      `json:"fullName"`
}

type matchEvent struct {
	Type             string         `json:"type"`
	IsHome           bool           `json:"isHome"`
	Time             json.Number    `json:"time"`
	InjuredPlayerOut bool           `json:"injuredPlayerOut"`
	Swap             []lineupPlayer `json:"swap"`
}

// ParseMatchDetails converts one raw match-report payload into the view of
// the named team: its lineup sections and its side's substitutions.
func ParseMatchDetails(raw []byte, teamName string) (*fotmob.MatchDetails, error) {
	var payload matchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("loader: match payload: %w", err)
	}

	home := payload.Content.Lineup.HomeTeam
	away := payload.Content.Lineup.AwayTeam
	if home == nil || away == nil {
		return nil, fmt.Errorf("loader: match payload missing lineup information")
	}

	target := normalizeTeamKey(teamName)
	var team, opponent *lineupSection
	var teamIsHome bool
	switch target {
	case normalizeTeamKey(home.Name):
		team, opponent, teamIsHome = home, away, true
	case normalizeTeamKey(away.Name):
		team, opponent, teamIsHome = away, home, false
	default:
		return nil, fmt.Errorf("loader: team %q not found in match lineup (%s vs %s)", teamName, home.Name, away.Name)
	}

	kickoffStr := payload.Header.Status.UTCTime
	if kickoffStr == "" {
		kickoffStr = payload.General.MatchTimeUTCDate
	}
	if kickoffStr == "" {
		return nil, fmt.Errorf("loader: match payload missing kickoff time")
	}
	kickoff, err := time.Parse(time.RFC3339, kickoffStr)
	if err != nil {
		return nil, fmt.Errorf("loader: match kickoff: %w", err)
	}

	matchID, err := payload.General.MatchID.Int64()
	if err != nil {
		return nil, fmt.Errorf("loader: match payload missing matchId: %w", err)
	}

	opponentID, err := opponent.ID.Int64()
	if err != nil {
		return nil, fmt.Errorf("loader: opponent team id: %w", err)
	}

	starters, err := collectPlayers(team.Starters, "starters")
	if err != nil {
		return nil, err
	}
	benched, err := collectPlayers(team.Subs, "bench")
	if err != nil {
		return nil, err
	}
	unavailable, err := collectPlayers(team.Unavailable, "unavailable")
	if err != nil {
		return nil, err
	}
	subs, err := collectSubstitutions(payload.Content.MatchFacts.Events.Events, teamIsHome)
	if err != nil {
		return nil, err
	}

	return &fotmob.MatchDetails{
		MatchID:      int(matchID),
		EventTime:    kickoff,
		OpponentTeam: fotmob.Team{ID: int(opponentID), Name: opponent.Name},
		Starters:     starters,
		Benched:      benched,
		Unavailable:  unavailable,
		SubsLog:      subs,
		LeagueName:   payload.General.LeagueName,
	}, nil
}

// LoadSavedMatchDetails reads every saved match under root, one subdirectory
// per team name, and returns team name -> matches sorted by kickoff.
func LoadSavedMatchDetails(root string) (map[string][]*fotmob.MatchDetails, error) {
	log := logging.WithComponent("loader")

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("loader: match-log root: %w", err)
	}

	result := make(map[string][]*fotmob.MatchDetails)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		teamName := entry.Name()
		teamDir := filepath.Join(root, teamName)
		files, err := os.ReadDir(teamDir)
		if err != nil {
			return nil, err
		}

		var matches []*fotmob.MatchDetails
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(teamDir, file.Name()))
			if err != nil {
				return nil, err
			}
			details, err := ParseMatchDetails(raw, teamName)
			if err != nil {
				return nil, fmt.Errorf("loader: %s/%s: %w", teamName, file.Name(), err)
			}
			matches = append(matches, details)
		}
		sort.Slice(matches, func(i, j int) bool { return matches[i].EventTime.Before(matches[j].EventTime) })
		result[teamName] = matches
		log.WithField("team", teamName).WithField("matches", len(matches)).Debug("Loaded match log")
	}
	return result, nil
}

func normalizeTeamKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collectPlayers(entries []lineupPlayer, context string) ([]fotmob.Player, error) {
	out := make([]fotmob.Player, 0, len(entries))
	for _, entry := range entries {
		p, err := buildPlayer(entry, context)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func buildPlayer(entry lineupPlayer, context string) (fotmob.Player, error) {
	id, err := entry.ID.Int64()
	if err != nil {
		return fotmob.Player{}, fmt.Errorf("loader: missing player id in %s", context)
	}
	name := entry.Name
	if name == "" {
		name = entry.ShortName
	}
	if name == "" {
		name = entry.FullName
	}
	if name == "" {
		return fotmob.Player{}, fmt.Errorf("loader: missing player name in %s", context)
	}
	return fotmob.Player{ID: int(id), Name: name}, nil
}

func collectSubstitutions(events []matchEvent, teamIsHome bool) ([]fotmob.Substitution, error) {
	var subs []fotmob.Substitution
	for _, event := range events {
		if event.Type != "Substitution" || event.IsHome != teamIsHome {
			continue
		}
		if len(event.Swap) != 2 {
			return nil, fmt.Errorf("loader: unexpected substitution payload (swap len=%d)", len(event.Swap))
		}
		playerIn, err := buildPlayer(event.Swap[0], "substitution swap-in")
		if err != nil {
			return nil, err
		}
		playerOut, err := buildPlayer(event.Swap[1], "substitution swap-out")
		if err != nil {
			return nil, err
		}
		minute, err := strconv.Atoi(event.Time.String())
		if err != nil {
			minute = 0
		}
		subs = append(subs, fotmob.Substitution{
			Time:             minute,
			PlayerOutInjured: event.InjuredPlayerOut,
			PlayerOut:        playerOut,
			PlayerIn:         playerIn,
		})
	}
	return subs, nil
}
