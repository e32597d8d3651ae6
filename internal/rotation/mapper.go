package rotation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"fplcast/internal/data"
)

// GameweekMapper assigns a match kickoff to its effective fantasy gameweek:
// the number of squad deadlines at or before the kickoff. A kickoff before
// the first deadline maps to 0 (preseason); a kickoff past the final known
// deadline is an error, never a silently mislabeled match.
type GameweekMapper func(kickoff time.Time) (int, error)

// ErrNoDeadlines is returned when the gameweek table carries no deadlines at
// all.
var ErrNoDeadlines = errors.New("rotation: gameweek deadlines are missing")

// NewGameweekMapper builds a mapper from the loaded deadline table.
func NewGameweekMapper(gameweeks []data.Gameweek) (GameweekMapper, error) {
	if len(gameweeks) == 0 {
		return nil, ErrNoDeadlines
	}
	deadlines := make([]time.Time, len(gameweeks))
	for i, gw := range gameweeks {
		deadlines[i] = gw.Deadline
	}
	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i].Before(deadlines[j]) })

	return func(kickoff time.Time) (int, error) {
		if kickoff.After(deadlines[len(deadlines)-1]) {
			return 0, fmt.Errorf("rotation: kickoff %s is past the final known deadline", kickoff.Format(time.RFC3339))
		}
		return sort.Search(len(deadlines), func(i int) bool {
			return deadlines[i].After(kickoff)
		}), nil
	}, nil
}
