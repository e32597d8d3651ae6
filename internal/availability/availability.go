// Package availability derives red flags from a player's fantasy-API status
// fields: injury, suspension, and reduced chance-of-playing percentages.
package availability

import "fplcast/internal/data"

// FlagKind classifies a red flag.
type FlagKind string

// Unavailable marks a player at risk of missing the next round.
const Unavailable FlagKind = "unavailable"

// Flag is one availability warning with a 0..1 importance: 1 means certain
// absence, 0.5 a coin flip.
type Flag struct {
	Kind       FlagKind
	Importance float64
	Note       string
}

// unavailableStatuses are the fantasy-API status codes that mean the player
// is out regardless of any percentage: injured, suspended, unavailable, and
// not in the squad.
var unavailableStatuses = map[string]struct{}{
	"i": {},
	"s": {},
	"u": {},
	"n": {},
}

// Flags derives the red flags for one player. A chance-of-playing below 100
// yields an Unavailable flag with importance 1 - chance/100; an unavailable
// status with no percentage reported counts as a certain absence. A nil or
// 100 percent chance with an ordinary status yields no flags.
func Flags(p *data.Player) []Flag {
	chance := p.ChanceOfPlayingNextRound

	if chance == nil {
		if _, out := unavailableStatuses[p.Status]; out {
			return []Flag{{Kind: Unavailable, Importance: 1, Note: p.News}}
		}
		return nil
	}
	if *chance >= 100 {
		return nil
	}
	return []Flag{{
		Kind:       Unavailable,
		Importance: 1 - float64(*chance)/100,
		Note:       p.News,
	}}
}
