package rotation

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"fplcast/internal/data"
	"fplcast/internal/fotmob"
)

// Adapter bridges match-log player ids onto fantasy-API ids and exposes the
// rotation views under fantasy identifiers. Construction resolves every
// roster player eagerly: an unmappable name, an ambiguous match, or a
// conflicting remap is an error, never a silent drop.
type Adapter struct {
	ctx    *data.Context
	config Config

	teamMapping map[int]int // fantasy team id -> match-log team id
	analyzer    *Analyzer

	fotmobToFPL map[int]int
	fplToFotmob map[int]int
}

// NewAdapter indexes the given matches (keyed by match-log team name) and
// builds the player id bridge. A nil overrides slice uses DefaultOverrides.
func NewAdapter(
	ctx *data.Context,
	matchesByTeamName map[string][]*fotmob.MatchDetails,
	config Config,
	mapper GameweekMapper,
	overrides []PlayerMappingOverride,
) (*Adapter, error) {
	a := &Adapter{
		ctx:         ctx,
		config:      config,
		fotmobToFPL: make(map[int]int),
		fplToFotmob: make(map[int]int),
	}
	if overrides == nil {
		overrides = DefaultOverrides
	}

	matchesByTeam, err := convertTeamKeys(matchesByTeamName)
	if err != nil {
		return nil, err
	}
	if a.teamMapping, err = buildTeamMapping(); err != nil {
		return nil, err
	}
	if a.analyzer, err = NewAnalyzer(matchesByTeam, config, mapper); err != nil {
		return nil, err
	}

	if err := a.buildPlayerMappings(matchesByTeam, overrides); err != nil {
		return nil, err
	}
	return a, nil
}

// convertTeamKeys replaces team-name keys with match-log ids, erroring on
// unknown names and filling gaps so every known team has an entry.
func convertTeamKeys(byName map[string][]*fotmob.MatchDetails) (map[int][]*fotmob.MatchDetails, error) {
	result := make(map[int][]*fotmob.MatchDetails, len(fotmob.TeamNameToID))
	for name, matches := range byName {
		id, ok := fotmob.TeamNameToID[name]
		if !ok {
			return nil, fmt.Errorf("rotation: unknown match-log team %q", name)
		}
		result[id] = matches
	}
	for _, id := range fotmob.TeamNameToID {
		if _, ok := result[id]; !ok {
			result[id] = nil
		}
	}
	return result, nil
}

// buildTeamMapping pairs every fantasy team id with its match-log id,
// erroring with the full list of gaps so the metadata tables can be fixed in
// one pass.
func buildTeamMapping() (map[int]int, error) {
	mapping := make(map[int]int, len(fotmob.FPLTeamIDToName))
	var missing []string
	for fplTeamID, name := range fotmob.FPLTeamIDToName {
		fotmobTeamID, ok := fotmob.TeamNameToID[name]
		if !ok {
			missing = append(missing, fmt.Sprintf("%d:%s", fplTeamID, name))
			continue
		}
		mapping[fplTeamID] = fotmobTeamID
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("rotation: no match-log id for fantasy teams %s", strings.Join(missing, ", "))
	}
	return mapping, nil
}

func (a *Adapter) buildPlayerMappings(matchesByTeam map[int][]*fotmob.MatchDetails, overrides []PlayerMappingOverride) error {
	overrideByID := make(map[int]PlayerMappingOverride, len(overrides))
	for _, o := range overrides {
		overrideByID[o.FotmobPlayerID] = o
	}

	globalIndex := make(map[int][][]string)
	for _, p := range a.ctx.Players() {
		globalIndex[p.ID] = tokenVariants(p)
	}

	fplTeamIDs := make([]int, 0, len(a.teamMapping))
	for id := range a.teamMapping {
		fplTeamIDs = append(fplTeamIDs, id)
	}
	sort.Ints(fplTeamIDs)

	for _, fplTeamID := range fplTeamIDs {
		fotmobTeamID := a.teamMapping[fplTeamID]

		fplPlayers := a.ctx.PlayersByTeam(fplTeamID)
		if len(fplPlayers) == 0 {
			return fmt.Errorf("rotation: no fantasy players loaded for team %d", fplTeamID)
		}
		teamIndex := make(map[int][][]string, len(fplPlayers))
		for _, p := range fplPlayers {
			teamIndex[p.ID] = globalIndex[p.ID]
		}

		roster := collectRoster(matchesByTeam[fotmobTeamID], a.config)
		rosterIDs := make([]int, 0, len(roster))
		for id := range roster {
			rosterIDs = append(rosterIDs, id)
		}
		sort.Ints(rosterIDs)

		for _, fotmobPlayerID := range rosterIDs {
			fplPlayerID, skip, err := a.resolvePlayer(
				fplTeamID, fotmobTeamID, fotmobPlayerID, roster[fotmobPlayerID],
				teamIndex, globalIndex, overrideByID,
			)
			if err != nil {
				return err
			}
			if skip {
				continue
			}
			a.fotmobToFPL[fotmobPlayerID] = fplPlayerID
			a.fplToFotmob[fplPlayerID] = fotmobPlayerID
		}
	}
	return nil
}

// collectRoster aggregates every player that appeared for the team in an
// allowed league: starters, bench, unavailable, and both sides of every
// substitution. Id 0 marks source records with no player reference.
func collectRoster(matches []*fotmob.MatchDetails, config Config) map[int]string {
	allowed := make(map[string]struct{}, len(config.IncludedLeagues))
	for _, league := range config.IncludedLeagues {
		allowed[league] = struct{}{}
	}

	roster := make(map[int]string)
	add := func(p fotmob.Player) {
		if p.ID == 0 {
			return
		}
		roster[p.ID] = p.Name
	}
	for _, match := range matches {
		if len(allowed) > 0 {
			if _, ok := allowed[match.LeagueName]; !ok {
				continue
			}
		}
		for _, p := range match.Starters {
			add(p)
		}
		for _, p := range match.Benched {
			add(p)
		}
		for _, p := range match.Unavailable {
			add(p)
		}
		for _, sub := range match.SubsLog {
			add(sub.PlayerIn)
			add(sub.PlayerOut)
		}
	}
	return roster
}

func (a *Adapter) resolvePlayer(
	fplTeamID, fotmobTeamID, fotmobPlayerID int,
	fotmobName string,
	teamIndex, globalIndex map[int][][]string,
	overrideByID map[int]PlayerMappingOverride,
) (fplPlayerID int, skip bool, err error) {
	if o, ok := overrideByID[fotmobPlayerID]; ok {
		if o.Ignore {
			return 0, true, nil
		}
		if o.FPLPlayerID == 0 {
			return 0, false, fmt.Errorf(
				"rotation: override for match-log player %q (%d) must pin a fantasy player id or set ignore",
				fotmobName, fotmobPlayerID)
		}
		fplPlayerID = o.FPLPlayerID
	} else {
		fplPlayerID, err = a.matchPlayer(fplTeamID, fotmobTeamID, fotmobPlayerID, fotmobName, teamIndex, globalIndex)
		if err != nil {
			return 0, false, err
		}
	}

	if existing, ok := a.fotmobToFPL[fotmobPlayerID]; ok && existing != fplPlayerID {
		return 0, false, fmt.Errorf(
			"rotation: conflicting mappings for match-log player %q (%d): %d vs %d",
			fotmobName, fotmobPlayerID, existing, fplPlayerID)
	}
	return fplPlayerID, false, nil
}

// matchPlayer resolves one match-log name: first against the team's own
// roster, then against the whole league when the team yields nothing.
func (a *Adapter) matchPlayer(
	fplTeamID, fotmobTeamID, fotmobPlayerID int,
	fotmobName string,
	teamIndex, globalIndex map[int][][]string,
) (int, error) {
	tokens := tokenize(fotmobName)
	if len(tokens) == 0 {
		return 0, fmt.Errorf("rotation: cannot derive tokens for match-log player %q (%d)", fotmobName, fotmobPlayerID)
	}
	context := fmt.Sprintf("%s/team %d", fotmob.Teams[fotmobTeamID], fplTeamID)

	playerID, found, err := a.bestMatch(tokens, teamIndex, fotmobName, fotmobPlayerID, context)
	if err != nil {
		return 0, err
	}
	if found {
		return playerID, nil
	}

	playerID, found, err = a.bestMatch(tokens, globalIndex, fotmobName, fotmobPlayerID, "global roster")
	if err != nil {
		return 0, err
	}
	if found {
		logrus.WithFields(logrus.Fields{
			"fotmob_player": fotmobName,
			"fotmob_id":     fotmobPlayerID,
			"fotmob_team":   fotmob.Teams[fotmobTeamID],
			"fpl_player":    a.displayName(playerID),
			"fpl_id":        playerID,
		}).Info("mapped match-log player via global roster")
		return playerID, nil
	}

	return 0, fmt.Errorf(
		"rotation: no fantasy candidate for match-log player %q (%d) in %s or global roster",
		fotmobName, fotmobPlayerID, context)
}

type scoredMatch struct {
	score    float64
	playerID int
}

// bestMatch returns the strictly best-scoring candidate. No candidate with a
// positive score means no match here (found=false); a tie at the top is an
// ambiguity error naming the leading candidates.
func (a *Adapter) bestMatch(
	tokens []string,
	index map[int][][]string,
	fotmobName string,
	fotmobPlayerID int,
	context string,
) (int, bool, error) {
	var scored []scoredMatch
	for playerID, variants := range index {
		best := 0.0
		for _, variant := range variants {
			if s := matchScore(tokens, variant); s > best {
				best = s
			}
		}
		if best > 0 {
			scored = append(scored, scoredMatch{score: best, playerID: playerID})
		}
	}
	if len(scored) == 0 {
		return 0, false, nil
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].playerID < scored[j].playerID
	})
	if len(scored) > 1 && scored[1].score == scored[0].score {
		names := make([]string, 0, 3)
		for _, m := range scored[:min(3, len(scored))] {
			names = append(names, a.displayName(m.playerID))
		}
		return 0, false, fmt.Errorf(
			"rotation: ambiguous mapping for match-log player %q (%d) in %s, top candidates: %s",
			fotmobName, fotmobPlayerID, context, strings.Join(names, ", "))
	}
	return scored[0].playerID, true, nil
}

func (a *Adapter) displayName(playerID int) string {
	p, err := a.ctx.PlayerByID(playerID)
	if err != nil {
		return fmt.Sprintf("player %d", playerID)
	}
	return p.FullName()
}

// tokenize normalizes a name into lowercase ASCII tokens: NFKD decomposition
// with combining marks stripped, then split on anything outside [a-z0-9].
func tokenize(name string) []string {
	decomposed := norm.NFKD.String(name)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.FieldsFunc(b.String(), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
}

// tokenVariants returns the token forms a fantasy player can be matched
// under: the split full name and, when different, the display name.
func tokenVariants(p *data.Player) [][]string {
	var variants [][]string
	if full := tokenize(p.FullName()); len(full) > 0 {
		variants = append(variants, full)
	}
	if web := tokenize(p.WebName); len(web) > 0 && !containsTokens(variants, web) {
		variants = append(variants, web)
	}
	return variants
}

func containsTokens(variants [][]string, tokens []string) bool {
	for _, v := range variants {
		if tokensEqual(v, tokens) {
			return true
		}
	}
	return false
}

func tokensEqual(a, b []string) bool {
	return len(a) == len(b) && equalAll(a, b)
}

func equalAll(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// matchScore rates how well a candidate's tokens match the query's. Exact
// token overlap dominates; positional bonuses reward matching name order.
func matchScore(query, candidate []string) float64 {
	if len(query) == 0 || len(candidate) == 0 {
		return 0
	}
	common := 0
	seen := make(map[string]struct{}, len(query))
	for _, tok := range query {
		seen[tok] = struct{}{}
	}
	counted := make(map[string]struct{}, len(candidate))
	for _, tok := range candidate {
		if _, ok := seen[tok]; ok {
			if _, dup := counted[tok]; !dup {
				counted[tok] = struct{}{}
				common++
			}
		}
	}
	if common == 0 {
		return 0
	}

	score := float64(common)
	if query[len(query)-1] == candidate[len(candidate)-1] {
		score += 5
	}
	if query[0] == candidate[0] {
		score += 3
	} else if query[0][0] == candidate[0][0] {
		score += 1
	}
	if len(candidate) >= len(query) {
		if equalAll(candidate[len(candidate)-len(query):], query) {
			score += 4
		}
		if equalAll(candidate[:len(query)], query) {
			score += 2
		}
	}
	return score
}

// FotmobPlayerID returns the match-log id for a fantasy player.
func (a *Adapter) FotmobPlayerID(fplPlayerID int) (int, error) {
	id, ok := a.fplToFotmob[fplPlayerID]
	if !ok {
		return 0, fmt.Errorf("rotation: no match-log mapping for fantasy player %d: %w", fplPlayerID, data.ErrNotFound)
	}
	return id, nil
}

// FPLPlayerID returns the fantasy id for a match-log player.
func (a *Adapter) FPLPlayerID(fotmobPlayerID int) (int, error) {
	id, ok := a.fotmobToFPL[fotmobPlayerID]
	if !ok {
		return 0, fmt.Errorf("rotation: no fantasy mapping for match-log player %d: %w", fotmobPlayerID, data.ErrNotFound)
	}
	return id, nil
}

// SquadRole returns the rotation role view for a fantasy player id.
func (a *Adapter) SquadRole(fplPlayerID, maxGameweek int) (PlayerSquadRole, error) {
	fotmobPlayerID, err := a.FotmobPlayerID(fplPlayerID)
	if err != nil {
		return PlayerSquadRole{}, err
	}
	return a.analyzer.SquadRole(fotmobPlayerID, maxGameweek)
}

// StartHint returns the rival substitution view for a fantasy player id.
func (a *Adapter) StartHint(fplPlayerID, maxGameweek int) (RivalStartHint, error) {
	fotmobPlayerID, err := a.FotmobPlayerID(fplPlayerID)
	if err != nil {
		return RivalStartHint{}, err
	}
	return a.analyzer.StartHint(fotmobPlayerID, maxGameweek)
}

// Analyzer exposes the underlying index for match-log-id queries.
func (a *Adapter) Analyzer() *Analyzer {
	return a.analyzer
}
