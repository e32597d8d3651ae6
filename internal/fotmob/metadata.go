package fotmob

// Teams maps match-log team ids to the names used in the source's exports.
var Teams = map[int]string{
	9825:  "Arsenal",
	8456:  "Manchester City",
	8455:  "Chelsea",
	8472:  "Sunderland",
	8586:  "Spurs",
	10252: "Aston Villa",
	10260: "Manchester United",
	8650:  "Liverpool",
	8678:  "Bournemouth",
	9826:  "Crystal Palace",
	10204: "Brighton",
	9937:  "Brentford",
	8668:  "Everton",
	10261: "Newcastle",
	9879:  "Fulham",
	8463:  "Leeds",
	8191:  "Burnley",
	8654:  "Westham",
	10203: "Nottingham",
	8602:  "Wolves",
}

// TeamNameToID is the inverse of Teams.
var TeamNameToID = func() map[string]int {
	out := make(map[string]int, len(Teams))
	for id, name := range Teams {
		out[name] = id
	}
	return out
}()

// FPLTeamIDToName bridges fantasy-API team ids to the match-log source's
// team names. Both tables must be re-checked each season after promotion and
// relegation.
var FPLTeamIDToName = map[int]string{
	1:  "Arsenal",
	2:  "Aston Villa",
	3:  "Burnley",
	4:  "Bournemouth",
	5:  "Brentford",
	6:  "Brighton",
	7:  "Chelsea",
	8:  "Crystal Palace",
	9:  "Everton",
	10: "Fulham",
	11: "Leeds",
	12: "Liverpool",
	13: "Manchester City",
	14: "Manchester United",
	15: "Newcastle",
	16: "Nottingham",
	17: "Sunderland",
	18: "Spurs",
	19: "Westham",
	20: "Wolves",
}
