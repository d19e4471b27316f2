package annotation

import "github.com/agext/levenshtein"

const maxSuggestionDistance = 3

// nameSuggestion returns the closest candidate to name, or "" when nothing is
// close enough to be a plausible typo.
func nameSuggestion(name string, candidates []string) string {
	score := maxSuggestionDistance + 1
	nearest := ""
	for _, candidate := range candidates {
		if d := levenshtein.Distance(name, candidate, nil); d < score {
			score = d
			nearest = candidate
		}
	}
	return nearest
}
