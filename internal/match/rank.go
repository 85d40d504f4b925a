package match

import (
	"sort"
	"strings"

	"cvsnap/internal/types"
)

// Scored bundles everything known about one successfully processed
// candidate, ready for ranking and report assembly.
type Scored struct {
	Profile   types.CandidateProfile
	Coverage  types.Coverage
	Breakdown types.ScoreBreakdown
}

// Rank orders candidates into a strict total order: final score descending,
// then matched count descending, then display name ascending
// case-insensitive, then candidate id ascending. Every input set, including
// all-zero scores, ranks deterministically.
func Rank(scored []Scored) []Scored {
	ranked := make([]Scored, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Breakdown.FinalScore != b.Breakdown.FinalScore {
			return a.Breakdown.FinalScore > b.Breakdown.FinalScore
		}
		if a.Breakdown.MatchedCount != b.Breakdown.MatchedCount {
			return a.Breakdown.MatchedCount > b.Breakdown.MatchedCount
		}
		nameA, nameB := strings.ToLower(a.Profile.Name), strings.ToLower(b.Profile.Name)
		if nameA != nameB {
			return nameA < nameB
		}
		return a.Profile.CandidateID < b.Profile.CandidateID
	})

	return ranked
}
