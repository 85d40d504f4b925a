package match

import (
	"fmt"
	"strings"

	"cvsnap/internal/types"
)

// Recommendation tiers derived purely from final score thresholds
const (
	TierStrong  = "Strong Match"
	TierGood    = "Good Match"
	TierPartial = "Partial Match"
	TierPoor    = "Poor Match"
)

// Recommendation maps a final score to its tier
func Recommendation(finalScore float64) string {
	switch {
	case finalScore >= 80:
		return TierStrong
	case finalScore >= 60:
		return TierGood
	case finalScore >= 40:
		return TierPartial
	default:
		return TierPoor
	}
}

// Explain composes a short narrative strictly from the scorer's own inputs,
// with no oracle call, so the explanation can never contradict the numeric
// score it describes.
func Explain(job types.JobRequirements, candidate types.CandidateProfile, coverage types.Coverage, breakdown types.ScoreBreakdown) string {
	var b strings.Builder

	matchedRequired := requiredSkills(coverage.Matched)
	missingRequired := requiredSkills(coverage.Missing)

	switch {
	case len(matchedRequired) == 0:
		b.WriteString("Matches none of the required skills.")
	default:
		top := matchedRequired
		if len(top) > 3 {
			top = top[:3]
		}
		fmt.Fprintf(&b, "Matches %d of %d required skills, including %s.",
			breakdown.MatchedCount, breakdown.TotalRequired, joinSkills(top))
	}

	if len(missingRequired) > 0 {
		fmt.Fprintf(&b, " Missing %d required: %s.", len(missingRequired), joinSkills(missingRequired))
	}

	if job.MinYears > 0 {
		if candidate.ExperienceYears >= job.MinYears {
			fmt.Fprintf(&b, " Has %s years of experience against a %s-year minimum.",
				formatYears(candidate.ExperienceYears), formatYears(job.MinYears))
		} else {
			fmt.Fprintf(&b, " Has %s years of experience, below the %s-year minimum.",
				formatYears(candidate.ExperienceYears), formatYears(job.MinYears))
		}
	} else {
		fmt.Fprintf(&b, " Has %s years of experience; the role states no minimum.",
			formatYears(candidate.ExperienceYears))
	}

	fmt.Fprintf(&b, " Overall: %s (%.1f/100).", Recommendation(breakdown.FinalScore), breakdown.FinalScore)

	return b.String()
}

// requiredSkills filters a requirement list down to required skill names
func requiredSkills(reqs []types.Requirement) []string {
	names := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if req.Importance == types.ImportanceRequired {
			names = append(names, req.Skill)
		}
	}
	return names
}

func joinSkills(names []string) string {
	return strings.Join(names, ", ")
}

// formatYears trims trailing zeros so "5" prints instead of "5.0"
func formatYears(years float64) string {
	s := fmt.Sprintf("%.1f", years)
	s = strings.TrimSuffix(s, ".0")
	return s
}
