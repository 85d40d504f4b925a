// Package match computes bounded, explainable 0-100 candidate scores from
// graph coverage, semantic similarity and experience alignment.
package match

import (
	"math"
	"sort"

	"cvsnap/internal/ontology"
	"cvsnap/internal/types"
)

// Fixed score weights. Constants of the design, not per-request
// configuration, so results are reproducible across runs with identical
// extraction output.
const (
	WeightSkillCoverage       = 0.5
	WeightSemanticSimilarity  = 0.3
	WeightExperienceAlignment = 0.2
)

// semanticThreshold is the minimum similarity for recording a semantic
// match edge between a candidate skill and an uncovered requirement.
const semanticThreshold = 0.8

// Scorer fuses coverage, similarity and experience into a ScoreBreakdown
type Scorer struct {
	similarity Similarity
}

// NewScorer creates a scorer with the given similarity strategy
func NewScorer(similarity Similarity) *Scorer {
	if similarity == nil {
		similarity = Lexical{}
	}
	return &Scorer{similarity: similarity}
}

// Score computes one candidate's breakdown. Every term lives in [0,100]
// and the final score is derivable from the breakdown fields alone.
func (s *Scorer) Score(job types.JobRequirements, candidate types.CandidateProfile, coverage types.Coverage) types.ScoreBreakdown {
	breakdown := types.ScoreBreakdown{
		CandidateID:   candidate.CandidateID,
		TotalRequired: job.RequiredCount(),
	}

	for _, req := range coverage.Matched {
		if req.Importance == types.ImportanceRequired {
			breakdown.MatchedCount++
		}
	}

	// Term 1: required-skill coverage. Zero required skills means no hard
	// constraint to fail, so the term is 100.
	if breakdown.TotalRequired == 0 {
		breakdown.SkillCoveragePct = 100
	} else {
		breakdown.SkillCoveragePct = 100 * float64(breakdown.MatchedCount) / float64(breakdown.TotalRequired)
	}

	// Term 2: mean similarity over all requirement skills, required and
	// preferred. Covered requirements count as 1.0; the rest take the
	// closest candidate skill.
	breakdown.SemanticSimilarity = s.meanSimilarity(job, candidate, coverage)

	// Term 3: experience alignment, linearly scaled below the minimum
	breakdown.ExperienceAlignment = experienceAlignment(candidate.ExperienceYears, job.MinYears)

	breakdown.FinalScore = round1(clamp(
		WeightSkillCoverage*breakdown.SkillCoveragePct+
			WeightSemanticSimilarity*breakdown.SemanticSimilarity+
			WeightExperienceAlignment*breakdown.ExperienceAlignment,
		0, 100))

	return breakdown
}

// meanSimilarity averages per-requirement similarity scaled to [0,100]
func (s *Scorer) meanSimilarity(job types.JobRequirements, candidate types.CandidateProfile, coverage types.Coverage) float64 {
	if len(job.Requirements) == 0 {
		return 100
	}

	matched := make(map[string]struct{}, len(coverage.Matched))
	for _, req := range coverage.Matched {
		matched[req.Skill] = struct{}{}
	}

	total := 0.0
	for _, req := range job.Requirements {
		if _, ok := matched[req.Skill]; ok {
			total += 1.0
			continue
		}
		total += s.bestSimilarity(req.Skill, candidate)
	}

	return 100 * total / float64(len(job.Requirements))
}

// bestSimilarity finds the closest candidate skill to a requirement
func (s *Scorer) bestSimilarity(requirement string, candidate types.CandidateProfile) float64 {
	best := 0.0
	for _, mention := range candidate.Skills {
		if score := s.similarity.Score(requirement, mention.Skill); score > best {
			best = score
		}
	}
	return best
}

// MatchEdges derives the candidate's match edges from the same inputs the
// scorer uses. Covered requirements yield exact or alias edges with weight
// 1.0; uncovered requirements close enough to a candidate skill yield
// semantic edges weighted by similarity.
func (s *Scorer) MatchEdges(job types.JobRequirements, candidate types.CandidateProfile, coverage types.Coverage) []types.MatchEdge {
	edges := make([]types.MatchEdge, 0, len(coverage.Matched))

	for _, req := range coverage.Matched {
		mode := types.MatchExact
		for _, mention := range candidate.Skills {
			if mention.Skill == req.Skill && ontology.IsAlias(mention.Evidence) {
				mode = types.MatchAlias
				break
			}
		}
		edges = append(edges, types.MatchEdge{
			CandidateID: candidate.CandidateID,
			Skill:       req.Skill,
			Weight:      1.0,
			Mode:        mode,
		})
	}

	for _, req := range coverage.Missing {
		if best := s.bestSimilarity(req.Skill, candidate); best >= semanticThreshold {
			edges = append(edges, types.MatchEdge{
				CandidateID: candidate.CandidateID,
				Skill:       req.Skill,
				Weight:      best,
				Mode:        types.MatchSemantic,
			})
		}
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].Skill < edges[j].Skill })
	return edges
}

// experienceAlignment returns 100 at or above the minimum, linearly scaled
// toward 0 below it, and 100 when the job states no minimum.
func experienceAlignment(candidateYears, requiredYears float64) float64 {
	if requiredYears <= 0 {
		return 100
	}
	if candidateYears >= requiredYears {
		return 100
	}
	if candidateYears <= 0 {
		return 0
	}
	return clamp(100*candidateYears/requiredYears, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
