package match

import (
	"fmt"
	"testing"

	"cvsnap/internal/types"

	"github.com/stretchr/testify/assert"
)

func job(minYears float64, required []string, preferred ...string) types.JobRequirements {
	j := types.JobRequirements{
		JobID:    "job_test0001",
		Title:    "Engineer",
		MinYears: minYears,
	}
	for _, skill := range required {
		j.Requirements = append(j.Requirements, types.Requirement{
			Skill: skill, Importance: types.ImportanceRequired, MinYears: minYears,
		})
	}
	for _, skill := range preferred {
		j.Requirements = append(j.Requirements, types.Requirement{
			Skill: skill, Importance: types.ImportancePreferred,
		})
	}
	return j
}

func candidate(id, name string, years float64, skills ...string) types.CandidateProfile {
	c := types.CandidateProfile{
		CandidateID:     id,
		Name:            name,
		ExperienceYears: years,
	}
	for _, skill := range skills {
		c.Skills = append(c.Skills, types.SkillMention{Skill: skill, Confidence: 1.0, Evidence: skill})
	}
	return c
}

// coverageOf computes coverage by canonical-name intersection, mirroring
// what the graph store does.
func coverageOf(j types.JobRequirements, c types.CandidateProfile) types.Coverage {
	var cov types.Coverage
	for _, req := range j.Requirements {
		if c.HasSkill(req.Skill) {
			cov.Matched = append(cov.Matched, req)
		} else {
			cov.Missing = append(cov.Missing, req)
		}
	}
	return cov
}

func TestScoreBounds(t *testing.T) {
	scorer := NewScorer(Lexical{})

	cases := []struct {
		job       types.JobRequirements
		candidate types.CandidateProfile
	}{
		{job(5, []string{"go", "kubernetes"}), candidate("c1", "A", 10, "go", "kubernetes")},
		{job(5, []string{"go", "kubernetes"}), candidate("c2", "B", 0)},
		{job(0, nil), candidate("c3", "C", 3, "go")},
		{job(20, []string{"rust"}), candidate("c4", "D", 1, "cobol")},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			b := scorer.Score(tc.job, tc.candidate, coverageOf(tc.job, tc.candidate))
			assert.GreaterOrEqual(t, b.FinalScore, 0.0)
			assert.LessOrEqual(t, b.FinalScore, 100.0)
		})
	}
}

func TestScoreDeterminism(t *testing.T) {
	scorer := NewScorer(Lexical{})
	j := job(3, []string{"python", "docker"}, "aws")
	c := candidate("c1", "Jane", 4, "python", "aws")
	cov := coverageOf(j, c)

	first := scorer.Score(j, c, cov)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, scorer.Score(j, c, cov))
	}
}

func TestScoreFullCoverageFloor(t *testing.T) {
	// Full required coverage plus sufficient experience guarantees at
	// least the 50-point coverage term plus the experience term.
	scorer := NewScorer(Lexical{})
	j := job(2, []string{"go", "postgresql"})
	c := candidate("c1", "Jane", 5, "go", "postgresql")

	b := scorer.Score(j, c, coverageOf(j, c))

	assert.Equal(t, 2, b.MatchedCount)
	assert.Equal(t, 100.0, b.SkillCoveragePct)
	assert.Equal(t, 100.0, b.ExperienceAlignment)
	assert.GreaterOrEqual(t, b.FinalScore, 50.0+WeightSemanticSimilarity*b.SemanticSimilarity)
}

func TestScorePartialCoverageScenario(t *testing.T) {
	// Job requires {python, docker}; candidate has {python, aws}.
	scorer := NewScorer(Lexical{})
	j := job(0, []string{"python", "docker"})
	c := candidate("c1", "Jane", 3, "python", "aws")

	b := scorer.Score(j, c, coverageOf(j, c))

	assert.Equal(t, 1, b.MatchedCount)
	assert.Equal(t, 2, b.TotalRequired)
	assert.Equal(t, 50.0, b.SkillCoveragePct)
	// Python contributes 1.0 to similarity; docker's closest skill is far
	assert.GreaterOrEqual(t, b.SemanticSimilarity, 50.0)
	assert.Equal(t, 100.0, b.ExperienceAlignment) // no stated minimum

	expected := round1(clamp(
		WeightSkillCoverage*b.SkillCoveragePct+
			WeightSemanticSimilarity*b.SemanticSimilarity+
			WeightExperienceAlignment*b.ExperienceAlignment, 0, 100))
	assert.Equal(t, expected, b.FinalScore)
}

func TestScoreZeroRequiredSkills(t *testing.T) {
	scorer := NewScorer(Lexical{})
	j := job(0, nil, "kubernetes") // preferred only
	c := candidate("c1", "Jane", 1, "go")

	b := scorer.Score(j, c, coverageOf(j, c))

	assert.Equal(t, 0, b.TotalRequired)
	assert.Equal(t, 100.0, b.SkillCoveragePct)
}

func TestExperienceAlignment(t *testing.T) {
	tests := []struct {
		name      string
		candidate float64
		required  float64
		expected  float64
	}{
		{"no minimum", 2, 0, 100},
		{"meets minimum", 5, 5, 100},
		{"exceeds minimum", 8, 5, 100},
		{"below minimum scales linearly", 2, 4, 50},
		{"zero experience", 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, experienceAlignment(tt.candidate, tt.required))
		})
	}
}

func TestMatchEdges(t *testing.T) {
	scorer := NewScorer(Lexical{})
	j := job(0, []string{"javascript", "docker", "google cloud platform"})

	c := candidate("c1", "Jane", 3)
	c.Skills = []types.SkillMention{
		{Skill: "javascript", Confidence: 1.0, Evidence: "JS"}, // matched via alias
		{Skill: "docker", Confidence: 1.0, Evidence: "Docker"}, // exact
		{Skill: "google cloud", Confidence: 1.0, Evidence: "google cloud"},
	}
	// "google cloud" normalizes to "google cloud platform" upstream; here it
	// stays distinct to exercise the semantic path.
	cov := coverageOf(j, c)

	edges := scorer.MatchEdges(j, c, cov)
	modes := make(map[string]types.MatchMode)
	for _, edge := range edges {
		modes[edge.Skill] = edge.Mode
	}

	assert.Equal(t, types.MatchAlias, modes["javascript"])
	assert.Equal(t, types.MatchExact, modes["docker"])
	assert.Equal(t, types.MatchSemantic, modes["google cloud platform"])
}

func TestLexicalSimilarity(t *testing.T) {
	sim := Lexical{}

	assert.Equal(t, 1.0, sim.Score("go", "go"))
	assert.Equal(t, 0.0, sim.Score("go", ""))
	assert.Greater(t, sim.Score("aws lambda", "aws"), 0.5)
	assert.Greater(t, sim.Score("machine learning", "machine learning engineering"), 0.5)
	assert.Less(t, sim.Score("rust", "photoshop"), 0.3)

	// Symmetry
	assert.Equal(t, sim.Score("aws lambda", "aws"), sim.Score("aws", "aws lambda"))
}
