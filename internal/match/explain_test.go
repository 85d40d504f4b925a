package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendation(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{95, TierStrong},
		{80, TierStrong},
		{79.9, TierGood},
		{60, TierGood},
		{59.9, TierPartial},
		{40, TierPartial},
		{39.9, TierPoor},
		{0, TierPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Recommendation(tt.score), "score %.1f", tt.score)
	}
}

func TestExplainMentionsMatchedAndMissing(t *testing.T) {
	j := job(5, []string{"go", "kubernetes", "postgresql", "terraform"})
	c := candidate("c1", "Jane", 6, "go", "kubernetes", "postgresql")
	cov := coverageOf(j, c)

	scorer := NewScorer(Lexical{})
	breakdown := scorer.Score(j, c, cov)

	text := Explain(j, c, cov, breakdown)

	assert.Contains(t, text, "3 of 4 required skills")
	assert.Contains(t, text, "go")
	assert.Contains(t, text, "Missing 1 required: terraform.")
	assert.Contains(t, text, "6 years of experience against a 5-year minimum")
	assert.Contains(t, text, Recommendation(breakdown.FinalScore))
}

func TestExplainTopThreeOnly(t *testing.T) {
	j := job(0, []string{"a-skill", "b-skill", "c-skill", "d-skill", "e-skill"})
	c := candidate("c1", "Jane", 2, "a-skill", "b-skill", "c-skill", "d-skill", "e-skill")
	cov := coverageOf(j, c)

	scorer := NewScorer(Lexical{})
	text := Explain(j, c, cov, scorer.Score(j, c, cov))

	assert.Contains(t, text, "a-skill, b-skill, c-skill")
	assert.NotContains(t, text, "d-skill")
}

func TestExplainNoMatches(t *testing.T) {
	j := job(3, []string{"rust"})
	c := candidate("c1", "Jane", 1, "cobol")
	cov := coverageOf(j, c)

	scorer := NewScorer(Lexical{})
	breakdown := scorer.Score(j, c, cov)
	text := Explain(j, c, cov, breakdown)

	assert.Contains(t, text, "Matches none of the required skills.")
	assert.Contains(t, text, "below the 3-year minimum")
	assert.Contains(t, text, TierPoor)
}

func TestExplainNoStatedMinimum(t *testing.T) {
	j := job(0, []string{"go"})
	c := candidate("c1", "Jane", 2.5, "go")
	cov := coverageOf(j, c)

	scorer := NewScorer(Lexical{})
	text := Explain(j, c, cov, scorer.Score(j, c, cov))

	assert.Contains(t, text, "2.5 years of experience; the role states no minimum")
}

func TestExplainNeverContradictsScore(t *testing.T) {
	// The closing tier is derived from the same breakdown the narrative
	// describes, so re-deriving must agree.
	j := job(4, []string{"python", "docker"})
	c := candidate("c1", "Jane", 2, "python")
	cov := coverageOf(j, c)

	scorer := NewScorer(Lexical{})
	breakdown := scorer.Score(j, c, cov)
	text := Explain(j, c, cov, breakdown)

	assert.Contains(t, text, Recommendation(breakdown.FinalScore))
}
