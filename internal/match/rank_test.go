package match

import (
	"testing"

	"cvsnap/internal/types"

	"github.com/stretchr/testify/assert"
)

func scored(id, name string, finalScore float64, matchedCount int) Scored {
	return Scored{
		Profile: types.CandidateProfile{CandidateID: id, Name: name},
		Breakdown: types.ScoreBreakdown{
			CandidateID:  id,
			FinalScore:   finalScore,
			MatchedCount: matchedCount,
		},
	}
}

func ids(ranked []Scored) []string {
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Profile.CandidateID
	}
	return out
}

func TestRankByScore(t *testing.T) {
	ranked := Rank([]Scored{
		scored("c1", "Low", 40.0, 1),
		scored("c2", "High", 90.0, 3),
		scored("c3", "Mid", 65.0, 2),
	})

	assert.Equal(t, []string{"c2", "c3", "c1"}, ids(ranked))
}

func TestRankTieBreakMatchedCount(t *testing.T) {
	ranked := Rank([]Scored{
		scored("c1", "Fewer", 70.0, 1),
		scored("c2", "More", 70.0, 3),
	})

	assert.Equal(t, []string{"c2", "c1"}, ids(ranked))
}

func TestRankTieBreakNameCaseInsensitive(t *testing.T) {
	// Equal score and matched count: "alice" sorts before "Bob"
	ranked := Rank([]Scored{
		scored("c1", "Bob", 70.0, 2),
		scored("c2", "alice", 70.0, 2),
	})

	assert.Equal(t, []string{"c2", "c1"}, ids(ranked))
}

func TestRankTieBreakCandidateID(t *testing.T) {
	ranked := Rank([]Scored{
		scored("c2", "Same Name", 70.0, 2),
		scored("c1", "Same Name", 70.0, 2),
	})

	assert.Equal(t, []string{"c1", "c2"}, ids(ranked))
}

func TestRankTotalOrderAllZero(t *testing.T) {
	input := []Scored{
		scored("c3", "z", 0, 0),
		scored("c1", "z", 0, 0),
		scored("c2", "z", 0, 0),
	}

	first := ids(Rank(input))
	assert.Equal(t, []string{"c1", "c2", "c3"}, first)

	// Ranking twice yields the same order (determinism)
	assert.Equal(t, first, ids(Rank(input)))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	input := []Scored{
		scored("c1", "Low", 10.0, 0),
		scored("c2", "High", 90.0, 3),
	}
	Rank(input)
	assert.Equal(t, "c1", input[0].Profile.CandidateID)
}
