package match

import "strings"

// Similarity scores how close two skill names are, in [0,1].
// Implementations must be pure so that scoring stays reproducible.
type Similarity interface {
	Score(a, b string) float64
}

// Lexical is the default similarity strategy: token-set Dice coefficient
// with a substring containment boost. It recovers near-miss terminology
// ("aws lambda" vs "aws") without an embedding model.
type Lexical struct{}

var _ Similarity = Lexical{}

func (Lexical) Score(a, b string) float64 {
	a = strings.TrimSpace(strings.ToLower(a))
	b = strings.TrimSpace(strings.ToLower(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	score := diceCoefficient(tokenize(a), tokenize(b))

	// Containment boost: "aws lambda" should score well against "aws"
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) >= 3 && strings.Contains(longer, shorter) {
		containment := float64(len(shorter)) / float64(len(longer))
		if containment > score {
			score = containment
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// tokenize splits a skill name on whitespace and common separators
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '-', '_', '/', '.':
			return true
		}
		return false
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// diceCoefficient computes 2|A∩B| / (|A|+|B|) over token sets
func diceCoefficient(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for token := range a {
		if _, ok := b[token]; ok {
			common++
		}
	}
	return 2 * float64(common) / float64(len(a)+len(b))
}
