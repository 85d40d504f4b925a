package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"known alias", "JS", "javascript"},
		{"alias with spaces", "  k8s  ", "kubernetes"},
		{"golang to go", "Golang", "go"},
		{"case folding only", "Python", "python"},
		{"whitespace collapse", "machine    learning", "machine learning"},
		{"unknown passes through", "quantum basket weaving", "quantum basket weaving"},
		{"trailing punctuation stripped", "Docker,", "docker"},
		{"internal punctuation kept", "C++", "c++"},
		{"node variants", "NodeJS", "node.js"},
		{"empty input", "", ""},
		{"only punctuation", "...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIsPure(t *testing.T) {
	// Same input must yield the same output regardless of call order.
	first := Normalize("K8s")
	for _, other := range []string{"python", "js", "weird skill"} {
		Normalize(other)
	}
	assert.Equal(t, first, Normalize("K8s"))
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll([]string{"JS", "javascript", "Python", "  ", "Golang", "go"})
	assert.Equal(t, []string{"javascript", "python", "go"}, got)
}

func TestIsAlias(t *testing.T) {
	assert.True(t, IsAlias("JS"))
	assert.True(t, IsAlias("golang"))
	assert.False(t, IsAlias("python"))
	assert.False(t, IsAlias("made-up-skill"))
}
