// Package ontology canonicalizes free-text skill mentions into a stable
// vocabulary so that skill-node identity is the same across jobs and runs.
package ontology

import "strings"

// aliases maps normalized variants to their canonical skill name.
// Keys must already be in folded form (lowercase, collapsed whitespace).
var aliases = map[string]string{
	"js":            "javascript",
	"java script":   "javascript",
	"ecmascript":    "javascript",
	"ts":            "typescript",
	"golang":        "go",
	"go lang":       "go",
	"py":            "python",
	"python3":       "python",
	"k8s":           "kubernetes",
	"kube":          "kubernetes",
	"postgres":      "postgresql",
	"psql":          "postgresql",
	"mongo":         "mongodb",
	"es":            "elasticsearch",
	"elastic":       "elasticsearch",
	"ml":            "machine learning",
	"dl":            "deep learning",
	"ai":            "artificial intelligence",
	"nlp":           "natural language processing",
	"cv":            "computer vision",
	"gcp":           "google cloud platform",
	"google cloud":  "google cloud platform",
	"amazon web services": "aws",
	"ms sql":        "sql server",
	"mssql":         "sql server",
	"node":          "node.js",
	"nodejs":        "node.js",
	"reactjs":       "react",
	"react js":      "react",
	"vuejs":         "vue",
	"vue js":        "vue",
	"angularjs":     "angular",
	"ci cd":         "ci/cd",
	"cicd":          "ci/cd",
	"tf":            "terraform",
	"oop":           "object-oriented programming",
	"rest api":      "rest",
	"restful":       "rest",
	"restful api":   "rest",
	"graph ql":      "graphql",
	"c sharp":       "c#",
	"csharp":        "c#",
	"cpp":           "c++",
	"c plus plus":   "c++",
	"html5":         "html",
	"css3":          "css",
	"scikit learn":  "scikit-learn",
	"sklearn":       "scikit-learn",
	"tensor flow":   "tensorflow",
	"pytorch lightning": "pytorch",
	"springboot":    "spring boot",
	"spring-boot":   "spring boot",
}

// decorations are stripped from the ends of a mention before folding.
// Punctuation inside a term ("c++", "node.js", "ci/cd") is meaningful
// and left alone.
const decorations = ".,;:!?'\"()[]{}"

// fold lowercases a mention, trims decorative punctuation and collapses
// internal whitespace to single spaces.
func fold(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, decorations)
	return strings.Join(strings.Fields(s), " ")
}

// Normalize maps a raw skill mention to its canonical name. Known aliases
// collapse to one canonical string; unknown terms pass through folded, so an
// unrecognized skill still participates in matching as its own node. Pure:
// the same input always yields the same output.
func Normalize(raw string) string {
	folded := fold(raw)
	if canonical, ok := aliases[folded]; ok {
		return canonical
	}
	return folded
}

// IsAlias reports whether raw reaches its canonical form through the alias
// table rather than by folding alone.
func IsAlias(raw string) bool {
	_, ok := aliases[fold(raw)]
	return ok
}

// NormalizeAll canonicalizes a list of mentions preserving input order and
// dropping duplicates by canonical form. Empty mentions are skipped.
func NormalizeAll(raws []string) []string {
	seen := make(map[string]struct{}, len(raws))
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		canonical := Normalize(raw)
		if canonical == "" {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}
