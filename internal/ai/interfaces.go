package ai

import "context"

// JobFacts is the oracle's structured reading of a job description.
// Skill names are raw mentions; canonicalization happens downstream.
type JobFacts struct {
	Title           string   `json:"title"`
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills"`
	Seniority       string   `json:"seniority"`
	MinYears        float64  `json:"min_years"`
}

// CandidateFacts is the oracle's structured reading of one resume
type CandidateFacts struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Skills          []string `json:"skills"`
	YearsExperience float64  `json:"years_experience"`
	Seniority       string   `json:"seniority"`
}

// Oracle is the narrow interface the extractors consume.
// All methods return token usage information - callers can ignore it if not needed
type Oracle interface {
	ExtractJobRequirements(ctx context.Context, jobText string) (JobFacts, *TokenUsage, error)
	ExtractCandidateProfile(ctx context.Context, resumeText string) (CandidateFacts, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
