package extract

import (
	"context"
	"testing"

	"cvsnap/internal/ai"
	appErrors "cvsnap/internal/errors"
	"cvsnap/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOracle returns canned facts so extraction tests are deterministic
type stubOracle struct {
	jobFacts       ai.JobFacts
	jobErr         error
	candidateFacts ai.CandidateFacts
	candidateErr   error
}

func (s *stubOracle) ExtractJobRequirements(ctx context.Context, jobText string) (ai.JobFacts, *ai.TokenUsage, error) {
	return s.jobFacts, nil, s.jobErr
}

func (s *stubOracle) ExtractCandidateProfile(ctx context.Context, resumeText string) (ai.CandidateFacts, *ai.TokenUsage, error) {
	return s.candidateFacts, nil, s.candidateErr
}

func (s *stubOracle) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubOracle) Close() error { return nil }

func testLogger() *appErrors.Logger {
	logger, _ := appErrors.New("error")
	return logger
}

func TestExtractRequirements(t *testing.T) {
	oracle := &stubOracle{
		jobFacts: ai.JobFacts{
			Title:           "Backend Engineer",
			RequiredSkills:  []string{"Golang", "k8s", "PostgreSQL"},
			PreferredSkills: []string{"Terraform", "go"}, // "go" collides with required "Golang"
			Seniority:       "senior",
			MinYears:        5,
		},
	}
	e := NewExtractor(oracle, oracle, testLogger())

	job, err := e.ExtractRequirements(context.Background(), "job_1", "We need a backend engineer")
	require.NoError(t, err)

	assert.Equal(t, "job_1", job.JobID)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, 5.0, job.MinYears)
	assert.Equal(t, 3, job.RequiredCount())

	skills := make(map[string]types.SkillImportance)
	for _, r := range job.Requirements {
		skills[r.Skill] = r.Importance
	}
	assert.Equal(t, types.ImportanceRequired, skills["go"])
	assert.Equal(t, types.ImportanceRequired, skills["kubernetes"])
	assert.Equal(t, types.ImportanceRequired, skills["postgresql"])
	assert.Equal(t, types.ImportancePreferred, skills["terraform"])
	assert.Len(t, job.Requirements, 4)
}

func TestExtractRequirementsNoneIsFatal(t *testing.T) {
	oracle := &stubOracle{jobFacts: ai.JobFacts{Title: "Mystery Role"}}
	e := NewExtractor(oracle, oracle, testLogger())

	_, err := e.ExtractRequirements(context.Background(), "job_1", "vague text")
	require.Error(t, err)

	appErr, ok := err.(*appErrors.AppError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeNoRequirements, appErr.Code)
}

func TestExtractRequirementsEmptyText(t *testing.T) {
	oracle := &stubOracle{}
	e := NewExtractor(oracle, oracle, testLogger())

	_, err := e.ExtractRequirements(context.Background(), "job_1", "   ")
	require.Error(t, err)
}

func TestExtractCandidate(t *testing.T) {
	oracle := &stubOracle{
		candidateFacts: ai.CandidateFacts{
			Name:            "Jane Doe",
			Email:           "jane@example.com",
			Skills:          []string{"Python", "py", "Docker"}, // "py" collapses into "python"
			YearsExperience: 4,
			Seniority:       "mid",
		},
	}
	e := NewExtractor(oracle, oracle, testLogger())

	profile, err := e.ExtractCandidate(context.Background(), "candidate_1", "resume text", "jane.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, "jane.pdf", profile.SourceFile)
	assert.Len(t, profile.Skills, 2)
	assert.True(t, profile.HasSkill("python"))
	assert.True(t, profile.HasSkill("docker"))
}

func TestExtractCandidateMissingNameFallsBackToFilename(t *testing.T) {
	oracle := &stubOracle{
		candidateFacts: ai.CandidateFacts{
			Skills:          []string{"go"},
			YearsExperience: 1,
		},
	}
	e := NewExtractor(oracle, oracle, testLogger())

	profile, err := e.ExtractCandidate(context.Background(), "candidate_1", "resume text", "anon.pdf")
	require.NoError(t, err)
	assert.Equal(t, "anon.pdf", profile.Name)
}

func TestExtractCandidateEmptySkillsIsFailure(t *testing.T) {
	oracle := &stubOracle{
		candidateFacts: ai.CandidateFacts{Name: "No Skills", YearsExperience: 2},
	}
	e := NewExtractor(oracle, oracle, testLogger())

	_, err := e.ExtractCandidate(context.Background(), "candidate_1", "resume text", "empty.pdf")
	require.Error(t, err)

	appErr, ok := err.(*appErrors.AppError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrorTypeExtraction, appErr.Type)
}

func TestExtractCandidateNegativeYears(t *testing.T) {
	oracle := &stubOracle{
		candidateFacts: ai.CandidateFacts{
			Name:            "Broken",
			Skills:          []string{"go"},
			YearsExperience: -3,
		},
	}
	e := NewExtractor(oracle, oracle, testLogger())

	_, err := e.ExtractCandidate(context.Background(), "candidate_1", "resume text", "broken.pdf")
	require.Error(t, err)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, ReasonTimeout, FailureReason(context.DeadlineExceeded))
	assert.Equal(t, ReasonTimeout,
		FailureReason(appErrors.NewExtractionError(appErrors.ErrCodeAITimeout, "timed out", nil)))
	assert.Equal(t, ReasonEmptyResponse,
		FailureReason(appErrors.NewExtractionError(appErrors.ErrCodeEmptyResponse, "empty", nil)))
	assert.Equal(t, ReasonSchemaViolation,
		FailureReason(appErrors.NewExtractionError(appErrors.ErrCodeSchemaViolation, "bad", nil)))
}
