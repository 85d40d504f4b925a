package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"cvsnap/internal/ai"
	"cvsnap/internal/config"
	"cvsnap/internal/docparse"
	appErrors "cvsnap/internal/errors"
	"cvsnap/internal/extract"
	"cvsnap/internal/graph"
	"cvsnap/internal/match"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOracle resolves canned facts keyed by the input text so concurrent
// tasks get stable, distinct results
type fakeOracle struct {
	job        ai.JobFacts
	jobErr     error
	candidates map[string]ai.CandidateFacts
	failures   map[string]error
}

func (f *fakeOracle) ExtractJobRequirements(ctx context.Context, jobText string) (ai.JobFacts, *ai.TokenUsage, error) {
	return f.job, nil, f.jobErr
}

func (f *fakeOracle) ExtractCandidateProfile(ctx context.Context, resumeText string) (ai.CandidateFacts, *ai.TokenUsage, error) {
	if err, ok := f.failures[resumeText]; ok {
		return ai.CandidateFacts{}, nil, err
	}
	facts, ok := f.candidates[resumeText]
	if !ok {
		return ai.CandidateFacts{}, nil, fmt.Errorf("unexpected resume text: %q", resumeText)
	}
	return facts, nil, nil
}

func (f *fakeOracle) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "fake", Available: true}
}

func (f *fakeOracle) Close() error { return nil }

func testLogger() *appErrors.Logger {
	logger, _ := appErrors.New("error")
	return logger
}

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MaxWorkers:    3,
		MaxResumes:    50,
		OracleRPM:     6000,
		OracleBurst:   100,
		TaskTimeout:   5 * time.Second,
		TopCandidates: 20,
	}
}

func newTestAnalyzer(t *testing.T, oracle *fakeOracle, cfg config.PipelineConfig) (*Analyzer, *graph.MemoryStore) {
	t.Helper()
	logger := testLogger()
	store := graph.NewMemoryStore()
	builder := graph.NewBuilder(store, config.GraphConfig{MaxRetries: 1, RetryBaseDelay: time.Millisecond}, logger)
	extractor := extract.NewExtractor(oracle, oracle, logger)
	return NewAnalyzer(extractor, builder, match.NewScorer(match.Lexical{}), cfg, logger), store
}

func resume(name, text string) ResumeFile {
	return ResumeFile{Filename: name, MIMEType: docparse.MIMETypeText, Data: []byte(text)}
}

func backendJob() ai.JobFacts {
	return ai.JobFacts{
		Title:          "Backend Engineer",
		RequiredSkills: []string{"Go", "PostgreSQL", "Kubernetes"},
		Seniority:      "senior",
		MinYears:       5,
	}
}

func TestAnalyzeJobRanksAndReports(t *testing.T) {
	oracle := &fakeOracle{
		job: backendJob(),
		candidates: map[string]ai.CandidateFacts{
			"resume alice": {
				Name: "Alice", Email: "alice@example.com",
				Skills:          []string{"Go", "PostgreSQL", "Kubernetes"},
				YearsExperience: 7,
			},
			"resume bob": {
				Name: "Bob", Email: "bob@example.com",
				Skills:          []string{"Go"},
				YearsExperience: 2,
			},
		},
	}
	analyzer, _ := newTestAnalyzer(t, oracle, pipelineConfig())

	report, err := analyzer.AnalyzeJob(context.Background(), "We need a backend engineer",
		[]ResumeFile{resume("alice.txt", "resume alice"), resume("bob.txt", "resume bob")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report.JobID, "job_"))
	assert.Equal(t, "Backend Engineer", report.JobInfo.Title)
	assert.Equal(t, 3, report.JobInfo.TotalRequiredSkills)
	assert.Equal(t, 2, report.TotalResumes)
	assert.Equal(t, 2, report.SuccessfullyProcessed)
	assert.Empty(t, report.ProcessingErrors)
	require.Len(t, report.RankedCandidates, 2)

	first, second := report.RankedCandidates[0], report.RankedCandidates[1]
	assert.Equal(t, "Alice", first.Name)
	assert.Equal(t, "Bob", second.Name)
	assert.Greater(t, first.MatchScore, second.MatchScore)
	assert.True(t, strings.HasPrefix(first.CandidateID, "candidate_"))
	assert.NotEmpty(t, first.Explanation)
	assert.ElementsMatch(t, []string{"go", "postgresql", "kubernetes"}, first.MatchedSkills)
	assert.Greater(t, report.ProcessingTime, 0.0)
}

func TestAnalyzeJobIsolatesPerFileFailures(t *testing.T) {
	oracle := &fakeOracle{
		job: backendJob(),
		candidates: map[string]ai.CandidateFacts{
			"resume good": {Name: "Good", Skills: []string{"Go"}, YearsExperience: 5},
		},
		failures: map[string]error{
			"resume broken": appErrors.NewExtractionError(appErrors.ErrCodeEmptyResponse,
				"Model returned no candidates", nil),
		},
	}
	analyzer, _ := newTestAnalyzer(t, oracle, pipelineConfig())

	report, err := analyzer.AnalyzeJob(context.Background(), "backend role", []ResumeFile{
		resume("good.txt", "resume good"),
		resume("broken.txt", "resume broken"),
		{Filename: "weird.xyz", MIMEType: "application/octet-stream", Data: []byte("binary")},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalResumes)
	assert.Equal(t, 1, report.SuccessfullyProcessed)
	require.Len(t, report.ProcessingErrors, 2)
	require.Len(t, report.RankedCandidates, 1)
	assert.Equal(t, "Good", report.RankedCandidates[0].Name)

	kinds := make(map[string]string)
	for _, procErr := range report.ProcessingErrors {
		kinds[procErr.Filename] = procErr.Kind
	}
	assert.Equal(t, extract.ReasonEmptyResponse, kinds["broken.txt"])
	assert.Equal(t, "document_parse", kinds["weird.xyz"])
}

func TestAnalyzeJobZeroRequirementsIsFatal(t *testing.T) {
	oracle := &fakeOracle{job: ai.JobFacts{Title: "Mystery Role"}}
	analyzer, _ := newTestAnalyzer(t, oracle, pipelineConfig())

	_, err := analyzer.AnalyzeJob(context.Background(), "vague text",
		[]ResumeFile{resume("a.txt", "resume a")})
	require.Error(t, err)

	appErr, ok := err.(*appErrors.AppError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeNoRequirements, appErr.Code)
}

func TestAnalyzeJobAllResumesFailing(t *testing.T) {
	oracle := &fakeOracle{
		job: backendJob(),
		failures: map[string]error{
			"resume one": appErrors.NewExtractionError(appErrors.ErrCodeSchemaViolation, "bad shape", nil),
			"resume two": appErrors.NewExtractionError(appErrors.ErrCodeSchemaViolation, "bad shape", nil),
		},
	}
	analyzer, _ := newTestAnalyzer(t, oracle, pipelineConfig())

	report, err := analyzer.AnalyzeJob(context.Background(), "backend role", []ResumeFile{
		resume("one.txt", "resume one"),
		resume("two.txt", "resume two"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, report.SuccessfullyProcessed)
	assert.Empty(t, report.RankedCandidates)
	assert.Len(t, report.ProcessingErrors, 2)
}

func TestAnalyzeJobEnforcesResumeLimit(t *testing.T) {
	cfg := pipelineConfig()
	cfg.MaxResumes = 2
	analyzer, _ := newTestAnalyzer(t, &fakeOracle{job: backendJob()}, cfg)

	_, err := analyzer.AnalyzeJob(context.Background(), "backend role", []ResumeFile{
		resume("a.txt", "a"), resume("b.txt", "b"), resume("c.txt", "c"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too many resumes")

	_, err = analyzer.AnalyzeJob(context.Background(), "backend role", nil)
	require.Error(t, err)
}

func TestAnalyzeJobTruncatesRanking(t *testing.T) {
	oracle := &fakeOracle{job: backendJob(), candidates: map[string]ai.CandidateFacts{}}
	var resumes []ResumeFile
	for i := 0; i < 4; i++ {
		text := fmt.Sprintf("resume %d", i)
		oracle.candidates[text] = ai.CandidateFacts{
			Name:            fmt.Sprintf("Candidate %d", i),
			Skills:          []string{"Go"},
			YearsExperience: float64(i + 1),
		}
		resumes = append(resumes, resume(fmt.Sprintf("r%d.txt", i), text))
	}

	cfg := pipelineConfig()
	cfg.TopCandidates = 2
	analyzer, _ := newTestAnalyzer(t, oracle, cfg)

	report, err := analyzer.AnalyzeJob(context.Background(), "backend role", resumes)
	require.NoError(t, err)

	assert.Equal(t, 4, report.SuccessfullyProcessed)
	assert.Len(t, report.RankedCandidates, 2)
}

func TestAnalyzeJobWritesGraph(t *testing.T) {
	oracle := &fakeOracle{
		job: backendJob(),
		candidates: map[string]ai.CandidateFacts{
			"resume alice": {Name: "Alice", Skills: []string{"Go"}, YearsExperience: 6},
		},
	}
	analyzer, store := newTestAnalyzer(t, oracle, pipelineConfig())

	report, err := analyzer.AnalyzeJob(context.Background(), "backend role",
		[]ResumeFile{resume("alice.txt", "resume alice")})
	require.NoError(t, err)

	stored, err := store.CandidatesFor(context.Background(), report.JobID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Alice", stored[0].Name)
}
