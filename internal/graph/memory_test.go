package graph

import (
	"context"
	"sync"
	"testing"
	"time"

	"cvsnap/internal/config"
	appErrors "cvsnap/internal/errors"
	"cvsnap/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *appErrors.Logger {
	logger, _ := appErrors.New("error")
	return logger
}

func testJob() types.JobRequirements {
	return types.JobRequirements{
		JobID: "job_abc12345",
		Title: "Backend Engineer",
		Requirements: []types.Requirement{
			{Skill: "go", Importance: types.ImportanceRequired, MinYears: 3},
			{Skill: "kubernetes", Importance: types.ImportanceRequired, MinYears: 3},
			{Skill: "terraform", Importance: types.ImportancePreferred},
		},
		Seniority: "senior",
		MinYears:  3,
	}
}

func testCandidate(id string, skills ...string) types.CandidateProfile {
	profile := types.CandidateProfile{
		CandidateID:     id,
		Name:            "Test Candidate",
		Email:           "test@example.com",
		SourceFile:      id + ".pdf",
		ExperienceYears: 4,
	}
	for _, skill := range skills {
		profile.Skills = append(profile.Skills, types.SkillMention{Skill: skill, Confidence: 1.0})
	}
	return profile
}

func testBuilder(store Store) *Builder {
	return NewBuilder(store, config.GraphConfig{MaxRetries: 2, RetryBaseDelay: time.Millisecond}, testLogger())
}

func TestCoverageFor(t *testing.T) {
	store := NewMemoryStore()
	builder := testBuilder(store)
	ctx := context.Background()

	require.NoError(t, builder.AddJob(ctx, testJob()))
	require.NoError(t, builder.AddCandidate(ctx, "job_abc12345", testCandidate("candidate_1", "go", "terraform", "aws")))

	coverage, err := store.CoverageFor(ctx, "job_abc12345", "candidate_1")
	require.NoError(t, err)

	matched := make([]string, 0, len(coverage.Matched))
	for _, req := range coverage.Matched {
		matched = append(matched, req.Skill)
	}
	missing := make([]string, 0, len(coverage.Missing))
	for _, req := range coverage.Missing {
		missing = append(missing, req.Skill)
	}

	assert.Equal(t, []string{"go", "terraform"}, matched)
	assert.Equal(t, []string{"kubernetes"}, missing)
}

func TestUpsertIdempotence(t *testing.T) {
	store := NewMemoryStore()
	builder := testBuilder(store)
	ctx := context.Background()

	job := testJob()
	candidate := testCandidate("candidate_1", "go", "kubernetes")
	edges := []types.MatchEdge{
		{CandidateID: "candidate_1", Skill: "go", Weight: 1.0, Mode: types.MatchExact},
		{CandidateID: "candidate_1", Skill: "kubernetes", Weight: 1.0, Mode: types.MatchAlias},
	}

	// Running the same job twice must produce the same graph state as once
	for i := 0; i < 2; i++ {
		require.NoError(t, builder.AddJob(ctx, job))
		require.NoError(t, builder.AddCandidate(ctx, job.JobID, candidate))
		require.NoError(t, builder.AddMatches(ctx, job.JobID, edges))
	}

	candidates, err := store.CandidatesFor(ctx, job.JobID)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	coverage, err := store.CoverageFor(ctx, job.JobID, "candidate_1")
	require.NoError(t, err)
	assert.Len(t, coverage.Matched, 2)
	assert.Len(t, coverage.Missing, 1)

	assert.Len(t, store.MatchesFor(job.JobID, "candidate_1"), 2)
}

func TestConcurrentCandidateWrites(t *testing.T) {
	store := NewMemoryStore()
	builder := testBuilder(store)
	ctx := context.Background()

	require.NoError(t, builder.AddJob(ctx, testJob()))

	// Writes for distinct candidates are commutative and concurrency safe
	var wg sync.WaitGroup
	ids := []string{"candidate_1", "candidate_2", "candidate_3", "candidate_4", "candidate_5"}
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, builder.AddCandidate(ctx, "job_abc12345", testCandidate(id, "go")))
		}(id)
	}
	wg.Wait()

	candidates, err := store.CandidatesFor(ctx, "job_abc12345")
	require.NoError(t, err)
	assert.Len(t, candidates, len(ids))
}

// failingStore fails a configured number of times before succeeding
type failingStore struct {
	*MemoryStore
	mu       sync.Mutex
	failures int
}

func (f *failingStore) UpsertCandidate(ctx context.Context, jobID string, profile types.CandidateProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return appErrors.NewGraphError(appErrors.ErrCodeGraphUnavailable, "store unavailable", nil)
	}
	return f.MemoryStore.UpsertCandidate(ctx, jobID, profile)
}

func TestBuilderRetriesTransientFailures(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failures: 2}
	builder := testBuilder(store)
	ctx := context.Background()

	require.NoError(t, builder.AddJob(ctx, testJob()))
	require.NoError(t, builder.AddCandidate(ctx, "job_abc12345", testCandidate("candidate_1", "go")))

	candidates, err := store.CandidatesFor(ctx, "job_abc12345")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestBuilderExhaustsRetries(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failures: 10}
	builder := testBuilder(store)
	ctx := context.Background()

	require.NoError(t, builder.AddJob(ctx, testJob()))

	err := builder.AddCandidate(ctx, "job_abc12345", testCandidate("candidate_1", "go"))
	require.Error(t, err)

	appErr, ok := err.(*appErrors.AppError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeGraphWriteFailed, appErr.Code)
}

func TestCoverageForUnknownJob(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CoverageFor(context.Background(), "job_missing", "candidate_1")
	require.Error(t, err)
}
