package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cvsnap/internal/errors"
	"cvsnap/internal/types"
)

// MemoryStore is an in-process adjacency-map implementation of Store.
// It backs the test suite and local development without a graph database.
type MemoryStore struct {
	mu sync.RWMutex

	jobs            map[string]types.JobRequirements
	skills          map[string]struct{}
	requirements    map[string]map[string]types.Requirement            // jobID -> skill -> requirement
	candidates      map[string]map[string]types.CandidateProfile       // jobID -> candidateID -> profile
	candidateSkills map[string]map[string]map[string]types.SkillMention // jobID -> candidateID -> skill -> mention
	matches         map[string]map[string]map[string]types.MatchEdge   // jobID -> candidateID -> skill -> edge
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory graph store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:            make(map[string]types.JobRequirements),
		skills:          make(map[string]struct{}),
		requirements:    make(map[string]map[string]types.Requirement),
		candidates:      make(map[string]map[string]types.CandidateProfile),
		candidateSkills: make(map[string]map[string]map[string]types.SkillMention),
		matches:         make(map[string]map[string]map[string]types.MatchEdge),
	}
}

func (m *MemoryStore) UpsertJob(ctx context.Context, job types.JobRequirements) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs[job.JobID] = job
	if m.requirements[job.JobID] == nil {
		m.requirements[job.JobID] = make(map[string]types.Requirement)
	}
	return nil
}

func (m *MemoryStore) UpsertCandidate(ctx context.Context, jobID string, profile types.CandidateProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.candidates[jobID] == nil {
		m.candidates[jobID] = make(map[string]types.CandidateProfile)
	}
	m.candidates[jobID][profile.CandidateID] = profile
	return nil
}

func (m *MemoryStore) UpsertSkill(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.skills[name] = struct{}{}
	return nil
}

func (m *MemoryStore) LinkRequirement(ctx context.Context, jobID string, req types.Requirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.requirements[jobID] == nil {
		m.requirements[jobID] = make(map[string]types.Requirement)
	}
	m.requirements[jobID][req.Skill] = req
	return nil
}

func (m *MemoryStore) LinkCandidateSkill(ctx context.Context, jobID, candidateID string, mention types.SkillMention) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.candidateSkills[jobID] == nil {
		m.candidateSkills[jobID] = make(map[string]map[string]types.SkillMention)
	}
	if m.candidateSkills[jobID][candidateID] == nil {
		m.candidateSkills[jobID][candidateID] = make(map[string]types.SkillMention)
	}
	m.candidateSkills[jobID][candidateID][mention.Skill] = mention
	return nil
}

func (m *MemoryStore) LinkMatch(ctx context.Context, jobID string, edge types.MatchEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.matches[jobID] == nil {
		m.matches[jobID] = make(map[string]map[string]types.MatchEdge)
	}
	if m.matches[jobID][edge.CandidateID] == nil {
		m.matches[jobID][edge.CandidateID] = make(map[string]types.MatchEdge)
	}
	m.matches[jobID][edge.CandidateID][edge.Skill] = edge
	return nil
}

func (m *MemoryStore) CoverageFor(ctx context.Context, jobID, candidateID string) (types.Coverage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reqs, ok := m.requirements[jobID]
	if !ok {
		return types.Coverage{}, errors.NewGraphError(errors.ErrCodeGraphWriteFailed,
			fmt.Sprintf("Unknown job: %s", jobID), nil)
	}

	candidateSkills := m.candidateSkills[jobID][candidateID]

	var coverage types.Coverage
	for _, req := range reqs {
		if _, has := candidateSkills[req.Skill]; has {
			coverage.Matched = append(coverage.Matched, req)
		} else {
			coverage.Missing = append(coverage.Missing, req)
		}
	}

	// Deterministic order for scoring and explanations
	sort.Slice(coverage.Matched, func(i, j int) bool { return coverage.Matched[i].Skill < coverage.Matched[j].Skill })
	sort.Slice(coverage.Missing, func(i, j int) bool { return coverage.Missing[i].Skill < coverage.Missing[j].Skill })

	return coverage, nil
}

func (m *MemoryStore) CandidatesFor(ctx context.Context, jobID string) ([]types.CandidateProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profiles := make([]types.CandidateProfile, 0, len(m.candidates[jobID]))
	for _, profile := range m.candidates[jobID] {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].CandidateID < profiles[j].CandidateID })
	return profiles, nil
}

func (m *MemoryStore) EnsureIndexes(ctx context.Context) error {
	// Map keys are the indexes
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// MatchesFor returns the stored match edges for one candidate, used by tests
// to verify idempotence of rewrites.
func (m *MemoryStore) MatchesFor(jobID, candidateID string) []types.MatchEdge {
	m.mu.RLock()
	defer m.mu.RUnlock()

	edges := make([]types.MatchEdge, 0, len(m.matches[jobID][candidateID]))
	for _, edge := range m.matches[jobID][candidateID] {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Skill < edges[j].Skill })
	return edges
}
