// Package graph relates jobs, candidates and skills in a knowledge graph.
// All writes are idempotent upserts keyed by natural identifiers so a job
// can be re-run without duplicating graph state.
package graph

import (
	"context"
	"fmt"
	"math"
	"time"

	"cvsnap/internal/config"
	"cvsnap/internal/errors"
	"cvsnap/internal/types"
)

// Store is the capability interface over the graph backend. Writes for
// distinct candidates are commutative and safe to issue concurrently.
type Store interface {
	// UpsertJob stores the job node keyed by job id
	UpsertJob(ctx context.Context, job types.JobRequirements) error
	// UpsertCandidate stores a candidate node keyed by (job id, candidate id)
	UpsertCandidate(ctx context.Context, jobID string, profile types.CandidateProfile) error
	// UpsertSkill stores a skill node keyed by canonical name, shared across jobs
	UpsertSkill(ctx context.Context, name string) error
	// LinkRequirement relates a job to a skill it asks for
	LinkRequirement(ctx context.Context, jobID string, req types.Requirement) error
	// LinkCandidateSkill relates a candidate to a skill it evidences
	LinkCandidateSkill(ctx context.Context, jobID, candidateID string, mention types.SkillMention) error
	// LinkMatch relates a candidate to a requirement it covers; rerunning
	// a job overwrites the edge rather than duplicating it
	LinkMatch(ctx context.Context, jobID string, edge types.MatchEdge) error
	// CoverageFor computes matched/missing requirements for one candidate
	// by canonical-name set intersection
	CoverageFor(ctx context.Context, jobID, candidateID string) (types.Coverage, error)
	// CandidatesFor returns all stored candidates for a job
	CandidatesFor(ctx context.Context, jobID string) ([]types.CandidateProfile, error)
	// EnsureIndexes creates the backend's uniqueness indexes if missing
	EnsureIndexes(ctx context.Context) error
	// Ping verifies backend connectivity for health checks
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewStore builds the configured graph backend
func NewStore(ctx context.Context, cfg config.GraphConfig, logger *errors.Logger) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "neo4j":
		return NewNeo4jStore(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported graph backend: %s", cfg.Backend), nil)
	}
}

// Builder writes one job's entities and edges through the store with
// bounded retry. Exhausting retries fails that candidate only.
type Builder struct {
	store      Store
	maxRetries int
	baseDelay  time.Duration
	logger     *errors.Logger
}

// NewBuilder creates a graph builder over a store
func NewBuilder(store Store, cfg config.GraphConfig, logger *errors.Logger) *Builder {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &Builder{
		store:      store,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Store exposes the underlying store for reads
func (b *Builder) Store() Store {
	return b.store
}

// AddJob upserts the job node, its requirement skills and the requirement
// edges. Called once per analysis before any candidate task starts.
func (b *Builder) AddJob(ctx context.Context, job types.JobRequirements) error {
	if err := b.withRetry(ctx, "upsert_job", func() error {
		return b.store.UpsertJob(ctx, job)
	}); err != nil {
		return err
	}

	for _, req := range job.Requirements {
		req := req
		if err := b.withRetry(ctx, "link_requirement", func() error {
			if err := b.store.UpsertSkill(ctx, req.Skill); err != nil {
				return err
			}
			return b.store.LinkRequirement(ctx, job.JobID, req)
		}); err != nil {
			return err
		}
	}

	return nil
}

// AddCandidate upserts one candidate node with its skill nodes and edges.
// Independent candidates may be added concurrently.
func (b *Builder) AddCandidate(ctx context.Context, jobID string, profile types.CandidateProfile) error {
	if err := b.withRetry(ctx, "upsert_candidate", func() error {
		return b.store.UpsertCandidate(ctx, jobID, profile)
	}); err != nil {
		return err
	}

	for _, mention := range profile.Skills {
		mention := mention
		if err := b.withRetry(ctx, "link_candidate_skill", func() error {
			if err := b.store.UpsertSkill(ctx, mention.Skill); err != nil {
				return err
			}
			return b.store.LinkCandidateSkill(ctx, jobID, profile.CandidateID, mention)
		}); err != nil {
			return err
		}
	}

	return nil
}

// AddMatches records the computed match edges for one candidate
func (b *Builder) AddMatches(ctx context.Context, jobID string, edges []types.MatchEdge) error {
	for _, edge := range edges {
		edge := edge
		if err := b.withRetry(ctx, "link_match", func() error {
			return b.store.LinkMatch(ctx, jobID, edge)
		}); err != nil {
			return err
		}
	}
	return nil
}

// withRetry runs one graph write with bounded exponential backoff
func (b *Builder) withRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			b.logger.Warn("Retrying graph write",
				"operation", operation,
				"attempt", attempt,
				"max_retries", b.maxRetries,
				"error", lastErr.Error())

			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * b.baseDelay
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return errors.NewGraphError(errors.ErrCodeGraphWriteFailed,
		fmt.Sprintf("Graph write '%s' failed after %d retries", operation, b.maxRetries), lastErr)
}
