package graph

import (
	"context"
	"fmt"

	"cvsnap/internal/config"
	"cvsnap/internal/errors"
	"cvsnap/internal/types"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStore implements Store over a Neo4j database using MERGE-based
// cypher, so every write is an idempotent upsert.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *errors.Logger
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore connects to Neo4j and verifies connectivity
func NewNeo4jStore(ctx context.Context, cfg config.GraphConfig, logger *errors.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.NewGraphError(errors.ErrCodeGraphUnavailable,
			"Failed to create Neo4j driver", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, errors.NewGraphError(errors.ErrCodeGraphUnavailable,
			"Failed to connect to Neo4j at "+cfg.URI, err)
	}

	logger.Info("Connected to Neo4j", "uri", cfg.URI, "database", cfg.Database)

	return &Neo4jStore{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

// run executes one write query against the configured database
func (s *Neo4jStore) run(ctx context.Context, query string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver, query, params,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return errors.NewGraphError(errors.ErrCodeGraphWriteFailed, "Neo4j query failed", err)
	}
	return nil
}

func (s *Neo4jStore) UpsertJob(ctx context.Context, job types.JobRequirements) error {
	return s.run(ctx, `
		MERGE (j:Job {id: $id})
		SET j.title = $title,
		    j.seniority = $seniority,
		    j.min_years = $minYears,
		    j.total_required = $totalRequired`,
		map[string]any{
			"id":            job.JobID,
			"title":         job.Title,
			"seniority":     job.Seniority,
			"minYears":      job.MinYears,
			"totalRequired": job.RequiredCount(),
		})
}

func (s *Neo4jStore) UpsertCandidate(ctx context.Context, jobID string, profile types.CandidateProfile) error {
	return s.run(ctx, `
		MATCH (j:Job {id: $jobID})
		MERGE (c:Candidate {id: $id})
		SET c.name = $name,
		    c.email = $email,
		    c.source_file = $sourceFile,
		    c.experience_years = $experienceYears,
		    c.seniority = $seniority
		MERGE (c)-[:APPLIED_TO]->(j)`,
		map[string]any{
			"jobID":           jobID,
			"id":              profile.CandidateID,
			"name":            profile.Name,
			"email":           profile.Email,
			"sourceFile":      profile.SourceFile,
			"experienceYears": profile.ExperienceYears,
			"seniority":       profile.Seniority,
		})
}

func (s *Neo4jStore) UpsertSkill(ctx context.Context, name string) error {
	return s.run(ctx, `MERGE (:Skill {name: $name})`, map[string]any{"name": name})
}

func (s *Neo4jStore) LinkRequirement(ctx context.Context, jobID string, req types.Requirement) error {
	return s.run(ctx, `
		MATCH (j:Job {id: $jobID})
		MATCH (s:Skill {name: $skill})
		MERGE (j)-[r:REQUIRES]->(s)
		SET r.importance = $importance,
		    r.min_years = $minYears`,
		map[string]any{
			"jobID":      jobID,
			"skill":      req.Skill,
			"importance": string(req.Importance),
			"minYears":   req.MinYears,
		})
}

func (s *Neo4jStore) LinkCandidateSkill(ctx context.Context, jobID, candidateID string, mention types.SkillMention) error {
	return s.run(ctx, `
		MATCH (c:Candidate {id: $candidateID})
		MATCH (s:Skill {name: $skill})
		MERGE (c)-[h:HAS_SKILL]->(s)
		SET h.confidence = $confidence,
		    h.evidence = $evidence`,
		map[string]any{
			"candidateID": candidateID,
			"skill":       mention.Skill,
			"confidence":  mention.Confidence,
			"evidence":    mention.Evidence,
		})
}

func (s *Neo4jStore) LinkMatch(ctx context.Context, jobID string, edge types.MatchEdge) error {
	return s.run(ctx, `
		MATCH (c:Candidate {id: $candidateID})
		MATCH (j:Job {id: $jobID})-[:REQUIRES]->(s:Skill {name: $skill})
		MERGE (c)-[m:MATCHES {job_id: $jobID}]->(s)
		SET m.weight = $weight,
		    m.mode = $mode`,
		map[string]any{
			"candidateID": edge.CandidateID,
			"jobID":       jobID,
			"skill":       edge.Skill,
			"weight":      edge.Weight,
			"mode":        string(edge.Mode),
		})
}

func (s *Neo4jStore) CoverageFor(ctx context.Context, jobID, candidateID string) (types.Coverage, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, `
		MATCH (j:Job {id: $jobID})-[r:REQUIRES]->(s:Skill)
		OPTIONAL MATCH (c:Candidate {id: $candidateID})-[:HAS_SKILL]->(s)
		RETURN s.name AS skill, r.importance AS importance, r.min_years AS minYears,
		       c IS NOT NULL AS matched
		ORDER BY s.name`,
		map[string]any{"jobID": jobID, "candidateID": candidateID},
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return types.Coverage{}, errors.NewGraphError(errors.ErrCodeGraphWriteFailed,
			"Coverage query failed", err)
	}

	var coverage types.Coverage
	for _, record := range result.Records {
		skill, _ := record.Get("skill")
		importance, _ := record.Get("importance")
		minYears, _ := record.Get("minYears")
		matched, _ := record.Get("matched")

		req := types.Requirement{
			Skill:      fmt.Sprintf("%v", skill),
			Importance: types.SkillImportance(fmt.Sprintf("%v", importance)),
		}
		if years, ok := minYears.(float64); ok {
			req.MinYears = years
		}

		if isMatch, _ := matched.(bool); isMatch {
			coverage.Matched = append(coverage.Matched, req)
		} else {
			coverage.Missing = append(coverage.Missing, req)
		}
	}

	return coverage, nil
}

func (s *Neo4jStore) CandidatesFor(ctx context.Context, jobID string) ([]types.CandidateProfile, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, `
		MATCH (c:Candidate)-[:APPLIED_TO]->(:Job {id: $jobID})
		OPTIONAL MATCH (c)-[h:HAS_SKILL]->(s:Skill)
		RETURN c.id AS id, c.name AS name, c.email AS email,
		       c.source_file AS sourceFile, c.experience_years AS experienceYears,
		       c.seniority AS seniority,
		       collect({skill: s.name, confidence: h.confidence, evidence: h.evidence}) AS skills
		ORDER BY c.id`,
		map[string]any{"jobID": jobID},
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return nil, errors.NewGraphError(errors.ErrCodeGraphWriteFailed,
			"Candidate query failed", err)
	}

	profiles := make([]types.CandidateProfile, 0, len(result.Records))
	for _, record := range result.Records {
		profile := types.CandidateProfile{}
		if v, ok := record.Get("id"); ok {
			profile.CandidateID, _ = v.(string)
		}
		if v, ok := record.Get("name"); ok {
			profile.Name, _ = v.(string)
		}
		if v, ok := record.Get("email"); ok {
			profile.Email, _ = v.(string)
		}
		if v, ok := record.Get("sourceFile"); ok {
			profile.SourceFile, _ = v.(string)
		}
		if v, ok := record.Get("experienceYears"); ok {
			profile.ExperienceYears, _ = v.(float64)
		}
		if v, ok := record.Get("seniority"); ok {
			profile.Seniority, _ = v.(string)
		}
		if v, ok := record.Get("skills"); ok {
			if raw, ok := v.([]any); ok {
				for _, entry := range raw {
					fields, ok := entry.(map[string]any)
					if !ok {
						continue
					}
					name, _ := fields["skill"].(string)
					if name == "" {
						continue
					}
					mention := types.SkillMention{Skill: name}
					mention.Confidence, _ = fields["confidence"].(float64)
					mention.Evidence, _ = fields["evidence"].(string)
					profile.Skills = append(profile.Skills, mention)
				}
			}
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

func (s *Neo4jStore) EnsureIndexes(ctx context.Context) error {
	statements := []string{
		`CREATE CONSTRAINT job_id IF NOT EXISTS FOR (j:Job) REQUIRE j.id IS UNIQUE`,
		`CREATE CONSTRAINT candidate_id IF NOT EXISTS FOR (c:Candidate) REQUIRE c.id IS UNIQUE`,
		`CREATE CONSTRAINT skill_name IF NOT EXISTS FOR (s:Skill) REQUIRE s.name IS UNIQUE`,
	}
	for _, stmt := range statements {
		if err := s.run(ctx, stmt, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return errors.NewGraphError(errors.ErrCodeGraphUnavailable, "Neo4j is unreachable", err)
	}
	return nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
