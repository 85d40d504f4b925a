// Package extract turns raw job and resume text into validated, normalized
// structured facts via the AI oracle.
package extract

import (
	"context"
	stderrors "errors"
	"strings"

	"cvsnap/internal/ai"
	"cvsnap/internal/errors"
	"cvsnap/internal/ontology"
	"cvsnap/internal/types"
)

// Failure reasons attached to per-file processing errors
const (
	ReasonSchemaViolation = "schema_violation"
	ReasonEmptyResponse   = "empty_response"
	ReasonTimeout         = "timeout"
)

// Extractor validates and normalizes oracle output. The oracle is the only
// component allowed to interpret free text; everything after it is
// deterministic.
type Extractor struct {
	requirements ai.Oracle
	candidate    ai.Oracle
	logger       *errors.Logger
}

// NewExtractor creates an extractor backed by per-operation oracles
func NewExtractor(requirements, candidate ai.Oracle, logger *errors.Logger) *Extractor {
	return &Extractor{
		requirements: requirements,
		candidate:    candidate,
		logger:       logger,
	}
}

// ExtractRequirements extracts the structured requirement set from a job
// description. Zero extracted requirements is a job-level fatal error.
func (e *Extractor) ExtractRequirements(ctx context.Context, jobID, jobText string) (types.JobRequirements, error) {
	if strings.TrimSpace(jobText) == "" {
		return types.JobRequirements{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job description text is empty", nil)
	}

	facts, _, err := e.requirements.ExtractJobRequirements(ctx, jobText)
	if err != nil {
		return types.JobRequirements{}, classifyOracleError(err, "job requirement extraction failed")
	}

	if facts.MinYears < 0 {
		return types.JobRequirements{}, errors.NewExtractionError(errors.ErrCodeSchemaViolation,
			"Oracle returned negative minimum experience years", nil)
	}

	job := types.JobRequirements{
		JobID:     jobID,
		Title:     strings.TrimSpace(facts.Title),
		Seniority: strings.TrimSpace(facts.Seniority),
		MinYears:  facts.MinYears,
	}

	seen := make(map[string]struct{})
	for _, raw := range facts.RequiredSkills {
		canonical := ontology.Normalize(raw)
		if canonical == "" {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		job.Requirements = append(job.Requirements, types.Requirement{
			Skill:      canonical,
			Importance: types.ImportanceRequired,
			MinYears:   facts.MinYears,
		})
	}
	for _, raw := range facts.PreferredSkills {
		canonical := ontology.Normalize(raw)
		if canonical == "" {
			continue
		}
		// A skill listed as both required and preferred stays required
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		job.Requirements = append(job.Requirements, types.Requirement{
			Skill:      canonical,
			Importance: types.ImportancePreferred,
		})
	}

	if len(job.Requirements) == 0 {
		return types.JobRequirements{}, errors.NewExtractionError(errors.ErrCodeNoRequirements,
			"No requirements could be extracted from the job description", nil)
	}

	e.logger.Debug("Extracted job requirements",
		"job_id", jobID,
		"title", job.Title,
		"requirements", len(job.Requirements),
		"required", job.RequiredCount())

	return job, nil
}

// ExtractCandidate extracts one candidate's structured profile from resume
// text. Failures surface as per-file processing errors upstream.
func (e *Extractor) ExtractCandidate(ctx context.Context, candidateID, resumeText, filename string) (types.CandidateProfile, error) {
	if strings.TrimSpace(resumeText) == "" {
		return types.CandidateProfile{}, errors.NewExtractionError(errors.ErrCodeEmptyResponse,
			"Resume text is empty after document parsing", nil).WithContext("filename", filename)
	}

	facts, _, err := e.candidate.ExtractCandidateProfile(ctx, resumeText)
	if err != nil {
		return types.CandidateProfile{}, classifyOracleError(err, "candidate extraction failed for "+filename)
	}

	if facts.YearsExperience < 0 {
		return types.CandidateProfile{}, errors.NewExtractionError(errors.ErrCodeSchemaViolation,
			"Oracle returned negative experience years", nil).WithContext("filename", filename)
	}
	if len(facts.Skills) == 0 {
		return types.CandidateProfile{}, errors.NewExtractionError(errors.ErrCodeSchemaViolation,
			"Oracle returned an empty skill list", nil).WithContext("filename", filename)
	}

	profile := types.CandidateProfile{
		CandidateID:     candidateID,
		Name:            strings.TrimSpace(facts.Name),
		Email:           strings.TrimSpace(facts.Email),
		SourceFile:      filename,
		ExperienceYears: facts.YearsExperience,
		Seniority:       strings.TrimSpace(facts.Seniority),
	}
	if profile.Name == "" {
		profile.Name = filename
	}

	// Deduplicate by canonical name keeping the highest confidence mention
	best := make(map[string]int)
	for _, raw := range facts.Skills {
		canonical := ontology.Normalize(raw)
		if canonical == "" {
			continue
		}
		mention := types.SkillMention{
			Skill:      canonical,
			Confidence: 1.0,
			Evidence:   strings.TrimSpace(raw),
		}
		if idx, dup := best[canonical]; dup {
			if mention.Confidence > profile.Skills[idx].Confidence {
				profile.Skills[idx] = mention
			}
			continue
		}
		best[canonical] = len(profile.Skills)
		profile.Skills = append(profile.Skills, mention)
	}

	if len(profile.Skills) == 0 {
		return types.CandidateProfile{}, errors.NewExtractionError(errors.ErrCodeSchemaViolation,
			"No usable skills after normalization", nil).WithContext("filename", filename)
	}

	e.logger.Debug("Extracted candidate profile",
		"candidate_id", candidateID,
		"filename", filename,
		"skills", len(profile.Skills),
		"years_experience", profile.ExperienceYears)

	return profile, nil
}

// classifyOracleError maps oracle failures onto the extraction failure
// taxonomy so that callers can build per-file processing errors.
func classifyOracleError(err error, message string) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewExtractionError(errors.ErrCodeAITimeout, message, err)
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Type == errors.ErrorTypeExtraction {
		return err
	}

	return errors.NewExtractionError(errors.ErrCodeSchemaViolation, message, err)
}

// FailureReason maps an extraction error to its report-facing reason string
func FailureReason(err error) string {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		switch appErr.Code {
		case errors.ErrCodeAITimeout:
			return ReasonTimeout
		case errors.ErrCodeEmptyResponse:
			return ReasonEmptyResponse
		}
	}
	return ReasonSchemaViolation
}
