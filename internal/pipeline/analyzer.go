// Package pipeline orchestrates one analysis job end to end: requirement
// extraction, bounded parallel resume processing, graph writes, scoring
// and ranking.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cvsnap/internal/config"
	"cvsnap/internal/docparse"
	"cvsnap/internal/errors"
	"cvsnap/internal/extract"
	"cvsnap/internal/graph"
	"cvsnap/internal/match"
	"cvsnap/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Error kinds attached to per-file processing errors
const (
	errKindDocumentParse = "document_parse"
	errKindGraphWrite    = "graph_write"
)

// ResumeFile is one uploaded resume awaiting analysis
type ResumeFile struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Analyzer runs analysis jobs. Each dependency is passed in explicitly at
// construction; there is no ambient global state shared between jobs.
type Analyzer struct {
	extractor *extract.Extractor
	builder   *graph.Builder
	scorer    *match.Scorer
	limiter   *rate.Limiter
	cfg       config.PipelineConfig
	logger    *errors.Logger
}

// NewAnalyzer creates an analyzer over the given collaborators. The rate
// limiter throttles oracle calls across all of a job's worker tasks.
func NewAnalyzer(extractor *extract.Extractor, builder *graph.Builder, scorer *match.Scorer, cfg config.PipelineConfig, logger *errors.Logger) *Analyzer {
	rpm := cfg.OracleRPM
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.OracleBurst
	if burst <= 0 {
		burst = 1
	}

	return &Analyzer{
		extractor: extractor,
		builder:   builder,
		scorer:    scorer,
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
		cfg:       cfg,
		logger:    logger,
	}
}

// AnalyzeJob screens a set of resumes against one job description and
// assembles the ranked report. Per-file failures are isolated as
// processing errors; only requirement extraction and an unreachable graph
// store abort the whole job.
func (a *Analyzer) AnalyzeJob(ctx context.Context, jobText string, resumes []ResumeFile) (*types.MatchReport, error) {
	start := time.Now()

	tracer := otel.Tracer("cvsnap.pipeline")
	ctx, span := tracer.Start(ctx, "analyze_job")
	defer span.End()

	if len(resumes) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"At least one resume is required", nil)
	}
	if len(resumes) > a.cfg.MaxResumes {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Too many resumes: %d (maximum %d)", len(resumes), a.cfg.MaxResumes), nil)
	}

	jobID := newJobID()
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.Int("job.resumes", len(resumes)),
	)

	// Requirement extraction failures are job-level fatal
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	job, err := a.extractor.ExtractRequirements(ctx, jobID, jobText)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// An unreachable store at job start aborts the analysis as a whole
	if err := a.builder.AddJob(ctx, job); err != nil {
		span.RecordError(err)
		return nil, err
	}

	scored, procErrors := a.processResumes(ctx, job, resumes)

	// Final ranking happens only after all candidate tasks completed or
	// definitively failed; partial results are never ranked.
	ranked := match.Rank(scored)
	if len(ranked) > a.cfg.TopCandidates {
		ranked = ranked[:a.cfg.TopCandidates]
	}

	report := &types.MatchReport{
		JobID: jobID,
		JobInfo: types.JobInfo{
			Title:               job.Title,
			TotalRequiredSkills: job.RequiredCount(),
			ExperienceLevel:     job.Seniority,
		},
		TotalResumes:          len(resumes),
		SuccessfullyProcessed: len(scored),
		ProcessingErrors:      procErrors,
		ProcessingTime:        time.Since(start).Seconds(),
	}
	for _, entry := range ranked {
		report.RankedCandidates = append(report.RankedCandidates, types.RankedCandidate{
			CandidateID:         entry.Profile.CandidateID,
			Name:                entry.Profile.Name,
			Email:               entry.Profile.Email,
			MatchScore:          entry.Breakdown.FinalScore,
			SkillCoverage:       entry.Breakdown.SkillCoveragePct,
			MatchedSkills:       matchedSkillNames(entry.Coverage),
			TotalRequiredSkills: entry.Breakdown.TotalRequired,
			Explanation:         match.Explain(job, entry.Profile, entry.Coverage, entry.Breakdown),
		})
	}

	span.SetAttributes(
		attribute.Int("job.successful", report.SuccessfullyProcessed),
		attribute.Int("job.errors", len(report.ProcessingErrors)),
	)

	a.logger.Info("Analysis job completed",
		"job_id", jobID,
		"total_resumes", report.TotalResumes,
		"successful", report.SuccessfullyProcessed,
		"errors", len(report.ProcessingErrors),
		"duration_seconds", report.ProcessingTime)

	return report, nil
}

// processResumes fans resume tasks out over a bounded worker group. Each
// task is independent: it produces its own profile and a disjoint set of
// graph writes, so no lock is held across oracle or store calls.
func (a *Analyzer) processResumes(ctx context.Context, job types.JobRequirements, resumes []ResumeFile) ([]match.Scored, []types.ProcessingError) {
	var (
		mu         sync.Mutex
		scored     []match.Scored
		procErrors []types.ProcessingError
	)

	recordError := func(filename, kind string, err error) {
		mu.Lock()
		defer mu.Unlock()
		procErrors = append(procErrors, types.ProcessingError{
			Filename: filename,
			Kind:     kind,
			Error:    err.Error(),
		})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxWorkers)

	for i, resume := range resumes {
		i, resume := i, resume
		g.Go(func() error {
			// Cancellation abandons the remaining tasks; already-written
			// graph entries stay and an idempotent retry is safe.
			if ctx.Err() != nil {
				return nil
			}

			entry, err := a.processOne(ctx, job, resume, i)
			if err != nil {
				kind := classifyTaskError(err)
				recordError(resume.Filename, kind, err)
				a.logger.Warn("Resume processing failed",
					"job_id", job.JobID,
					"filename", resume.Filename,
					"kind", kind,
					"error", err.Error())
				return nil
			}

			mu.Lock()
			scored = append(scored, *entry)
			mu.Unlock()
			return nil
		})
	}

	// Worker funcs never return errors; Wait is for completion only
	_ = g.Wait()

	return scored, procErrors
}

// processOne runs the full per-resume task: parse, extract, graph writes,
// score. Oracle and store calls are the only blocking points.
func (a *Analyzer) processOne(ctx context.Context, job types.JobRequirements, resume ResumeFile, index int) (*match.Scored, error) {
	taskCtx := ctx
	if a.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, a.cfg.TaskTimeout)
		defer cancel()
	}

	text, err := docparse.ExtractText(resume.MIMEType, resume.Data)
	if err != nil {
		return nil, err
	}

	if err := a.limiter.Wait(taskCtx); err != nil {
		return nil, err
	}

	candidateID := newCandidateID(index)
	profile, err := a.extractor.ExtractCandidate(taskCtx, candidateID, text, resume.Filename)
	if err != nil {
		return nil, err
	}

	if err := a.builder.AddCandidate(taskCtx, job.JobID, profile); err != nil {
		return nil, err
	}

	coverage, err := a.builder.Store().CoverageFor(taskCtx, job.JobID, profile.CandidateID)
	if err != nil {
		return nil, err
	}

	breakdown := a.scorer.Score(job, profile, coverage)

	edges := a.scorer.MatchEdges(job, profile, coverage)
	if err := a.builder.AddMatches(taskCtx, job.JobID, edges); err != nil {
		return nil, err
	}

	return &match.Scored{
		Profile:   profile,
		Coverage:  coverage,
		Breakdown: breakdown,
	}, nil
}

// classifyTaskError maps a per-resume failure to its report-facing kind
func classifyTaskError(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		switch appErr.Type {
		case errors.ErrorTypeIO:
			return errKindDocumentParse
		case errors.ErrorTypeGraph:
			return errKindGraphWrite
		case errors.ErrorTypeExtraction:
			return extract.FailureReason(err)
		}
	}
	return extract.FailureReason(err)
}

// matchedSkillNames flattens a coverage's matched requirements to names
func matchedSkillNames(coverage types.Coverage) []string {
	names := make([]string, 0, len(coverage.Matched))
	for _, req := range coverage.Matched {
		names = append(names, req.Skill)
	}
	return names
}

// newJobID mints a short job identifier like job_1a2b3c4d
func newJobID() string {
	return "job_" + shortID()
}

// newCandidateID mints identifiers like candidate_1a2b3c4d_0 tied to the
// resume's position in the upload
func newCandidateID(index int) string {
	return fmt.Sprintf("candidate_%s_%d", shortID(), index)
}

func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
