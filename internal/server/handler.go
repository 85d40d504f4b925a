package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"cvsnap/internal/docparse"
	cvsnapErrors "cvsnap/internal/errors"
	"cvsnap/internal/observability"
	"cvsnap/internal/pipeline"
	"cvsnap/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// Multipart form field names for the analyze endpoint
const (
	fieldJobDescription = "job_description"
	fieldResumes        = "resumes"
)

// createAnalyzeHandler wraps the analysis pipeline with observability
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvsnap.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		jobText, resumes, err := s.parseAnalyzeRequest(r)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid analyze request", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(jobText)),
			attribute.Int("request.resume_count", len(resumes)),
			attribute.String("operation", "analyze"),
		)

		metrics := om.GetMetrics()
		report, err := s.Analyzer.AnalyzeJob(ctx, jobText, resumes)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "analysis"))
			metrics.RecordJobAnalyzed(ctx, false, om)
			writeErrorResponse(w, "Failed to analyze resumes", err.Error(), analysisErrorStatus(err))
			return
		}

		// Record success metrics
		metrics.RecordJobAnalyzed(ctx, true, om)
		metrics.RecordResumesScreened(ctx,
			int64(report.SuccessfullyProcessed),
			int64(len(report.ProcessingErrors)), om)
		for _, candidate := range report.RankedCandidates {
			metrics.RecordMatchScore(ctx, candidate.MatchScore, om)
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("job.id", report.JobID),
			attribute.Int("response.ranked_count", len(report.RankedCandidates)),
			attribute.Int("response.error_count", len(report.ProcessingErrors)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// parseAnalyzeRequest reads the multipart form: one job description (field
// or file part) and one or more resume files
func (s *Server) parseAnalyzeRequest(r *http.Request) (string, []pipeline.ResumeFile, error) {
	if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
		return "", nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	jobText := strings.TrimSpace(r.FormValue(fieldJobDescription))
	if jobText == "" {
		// Accept the job description as an uploaded file too
		if file, _, err := r.FormFile(fieldJobDescription); err == nil {
			content, readErr := io.ReadAll(file)
			closeMultipartFile(file, s.Logger)
			if readErr != nil {
				return "", nil, fmt.Errorf("failed to read job description file: %w", readErr)
			}
			jobText = strings.TrimSpace(string(content))
		}
	}
	if jobText == "" {
		return "", nil, fmt.Errorf("%s field is required", fieldJobDescription)
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File[fieldResumes]) == 0 {
		return "", nil, fmt.Errorf("at least one %s file is required", fieldResumes)
	}

	var resumes []pipeline.ResumeFile
	for _, header := range r.MultipartForm.File[fieldResumes] {
		file, err := header.Open()
		if err != nil {
			return "", nil, fmt.Errorf("failed to open resume %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(file)
		closeMultipartFile(file, s.Logger)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read resume %s: %w", header.Filename, err)
		}

		s.Logger.Debug("Received resume upload",
			"filename", header.Filename,
			"size", utils.FormatFileSize(int64(len(data))))

		resumes = append(resumes, pipeline.ResumeFile{
			Filename: header.Filename,
			MIMEType: docparse.DetectMIMEType(header.Filename),
			Data:     data,
		})
	}

	return jobText, resumes, nil
}

func closeMultipartFile(file multipart.File, logger *cvsnapErrors.Logger) {
	if err := file.Close(); err != nil && logger != nil {
		logger.Warn("Failed to close multipart file", "error", err)
	}
}

// analysisErrorStatus maps pipeline failures to HTTP status codes
func analysisErrorStatus(err error) int {
	var appErr *cvsnapErrors.AppError
	if stderrors.As(err, &appErr) {
		switch appErr.Type {
		case cvsnapErrors.ErrorTypeValidation:
			return http.StatusBadRequest
		case cvsnapErrors.ErrorTypeExtraction:
			return http.StatusUnprocessableEntity
		case cvsnapErrors.ErrorTypeGraph:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}

// createCandidatesHandler serves the stored candidates for a past job
func (s *Server) createCandidatesHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvsnap.api")
		ctx, span := tracer.Start(ctx, "api.candidates")
		defer span.End()

		jobID := r.PathValue("id")
		if jobID == "" {
			writeErrorResponse(w, "Missing job id", "job id path segment is required", http.StatusBadRequest)
			return
		}
		span.SetAttributes(attribute.String("job.id", jobID))

		candidates, err := s.GraphStore.CandidatesFor(ctx, jobID)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Failed to load candidates", err.Error(), http.StatusNotFound)
			return
		}

		response := map[string]any{
			"job_id":     jobID,
			"candidates": candidates,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordRateLimitHit(r.Context(), om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
