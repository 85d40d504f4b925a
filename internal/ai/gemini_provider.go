package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"cvsnap/internal/config"
	cvsnapErrors "cvsnap/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiOracle implements Oracle for Google Gemini
type GeminiOracle struct {
	client       *genai.Client
	httpClient   *http.Client
	config       *config.OperationAIConfig
	breaker      *Breaker[*genai.GenerateContentResponse]
	modelBreaker *Breaker[*genai.Model]
	logger       *cvsnapErrors.Logger
}

// Ensure GeminiOracle implements Oracle
var _ Oracle = (*GeminiOracle)(nil)

// NewGeminiOracle creates a new Gemini oracle instance for a specific operation
func NewGeminiOracle(cfg *config.OperationAIConfig, operationType string, logger *cvsnapErrors.Logger) (*GeminiOracle, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, cvsnapErrors.NewAIError(cvsnapErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiOracle{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:       cfg,
		breaker:      NewBreaker[*genai.GenerateContentResponse](operationType, cfg, logger),
		modelBreaker: NewBreaker[*genai.Model]("Model-"+operationType, cfg, logger),
		logger:       logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiOracle) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	return modelInfo
}

// executeWithRetry executes an oracle call with retry logic and exponential backoff
func (g *GeminiOracle) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying oracle operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("Oracle operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "Oracle operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiOracle) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		// Timeouts and connection failures are both worth retrying
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// executeOracleOperation is a generic helper to run oracle calls with common tracing, circuit breaker, and parsing logic.
func executeOracleOperation[Out any](
	g *GeminiOracle,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("cvsnap.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, cvsnapErrors.NewAIError(cvsnapErrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	if result.Text() == "" {
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, cvsnapErrors.NewExtractionError(cvsnapErrors.ErrCodeEmptyResponse, "Oracle returned an empty response for "+operationName, nil)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, cvsnapErrors.NewExtractionError(cvsnapErrors.ErrCodeSchemaViolation, "Failed to parse oracle response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// ExtractJobRequirements implements Oracle for job description analysis
func (g *GeminiOracle) ExtractJobRequirements(ctx context.Context, jobText string) (JobFacts, *TokenUsage, error) {
	systemPrompt := resolvePrompt(g.config.CustomPrompts.SystemPrompts.ExtractRequirements, DefaultSystemPrompts.ExtractRequirements)
	userPrompt := fmt.Sprintf(resolvePrompt(g.config.CustomPrompts.UserPrompts.ExtractRequirements, DefaultUserPrompts.ExtractRequirements), jobText)

	output, tokenUsage, err := executeOracleOperation[JobFacts](
		g,
		ctx,
		"extract_requirements",
		userPrompt,
		systemPrompt,
		g.buildRequirementsSchema(),
		attribute.Int("input.job_length", len(jobText)),
	)

	if err != nil {
		return JobFacts{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.required_skills", len(output.RequiredSkills)),
			attribute.Int("output.preferred_skills", len(output.PreferredSkills)),
		)
	}

	return output, tokenUsage, nil
}

// ExtractCandidateProfile implements Oracle for resume analysis
func (g *GeminiOracle) ExtractCandidateProfile(ctx context.Context, resumeText string) (CandidateFacts, *TokenUsage, error) {
	systemPrompt := resolvePrompt(g.config.CustomPrompts.SystemPrompts.ExtractCandidate, DefaultSystemPrompts.ExtractCandidate)
	userPrompt := fmt.Sprintf(resolvePrompt(g.config.CustomPrompts.UserPrompts.ExtractCandidate, DefaultUserPrompts.ExtractCandidate), resumeText)

	output, tokenUsage, err := executeOracleOperation[CandidateFacts](
		g,
		ctx,
		"extract_candidate",
		userPrompt,
		systemPrompt,
		g.buildCandidateSchema(),
		attribute.Int("input.resume_length", len(resumeText)),
	)

	if err != nil {
		return CandidateFacts{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.skills", len(output.Skills)),
			attribute.Float64("output.years_experience", output.YearsExperience),
		)
	}

	return output, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiOracle) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"oracle_operations": g.breaker.GetStats(),
		"model_operations":  g.modelBreaker.GetStats(),
	}

	// Overall health - both breakers must be healthy
	stats["overall_healthy"] = g.breaker.IsHealthy() && g.modelBreaker.IsHealthy()

	return stats
}

// Close implements Oracle
func (g *GeminiOracle) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// buildRequirementsSchema creates the structured output schema for job requirement extraction
func (g *GeminiOracle) buildRequirementsSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": {Type: genai.TypeString},
				"required_skills": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"preferred_skills": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"seniority": {Type: genai.TypeString},
				"min_years": {Type: genai.TypeNumber},
			},
			Required: []string{"title", "required_skills", "preferred_skills", "seniority", "min_years"},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// buildCandidateSchema creates the structured output schema for candidate extraction
func (g *GeminiOracle) buildCandidateSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":  {Type: genai.TypeString},
				"email": {Type: genai.TypeString},
				"skills": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"years_experience": {Type: genai.TypeNumber},
				"seniority":        {Type: genai.TypeString},
			},
			Required: []string{"name", "email", "skills", "years_experience", "seniority"},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// resolvePrompt prefers a prompt from configuration over the hardcoded default
func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
