package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"cvsnap/internal/ai"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler provides a comprehensive health check endpoint including AI
// model and graph store status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "cvsnap",
		"version": s.Version,
	}

	// Check AI model availability for both extraction operations
	aiStatus := s.checkAIModelsHealth()
	response["ai_models"] = aiStatus

	// Check circuit breaker status
	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	// Check graph store connectivity
	graphStatus := s.checkGraphHealth()
	response["graph"] = graphStatus

	// Determine overall health status
	overallHealthy := true
	for _, modelStatus := range aiStatus {
		if modelInfo, ok := modelStatus.(*ai.ModelInfo); ok && !modelInfo.Available {
			overallHealthy = false
			break
		}
		if modelInfo, ok := modelStatus.(map[string]any); ok {
			if available, exists := modelInfo["available"]; exists {
				if avail, ok := available.(bool); ok && !avail {
					overallHealthy = false
					break
				}
			}
		}
	}

	if healthy, ok := graphStatus["healthy"].(bool); ok && !healthy {
		overallHealthy = false
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkAIModelsHealth checks the models behind both extraction operations
func (s *Server) checkAIModelsHealth() map[string]any {
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	aiStatus := make(map[string]any)

	operations := []struct {
		name    string
		service func() (*ai.Service, error)
	}{
		{"requirements", func() (*ai.Service, error) {
			cfg := s.AppConfig.GetRequirementsConfig()
			return ai.NewService(&cfg, "Requirements", s.Logger)
		}},
		{"candidate", func() (*ai.Service, error) {
			cfg := s.AppConfig.GetCandidateConfig()
			return ai.NewService(&cfg, "Candidate", s.Logger)
		}},
	}

	for _, op := range operations {
		service, err := op.service()
		if err != nil {
			aiStatus[op.name] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", op.name, err),
			}
			continue
		}
		aiStatus[op.name] = service.GetModelInfo(ctx)
	}

	return aiStatus
}

// checkCircuitBreakerHealth reports the circuit breaker state per operation
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	circuitBreakerStatus := make(map[string]any)

	operations := []struct {
		name    string
		service func() (*ai.Service, error)
	}{
		{"requirements", func() (*ai.Service, error) {
			cfg := s.AppConfig.GetRequirementsConfig()
			return ai.NewService(&cfg, "Requirements", s.Logger)
		}},
		{"candidate", func() (*ai.Service, error) {
			cfg := s.AppConfig.GetCandidateConfig()
			return ai.NewService(&cfg, "Candidate", s.Logger)
		}},
	}

	for _, op := range operations {
		service, err := op.service()
		if err != nil {
			circuitBreakerStatus[op.name] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", op.name, err),
			}
			continue
		}
		if oracle, ok := service.Oracle.(*ai.GeminiOracle); ok {
			circuitBreakerStatus[op.name] = oracle.GetCircuitBreakerStats()
		} else {
			circuitBreakerStatus[op.name] = map[string]any{"available": true}
		}
	}

	return circuitBreakerStatus
}

// checkGraphHealth pings the configured graph backend
func (s *Server) checkGraphHealth() map[string]any {
	graphStatus := map[string]any{
		"backend": s.AppConfig.Graph.Backend,
	}

	if s.GraphStore == nil {
		graphStatus["healthy"] = false
		graphStatus["error"] = "graph store not initialized"
		return graphStatus
	}

	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.GraphStore.Ping(ctx); err != nil {
		graphStatus["healthy"] = false
		graphStatus["error"] = err.Error()
		return graphStatus
	}

	graphStatus["healthy"] = true
	return graphStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "cvsnap",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"pipeline": map[string]any{
			"max_workers":    s.AppConfig.Pipeline.MaxWorkers,
			"max_resumes":    s.AppConfig.Pipeline.MaxResumes,
			"oracle_rpm":     s.AppConfig.Pipeline.OracleRPM,
			"top_candidates": s.AppConfig.Pipeline.TopCandidates,
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
