package ai

import (
	"testing"
	"time"

	"cvsnap/internal/config"

	"google.golang.org/genai"
)

func TestIndependentBreakerConfigurations(t *testing.T) {
	// Each extraction operation gets its own circuit breaker configuration

	requirementsConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	candidateConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          45 * time.Second,
			MinRequests:      5,
			FailureThreshold: 0.7,
		},
	}

	requirementsCB := NewBreaker[*genai.GenerateContentResponse]("Requirements", requirementsConfig, nil)
	candidateCB := NewBreaker[*genai.GenerateContentResponse]("Candidate", candidateConfig, nil)

	t.Run("RequirementsBreaker", func(t *testing.T) {
		stats := requirementsCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}
		if name != "AI-Requirements" {
			t.Errorf("Expected circuit breaker name 'AI-Requirements', got '%s'", name)
		}

		state, ok := stats["state"].(string)
		if !ok {
			t.Fatal("Circuit breaker state not found")
		}
		if state != "closed" {
			t.Errorf("Expected initial state 'closed', got '%s'", state)
		}

		enabled, ok := stats["enabled"].(bool)
		if !ok {
			t.Fatal("Circuit breaker enabled status not found")
		}
		if !enabled {
			t.Error("Circuit breaker should be enabled")
		}
	})

	t.Run("CandidateBreaker", func(t *testing.T) {
		stats := candidateCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}
		if name != "AI-Candidate" {
			t.Errorf("Expected circuit breaker name 'AI-Candidate', got '%s'", name)
		}
	})

	t.Run("IndependentInstances", func(t *testing.T) {
		if requirementsCB == candidateCB {
			t.Error("Requirements and candidate circuit breakers should be different instances")
		}
	})

	t.Run("IndependentHealthStates", func(t *testing.T) {
		if !requirementsCB.IsHealthy() {
			t.Error("Requirements circuit breaker should be healthy initially")
		}
		if !candidateCB.IsHealthy() {
			t.Error("Candidate circuit breaker should be healthy initially")
		}
	})
}

func TestBreakerDisabled(t *testing.T) {
	disabledConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false,
		},
	}

	cb := NewBreaker[*genai.GenerateContentResponse]("Disabled", disabledConfig, nil)

	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// A nil breaker still executes the wrapped function directly
	result, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Nil breaker execution failed: %v", err)
	}
	if result != nil {
		t.Error("Expected nil result from passthrough execution")
	}

	if !cb.IsHealthy() {
		t.Error("Nil breaker should report healthy")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("Nil breaker stats should report enabled=false")
	}
}
