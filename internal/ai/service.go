package ai

import (
	"context"
	"fmt"

	"cvsnap/internal/config"
	"cvsnap/internal/errors"
)

// Service handles oracle operations for one extraction operation type
type Service struct {
	Oracle Oracle // Exported for access from server package
	config *config.OperationAIConfig
	logger *errors.Logger
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	var oracle Oracle
	var err error

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries)

	switch cfg.Provider {
	case "gemini":
		oracle, err = NewGeminiOracle(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI oracle", err)
	}

	return &Service{
		Oracle: oracle,
		config: cfg,
		logger: logger,
	}, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) any {
	return s.Oracle.GetModelInfo(ctx)
}
