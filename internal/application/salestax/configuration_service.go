package salestax

import (
	"context"
	"fmt"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sandboxWarning is returned when switching to the sandbox turned address validation off
const sandboxWarning = "The sandbox does not support address validation; it has been disabled"

// ConfigurationService resolves which external tax configuration applies
// and maintains the configurations themselves
type ConfigurationService struct {
	repo   salestax.ConfigurationRepository
	logger *zap.Logger
}

// NewConfigurationService creates a new ConfigurationService
func NewConfigurationService(repo salestax.ConfigurationRepository) *ConfigurationService {
	return &ConfigurationService{repo: repo, logger: zap.NewNop()}
}

// WithLogger sets the logger used for configuration changes
func (s *ConfigurationService) WithLogger(logger *zap.Logger) *ConfigurationService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Resolve returns the configuration for an organization, or nil when external
// tax does not apply to it
func (s *ConfigurationService) Resolve(ctx context.Context, organizationID uuid.UUID) (*salestax.Configuration, error) {
	configs, err := s.repo.FindApplicable(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("load tax configurations: %w", err)
	}
	return salestax.ResolveConfiguration(organizationID, configs), nil
}

// Get loads a configuration by ID
func (s *ConfigurationService) Get(ctx context.Context, id uuid.UUID) (*salestax.Configuration, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Update applies a partial change and stores the configuration. Nothing is
// stored when the result would break the configuration invariants.
func (s *ConfigurationService) Update(ctx context.Context, id uuid.UUID, changes salestax.ConfigurationChanges) (*ConfigurationResult, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	addressValidationDisabled, err := cfg.Apply(changes)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save tax configuration: %w", err)
	}
	s.logger.Info("tax configuration updated",
		zap.String("configuration_id", cfg.ID.String()),
		zap.Bool("calculation_enabled", cfg.CalculationEnabled),
		zap.Bool("reporting_enabled", cfg.ReportingEnabled),
		zap.Bool("sandbox", cfg.Sandbox),
	)

	result := ToConfigurationResult(cfg)
	if addressValidationDisabled {
		result.Warnings = append(result.Warnings, sandboxWarning)
	}
	return result, nil
}
