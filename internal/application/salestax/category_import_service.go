package salestax

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryImportService imports the service's product tax categories
type CategoryImportService struct {
	configs  *ConfigurationService
	taxCodes salestax.ProductTaxCodeRepository
	gateway  salestax.Gateway
	logger   *zap.Logger
}

// NewCategoryImportService creates a new CategoryImportService
func NewCategoryImportService(
	configs *ConfigurationService,
	taxCodes salestax.ProductTaxCodeRepository,
	gateway salestax.Gateway,
	logger *zap.Logger,
) *CategoryImportService {
	return &CategoryImportService{
		configs:  configs,
		taxCodes: taxCodes,
		gateway:  gateway,
		logger:   logger,
	}
}

// ImportCategories upserts a product tax code for every category, matching on code
func (s *CategoryImportService) ImportCategories(ctx context.Context, configID uuid.UUID) (*CategoryImportResult, error) {
	cfg, err := s.configs.Get(ctx, configID)
	if err != nil {
		return nil, err
	}
	categories, err := s.gateway.Categories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	result := &CategoryImportResult{}
	for _, category := range categories {
		code, err := s.taxCodes.FindByCode(ctx, category.ProductTaxCode)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			code, err = salestax.NewProductTaxCode(category.ProductTaxCode, category.Name, category.Description)
			if err != nil {
				s.logger.Warn("skipping invalid tax category",
					zap.String("code", category.ProductTaxCode),
					zap.Error(err),
				)
				continue
			}
			result.Created++
		case err != nil:
			return nil, fmt.Errorf("find tax code %s: %w", category.ProductTaxCode, err)
		default:
			code.Rename(category.Name, category.Description)
			result.Updated++
		}
		if err := s.taxCodes.Save(ctx, code); err != nil {
			return nil, fmt.Errorf("save tax code %s: %w", category.ProductTaxCode, err)
		}
	}

	s.logger.Info("tax categories imported",
		zap.String("configuration_id", configID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

// TestConnection checks the configuration's credentials by listing categories
func (s *CategoryImportService) TestConnection(ctx context.Context, configID uuid.UUID) (*ConnectionTestResult, error) {
	cfg, err := s.configs.Get(ctx, configID)
	if err != nil {
		return nil, err
	}
	if _, err := s.gateway.Categories(ctx, cfg); err != nil {
		if salestax.IsGatewayError(err) {
			return &ConnectionTestResult{Success: false, Message: err.Error()}, nil
		}
		return nil, err
	}
	return &ConnectionTestResult{Success: true, Message: "Connection successful"}, nil
}
