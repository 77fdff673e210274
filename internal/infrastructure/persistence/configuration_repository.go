package persistence

import (
	"context"
	"errors"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConfigurationRepository implements salestax.ConfigurationRepository using GORM
type GormConfigurationRepository struct {
	db *gorm.DB
}

// NewGormConfigurationRepository creates a new GormConfigurationRepository
func NewGormConfigurationRepository(db *gorm.DB) *GormConfigurationRepository {
	return &GormConfigurationRepository{db: db}
}

// FindByID finds a configuration by its ID
func (r *GormConfigurationRepository) FindByID(ctx context.Context, id uuid.UUID) (*salestax.Configuration, error) {
	var model models.ConfigurationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindApplicable returns the organization's configurations followed by the global defaults.
// Within each group the oldest configuration comes first.
func (r *GormConfigurationRepository) FindApplicable(ctx context.Context, organizationID uuid.UUID) ([]*salestax.Configuration, error) {
	var rows []models.ConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? OR organization_id IS NULL", organizationID).
		Order("CASE WHEN organization_id IS NULL THEN 1 ELSE 0 END").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	configs := make([]*salestax.Configuration, 0, len(rows))
	for i := range rows {
		configs = append(configs, rows[i].ToDomain())
	}
	return configs, nil
}

// Save validates and then creates or updates a configuration
func (r *GormConfigurationRepository) Save(ctx context.Context, cfg *salestax.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(models.ConfigurationModelFromDomain(cfg)).Error
}

var _ salestax.ConfigurationRepository = (*GormConfigurationRepository)(nil)
