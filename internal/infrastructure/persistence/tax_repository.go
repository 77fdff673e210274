package persistence

import (
	"context"
	"strings"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTaxRepository implements salestax.TaxRepository using GORM
type GormTaxRepository struct {
	db *gorm.DB
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB) *GormTaxRepository {
	return &GormTaxRepository{db: db}
}

// FindPlaceholder returns the organization's placeholder tax, or nil when it has none
func (r *GormTaxRepository) FindPlaceholder(ctx context.Context, organizationID uuid.UUID) (*salestax.Tax, error) {
	var rows []models.TaxModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND LOWER(name) = ?", organizationID, strings.ToLower(salestax.PlaceholderTaxName)).
		Order("created_at ASC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

var _ salestax.TaxRepository = (*GormTaxRepository)(nil)
