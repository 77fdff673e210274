package persistence

import (
	"context"
	"errors"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductTaxCodeRepository implements salestax.ProductTaxCodeRepository using GORM
type GormProductTaxCodeRepository struct {
	db *gorm.DB
}

// NewGormProductTaxCodeRepository creates a new GormProductTaxCodeRepository
func NewGormProductTaxCodeRepository(db *gorm.DB) *GormProductTaxCodeRepository {
	return &GormProductTaxCodeRepository{db: db}
}

// FindByCode finds a tax code by its service code
func (r *GormProductTaxCodeRepository) FindByCode(ctx context.Context, code string) (*salestax.ProductTaxCode, error) {
	var model models.ProductTaxCodeModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every tax code ordered by code
func (r *GormProductTaxCodeRepository) FindAll(ctx context.Context) ([]*salestax.ProductTaxCode, error) {
	var rows []models.ProductTaxCodeModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	codes := make([]*salestax.ProductTaxCode, 0, len(rows))
	for i := range rows {
		codes = append(codes, rows[i].ToDomain())
	}
	return codes, nil
}

// Save creates or updates a tax code
func (r *GormProductTaxCodeRepository) Save(ctx context.Context, code *salestax.ProductTaxCode) error {
	return r.db.WithContext(ctx).Save(models.ProductTaxCodeModelFromDomain(code)).Error
}

var _ salestax.ProductTaxCodeRepository = (*GormProductTaxCodeRepository)(nil)
