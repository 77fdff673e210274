package persistence

import (
	"context"
	"errors"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements salestax.SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

func (r *GormSalesOrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Lines.Product.TaxCode").
		Preload("Lines.Product.Category.TaxCode").
		Preload("ShippingPartner").
		Preload("Warehouse.Partner").
		Preload("CompanyPartner")
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*salestax.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.preloaded(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a sales order by name within an organization
func (r *GormSalesOrderRepository) FindByName(ctx context.Context, organizationID uuid.UUID, name string) (*salestax.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.preloaded(ctx).
		Where("organization_id = ? AND name = ?", organizationID, name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a sales order and replaces its lines
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *salestax.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.SalesOrderLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&model.Lines).Error
	})
}

var _ salestax.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
