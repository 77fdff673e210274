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

// GormInvoiceRepository implements salestax.InvoiceRepository using GORM.
// Linked sales orders are loaded through the order repository.
type GormInvoiceRepository struct {
	db     *gorm.DB
	orders salestax.SalesOrderRepository
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB, orders salestax.SalesOrderRepository) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db, orders: orders}
}

// FindByID finds an invoice and resolves its order links. An invoice without a
// direct order link falls back to the order named in its source document.
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*salestax.Invoice, error) {
	model, err := r.findModel(ctx, id)
	if err != nil {
		return nil, err
	}
	inv := model.ToDomain()
	if inv.Order, err = r.resolveOrder(ctx, model); err != nil {
		return nil, err
	}
	if model.RefundOfID != nil {
		refunded, err := r.findModel(ctx, *model.RefundOfID)
		switch {
		case err == nil:
			inv.RefundOf = refunded.ToDomain()
			if inv.RefundOf.Order, err = r.resolveOrder(ctx, refunded); err != nil {
				return nil, err
			}
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}
	return inv, nil
}

func (r *GormInvoiceRepository) findModel(ctx context.Context, id uuid.UUID) (*models.InvoiceModel, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Lines.Product.TaxCode").
		Preload("Lines.Product.Category.TaxCode").
		Preload("Partner").
		Preload("Warehouse.Partner").
		Preload("CompanyPartner").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &model, nil
}

func (r *GormInvoiceRepository) resolveOrder(ctx context.Context, model *models.InvoiceModel) (*salestax.SalesOrder, error) {
	var (
		order *salestax.SalesOrder
		err   error
	)
	switch {
	case model.OrderID != nil:
		order, err = r.orders.FindByID(ctx, *model.OrderID)
	case model.SourceDocument != "":
		order, err = r.orders.FindByName(ctx, model.OrganizationID, salestax.ParseOrderReference(model.SourceDocument))
	default:
		return nil, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return order, err
}

// Save creates or updates an invoice and replaces its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *salestax.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&model.Lines).Error
	})
}

var _ salestax.InvoiceRepository = (*GormInvoiceRepository)(nil)
