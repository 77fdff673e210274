package models

import (
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel holds the columns shared by every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// OrganizationAggregateModel adds optimistic version and ownership to BaseModel.
// Sales orders and invoices embed it.
type OrganizationAggregateModel struct {
	BaseModel
	Version        int       `gorm:"not null;default:1"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *OrganizationAggregateModel) FromDomainAggregateRoot(a shared.OrganizationAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
	m.OrganizationID = a.OrganizationID
}

// ToDomainAggregateRoot restores the root with no pending tasks
func (m *OrganizationAggregateModel) ToDomainAggregateRoot() shared.OrganizationAggregateRoot {
	return shared.OrganizationAggregateRoot{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrganizationID: m.OrganizationID,
		Version:        m.Version,
	}
}
