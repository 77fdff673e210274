package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// OrganizationAggregateRoot is a versioned document owned by one organization.
// Tasks recorded on it are queued by the application layer in the same
// transaction that saves the document.
type OrganizationAggregateRoot struct {
	BaseEntity
	OrganizationID uuid.UUID
	Version        int
	pending        []DomainEvent
}

func NewOrganizationAggregateRoot(organizationID uuid.UUID) OrganizationAggregateRoot {
	return OrganizationAggregateRoot{
		BaseEntity:     NewBaseEntity(),
		OrganizationID: organizationID,
		Version:        1,
	}
}

func (a *OrganizationAggregateRoot) IncrementVersion() {
	a.Version++
}

func (a *OrganizationAggregateRoot) AddDomainEvent(task DomainEvent) {
	a.pending = append(a.pending, task)
}

// GetDomainEvents returns the tasks recorded since the last ClearDomainEvents
func (a *OrganizationAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

func (a *OrganizationAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}
