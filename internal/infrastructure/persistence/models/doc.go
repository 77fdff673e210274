// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, OrganizationAggregateModel)
// - configuration.go: External tax configurations and local taxes
// - partner.go: Partners and warehouses
// - product.go: Products, categories and product tax codes
// - document.go: Sales orders, invoices and their lines
// - currency_rate.go: Dated exchange rates
// - outbox.go: Outbox pattern model for deferred task delivery
package models
