package handler

import (
	"github.com/erp/salestax/internal/infrastructure/auth"
	"github.com/erp/salestax/internal/interfaces/http/middleware"
	"github.com/erp/salestax/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// SalesTaxRoutes creates the route group for the sales tax endpoints.
// Configuration endpoints need the admin scope when tokens are in use.
func SalesTaxRoutes(h *SalesTaxHandler, mw ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("/salestax", mw...)
	documents := middleware.RequireScope(auth.ScopeDocuments)

	orders := group.Group("/orders", documents)
	orders.POST("/:id/confirm", h.ConfirmOrder)
	orders.POST("/:id/taxes", h.UpdateOrderTaxes)

	invoices := group.Group("/invoices", documents)
	invoices.POST("/:id/open", h.OpenInvoice)
	invoices.POST("/:id/cancel", h.CancelInvoice)
	invoices.POST("/:id/taxes", h.UpdateInvoiceTaxes)

	partners := group.Group("/partners", documents)
	partners.POST("/:id/validate", h.ValidatePartner)
	partners.PUT("/:id/address", h.UpdatePartnerAddress)

	configs := group.Group("/configurations", middleware.RequireScope(auth.ScopeAdmin))
	configs.PUT("/:id", h.UpdateConfiguration)
	configs.POST("/:id/test", h.TestConnection)
	configs.POST("/:id/import-categories", h.ImportCategories)

	return group
}

// TaskRoutes creates the route group for the transaction task queue
func TaskRoutes(h *TaskHandler) *router.DomainGroup {
	group := router.NewDomainGroup("/salestax/tasks", middleware.RequireScope(auth.ScopeAdmin))

	group.GET("/stats", h.Stats)
	group.GET("/dead", h.ListDead)
	group.POST("/dead/retry", h.RetryAllDead)
	group.GET("/:id", h.Get)
	group.POST("/:id/retry", h.Retry)

	return group
}
