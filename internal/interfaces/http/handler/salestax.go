package handler

import (
	"context"
	"net/http"
	"time"

	salestaxapp "github.com/erp/salestax/internal/application/salestax"
	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/erp/salestax/internal/interfaces/http/dto"
	"github.com/erp/salestax/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentOperations are the document state changes that involve external tax
type DocumentOperations interface {
	ConfirmOrder(ctx context.Context, orderID uuid.UUID) (*salestaxapp.TaxResult, error)
	UpdateTaxes(ctx context.Context, docType salestax.DocumentType, id uuid.UUID) (*salestaxapp.TaxResult, error)
	OpenInvoice(ctx context.Context, invoiceID uuid.UUID, number string) (*salestaxapp.TaxResult, error)
	CancelInvoice(ctx context.Context, invoiceID uuid.UUID) (*salestaxapp.TaxResult, error)
}

// PartnerOperations validate and change partner addresses
type PartnerOperations interface {
	ValidatePartner(ctx context.Context, partnerID uuid.UUID) (*salestaxapp.AddressValidationResult, error)
	UpdateAddress(ctx context.Context, partnerID uuid.UUID, address valueobject.Address) (*salestaxapp.AddressValidationResult, error)
}

// ConfigurationOperations act on a tax service configuration
type ConfigurationOperations interface {
	ImportCategories(ctx context.Context, configID uuid.UUID) (*salestaxapp.CategoryImportResult, error)
	TestConnection(ctx context.Context, configID uuid.UUID) (*salestaxapp.ConnectionTestResult, error)
}

// ConfigurationUpdater changes configuration settings
type ConfigurationUpdater interface {
	Update(ctx context.Context, id uuid.UUID, changes salestax.ConfigurationChanges) (*salestaxapp.ConfigurationResult, error)
}

// SalesTaxHandler exposes the sales tax operations
type SalesTaxHandler struct {
	BaseHandler
	documents DocumentOperations
	partners  PartnerOperations
	configs   ConfigurationOperations
	settings  ConfigurationUpdater
}

// NewSalesTaxHandler creates a new SalesTaxHandler
func NewSalesTaxHandler(
	documents DocumentOperations,
	partners PartnerOperations,
	configs ConfigurationOperations,
	settings ConfigurationUpdater,
) *SalesTaxHandler {
	return &SalesTaxHandler{
		documents: documents,
		partners:  partners,
		configs:   configs,
		settings:  settings,
	}
}

// ConfirmOrder godoc
// @Summary      Confirm a sales order
// @Description  Recomputes the order's external tax, then confirms it
// @Tags         salestax
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /salestax/orders/{id}/confirm [post]
func (h *SalesTaxHandler) ConfirmOrder(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	result, err := h.documents.ConfirmOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdateOrderTaxes godoc
// @Summary      Recompute sales order taxes
// @Tags         salestax
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response
// @Router       /salestax/orders/{id}/taxes [post]
func (h *SalesTaxHandler) UpdateOrderTaxes(c *gin.Context) {
	h.updateTaxes(c, salestax.DocumentTypeSalesOrder)
}

// UpdateInvoiceTaxes godoc
// @Summary      Recompute invoice taxes
// @Tags         salestax
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response
// @Router       /salestax/invoices/{id}/taxes [post]
func (h *SalesTaxHandler) UpdateInvoiceTaxes(c *gin.Context) {
	h.updateTaxes(c, salestax.DocumentTypeInvoice)
}

func (h *SalesTaxHandler) updateTaxes(c *gin.Context, docType salestax.DocumentType) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	result, err := h.documents.UpdateTaxes(c.Request.Context(), docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// OpenInvoice godoc
// @Summary      Open (validate) an invoice
// @Description  Recomputes the invoice's external tax, opens it and queues the transaction report
// @Tags         salestax
// @Param        id path string true "Invoice ID"
// @Param        request body dto.OpenInvoiceRequest false "Invoice number"
// @Success      200 {object} dto.Response
// @Router       /salestax/invoices/{id}/open [post]
func (h *SalesTaxHandler) OpenInvoice(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	var req dto.OpenInvoiceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}
	result, err := h.documents.OpenInvoice(c.Request.Context(), id, req.Number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CancelInvoice godoc
// @Summary      Cancel an invoice
// @Description  Cancels the invoice and queues withdrawal of its reported transaction
// @Tags         salestax
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response
// @Router       /salestax/invoices/{id}/cancel [post]
func (h *SalesTaxHandler) CancelInvoice(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	result, err := h.documents.CancelInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ValidatePartner godoc
// @Summary      Validate a partner address
// @Description  Replaces the address with the service's first candidate. An unknown address only flags the partner.
// @Tags         salestax
// @Param        id path string true "Partner ID"
// @Success      200 {object} dto.Response
// @Router       /salestax/partners/{id}/validate [post]
func (h *SalesTaxHandler) ValidatePartner(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	result, err := h.partners.ValidatePartner(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdatePartnerAddress godoc
// @Summary      Change a partner address
// @Description  Validates the new address with the tax service when it changed, then stores it
// @Tags         salestax
// @Param        id path string true "Partner ID"
// @Param        request body dto.UpdatePartnerAddressRequest true "Address"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /salestax/partners/{id}/address [put]
func (h *SalesTaxHandler) UpdatePartnerAddress(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	var req dto.UpdatePartnerAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	address, err := valueobject.NewAddress(
		valueobject.WithStreet(req.Street),
		valueobject.WithStreet2(req.Street2),
		valueobject.WithCity(req.City),
		valueobject.WithState(req.State),
		valueobject.WithZip(req.Zip),
		valueobject.WithCountry(req.Country),
	)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
		return
	}
	result, err := h.partners.UpdateAddress(c.Request.Context(), id, address)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdateConfiguration godoc
// @Summary      Change a tax service configuration
// @Description  Enabling reporting enables calculation, disabling calculation disables reporting, and the sandbox turns address validation off
// @Tags         salestax
// @Param        id path string true "Configuration ID"
// @Param        request body dto.UpdateConfigurationRequest true "Changed settings"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /salestax/configurations/{id} [put]
func (h *SalesTaxHandler) UpdateConfiguration(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	var req dto.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	changes := salestax.ConfigurationChanges{
		Name:               req.Name,
		APIKey:             req.APIKey,
		Sandbox:            req.Sandbox,
		VerboseLogging:     req.VerboseLogging,
		AddressValidation:  req.AddressValidation,
		CalculationEnabled: req.CalculationEnabled,
		ReportingEnabled:   req.ReportingEnabled,
		Countries:          req.Countries,
	}
	if req.RequestTimeoutMs != nil {
		timeout := time.Duration(*req.RequestTimeoutMs) * time.Millisecond
		changes.RequestTimeout = &timeout
	}
	if req.ShippingProductIDs != nil {
		changes.ShippingProductIDs = make([]uuid.UUID, len(req.ShippingProductIDs))
		for i, raw := range req.ShippingProductIDs {
			changes.ShippingProductIDs[i] = uuid.MustParse(raw)
		}
	}
	result, err := h.settings.Update(c.Request.Context(), id, changes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// TestConnection godoc
// @Summary      Test tax service credentials
// @Tags         salestax
// @Param        id path string true "Configuration ID"
// @Success      200 {object} dto.Response
// @Router       /salestax/configurations/{id}/test [post]
func (h *SalesTaxHandler) TestConnection(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	result, err := h.configs.TestConnection(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportCategories godoc
// @Summary      Import product tax categories
// @Tags         salestax
// @Param        id path string true "Configuration ID"
// @Success      200 {object} dto.Response
// @Router       /salestax/configurations/{id}/import-categories [post]
func (h *SalesTaxHandler) ImportCategories(c *gin.Context) {
	id, ok := h.BindID(c)
	if !ok {
		return
	}
	result, err := h.configs.ImportCategories(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
