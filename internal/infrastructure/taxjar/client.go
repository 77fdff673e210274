// Package taxjar is the HTTP client for the TaxJar v2 REST API.
package taxjar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Default API endpoints
const (
	ProductionURL = "https://api.taxjar.com"
	SandboxURL    = "https://api.sandbox.taxjar.com"
)

// addressNotFoundDetail is the detail TaxJar sends when an address has no match.
// A 404 with any other detail (e.g. an unknown route) is a real failure.
const addressNotFoundDetail = "Resource can not be found"

// Response size limits. Successful bodies are decoded up to maxResponseBody;
// log fields carry at most maxLoggedBody bytes.
const (
	maxResponseBody = 32 << 20
	maxLoggedBody   = 64 << 10
)

// Client implements salestax.Gateway. Credentials, sandbox selection,
// timeout and verbosity come from the configuration passed to each call.
// Calls are never retried.
type Client struct {
	httpClient    *http.Client
	productionURL string
	sandboxURL    string
	logger        *zap.Logger
	metrics       *telemetry.TaxMetrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURLs overrides the production and sandbox endpoints
func WithBaseURLs(production, sandbox string) Option {
	return func(c *Client) {
		if production != "" {
			c.productionURL = strings.TrimRight(production, "/")
		}
		if sandbox != "" {
			c.sandboxURL = strings.TrimRight(sandbox, "/")
		}
	}
}

// WithMetrics records every call on m
func WithMetrics(m *telemetry.TaxMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new TaxJar client
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{},
		productionURL: ProductionURL,
		sandboxURL:    SandboxURL,
		logger:        logger.Named("taxjar"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TaxForOrder computes the tax due. A request without line items is answered locally with zero tax.
func (c *Client) TaxForOrder(ctx context.Context, cfg *salestax.Configuration, req salestax.TaxForOrderRequest) (*salestax.TaxBreakdown, error) {
	if len(req.LineItems) == 0 {
		return &salestax.TaxBreakdown{AmountToCollect: decimal.Zero}, nil
	}
	body := withAddresses(map[string]any{
		"shipping":   amount(req.Shipping),
		"line_items": taxLineItems(req.LineItems),
	}, req.From, req.To)

	var resp taxResponse
	if err := c.call(ctx, cfg, salestax.MethodTaxForOrder, http.MethodPost, "/v2/taxes", body, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// CreateOrder reports a finalized sale
func (c *Client) CreateOrder(ctx context.Context, cfg *salestax.Configuration, req salestax.TransactionRequest) error {
	return c.call(ctx, cfg, salestax.MethodCreateOrder, http.MethodPost, "/v2/transactions/orders",
		transactionBody(req), nil)
}

// CreateRefund reports a finalized refund
func (c *Client) CreateRefund(ctx context.Context, cfg *salestax.Configuration, req salestax.TransactionRequest) error {
	body := transactionBody(req)
	if req.ReferenceID != "" {
		body["transaction_reference_id"] = req.ReferenceID
	}
	return c.call(ctx, cfg, salestax.MethodCreateRefund, http.MethodPost, "/v2/transactions/refunds", body, nil)
}

// DeleteOrder withdraws a reported sale
func (c *Client) DeleteOrder(ctx context.Context, cfg *salestax.Configuration, transactionID string) error {
	return c.call(ctx, cfg, salestax.MethodDeleteOrder, http.MethodDelete,
		"/v2/transactions/orders/"+url.PathEscape(transactionID), nil, nil)
}

// DeleteRefund withdraws a reported refund
func (c *Client) DeleteRefund(ctx context.Context, cfg *salestax.Configuration, transactionID string) error {
	return c.call(ctx, cfg, salestax.MethodDeleteRefund, http.MethodDelete,
		"/v2/transactions/refunds/"+url.PathEscape(transactionID), nil, nil)
}

// ValidateAddress returns corrected candidates for an address, or salestax.ErrAddressNotFound
func (c *Client) ValidateAddress(ctx context.Context, cfg *salestax.Configuration, req salestax.AddressValidationRequest) ([]salestax.ValidatedAddress, error) {
	body := validateAddressRequest{
		Country: req.Country,
		State:   req.State,
		Zip:     req.Zip,
		City:    req.City,
		Street:  req.Street,
	}
	var resp validateAddressResponse
	if err := c.call(ctx, cfg, salestax.MethodValidateAddress, http.MethodPost, "/v2/addresses/validate", body, &resp); err != nil {
		return nil, err
	}
	out := make([]salestax.ValidatedAddress, len(resp.Addresses))
	for i, a := range resp.Addresses {
		out[i] = salestax.ValidatedAddress{Country: a.Country, State: a.State, Zip: a.Zip, City: a.City, Street: a.Street}
	}
	return out, nil
}

// Categories lists the product tax categories
func (c *Client) Categories(ctx context.Context, cfg *salestax.Configuration) ([]salestax.Category, error) {
	var resp categoriesResponse
	if err := c.call(ctx, cfg, salestax.MethodCategories, http.MethodGet, "/v2/categories", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]salestax.Category, len(resp.Categories))
	for i, cat := range resp.Categories {
		out[i] = salestax.Category{ProductTaxCode: cat.ProductTaxCode, Name: cat.Name, Description: cat.Description}
	}
	return out, nil
}

func transactionBody(req salestax.TransactionRequest) map[string]any {
	return withAddresses(map[string]any{
		"transaction_id":   req.TransactionID,
		"transaction_date": req.TransactionDate,
		"amount":           amount(req.Amount),
		"shipping":         amount(req.Shipping),
		"sales_tax":        amount(req.SalesTax),
		"line_items":       transactionLineItems(req.LineItems),
	}, req.From, req.To)
}


// call performs one request and classifies its failure
func (c *Client) call(ctx context.Context, cfg *salestax.Configuration, method, httpMethod, path string, in, out any) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "taxjar", method,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrGatewayMethod, method),
		telemetry.WithAttribute(telemetry.SpanAttrSandbox, cfg.Sandbox),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	var payload []byte
	if in != nil {
		if payload, err = json.Marshal(in); err != nil {
			return &salestax.GatewayError{Method: method, Reason: "could not encode request", Err: err}
		}
	}
	if cfg.VerboseLogging {
		c.logger.Debug(method, zap.ByteString("request", payload))
	}

	start := time.Now()
	statusCode := 0
	defer func() {
		c.metrics.RecordGatewayCall(ctx, method, statusCode, time.Since(start))
		if err != nil && !errors.Is(err, salestax.ErrAddressNotFound) {
			telemetry.RecordError(span, err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, httpMethod, cfg.BaseURL(c.productionURL, c.sandboxURL)+path, bytes.NewReader(payload))
	if err != nil {
		return &salestax.GatewayError{Method: method, Reason: "could not build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		gwErr := &salestax.GatewayError{Method: method, Reason: "request failed", Err: err}
		c.logger.Error(gwErr.Error(), zap.ByteString("request", payload), zap.Error(err))
		return gwErr
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode
	telemetry.SetAttributes(span, "http.status_code", resp.StatusCode)

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if readErr == nil && len(respBody) > maxResponseBody {
		readErr = fmt.Errorf("response exceeds %d bytes", maxResponseBody)
	}
	if cfg.VerboseLogging {
		c.logger.Debug("Response", zap.String("method", method), zap.Int("status", resp.StatusCode),
			zap.ByteString("response", truncate(respBody)))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		_ = json.Unmarshal(respBody, &apiErr)

		if method == salestax.MethodValidateAddress && resp.StatusCode == http.StatusNotFound &&
			apiErr.Detail == addressNotFoundDetail {
			return salestax.ErrAddressNotFound
		}

		gwErr := &salestax.GatewayError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Reason:     apiErr.Detail,
		}
		c.logger.Error(gwErr.Error(),
			zap.ByteString("request", payload),
			zap.ByteString("response", truncate(respBody)),
		)
		return gwErr
	}
	if readErr != nil {
		return &salestax.GatewayError{Method: method, StatusCode: resp.StatusCode, Status: resp.Status,
			Reason: "could not read response", Err: readErr}
	}

	if out == nil || len(respBody) == 0 {
		telemetry.SetOK(span)
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		gwErr := &salestax.GatewayError{Method: method, StatusCode: resp.StatusCode, Status: resp.Status,
			Reason: "unexpected response body", Err: err}
		c.logger.Error(gwErr.Error(), zap.ByteString("response", truncate(respBody)))
		return gwErr
	}
	telemetry.SetOK(span)
	return nil
}

func truncate(body []byte) []byte {
	if len(body) > maxLoggedBody {
		return body[:maxLoggedBody]
	}
	return body
}

var _ salestax.Gateway = (*Client)(nil)
