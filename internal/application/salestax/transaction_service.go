package salestax

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/erp/salestax/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionService reports finalized documents to the external service and
// deletes them again on cancellation. It runs from the task queue, never inline.
type TransactionService struct {
	configs           *ConfigurationService
	gateway           salestax.Gateway
	converter         salestax.CurrencyConverter
	reportingCurrency valueobject.Currency
	metrics           Metrics
	logger            *zap.Logger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	configs *ConfigurationService,
	gateway salestax.Gateway,
	converter salestax.CurrencyConverter,
	reportingCurrency valueobject.Currency,
	logger *zap.Logger,
) *TransactionService {
	if reportingCurrency == "" {
		reportingCurrency = valueobject.USD
	}
	return &TransactionService{
		configs:           configs,
		gateway:           gateway,
		converter:         converter,
		reportingCurrency: reportingCurrency,
		metrics:           nopMetrics{},
		logger:            logger,
	}
}

// WithMetrics sets the metrics recorder
func (s *TransactionService) WithMetrics(m Metrics) *TransactionService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// reportingConfiguration returns the configuration when reporting is enabled, else nil
func (s *TransactionService) reportingConfiguration(ctx context.Context, doc salestax.Document) (*salestax.Configuration, error) {
	cfg, err := s.configs.Resolve(ctx, doc.Organization())
	if err != nil {
		return nil, err
	}
	if cfg == nil || !cfg.ReportingEnabled {
		return nil, nil
	}
	return cfg, nil
}

// Commit creates the order or refund transaction for a finalized document.
// It is a no-op when no configuration applies or reporting is disabled.
func (s *TransactionService) Commit(ctx context.Context, doc salestax.Document) (err error) {
	operation := salestax.MethodCreateOrder
	if doc.IsRefund() {
		operation = salestax.MethodCreateRefund
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "salestax", operation,
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, doc.DocumentID().String()),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentName, doc.DisplayName()),
		telemetry.WithAttribute(telemetry.SpanAttrTransactionID, salestax.TransactionID(doc.TransactionNumber())),
	)
	defer span.End()

	outcome := OutcomeApplied
	defer func() {
		if err != nil {
			outcome = OutcomeFailed
			telemetry.RecordError(span, err)
		}
		s.metrics.RecordTransaction(ctx, operation, outcome)
	}()

	cfg, err := s.reportingConfiguration(ctx, doc)
	if err != nil {
		return err
	}
	if cfg == nil {
		outcome = OutcomeSkipped
		s.logger.Debug("tax reporting disabled, skipping commit", zap.String("document", doc.DisplayName()))
		return nil
	}
	if !doc.IsFinalized() {
		return salestax.NewDocumentNotFinalizedError(doc.DisplayName(), doc.StateName())
	}

	req, err := s.buildTransaction(ctx, doc, cfg)
	if err != nil {
		return err
	}
	if doc.IsRefund() {
		err = s.gateway.CreateRefund(ctx, cfg, req)
	} else {
		err = s.gateway.CreateOrder(ctx, cfg, req)
	}
	if err != nil {
		return err
	}
	s.logger.Info("transaction reported",
		zap.String("document", doc.DisplayName()),
		zap.String("transaction_id", req.TransactionID),
	)
	return nil
}

// Cancel deletes the order or refund transaction of a document.
// It is a no-op when no configuration applies or reporting is disabled.
func (s *TransactionService) Cancel(ctx context.Context, doc salestax.Document, isRefund bool) (err error) {
	operation := salestax.MethodDeleteOrder
	if isRefund {
		operation = salestax.MethodDeleteRefund
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "salestax", operation,
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, doc.DocumentID().String()),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentName, doc.DisplayName()),
		telemetry.WithAttribute(telemetry.SpanAttrTransactionID, salestax.TransactionID(doc.TransactionNumber())),
	)
	defer span.End()

	outcome := OutcomeApplied
	defer func() {
		if err != nil {
			outcome = OutcomeFailed
			telemetry.RecordError(span, err)
		}
		s.metrics.RecordTransaction(ctx, operation, outcome)
	}()

	cfg, err := s.reportingConfiguration(ctx, doc)
	if err != nil {
		return err
	}
	if cfg == nil {
		outcome = OutcomeSkipped
		s.logger.Debug("tax reporting disabled, skipping cancel", zap.String("document", doc.DisplayName()))
		return nil
	}
	if doc.TransactionNumber() == "" {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("%s has no number and was never reported", doc.DisplayName()))
	}

	transactionID := salestax.TransactionID(doc.TransactionNumber())
	if isRefund {
		err = s.gateway.DeleteRefund(ctx, cfg, transactionID)
	} else {
		err = s.gateway.DeleteOrder(ctx, cfg, transactionID)
	}
	if err != nil {
		return err
	}
	s.logger.Info("transaction deleted",
		zap.String("document", doc.DisplayName()),
		zap.String("transaction_id", transactionID),
	)
	return nil
}

// buildTransaction assembles the transaction payload in the reporting currency
func (s *TransactionService) buildTransaction(
	ctx context.Context,
	doc salestax.Document,
	cfg *salestax.Configuration,
) (salestax.TransactionRequest, error) {
	lines := salestax.CommitLines(doc, cfg)
	if len(lines) == 0 {
		return salestax.TransactionRequest{}, fmt.Errorf("%s: %w", doc.DisplayName(), salestax.ErrEmptyTransaction)
	}

	convert := s.converterFor(ctx, doc)
	var err error
	for i := range lines {
		if lines[i].UnitPrice, err = convert(lines[i].UnitPrice); err != nil {
			return salestax.TransactionRequest{}, err
		}
		if lines[i].Discount, err = convert(lines[i].Discount); err != nil {
			return salestax.TransactionRequest{}, err
		}
		if lines[i].SalesTax, err = convert(lines[i].SalesTax); err != nil {
			return salestax.TransactionRequest{}, err
		}
	}

	req := salestax.TransactionRequest{
		TransactionID:   salestax.TransactionID(doc.TransactionNumber()),
		TransactionDate: salestax.FormatTransactionDate(doc.EffectiveDate()),
		LineItems:       lines,
	}
	if req.Amount, err = convert(doc.UntaxedAmount()); err != nil {
		return req, err
	}
	if req.SalesTax, err = convert(doc.ExternalTaxAmount().Mul(salestax.Sign(doc))); err != nil {
		return req, err
	}
	if req.Shipping, err = convert(salestax.ShippingAmount(doc, cfg)); err != nil {
		return req, err
	}
	if doc.IsRefund() && doc.RefundReference() != "" {
		req.ReferenceID = salestax.TransactionID(doc.RefundReference())
	}

	destination, _ := doc.Destination()
	if req.From, err = salestax.NewAddressFields(doc.Origin(), salestax.PrefixFrom); err != nil {
		return req, err
	}
	if req.To, err = salestax.NewAddressFields(destination, salestax.PrefixTo); err != nil {
		return req, err
	}
	return req, nil
}

// converterFor converts document amounts at the rate of the document date
func (s *TransactionService) converterFor(ctx context.Context, doc salestax.Document) func(decimal.Decimal) (decimal.Decimal, error) {
	date := doc.EffectiveDate()
	if date.IsZero() {
		date = time.Now()
	}
	return func(amount decimal.Decimal) (decimal.Decimal, error) {
		converted, err := s.converter.Convert(ctx, amount, doc.Currency(), s.reportingCurrency, date)
		if err != nil {
			return decimal.Zero, fmt.Errorf("convert %s to %s: %w", doc.Currency(), s.reportingCurrency, err)
		}
		return converted, nil
	}
}
