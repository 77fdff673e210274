package salestax

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reconciler fetches the tax due on a document from the external service and
// spreads it over the document lines so that the amounts add up exactly
type Reconciler struct {
	configs *ConfigurationService
	taxes   salestax.TaxRepository
	gateway salestax.Gateway
	metrics Metrics
	logger  *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	configs *ConfigurationService,
	taxes salestax.TaxRepository,
	gateway salestax.Gateway,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		configs: configs,
		taxes:   taxes,
		gateway: gateway,
		metrics: nopMetrics{},
		logger:  logger,
	}
}

// WithMetrics sets the metrics recorder
func (r *Reconciler) WithMetrics(m Metrics) *Reconciler {
	if m != nil {
		r.metrics = m
	}
	return r
}

// Applies reports whether the document is under external tax control: it is
// a customer document, a configuration resolves and its destination country is covered
func (r *Reconciler) Applies(ctx context.Context, doc salestax.Document) (bool, error) {
	cfg, _, err := r.applicableConfiguration(ctx, doc)
	if err != nil {
		return false, err
	}
	return cfg != nil, nil
}

// applicableConfiguration returns the configuration and destination, or a nil
// configuration when external tax does not apply
func (r *Reconciler) applicableConfiguration(ctx context.Context, doc salestax.Document) (*salestax.Configuration, *salestax.Partner, error) {
	if !doc.EligibleForExternalTax() {
		return nil, nil, nil
	}
	cfg, err := r.configs.Resolve(ctx, doc.Organization())
	if err != nil || cfg == nil {
		return nil, nil, err
	}
	destination, fellBack := doc.Destination()
	if fellBack {
		r.logger.Warn("pickup location has no postal address, using the shipping address",
			zap.String("document", doc.DisplayName()),
		)
	}
	if !cfg.CoversCountry(destination.CountryCode()) {
		return nil, nil, nil
	}
	return cfg, destination, nil
}

// Recompute replaces the document's external tax amounts with a fresh
// calculation and returns the new aggregate. When external tax does not apply
// every tax field is reset to zero. Nothing is modified when an error is returned.
func (r *Reconciler) Recompute(ctx context.Context, doc salestax.Document) (total decimal.Decimal, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salestax", "recompute",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, string(doc.DocumentType())),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, doc.DocumentID().String()),
	)
	defer span.End()

	start := time.Now()
	outcome := OutcomeApplied
	defer func() {
		if err != nil {
			outcome = OutcomeFailed
			telemetry.RecordError(span, err)
		}
		r.metrics.RecordReconciliation(ctx, string(doc.DocumentType()), outcome, time.Since(start))
	}()

	cfg, destination, err := r.applicableConfiguration(ctx, doc)
	if err != nil {
		return decimal.Zero, err
	}
	if cfg == nil {
		outcome = OutcomeSkipped
		salestax.ResetExternalTax(doc)
		return decimal.Zero, nil
	}

	placeholder, err := r.taxes.FindPlaceholder(ctx, doc.Organization())
	if err != nil {
		return decimal.Zero, fmt.Errorf("load placeholder tax: %w", err)
	}
	if err := placeholder.CheckPlaceholder(); err != nil {
		return decimal.Zero, err
	}
	if err := salestax.CheckOnlyPlaceholderTax(doc, placeholder); err != nil {
		return decimal.Zero, err
	}

	items := salestax.CalculationLines(doc, cfg)
	shipping := salestax.ShippingAmount(doc, cfg)
	if len(items) == 0 {
		outcome = OutcomeSkipped
		salestax.ResetExternalTax(doc)
		doc.SetShippingAmount(shipping)
		return decimal.Zero, nil
	}

	from, err := salestax.NewAddressFields(doc.Origin(), salestax.PrefixFrom)
	if err != nil {
		return decimal.Zero, err
	}
	to, err := salestax.NewAddressFields(destination, salestax.PrefixTo)
	if err != nil {
		return decimal.Zero, err
	}

	breakdown, err := r.gateway.TaxForOrder(ctx, cfg, salestax.TaxForOrderRequest{
		From:      from,
		To:        to,
		LineItems: items,
		Shipping:  shipping,
	})
	if err != nil {
		return decimal.Zero, err
	}

	currency := doc.Currency()
	allocated := salestax.AllocateLineTax(
		breakdown.LineItems, breakdown.AmountToCollect, breakdown.ShippingTaxCollectable, currency)
	shippingLines := salestax.ShippingLines(doc, cfg)
	shares, err := salestax.DistributeShippingTax(breakdown.ShippingTaxCollectable, len(shippingLines), currency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", doc.DisplayName(), err)
	}

	byID := make(map[string]*salestax.Line, len(doc.Lines()))
	for _, line := range doc.Lines() {
		byID[line.ID.String()] = line
	}
	for _, item := range allocated {
		if _, ok := byID[item.ID]; !ok {
			return decimal.Zero, fmt.Errorf("%s: line item %s: %w", doc.DisplayName(), item.ID, salestax.ErrUnknownLineItem)
		}
	}

	total = currency.Round(breakdown.AmountToCollect)
	apply(doc, byID, placeholder, allocated, shippingLines, shares)
	doc.SetExternalTaxAmount(total)
	doc.SetShippingAmount(shipping)

	r.logger.Debug("external tax recomputed",
		zap.String("document", doc.DisplayName()),
		zap.String("amount_to_collect", total.String()),
		zap.Int("line_items", len(allocated)),
	)
	return total, nil
}

// apply writes the allocated amounts onto the document lines. Every allocated
// ID must be present in byID.
func apply(
	doc salestax.Document,
	byID map[string]*salestax.Line,
	placeholder *salestax.Tax,
	allocated []salestax.LineTax,
	shippingLines []*salestax.Line,
	shares []decimal.Decimal,
) {
	salestax.ResetExternalTax(doc)

	attach := func(line *salestax.Line) {
		if placeholder != nil {
			line.AttachTax(placeholder.ID)
		}
	}

	for _, item := range allocated {
		line := byID[item.ID]
		line.ExternalTaxAmount = item.TaxCollectable
		attach(line)
	}
	for i, line := range shippingLines {
		if i < len(shares) {
			line.ExternalTaxAmount = shares[i]
		}
		attach(line)
	}
}
