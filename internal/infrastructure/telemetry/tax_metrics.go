package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// MeterName is the meter used for sales tax instruments
const MeterName = "github.com/erp/salestax"

// TaxMetrics records reconciliations, transaction reporting and tax service calls.
// Methods are safe on a nil receiver.
type TaxMetrics struct {
	reconciliations     *Counter
	reconcileDuration   *Histogram
	transactions        *Counter
	gatewayCalls        *Counter
	gatewayCallDuration *Histogram
}

// NewTaxMetrics registers the sales tax instruments on meter
func NewTaxMetrics(meter metric.Meter) (*TaxMetrics, error) {
	m := &TaxMetrics{}
	var err error

	if m.reconciliations, err = NewCounter(meter,
		"salestax.reconciliations", "Tax recomputations by document type and outcome", "{reconciliation}"); err != nil {
		return nil, err
	}
	if m.reconcileDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "salestax.reconciliation.duration",
		Description: "Duration of tax recomputations",
		Unit:        "s",
		Boundaries:  GatewayDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.transactions, err = NewCounter(meter,
		"salestax.transactions", "Transactions committed to or cancelled in the tax service", "{transaction}"); err != nil {
		return nil, err
	}
	if m.gatewayCalls, err = NewCounter(meter,
		"salestax.gateway.calls", "Calls to the tax service by method and status", "{call}"); err != nil {
		return nil, err
	}
	if m.gatewayCallDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "salestax.gateway.duration",
		Description: "Tax service round trip time",
		Unit:        "s",
		Boundaries:  GatewayDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordReconciliation counts one recomputation and records its duration
func (m *TaxMetrics) RecordReconciliation(ctx context.Context, documentType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reconciliations.Inc(ctx, AttrDocumentType.String(documentType), AttrOutcome.String(outcome))
	m.reconcileDuration.RecordDuration(ctx, duration, AttrDocumentType.String(documentType), AttrOutcome.String(outcome))
}

// RecordTransaction counts one commit or cancel
func (m *TaxMetrics) RecordTransaction(ctx context.Context, operation, outcome string) {
	if m == nil {
		return
	}
	m.transactions.Inc(ctx, AttrOperation.String(operation), AttrOutcome.String(outcome))
}

// RecordGatewayCall counts one tax service call. statusCode is 0 for transport failures.
func (m *TaxMetrics) RecordGatewayCall(ctx context.Context, method string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	status := AttrHTTPStatusCode.Int(statusCode)
	m.gatewayCalls.Inc(ctx, AttrGatewayMethod.String(method), status)
	m.gatewayCallDuration.RecordDuration(ctx, duration, AttrGatewayMethod.String(method), status)
}
