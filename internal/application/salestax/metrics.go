package salestax

import (
	"context"
	"time"
)

// Outcomes recorded for reconciliations and transactions
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics records sales tax activity
type Metrics interface {
	RecordReconciliation(ctx context.Context, documentType, outcome string, duration time.Duration)
	RecordTransaction(ctx context.Context, operation, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) RecordReconciliation(context.Context, string, string, time.Duration) {}
func (nopMetrics) RecordTransaction(context.Context, string, string)                   {}
