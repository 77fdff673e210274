package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AttrTaskStatus labels queue depth by task status
var AttrTaskStatus = attribute.Key("task.status")

// RegisterPoolMetrics observes the database connection pool on every collection
func RegisterPoolMetrics(meter metric.Meter, stats func() sql.DBStats) error {
	open, err := meter.Int64ObservableGauge("db.pool.connections.open",
		metric.WithDescription("Open database connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	inUse, err := meter.Int64ObservableGauge("db.pool.connections.in_use",
		metric.WithDescription("Database connections currently in use"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db.pool.waits",
		metric.WithDescription("Times a query waited for a free connection"), metric.WithUnit("{wait}"))
	if err != nil {
		return fmt.Errorf("failed to create pool counter: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(open, int64(s.OpenConnections))
		o.ObserveInt64(inUse, int64(s.InUse))
		o.ObserveInt64(waits, s.WaitCount)
		return nil
	}, open, inUse, waits)
	return err
}

// RegisterQueueMetrics observes how many transaction tasks sit in each status.
// counts is called once per collection.
func RegisterQueueMetrics(meter metric.Meter, counts func(context.Context) (map[string]int64, error)) error {
	depth, err := meter.Int64ObservableGauge("salestax.tasks",
		metric.WithDescription("Queued transaction tasks by status"), metric.WithUnit("{task}"))
	if err != nil {
		return fmt.Errorf("failed to create queue gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		byStatus, err := counts(ctx)
		if err != nil {
			return err
		}
		for status, n := range byStatus {
			o.ObserveInt64(depth, n, metric.WithAttributes(AttrTaskStatus.String(status)))
		}
		return nil
	}, depth)
	return err
}
