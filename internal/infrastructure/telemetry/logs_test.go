package telemetry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/erp/salestax/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingExporter struct {
	mu      sync.Mutex
	bodies  []string
	stopped bool
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.bodies = append(e.bodies, r.Body().AsString())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	return nil
}

func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) Bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.bodies...)
}

func TestLoggerProvider_Disabled(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLoggerProvider_BridgeTeesAndFiltersLevel(t *testing.T) {
	exporter := &recordingExporter{}
	lp := telemetry.NewLoggerProviderWithExporter(exporter, telemetry.LogsConfig{
		Collector: telemetry.Collector{ServiceName: "salestax"},
		MinLevel:  "warn",
	})

	core, logs := observer.New(zap.DebugLevel)
	logger := lp.Bridge(zap.New(core))

	logger.Debug("debug only local")
	logger.Info("info only local")
	logger.Warn("gateway slow")
	logger.With(zap.String("method", "tax_for_order")).Error("gateway failed")

	assert.Equal(t, 4, logs.Len(), "base core receives every level")
	assert.Equal(t, []string{"gateway slow", "gateway failed"}, exporter.Bodies())

	require.NoError(t, lp.Shutdown(context.Background()))
	assert.True(t, exporter.stopped)
}
