package telemetry

import (
	"context"
	"fmt"

	"github.com/erp/salestax/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogsConfig struct {
	Collector
	Enabled  bool
	MinLevel string // records below it stay local
}

// LoggerProvider ships zap records to the collector through the otelzap bridge
type LoggerProvider struct {
	provider *sdklog.LoggerProvider
	name     string
	minLevel zapcore.Level
}

func NewLoggerProvider(ctx context.Context, cfg LogsConfig, log *zap.Logger) (*LoggerProvider, error) {
	if !cfg.Enabled {
		log.Info("Log export disabled")
		return &LoggerProvider{}, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create log exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(provider)

	log.Info("Log export enabled",
		zap.String("collector_endpoint", cfg.Endpoint),
		zap.String("min_level", cfg.MinLevel),
	)
	return newLoggerProvider(provider, cfg), nil
}

// NewLoggerProviderWithExporter exports every record synchronously and is not installed globally
func NewLoggerProviderWithExporter(exporter sdklog.Exporter, cfg LogsConfig) *LoggerProvider {
	return newLoggerProvider(sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter))), cfg)
}

func newLoggerProvider(provider *sdklog.LoggerProvider, cfg LogsConfig) *LoggerProvider {
	return &LoggerProvider{
		provider: provider,
		name:     cfg.ServiceName,
		minLevel: logger.ParseLevel(cfg.MinLevel),
	}
}

func (lp *LoggerProvider) IsEnabled() bool { return lp != nil && lp.provider != nil }

// Bridge tees base into the collector. base keeps every record it already
// accepted; the collector only sees records at MinLevel or above.
func (lp *LoggerProvider) Bridge(base *zap.Logger) *zap.Logger {
	if !lp.IsEnabled() {
		return base
	}
	exported := &minLevelCore{
		Core: otelzap.NewCore(lp.name, otelzap.WithLoggerProvider(lp.provider)),
		min:  lp.minLevel,
	}
	return base.WithOptions(zap.WrapCore(func(local zapcore.Core) zapcore.Core {
		return zapcore.NewTee(local, exported)
	}))
}

func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if !lp.IsEnabled() {
		return nil
	}
	return shutdown(ctx, "logger", lp.provider.Shutdown)
}

type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *minLevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *minLevelCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &minLevelCore{Core: c.Core.With(fields), min: c.min}
}
