package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey         contextKey = "logger"
	requestIDKey      contextKey = "request_id"
	organizationIDKey contextKey = "organization_id"
	documentKey       contextKey = "document"
)

// DocumentRef identifies the order or invoice a log line is about
type DocumentRef struct {
	Type string
	Name string
}

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID records the request ID in ctx and on its logger
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("request_id", requestID)))
}

// WithOrganizationID records the organization in ctx and on its logger
func WithOrganizationID(ctx context.Context, organizationID string) context.Context {
	ctx = context.WithValue(ctx, organizationIDKey, organizationID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("organization_id", organizationID)))
}

// WithDocument records the document being processed in ctx and on its logger
func WithDocument(ctx context.Context, documentType, name string) context.Context {
	ctx = context.WithValue(ctx, documentKey, DocumentRef{Type: documentType, Name: name})
	return WithContext(ctx, FromContext(ctx).With(
		zap.String("document_type", documentType),
		zap.String("document", name),
	))
}

// GetRequestID returns the request ID stored in ctx
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

// GetOrganizationID returns the organization ID stored in ctx
func GetOrganizationID(ctx context.Context) string {
	organizationID, _ := ctx.Value(organizationIDKey).(string)
	return organizationID
}

// GetDocument returns the document stored in ctx
func GetDocument(ctx context.Context) (DocumentRef, bool) {
	doc, ok := ctx.Value(documentKey).(DocumentRef)
	return doc, ok
}

// WithTraceContext adds trace_id and span_id from the active span, if any
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

// L returns the context's logger correlated with the active trace.
//
//	logger.L(ctx).Info("tax recomputed", zap.String("amount", total.String()))
func L(ctx context.Context) *zap.Logger {
	return WithTraceContext(ctx, FromContext(ctx))
}

// Or returns the context's logger when one is attached, fallback otherwise.
// Services holding a constructor-injected logger use it to pick up request fields.
func Or(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return WithTraceContext(ctx, logger)
	}
	return WithTraceContext(ctx, fallback)
}
