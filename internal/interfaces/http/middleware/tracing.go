package middleware

import (
	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/erp/salestax/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// maxRequestIDLength bounds the request ID copied into spans
const maxRequestIDLength = 128

// Tracing starts a server span per request through otelgin
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// TraceAttributes enriches the server span started by Tracing. otelgin runs
// the rest of the chain inside the span, so this must be registered after it.
func TraceAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			ctx := c.Request.Context()
			if id := logger.GetRequestID(ctx); id != "" {
				if len(id) > maxRequestIDLength {
					id = id[:maxRequestIDLength]
				}
				span.SetAttributes(telemetry.AttrRequestID.String(id))
			}
			if org := GetOrganizationID(c); org != "" {
				span.SetAttributes(telemetry.AttrOrganizationID.String(org))
			}
		}
		c.Next()
	}
}
