// Package middleware provides the gin middleware of the quotation API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig returns the otelgin middleware, or a pass-through when
// tracing is off. Spans are named "METHOD route".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// spanStatus is the span description for failed responses; other 4xx are
// "Client Error" and every 5xx is "Internal Server Error".
var spanStatus = map[int]string{
	http.StatusUnauthorized: "Unauthorized",
	http.StatusNotFound:     "Not Found",
}

func spanStatusText(status int) string {
	if status >= http.StatusInternalServerError {
		return "Internal Server Error"
	}
	if text, ok := spanStatus[status]; ok {
		return text
	}
	return "Client Error"
}

// SpanErrorMarker runs after the handler: it tags the request span with
// request_id and user_id and marks 4xx and 5xx responses as errors. Place it
// after TracingWithConfig.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if id := spanRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if userID := GetJWTUserID(c); userID != "" {
			span.SetAttributes(attribute.String("user_id", userID))
		}

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, spanStatusText(status))
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
	}
}

// spanRequestID caps ids read straight from the header when RequestID did not run
func spanRequestID(c *gin.Context) string {
	id := GetRequestID(c)
	return id[:min(len(id), maxRequestIDLength)]
}
