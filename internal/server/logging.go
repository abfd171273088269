package server

import (
	"net/url"
	"time"

	"overlaykit/internal/auth"
	"overlaykit/internal/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// query parameters that never reach the logs
var redactedParams = []string{"secret", "token"}

func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + redactQuery(raw)
		}

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if userID, ok := auth.GetUserID(c); ok {
			args = append(args, "user_id", userID)
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			args = append(args, "trace_id", sc.TraceID().String())
		}
		logger.Info("HTTP request", args...)
	}
}

func redactQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparseable]"
	}
	for _, k := range redactedParams {
		if values.Has(k) {
			values.Set(k, "REDACTED")
		}
	}
	return values.Encode()
}
