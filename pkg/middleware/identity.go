package middleware

import (
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/decoflow/production-service/pkg/errors"
	"github.com/decoflow/production-service/pkg/logging"
)

const (
	ContextKeyRequestID     = "requestId"
	ContextKeyCorrelationID = "correlationId"
	ContextKeyTraceID       = "traceId"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// RequestIdentity assigns a request ID and a correlation ID to every call.
// A tablet that sends no correlation header gets the request ID as its
// correlation ID, so the events a request produces can be traced back to it.
func RequestIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = requestID
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Set(ContextKeyCorrelationID, correlationID)
		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderCorrelationID, correlationID)

		ctx := logging.ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(logging.ContextWithCorrelationID(ctx, correlationID))

		c.Next()
	}
}

// AccessLog writes one line per request. Probe and scrape paths are skipped.
func AccessLog(logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latencyMs", time.Since(start).Milliseconds(),
			"clientIP", c.ClientIP(),
			"requestId", stringFromContext(c, ContextKeyRequestID),
			"correlationId", stringFromContext(c, ContextKeyCorrelationID),
		}
		if jobID := c.Param("jobId"); jobID != "" {
			attrs = append(attrs, "jobId", jobID)
		}
		if traceID := stringFromContext(c, ContextKeyTraceID); traceID != "" {
			attrs = append(attrs, "traceId", traceID)
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "HTTP request", attrs...)
	}
}

// Recovery turns a handler panic into a 500 response
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic recovered",
					"panic", rec,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"requestId", GetRequestID(c),
					"stack", string(debug.Stack()),
				)
				AbortWithAppError(c, errors.ErrInternal("An unexpected error occurred"))
			}
		}()
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return stringFromContext(c, ContextKeyRequestID)
}

func GetCorrelationID(c *gin.Context) string {
	return stringFromContext(c, ContextKeyCorrelationID)
}

func stringFromContext(c *gin.Context, key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}
