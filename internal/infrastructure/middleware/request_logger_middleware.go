package middleware

import (
	"time"

	"streamie/pkg/logger"
	"streamie/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// HTTPMetrics receives one observation per finished request.
type HTTPMetrics interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// RequestLogger assigns a request id (keeping a sane incoming one), logs the
// request when it finishes and reports it to metrics when given.
func RequestLogger(cl *logger.ContextLogger, metrics HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = utils.GenerateRequestID()
		}
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.WithValue(c.Request.Context(), logger.RequestIDKey, requestID))

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		cl.LogRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), duration.Milliseconds())
		if metrics != nil {
			metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), duration)
		}
	}
}
