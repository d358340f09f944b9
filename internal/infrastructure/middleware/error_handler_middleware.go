package middleware

import (
	"net/http"
	"strings"

	"streamie/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const jsonResponseKey = "json_response"

// ViewRenderer renders the HTML page for an error status.
type ViewRenderer func(c *gin.Context, status int)

// JSONResponses marks a route group as answering in JSON, so errors are
// rendered as JSON rather than as a view.
func JSONResponses() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(jsonResponseKey, true)
		c.Next()
	}
}

func wantsJSON(c *gin.Context) bool {
	if c.GetBool(jsonResponseKey) {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// ErrorHandlerMiddleware renders the last error a handler attached with c.Error,
// unless the handler already wrote a response.
func ErrorHandlerMiddleware(logger *zap.SugaredLogger, view ViewRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		appErr := errors.GetAppError(err)
		if appErr == nil {
			logger.Errorw("unhandled error",
				"error", err.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			appErr = errors.NewInternalError("Internal server error")
		} else if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Errorw("application error",
				"code", appErr.Code,
				"message", appErr.Message,
				"status", appErr.HTTPStatus,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"cause", appErr.Cause,
			)
		} else {
			logger.Debugw("request rejected",
				"code", appErr.Code,
				"status", appErr.HTTPStatus,
				"path", c.Request.URL.Path,
			)
		}

		if wantsJSON(c) || view == nil {
			c.JSON(appErr.HTTPStatus, gin.H{
				"error":   string(appErr.Code),
				"message": appErr.Message,
				"details": appErr.Context,
			})
			return
		}
		view(c, appErr.HTTPStatus)
	}
}

// RecoveryMiddleware turns a panic into a 500 instead of a dropped connection.
func RecoveryMiddleware(logger *zap.SugaredLogger, view ViewRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorw("panic recovered",
					"error", rec,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}
				if wantsJSON(c) || view == nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"error":   string(errors.ErrCodeInternal),
						"message": "Internal server error",
					})
					return
				}
				view(c, http.StatusInternalServerError)
				c.Abort()
			}
		}()

		c.Next()
	}
}
