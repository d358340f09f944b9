package middleware

import (
	"net/http"

	"streamie/internal/core/domain"
	"streamie/internal/core/services"
	"streamie/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	// TokenCookie holds the signed session token.
	TokenCookie = "streamie.live"
	// FullnameCookie is display only and never trusted.
	FullnameCookie = "fullname"

	identityKey = "identity"
)

// DeniedHandler writes the response for a request that failed the role gate.
// status is 401 for anonymous callers and 403 for a role mismatch.
type DeniedHandler func(c *gin.Context, status int)

// Authenticate resolves the token cookie to an identity on every request. A
// missing or bad token yields domain.Anonymous; it never aborts.
func Authenticate(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(TokenCookie)
		identity := authService.Authenticate(raw)
		c.Set(identityKey, identity)

		if identity.IsAuthenticated() {
			ctx := logger.WithValue(c.Request.Context(), logger.UsernameKey, identity.Username)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(domain.Identity); ok {
			return identity
		}
	}
	return domain.Anonymous
}

// RequireAuthenticated lets any logged-in identity through.
func RequireAuthenticated(onDenied DeniedHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFrom(c).IsAuthenticated() {
			deny(c, http.StatusUnauthorized, onDenied)
			return
		}
		c.Next()
	}
}

// RequireRole aborts unless the caller holds exactly role.
func RequireRole(authService services.AuthService, role domain.Role, onDenied DeniedHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if authService.Authorize(identity, role) {
			c.Next()
			return
		}

		status := http.StatusForbidden
		if !identity.IsAuthenticated() {
			status = http.StatusUnauthorized
		}
		deny(c, status, onDenied)
	}
}

func deny(c *gin.Context, status int, onDenied DeniedHandler) {
	if onDenied != nil {
		onDenied(c, status)
	}
	if !c.Writer.Written() {
		c.Status(status)
	}
	c.Abort()
}
