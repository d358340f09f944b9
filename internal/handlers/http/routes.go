package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"streamie/internal/core/domain"
	"streamie/internal/core/services"
	"streamie/internal/infrastructure/middleware"
	"streamie/internal/infrastructure/monitoring"
	"streamie/pkg/utils"
	"streamie/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// RegisterValidators adds the custom binding tags to gin's validator.
func RegisterValidators() error {
	validatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			validatorsErr = validation.RegisterTags(v)
		}
	})
	return validatorsErr
}

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth     *AuthHandler
	Sessions *SessionHandler
	Admin    *AdminHandler
	Chat     *ChatHandler
	Users    *UserHandler

	Health    *monitoring.HealthChecker
	Metrics   http.Handler // nil disables /metrics
	StaticDir string
}

// DenyStream answers a failed gate on the chat streams.
func DenyStream(c *gin.Context, status int) {
	c.String(status, http.StatusText(status))
}

// RegisterRoutes mounts every route. middleware.Authenticate must already be
// installed on router.
func RegisterRoutes(router *gin.Engine, authService services.AuthService, h Handlers) {
	startTime := time.Now()

	router.NoRoute(func(c *gin.Context) {
		RenderErrorView(c, http.StatusNotFound)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    utils.FormatDuration(time.Since(startTime)),
		})
	})
	if h.Health != nil {
		router.GET("/ready", func(c *gin.Context) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			status := h.Health.CheckAll(ctx)
			code := http.StatusOK
			if status.Status != "healthy" {
				code = http.StatusServiceUnavailable
			}
			c.JSON(code, status)
		})
	}
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}
	if h.StaticDir != "" {
		router.Static("/static", h.StaticDir)
	}

	// public
	router.GET("/", h.Auth.Index)
	router.GET("/login", h.Auth.ShowLogin)
	router.POST("/login/proceed", h.Auth.Login)
	router.GET("/logout", h.Auth.Logout)

	// any logged-in identity
	member := router.Group("/", middleware.RequireAuthenticated(RenderErrorView))
	{
		member.GET("/sessions", h.Sessions.List)
		member.GET("/session/:id", h.Sessions.Show)
	}

	streams := router.Group("/chat", middleware.RequireAuthenticated(DenyStream))
	{
		streams.GET("", h.Chat.Stream)
		streams.GET("/ws", h.Chat.WebSocket)
	}
	router.POST("/message", h.Chat.Post)

	requireAdmin := middleware.RequireRole(authService, domain.RoleAdmin, RenderErrorView)
	admin := router.Group("/", requireAdmin)
	{
		admin.GET("/admin", h.Admin.Overview)
		admin.GET("/session/list/create", h.Admin.CreateForm)
		admin.GET("/session/list/update", h.Admin.UpdateForm)
		admin.GET("/session/list/delete", h.Admin.DeleteForm)
		admin.POST("/admin/session/add", h.Admin.AddSession)
		admin.GET("/usermanagement", h.Users.List)
	}

	adminJSON := router.Group("/",
		middleware.JSONResponses(),
		middleware.RequireRole(authService, domain.RoleAdmin, DenyJSON),
	)
	{
		adminJSON.PUT("/admin/session/update", h.Admin.UpdateSession)
		adminJSON.DELETE("/session/delete/:name", h.Admin.DeleteSession)
		adminJSON.POST("/usermanagement/add", h.Users.Create)
		adminJSON.GET("/usermanagement/remove/:id", h.Users.Remove)
	}
}
