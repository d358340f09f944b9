package http

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	"streamie/internal/core/services"
	"streamie/internal/infrastructure/middleware"
	apperrors "streamie/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	captchaCookie = "captcha"
	flashCookie   = "flash"

	loginOK     = "Eingeloggt"
	loginDenied = "Not Authorized"
)

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(result string)
}

type CookieConfig struct {
	Secure   bool
	TokenTTL time.Duration
}

type AuthHandler struct {
	authService    services.AuthService
	captchaService *services.CaptchaService
	userService    ports.UserService
	cookies        CookieConfig
	metrics        LoginRecorder
	logger         *zap.SugaredLogger
}

func NewAuthHandler(
	authService services.AuthService,
	captchaService *services.CaptchaService,
	userService ports.UserService,
	cookies CookieConfig,
	metrics LoginRecorder,
	logger *zap.SugaredLogger,
) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cookies.TokenTTL <= 0 {
		cookies.TokenTTL = services.DefaultTokenTTL
	}
	return &AuthHandler{
		authService:    authService,
		captchaService: captchaService,
		userService:    userService,
		cookies:        cookies,
		metrics:        metrics,
		logger:         logger,
	}
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(maxAge.Seconds()), "/", "", h.cookies.Secure, true)
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", h.cookies.Secure, true)
}

func (h *AuthHandler) record(result string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(result)
	}
}

// Index renders the landing page and consumes the logout flash.
func (h *AuthHandler) Index(c *gin.Context) {
	p := newPage(c)
	if flash, err := c.Cookie(flashCookie); err == nil {
		p.Flash = flash
		h.clearCookie(c, flashCookie)
	}
	c.HTML(http.StatusOK, viewIndex, p)
}

// ShowLogin renders a fresh captcha and stores its sealed answer in a cookie.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	challenge, err := h.captchaService.New()
	if err != nil {
		_ = c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "failed to create captcha", http.StatusInternalServerError))
		return
	}
	h.setCookie(c, captchaCookie, challenge.Token, h.captchaService.TTL())

	p := newPage(c)
	p.Captcha = template.URL(challenge.Image)
	c.HTML(http.StatusOK, viewLogin, p)
}

type loginForm struct {
	User    string `form:"user" binding:"required"`
	Pass    string `form:"pass" binding:"required"`
	Captcha string `form:"captcha" binding:"required"`
}

// Login checks the captcha, then the credentials. Any failure answers the
// same plain text so the form cannot be used to probe usernames.
func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.record("invalid")
		c.String(http.StatusBadRequest, loginDenied)
		return
	}

	sealed, _ := c.Cookie(captchaCookie)
	// a captcha answers exactly one attempt
	h.clearCookie(c, captchaCookie)

	if err := h.captchaService.Verify(sealed, form.Captcha); err != nil {
		h.record("captcha")
		c.String(http.StatusOK, loginDenied)
		return
	}

	user, err := h.userService.VerifyCredentials(c.Request.Context(), form.User, form.Pass)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.record("denied")
			c.String(http.StatusOK, loginDenied)
			return
		}
		_ = c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "login failed", http.StatusInternalServerError))
		return
	}

	token, err := h.authService.IssueToken(user.Username, domain.ParseRole(user.Role))
	if err != nil {
		_ = c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, "failed to issue token", http.StatusInternalServerError))
		return
	}

	h.setCookie(c, middleware.TokenCookie, token, h.cookies.TokenTTL)
	h.setCookie(c, middleware.FullnameCookie, user.Fullname, h.cookies.TokenTTL)
	h.record("success")
	h.logger.Infow("user logged in", "username", user.Username, "role", user.Role)

	c.String(http.StatusOK, loginOK)
}

// Logout drops the session cookies and redirects home with a flash.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearCookie(c, middleware.TokenCookie)
	h.clearCookie(c, middleware.FullnameCookie)
	h.setCookie(c, flashCookie, "Successfully logged out.", time.Minute)
	c.Redirect(http.StatusSeeOther, "/")
}
