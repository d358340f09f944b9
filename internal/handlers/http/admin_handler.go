package http

import (
	"net/http"
	"strings"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	apperrors "streamie/pkg/errors"
	"streamie/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// AdminHandler serves the session administration pages. Every route is
// mounted behind the ADMIN gate.
type AdminHandler struct {
	sessionService ports.SessionService
	logger         *zap.SugaredLogger
}

func NewAdminHandler(sessionService ports.SessionService, logger *zap.SugaredLogger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AdminHandler{sessionService: sessionService, logger: logger}
}

func (h *AdminHandler) Overview(c *gin.Context) {
	c.HTML(http.StatusOK, viewAdmin, newPage(c))
}

func (h *AdminHandler) CreateForm(c *gin.Context) {
	c.HTML(http.StatusOK, viewCreateSession, newPage(c))
}

func (h *AdminHandler) UpdateForm(c *gin.Context) {
	c.HTML(http.StatusOK, viewUpdateSession, newPage(c))
}

func (h *AdminHandler) DeleteForm(c *gin.Context) {
	c.HTML(http.StatusOK, viewDeleteSession, newPage(c))
}

// The platform field keeps the "plattform" spelling the forms post.
type newSessionForm struct {
	Start       string `form:"start" binding:"required,sessiontime"`
	End         string `form:"end" binding:"required,sessiontime"`
	Name        string `form:"name" binding:"required,max=200"`
	Description string `form:"description" binding:"required"`
	Link        string `form:"link" binding:"required,httpurl"`
	Channel     string `form:"channel" binding:"required"`
	Platform    string `form:"plattform" binding:"required"`
}

type updateSessionForm struct {
	Start       string `form:"start" binding:"omitempty,sessiontime"`
	End         string `form:"end" binding:"omitempty,sessiontime"`
	Name        string `form:"name" binding:"omitempty,max=200"`
	Description string `form:"description"`
	Link        string `form:"link" binding:"omitempty,httpurl"`
	Channel     string `form:"channel"`
	Platform    string `form:"plattform"`
	OldName     string `form:"old_name" binding:"required"`
}

func (f updateSessionForm) patch() domain.SessionPatch {
	p := domain.SessionPatch{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Link:        strings.TrimSpace(f.Link),
		Channel:     strings.TrimSpace(f.Channel),
	}
	// binding already checked the layout
	if t, err := validation.ParseSessionTime(f.Start); f.Start != "" && err == nil {
		p.Start = &t
	}
	if t, err := validation.ParseSessionTime(f.End); f.End != "" && err == nil {
		p.End = &t
	}
	if strings.TrimSpace(f.Platform) != "" {
		p.Platform = domain.ParsePlatform(f.Platform)
	}
	return p
}

// AddSession inserts a session and renders the admin overview again.
func (h *AdminHandler) AddSession(c *gin.Context) {
	var form newSessionForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		_ = c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}

	start, _ := validation.ParseSessionTime(form.Start)
	end, _ := validation.ParseSessionTime(form.End)
	session := &domain.Session{
		Start:       start,
		End:         end,
		Name:        strings.TrimSpace(form.Name),
		Description: strings.TrimSpace(form.Description),
		Stream: domain.SessionStream{
			Link:     strings.TrimSpace(form.Link),
			Channel:  strings.TrimSpace(form.Channel),
			Platform: domain.ParsePlatform(form.Platform),
		},
	}

	if err := h.sessionService.CreateSession(c.Request.Context(), session); err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	c.HTML(http.StatusOK, viewAdmin, newPage(c))
}

// UpdateSession patches the first session named old_name with the non-empty
// form fields.
func (h *AdminHandler) UpdateSession(c *gin.Context) {
	var form updateSessionForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		_ = c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}

	session, err := h.sessionService.UpdateSession(c.Request.Context(), form.OldName, form.patch())
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": 1, "session": session})
}

func (h *AdminHandler) DeleteSession(c *gin.Context) {
	if err := h.sessionService.DeleteSession(c.Request.Context(), c.Param("name")); err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": 1})
}
