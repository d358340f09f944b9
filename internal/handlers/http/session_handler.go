package http

import (
	"net/http"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// SessionHandler serves the public session pages.
type SessionHandler struct {
	sessionService ports.SessionService
}

func NewSessionHandler(sessionService ports.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessionService.ListSessions(c.Request.Context())
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	p := newPage(c)
	p.Sessions = sessions
	c.HTML(http.StatusOK, viewSessions, p)
}

func (h *SessionHandler) Show(c *gin.Context) {
	session, err := h.sessionService.GetSession(c.Request.Context(), domain.SessionID(c.Param("id")))
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	p := newPage(c)
	p.Session = session
	c.HTML(http.StatusOK, viewSession, p)
}
