package http

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"streamie/internal/core/domain"
	"streamie/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// View names. Each template file defines exactly one of them.
const (
	viewIndex          = "index"
	viewLogin          = "login"
	viewUnauthorized   = "unauthorized"
	viewBadRequest     = "bad_request"
	viewNotFound       = "not_found"
	viewInternalError  = "internal_error"
	viewSessions       = "sessions/events"
	viewSession        = "sessions/session"
	viewAdmin          = "sessions/admin"
	viewCreateSession  = "admin/create_session"
	viewUpdateSession  = "admin/update_session"
	viewDeleteSession  = "admin/delete_session"
	viewUserManagement = "user/management"
)

// Views lists every view the handlers render.
var Views = []string{
	viewIndex, viewLogin, viewUnauthorized, viewBadRequest, viewNotFound, viewInternalError,
	viewSessions, viewSession, viewAdmin,
	viewCreateSession, viewUpdateSession, viewDeleteSession,
	viewUserManagement,
}

const defaultFullname = "Unknown User"

var templateFuncs = template.FuncMap{
	"sessionTime": func(t time.Time) string {
		return t.UTC().Format(domain.SessionTimeLayout)
	},
	"lower": strings.ToLower,
}

// LoadTemplates parses every *.tmpl file under dir and checks that all views
// are defined.
func LoadTemplates(dir string) (*template.Template, error) {
	root := template.New("").Funcs(templateFuncs)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".tmpl" {
			return nil
		}
		if _, err := root.ParseFiles(path); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, name := range Views {
		if root.Lookup(name) == nil {
			return nil, fmt.Errorf("template %q is not defined in %s", name, dir)
		}
	}
	return root, nil
}

// page is the data every view receives.
type page struct {
	Fullname string
	Identity domain.Identity
	IsAdmin  bool
	Flash    string

	Captcha  template.URL
	Sessions []*domain.Session
	Session  *domain.Session
	Users    []*domain.User
}

func newPage(c *gin.Context) page {
	identity := middleware.IdentityFrom(c)

	fullname := defaultFullname
	if identity.IsAuthenticated() {
		if v, err := c.Cookie(middleware.FullnameCookie); err == nil && v != "" {
			fullname = v
		}
	}

	return page{
		Fullname: fullname,
		Identity: identity,
		IsAdmin:  identity.Role == domain.RoleAdmin,
	}
}

// RenderErrorView picks the view for an error status.
func RenderErrorView(c *gin.Context, status int) {
	view := viewInternalError
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		view = viewUnauthorized
	case http.StatusNotFound:
		view = viewNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusTooManyRequests:
		view = viewBadRequest
	}
	c.HTML(status, view, newPage(c))
}
