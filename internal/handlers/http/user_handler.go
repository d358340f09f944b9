package http

import (
	"errors"
	"net/http"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// Results of the user management JSON endpoints.
const (
	statusFailed  = 0
	statusSuccess = 1
)

type UserHandler struct {
	userService ports.UserService
	logger      *zap.SugaredLogger
}

func NewUserHandler(userService ports.UserService, logger *zap.SugaredLogger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	p := newPage(c)
	p.Users = users
	c.HTML(http.StatusOK, viewUserManagement, p)
}

type newUserForm struct {
	Fullname string `form:"fullname" binding:"required,max=100"`
	Username string `form:"username" binding:"required,username"`
	Password string `form:"password" binding:"required"`
	Role     string `form:"role" binding:"required,role"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var form newUserForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": statusFailed, "error": err.Error()})
		return
	}

	_, err := h.userService.CreateUser(c.Request.Context(), form.Fullname, form.Username, form.Password, form.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSuccess})
}

func (h *UserHandler) Remove(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), domain.UserID(c.Param("id"))); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSuccess})
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	appErr := toAppError(err)
	if !errors.Is(err, domain.ErrDuplicateUsername) && appErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Errorw("user management failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(appErr.HTTPStatus, gin.H{"status": statusFailed, "error": appErr.Message})
}

// DenyJSON answers a failed role check on the JSON endpoints.
func DenyJSON(c *gin.Context, status int) {
	c.JSON(status, gin.H{"status": statusFailed})
}
