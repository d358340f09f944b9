package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	"streamie/internal/core/services"
	"streamie/internal/infrastructure/chat"
	"streamie/internal/infrastructure/middleware"
	"streamie/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret    = "handler-test-secret"
	templatesPath = "../../../web/templates"
)

type testEnv struct {
	router   *gin.Engine
	auth     services.AuthService
	captcha  *services.CaptchaService
	sessions ports.SessionRepository
	users    ports.UserService
	chat     *services.ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	log := zap.NewNop().Sugar()

	codec, err := services.NewTokenCodec(testSecret)
	require.NoError(t, err)
	auth := services.NewAuthService(codec, 0, log)
	captcha := services.NewCaptchaService(testSecret, 5, time.Minute)

	sessionRepo := memory.NewMemorySessionRepository()
	userService := services.NewUserService(memory.NewMemoryUserRepository(), services.NewPasswordHasher(bcrypt.MinCost), log)
	sessionService := services.NewSessionService(sessionRepo, log)

	hub, err := chat.NewHub(chat.Config{Capacity: 16, LagPolicy: chat.LagSkip}, nil, log)
	require.NoError(t, err)
	t.Cleanup(hub.Close)
	chatService := services.NewChatService(hub, services.ChatRateLimit{}, log)

	tmpl, err := LoadTemplates(templatesPath)
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(
		middleware.RecoveryMiddleware(log, RenderErrorView),
		middleware.ErrorHandlerMiddleware(log, RenderErrorView),
		middleware.Authenticate(auth),
	)
	RegisterRoutes(router, auth, Handlers{
		Auth:     NewAuthHandler(auth, captcha, userService, CookieConfig{}, nil, log),
		Sessions: NewSessionHandler(sessionService),
		Admin:    NewAdminHandler(sessionService, log),
		Chat:     NewChatHandler(chatService, ChatConfig{Heartbeat: time.Hour}, log),
		Users:    NewUserHandler(userService, log),
	})

	return &testEnv{
		router:   router,
		auth:     auth,
		captcha:  captcha,
		sessions: sessionRepo,
		users:    userService,
		chat:     chatService,
	}
}

// tokenCookie returns a session cookie for role, or nil for anonymous.
func (e *testEnv) tokenCookie(t *testing.T, username string, role domain.Role) *http.Cookie {
	t.Helper()
	if role == "" {
		return nil
	}
	token, err := e.auth.IssueToken(username, role)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.TokenCookie, Value: token}
}

func (e *testEnv) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedSession(t *testing.T, name string) *domain.Session {
	t.Helper()
	s := &domain.Session{
		Start:       time.Date(2022, 7, 9, 7, 48, 15, 0, time.UTC),
		End:         time.Date(2022, 7, 10, 7, 48, 15, 0, time.UTC),
		Name:        name,
		Description: "ein Test zum Streamen",
		Stream: domain.SessionStream{
			Link:     "https://www.twitch.tv/primeleague",
			Channel:  "PrimeLeague",
			Platform: domain.PlatformTwitch,
		},
	}
	require.NoError(t, e.sessions.Create(context.Background(), s))
	return s
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
