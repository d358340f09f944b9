package http

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"streamie/internal/core/domain"
	"streamie/internal/infrastructure/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginValues(user, pass, captcha string) url.Values {
	return url.Values{"user": {user}, "pass": {pass}, "captcha": {captcha}}
}

func (e *testEnv) captchaCookie(t *testing.T, answer string) *http.Cookie {
	t.Helper()
	sealed, err := e.captcha.Seal(answer)
	require.NoError(t, err)
	return &http.Cookie{Name: captchaCookie, Value: sealed}
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.CreateUser(context.Background(), "Ada Admin", "admin", "pw", "ADMIN")
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/login/proceed", loginValues("admin", "pw", "12345"), env.captchaCookie(t, "12345"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Eingeloggt", w.Body.String())

	token := responseCookie(w, middleware.TokenCookie)
	require.NotNil(t, token)
	assert.True(t, token.HttpOnly)
	identity := env.auth.Authenticate(token.Value)
	assert.Equal(t, domain.Identity{Username: "admin", Role: domain.RoleAdmin}, identity)

	fullname := responseCookie(w, middleware.FullnameCookie)
	require.NotNil(t, fullname)
	decoded, err := url.QueryUnescape(fullname.Value)
	require.NoError(t, err)
	assert.Equal(t, "Ada Admin", decoded)

	// the captcha cookie is spent
	spent := responseCookie(w, captchaCookie)
	require.NotNil(t, spent)
	assert.Equal(t, -1, spent.MaxAge)
}

func TestLogin_CaptchaMismatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.CreateUser(context.Background(), "Ada Admin", "admin", "pw", "ADMIN")
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/login/proceed", loginValues("admin", "pw", "99999"), env.captchaCookie(t, "12345"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Not Authorized", w.Body.String())
	assert.Nil(t, responseCookie(w, middleware.TokenCookie))
}

func TestLogin_MissingCaptchaCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/login/proceed", loginValues("admin", "pw", "12345"))
	assert.Equal(t, "Not Authorized", w.Body.String())
	assert.Nil(t, responseCookie(w, middleware.TokenCookie))
}

func TestLogin_WrongPasswordAndUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.CreateUser(context.Background(), "Bob", "bob", "right", "USER")
	require.NoError(t, err)

	for _, form := range []url.Values{
		loginValues("bob", "wrong", "12345"),
		loginValues("nobody", "right", "12345"),
	} {
		w := env.do(http.MethodPost, "/login/proceed", form, env.captchaCookie(t, "12345"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Not Authorized", w.Body.String())
		assert.Nil(t, responseCookie(w, middleware.TokenCookie))
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/login/proceed", url.Values{"user": {"admin"}}, env.captchaCookie(t, "12345"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Not Authorized", w.Body.String())
}

func TestShowLogin_SetsCaptchaCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/login", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `src="data:image/png;base64,`)
	c := responseCookie(w, captchaCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.NotEmpty(t, c.Value)
}

func TestLogout_ClearsCookiesAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/logout", nil, env.tokenCookie(t, "alice", domain.RoleUser))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	token := responseCookie(w, middleware.TokenCookie)
	require.NotNil(t, token)
	assert.Equal(t, -1, token.MaxAge)
	assert.NotNil(t, responseCookie(w, flashCookie))

	// the flash is shown once on the index page
	w = env.do(http.MethodGet, "/", nil, &http.Cookie{Name: flashCookie, Value: "Successfully+logged+out."})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Successfully logged out.")
	assert.Contains(t, w.Body.String(), "Unknown User")
}
