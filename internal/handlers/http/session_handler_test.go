package http

import (
	"net/http"
	"testing"

	"streamie/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestListSessions(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession(t, "Speedrun Night")

	w := env.do(http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Not authorized")

	w = env.do(http.MethodGet, "/sessions", nil, env.tokenCookie(t, "bob", domain.RoleUser))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Speedrun Night")
	assert.Contains(t, w.Body.String(), "09.07.2022 07:48:15")
}

func TestShowSession(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedSession(t, "Speedrun Night")
	user := env.tokenCookie(t, "bob", domain.RoleUser)

	w := env.do(http.MethodGet, "/session/"+string(s.ID), nil, user)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Speedrun Night")
	assert.Contains(t, w.Body.String(), "https://www.twitch.tv/primeleague")

	// malformed and unknown ids both render the not found view
	for _, id := range []string{"not-an-id", "65a0c0ffee0000000000beef"} {
		w = env.do(http.MethodGet, "/session/"+id, nil, user)
		assert.Equal(t, http.StatusNotFound, w.Code, id)
		assert.Contains(t, w.Body.String(), "Not found", id)
	}
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/does/not/exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not found")
}
