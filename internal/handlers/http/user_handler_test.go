package http

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"streamie/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserValues(username string) url.Values {
	return url.Values{
		"fullname": {"Grace Hopper"},
		"username": {username},
		"password": {"cobol"},
		"role":     {"MODERATOR"},
	}
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenCookie(t, "admin", domain.RoleAdmin)

	w := env.do(http.MethodPost, "/usermanagement/add", newUserValues("grace"), admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":1}`, w.Body.String())

	w = env.do(http.MethodPost, "/usermanagement/add", newUserValues("grace"), admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"status":0`)

	users, err := env.users.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "MODERATOR", users[0].Role)
}

func TestCreateUser_Rejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/usermanagement/add", newUserValues("grace"), env.tokenCookie(t, "bob", domain.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"status":0}`, w.Body.String())

	w = env.do(http.MethodPost, "/usermanagement/add", newUserValues("grace"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	badRole := newUserValues("grace")
	badRole.Set("role", "ROOT")
	w = env.do(http.MethodPost, "/usermanagement/add", badRole, env.tokenCookie(t, "admin", domain.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"status":0`)

	users, err := env.users.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestListAndRemoveUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.tokenCookie(t, "admin", domain.RoleAdmin)

	user, err := env.users.CreateUser(context.Background(), "Grace Hopper", "grace", "cobol", "USER")
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/usermanagement", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Grace Hopper")
	assert.NotContains(t, w.Body.String(), user.Hash)

	w = env.do(http.MethodGet, "/usermanagement/remove/"+string(user.ID), nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":1}`, w.Body.String())

	w = env.do(http.MethodGet, "/usermanagement/remove/"+string(user.ID), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"status":0`)
}
