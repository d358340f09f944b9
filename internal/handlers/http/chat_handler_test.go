package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"streamie/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMessage_AnonymousIsDropped(t *testing.T) {
	env := newTestEnv(t)
	sub := env.chat.Subscribe()
	defer sub.Close()

	w := env.do(http.MethodPost, "/message", url.Values{"room": {"lobby"}, "message": {"hi"}})
	assert.Equal(t, http.StatusOK, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPostMessage_ReachesSubscribers(t *testing.T) {
	env := newTestEnv(t)
	sub := env.chat.Subscribe()
	defer sub.Close()

	w := env.do(http.MethodPost, "/message", url.Values{"room": {"lobby"}, "message": {"hi"}},
		env.tokenCookie(t, "bob", domain.RoleUser))
	require.Equal(t, http.StatusOK, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ChatMessage{
		Room:     "lobby",
		Username: "bob",
		Message:  "hi",
		ChatType: domain.ChatTagUser,
	}, d.Message)
}

func TestPostMessage_TooLong(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/message",
		url.Values{"room": {"lobby"}, "message": {strings.Repeat("x", 31)}},
		env.tokenCookie(t, "bob", domain.RoleUser))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/chat")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/chat", nil)
	require.NoError(t, err)
	req.AddCookie(env.tokenCookie(t, "alice", domain.RoleAdmin))

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// headers arrive after the subscription exists
	_, err = env.chat.Post(domain.Identity{Username: "bob", Role: domain.RoleModerator}, "lobby", "hello")
	require.NoError(t, err)

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			event = strings.TrimPrefix(line, "event:")
			continue
		}
		if strings.HasPrefix(line, "data:") && event == "message" {
			data = strings.TrimPrefix(line, "data:")
			break
		}
	}
	require.NotEmpty(t, data, "no message event received")

	var msg domain.ChatMessage
	require.NoError(t, json.Unmarshal([]byte(data), &msg))
	assert.Equal(t, "bob", msg.Username)
	assert.Equal(t, "hello", msg.Message)
	assert.Equal(t, domain.ChatTagModerator, msg.ChatType)
}
