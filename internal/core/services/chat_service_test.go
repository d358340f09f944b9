package services

import (
	"strings"
	"testing"
	"time"

	"streamie/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChatService_PostTagsByRole(t *testing.T) {
	cases := []struct {
		role domain.Role
		tag  domain.ChatTag
	}{
		{domain.RoleAdmin, domain.ChatTagAdmin},
		{domain.RoleModerator, domain.ChatTagModerator},
		{domain.RoleUser, domain.ChatTagUser},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			hub := new(MockChatHub)
			svc := NewChatService(hub, ChatRateLimit{}, nil)

			hub.On("Publish", domain.ChatMessage{
				Room:     "lobby",
				Username: "alice",
				Message:  "hi",
				ChatType: tc.tag,
			}).Return(3)

			n, err := svc.Post(domain.Identity{Username: "alice", Role: tc.role}, " lobby ", "hi")
			require.NoError(t, err)
			assert.Equal(t, 3, n)
			hub.AssertExpectations(t)
		})
	}
}

func TestChatService_AnonymousIgnored(t *testing.T) {
	hub := new(MockChatHub)
	svc := NewChatService(hub, ChatRateLimit{}, nil)

	_, err := svc.Post(domain.Anonymous, "lobby", "hi")
	assert.ErrorIs(t, err, ErrChatAnonymous)
	hub.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestChatService_RejectsInvalidFields(t *testing.T) {
	hub := new(MockChatHub)
	svc := NewChatService(hub, ChatRateLimit{}, nil)
	id := domain.Identity{Username: "alice", Role: domain.RoleUser}

	for _, tc := range []struct{ room, text string }{
		{"", "hi"},
		{"lobby", "   "},
		{"lobby", strings.Repeat("x", MaxChatFieldLength+1)},
		{strings.Repeat("r", MaxChatFieldLength+1), "hi"},
	} {
		_, err := svc.Post(id, tc.room, tc.text)
		assert.ErrorIs(t, err, ErrChatInvalidMessage)
	}
	hub.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestChatService_RateLimitPerUser(t *testing.T) {
	hub := new(MockChatHub)
	hub.On("Publish", mock.Anything).Return(1)
	svc := NewChatService(hub, ChatRateLimit{MessagesPerSecond: 0.001, Burst: 1}, nil)

	alice := domain.Identity{Username: "alice", Role: domain.RoleUser}
	bob := domain.Identity{Username: "bob", Role: domain.RoleUser}

	_, err := svc.Post(alice, "lobby", "one")
	require.NoError(t, err)
	_, err = svc.Post(alice, "lobby", "two")
	assert.ErrorIs(t, err, ErrChatRateLimited)

	_, err = svc.Post(bob, "lobby", "one")
	assert.NoError(t, err)
	hub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestChatService_IdleLimitersSwept(t *testing.T) {
	svc := NewChatService(new(MockChatHub), ChatRateLimit{MessagesPerSecond: 1, Burst: 1}, nil)
	start := time.Now()

	assert.True(t, svc.allow("alice", start))
	assert.True(t, svc.allow("bob", start.Add(5*time.Minute)))
	assert.True(t, svc.allow("carol", start.Add(chatLimiterIdle+time.Minute)))

	assert.Len(t, svc.limiters, 2)
	assert.NotContains(t, svc.limiters, "alice")
	assert.Contains(t, svc.limiters, "bob")
	assert.Contains(t, svc.limiters, "carol")
}
