package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionApply_OnlyNameSet(t *testing.T) {
	start := time.Date(2022, 7, 9, 7, 48, 15, 0, time.UTC)
	end := start.Add(time.Hour)
	stored := Session{
		ID:          "abc",
		Start:       start,
		End:         end,
		Name:        "OldName",
		Description: "desc",
		Stream:      SessionStream{Link: "https://twitch.tv/x", Channel: "x", Platform: PlatformTwitch},
	}

	updated := stored.Apply(SessionPatch{Name: "NewName"})

	assert.Equal(t, "NewName", updated.Name)
	assert.Equal(t, stored.Start, updated.Start)
	assert.Equal(t, stored.End, updated.End)
	assert.Equal(t, stored.Description, updated.Description)
	assert.Equal(t, stored.Stream, updated.Stream)
	assert.Equal(t, "OldName", stored.Name, "apply must not mutate the receiver")
}

func TestSessionApply_AllFields(t *testing.T) {
	newStart := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(2 * time.Hour)

	updated := Session{}.Apply(SessionPatch{
		Start:       &newStart,
		End:         &newEnd,
		Name:        "n",
		Description: "d",
		Link:        "l",
		Channel:     "c",
		Platform:    PlatformYoutube,
	})

	assert.Equal(t, newStart, updated.Start)
	assert.Equal(t, newEnd, updated.End)
	assert.Equal(t, SessionStream{Link: "l", Channel: "c", Platform: PlatformYoutube}, updated.Stream)
	assert.True(t, updated.HasValidTimeRange())
}

func TestSessionPatch_IsEmpty(t *testing.T) {
	assert.True(t, SessionPatch{}.IsEmpty())
	assert.False(t, SessionPatch{Channel: "c"}.IsEmpty())
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, PlatformYoutube, ParsePlatform("Youtube"))
	assert.Equal(t, PlatformYoutube, ParsePlatform("YouTube"))
	assert.Equal(t, PlatformNone, ParsePlatform("None"))
	assert.Equal(t, PlatformTwitch, ParsePlatform("Twitch"))
	assert.Equal(t, PlatformTwitch, ParsePlatform("anything"))
}

func TestParseRoleAndChatTag(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleModerator, ParseRole("MODERATOR"))
	assert.Equal(t, RoleUser, ParseRole("admin"))
	assert.Equal(t, RoleUser, ParseRole(""))

	assert.Equal(t, ChatTagAdmin, RoleAdmin.ChatTag())
	assert.Equal(t, ChatTagModerator, RoleModerator.ChatTag())
	assert.Equal(t, ChatTagUser, RoleUser.ChatTag())
}

func TestIdentity_IsAuthenticated(t *testing.T) {
	assert.False(t, Anonymous.IsAuthenticated())
	assert.True(t, Identity{Username: "bob", Role: RoleUser}.IsAuthenticated())
}
