package domain

import "strings"

// Issuer is the only issuer accepted on session tokens.
const Issuer = "streamie.live"

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleUser      Role = "USER"
)

// ParseRole maps a stored role string to a Role. Anything unknown is a plain user.
func ParseRole(s string) Role {
	switch strings.TrimSpace(s) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleModerator):
		return RoleModerator
	default:
		return RoleUser
	}
}

// ChatTag is the colour tag attached to chat messages written by this role.
func (r Role) ChatTag() ChatTag {
	switch r {
	case RoleAdmin:
		return ChatTagAdmin
	case RoleModerator:
		return ChatTagModerator
	default:
		return ChatTagUser
	}
}

// Claims are the fields carried inside a signed session token.
type Claims struct {
	Username  string
	Role      Role
	Issuer    string
	IssuedAt  int64
	ExpiresAt int64
}

// Identity is the caller resolved from a request. The zero value is anonymous.
type Identity struct {
	Username string
	Role     Role
}

var Anonymous = Identity{}

func (i Identity) IsAuthenticated() bool {
	return i.Username != ""
}
