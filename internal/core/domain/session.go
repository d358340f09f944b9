package domain

import (
	"strings"
	"time"
)

// SessionTimeLayout is the wire format of session start/end fields, always UTC.
const SessionTimeLayout = "02.01.2006 15:04:05"

type SessionID string

type Platform string

const (
	PlatformTwitch  Platform = "Twitch"
	PlatformYoutube Platform = "Youtube"
	PlatformNone    Platform = "None"
)

// ParsePlatform follows the admin form: Youtube and None are explicit, everything
// else is Twitch.
func ParsePlatform(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "youtube":
		return PlatformYoutube
	case "none":
		return PlatformNone
	default:
		return PlatformTwitch
	}
}

type SessionStream struct {
	Link     string   `json:"link"`
	Channel  string   `json:"channel"`
	Platform Platform `json:"stream_type"`
}

// Session is a scheduled stream event.
type Session struct {
	ID          SessionID     `json:"id"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Stream      SessionStream `json:"stream"`
}

// SessionPatch holds the fields of a partial update. Empty strings and nil times
// leave the stored value untouched.
type SessionPatch struct {
	Start       *time.Time
	End         *time.Time
	Name        string
	Description string
	Link        string
	Channel     string
	Platform    Platform
}

func (p SessionPatch) IsEmpty() bool {
	return p.Start == nil && p.End == nil && p.Name == "" && p.Description == "" &&
		p.Link == "" && p.Channel == "" && p.Platform == ""
}

// Apply returns a copy of s with every set field of p written over it.
func (s Session) Apply(p SessionPatch) Session {
	if p.Start != nil {
		s.Start = p.Start.UTC()
	}
	if p.End != nil {
		s.End = p.End.UTC()
	}
	if p.Name != "" {
		s.Name = p.Name
	}
	if p.Description != "" {
		s.Description = p.Description
	}
	if p.Link != "" {
		s.Stream.Link = p.Link
	}
	if p.Channel != "" {
		s.Stream.Channel = p.Channel
	}
	if p.Platform != "" {
		s.Stream.Platform = p.Platform
	}
	return s
}

func (s Session) HasValidTimeRange() bool {
	return s.Start.Before(s.End)
}
