package domain

type ChatTag string

const (
	ChatTagAdmin     ChatTag = "admin"
	ChatTagModerator ChatTag = "mod"
	ChatTagUser      ChatTag = "user"
)

// ChatMessage is broadcast to every connected chat client. It is never persisted.
type ChatMessage struct {
	Room     string  `json:"room"`
	Username string  `json:"username"`
	Message  string  `json:"message"`
	ChatType ChatTag `json:"chat_type"`
}

// ChatDelivery is one read from a chat subscription. Missed is non-zero when the
// subscriber fell behind and older messages were dropped for it.
type ChatDelivery struct {
	Message ChatMessage
	Missed  uint64
}

type SubscriberState int

const (
	SubscriberActive SubscriberState = iota
	SubscriberLagging
	SubscriberClosed
)

func (s SubscriberState) String() string {
	switch s {
	case SubscriberActive:
		return "active"
	case SubscriberLagging:
		return "lagging"
	case SubscriberClosed:
		return "closed"
	default:
		return "unknown"
	}
}
