package services

import (
	"errors"
	"sync"
	"time"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	"streamie/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const MaxChatFieldLength = 30

// chatLimiterIdle is how long a poster's bucket survives without posts.
const chatLimiterIdle = 10 * time.Minute

var (
	ErrChatAnonymous      = errors.New("anonymous users cannot post to chat")
	ErrChatInvalidMessage = errors.New("chat room and message must be 1-30 characters")
	ErrChatRateLimited    = errors.New("chat rate limit exceeded")
)

type ChatRateLimit struct {
	MessagesPerSecond float64
	Burst             int
}

// ChatService turns form posts into chat messages for the hub.
type ChatService struct {
	hub    ports.ChatHub
	logger *zap.SugaredLogger

	limit     ChatRateLimit
	mu        sync.Mutex
	limiters  map[string]*chatLimiter
	lastSweep time.Time
}

type chatLimiter struct {
	limiter  *rate.Limiter
	lastPost time.Time
}

func NewChatService(hub ports.ChatHub, limit ChatRateLimit, logger *zap.SugaredLogger) *ChatService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if limit.Burst <= 0 {
		limit.Burst = 1
	}
	return &ChatService{
		hub:      hub,
		logger:   logger,
		limit:    limit,
		limiters:  make(map[string]*chatLimiter),
		lastSweep: time.Now(),
	}
}

// Post publishes text to room as identity and returns the number of receivers.
func (s *ChatService) Post(identity domain.Identity, room, text string) (int, error) {
	if !identity.IsAuthenticated() {
		return 0, ErrChatAnonymous
	}

	room = utils.SanitizeString(room)
	text = utils.SanitizeString(text)
	if room == "" || text == "" || utils.RuneLen(room) > MaxChatFieldLength || utils.RuneLen(text) > MaxChatFieldLength {
		return 0, ErrChatInvalidMessage
	}

	if !s.allow(identity.Username, time.Now()) {
		s.logger.Debugw("chat post rate limited", "username", identity.Username)
		return 0, ErrChatRateLimited
	}

	receivers := s.hub.Publish(domain.ChatMessage{
		Room:     room,
		Username: identity.Username,
		Message:  text,
		ChatType: identity.Role.ChatTag(),
	})
	return receivers, nil
}

func (s *ChatService) Subscribe() ports.ChatSubscription {
	return s.hub.Subscribe()
}

func (s *ChatService) allow(username string, now time.Time) bool {
	if s.limit.MessagesPerSecond <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > chatLimiterIdle {
		for name, l := range s.limiters {
			if now.Sub(l.lastPost) > chatLimiterIdle {
				delete(s.limiters, name)
			}
		}
		s.lastSweep = now
	}

	l, ok := s.limiters[username]
	if !ok {
		l = &chatLimiter{limiter: rate.NewLimiter(rate.Limit(s.limit.MessagesPerSecond), s.limit.Burst)}
		s.limiters[username] = l
	}
	l.lastPost = now
	return l.limiter.AllowN(now, 1)
}
