package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSubscriptionClosed = errors.New("chat subscription closed")
	ErrLagged             = errors.New("chat subscriber lagged behind")
)

// LagPolicy decides what happens to a subscriber that fell more than Capacity
// messages behind.
type LagPolicy string

const (
	// LagSkip resumes the subscriber at the oldest retained message and reports the gap.
	LagSkip LagPolicy = "skip"
	// LagDisconnect closes the subscriber.
	LagDisconnect LagPolicy = "disconnect"
)

const DefaultCapacity = 1024

type Config struct {
	Capacity  int
	LagPolicy LagPolicy
}

func DefaultConfig() Config {
	return Config{
		Capacity:  DefaultCapacity,
		LagPolicy: LagSkip,
	}
}

// Metrics receives hub events. Implementations must be safe for concurrent use.
type Metrics interface {
	ChatSubscriberAdded()
	ChatSubscriberRemoved()
	ChatMessagePublished(room string)
	ChatMessagesMissed(n uint64)
}

type noopMetrics struct{}

func (noopMetrics) ChatSubscriberAdded()        {}
func (noopMetrics) ChatSubscriberRemoved()      {}
func (noopMetrics) ChatMessagePublished(string) {}
func (noopMetrics) ChatMessagesMissed(uint64)   {}

// Hub is a single-process broadcast channel. Messages live in a fixed ring; every
// subscriber owns a sequence cursor into it, so all subscribers observe the same
// order and a slow reader only ever loses its own oldest unread messages.
type Hub struct {
	mu          sync.Mutex
	ring        []domain.ChatMessage
	capacity    uint64
	tail        uint64
	wake        chan struct{}
	closed      bool
	subscribers int

	policy  LagPolicy
	metrics Metrics
	logger  *zap.SugaredLogger
}

var _ ports.ChatHub = (*Hub)(nil)

func NewHub(cfg Config, metrics Metrics, logger *zap.SugaredLogger) (*Hub, error) {
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("chat capacity must be > 0, got %d", cfg.Capacity)
	}
	switch cfg.LagPolicy {
	case "":
		cfg.LagPolicy = LagSkip
	case LagSkip, LagDisconnect:
	default:
		return nil, fmt.Errorf("unknown chat lag policy %q", cfg.LagPolicy)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Hub{
		ring:     make([]domain.ChatMessage, cfg.Capacity),
		capacity: uint64(cfg.Capacity),
		wake:     make(chan struct{}),
		policy:   cfg.LagPolicy,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Publish appends msg to the stream and returns the number of subscribers that
// will see it. Publishing to a closed hub is a no-op.
func (h *Hub) Publish(msg domain.ChatMessage) int {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0
	}
	h.ring[h.tail%h.capacity] = msg
	h.tail++
	close(h.wake)
	h.wake = make(chan struct{})
	receivers := h.subscribers
	h.mu.Unlock()

	h.metrics.ChatMessagePublished(msg.Room)
	return receivers
}

// Subscribe returns a cursor positioned at the current end of the stream.
func (h *Hub) Subscribe() ports.ChatSubscription {
	sub := &Subscription{
		id:   uuid.NewString(),
		hub:  h,
		done: make(chan struct{}),
	}

	h.mu.Lock()
	sub.next = h.tail
	if h.closed {
		sub.closed = true
	} else {
		h.subscribers++
	}
	h.mu.Unlock()

	if !sub.closed {
		h.metrics.ChatSubscriberAdded()
		h.logger.Debugw("chat subscriber added", "subscriber_id", sub.id)
	}
	return sub
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscribers
}

// Close ends every subscription. Pending Next calls return ErrSubscriptionClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.wake)
	h.logger.Infow("chat hub closed", "subscribers", h.subscribers)
}

// oldest is the sequence number of the oldest message still in the ring.
// Callers hold h.mu.
func (h *Hub) oldest() uint64 {
	if h.tail > h.capacity {
		return h.tail - h.capacity
	}
	return 0
}

// Subscription is one reader's position in the hub stream.
type Subscription struct {
	id   string
	hub  *Hub
	done chan struct{}
	once sync.Once

	// guarded by hub.mu
	next   uint64
	closed bool
}

func (s *Subscription) ID() string {
	return s.id
}

// Next waits for the next message. A subscriber that fell behind receives the
// oldest retained message with Missed set to the number of messages it lost.
// Cancelling ctx closes the subscription.
func (s *Subscription) Next(ctx context.Context) (domain.ChatDelivery, error) {
	h := s.hub
	for {
		h.mu.Lock()
		if s.closed || h.closed {
			h.mu.Unlock()
			s.Close()
			return domain.ChatDelivery{}, ErrSubscriptionClosed
		}

		if s.next < h.tail {
			var missed uint64
			if oldest := h.oldest(); s.next < oldest {
				missed = oldest - s.next
				s.next = oldest
			}

			if missed > 0 && h.policy == LagDisconnect {
				h.mu.Unlock()
				h.metrics.ChatMessagesMissed(missed)
				h.logger.Infow("disconnecting lagging chat subscriber", "subscriber_id", s.id, "missed", missed)
				s.Close()
				return domain.ChatDelivery{Missed: missed}, ErrLagged
			}

			msg := h.ring[s.next%h.capacity]
			s.next++
			h.mu.Unlock()

			if missed > 0 {
				h.metrics.ChatMessagesMissed(missed)
				h.logger.Debugw("chat subscriber lagged", "subscriber_id", s.id, "missed", missed)
			}
			return domain.ChatDelivery{Message: msg, Missed: missed}, nil
		}

		wake := h.wake
		h.mu.Unlock()

		select {
		case <-wake:
		case <-s.done:
			return domain.ChatDelivery{}, ErrSubscriptionClosed
		case <-ctx.Done():
			s.Close()
			return domain.ChatDelivery{}, ctx.Err()
		}
	}
}

// State reports Lagging while the cursor points at messages that were already
// overwritten.
func (s *Subscription) State() domain.SubscriberState {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case s.closed || h.closed:
		return domain.SubscriberClosed
	case s.next < h.oldest():
		return domain.SubscriberLagging
	default:
		return domain.SubscriberActive
	}
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		wasOpen := !s.closed
		s.closed = true
		if wasOpen {
			h.subscribers--
		}
		h.mu.Unlock()

		close(s.done)
		if wasOpen {
			h.metrics.ChatSubscriberRemoved()
			h.logger.Debugw("chat subscriber removed", "subscriber_id", s.id)
		}
	})
}
