package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	"streamie/internal/core/services"
	"streamie/internal/infrastructure/chat"
	"streamie/internal/infrastructure/middleware"
	apperrors "streamie/pkg/errors"
	"streamie/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ChatConfig struct {
	Heartbeat    time.Duration
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c ChatConfig) withDefaults() ChatConfig {
	if c.Heartbeat <= 0 {
		c.Heartbeat = 15 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PongTimeout <= c.PingInterval {
		c.PongTimeout = 2 * c.PingInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}

// ChatHandler streams the chat over SSE or WebSocket and accepts posts.
type ChatHandler struct {
	chatService *services.ChatService
	cfg         ChatConfig
	upgrader    websocket.Upgrader
	logger      *zap.SugaredLogger
}

func NewChatHandler(chatService *services.ChatService, cfg ChatConfig, logger *zap.SugaredLogger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ChatHandler{
		chatService: chatService,
		cfg:         cfg.withDefaults(),
		// nil CheckOrigin rejects cross-origin upgrades
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

type chatPostForm struct {
	Room    string `form:"room" json:"room" binding:"required,max=30"`
	Message string `form:"message" json:"message" binding:"required,max=30"`
}

// Post publishes a form message. Anonymous posts are dropped without an error.
func (h *ChatHandler) Post(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if !identity.IsAuthenticated() {
		c.Status(http.StatusOK)
		return
	}

	var form chatPostForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		_ = c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}

	if _, err := h.post(c.Request.Context(), identity, form); err != nil {
		_ = c.Error(chatError(err))
		return
	}
	c.Status(http.StatusOK)
}

func (h *ChatHandler) post(ctx context.Context, identity domain.Identity, form chatPostForm) (int, error) {
	_, span := tracing.TraceChat(ctx, "publish", form.Room)
	receivers, err := h.chatService.Post(identity, form.Room, form.Message)
	span.SetAttributes(attribute.Int("chat.receivers", receivers))
	tracing.End(span, err)
	return receivers, err
}

func chatError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, services.ErrChatRateLimited):
		return apperrors.NewRateLimitError()
	case errors.Is(err, services.ErrChatInvalidMessage):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, services.ErrChatAnonymous):
		return apperrors.NewUnauthorizedError(err.Error())
	default:
		return toAppError(err)
	}
}

type delivery struct {
	chat domain.ChatDelivery
	err  error
}

// pump forwards deliveries from sub until ctx ends or the subscription fails.
// The channel is closed after the last send.
func pump(ctx context.Context, sub ports.ChatSubscription) <-chan delivery {
	out := make(chan delivery)
	go func() {
		defer close(out)
		for {
			d, err := sub.Next(ctx)
			select {
			case out <- delivery{chat: d, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// Stream serves the chat as server-sent events. Each message is a "message"
// event with the JSON chat message; a subscriber that fell behind first gets a
// "lagged" event with the number of dropped messages.
func (h *ChatHandler) Stream(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.chatService.Subscribe()
	defer sub.Close()

	identity := middleware.IdentityFrom(c)
	h.logger.Debugw("chat stream opened", "subscriber_id", sub.ID(), "username", identity.Username)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	// send headers now so the client knows it is subscribed
	c.Status(http.StatusOK)
	c.Writer.Flush()

	deliveries := pump(ctx, sub)
	heartbeat := time.NewTicker(h.cfg.Heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return false
			}
			if d.chat.Missed > 0 {
				c.SSEvent("lagged", gin.H{"missed": d.chat.Missed})
			}
			if d.err != nil {
				if !errors.Is(d.err, context.Canceled) && !errors.Is(d.err, chat.ErrSubscriptionClosed) {
					h.logger.Debugw("chat stream ended", "subscriber_id", sub.ID(), "error", d.err)
				}
				return false
			}
			c.SSEvent("message", d.chat.Message)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})

	h.logger.Debugw("chat stream closed", "subscriber_id", sub.ID())
}

type wsFrame struct {
	Type    string              `json:"type"`
	Message *domain.ChatMessage `json:"message,omitempty"`
	Missed  uint64              `json:"missed,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// WebSocket serves the same stream over a websocket. Clients may also post by
// sending {"room": ..., "message": ...} frames.
func (h *ChatHandler) WebSocket(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Infow("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.chatService.Subscribe()
	defer sub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	// replies to posts go through the writer loop, gorilla allows one writer
	replies := make(chan wsFrame, 8)
	reply := func(f wsFrame) {
		select {
		case replies <- f:
		case <-ctx.Done():
		}
	}
	readErr := make(chan error, 1)
	go func() {
		for {
			var form chatPostForm
			if err := conn.ReadJSON(&form); err != nil {
				readErr <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))

			if err := binding.Validator.ValidateStruct(&form); err != nil {
				reply(wsFrame{Type: "error", Error: "room and message are required, max 30 characters"})
				continue
			}
			if _, err := h.post(ctx, identity, form); err != nil {
				reply(wsFrame{Type: "error", Error: err.Error()})
			}
		}
	}()

	deliveries := pump(ctx, sub)
	ping := time.NewTicker(h.cfg.PingInterval)
	defer ping.Stop()

	write := func(frame wsFrame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		return conn.WriteJSON(frame)
	}

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if d.chat.Missed > 0 {
				if err := write(wsFrame{Type: "lagged", Missed: d.chat.Missed}); err != nil {
					return
				}
			}
			if d.err != nil {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "chat closed"),
					time.Now().Add(h.cfg.WriteTimeout))
				return
			}
			msg := d.chat.Message
			if err := write(wsFrame{Type: "message", Message: &msg}); err != nil {
				return
			}
		case frame := <-replies:
			if err := write(frame); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debugw("websocket ping failed", "subscriber_id", sub.ID(), "error", err)
				return
			}
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Infow("websocket read failed", "subscriber_id", sub.ID(), "error", err)
			}
			return
		}
	}
}
