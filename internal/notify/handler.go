package notify

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/wes-io-social/internal/config"
	"github.com/weiawesome/wes-io-social/pkg/log"
	"github.com/weiawesome/wes-io-social/pkg/middleware"
	"github.com/weiawesome/wes-io-social/pkg/pubsub"
	"github.com/weiawesome/wes-io-social/pkg/response"
)

// Handler upgrades authenticated requests to websockets that stream the
// caller's notifications.
type Handler struct {
	ctx      context.Context
	sub      pubsub.Subscriber
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewHandler ties every stream to ctx; cancelling it closes all streams.
func NewHandler(ctx context.Context, sub pubsub.Subscriber, cfg config.WebSocketConfig) *Handler {
	return &Handler{
		ctx: ctx,
		sub: sub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Stream handles GET /api/v1/notifications/ws.
func (h *Handler) Stream(c *gin.Context) {
	userID := middleware.GetUserID(c)
	l := log.Ctx(c.Request.Context())

	// The request context ends when this handler returns; the stream
	// outlives it.
	streamCtx, cancel := context.WithCancel(log.WithLogger(h.ctx, l))

	events, err := h.sub.Subscribe(streamCtx, pubsub.UserChannel(userID))
	if err != nil {
		cancel()
		l.Error().Err(err).Msg("failed to subscribe to notifications")
		response.InternalError(c, "failed to subscribe to notifications")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(userID, conn, h.cfg, l)
	l.Info().Msg("notification stream opened")

	go client.WritePump()
	go func() {
		client.ReadPump()
		cancel()
	}()
	go func() {
		defer client.close()
		for ev := range events {
			client.Enqueue(ev)
		}
		l.Info().Msg("notification stream closed")
	}()
}
