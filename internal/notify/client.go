package notify

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-social/internal/config"
)

// Client is one websocket connection of a user. Only the forwarding
// goroutine sends on or closes send.
type Client struct {
	UserID string
	conn   *websocket.Conn
	send   chan []byte
	config config.WebSocketConfig
	logger zerolog.Logger
}

func NewClient(userID string, conn *websocket.Conn, cfg config.WebSocketConfig, logger zerolog.Logger) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, 256),
		config: cfg,
		logger: logger,
	}
}

// ReadPump keeps the read side alive for control frames and returns when
// the peer goes away. Inbound data frames are ignored.
func (c *Client) ReadPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

// WritePump drains send and pings the peer until send is closed or a
// write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Enqueue queues message for writing, dropping it when the client is too
// slow to keep up.
func (c *Client) Enqueue(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal notification")
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn().Msg("notification buffer full, message dropped")
	}
}

func (c *Client) close() {
	close(c.send)
}
