package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-social/internal/config"
	"github.com/weiawesome/wes-io-social/internal/testutil"
	"github.com/weiawesome/wes-io-social/pkg/middleware"
	"github.com/weiawesome/wes-io-social/pkg/pubsub"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]*pubsub.Event
}

func (r *recordingPublisher) Publish(_ context.Context, channel string, event *pubsub.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string][]*pubsub.Event)
	}
	r.events[channel] = append(r.events[channel], event)
	return nil
}

func TestNotifierSkipsSelfEvents(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(pub)
	ctx := context.Background()

	n.PostLiked(ctx, "owner", "p1", "owner")
	n.Commented(ctx, "owner", "p1", "owner", "hi", true)
	assert.Empty(t, pub.events)

	n.PostLiked(ctx, "owner", "p1", "fan")
	n.Followed(ctx, "owner", "fan", "Fan")
	n.Commented(ctx, "owner", "p1", "fan", "hi", false)

	events := pub.events[pubsub.UserChannel("owner")]
	require.Len(t, events, 3)
	assert.Equal(t, pubsub.EventPostLiked, events[0].Type)
	assert.Equal(t, pubsub.EventFollowed, events[1].Type)
	assert.Equal(t, "fan", events[1].ActorID)

	var payload pubsub.CommentedPayload
	require.NoError(t, events[2].UnmarshalPayload(&payload))
	assert.Equal(t, "hi", payload.Comment)
	assert.False(t, payload.Created)
}

func TestNilNotifierIsNoop(t *testing.T) {
	var n *Notifier
	n.PostLiked(context.Background(), "a", "p", "b")
	NewNotifier(nil).Followed(context.Background(), "a", "b", "B")
}

func TestStreamDeliversNotifications(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client, _ := testutil.NewRedis(t)
	ps := pubsub.NewRedisPubSubFromClient(client)
	t.Cleanup(func() { _ = ps.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHandler(ctx, ps, config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxMessageSize:  512,
		WriteWait:       time.Second,
		PongWait:        time.Minute,
		PingInterval:    30 * time.Second,
	})

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, "owner")
		c.Next()
	}, h.Stream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	NewNotifier(ps).PostLiked(context.Background(), "owner", "p1", "fan")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev pubsub.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, pubsub.EventPostLiked, ev.Type)
	assert.Equal(t, "owner", ev.UserID)

	var payload pubsub.PostLikedPayload
	require.NoError(t, ev.UnmarshalPayload(&payload))
	assert.Equal(t, "p1", payload.PostID)

	// Shutting down closes the stream.
	cancel()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
